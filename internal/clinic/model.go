package clinic

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ValidStatus reports whether s is one of the three known appointment states.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Plan struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID            int64
	Name          string
	TaxID         string
	LicenseNumber string
	BirthDate     time.Time
	Plans         []Plan
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AcceptsPlan reports whether planID is in the doctor's accepted set.
func (d *Doctor) AcceptsPlan(planID int64) bool {
	for _, p := range d.Plans {
		if p.ID == planID {
			return true
		}
	}
	return false
}

type Patient struct {
	ID        int64
	Name      string
	TaxID     string
	BirthDate time.Time
	PlanID    *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID          int64
	PatientID   int64
	DoctorID    int64
	ScheduledAt time.Time
	Price       decimal.Decimal
	Status      AppointmentStatus
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppointmentDetail is an appointment hydrated with its related parties,
// as returned by the read endpoints.
type AppointmentDetail struct {
	Appointment
	PatientName   string
	PatientTaxID  string
	DoctorName    string
	DoctorLicense string
	PlanID        *int64
	PlanName      *string
}
