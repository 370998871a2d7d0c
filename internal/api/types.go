package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

// Requests

type PlanRequest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func (r PlanRequest) Validate(requireID bool) error {
	fields := []*validation.FieldRules{
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Price, validation.Required),
	}
	if requireID {
		fields = append(fields, validation.Field(&r.ID, validation.Required))
	}
	return validation.ValidateStruct(&r, fields...)
}

type DoctorRequest struct {
	Name          string  `json:"name"`
	TaxID         string  `json:"tax_id"`
	LicenseNumber string  `json:"license_number"`
	BirthDate     string  `json:"birth_date"`
	PlanIDs       []int64 `json:"plan_ids"`
}

func (r DoctorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.TaxID, validation.Required),
		validation.Field(&r.LicenseNumber, validation.Required),
		validation.Field(&r.BirthDate, validation.Required),
	)
}

type PatientRequest struct {
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	BirthDate string `json:"birth_date"`
	PlanID    *int64 `json:"plan_id"`
}

func (r PatientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.TaxID, validation.Required),
		validation.Field(&r.BirthDate, validation.Required),
	)
}

type CreateAppointmentRequest struct {
	PatientID   int64   `json:"patient_id"`
	DoctorID    int64   `json:"doctor_id"`
	ScheduledAt string  `json:"scheduled_at"`
	Notes       *string `json:"notes"`
}

func (r CreateAppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required),
		validation.Field(&r.DoctorID, validation.Required),
		validation.Field(&r.ScheduledAt, validation.Required),
	)
}

type UpdateAppointmentRequest struct {
	DoctorID    *int64  `json:"doctor_id"`
	ScheduledAt *string `json:"scheduled_at"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

// Responses

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PlanInUseResponse reports exactly which entities block a plan deletion.
type PlanInUseResponse struct {
	Error    string `json:"error"`
	PlanName string `json:"plan_name"`
	Doctors  int64  `json:"doctors"`
	Patients int64  `json:"patients"`
}

type PlanResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPlanResponse(p clinic.Plan) PlanResponse {
	return PlanResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type DoctorResponse struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	TaxID         string         `json:"tax_id"`
	LicenseNumber string         `json:"license_number"`
	BirthDate     string         `json:"birth_date"`
	Plans         []PlanResponse `json:"plans"`
}

func toDoctorResponse(d clinic.Doctor) DoctorResponse {
	plans := make([]PlanResponse, 0, len(d.Plans))
	for _, p := range d.Plans {
		plans = append(plans, toPlanResponse(p))
	}
	return DoctorResponse{
		ID:            d.ID,
		Name:          d.Name,
		TaxID:         d.TaxID,
		LicenseNumber: d.LicenseNumber,
		BirthDate:     d.BirthDate.Format("2006-01-02"),
		Plans:         plans,
	}
}

type PatientResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	BirthDate string `json:"birth_date"`
	PlanID    *int64 `json:"plan_id"`
}

func toPatientResponse(p clinic.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		TaxID:     p.TaxID,
		BirthDate: p.BirthDate.Format("2006-01-02"),
		PlanID:    p.PlanID,
	}
}

// CreateAppointmentResponse is the 201 body: the new id and the price copied
// from the patient's plan.
type CreateAppointmentResponse struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
}

type AppointmentResponse struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DoctorID    int64     `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Price       string    `json:"price"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(a clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		ScheduledAt: a.ScheduledAt,
		Price:       a.Price.StringFixed(2),
		Status:      string(a.Status),
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PatientName   string  `json:"patient_name"`
	PatientTaxID  string  `json:"patient_tax_id"`
	DoctorName    string  `json:"doctor_name"`
	DoctorLicense string  `json:"doctor_license"`
	PlanID        *int64  `json:"plan_id,omitempty"`
	PlanName      *string `json:"plan_name,omitempty"`
}

func toAppointmentDetailResponse(d clinic.AppointmentDetail) AppointmentDetailResponse {
	return AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(d.Appointment),
		PatientName:         d.PatientName,
		PatientTaxID:        d.PatientTaxID,
		DoctorName:          d.DoctorName,
		DoctorLicense:       d.DoctorLicense,
		PlanID:              d.PlanID,
		PlanName:            d.PlanName,
	}
}
