package clinic

import (
	"context"
	"time"
)

// Repository contains all DB interactions needed by the services.
type Repository interface {
	// Plans
	GetPlanByID(ctx context.Context, id int64) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	CreatePlan(ctx context.Context, p *Plan) error
	UpdatePlan(ctx context.Context, p *Plan) error
	DeletePlan(ctx context.Context, id int64) error
	// For the deletion guard
	CountPlanDependents(ctx context.Context, planID int64) (doctors, patients int64, err error)

	// Doctors. Create and Update replace the full plan-association set in the
	// same transaction as the doctor row write.
	GetDoctorByID(ctx context.Context, id int64) (*Doctor, error)
	GetDoctorByTaxID(ctx context.Context, taxID string) (*Doctor, error)
	GetDoctorByLicense(ctx context.Context, licenseNumber string) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	ListDoctorsByPlan(ctx context.Context, planID int64) ([]Doctor, error)
	CreateDoctor(ctx context.Context, d *Doctor, planIDs []int64) (int64, error)
	UpdateDoctor(ctx context.Context, d *Doctor, planIDs []int64) error
	DeleteDoctor(ctx context.Context, id int64) error

	// Patients
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
	GetPatientByTaxID(ctx context.Context, taxID string) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	ListPatientsByPlan(ctx context.Context, planID int64) ([]Patient, error)
	CreatePatient(ctx context.Context, p *Patient) (int64, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	DeletePatient(ctx context.Context, id int64) error

	// Appointments
	GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context) ([]AppointmentDetail, error)
	// For conflict checks: any non-cancelled appointment for the doctor at the
	// same minute, optionally excluding one appointment id on self-update.
	HasScheduleConflict(ctx context.Context, doctorID int64, at time.Time, excludeID *int64) (bool, error)
	CreateAppointment(ctx context.Context, a *Appointment) (int64, error)
	UpdateAppointment(ctx context.Context, a *Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
}
