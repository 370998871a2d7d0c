package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/medsuite/clinic-scheduling/internal/redis"
)

// SchedulingService decides whether an appointment may be created or
// rescheduled: the doctor must accept the patient's plan, and no other
// non-cancelled appointment may occupy the same doctor/minute slot. The
// check-then-write window is guarded by a per-slot lock, with a partial
// unique index in the store as the backstop.
type SchedulingService struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewSchedulingService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *SchedulingService {
	return &SchedulingService{repo: repo, locker: locker, log: log}
}

type CreateAppointmentInput struct {
	PatientID   int64
	DoctorID    int64
	ScheduledAt time.Time
	Notes       *string
}

// UpdateAppointmentInput holds the fields a reschedule may change; nil means
// keep the current value.
type UpdateAppointmentInput struct {
	DoctorID    *int64
	ScheduledAt *time.Time
	Status      *AppointmentStatus
	Notes       *string
}

// DoctorsAcceptingPatientPlan returns the distinct doctors whose accepted
// set contains the patient's plan, ordered by name. This is the one
// eligibility implementation; appointment validation and the
// available-doctors endpoint both go through it.
func (s *SchedulingService) DoctorsAcceptingPatientPlan(ctx context.Context, patientID int64) ([]Doctor, error) {
	patient, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.PlanID == nil {
		return []Doctor{}, nil
	}
	return s.repo.ListDoctorsByPlan(ctx, *patient.PlanID)
}

func (s *SchedulingService) Create(ctx context.Context, in CreateAppointmentInput) (*Appointment, error) {
	patient, err := s.repo.GetPatientByID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.repo.GetDoctorByID(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	plan, err := s.resolvePlan(ctx, patient)
	if err != nil {
		return nil, err
	}

	if err := s.checkEligibility(ctx, patient.ID, doctor, plan); err != nil {
		return nil, err
	}

	slot := in.ScheduledAt.Truncate(time.Minute)
	appt := &Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: slot,
		Price:       plan.Price,
		Status:      StatusScheduled,
		Notes:       in.Notes,
	}

	err = s.locker.WithScheduleLock(ctx, doctor.ID, slot, func(lockCtx context.Context) error {
		conflict, err := s.repo.HasScheduleConflict(lockCtx, doctor.ID, slot, nil)
		if err != nil {
			return fmt.Errorf("check schedule conflict: %w", err)
		}
		if conflict {
			return ErrScheduleConflict
		}

		id, err := s.repo.CreateAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		appt.ID = id
		return nil
	})
	if err != nil {
		// A lost lock race means another create for the same slot is in
		// flight; at most one of them can win.
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleConflict
		}
		return nil, err
	}

	s.log.Info().
		Int64("appointment_id", appt.ID).
		Int64("patient_id", patient.ID).
		Int64("doctor_id", doctor.ID).
		Time("scheduled_at", slot).
		Str("price", appt.Price.StringFixed(2)).
		Msg("appointment scheduled")

	return appt, nil
}

func (s *SchedulingService) Update(ctx context.Context, id int64, in UpdateAppointmentInput) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && !ValidStatus(*in.Status) {
		return nil, Validationf("invalid status %q", *in.Status)
	}

	patient, err := s.repo.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}
	plan, err := s.resolvePlan(ctx, patient)
	if err != nil {
		return nil, err
	}

	if in.DoctorID != nil && *in.DoctorID != appt.DoctorID {
		doctor, err := s.repo.GetDoctorByID(ctx, *in.DoctorID)
		if err != nil {
			return nil, err
		}
		if err := s.checkEligibility(ctx, patient.ID, doctor, plan); err != nil {
			return nil, err
		}
	}

	if in.DoctorID != nil {
		appt.DoctorID = *in.DoctorID
	}
	if in.ScheduledAt != nil {
		appt.ScheduledAt = in.ScheduledAt.Truncate(time.Minute)
	}
	if in.Status != nil {
		appt.Status = *in.Status
	}
	if in.Notes != nil {
		appt.Notes = in.Notes
	}
	// Price is refreshed from the patient's current plan on every update,
	// whether or not doctor or timestamp changed.
	appt.Price = plan.Price

	persist := func(lockCtx context.Context) error {
		return s.repo.UpdateAppointment(lockCtx, appt)
	}

	if in.DoctorID != nil || in.ScheduledAt != nil {
		err = s.locker.WithScheduleLock(ctx, appt.DoctorID, appt.ScheduledAt, func(lockCtx context.Context) error {
			conflict, err := s.repo.HasScheduleConflict(lockCtx, appt.DoctorID, appt.ScheduledAt, &appt.ID)
			if err != nil {
				return fmt.Errorf("check schedule conflict: %w", err)
			}
			if conflict {
				return ErrScheduleConflict
			}
			return persist(lockCtx)
		})
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleConflict
		}
	} else {
		err = persist(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("appointment_id", appt.ID).Msg("appointment updated")
	return appt, nil
}

func (s *SchedulingService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("appointment_id", id).Msg("appointment deleted")
	return nil
}

func (s *SchedulingService) Get(ctx context.Context, id int64) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

func (s *SchedulingService) List(ctx context.Context) ([]AppointmentDetail, error) {
	return s.repo.ListAppointments(ctx)
}

// resolvePlan loads the patient's plan; a patient without one cannot be
// scheduled, reported the same way as a dangling plan reference.
func (s *SchedulingService) resolvePlan(ctx context.Context, patient *Patient) (*Plan, error) {
	if patient.PlanID == nil {
		return nil, ErrPlanNotFound
	}
	return s.repo.GetPlanByID(ctx, *patient.PlanID)
}

func (s *SchedulingService) checkEligibility(ctx context.Context, patientID int64, doctor *Doctor, plan *Plan) error {
	eligible, err := s.DoctorsAcceptingPatientPlan(ctx, patientID)
	if err != nil {
		return err
	}
	for _, d := range eligible {
		if d.ID == doctor.ID {
			return nil
		}
	}
	return &PlanNotAcceptedError{DoctorName: doctor.Name, PlanName: plan.Name}
}
