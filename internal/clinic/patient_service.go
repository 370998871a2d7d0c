package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PatientInput carries the full desired state of a patient. PlanID may be
// nil for a patient with no coverage.
type PatientInput struct {
	Name      string
	TaxID     string
	BirthDate time.Time
	PlanID    *int64
}

type PatientService struct {
	repo Repository
	log  zerolog.Logger
}

func NewPatientService(repo Repository, log zerolog.Logger) *PatientService {
	return &PatientService{repo: repo, log: log}
}

func (s *PatientService) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *PatientService) List(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

func (s *PatientService) ListByPlan(ctx context.Context, planID int64) ([]Patient, error) {
	if _, err := s.repo.GetPlanByID(ctx, planID); err != nil {
		return nil, err
	}
	return s.repo.ListPatientsByPlan(ctx, planID)
}

func (s *PatientService) Create(ctx context.Context, in PatientInput) (*Patient, error) {
	if err := s.checkUnique(ctx, in.TaxID, nil); err != nil {
		return nil, err
	}
	if err := s.checkPlanExists(ctx, in.PlanID); err != nil {
		return nil, err
	}

	p := &Patient{
		Name:      in.Name,
		TaxID:     in.TaxID,
		BirthDate: in.BirthDate,
		PlanID:    in.PlanID,
	}
	id, err := s.repo.CreatePatient(ctx, p)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("patient_id", id).Str("name", in.Name).Msg("patient created")
	return s.repo.GetPatientByID(ctx, id)
}

func (s *PatientService) Update(ctx context.Context, id int64, in PatientInput) (*Patient, error) {
	if _, err := s.repo.GetPatientByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.TaxID, &id); err != nil {
		return nil, err
	}
	if err := s.checkPlanExists(ctx, in.PlanID); err != nil {
		return nil, err
	}

	p := &Patient{
		ID:        id,
		Name:      in.Name,
		TaxID:     in.TaxID,
		BirthDate: in.BirthDate,
		PlanID:    in.PlanID,
	}
	if err := s.repo.UpdatePatient(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetPatientByID(ctx, id)
}

func (s *PatientService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeletePatient(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("patient_id", id).Msg("patient deleted")
	return nil
}

func (s *PatientService) checkUnique(ctx context.Context, taxID string, selfID *int64) error {
	existing, err := s.repo.GetPatientByTaxID(ctx, taxID)
	switch {
	case err == nil:
		if selfID == nil || existing.ID != *selfID {
			return ErrTaxIDTaken
		}
	case !errors.Is(err, ErrPatientNotFound):
		return fmt.Errorf("check tax id: %w", err)
	}
	return nil
}

func (s *PatientService) checkPlanExists(ctx context.Context, planID *int64) error {
	if planID == nil {
		return nil
	}
	_, err := s.repo.GetPlanByID(ctx, *planID)
	return err
}
