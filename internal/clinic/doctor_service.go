package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DoctorInput carries the full desired state of a doctor. Update semantics
// are replace-all: the plan set supplied here becomes the doctor's entire
// accepted set.
type DoctorInput struct {
	Name          string
	TaxID         string
	LicenseNumber string
	BirthDate     time.Time
	PlanIDs       []int64
}

type DoctorService struct {
	repo Repository
	log  zerolog.Logger
}

func NewDoctorService(repo Repository, log zerolog.Logger) *DoctorService {
	return &DoctorService{repo: repo, log: log}
}

func (s *DoctorService) Get(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *DoctorService) List(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

func (s *DoctorService) ListByPlan(ctx context.Context, planID int64) ([]Doctor, error) {
	if _, err := s.repo.GetPlanByID(ctx, planID); err != nil {
		return nil, err
	}
	return s.repo.ListDoctorsByPlan(ctx, planID)
}

func (s *DoctorService) Create(ctx context.Context, in DoctorInput) (*Doctor, error) {
	if err := s.checkUnique(ctx, in, nil); err != nil {
		return nil, err
	}
	if err := s.checkPlansExist(ctx, in.PlanIDs); err != nil {
		return nil, err
	}

	d := &Doctor{
		Name:          in.Name,
		TaxID:         in.TaxID,
		LicenseNumber: in.LicenseNumber,
		BirthDate:     in.BirthDate,
	}
	id, err := s.repo.CreateDoctor(ctx, d, in.PlanIDs)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("doctor_id", id).Str("name", in.Name).Msg("doctor created")
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *DoctorService) Update(ctx context.Context, id int64, in DoctorInput) (*Doctor, error) {
	if _, err := s.repo.GetDoctorByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in, &id); err != nil {
		return nil, err
	}
	if err := s.checkPlansExist(ctx, in.PlanIDs); err != nil {
		return nil, err
	}

	d := &Doctor{
		ID:            id,
		Name:          in.Name,
		TaxID:         in.TaxID,
		LicenseNumber: in.LicenseNumber,
		BirthDate:     in.BirthDate,
	}
	if err := s.repo.UpdateDoctor(ctx, d, in.PlanIDs); err != nil {
		return nil, err
	}
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *DoctorService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDoctor(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("doctor_id", id).Msg("doctor deleted")
	return nil
}

// checkUnique enforces tax-id and license uniqueness across doctors. On
// update the record being written is excluded, so an unchanged tax id is not
// reported as a duplicate.
func (s *DoctorService) checkUnique(ctx context.Context, in DoctorInput, selfID *int64) error {
	existing, err := s.repo.GetDoctorByTaxID(ctx, in.TaxID)
	switch {
	case err == nil:
		if selfID == nil || existing.ID != *selfID {
			return ErrTaxIDTaken
		}
	case !errors.Is(err, ErrDoctorNotFound):
		return fmt.Errorf("check tax id: %w", err)
	}

	existing, err = s.repo.GetDoctorByLicense(ctx, in.LicenseNumber)
	switch {
	case err == nil:
		if selfID == nil || existing.ID != *selfID {
			return ErrLicenseTaken
		}
	case !errors.Is(err, ErrDoctorNotFound):
		return fmt.Errorf("check license number: %w", err)
	}

	return nil
}

func (s *DoctorService) checkPlansExist(ctx context.Context, planIDs []int64) error {
	for _, planID := range planIDs {
		if _, err := s.repo.GetPlanByID(ctx, planID); err != nil {
			return err
		}
	}
	return nil
}
