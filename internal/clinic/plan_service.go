package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlanService owns the plan registry: caller-assigned ids, mutable name and
// price, deletion blocked while any doctor or patient still references the plan.
type PlanService struct {
	repo Repository
	log  zerolog.Logger
}

func NewPlanService(repo Repository, log zerolog.Logger) *PlanService {
	return &PlanService{repo: repo, log: log}
}

func (s *PlanService) Get(ctx context.Context, id int64) (*Plan, error) {
	return s.repo.GetPlanByID(ctx, id)
}

func (s *PlanService) List(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

func (s *PlanService) Create(ctx context.Context, id int64, name string, price decimal.Decimal) (*Plan, error) {
	if id <= 0 {
		return nil, Validationf("plan id must be a positive integer")
	}
	if price.IsNegative() {
		return nil, Validationf("plan price must not be negative")
	}

	// Plan ids are assigned by the caller, so a duplicate is a rule violation
	// rather than a generated-key retry.
	if _, err := s.repo.GetPlanByID(ctx, id); err == nil {
		return nil, ErrPlanIDTaken
	} else if !errors.Is(err, ErrPlanNotFound) {
		return nil, fmt.Errorf("check plan id: %w", err)
	}

	p := &Plan{ID: id, Name: name, Price: price}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Int64("plan_id", id).Str("name", name).Msg("plan created")
	return s.repo.GetPlanByID(ctx, id)
}

func (s *PlanService) Update(ctx context.Context, id int64, name string, price decimal.Decimal) (*Plan, error) {
	if price.IsNegative() {
		return nil, Validationf("plan price must not be negative")
	}

	if _, err := s.repo.GetPlanByID(ctx, id); err != nil {
		return nil, err
	}

	p := &Plan{ID: id, Name: name, Price: price}
	if err := s.repo.UpdatePlan(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetPlanByID(ctx, id)
}

// Delete refuses to remove a plan that doctors or patients still reference,
// reporting the exact dependency counts so the caller can reassign them first.
func (s *PlanService) Delete(ctx context.Context, id int64) error {
	plan, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return err
	}

	doctors, patients, err := s.repo.CountPlanDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("count plan dependents: %w", err)
	}
	if doctors > 0 || patients > 0 {
		return &PlanInUseError{PlanName: plan.Name, Doctors: doctors, Patients: patients}
	}

	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int64("plan_id", id).Msg("plan deleted")
	return nil
}
