package clinic

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newPlanService() (*PlanService, *fakeRepo) {
	repo := newFakeRepo()
	return NewPlanService(repo, zerolog.Nop()), repo
}

func TestCreatePlan(t *testing.T) {
	svc, _ := newPlanService()
	ctx := context.Background()

	plan, err := svc.Create(ctx, 7, "Premium", decimal.RequireFromString("250.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if plan.ID != 7 || plan.Name != "Premium" {
		t.Errorf("plan = %+v, want id 7 name Premium", plan)
	}
	if got := plan.Price.StringFixed(2); got != "250.00" {
		t.Errorf("price = %s, want 250.00", got)
	}
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	svc, _ := newPlanService()
	ctx := context.Background()

	var verr *ValidationError

	_, err := svc.Create(ctx, 0, "Free", decimal.Zero)
	if !errors.As(err, &verr) {
		t.Errorf("zero id: err = %v, want ValidationError", err)
	}

	_, err = svc.Create(ctx, 1, "Negative", decimal.RequireFromString("-1"))
	if !errors.As(err, &verr) {
		t.Errorf("negative price: err = %v, want ValidationError", err)
	}
}

func TestCreatePlanDuplicateID(t *testing.T) {
	svc, _ := newPlanService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, "Basic", decimal.RequireFromString("100.00")); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, 1, "Other", decimal.RequireFromString("50.00"))
	if !errors.Is(err, ErrPlanIDTaken) {
		t.Fatalf("err = %v, want ErrPlanIDTaken", err)
	}
}

func TestUpdatePlan(t *testing.T) {
	svc, _ := newPlanService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, "Basic", decimal.RequireFromString("100.00")); err != nil {
		t.Fatalf("create: %v", err)
	}

	plan, err := svc.Update(ctx, 1, "Basic Plus", decimal.RequireFromString("110.00"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if plan.Name != "Basic Plus" || plan.Price.StringFixed(2) != "110.00" {
		t.Errorf("plan = %+v, want Basic Plus at 110.00", plan)
	}

	if _, err := svc.Update(ctx, 99, "Ghost", decimal.Zero); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("unknown id: err = %v, want ErrPlanNotFound", err)
	}
}

func TestDeletePlanBlockedWhileReferenced(t *testing.T) {
	svc, repo := newPlanService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, "Basic", decimal.RequireFromString("100.00")); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if _, err := repo.CreateDoctor(ctx, &Doctor{Name: "Dr. A", TaxID: "D-1", LicenseNumber: "L-1"}, []int64{1}); err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	planID := int64(1)
	for _, p := range []*Patient{
		{Name: "P1", TaxID: "T-1", PlanID: &planID},
		{Name: "P2", TaxID: "T-2", PlanID: &planID},
	} {
		if _, err := repo.CreatePatient(ctx, p); err != nil {
			t.Fatalf("create patient: %v", err)
		}
	}

	err := svc.Delete(ctx, 1)
	var inUse *PlanInUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("err = %v, want PlanInUseError", err)
	}
	if inUse.Doctors != 1 || inUse.Patients != 2 {
		t.Errorf("dependency counts = (%d, %d), want (1, 2)", inUse.Doctors, inUse.Patients)
	}
	if inUse.PlanName != "Basic" {
		t.Errorf("plan name = %s, want Basic", inUse.PlanName)
	}
}

func TestDeletePlanUnreferenced(t *testing.T) {
	svc, _ := newPlanService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 2, "Idle", decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, 2); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("get after delete: err = %v, want ErrPlanNotFound", err)
	}

	if err := svc.Delete(ctx, 99); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("delete unknown: err = %v, want ErrPlanNotFound", err)
	}
}
