package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Fixture ids assigned by seedScheduling.
type schedulingFixture struct {
	repo   *fakeRepo
	locker *fakeLocker
	svc    *SchedulingService

	basicPlan int64
	goldPlan  int64
	drBoth    int64 // accepts basic and gold
	drBasic   int64 // accepts basic only
	goldPt    int64 // covered by gold
	basicPt   int64 // covered by basic
	uncovered int64 // no plan
}

func newSchedulingFixture(t *testing.T) *schedulingFixture {
	t.Helper()
	ctx := context.Background()

	f := &schedulingFixture{
		repo:   newFakeRepo(),
		locker: newFakeLocker(),
	}
	f.svc = NewSchedulingService(f.repo, f.locker, zerolog.Nop())

	mustCreatePlan := func(id int64, name, price string) {
		p := &Plan{ID: id, Name: name, Price: decimal.RequireFromString(price)}
		if err := f.repo.CreatePlan(ctx, p); err != nil {
			t.Fatalf("create plan %s: %v", name, err)
		}
	}
	mustCreatePlan(1, "Basic", "100.00")
	mustCreatePlan(3, "Gold", "200.00")
	f.basicPlan, f.goldPlan = 1, 3

	var err error
	f.drBoth, err = f.repo.CreateDoctor(ctx, &Doctor{Name: "Dr. Adams", TaxID: "D-1", LicenseNumber: "LIC-1"}, []int64{1, 3})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	f.drBasic, err = f.repo.CreateDoctor(ctx, &Doctor{Name: "Dr. Brook", TaxID: "D-2", LicenseNumber: "LIC-2"}, []int64{1})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	gold := f.goldPlan
	basic := f.basicPlan
	f.goldPt, err = f.repo.CreatePatient(ctx, &Patient{Name: "Gail", TaxID: "P-1", PlanID: &gold})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	f.basicPt, err = f.repo.CreatePatient(ctx, &Patient{Name: "Bea", TaxID: "P-2", PlanID: &basic})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	f.uncovered, err = f.repo.CreatePatient(ctx, &Patient{Name: "Uma", TaxID: "P-3"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	return f
}

func slotAt(hour, minute int) time.Time {
	return time.Date(2026, 9, 14, hour, minute, 0, 0, time.UTC)
}

func TestCreateAppointmentCopiesPlanPrice(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID:   f.goldPt,
		DoctorID:    f.drBoth,
		ScheduledAt: slotAt(10, 30).Add(42 * time.Second),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := appt.Price.StringFixed(2); got != "200.00" {
		t.Errorf("price = %s, want 200.00", got)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("status = %s, want %s", appt.Status, StatusScheduled)
	}
	if !appt.ScheduledAt.Equal(slotAt(10, 30)) {
		t.Errorf("scheduled_at = %s, want second-truncated %s", appt.ScheduledAt, slotAt(10, 30))
	}
	if appt.ID == 0 {
		t.Error("appointment id not assigned")
	}
}

func TestCreateAppointmentSameMinuteConflicts(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(9, 0),
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same doctor, same minute, different patient and different seconds.
	_, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBoth, ScheduledAt: slotAt(9, 0).Add(30 * time.Second),
	})
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("err = %v, want ErrScheduleConflict", err)
	}

	// One minute later is a different slot.
	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBoth, ScheduledAt: slotAt(9, 1),
	}); err != nil {
		t.Fatalf("adjacent-minute create: %v", err)
	}

	// The other doctor is free at the contested minute.
	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBasic, ScheduledAt: slotAt(9, 0),
	}); err != nil {
		t.Fatalf("other-doctor create: %v", err)
	}
}

func TestCreateAppointmentCancelledSlotIsFree(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(11, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled := StatusCancelled
	if _, err := f.svc.Update(ctx, appt.ID, UpdateAppointmentInput{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBoth, ScheduledAt: slotAt(11, 0),
	}); err != nil {
		t.Fatalf("rebook of cancelled slot: %v", err)
	}
}

func TestCreateAppointmentDoctorRejectsPlan(t *testing.T) {
	f := newSchedulingFixture(t)

	_, err := f.svc.Create(context.Background(), CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBasic, ScheduledAt: slotAt(14, 0),
	})

	var notAccepted *PlanNotAcceptedError
	if !errors.As(err, &notAccepted) {
		t.Fatalf("err = %v, want PlanNotAcceptedError", err)
	}
	if notAccepted.DoctorName != "Dr. Brook" || notAccepted.PlanName != "Gold" {
		t.Errorf("error names = (%s, %s), want (Dr. Brook, Gold)", notAccepted.DoctorName, notAccepted.PlanName)
	}
}

func TestCreateAppointmentPatientWithoutPlan(t *testing.T) {
	f := newSchedulingFixture(t)

	_, err := f.svc.Create(context.Background(), CreateAppointmentInput{
		PatientID: f.uncovered, DoctorID: f.drBoth, ScheduledAt: slotAt(14, 0),
	})
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestCreateAppointmentUnknownParties(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateAppointmentInput{PatientID: 999, DoctorID: f.drBoth, ScheduledAt: slotAt(8, 0)})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("unknown patient: err = %v, want ErrPatientNotFound", err)
	}

	_, err = f.svc.Create(ctx, CreateAppointmentInput{PatientID: f.goldPt, DoctorID: 999, ScheduledAt: slotAt(8, 0)})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("unknown doctor: err = %v, want ErrDoctorNotFound", err)
	}
}

func TestCreateAppointmentLockHeldElsewhere(t *testing.T) {
	f := newSchedulingFixture(t)
	f.locker.held[lockKey(f.drBoth, slotAt(16, 0))] = true

	_, err := f.svc.Create(context.Background(), CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(16, 0),
	})
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("err = %v, want ErrScheduleConflict when the slot lock is taken", err)
	}
	if len(f.repo.appointments) != 0 {
		t.Error("appointment written despite lost lock")
	}
}

func TestUpdateAppointmentRefreshesPrice(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBoth, ScheduledAt: slotAt(10, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := appt.Price.StringFixed(2); got != "100.00" {
		t.Fatalf("initial price = %s, want 100.00", got)
	}

	// Plan price changes between booking and the update.
	plan := f.repo.plans[f.basicPlan]
	plan.Price = decimal.RequireFromString("120.00")
	f.repo.plans[f.basicPlan] = plan

	notes := "follow-up"
	updated, err := f.svc.Update(ctx, appt.ID, UpdateAppointmentInput{Notes: &notes})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := updated.Price.StringFixed(2); got != "120.00" {
		t.Errorf("price after update = %s, want 120.00", got)
	}
	if updated.Notes == nil || *updated.Notes != "follow-up" {
		t.Errorf("notes not applied: %v", updated.Notes)
	}
}

func TestUpdateAppointmentReschedule(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(9, 0),
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBoth, ScheduledAt: slotAt(9, 30),
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	// Moving the second onto the first's slot collides.
	taken := slotAt(9, 0)
	_, err = f.svc.Update(ctx, second.ID, UpdateAppointmentInput{ScheduledAt: &taken})
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("err = %v, want ErrScheduleConflict", err)
	}

	// Re-submitting an appointment's own slot does not self-collide.
	own := slotAt(9, 0)
	if _, err := f.svc.Update(ctx, first.ID, UpdateAppointmentInput{ScheduledAt: &own}); err != nil {
		t.Fatalf("same-slot update of own appointment: %v", err)
	}

	// A free slot works.
	free := slotAt(9, 45)
	updated, err := f.svc.Update(ctx, second.ID, UpdateAppointmentInput{ScheduledAt: &free})
	if err != nil {
		t.Fatalf("reschedule to free slot: %v", err)
	}
	if !updated.ScheduledAt.Equal(free) {
		t.Errorf("scheduled_at = %s, want %s", updated.ScheduledAt, free)
	}
}

func TestUpdateAppointmentDoctorChangeConflicts(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	// Both doctors booked, same minute, different patients.
	moved, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.basicPt, DoctorID: f.drBoth, ScheduledAt: slotAt(15, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(15, 30),
	}); err != nil {
		t.Fatalf("create blocker: %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(15, 0),
	}); !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("sanity: same slot should conflict, got %v", err)
	}

	// Reassigning the doctor without touching the timestamp still collides
	// with the target doctor's booking at that minute.
	if _, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBasic, ScheduledAt: slotAt(15, 0),
	}); err != nil {
		t.Fatalf("create on other doctor: %v", err)
	}
	_, err = f.svc.Update(ctx, moved.ID, UpdateAppointmentInput{DoctorID: &f.drBasic})
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("doctor change onto a taken slot: err = %v, want ErrScheduleConflict", err)
	}
}

// Writers must keep scheduled_at minute-truncated; the store's uniqueness
// backstop indexes the raw value.
func TestUpdateAppointmentTruncatesTimestamp(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(8, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ragged := slotAt(8, 15).Add(42 * time.Second)
	updated, err := f.svc.Update(ctx, appt.ID, UpdateAppointmentInput{ScheduledAt: &ragged})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.ScheduledAt.Equal(slotAt(8, 15)) {
		t.Errorf("scheduled_at = %s, want %s", updated.ScheduledAt, slotAt(8, 15))
	}
	stored := f.repo.appointments[appt.ID]
	if !stored.ScheduledAt.Equal(slotAt(8, 15)) {
		t.Errorf("persisted scheduled_at = %s, want truncated %s", stored.ScheduledAt, slotAt(8, 15))
	}
}

func TestUpdateAppointmentDoctorChangeChecksPlan(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(13, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Update(ctx, appt.ID, UpdateAppointmentInput{DoctorID: &f.drBasic})
	var notAccepted *PlanNotAcceptedError
	if !errors.As(err, &notAccepted) {
		t.Fatalf("err = %v, want PlanNotAcceptedError", err)
	}
}

func TestUpdateAppointmentInvalidStatus(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, CreateAppointmentInput{
		PatientID: f.goldPt, DoctorID: f.drBoth, ScheduledAt: slotAt(13, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bogus := AppointmentStatus("postponed")
	_, err = f.svc.Update(ctx, appt.ID, UpdateAppointmentInput{Status: &bogus})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestUpdateAppointmentNotFound(t *testing.T) {
	f := newSchedulingFixture(t)

	_, err := f.svc.Update(context.Background(), 42, UpdateAppointmentInput{})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestDoctorsAcceptingPatientPlan(t *testing.T) {
	f := newSchedulingFixture(t)
	ctx := context.Background()

	// Gold is only accepted by Dr. Adams.
	doctors, err := f.svc.DoctorsAcceptingPatientPlan(ctx, f.goldPt)
	if err != nil {
		t.Fatalf("gold patient: %v", err)
	}
	if len(doctors) != 1 || doctors[0].ID != f.drBoth {
		t.Errorf("gold patient doctors = %v, want only %d", doctors, f.drBoth)
	}

	// Basic is accepted by both.
	doctors, err = f.svc.DoctorsAcceptingPatientPlan(ctx, f.basicPt)
	if err != nil {
		t.Fatalf("basic patient: %v", err)
	}
	if len(doctors) != 2 {
		t.Errorf("basic patient doctors = %d, want 2", len(doctors))
	}

	// No coverage means no eligible doctors, not an error.
	doctors, err = f.svc.DoctorsAcceptingPatientPlan(ctx, f.uncovered)
	if err != nil {
		t.Fatalf("uncovered patient: %v", err)
	}
	if len(doctors) != 0 {
		t.Errorf("uncovered patient doctors = %d, want 0", len(doctors))
	}

	if _, err := f.svc.DoctorsAcceptingPatientPlan(ctx, 999); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("unknown patient: err = %v, want ErrPatientNotFound", err)
	}
}
