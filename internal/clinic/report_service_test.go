package clinic

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeReportRepo struct {
	doctorsCalls      int
	patientsCalls     int
	appointmentsCalls int
	err               error
}

func (r *fakeReportRepo) DoctorsReport(ctx context.Context) (*DoctorsReport, error) {
	r.doctorsCalls++
	if r.err != nil {
		return nil, r.err
	}
	return &DoctorsReport{
		Total:   3,
		PerPlan: []PlanCount{{Plan: "Basic", Count: 2}, {Plan: "Gold", Count: 1}},
		PerAge:  []AgeBracketCount{{Bracket: "30-50", Count: 3}},
	}, nil
}

func (r *fakeReportRepo) PatientsReport(ctx context.Context) (*PatientsReport, error) {
	r.patientsCalls++
	if r.err != nil {
		return nil, r.err
	}
	return &PatientsReport{Total: 10, NoPlan: 1}, nil
}

func (r *fakeReportRepo) AppointmentsReport(ctx context.Context) (*AppointmentsReport, error) {
	r.appointmentsCalls++
	if r.err != nil {
		return nil, r.err
	}
	return &AppointmentsReport{
		Total:    5,
		PerMonth: []MonthCount{{Month: "2026-08", Count: 5}},
	}, nil
}

// Without a cache every request is a direct store read.
func TestReportServiceWithoutCache(t *testing.T) {
	repo := &fakeReportRepo{}
	svc := NewReportService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		report, err := svc.Doctors(ctx)
		if err != nil {
			t.Fatalf("doctors report: %v", err)
		}
		if report.Total != 3 || len(report.PerPlan) != 2 {
			t.Errorf("doctors report = %+v", report)
		}
	}
	if repo.doctorsCalls != 2 {
		t.Errorf("doctors repo calls = %d, want 2", repo.doctorsCalls)
	}

	if report, err := svc.Patients(ctx); err != nil || report.Total != 10 {
		t.Errorf("patients report = %+v, err = %v", report, err)
	}
	if report, err := svc.Appointments(ctx); err != nil || report.Total != 5 {
		t.Errorf("appointments report = %+v, err = %v", report, err)
	}
}

func TestReportServicePropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("store down")
	svc := NewReportService(&fakeReportRepo{err: storeErr}, nil, zerolog.Nop())

	if _, err := svc.Doctors(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want the store error", err)
	}
}
