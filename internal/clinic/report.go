package clinic

import (
	"context"

	"github.com/rs/zerolog"

	redisclient "github.com/medsuite/clinic-scheduling/internal/redis"
)

type PlanCount struct {
	Plan  string `json:"plan"`
	Count int64  `json:"count"`
}

type AgeBracketCount struct {
	Bracket string `json:"bracket"`
	Count   int64  `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type DoctorCount struct {
	Doctor string `json:"doctor"`
	Count  int64  `json:"count"`
}

type DoctorsReport struct {
	Total   int64             `json:"total"`
	PerPlan []PlanCount       `json:"per_plan"`
	NoPlan  int64             `json:"no_plan"`
	PerAge  []AgeBracketCount `json:"per_age"`
}

type PatientsReport struct {
	Total   int64             `json:"total"`
	PerPlan []PlanCount       `json:"per_plan"`
	NoPlan  int64             `json:"no_plan"`
	PerAge  []AgeBracketCount `json:"per_age"`
}

type AppointmentsReport struct {
	Total     int64         `json:"total"`
	PerMonth  []MonthCount  `json:"per_month"`
	PerDoctor []DoctorCount `json:"per_doctor"`
	PerPlan   []PlanCount   `json:"per_plan"`
	NoPlan    int64         `json:"no_plan"`
}

// ReportRepository is the read-only rollup side of the store.
type ReportRepository interface {
	DoctorsReport(ctx context.Context) (*DoctorsReport, error)
	PatientsReport(ctx context.Context) (*PatientsReport, error)
	AppointmentsReport(ctx context.Context) (*AppointmentsReport, error)
}

const (
	doctorsReportKey      = "report:doctors"
	patientsReportKey     = "report:patients"
	appointmentsReportKey = "report:appointments"
)

// ReportService serves statistical rollups, cache-aside in Redis. Reports
// are advisory reads; a stale window of one TTL is acceptable.
type ReportService struct {
	repo  ReportRepository
	cache *redisclient.Cache
	log   zerolog.Logger
}

func NewReportService(repo ReportRepository, cache *redisclient.Cache, log zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, cache: cache, log: log}
}

func (s *ReportService) Doctors(ctx context.Context) (*DoctorsReport, error) {
	var cached DoctorsReport
	if s.cacheGet(ctx, doctorsReportKey, &cached) {
		return &cached, nil
	}

	report, err := s.repo.DoctorsReport(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, doctorsReportKey, report)
	return report, nil
}

func (s *ReportService) Patients(ctx context.Context) (*PatientsReport, error) {
	var cached PatientsReport
	if s.cacheGet(ctx, patientsReportKey, &cached) {
		return &cached, nil
	}

	report, err := s.repo.PatientsReport(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, patientsReportKey, report)
	return report, nil
}

func (s *ReportService) Appointments(ctx context.Context) (*AppointmentsReport, error) {
	var cached AppointmentsReport
	if s.cacheGet(ctx, appointmentsReportKey, &cached) {
		return &cached, nil
	}

	report, err := s.repo.AppointmentsReport(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, appointmentsReportKey, report)
	return report, nil
}

// Cache errors degrade to a direct store read, never a failed report.
func (s *ReportService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		return false
	}
	return hit
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}
