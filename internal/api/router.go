package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

type RouterConfig struct {
	Plans      *clinic.PlanService
	Doctors    *clinic.DoctorService
	Patients   *clinic.PatientService
	Scheduling *clinic.SchedulingService
	Reports    *clinic.ReportService
	PgPool     *pgxpool.Pool
	Redis      *redis.Client
	Logger     zerolog.Logger
	Env        string
	Version    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Post("/", createPlanHandler(cfg.Plans))
			r.Get("/", listPlansHandler(cfg.Plans))
			r.Get("/{id}", getPlanHandler(cfg.Plans))
			r.Put("/{id}", updatePlanHandler(cfg.Plans))
			r.Delete("/{id}", deletePlanHandler(cfg.Plans))
		})

		r.Route("/doctors", func(r chi.Router) {
			r.Post("/", createDoctorHandler(cfg.Doctors))
			r.Get("/", listDoctorsHandler(cfg.Doctors))
			r.Get("/plan/{planID}", listDoctorsByPlanHandler(cfg.Doctors))
			r.Get("/{id}", getDoctorHandler(cfg.Doctors))
			r.Put("/{id}", updateDoctorHandler(cfg.Doctors))
			r.Delete("/{id}", deleteDoctorHandler(cfg.Doctors))
		})

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", createPatientHandler(cfg.Patients))
			r.Get("/", listPatientsHandler(cfg.Patients))
			r.Get("/plan/{planID}", listPatientsByPlanHandler(cfg.Patients))
			r.Get("/{patientID}/available-doctors", availableDoctorsHandler(cfg.Scheduling))
			r.Get("/{id}", getPatientHandler(cfg.Patients))
			r.Put("/{id}", updatePatientHandler(cfg.Patients))
			r.Delete("/{id}", deletePatientHandler(cfg.Patients))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Scheduling))
			r.Get("/", listAppointmentsHandler(cfg.Scheduling))
			r.Get("/{id}", getAppointmentHandler(cfg.Scheduling))
			r.Put("/{id}", updateAppointmentHandler(cfg.Scheduling))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Scheduling))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/doctors", doctorsReportHandler(cfg.Reports))
			r.Get("/patients", patientsReportHandler(cfg.Reports))
			r.Get("/appointments", appointmentsReportHandler(cfg.Reports))
		})
	})

	return r
}
