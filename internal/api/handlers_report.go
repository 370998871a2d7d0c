package api

import (
	"net/http"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

func doctorsReportHandler(svc *clinic.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Doctors(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func patientsReportHandler(svc *clinic.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Patients(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func appointmentsReportHandler(svc *clinic.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Appointments(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
