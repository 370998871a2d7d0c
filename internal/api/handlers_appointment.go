package api

import (
	"encoding/json"
	"net/http"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

func createAppointmentHandler(svc *clinic.SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := req.Validate(); err != nil {
			writeDomainError(w, err)
			return
		}
		scheduledAt, err := clinic.ParseScheduledAt(req.ScheduledAt)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		appt, err := svc.Create(r.Context(), clinic.CreateAppointmentInput{
			PatientID:   req.PatientID,
			DoctorID:    req.DoctorID,
			ScheduledAt: scheduledAt,
			Notes:       req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateAppointmentResponse{
			ID:    appt.ID,
			Price: appt.Price.StringFixed(2),
		})
	}
}

func updateAppointmentHandler(svc *clinic.SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}
		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := clinic.UpdateAppointmentInput{
			DoctorID: req.DoctorID,
			Notes:    req.Notes,
		}
		if req.ScheduledAt != nil {
			scheduledAt, err := clinic.ParseScheduledAt(*req.ScheduledAt)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			in.ScheduledAt = &scheduledAt
		}
		if req.Status != nil {
			status := clinic.AppointmentStatus(*req.Status)
			in.Status = &status
		}

		appt, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func getAppointmentHandler(svc *clinic.SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(*detail))
	}
}

func listAppointmentsHandler(svc *clinic.SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]AppointmentDetailResponse, 0, len(details))
		for _, d := range details {
			resp = append(resp, toAppointmentDetailResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteAppointmentHandler(svc *clinic.SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "appointment deleted"})
	}
}
