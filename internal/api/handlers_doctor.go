package api

import (
	"encoding/json"
	"net/http"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

func decodeDoctorInput(w http.ResponseWriter, r *http.Request) (clinic.DoctorInput, bool) {
	var req DoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return clinic.DoctorInput{}, false
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err)
		return clinic.DoctorInput{}, false
	}
	birthDate, err := clinic.ParseBirthDate(req.BirthDate)
	if err != nil {
		writeDomainError(w, err)
		return clinic.DoctorInput{}, false
	}
	return clinic.DoctorInput{
		Name:          req.Name,
		TaxID:         req.TaxID,
		LicenseNumber: req.LicenseNumber,
		BirthDate:     birthDate,
		PlanIDs:       req.PlanIDs,
	}, true
}

func createDoctorHandler(svc *clinic.DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeDoctorInput(w, r)
		if !ok {
			return
		}
		doctor, err := svc.Create(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(*doctor))
	}
}

func listDoctorsHandler(svc *clinic.DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
	}
}

func listDoctorsByPlanHandler(svc *clinic.DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, ok := urlID(r, "planID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "plan id must be a positive integer")
			return
		}
		doctors, err := svc.ListByPlan(r.Context(), planID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
	}
}

func getDoctorHandler(svc *clinic.DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a positive integer")
			return
		}
		doctor, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(*doctor))
	}
}

func updateDoctorHandler(svc *clinic.DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a positive integer")
			return
		}
		in, ok := decodeDoctorInput(w, r)
		if !ok {
			return
		}
		doctor, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(*doctor))
	}
}

func deleteDoctorHandler(svc *clinic.DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a positive integer")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "doctor deleted"})
	}
}

func toDoctorResponses(doctors []clinic.Doctor) []DoctorResponse {
	resp := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		resp = append(resp, toDoctorResponse(d))
	}
	return resp
}
