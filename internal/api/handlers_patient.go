package api

import (
	"encoding/json"
	"net/http"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

func decodePatientInput(w http.ResponseWriter, r *http.Request) (clinic.PatientInput, bool) {
	var req PatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return clinic.PatientInput{}, false
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, err)
		return clinic.PatientInput{}, false
	}
	birthDate, err := clinic.ParseBirthDate(req.BirthDate)
	if err != nil {
		writeDomainError(w, err)
		return clinic.PatientInput{}, false
	}
	return clinic.PatientInput{
		Name:      req.Name,
		TaxID:     req.TaxID,
		BirthDate: birthDate,
		PlanID:    req.PlanID,
	}, true
}

func createPatientHandler(svc *clinic.PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodePatientInput(w, r)
		if !ok {
			return
		}
		patient, err := svc.Create(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(*patient))
	}
}

func listPatientsHandler(svc *clinic.PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponses(patients))
	}
}

func listPatientsByPlanHandler(svc *clinic.PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, ok := urlID(r, "planID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "plan id must be a positive integer")
			return
		}
		patients, err := svc.ListByPlan(r.Context(), planID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponses(patients))
	}
}

func getPatientHandler(svc *clinic.PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a positive integer")
			return
		}
		patient, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*patient))
	}
}

func updatePatientHandler(svc *clinic.PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a positive integer")
			return
		}
		in, ok := decodePatientInput(w, r)
		if !ok {
			return
		}
		patient, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*patient))
	}
}

func deletePatientHandler(svc *clinic.PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a positive integer")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
	}
}

// availableDoctorsHandler exposes the eligibility resolver: the doctors a
// patient can book given their plan.
func availableDoctorsHandler(svc *clinic.SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := urlID(r, "patientID")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient id must be a positive integer")
			return
		}
		doctors, err := svc.DoctorsAcceptingPatientPlan(r.Context(), patientID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
	}
}

func toPatientResponses(patients []clinic.Patient) []PatientResponse {
	resp := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, toPatientResponse(p))
	}
	return resp
}
