package api

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// writeDomainError translates the domain error taxonomy to HTTP: validation
// and rule violations map to 400, missing entities to 404, everything else
// to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *clinic.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Msg, "")
		return
	}
	var ozzoErrs validation.Errors
	if errors.As(err, &ozzoErrs) {
		writeError(w, http.StatusBadRequest, "invalid request", ozzoErrs.Error())
		return
	}

	var inUse *clinic.PlanInUseError
	if errors.As(err, &inUse) {
		writeJSON(w, http.StatusBadRequest, PlanInUseResponse{
			Error:    inUse.Error(),
			PlanName: inUse.PlanName,
			Doctors:  inUse.Doctors,
			Patients: inUse.Patients,
		})
		return
	}

	switch {
	case clinic.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case clinic.IsRuleViolation(err):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}
