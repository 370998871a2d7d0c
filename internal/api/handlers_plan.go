package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/medsuite/clinic-scheduling/internal/clinic"
)

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func createPlanHandler(svc *clinic.PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := req.Validate(true); err != nil {
			writeDomainError(w, err)
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_price", "price must be a decimal string")
			return
		}

		plan, err := svc.Create(r.Context(), req.ID, req.Name, price)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlanResponse(*plan))
	}
}

func listPlansHandler(svc *clinic.PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]PlanResponse, 0, len(plans))
		for _, p := range plans {
			resp = append(resp, toPlanResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPlanHandler(svc *clinic.PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "id must be a positive integer")
			return
		}
		plan, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(*plan))
	}
}

func updatePlanHandler(svc *clinic.PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "id must be a positive integer")
			return
		}
		var req PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := req.Validate(false); err != nil {
			writeDomainError(w, err)
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_price", "price must be a decimal string")
			return
		}

		plan, err := svc.Update(r.Context(), id, req.Name, price)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(*plan))
	}
}

func deletePlanHandler(svc *clinic.PlanService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "id must be a positive integer")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "plan deleted"})
	}
}
