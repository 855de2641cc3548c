package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/velvetrow/salon-booking/internal/catalog"
)

func listServicesHandler(cat *catalog.Catalog, activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := cat.List(r.Context(), activeOnly)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		out := make([]ServiceResponse, 0, len(services))
		for i := range services {
			out = append(out, toServiceResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createServiceHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeServiceRequest(w, r)
		if !ok {
			return
		}

		svc, err := cat.Create(r.Context(), req.Name, req.Price, req.Duration)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(svc))
	}
}

func updateServiceHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		req, ok := decodeServiceRequest(w, r)
		if !ok {
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		svc, err := cat.Update(r.Context(), catalog.Service{
			ID:       id,
			Name:     req.Name,
			Price:    req.Price,
			Duration: req.Duration,
			Active:   active,
		})
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(svc))
	}
}

func deleteServiceHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := cat.Delete(r.Context(), id); err != nil {
			handleCatalogError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeServiceRequest(w http.ResponseWriter, r *http.Request) (ServiceRequest, bool) {
	var req ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return ServiceRequest{}, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return ServiceRequest{}, false
	}
	if req.Price < 0 || req.Duration < 0 {
		writeError(w, http.StatusBadRequest, "invalid_value", "price and duration must not be negative")
		return ServiceRequest{}, false
	}
	return req, true
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, catalog.ErrNameTaken):
		writeError(w, http.StatusConflict, "service_name_taken", err.Error())
	default:
		writeInternalError(w, r, err)
	}
}
