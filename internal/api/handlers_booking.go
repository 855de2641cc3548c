package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetrow/salon-booking/internal/catalog"
	"github.com/velvetrow/salon-booking/internal/schedule"
)

var errBadServiceID = errors.New("service_ids must be valid UUIDs")

func availableTimesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")

		// Malformed dates intentionally come back as an empty list;
		// the calendar UI treats both the same way.
		times, err := svc.AvailableTimes(r.Context(), date)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{Date: date, Times: times})
	}
}

func classifyDateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")

		status, err := svc.ClassifyDate(r.Context(), date)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, DateStatusResponse{Date: date, Status: string(status)})
	}
}

func classifyRangeHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		statuses, err := svc.ClassifyRange(r.Context(), from, to)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		out := make(map[string]string, len(statuses))
		for date, status := range statuses {
			out[date] = string(status)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func bookAppointmentHandler(svc *schedule.Service, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token", "authentication is required")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "token subject is not a user id")
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		services, err := resolveSnapshots(r.Context(), cat, req.ServiceIDs)
		if err != nil {
			handleSnapshotError(w, r, err)
			return
		}

		appt, err := svc.Book(r.Context(), schedule.BookingRequest{
			UserID:   userID,
			Date:     req.Date,
			Time:     req.Time,
			Notes:    req.Notes,
			Services: services,
		})
		if err != nil {
			handleBookingError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

// resolveSnapshots turns requested service ids into booking-time copies of
// name, price and duration.
func resolveSnapshots(ctx context.Context, cat *catalog.Catalog, rawIDs []string) ([]schedule.BookedService, error) {
	if len(rawIDs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errBadServiceID
		}
		ids = append(ids, id)
	}

	resolved, err := cat.ResolveForBooking(ctx, ids)
	if err != nil {
		return nil, err
	}

	snapshots := make([]schedule.BookedService, 0, len(resolved))
	for _, s := range resolved {
		snapshots = append(snapshots, schedule.BookedService{
			ServiceID: s.ID,
			Name:      s.Name,
			Price:     s.Price,
			Duration:  s.Duration,
		})
	}
	return snapshots, nil
}

func handleSnapshotError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadServiceID):
		writeError(w, http.StatusBadRequest, "invalid_service_id", err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusUnprocessableEntity, "unknown_service", "one or more selected services are unavailable")
	default:
		writeInternalError(w, r, err)
	}
}

func handleBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, schedule.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
	case errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, schedule.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeInternalError(w, r, err)
	}
}
