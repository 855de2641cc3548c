package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetrow/salon-booking/internal/catalog"
	"github.com/velvetrow/salon-booking/internal/schedule"
)

// Slot ledger

func addSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := svc.AddSlot(r.Context(), req.Date, req.Time)
		if err != nil {
			switch {
			case errors.Is(err, schedule.ErrInvalidDate):
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			case errors.Is(err, schedule.ErrInvalidTime):
				writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			case errors.Is(err, schedule.ErrSlotExists):
				writeError(w, http.StatusConflict, "slot_exists", err.Error())
			default:
				writeInternalError(w, r, err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, SlotRequest{Date: slot.Date, Time: slot.Time})
	}
}

func removeSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		t := r.URL.Query().Get("time")

		err := svc.RemoveSlot(r.Context(), date, t)
		if err != nil {
			switch {
			case errors.Is(err, schedule.ErrInvalidDate):
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			case errors.Is(err, schedule.ErrInvalidTime):
				writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			case errors.Is(err, schedule.ErrSlotNotFound):
				writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
			default:
				writeInternalError(w, r, err)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")

		times, err := svc.SlotTimes(r.Context(), date)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotTimesResponse{Date: date, Times: times})
	}
}

// Booking ledger administration

func listAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		appts, err := svc.ListAppointments(r.Context(), q.Get("date"), limit, offset)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleStatusError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func confirmAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.Confirm(r.Context(), id)
		if err != nil {
			handleStatusError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleStatusError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleStatusError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func manualAppointmentHandler(svc *schedule.Service, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ManualAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" || !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "invalid_email", "a valid contact email is required")
			return
		}

		services, err := resolveSnapshots(r.Context(), cat, req.ServiceIDs)
		if err != nil {
			handleSnapshotError(w, r, err)
			return
		}

		appt, err := svc.BookManual(r.Context(), schedule.ManualBookingRequest{
			Contact: schedule.ContactInfo{
				Name:  req.Name,
				Email: email,
				Phone: req.Phone,
			},
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

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleStatusError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeInternalError(w, r, err)
	}
}
