package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/velvetrow/salon-booking/internal/redis"
)

var (
	ErrInvalidDate       = errors.New("date must be a valid YYYY-MM-DD value")
	ErrInvalidTime       = errors.New("time must be a valid HH:MM value")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
	}
}

// AvailableTimes returns the bookable times for a date in ascending order:
// published slot times minus times held by a non-cancelled appointment.
// A malformed date yields an empty list, not an error, so callers cannot
// tell "bad date" from "nothing published".
func (s *Service) AvailableTimes(ctx context.Context, date string) ([]string, error) {
	if !ValidDate(date) {
		return []string{}, nil
	}

	slotTimes, err := s.repo.SlotTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list slot times: %w", err)
	}

	activeTimes, err := s.repo.ActiveAppointmentTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list active appointment times: %w", err)
	}

	return subtractTimes(slotTimes, activeTimes), nil
}

// subtractTimes removes every time in taken from slots, preserving the
// ascending order the repository returns.
func subtractTimes(slots, taken []string) []string {
	takenSet := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		takenSet[t] = struct{}{}
	}

	free := make([]string, 0, len(slots))
	for _, t := range slots {
		if _, ok := takenSet[t]; !ok {
			free = append(free, t)
		}
	}
	return free
}

// ClassifyDate reduces one date to its calendar colour. Recomputed from
// current state on every call; a malformed date classifies as DateNone,
// mirroring AvailableTimes.
func (s *Service) ClassifyDate(ctx context.Context, date string) (DateStatus, error) {
	if !ValidDate(date) {
		return DateNone, nil
	}

	slotTimes, err := s.repo.SlotTimes(ctx, date)
	if err != nil {
		return DateNone, fmt.Errorf("list slot times: %w", err)
	}

	activeTimes, err := s.repo.ActiveAppointmentTimes(ctx, date)
	if err != nil {
		return DateNone, fmt.Errorf("list active appointment times: %w", err)
	}

	return classify(slotTimes, activeTimes), nil
}

// ClassifyRange classifies every date in [from, to] inclusive, for the
// operator calendar. Dates with nothing published are included as DateNone.
func (s *Service) ClassifyRange(ctx context.Context, from, to string) (map[string]DateStatus, error) {
	if !ValidDate(from) || !ValidDate(to) || from > to {
		return map[string]DateStatus{}, nil
	}

	slotsByDate, err := s.repo.SlotTimesInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slot times in range: %w", err)
	}

	activeByDate, err := s.repo.ActiveAppointmentTimesInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active appointment times in range: %w", err)
	}

	start, _ := time.Parse(dateLayout, from)
	end, _ := time.Parse(dateLayout, to)

	out := make(map[string]DateStatus)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		out[date] = classify(slotsByDate[date], activeByDate[date])
	}
	return out, nil
}

// classify applies the calendar rules to one date's slot and active
// appointment times. Active appointments whose slot was deleted still
// count as taken capacity, but a date with zero slots is DateNone no
// matter what orphans remain against it.
func classify(slotTimes, activeTimes []string) DateStatus {
	if len(slotTimes) == 0 {
		return DateNone
	}

	free := len(subtractTimes(slotTimes, activeTimes))
	switch {
	case len(activeTimes) == 0:
		return DateAvailable
	case free > 0:
		return DateMixed
	default:
		return DateBooked
	}
}

// BookingRequest is the client self-service booking path. Services are
// already-resolved snapshots; the writer sums them into the totals.
type BookingRequest struct {
	UserID   uuid.UUID
	Date     string
	Time     string
	Notes    string
	Services []BookedService
}

// ManualBookingRequest is the operator walk-in/phone path. The client is
// identified by contact details rather than an account.
type ManualBookingRequest struct {
	Contact  ContactInfo
	Date     string
	Time     string
	Notes    string
	Services []BookedService
}

// Book reserves a slot for an authenticated client. The appointment is
// written as pending and waits for operator confirmation.
//
// The slot lock only sheds concurrent attempts early; the real guarantee
// is the repository's transactional check-then-insert backed by a partial
// unique index, so two racing requests can never both succeed.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	params, err := buildParams(req.Date, req.Time, req.Notes, StatusPending, req.Services)
	if err != nil {
		return nil, err
	}

	var created *Appointment
	err = s.locker.WithSlotLock(ctx, req.Date, req.Time, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateAppointment(lockCtx, req.UserID, params)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	return created, nil
}

// BookManual records an operator-entered booking. Operator bookings are
// trusted and written as confirmed directly. The client record is found
// or created by contact email inside the same transaction as the
// appointment, so a failed slot check leaves no placeholder user behind.
func (s *Service) BookManual(ctx context.Context, req ManualBookingRequest) (*Appointment, error) {
	params, err := buildParams(req.Date, req.Time, req.Notes, StatusConfirmed, req.Services)
	if err != nil {
		return nil, err
	}

	var created *Appointment
	err = s.locker.WithSlotLock(ctx, req.Date, req.Time, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateManualAppointment(lockCtx, req.Contact, params)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create manual appointment: %w", err)
	}

	return created, nil
}

func buildParams(date, t, notes string, status AppointmentStatus, services []BookedService) (BookingParams, error) {
	if !ValidDate(date) {
		return BookingParams{}, ErrInvalidDate
	}
	if !ValidTime(t) {
		return BookingParams{}, ErrInvalidTime
	}

	p := BookingParams{
		Date:     date,
		Time:     t,
		Notes:    notes,
		Status:   status,
		Services: services,
	}
	for _, svc := range services {
		p.TotalPrice += svc.Price
		p.TotalDuration += svc.Duration
	}
	return p, nil
}

// Confirm moves a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusPending, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status changed under us between the read and the update.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	return updated, nil
}

// Cancel moves a pending or confirmed appointment to cancelled, freeing
// its (date, time) for new bookings. Cancelling an already-cancelled
// appointment is a no-op; cancellation is terminal short of deletion.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusCancelled {
		return appt, nil
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	return updated, nil
}

// Delete hard-deletes an appointment. Deleting an absent appointment
// reports ErrAppointmentNotFound, not success.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAppointment(ctx, id)
}

// GetAppointment retrieves one appointment with its service line items.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListAppointments lists appointments for the operator overview, newest
// first, optionally filtered to one date. An empty date means all dates.
func (s *Service) ListAppointments(ctx context.Context, date string, limit, offset int) ([]Appointment, error) {
	if date != "" && !ValidDate(date) {
		return []Appointment{}, nil
	}
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appts, err := s.repo.ListAppointments(ctx, date, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// AddSlot publishes one bookable (date, time) pair.
func (s *Service) AddSlot(ctx context.Context, date, t string) (*Slot, error) {
	if !ValidDate(date) {
		return nil, ErrInvalidDate
	}
	if !ValidTime(t) {
		return nil, ErrInvalidTime
	}
	return s.repo.CreateSlot(ctx, date, t)
}

// RemoveSlot unpublishes a slot. Appointments already holding the pair
// are left untouched; history stays valid after the slot is gone.
func (s *Service) RemoveSlot(ctx context.Context, date, t string) error {
	if !ValidDate(date) {
		return ErrInvalidDate
	}
	if !ValidTime(t) {
		return ErrInvalidTime
	}
	return s.repo.DeleteSlot(ctx, date, t)
}

// SlotTimes lists every published time for a date, booked or not.
func (s *Service) SlotTimes(ctx context.Context, date string) ([]string, error) {
	if !ValidDate(date) {
		return []string{}, nil
	}
	times, err := s.repo.SlotTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list slot times: %w", err)
	}
	return times, nil
}
