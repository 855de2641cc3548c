package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotExists          = errors.New("slot already published")
	ErrSlotTaken           = errors.New("slot already has an active appointment")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// BookingParams carries everything the store needs to persist one
// appointment. Totals and line items are computed by the service before
// the write, so the repository never reaches back into the catalog.
type BookingParams struct {
	Date          string
	Time          string
	Notes         string
	Status        AppointmentStatus
	Services      []BookedService
	TotalPrice    float64
	TotalDuration int
}

// Repository contains all DB interactions needed by the service.
//
// CreateAppointment and CreateManualAppointment must run their slot
// existence check, conflict check and insert inside a single transaction;
// on any failure nothing may remain behind, placeholder users included.
type Repository interface {
	// Slot ledger
	CreateSlot(ctx context.Context, date, t string) (*Slot, error)
	DeleteSlot(ctx context.Context, date, t string) error
	SlotTimes(ctx context.Context, date string) ([]string, error)
	SlotTimesInRange(ctx context.Context, from, to string) (map[string][]string, error)

	// Booking ledger reads
	ActiveAppointmentTimes(ctx context.Context, date string) ([]string, error)
	ActiveAppointmentTimesInRange(ctx context.Context, from, to string) (map[string][]string, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, date string, limit, offset int) ([]Appointment, error)

	// Booking ledger writes
	CreateAppointment(ctx context.Context, userID uuid.UUID, p BookingParams) (*Appointment, error)
	CreateManualAppointment(ctx context.Context, contact ContactInfo, p BookingParams) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
}
