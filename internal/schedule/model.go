package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// DateStatus is a read-time classification of a calendar date, used to
// colour the operator calendar. It is never stored.
type DateStatus string

const (
	DateNone      DateStatus = "none"      // no slots published
	DateAvailable DateStatus = "available" // slots published, none taken
	DateMixed     DateStatus = "mixed"     // some slots taken, some free
	DateBooked    DateStatus = "booked"    // every slot taken
)

// Slot is one publishable appointment time. Identity is the (Date, Time)
// pair; dates are "YYYY-MM-DD" and times "HH:MM", both string-comparable.
type Slot struct {
	ID        uuid.UUID
	Date      string
	Time      string
	CreatedAt time.Time
}

// BookedService is a denormalized snapshot of a catalog service taken at
// booking time. Later catalog edits do not touch it.
type BookedService struct {
	ServiceID uuid.UUID
	Name      string
	Price     float64
	Duration  int // minutes
}

type Appointment struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Date          string
	Time          string
	Notes         string
	Status        AppointmentStatus
	TotalPrice    float64
	TotalDuration int
	Services      []BookedService
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContactInfo identifies the client on the operator manual-entry path,
// where no authenticated user exists yet.
type ContactInfo struct {
	Name  string
	Email string
	Phone string
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ValidDate reports whether s is a well-formed calendar date in the
// canonical YYYY-MM-DD form.
func ValidDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a well-formed HH:MM wall-clock time.
func ValidTime(s string) bool {
	if len(s) != len(timeLayout) {
		return false
	}
	_, err := time.Parse(timeLayout, s)
	return err == nil
}
