package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service is one bookable salon treatment. Appointments snapshot name,
// price and duration at booking time, so edits here never rewrite history.
type Service struct {
	ID        uuid.UUID
	Name      string
	Price     float64
	Duration  int // minutes
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
