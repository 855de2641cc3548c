package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/velvetrow/salon-booking/internal/catalog"
	"github.com/velvetrow/salon-booking/internal/schedule"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type AvailabilityResponse struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

type DateStatusResponse struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type BookAppointmentRequest struct {
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Notes      string   `json:"notes"`
	ServiceIDs []string `json:"service_ids"`
}

type ManualAppointmentRequest struct {
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Notes      string   `json:"notes"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	ServiceIDs []string `json:"service_ids"`
}

type BookedServiceResponse struct {
	ServiceID uuid.UUID `json:"service_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Duration  int       `json:"duration"`
}

type AppointmentResponse struct {
	ID            uuid.UUID               `json:"id"`
	UserID        uuid.UUID               `json:"user_id"`
	Date          string                  `json:"date"`
	Time          string                  `json:"time"`
	Notes         string                  `json:"notes,omitempty"`
	Status        string                  `json:"status"`
	TotalPrice    float64                 `json:"total_price"`
	TotalDuration int                     `json:"total_duration"`
	Services      []BookedServiceResponse `json:"services,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

type SlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type SlotTimesResponse struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

type ServiceRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
	Active   *bool   `json:"active,omitempty"`
}

type ServiceResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Duration int       `json:"duration"`
	Active   bool      `json:"active"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		Date:          a.Date,
		Time:          a.Time,
		Notes:         a.Notes,
		Status:        string(a.Status),
		TotalPrice:    a.TotalPrice,
		TotalDuration: a.TotalDuration,
		CreatedAt:     a.CreatedAt,
	}
	for _, s := range a.Services {
		resp.Services = append(resp.Services, BookedServiceResponse{
			ServiceID: s.ServiceID,
			Name:      s.Name,
			Price:     s.Price,
			Duration:  s.Duration,
		})
	}
	return resp
}

func toServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:       s.ID,
		Name:     s.Name,
		Price:    s.Price,
		Duration: s.Duration,
		Active:   s.Active,
	}
}
