package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrNameTaken       = errors.New("service name is already in use")
)

// Repository contains all DB interactions needed by the catalog.
type Repository interface {
	CreateService(ctx context.Context, s Service) (*Service, error)
	UpdateService(ctx context.Context, s Service) (*Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]Service, error)
	GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]Service, error)
}
