package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Catalog is the application surface over the service repository.
type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) Create(ctx context.Context, name string, price float64, duration int) (*Service, error) {
	return c.repo.CreateService(ctx, Service{
		Name:     name,
		Price:    price,
		Duration: duration,
		Active:   true,
	})
}

func (c *Catalog) Update(ctx context.Context, s Service) (*Service, error) {
	return c.repo.UpdateService(ctx, s)
}

func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	return c.repo.DeleteService(ctx, id)
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	return c.repo.GetServiceByID(ctx, id)
}

func (c *Catalog) List(ctx context.Context, activeOnly bool) ([]Service, error) {
	services, err := c.repo.ListServices(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// ResolveForBooking loads the live services for a booking request so the
// writer can snapshot them. Unknown and inactive services are rejected;
// a past deactivation must not be bookable through a stale client.
func (c *Catalog) ResolveForBooking(ctx context.Context, ids []uuid.UUID) ([]Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	services, err := c.repo.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	byID := make(map[uuid.UUID]Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	resolved := make([]Service, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || !s.Active {
			return nil, ErrServiceNotFound
		}
		resolved = append(resolved, s)
	}
	return resolved, nil
}
