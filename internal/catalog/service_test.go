package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetrow/salon-booking/internal/catalog"
)

type fakeRepo struct {
	byID map[uuid.UUID]catalog.Service
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[uuid.UUID]catalog.Service)}
}

func (r *fakeRepo) CreateService(ctx context.Context, s catalog.Service) (*catalog.Service, error) {
	for _, existing := range r.byID {
		if existing.Name == s.Name {
			return nil, catalog.ErrNameTaken
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.byID[s.ID] = s
	return &s, nil
}

func (r *fakeRepo) UpdateService(ctx context.Context, s catalog.Service) (*catalog.Service, error) {
	if _, ok := r.byID[s.ID]; !ok {
		return nil, catalog.ErrServiceNotFound
	}
	r.byID[s.ID] = s
	return &s, nil
}

func (r *fakeRepo) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return catalog.ErrServiceNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &s, nil
}

func (r *fakeRepo) ListServices(ctx context.Context, activeOnly bool) ([]catalog.Service, error) {
	var out []catalog.Service
	for _, s := range r.byID {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeRepo) GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Service, error) {
	var out []catalog.Service
	for _, id := range ids {
		if s, ok := r.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestResolveForBooking(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cat := catalog.NewCatalog(repo)

	haircut, err := cat.Create(ctx, "Haircut & Styling", 45, 60)
	require.NoError(t, err)
	manicure, err := cat.Create(ctx, "Manicure", 30, 45)
	require.NoError(t, err)

	t.Run("resolves in request order", func(t *testing.T) {
		resolved, err := cat.ResolveForBooking(ctx, []uuid.UUID{manicure.ID, haircut.ID})
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		assert.Equal(t, "Manicure", resolved[0].Name)
		assert.Equal(t, "Haircut & Styling", resolved[1].Name)
	})

	t.Run("empty selection is fine", func(t *testing.T) {
		resolved, err := cat.ResolveForBooking(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, resolved)
	})

	t.Run("unknown service is rejected", func(t *testing.T) {
		_, err := cat.ResolveForBooking(ctx, []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
	})

	t.Run("inactive service is rejected", func(t *testing.T) {
		deactivated := *haircut
		deactivated.Active = false
		_, err := cat.Update(ctx, deactivated)
		require.NoError(t, err)

		_, err = cat.ResolveForBooking(ctx, []uuid.UUID{haircut.ID})
		assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
	})
}
