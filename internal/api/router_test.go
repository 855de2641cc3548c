package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetrow/salon-booking/internal/api"
	"github.com/velvetrow/salon-booking/internal/auth"
	"github.com/velvetrow/salon-booking/internal/catalog"
	redisclient "github.com/velvetrow/salon-booking/internal/redis"
	"github.com/velvetrow/salon-booking/internal/schedule"
)

// In-test fakes for the auth and catalog stores; the schedule store uses
// the shared in-memory repository.

type fakeUserRepo struct {
	byEmail map[string]*auth.User
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u auth.User) (*auth.User, error) {
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, auth.ErrEmailTaken
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.byEmail[u.Email] = &u
	cp := u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (r *fakeUserRepo) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.PasswordHash = &hash
			return nil
		}
	}
	return auth.ErrUserNotFound
}

type fakeCatalogRepo struct {
	byID map[uuid.UUID]catalog.Service
}

func (r *fakeCatalogRepo) CreateService(ctx context.Context, s catalog.Service) (*catalog.Service, error) {
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

func (r *fakeCatalogRepo) UpdateService(ctx context.Context, s catalog.Service) (*catalog.Service, error) {
	if _, ok := r.byID[s.ID]; !ok {
		return nil, catalog.ErrServiceNotFound
	}
	r.byID[s.ID] = s
	return &s, nil
}

func (r *fakeCatalogRepo) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return catalog.ErrServiceNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeCatalogRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &s, nil
}

func (r *fakeCatalogRepo) ListServices(ctx context.Context, activeOnly bool) ([]catalog.Service, error) {
	var out []catalog.Service
	for _, s := range r.byID {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCatalogRepo) GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Service, error) {
	var out []catalog.Service
	for _, id := range ids {
		if s, ok := r.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type testEnv struct {
	handler  http.Handler
	schedule *schedule.Service
	catalog  *catalog.Catalog
	tokens   *auth.TokenManager
	users    *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := &fakeUserRepo{byEmail: make(map[string]*auth.User)}
	scheduleSvc := schedule.NewService(schedule.NewMemoryRepository(), redisclient.NoopLocker{})
	cat := catalog.NewCatalog(&fakeCatalogRepo{byID: make(map[uuid.UUID]catalog.Service)})

	handler := api.NewRouter(api.RouterConfig{
		Schedule: scheduleSvc,
		Auth:     auth.NewService(users, tokens, 4),
		Catalog:  cat,
		Tokens:   tokens,
		Env:      "test",
		Version:  "test",
	})

	return &testEnv{
		handler:  handler,
		schedule: scheduleSvc,
		catalog:  cat,
		tokens:   tokens,
		users:    users,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Test Client",
		"email":    email,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	u := &auth.User{ID: uuid.New(), Name: "Operator", Email: "op@salon.local", Role: auth.RoleAdmin}
	e.users.byEmail[u.Email] = u

	token, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func decodeAvailability(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var out struct {
		Times []string `json:"times"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Times
}

func TestAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/admin/slots", admin, map[string]string{"date": "2025-06-01", "time": "10:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/admin/slots", admin, map[string]string{"date": "2025-06-01", "time": "11:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/availability?date=2025-06-01", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"10:00", "11:00"}, decodeAvailability(t, rec))

	t.Run("bad date reads as empty", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability?date=bogus", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeAvailability(t, rec))
	})

	t.Run("date status", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/calendar/2025-06-01", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var out struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "available", out.Status)
	})
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)
	client := env.registerAndLogin(t, "client@example.com")

	rec := env.do(t, http.MethodPost, "/admin/slots", admin, map[string]string{"date": "2025-06-01", "time": "10:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("anonymous booking is unauthorized", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/appointments", "", map[string]string{"date": "2025-06-01", "time": "10:00"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("book then conflict", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/appointments", client, map[string]string{"date": "2025-06-01", "time": "10:00"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var appt struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
		assert.Equal(t, "pending", appt.Status)

		rec = env.do(t, http.MethodPost, "/appointments", client, map[string]string{"date": "2025-06-01", "time": "10:00"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = env.do(t, http.MethodGet, "/availability?date=2025-06-01", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeAvailability(t, rec))

		t.Run("operator cancel frees the slot", func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/admin/appointments/"+appt.ID+"/cancel", admin, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = env.do(t, http.MethodGet, "/availability?date=2025-06-01", "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{"10:00"}, decodeAvailability(t, rec))
		})
	})

	t.Run("booking without a slot is not found", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/appointments", client, map[string]string{"date": "2025-06-01", "time": "12:00"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBookingWithServices(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)
	client := env.registerAndLogin(t, "client@example.com")

	rec := env.do(t, http.MethodPost, "/admin/services", admin, map[string]any{
		"name": "Haircut & Styling", "price": 45.0, "duration": 60,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var svc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &svc))

	rec = env.do(t, http.MethodPost, "/admin/slots", admin, map[string]string{"date": "2025-06-01", "time": "10:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/appointments", client, map[string]any{
		"date": "2025-06-01", "time": "10:00", "service_ids": []string{svc.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt struct {
		TotalPrice    float64 `json:"total_price"`
		TotalDuration int     `json:"total_duration"`
		Services      []struct {
			Name string `json:"name"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, 45.0, appt.TotalPrice)
	assert.Equal(t, 60, appt.TotalDuration)
	require.Len(t, appt.Services, 1)
	assert.Equal(t, "Haircut & Styling", appt.Services[0].Name)

	t.Run("unknown service is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/appointments", client, map[string]any{
			"date": "2025-06-01", "time": "10:00", "service_ids": []string{uuid.NewString()},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestManualBooking(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/admin/slots", admin, map[string]string{"date": "2025-06-01", "time": "10:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/admin/appointments/manual", admin, map[string]string{
		"date": "2025-06-01", "time": "10:00",
		"name": "Walk In", "email": "walkin@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, "confirmed", appt.Status)
}

func TestAdminGate(t *testing.T) {
	env := newTestEnv(t)
	client := env.registerAndLogin(t, "client@example.com")

	rec := env.do(t, http.MethodPost, "/admin/slots", client, map[string]string{"date": "2025-06-01", "time": "10:00"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/slots", "", map[string]string{"date": "2025-06-01", "time": "10:00"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
