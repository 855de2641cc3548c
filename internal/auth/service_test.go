package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetrow/salon-booking/internal/auth"
)

type fakeUserRepo struct {
	byEmail map[string]*auth.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*auth.User)}
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

func (r *fakeUserRepo) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.PasswordHash = &passwordHash
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return auth.ErrUserNotFound
}

func newTestService() (*auth.Service, *fakeUserRepo, *auth.TokenManager) {
	repo := newFakeUserRepo()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	// MinCost keeps the bcrypt work factor out of the test runtime.
	return auth.NewService(repo, tokens, 4), repo, tokens
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a client account", func(t *testing.T) {
		svc, _, _ := newTestService()

		u, err := svc.Register(ctx, "Ada", "ada@example.com", "555-0100", "hunter2hunter2")
		require.NoError(t, err)

		assert.Equal(t, auth.RoleClient, u.Role)
		assert.NotNil(t, u.PasswordHash)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Register(ctx, "Ada", "ada@example.com", "", "hunter2hunter2")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Imposter", "ada@example.com", "", "different-pass")
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("registration claims a placeholder user", func(t *testing.T) {
		svc, repo, _ := newTestService()

		// Placeholder from an operator manual booking: no password hash.
		placeholder, err := repo.CreateUser(ctx, auth.User{
			Name:  "Walk In",
			Email: "walkin@example.com",
			Role:  auth.RoleClient,
		})
		require.NoError(t, err)

		claimed, err := svc.Register(ctx, "Walk In", "walkin@example.com", "", "hunter2hunter2")
		require.NoError(t, err)

		assert.Equal(t, placeholder.ID, claimed.ID)
		assert.NotNil(t, claimed.PasswordHash)

		_, _, err = svc.Login(ctx, "walkin@example.com", "hunter2hunter2")
		assert.NoError(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials yield a parseable token", func(t *testing.T) {
		svc, _, tokens := newTestService()

		registered, err := svc.Register(ctx, "Ada", "ada@example.com", "", "hunter2hunter2")
		require.NoError(t, err)

		token, u, err := svc.Login(ctx, "ada@example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)

		claims, err := tokens.Parse(token)
		require.NoError(t, err)

		id, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, registered.ID, id)
		assert.Equal(t, string(auth.RoleClient), claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Register(ctx, "Ada", "ada@example.com", "", "hunter2hunter2")
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "ada@example.com", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("placeholder users cannot log in", func(t *testing.T) {
		svc, repo, _ := newTestService()

		_, err := repo.CreateUser(ctx, auth.User{Email: "walkin@example.com", Role: auth.RoleClient})
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "walkin@example.com", "")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestTokenManager(t *testing.T) {
	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		issuer := auth.NewTokenManager("secret-a", time.Hour)
		verifier := auth.NewTokenManager("secret-b", time.Hour)

		token, err := issuer.Issue(&auth.User{ID: uuid.New(), Email: "a@example.com", Role: auth.RoleClient})
		require.NoError(t, err)

		_, err = verifier.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		m := auth.NewTokenManager("secret", -time.Minute)

		token, err := m.Issue(&auth.User{ID: uuid.New(), Email: "a@example.com", Role: auth.RoleClient})
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
