package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	repo   Repository
	tokens *TokenManager
	cost   int
}

func NewService(repo Repository, tokens *TokenManager, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		cost:   bcryptCost,
	}
}

// Register creates a client account. If the email already belongs to a
// placeholder user from an operator manual booking, registration claims
// that user instead of failing, so booking history is kept.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	created, err := s.repo.CreateUser(ctx, User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: &hashStr,
		Role:         RoleClient,
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, ErrEmailTaken) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	existing, lookupErr := s.repo.GetUserByEmail(ctx, email)
	if lookupErr != nil {
		return nil, fmt.Errorf("load existing user: %w", lookupErr)
	}
	if existing.PasswordHash != nil {
		return nil, ErrEmailTaken
	}

	if err := s.repo.SetPassword(ctx, existing.ID, hashStr); err != nil {
		return nil, fmt.Errorf("claim placeholder user: %w", err)
	}
	existing.PasswordHash = &hashStr
	return existing, nil
}

// Login checks credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if u.PasswordHash == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}
