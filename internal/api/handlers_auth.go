package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/velvetrow/salon-booking/internal/auth"
)

func registerHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			writeError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
			return
		}

		u, err := svc.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				writeError(w, http.StatusConflict, "email_taken", err.Error())
				return
			}
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, UserResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  string(u.Role),
		})
	}
}

func loginHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, u, err := svc.Login(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
				return
			}
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token: token,
			User: UserResponse{
				ID:    u.ID,
				Name:  u.Name,
				Email: u.Email,
				Role:  string(u.Role),
			},
		})
	}
}
