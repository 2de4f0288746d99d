package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"oldphonedeals/internal/domain/user"
	middlewarex "oldphonedeals/internal/http/middleware"
	"oldphonedeals/internal/marketplace"
	"oldphonedeals/internal/services/views"
	"oldphonedeals/internal/session"
)

// Authenticator checks credentials against the marketplace.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (marketplace.Auth, error)
	AdminLogin(ctx context.Context, email, password string) (marketplace.Auth, error)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string    `json:"sessionId"`
	User      user.User `json:"user"`
}

// Login signs a regular user in and opens a session.
func Login(auth Authenticator, store session.Store) http.HandlerFunc {
	return login(auth.Login, store)
}

// AdminLogin signs an administrator in and opens a session.
func AdminLogin(auth Authenticator, store session.Store) http.HandlerFunc {
	return login(auth.AdminLogin, store)
}

func login(authenticate func(ctx context.Context, email, password string) (marketplace.Auth, error), store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password are required", http.StatusBadRequest)
			return
		}

		res, err := authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			var apiErr *marketplace.APIError
			if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusBadRequest) {
				http.Error(w, apiErr.Message, http.StatusUnauthorized)
				return
			}
			log.Error().Err(err).Msg("marketplace login failed")
			http.Error(w, "login failed", http.StatusBadGateway)
			return
		}

		s, err := store.Create(r.Context(), res.Token, res.User)
		if err != nil {
			log.Error().Err(err).Msg("failed to create session")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Info().
			Str("session_id", s.ID).
			Str("user_id", s.User.ID).
			Bool("admin", s.IsAdmin()).
			Msg("session opened")

		writeJSON(w, http.StatusOK, loginResponse{SessionID: s.ID, User: s.User})
	}
}

// Logout closes the session and unmounts its views.
func Logout(store session.Store, manager *views.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middlewarex.BearerToken(r)
		if !ok {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		if err := store.Delete(r.Context(), id); err != nil && !errors.Is(err, session.ErrNotFound) {
			log.Error().Err(err).Msg("failed to delete session")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		manager.UnmountSession(id)
		w.WriteHeader(http.StatusNoContent)
	}
}
