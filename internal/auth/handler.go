package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lmoran/recipe-keeper/internal/models"
	"github.com/lmoran/recipe-keeper/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	sessions Sessions
}

func NewHandler(users UserStore, sessions Sessions) *Handler {
	return &Handler{users: users, sessions: sessions}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}

// Signup creates a new user and establishes a session for it.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fieldErrors := map[string]string{}
	if req.Username == "" {
		fieldErrors["username"] = "Username is required."
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required."
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": fieldErrors})
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("signup: hash password")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hashed,
		ImageURL:     req.ImageURL,
		Bio:          req.Bio,
	}
	created, err := h.users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			// no session on a failed signup
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": map[string]string{"username": "Username already exists."},
			})
			return
		}
		log.Error().Err(err).Msg("signup: create user")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sid, err := h.sessions.Create(r.Context(), created.ID)
	if err != nil {
		log.Error().Err(err).Msg("signup: create session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	SetSessionCookie(w, sid)

	writeJSON(w, http.StatusCreated, created.View())
}

// Login verifies credentials and establishes a session. A wrong password and
// an unknown username produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("login: lookup user")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err != nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	sid, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Msg("login: create session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	SetSessionCookie(w, sid)

	writeJSON(w, http.StatusOK, user.View())
}

// CheckSession returns the current user if the session resolves to an
// existing one. A session pointing at a deleted user is unauthenticated.
func (h *Handler) CheckSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		unauthorized(w)
		return
	}

	userID, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		log.Error().Err(err).Msg("check_session: session lookup")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if userID == "" {
		unauthorized(w)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			unauthorized(w)
			return
		}
		log.Error().Err(err).Msg("check_session: user lookup")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, user.View())
}

// Logout ends the current session. Without an established session it is
// an unauthorized request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		unauthorized(w)
		return
	}

	userID, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		log.Error().Err(err).Msg("logout: session lookup")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if userID == "" {
		unauthorized(w)
		return
	}

	if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
		log.Error().Err(err).Msg("logout: delete session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	ClearSessionCookie(w)

	w.WriteHeader(http.StatusNoContent)
}

// ClearSession unconditionally drops the session. Idempotent.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Error().Err(err).Msg("clear: delete session")
		}
	}
	ClearSessionCookie(w)

	w.WriteHeader(http.StatusNoContent)
}
