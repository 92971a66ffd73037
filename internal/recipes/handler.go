package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lmoran/recipe-keeper/internal/middleware"
	"github.com/lmoran/recipe-keeper/internal/models"
	"github.com/lmoran/recipe-keeper/internal/store"
)

// RecipeStore defines the interface for recipe persistence.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error)
	ListRecipesByUser(ctx context.Context, userID string) ([]models.Recipe, error)
}

// Handler holds recipe HTTP handlers.
type Handler struct {
	recipes RecipeStore
}

func NewHandler(recipes RecipeStore) *Handler {
	return &Handler{recipes: recipes}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// List returns every recipe owned by the current user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	recs, err := h.recipes.ListRecipesByUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("recipes: list")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	views := make([]models.RecipeView, 0, len(recs))
	for i := range recs {
		views = append(views, recs[i].View())
	}
	writeJSON(w, http.StatusOK, views)
}

// Create persists a new recipe owned by the current user. The owner always
// comes from the session, never from the body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req models.CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// minutes_to_complete is checked for presence, not truthiness: 0 is valid.
	if req.Title == "" || req.Instructions == "" || req.MinutesToComplete == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid data"})
		return
	}

	rec := &models.Recipe{
		Title:             req.Title,
		Instructions:      req.Instructions,
		MinutesToComplete: *req.MinutesToComplete,
		UserID:            userID,
	}
	created, err := h.recipes.CreateRecipe(r.Context(), rec)
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": map[string]string{vErr.Field: vErr.Message},
			})
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("recipes: create")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, created.View())
}
