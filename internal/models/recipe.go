package models

import "time"

// Recipe is a single recipe owned by a user.
type Recipe struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Instructions      string    `json:"instructions"`
	MinutesToComplete int       `json:"minutes_to_complete"`
	UserID            string    `json:"user_id"`
	Owner             User      `json:"-"` // public fields only, attached at read time
	CreatedAt         time.Time `json:"created_at"`
}

// RecipeView is the public shape of a recipe, with its owner summary embedded
// so rendering never needs a follow-up lookup.
type RecipeView struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Instructions      string   `json:"instructions"`
	MinutesToComplete int      `json:"minutes_to_complete"`
	User              UserView `json:"user"`
}

func (r *Recipe) View() RecipeView {
	owner := r.Owner
	if owner.ID == "" {
		owner.ID = r.UserID
	}
	return RecipeView{
		ID:                r.ID,
		Title:             r.Title,
		Instructions:      r.Instructions,
		MinutesToComplete: r.MinutesToComplete,
		User:              owner.View(),
	}
}

// CreateRecipeRequest is the JSON body for POST /recipes.
// MinutesToComplete is a pointer so an explicit 0 is distinguishable from
// an absent field.
type CreateRecipeRequest struct {
	Title             string `json:"title"`
	Instructions      string `json:"instructions"`
	MinutesToComplete *int   `json:"minutes_to_complete"`
}
