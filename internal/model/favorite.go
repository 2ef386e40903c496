package model

import "time"

// Favorite records that a user bookmarked a recipe. (UserID, RecipeID) is unique.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RecipeID  int64     `json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}
