package model

import (
	"slices"
	"time"
)

// Category is the fixed set of meal categories a recipe may declare.
type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategoryDessert   Category = "dessert"
	CategorySnack     Category = "snack"
	CategoryAppetizer Category = "appetizer"
	CategoryBeverage  Category = "beverage"
)

var categories = []Category{
	CategoryBreakfast,
	CategoryLunch,
	CategoryDinner,
	CategoryDessert,
	CategorySnack,
	CategoryAppetizer,
	CategoryBeverage,
}

// Categories returns the allowed category values in declaration order.
func Categories() []Category {
	return slices.Clone(categories)
}

// Valid reports whether c is one of the enumerated categories.
// The empty category is not valid; callers treat it as "absent".
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// RecipeFields are the scalar, caller-editable parts of a recipe.
//
// Difficulty, Cuisine and DietaryInfo are deliberately free text; only Category is
// restricted to an enumeration.
type RecipeFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CookingTime int      `json:"cooking_time"` // minutes
	PrepTime    *int     `json:"prep_time,omitempty"`
	TotalTime   *int     `json:"total_time,omitempty"`
	Servings    int      `json:"servings"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Category    Category `json:"category,omitempty"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Calories    *int     `json:"calories,omitempty"`
	DietaryInfo string   `json:"dietary_info,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// IngredientLine is one submitted (ingredient, quantity) pair of a recipe draft.
type IngredientLine struct {
	IngredientID int64   `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Notes        string  `json:"notes,omitempty"`
}

// InstructionLine is one submitted step of a recipe draft.
type InstructionLine struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
}

// RecipeDraft is everything a caller submits to create or replace a recipe.
// On update the ingredient and instruction sets replace the stored ones wholesale.
type RecipeDraft struct {
	RecipeFields
	Ingredients  []IngredientLine  `json:"ingredients"`
	Instructions []InstructionLine `json:"instructions"`
}

// Recipe is a stored recipe with its children resolved.
//
// Images holds opaque references returned by the image store, never raw bytes.
type Recipe struct {
	ID int64 `json:"id"`
	RecipeFields
	Images       []string           `json:"images"`
	UserID       int64              `json:"user_id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []Instruction      `json:"instructions"`
}

// RecipeIngredient is the association between a recipe and a catalog ingredient.
// Name and Unit are copied from the referenced Ingredient when the recipe is read.
type RecipeIngredient struct {
	RecipeID     int64   `json:"-"`
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
	Notes        string  `json:"notes,omitempty"`
}

// Instruction is a single step of a recipe; StepNumber is the ordering key.
type Instruction struct {
	ID          int64  `json:"id"`
	RecipeID    int64  `json:"-"`
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
}
