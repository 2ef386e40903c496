package model

// Ingredient is a reusable catalog entry shared by every recipe that uses it.
// Name is unique across the catalog; Unit is free text ("grams", "ml", "pieces").
type Ingredient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}
