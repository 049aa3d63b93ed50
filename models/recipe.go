package models

import "time"

type Recipe struct {
	ID           string             `json:"id"`
	FamilyID     string             `json:"family_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Instructions string             `json:"instructions"`
	Servings     int                `json:"servings"`
	CreatedBy    string             `json:"created_by"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Ingredients  []RecipeIngredient `json:"ingredients,omitempty"`
}

type RecipeIngredient struct {
	ID       string  `json:"id"`
	RecipeID string  `json:"recipe_id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type CreateRecipeRequest struct {
	FamilyID     string                    `json:"family_id" binding:"required"`
	Name         string                    `json:"name" binding:"required"`
	Description  string                    `json:"description"`
	Instructions string                    `json:"instructions"`
	Servings     int                       `json:"servings"`
	Ingredients  []CreateIngredientRequest `json:"ingredients"`
}

type CreateIngredientRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type MealPlanEntry struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	RecipeID   string    `json:"recipe_id"`
	RecipeName string    `json:"recipe_name,omitempty"`
	PlanDate   string    `json:"plan_date"`
	MealType   string    `json:"meal_type"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateMealPlanEntryRequest struct {
	FamilyID string `json:"family_id" binding:"required"`
	RecipeID string `json:"recipe_id" binding:"required"`
	PlanDate string `json:"plan_date" binding:"required"` // YYYY-MM-DD
	MealType string `json:"meal_type"`
}
