package models

import "time"

type ShoppingList struct {
	ID        string         `json:"id"`
	FamilyID  string         `json:"family_id"`
	Name      string         `json:"name"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Items     []ShoppingItem `json:"items,omitempty"`
}

type ShoppingItem struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Completed bool      `json:"completed"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateShoppingListRequest struct {
	FamilyID string `json:"family_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type CreateShoppingItemRequest struct {
	ListID   string  `json:"list_id" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type UpdateShoppingItemRequest struct {
	Name      *string  `json:"name"`
	Quantity  *float64 `json:"quantity"`
	Unit      *string  `json:"unit"`
	Completed *bool    `json:"completed"`
}

type AggregateMealPlanRequest struct {
	FamilyID  string `json:"family_id" binding:"required"`
	WeekStart string `json:"week_start" binding:"required"` // YYYY-MM-DD
}
