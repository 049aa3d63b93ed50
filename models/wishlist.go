package models

import "time"

type Wishlist struct {
	ID        string         `json:"id"`
	FamilyID  string         `json:"family_id"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	Items     []WishlistItem `json:"items,omitempty"`
}

type WishlistItem struct {
	ID         string    `json:"id"`
	WishlistID string    `json:"wishlist_id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Price      float64   `json:"price"`
	Priority   int       `json:"priority"`
	ReservedBy string    `json:"reserved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateWishlistItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	URL      string  `json:"url"`
	Price    float64 `json:"price"`
	Priority int     `json:"priority"`
}
