package models

import "time"

// Gig lifecycle
const (
	GigStatusOpen      = "open"
	GigStatusClaimed   = "claimed"
	GigStatusCompleted = "completed"
)

type Gig struct {
	ID           string     `json:"id"`
	FamilyID     string     `json:"family_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	RewardType   string     `json:"reward_type"`
	RewardAmount float64    `json:"reward_amount"`
	Status       string     `json:"status"`
	CreatedBy    string     `json:"created_by"`
	ClaimedBy    string     `json:"claimed_by,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateGigRequest struct {
	FamilyID     string  `json:"family_id" binding:"required"`
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	RewardType   string  `json:"reward_type"`
	RewardAmount float64 `json:"reward_amount"`
}
