package models

import "time"

type Invitation struct {
	ID           string    `json:"id"`
	FamilyID     string    `json:"family_id"`
	Email        string    `json:"email"`
	Relationship string    `json:"relationship"`
	InvitedBy    string    `json:"invited_by"`
	Token        string    `json:"token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type InvitationRequest struct {
	FamilyID     string `json:"family_id" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Relationship string `json:"relationship"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type DeclineInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}
