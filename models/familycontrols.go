package models

import (
	"encoding/json"
	"time"
)

// Error codes returned verbatim by the Family Controls surface
const (
	CodeValidation    = "VAL_001"
	CodeAuthorization = "AUTH_001"
	CodeTokenCheck    = "TOKEN_CHECK_001"
	CodeTokenNotFound = "TOKEN_VALIDATE_001"
	CodeTokenExpired  = "TOKEN_VALIDATE_002"
	CodeTokenRevoked  = "TOKEN_VALIDATE_003"
	CodeTokenRevoke   = "TOKEN_REVOKE_001"
	CodeTokenRenew    = "TOKEN_RENEW_001"
)

type FamilyControlsAccount struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FamilyID   string    `json:"family_id"`
	Authorized bool      `json:"authorized"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type AuthorizationToken struct {
	ID              string     `json:"id"`
	Token           string     `json:"token"`
	UserID          string     `json:"user_id"`
	TargetUserID    string     `json:"target_user_id"`
	FamilyID        string     `json:"family_id"`
	Scopes          []string   `json:"scopes"`
	ExpiresAt       time.Time  `json:"expires_at"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	RevokedBy       string     `json:"revoked_by,omitempty"`
	RevokeReason    string     `json:"revoke_reason,omitempty"`
	LastValidatedAt *time.Time `json:"last_validated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type AuthorizeRequest struct {
	UserID        string   `json:"user_id" binding:"required"`
	TargetUserID  string   `json:"target_user_id" binding:"required"`
	FamilyID      string   `json:"family_id" binding:"required"`
	Scopes        []string `json:"scopes" binding:"required,min=1"`
	ExpiresInDays int      `json:"expires_in_days"`
}

type RevokeTokenRequest struct {
	RevokedBy string `json:"revoked_by" binding:"required"`
	Reason    string `json:"reason"`
}

type RenewTokenRequest struct {
	ExtendDays int `json:"extend_days" binding:"required,gt=0"`
}

type ScreenTimeRecord struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	FamilyID          string          `json:"family_id"`
	RecordDate        string          `json:"record_date"`
	TotalMinutes      int             `json:"total_minutes"`
	AppBreakdown      json.RawMessage `json:"app_breakdown"`
	CategoryBreakdown json.RawMessage `json:"category_breakdown"`
	CreatedAt         time.Time       `json:"created_at"`
}

type RecordScreenTimeRequest struct {
	UserID            string          `json:"user_id" binding:"required"`
	FamilyID          string          `json:"family_id" binding:"required"`
	RecordDate        string          `json:"record_date" binding:"required"` // YYYY-MM-DD
	TotalMinutes      int             `json:"total_minutes" binding:"min=0"`
	AppBreakdown      json.RawMessage `json:"app_breakdown"`
	CategoryBreakdown json.RawMessage `json:"category_breakdown"`
}

type DeviceControlPolicy struct {
	ID                  string          `json:"id"`
	FamilyID            string          `json:"family_id"`
	DeviceID            string          `json:"device_id"`
	BlockedApps         []string        `json:"blocked_apps"`
	ContentRestrictions json.RawMessage `json:"content_restrictions"`
	UpdatedBy           string          `json:"updated_by"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type UpsertPolicyRequest struct {
	FamilyID            string          `json:"family_id" binding:"required"`
	DeviceID            string          `json:"device_id" binding:"required"`
	BlockedApps         []string        `json:"blocked_apps"`
	ContentRestrictions json.RawMessage `json:"content_restrictions"`
}

type FamilyControlsStats struct {
	FamilyID           string `json:"family_id"`
	ActiveTokens       int    `json:"active_tokens"`
	ExpiredTokens      int    `json:"expired_tokens"`
	RevokedTokens      int    `json:"revoked_tokens"`
	TotalScreenTimeMin int    `json:"total_screen_time_minutes"`
}
