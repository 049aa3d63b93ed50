package models

import "time"

type Family struct {
	ID        string         `json:"id"`
	Name      string         `json:"name" binding:"required"`
	Mantra    string         `json:"mantra"`
	Values    []string       `json:"values"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Members   []FamilyMember `json:"members,omitempty"`
}

type FamilyMember struct {
	ID           string    `json:"id"`
	FamilyID     string    `json:"family_id"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	Relationship string    `json:"relationship"`
	JoinedAt     time.Time `json:"joined_at"`
	UserName     string    `json:"user_name,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
}

type CreateFamilyRequest struct {
	Name   string   `json:"name" binding:"required"`
	Mantra string   `json:"mantra"`
	Values []string `json:"values"`
}

type UpdateFamilyRequest struct {
	Name   string   `json:"name"`
	Mantra string   `json:"mantra"`
	Values []string `json:"values"`
}

// Membership roles
const (
	RoleAdmin  = "admin"
	RoleParent = "parent"
	RoleChild  = "child"
	RoleMember = "member"
)

// RoleForRelationship maps an invitation's relationship onto the role
// granted when it is accepted. Admin is never grantable by invitation;
// it belongs to the family creator.
func RoleForRelationship(relationship string) string {
	switch relationship {
	case RoleParent, "guardian":
		return RoleParent
	case RoleChild:
		return RoleChild
	default:
		return RoleMember
	}
}
