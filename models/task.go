package models

import "time"

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Approval statuses, an axis independent of task status
const (
	ApprovalNotRequired = "not_required"
	ApprovalPending     = "pending"
	ApprovalApproved    = "approved"
	ApprovalRejected    = "rejected"
)

type Task struct {
	ID             string     `json:"id"`
	FamilyID       string     `json:"family_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	AssignedTo     string     `json:"assigned_to,omitempty"`
	CreatedBy      string     `json:"created_by"`
	RewardType     string     `json:"reward_type"`
	RewardAmount   float64    `json:"reward_amount"`
	Category       string     `json:"category"`
	Recurrence     string     `json:"recurrence"`
	Status         string     `json:"status"`
	ApprovalStatus string     `json:"approval_status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type CreateTaskRequest struct {
	FamilyID        string     `json:"family_id" binding:"required"`
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	DueDate         *time.Time `json:"due_date"`
	AssignedTo      string     `json:"assigned_to"`
	RewardType      string     `json:"reward_type"`
	RewardAmount    float64    `json:"reward_amount"`
	Category        string     `json:"category"`
	Recurrence      string     `json:"recurrence"`
	RequireApproval bool       `json:"require_approval"`
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	AssignedTo   *string    `json:"assigned_to"`
	RewardType   *string    `json:"reward_type"`
	RewardAmount *float64   `json:"reward_amount"`
	Category     *string    `json:"category"`
	Recurrence   *string    `json:"recurrence"`
	Status       *string    `json:"status"`
}

type UpdateApprovalRequest struct {
	ApprovalStatus string `json:"approval_status" binding:"required,oneof=pending approved rejected not_required"`
}
