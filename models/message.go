package models

import "time"

type Message struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	SenderID   string    `json:"sender_id"`
	Content    string    `json:"content"`
	Source     string    `json:"source"`
	SenderName string    `json:"sender_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateMessageRequest struct {
	FamilyID string `json:"family_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Source   string `json:"source"`
}

type Notification struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
