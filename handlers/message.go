package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/services"
)

type MessageHandler struct {
	DB            *sql.DB
	WS            *WSHandler
	Notifications *services.NotificationService
}

// CreateMessage stores a chat message, then fans out notifications and pushes
// the message to connected family members.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	source := req.Source
	if source == "" {
		source = "app"
	}

	var msg models.Message
	err = h.DB.QueryRow(`
		INSERT INTO messages (family_id, sender_id, content, source)
		VALUES ($1, $2, $3, $4)
		RETURNING id, family_id, sender_id, content, source, created_at
	`, req.FamilyID, userID, req.Content, source).Scan(
		&msg.ID, &msg.FamilyID, &msg.SenderID, &msg.Content, &msg.Source, &msg.CreatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create message"})
		return
	}

	var senderName string
	if err := h.DB.QueryRow(`
		SELECT first_name || ' ' || last_name FROM users WHERE id = $1
	`, userID).Scan(&senderName); err == nil {
		msg.SenderName = senderName
	}

	h.Notifications.FanOut(msg.FamilyID, userID, "message", "New message", msg.Content)
	h.WS.Broadcast(msg.FamilyID, "message:new", msg)

	c.JSON(http.StatusCreated, msg)
}

// GetMessages returns the family chat history, newest first
func (h *MessageHandler) GetMessages(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	limit := 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}

	rows, err := h.DB.Query(`
		SELECT m.id, m.family_id, m.sender_id, m.content, m.source, m.created_at,
		       u.first_name || ' ' || u.last_name
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.family_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3
	`, familyID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var senderID, senderName sql.NullString
		if err := rows.Scan(&msg.ID, &msg.FamilyID, &senderID, &msg.Content,
			&msg.Source, &msg.CreatedAt, &senderName); err != nil {
			continue
		}
		msg.SenderID = senderID.String
		msg.SenderName = senderName.String
		messages = append(messages, msg)
	}

	c.JSON(http.StatusOK, messages)
}
