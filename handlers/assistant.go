package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/services"
)

// AssistantHandler exposes the assistant memory store. Short-term
// memories written here are later merged by the consolidation job.
type AssistantHandler struct {
	DB        *sql.DB
	Assistant *services.AssistantService
}

type createMemoryRequest struct {
	FamilyID string `json:"family_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// CreateMemory stores a short-term memory for the caller
func (h *AssistantHandler) CreateMemory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req createMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := h.Assistant.RememberShortTerm(userID, req.FamilyID, req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store memory"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Memory stored"})
}

// GetMemories returns the caller's memories in a family, newest first
func (h *AssistantHandler) GetMemories(c *gin.Context) {
	userID := middleware.GetUserID(c)
	familyID := c.Query("family_id")
	if familyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "family_id is required"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
	}

	memories, err := h.Assistant.GetMemories(userID, familyID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch memories"})
		return
	}

	c.JSON(http.StatusOK, memories)
}
