package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
)

type GigHandler struct {
	DB *sql.DB
	WS *WSHandler
}

// CreateGig posts a new open gig for the family
func (h *GigHandler) CreateGig(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	rewardType := req.RewardType
	if rewardType == "" {
		rewardType = "points"
	}

	var gig models.Gig
	err = h.DB.QueryRow(`
		INSERT INTO gigs (family_id, title, description, reward_type, reward_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, family_id, title, description, reward_type, reward_amount, status,
		          created_by, created_at, updated_at
	`, req.FamilyID, req.Title, req.Description, rewardType, req.RewardAmount, userID).Scan(
		&gig.ID, &gig.FamilyID, &gig.Title, &gig.Description, &gig.RewardType,
		&gig.RewardAmount, &gig.Status, &gig.CreatedBy, &gig.CreatedAt, &gig.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create gig"})
		return
	}

	h.WS.Broadcast(gig.FamilyID, "gig:created", gig)
	c.JSON(http.StatusCreated, gig)
}

// GetGigs lists a family's gigs
func (h *GigHandler) GetGigs(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	rows, err := h.DB.Query(`
		SELECT id, family_id, title, description, reward_type, reward_amount, status,
		       created_by, claimed_by, claimed_at, completed_at, created_at, updated_at
		FROM gigs
		WHERE family_id = $1
		ORDER BY created_at DESC
	`, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch gigs"})
		return
	}
	defer rows.Close()

	gigs := []models.Gig{}
	for rows.Next() {
		var gig models.Gig
		var createdBy, claimedBy sql.NullString
		if err := rows.Scan(&gig.ID, &gig.FamilyID, &gig.Title, &gig.Description,
			&gig.RewardType, &gig.RewardAmount, &gig.Status, &createdBy, &claimedBy,
			&gig.ClaimedAt, &gig.CompletedAt, &gig.CreatedAt, &gig.UpdatedAt); err != nil {
			continue
		}
		gig.CreatedBy = createdBy.String
		gig.ClaimedBy = claimedBy.String
		gigs = append(gigs, gig)
	}

	c.JSON(http.StatusOK, gigs)
}

// ClaimGig claims an open gig for the caller
func (h *GigHandler) ClaimGig(c *gin.Context) {
	userID := middleware.GetUserID(c)
	gigID := c.Param("id")

	var familyID, status string
	err := h.DB.QueryRow(`SELECT family_id, status FROM gigs WHERE id = $1`, gigID).Scan(&familyID, &status)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gig not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if status != models.GigStatusOpen {
		c.JSON(http.StatusConflict, gin.H{"error": "Gig is not open"})
		return
	}

	result, err := h.DB.Exec(`
		UPDATE gigs
		SET status = 'claimed', claimed_by = $1, claimed_at = $2, updated_at = $2
		WHERE id = $3 AND status = 'open'
	`, userID, time.Now(), gigID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim gig"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Gig was claimed by someone else"})
		return
	}

	h.WS.Broadcast(familyID, "gig:claimed", gin.H{"id": gigID, "claimed_by": userID})
	c.JSON(http.StatusOK, gin.H{"message": "Gig claimed"})
}

// CompleteGig marks a claimed gig completed; only the claimant may do this
func (h *GigHandler) CompleteGig(c *gin.Context) {
	userID := middleware.GetUserID(c)
	gigID := c.Param("id")

	var familyID, status string
	var claimedBy sql.NullString
	err := h.DB.QueryRow(`
		SELECT family_id, status, claimed_by FROM gigs WHERE id = $1
	`, gigID).Scan(&familyID, &status, &claimedBy)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gig not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if status != models.GigStatusClaimed {
		c.JSON(http.StatusConflict, gin.H{"error": "Gig is not claimed"})
		return
	}
	if claimedBy.String != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the claimant can complete a gig"})
		return
	}

	_, err = h.DB.Exec(`
		UPDATE gigs SET status = 'completed', completed_at = $1, updated_at = $1 WHERE id = $2
	`, time.Now(), gigID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete gig"})
		return
	}

	h.WS.Broadcast(familyID, "gig:completed", gin.H{"id": gigID, "completed_by": userID})
	c.JSON(http.StatusOK, gin.H{"message": "Gig completed"})
}

// DeleteGig removes a gig
func (h *GigHandler) DeleteGig(c *gin.Context) {
	userID := middleware.GetUserID(c)
	gigID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM gigs WHERE id = $1`, gigID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gig not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM gigs WHERE id = $1`, gigID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete gig"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Gig deleted"})
}
