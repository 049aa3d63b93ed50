package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/services"
	"github.com/famconomy/famconomy-api/utils"
)

type InvitationHandler struct {
	DB    *sql.DB
	Email *services.EmailService
}

// CreateInvitation issues an invitation token for an email address.
// Re-inviting an email with a pending invitation replaces the existing row
// with a fresh token and expiry.
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	// Already a member?
	var alreadyMember bool
	err = h.DB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM family_members fm
			JOIN users u ON fm.user_id = u.id
			WHERE fm.family_id = $1 AND u.email = $2
		)
	`, req.FamilyID, req.Email).Scan(&alreadyMember)
	if err == nil && alreadyMember {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
		return
	}

	token, err := utils.GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	relationship := req.Relationship
	if relationship == "" {
		relationship = models.RoleMember
	}

	expiresAt := time.Now().Add(7 * 24 * time.Hour)

	// Upsert replaces a pending invitation for the same (family, email)
	var invitationID string
	err = h.DB.QueryRow(`
		INSERT INTO invitations (family_id, email, relationship, invited_by, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (family_id, email)
		DO UPDATE SET relationship = EXCLUDED.relationship,
		              invited_by = EXCLUDED.invited_by,
		              token = EXCLUDED.token,
		              expires_at = EXCLUDED.expires_at,
		              created_at = NOW()
		RETURNING id
	`, req.FamilyID, req.Email, relationship, userID, token, expiresAt).Scan(&invitationID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	var familyName, inviterName string
	err = h.DB.QueryRow(`
		SELECT f.name, u.first_name || ' ' || u.last_name
		FROM families f, users u
		WHERE f.id = $1 AND u.id = $2
	`, req.FamilyID, userID).Scan(&familyName, &inviterName)
	if err != nil {
		familyName = "a family"
		inviterName = "A family member"
	}

	if err := h.Email.SendInvitation(req.Email, inviterName, familyName, token); err != nil {
		c.JSON(http.StatusCreated, gin.H{
			"id":         invitationID,
			"token":      token,
			"expires_at": expiresAt,
			"message":    "Invitation created but email failed to send",
			"warning":    "Please share the invitation link manually",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         invitationID,
		"token":      token,
		"expires_at": expiresAt,
		"message":    "Invitation sent successfully",
	})
}

// GetInvitations lists pending invitations for a family
func (h *InvitationHandler) GetInvitations(c *gin.Context) {
	familyID := c.Param("id")

	rows, err := h.DB.Query(`
		SELECT i.id, i.family_id, i.email, i.relationship, i.invited_by, i.expires_at, i.created_at
		FROM invitations i
		WHERE i.family_id = $1
		ORDER BY i.created_at DESC
	`, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitations"})
		return
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		var inv models.Invitation
		var invitedBy sql.NullString
		if err := rows.Scan(&inv.ID, &inv.FamilyID, &inv.Email, &inv.Relationship,
			&invitedBy, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			continue
		}
		inv.InvitedBy = invitedBy.String
		invitations = append(invitations, inv)
	}

	c.JSON(http.StatusOK, invitations)
}

// AcceptInvitation consumes a token: the membership row is created and the
// invitation deleted in one transaction, so a token is single-use.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var inv models.Invitation
	err := h.DB.QueryRow(`
		SELECT id, family_id, email, relationship, expires_at
		FROM invitations
		WHERE token = $1
	`, req.Token).Scan(&inv.ID, &inv.FamilyID, &inv.Email, &inv.Relationship, &inv.ExpiresAt)

	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitation"})
		return
	}

	if time.Now().After(inv.ExpiresAt) {
		h.DB.Exec(`DELETE FROM invitations WHERE id = $1`, inv.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation has expired"})
		return
	}

	var alreadyMember bool
	h.DB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM family_members
			WHERE family_id = $1 AND user_id = $2
		)
	`, inv.FamilyID, userID).Scan(&alreadyMember)
	if alreadyMember {
		c.JSON(http.StatusConflict, gin.H{"error": "You are already a member"})
		return
	}

	role := models.RoleForRelationship(inv.Relationship)
	err = utils.WithTransaction(h.DB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO family_members (family_id, user_id, role, relationship)
			VALUES ($1, $2, $3, $4)
		`, inv.FamilyID, userID, role, inv.Relationship); err != nil {
			return err
		}

		_, err := tx.Exec(`DELETE FROM invitations WHERE id = $1`, inv.ID)
		return err
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Invitation accepted",
		"family_id": inv.FamilyID,
	})
}

// DeclineInvitation deletes the invitation for its token
func (h *InvitationHandler) DeclineInvitation(c *gin.Context) {
	var req models.DeclineInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.DB.Exec(`DELETE FROM invitations WHERE token = $1`, req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline invitation"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}

// CancelInvitation removes a pending invitation from a family
func (h *InvitationHandler) CancelInvitation(c *gin.Context) {
	familyID := c.Param("id")
	invitationID := c.Param("invitation_id")

	result, err := h.DB.Exec(`
		DELETE FROM invitations
		WHERE id = $1 AND family_id = $2
	`, invitationID, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel invitation"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found or already processed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation cancelled"})
}
