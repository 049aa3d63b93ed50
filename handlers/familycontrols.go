package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/services"
)

// FamilyControlsHandler exposes the screen-time authorization surface.
// Unlike the rest of the API its errors carry flat string codes the
// device agents match on, so the envelopes here include "code".
type FamilyControlsHandler struct {
	DB  *sql.DB
	FC  *services.FamilyControlsService
	Log *logrus.Logger
}

func fcError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"code": code, "error": message})
}

// Authorize issues a token letting a parent manage a child's screen time
func (h *FamilyControlsHandler) Authorize(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	if callerID == "" {
		fcError(c, http.StatusUnauthorized, models.CodeAuthorization, "Authentication required")
		return
	}

	var req models.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	role, err := middleware.GetMemberRole(h.DB, req.FamilyID, callerID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeAuthorization, "Failed to check role")
		return
	}
	if role == models.RoleChild {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Children cannot issue authorizations")
		return
	}

	token, err := h.FC.Authorize(req)
	if err != nil {
		h.Log.WithError(err).Error("family controls authorize failed")
		fcError(c, http.StatusInternalServerError, models.CodeAuthorization, "Failed to issue authorization")
		return
	}

	c.JSON(http.StatusCreated, token)
}

// GetAccountStatus reports whether a user is authorized in a family
func (h *FamilyControlsHandler) GetAccountStatus(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	userID := c.Query("user_id")
	familyID := c.Query("family_id")
	if userID == "" || familyID == "" {
		fcError(c, http.StatusBadRequest, models.CodeValidation, "user_id and family_id are required")
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	acct, err := h.FC.AccountStatus(userID, familyID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to check account status")
		return
	}

	c.JSON(http.StatusOK, acct)
}

// CheckToken reports existence and validity without consuming anything
func (h *FamilyControlsHandler) CheckToken(c *gin.Context) {
	tokenValue := c.Param("token")

	token, err := h.FC.Validate(tokenValue)
	switch {
	case errors.Is(err, services.ErrTokenNotFound):
		c.JSON(http.StatusOK, gin.H{"exists": false, "valid": false})
	case errors.Is(err, services.ErrTokenExpired), errors.Is(err, services.ErrTokenRevoked):
		c.JSON(http.StatusOK, gin.H{"exists": true, "valid": false, "expires_at": token.ExpiresAt})
	case err != nil:
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to check token")
	default:
		c.JSON(http.StatusOK, gin.H{"exists": true, "valid": true, "expires_at": token.ExpiresAt})
	}
}

// ValidateToken validates a token, stamping last_validated_at on success
func (h *FamilyControlsHandler) ValidateToken(c *gin.Context) {
	tokenValue := c.Param("token")

	token, err := h.FC.Validate(tokenValue)
	switch {
	case errors.Is(err, services.ErrTokenNotFound):
		fcError(c, http.StatusNotFound, models.CodeTokenNotFound, "Token not found")
	case errors.Is(err, services.ErrTokenExpired):
		fcError(c, http.StatusUnauthorized, models.CodeTokenExpired, "Token has expired")
	case errors.Is(err, services.ErrTokenRevoked):
		fcError(c, http.StatusUnauthorized, models.CodeTokenRevoked, "Token has been revoked")
	case err != nil:
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to validate token")
	default:
		c.JSON(http.StatusOK, gin.H{"valid": true, "token": token})
	}
}

// RevokeToken revokes a token; revoking twice fails
func (h *FamilyControlsHandler) RevokeToken(c *gin.Context) {
	tokenValue := c.Param("token")

	var req models.RevokeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}

	token, err := h.FC.Revoke(tokenValue, req)
	switch {
	case errors.Is(err, services.ErrTokenNotFound):
		fcError(c, http.StatusNotFound, models.CodeTokenRevoke, "Token not found")
	case errors.Is(err, services.ErrTokenRevoked):
		fcError(c, http.StatusConflict, models.CodeTokenRevoke, "Token is already revoked")
	case err != nil:
		fcError(c, http.StatusInternalServerError, models.CodeTokenRevoke, "Failed to revoke token")
	default:
		c.JSON(http.StatusOK, token)
	}
}

// RenewToken extends a token's expiry
func (h *FamilyControlsHandler) RenewToken(c *gin.Context) {
	tokenValue := c.Param("token")

	var req models.RenewTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}

	token, err := h.FC.Renew(tokenValue, req.ExtendDays)
	switch {
	case errors.Is(err, services.ErrTokenNotFound):
		fcError(c, http.StatusNotFound, models.CodeTokenRenew, "Token not found")
	case errors.Is(err, services.ErrTokenRevoked):
		fcError(c, http.StatusConflict, models.CodeTokenRenew, "Revoked tokens cannot be renewed")
	case err != nil:
		fcError(c, http.StatusInternalServerError, models.CodeTokenRenew, "Failed to renew token")
	default:
		c.JSON(http.StatusOK, token)
	}
}

// ListTokens lists a family's tokens, optionally filtered by target user
func (h *FamilyControlsHandler) ListTokens(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	familyID := c.Query("family_id")
	if familyID == "" {
		fcError(c, http.StatusBadRequest, models.CodeValidation, "family_id is required")
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	tokens, err := h.FC.ListTokens(familyID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to list tokens")
		return
	}

	if userID := c.Query("user_id"); userID != "" {
		filtered := tokens[:0]
		for _, t := range tokens {
			if t.TargetUserID == userID {
				filtered = append(filtered, t)
			}
		}
		tokens = filtered
	}

	c.JSON(http.StatusOK, tokens)
}

// CleanupTokens deletes expired tokens for a family
func (h *FamilyControlsHandler) CleanupTokens(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var req struct {
		FamilyID string `json:"family_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	removed, err := h.FC.CleanupExpired(req.FamilyID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to clean up tokens")
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// RecordScreenTime upserts one day's usage
func (h *FamilyControlsHandler) RecordScreenTime(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var req models.RecordScreenTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}
	if _, err := time.Parse("2006-01-02", req.RecordDate); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, "record_date must be YYYY-MM-DD")
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	rec, err := h.FC.RecordScreenTime(req)
	if err != nil {
		h.Log.WithError(err).Error("failed to record screen time")
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to record screen time")
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// GetScreenTimeHistory returns records for a user and date range
func (h *FamilyControlsHandler) GetScreenTimeHistory(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	userID := c.Query("user_id")
	familyID := c.Query("family_id")
	if userID == "" || familyID == "" {
		fcError(c, http.StatusBadRequest, models.CodeValidation, "user_id and family_id are required")
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			fcError(c, http.StatusBadRequest, models.CodeValidation, "from must be YYYY-MM-DD")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			fcError(c, http.StatusBadRequest, models.CodeValidation, "to must be YYYY-MM-DD")
			return
		}
	}

	records, err := h.FC.ScreenTimeHistory(userID, familyID, from, to)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to fetch screen time history")
		return
	}

	c.JSON(http.StatusOK, records)
}

// UpsertPolicy creates or replaces a device control policy
func (h *FamilyControlsHandler) UpsertPolicy(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var req models.UpsertPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fcError(c, http.StatusBadRequest, models.CodeValidation, err.Error())
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	policy, err := h.FC.UpsertPolicy(req, callerID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to save policy")
		return
	}

	c.JSON(http.StatusOK, policy)
}

// ListPolicies lists a family's device policies
func (h *FamilyControlsHandler) ListPolicies(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	familyID := c.Query("family_id")
	if familyID == "" {
		fcError(c, http.StatusBadRequest, models.CodeValidation, "family_id is required")
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	policies, err := h.FC.ListPolicies(familyID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to list policies")
		return
	}

	c.JSON(http.StatusOK, policies)
}

// GetStats aggregates family-controls counters for a family
func (h *FamilyControlsHandler) GetStats(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	familyID := c.Param("familyId")
	if familyID == "" {
		familyID = c.Query("family_id")
	}
	if familyID == "" {
		fcError(c, http.StatusBadRequest, models.CodeValidation, "family_id is required")
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, callerID)
	if err != nil || !isMember {
		fcError(c, http.StatusForbidden, models.CodeAuthorization, "Access denied")
		return
	}

	stats, err := h.FC.Stats(familyID)
	if err != nil {
		fcError(c, http.StatusInternalServerError, models.CodeTokenCheck, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
