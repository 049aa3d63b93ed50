package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/utils"
)

type FamilyHandler struct {
	DB *sql.DB
}

// CreateFamily creates a family and adds the creator as admin
func (h *FamilyHandler) CreateFamily(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var familyID string
	err := utils.WithTransaction(h.DB, func(tx *sql.Tx) error {
		if err := tx.QueryRow(`
			INSERT INTO families (name, mantra, family_values, created_by)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, req.Name, req.Mantra, pq.Array(req.Values), userID).Scan(&familyID); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO family_members (family_id, user_id, role)
			VALUES ($1, $2, 'admin')
		`, familyID, userID)
		return err
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create family"})
		return
	}

	c.JSON(http.StatusCreated, models.Family{
		ID:        familyID,
		Name:      req.Name,
		Mantra:    req.Mantra,
		Values:    req.Values,
		CreatedBy: userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
}

// GetFamilies returns all families the user belongs to
func (h *FamilyHandler) GetFamilies(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT f.id, f.name, f.mantra, f.family_values, f.created_by, f.created_at, f.updated_at
		FROM families f
		INNER JOIN family_members fm ON f.id = fm.family_id
		WHERE fm.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch families"})
		return
	}
	defer rows.Close()

	families := []models.Family{}
	for rows.Next() {
		var f models.Family
		var createdBy sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &f.Mantra, pq.Array(&f.Values),
			&createdBy, &f.CreatedAt, &f.UpdatedAt); err != nil {
			continue
		}
		f.CreatedBy = createdBy.String
		families = append(families, f)
	}

	c.JSON(http.StatusOK, families)
}

// GetFamily returns a single family with its members
func (h *FamilyHandler) GetFamily(c *gin.Context) {
	familyID := c.Param("id")

	var f models.Family
	var createdBy sql.NullString
	err := h.DB.QueryRow(`
		SELECT id, name, mantra, family_values, created_by, created_at, updated_at
		FROM families
		WHERE id = $1
	`, familyID).Scan(&f.ID, &f.Name, &f.Mantra, pq.Array(&f.Values),
		&createdBy, &f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Family not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	f.CreatedBy = createdBy.String

	members, err := h.getMembers(familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}
	f.Members = members

	c.JSON(http.StatusOK, f)
}

// UpdateFamily updates name, mantra and values (admin only)
func (h *FamilyHandler) UpdateFamily(c *gin.Context) {
	userID := middleware.GetUserID(c)
	familyID := c.Param("id")

	role, err := middleware.GetMemberRole(h.DB, familyID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can update the family"})
		return
	}

	var req models.UpdateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = h.DB.Exec(`
		UPDATE families
		SET name = COALESCE(NULLIF($1, ''), name),
		    mantra = $2,
		    family_values = $3,
		    updated_at = $4
		WHERE id = $5
	`, req.Name, req.Mantra, pq.Array(req.Values), time.Now(), familyID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update family"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Family updated"})
}

// GetMembers lists the members of a family
func (h *FamilyHandler) GetMembers(c *gin.Context) {
	familyID := c.Param("id")

	members, err := h.getMembers(familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

// RemoveMember removes a member from the family (admin only, not self)
func (h *FamilyHandler) RemoveMember(c *gin.Context) {
	userID := middleware.GetUserID(c)
	familyID := c.Param("id")
	memberID := c.Param("member_id")

	role, err := middleware.GetMemberRole(h.DB, familyID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can remove members"})
		return
	}

	if memberID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot remove themselves"})
		return
	}

	result, err := h.DB.Exec(`
		DELETE FROM family_members
		WHERE family_id = $1 AND user_id = $2
	`, familyID, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *FamilyHandler) getMembers(familyID string) ([]models.FamilyMember, error) {
	rows, err := h.DB.Query(`
		SELECT fm.id, fm.family_id, fm.user_id, fm.role, fm.relationship, fm.joined_at,
		       u.first_name || ' ' || u.last_name, u.email, COALESCE(u.avatar, '')
		FROM family_members fm
		JOIN users u ON fm.user_id = u.id
		WHERE fm.family_id = $1
		ORDER BY fm.joined_at
	`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.Relationship,
			&m.JoinedAt, &m.UserName, &m.UserEmail, &m.Avatar); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, nil
}
