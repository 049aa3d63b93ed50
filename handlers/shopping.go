package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/services"
)

type ShoppingHandler struct {
	DB       *sql.DB
	Shopping *services.ShoppingService
	WS       *WSHandler
}

// CreateList creates a shopping list for a family
func (h *ShoppingHandler) CreateList(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateShoppingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var list models.ShoppingList
	err = h.DB.QueryRow(`
		INSERT INTO shopping_lists (family_id, name, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, family_id, name, created_by, created_at, updated_at
	`, req.FamilyID, req.Name, userID).Scan(
		&list.ID, &list.FamilyID, &list.Name, &list.CreatedBy, &list.CreatedAt, &list.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shopping list"})
		return
	}

	c.JSON(http.StatusCreated, list)
}

// GetLists lists a family's shopping lists
func (h *ShoppingHandler) GetLists(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	rows, err := h.DB.Query(`
		SELECT id, family_id, name, created_by, created_at, updated_at
		FROM shopping_lists
		WHERE family_id = $1
		ORDER BY created_at DESC
	`, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shopping lists"})
		return
	}
	defer rows.Close()

	lists := []models.ShoppingList{}
	for rows.Next() {
		var list models.ShoppingList
		var createdBy sql.NullString
		if err := rows.Scan(&list.ID, &list.FamilyID, &list.Name, &createdBy,
			&list.CreatedAt, &list.UpdatedAt); err != nil {
			continue
		}
		list.CreatedBy = createdBy.String
		lists = append(lists, list)
	}

	c.JSON(http.StatusOK, lists)
}

// GetList returns one list with its items
func (h *ShoppingHandler) GetList(c *gin.Context) {
	userID := middleware.GetUserID(c)
	listID := c.Param("id")

	list, err := h.loadList(listID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shopping list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, list.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, list_id, name, quantity, unit, completed, added_by, created_at, updated_at
		FROM shopping_items
		WHERE list_id = $1
		ORDER BY created_at
	`, listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}
	defer rows.Close()

	items := []models.ShoppingItem{}
	for rows.Next() {
		var item models.ShoppingItem
		var addedBy sql.NullString
		if err := rows.Scan(&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Unit,
			&item.Completed, &addedBy, &item.CreatedAt, &item.UpdatedAt); err != nil {
			continue
		}
		item.AddedBy = addedBy.String
		items = append(items, item)
	}
	list.Items = items

	c.JSON(http.StatusOK, list)
}

// DeleteList removes a list and its items
func (h *ShoppingHandler) DeleteList(c *gin.Context) {
	userID := middleware.GetUserID(c)
	listID := c.Param("id")

	list, err := h.loadList(listID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shopping list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, list.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM shopping_lists WHERE id = $1`, listID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete shopping list"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shopping list deleted"})
}

// CreateItem adds an item to a list
func (h *ShoppingHandler) CreateItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateShoppingItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.loadList(req.ListID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shopping list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, list.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	var item models.ShoppingItem
	err = h.DB.QueryRow(`
		INSERT INTO shopping_items (list_id, name, quantity, unit, added_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, list_id, name, quantity, unit, completed, added_by, created_at, updated_at
	`, req.ListID, req.Name, quantity, req.Unit, userID).Scan(
		&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Unit,
		&item.Completed, &item.AddedBy, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	h.WS.Broadcast(list.FamilyID, "shopping:item_added", item)
	c.JSON(http.StatusCreated, item)
}

// UpdateItem updates an item's fields (including the completed flag)
func (h *ShoppingHandler) UpdateItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID := c.Param("id")

	var listID string
	err := h.DB.QueryRow(`SELECT list_id FROM shopping_items WHERE id = $1`, itemID).Scan(&listID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list, err := h.loadList(listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, list.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req models.UpdateShoppingItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = h.DB.Exec(`
		UPDATE shopping_items
		SET name = COALESCE($1, name),
		    quantity = COALESCE($2, quantity),
		    unit = COALESCE($3, unit),
		    completed = COALESCE($4, completed),
		    updated_at = $5
		WHERE id = $6
	`, req.Name, req.Quantity, req.Unit, req.Completed, time.Now(), itemID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	h.WS.Broadcast(list.FamilyID, "shopping:item_updated", gin.H{"id": itemID})
	c.JSON(http.StatusOK, gin.H{"message": "Item updated"})
}

// DeleteItem removes an item from a list
func (h *ShoppingHandler) DeleteItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID := c.Param("id")

	var listID string
	err := h.DB.QueryRow(`SELECT list_id FROM shopping_items WHERE id = $1`, itemID).Scan(&listID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list, err := h.loadList(listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, list.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM shopping_items WHERE id = $1`, itemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// AggregateMealPlan merges a week's meal-plan ingredients into this list
func (h *ShoppingHandler) AggregateMealPlan(c *gin.Context) {
	userID := middleware.GetUserID(c)
	listID := c.Param("id")

	var req models.AggregateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week_start must be YYYY-MM-DD"})
		return
	}

	list, err := h.loadList(listID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shopping list not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if list.FamilyID != req.FamilyID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shopping list belongs to a different family"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, list.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	merged, err := h.Shopping.AggregateMealPlan(c.Request.Context(), req.FamilyID, listID, weekStart)
	if errors.Is(err, services.ErrNoPlanEntries) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No meal plan entries for that week"})
		return
	}
	if errors.Is(err, services.ErrNoIngredients) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meal plan has no ingredients to aggregate"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate meal plan"})
		return
	}

	h.WS.Broadcast(list.FamilyID, "shopping:aggregated", gin.H{"list_id": listID})
	c.JSON(http.StatusOK, gin.H{
		"message":     "Meal plan aggregated into shopping list",
		"merged":      len(merged),
		"ingredients": merged,
	})
}

func (h *ShoppingHandler) loadList(listID string) (models.ShoppingList, error) {
	var list models.ShoppingList
	var createdBy sql.NullString
	err := h.DB.QueryRow(`
		SELECT id, family_id, name, created_by, created_at, updated_at
		FROM shopping_lists
		WHERE id = $1
	`, listID).Scan(&list.ID, &list.FamilyID, &list.Name, &createdBy, &list.CreatedAt, &list.UpdatedAt)
	list.CreatedBy = createdBy.String
	return list, err
}
