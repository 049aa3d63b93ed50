package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
)

type WishlistHandler struct {
	DB *sql.DB
}

// GetWishlist returns a member's wishlist, creating the owner's lazily.
// Reservations are hidden from the list owner so gifts stay a surprise.
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID := middleware.GetUserID(c)
	familyID := c.GetString(middleware.ContextFamilyID)

	ownerID := c.Query("user_id")
	if ownerID == "" {
		ownerID = userID
	}

	if ownerID != userID {
		isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, ownerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if !isMember {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wishlist not found"})
			return
		}
	}

	list, err := h.ensureWishlist(familyID, ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wishlist"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, wishlist_id, name, url, price, priority, reserved_by, created_at
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY priority DESC, created_at
	`, list.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var item models.WishlistItem
		var reservedBy sql.NullString
		if err := rows.Scan(&item.ID, &item.WishlistID, &item.Name, &item.URL,
			&item.Price, &item.Priority, &reservedBy, &item.CreatedAt); err != nil {
			continue
		}
		if ownerID != userID {
			item.ReservedBy = reservedBy.String
		}
		items = append(items, item)
	}
	list.Items = items

	c.JSON(http.StatusOK, list)
}

// AddItem adds an item to the caller's own wishlist
func (h *WishlistHandler) AddItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	familyID := c.GetString(middleware.ContextFamilyID)

	var req models.CreateWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.ensureWishlist(familyID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wishlist"})
		return
	}

	var item models.WishlistItem
	err = h.DB.QueryRow(`
		INSERT INTO wishlist_items (wishlist_id, name, url, price, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, wishlist_id, name, url, price, priority, created_at
	`, list.ID, req.Name, req.URL, req.Price, req.Priority).Scan(
		&item.ID, &item.WishlistID, &item.Name, &item.URL,
		&item.Price, &item.Priority, &item.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// DeleteItem removes an item from the caller's own wishlist
func (h *WishlistHandler) DeleteItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID := c.Param("id")

	ownerID, _, err := h.itemOwner(itemID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if ownerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the list owner can remove items"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM wishlist_items WHERE id = $1`, itemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// ReserveItem marks an item as being bought by the caller
func (h *WishlistHandler) ReserveItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID := c.Param("id")

	ownerID, familyID, err := h.itemOwner(itemID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if ownerID == userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot reserve items on your own wishlist"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	res, err := h.DB.Exec(`
		UPDATE wishlist_items
		SET reserved_by = $1
		WHERE id = $2 AND reserved_by IS NULL
	`, userID, itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reserve item"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Item is already reserved"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item reserved"})
}

// UnreserveItem releases a reservation held by the caller
func (h *WishlistHandler) UnreserveItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID := c.Param("id")

	res, err := h.DB.Exec(`
		UPDATE wishlist_items
		SET reserved_by = NULL
		WHERE id = $1 AND reserved_by = $2
	`, itemID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release reservation"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No reservation held on that item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation released"})
}

func (h *WishlistHandler) ensureWishlist(familyID, userID string) (models.Wishlist, error) {
	var list models.Wishlist
	err := h.DB.QueryRow(`
		INSERT INTO wishlists (family_id, user_id, name)
		VALUES ($1, $2, 'Wishlist')
		ON CONFLICT (family_id, user_id) DO UPDATE SET name = wishlists.name
		RETURNING id, family_id, user_id, name, created_at
	`, familyID, userID).Scan(&list.ID, &list.FamilyID, &list.UserID, &list.Name, &list.CreatedAt)
	return list, err
}

func (h *WishlistHandler) itemOwner(itemID string) (ownerID, familyID string, err error) {
	err = h.DB.QueryRow(`
		SELECT w.user_id, w.family_id
		FROM wishlist_items i
		JOIN wishlists w ON w.id = i.wishlist_id
		WHERE i.id = $1
	`, itemID).Scan(&ownerID, &familyID)
	return ownerID, familyID, err
}
