package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
)

type CalendarHandler struct {
	DB *sql.DB
	WS *WSHandler
}

// CreateEvent adds an event to the family calendar
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var event models.CalendarEvent
	err = h.DB.QueryRow(`
		INSERT INTO calendar_events (family_id, title, description, location, starts_at, ends_at,
		                             all_day, recurrence, attendees, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, family_id, title, description, location, starts_at, ends_at, all_day,
		          recurrence, attendees, created_by, created_at, updated_at
	`, req.FamilyID, req.Title, req.Description, req.Location, req.StartsAt, req.EndsAt,
		req.AllDay, req.Recurrence, pq.Array(req.Attendees), userID).Scan(
		&event.ID, &event.FamilyID, &event.Title, &event.Description, &event.Location,
		&event.StartsAt, &event.EndsAt, &event.AllDay, &event.Recurrence,
		pq.Array(&event.Attendees), &event.CreatedBy, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	h.WS.Broadcast(event.FamilyID, "calendar:created", event)
	c.JSON(http.StatusCreated, event)
}

// GetEvents lists events for a family, optionally bounded by from/to
func (h *CalendarHandler) GetEvents(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	query := `
		SELECT id, family_id, title, description, location, starts_at, ends_at, all_day,
		       recurrence, attendees, created_by, created_at, updated_at
		FROM calendar_events
		WHERE family_id = $1`
	args := []interface{}{familyID}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			args = append(args, t)
			query += " AND starts_at >= $2"
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			args = append(args, t)
			if len(args) == 3 {
				query += " AND starts_at <= $3"
			} else {
				query += " AND starts_at <= $2"
			}
		}
	}
	query += " ORDER BY starts_at"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}
	defer rows.Close()

	events := []models.CalendarEvent{}
	for rows.Next() {
		var event models.CalendarEvent
		var createdBy sql.NullString
		if err := rows.Scan(&event.ID, &event.FamilyID, &event.Title, &event.Description,
			&event.Location, &event.StartsAt, &event.EndsAt, &event.AllDay, &event.Recurrence,
			pq.Array(&event.Attendees), &createdBy, &event.CreatedAt, &event.UpdatedAt); err != nil {
			continue
		}
		event.CreatedBy = createdBy.String
		events = append(events, event)
	}

	c.JSON(http.StatusOK, events)
}

// UpdateEvent updates an event's fields
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	userID := middleware.GetUserID(c)
	eventID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM calendar_events WHERE id = $1`, eventID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
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

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = h.DB.Exec(`
		UPDATE calendar_events
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    location = COALESCE($3, location),
		    starts_at = COALESCE($4, starts_at),
		    ends_at = COALESCE($5, ends_at),
		    all_day = COALESCE($6, all_day),
		    recurrence = COALESCE($7, recurrence),
		    attendees = COALESCE($8, attendees),
		    updated_at = $9
		WHERE id = $10
	`, req.Title, req.Description, req.Location, req.StartsAt, req.EndsAt,
		req.AllDay, req.Recurrence, attendeesOrNil(req.Attendees), time.Now(), eventID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	h.WS.Broadcast(familyID, "calendar:updated", gin.H{"id": eventID})
	c.JSON(http.StatusOK, gin.H{"message": "Event updated"})
}

// DeleteEvent removes an event
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	userID := middleware.GetUserID(c)
	eventID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM calendar_events WHERE id = $1`, eventID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
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

	if _, err := h.DB.Exec(`DELETE FROM calendar_events WHERE id = $1`, eventID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	h.WS.Broadcast(familyID, "calendar:deleted", gin.H{"id": eventID})
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

func attendeesOrNil(attendees []string) interface{} {
	if attendees == nil {
		return nil
	}
	return pq.Array(attendees)
}
