package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/middleware"
)

type DashboardHandler struct {
	DB  *sql.DB
	Log *logrus.Logger
}

type dashboardSummary struct {
	OpenTasks           int `json:"open_tasks"`
	OpenGigs            int `json:"open_gigs"`
	UpcomingEvents      int `json:"upcoming_events"`
	UnreadNotifications int `json:"unread_notifications"`
	PendingInvitations  int `json:"pending_invitations"`
	ShoppingItemsLeft   int `json:"shopping_items_left"`
	PendingApprovals    int `json:"pending_approvals"`
}

// GetSummary returns counters for the family dashboard. Each counter
// is computed independently; a failing one logs and reports zero
// rather than failing the whole response.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID := middleware.GetUserID(c)
	familyID := c.GetString(middleware.ContextFamilyID)

	var s dashboardSummary
	queries := []struct {
		name string
		dst  *int
		sql  string
		args []interface{}
	}{
		{"open_tasks", &s.OpenTasks,
			`SELECT COUNT(*) FROM tasks WHERE family_id = $1 AND status != 'completed'`,
			[]interface{}{familyID}},
		{"open_gigs", &s.OpenGigs,
			`SELECT COUNT(*) FROM gigs WHERE family_id = $1 AND status = 'open'`,
			[]interface{}{familyID}},
		{"upcoming_events", &s.UpcomingEvents,
			`SELECT COUNT(*) FROM calendar_events
			 WHERE family_id = $1 AND starts_at >= NOW() AND starts_at < NOW() + INTERVAL '7 days'`,
			[]interface{}{familyID}},
		{"unread_notifications", &s.UnreadNotifications,
			`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`,
			[]interface{}{userID}},
		{"pending_invitations", &s.PendingInvitations,
			`SELECT COUNT(*) FROM invitations WHERE family_id = $1 AND expires_at > NOW()`,
			[]interface{}{familyID}},
		{"shopping_items_left", &s.ShoppingItemsLeft,
			`SELECT COUNT(*) FROM shopping_items i
			 JOIN shopping_lists l ON l.id = i.list_id
			 WHERE l.family_id = $1 AND i.completed = false`,
			[]interface{}{familyID}},
		{"pending_approvals", &s.PendingApprovals,
			`SELECT COUNT(*) FROM tasks WHERE family_id = $1 AND approval_status = 'pending'`,
			[]interface{}{familyID}},
	}

	for _, q := range queries {
		if err := h.DB.QueryRow(q.sql, q.args...).Scan(q.dst); err != nil {
			h.Log.WithFields(logrus.Fields{
				"counter":   q.name,
				"family_id": familyID,
			}).WithError(err).Warn("dashboard counter failed")
		}
	}

	c.JSON(http.StatusOK, s)
}
