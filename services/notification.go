package services

import (
	"database/sql"

	"github.com/sirupsen/logrus"
)

// NotificationService creates notification rows and counts unread ones.
type NotificationService struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewNotificationService(db *sql.DB, log *logrus.Logger) *NotificationService {
	return &NotificationService{db: db, log: log}
}

// FanOut creates one notification per family member except the actor.
// Members are written sequentially; a failed insert is logged and skipped,
// earlier inserts are not rolled back.
func (s *NotificationService) FanOut(familyID, actorID, notifType, title, body string) {
	rows, err := s.db.Query(`
		SELECT user_id FROM family_members
		WHERE family_id = $1 AND user_id != $2
	`, familyID, actorID)
	if err != nil {
		s.log.WithError(err).Warn("notification fan-out: failed to load members")
		return
	}
	defer rows.Close()

	var memberIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		memberIDs = append(memberIDs, id)
	}

	for _, memberID := range memberIDs {
		_, err := s.db.Exec(`
			INSERT INTO notifications (family_id, user_id, type, title, body)
			VALUES ($1, $2, $3, $4, $5)
		`, familyID, memberID, notifType, title, body)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"family_id": familyID,
				"user_id":   memberID,
			}).Warn("notification fan-out: insert failed")
		}
	}
}

// UnreadCount returns the number of unread notifications for a user
func (s *NotificationService) UnreadCount(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}
