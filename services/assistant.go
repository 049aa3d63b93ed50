package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/utils"
)

// Memory kinds stored in assistant_memories
const (
	MemoryShortTerm    = "short_term"
	MemoryConsolidated = "consolidated"
)

// Short-term memories older than this are eligible for consolidation.
const consolidationAge = 24 * time.Hour

// AssistantService batches per-user short-term assistant memories into
// consolidated summaries. It runs from the hourly cron job, so every
// failure is logged and skipped rather than aborting the sweep.
type AssistantService struct {
	DB  *sql.DB
	Log *logrus.Logger
}

func NewAssistantService(db *sql.DB, log *logrus.Logger) *AssistantService {
	return &AssistantService{DB: db, Log: log}
}

// RememberShortTerm stores a short-term memory for a user
func (s *AssistantService) RememberShortTerm(userID, familyID, content string) error {
	_, err := s.DB.Exec(`
		INSERT INTO assistant_memories (user_id, family_id, kind, content)
		VALUES ($1, $2, $3, $4)
	`, userID, familyID, MemoryShortTerm, content)
	return err
}

// GetMemories returns a user's memories in a family, newest first
func (s *AssistantService) GetMemories(userID, familyID string, limit int) ([]AssistantMemory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(`
		SELECT id, user_id, family_id, kind, content, created_at
		FROM assistant_memories
		WHERE user_id = $1 AND family_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, familyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memories := []AssistantMemory{}
	for rows.Next() {
		var m AssistantMemory
		if err := rows.Scan(&m.ID, &m.UserID, &m.FamilyID, &m.Kind, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

type AssistantMemory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConsolidateAll sweeps every (user, family) pair holding stale
// short-term memories and merges each batch into one consolidated row.
// Returns how many pairs were consolidated.
func (s *AssistantService) ConsolidateAll() (int, error) {
	cutoff := time.Now().Add(-consolidationAge)

	rows, err := s.DB.Query(`
		SELECT DISTINCT user_id, family_id
		FROM assistant_memories
		WHERE kind = $1 AND created_at < $2
	`, MemoryShortTerm, cutoff)
	if err != nil {
		return 0, err
	}

	type pair struct{ userID, familyID string }
	pairs := []pair{}
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.userID, &p.familyID); err != nil {
			rows.Close()
			return 0, err
		}
		pairs = append(pairs, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	consolidated := 0
	for _, p := range pairs {
		if err := s.consolidateUser(p.userID, p.familyID, cutoff); err != nil {
			s.Log.WithFields(logrus.Fields{
				"user_id":   p.userID,
				"family_id": p.familyID,
			}).WithError(err).Warn("memory consolidation failed for user")
			continue
		}
		consolidated++
	}

	if consolidated > 0 {
		s.Log.WithField("users", consolidated).Info("assistant memories consolidated")
	}
	return consolidated, nil
}

func (s *AssistantService) consolidateUser(userID, familyID string, cutoff time.Time) error {
	return utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		rows, err := tx.Query(`
			SELECT id, content FROM assistant_memories
			WHERE user_id = $1 AND family_id = $2 AND kind = $3 AND created_at < $4
			ORDER BY created_at
		`, userID, familyID, MemoryShortTerm, cutoff)
		if err != nil {
			return err
		}

		var ids []string
		var contents []string
		for rows.Next() {
			var id, content string
			if err := rows.Scan(&id, &content); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
			contents = append(contents, content)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		summary := fmt.Sprintf("Consolidated %d memories (%s):\n%s",
			len(ids), time.Now().Format("2006-01-02"), strings.Join(contents, "\n"))

		if _, err := tx.Exec(`
			INSERT INTO assistant_memories (user_id, family_id, kind, content)
			VALUES ($1, $2, $3, $4)
		`, userID, familyID, MemoryConsolidated, summary); err != nil {
			return err
		}

		for _, id := range ids {
			if _, err := tx.Exec(`DELETE FROM assistant_memories WHERE id = $1`, id); err != nil {
				return err
			}
		}
		return nil
	})
}
