package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/utils"
)

// Validation outcomes for an authorization token. Each maps to a
// distinct client-facing error code, so they stay separate errors
// instead of one "invalid token" bucket.
var (
	ErrTokenNotFound = errors.New("authorization token not found")
	ErrTokenExpired  = errors.New("authorization token expired")
	ErrTokenRevoked  = errors.New("authorization token revoked")
)

const defaultTokenTTLDays = 30

type FamilyControlsService struct {
	DB  *sql.DB
	Log *logrus.Logger
}

func NewFamilyControlsService(db *sql.DB, log *logrus.Logger) *FamilyControlsService {
	return &FamilyControlsService{DB: db, Log: log}
}

// Authorize issues a parental-control token for a target user and marks
// the target's account as authorized. Both writes happen in one
// transaction so a token never exists without its account flag.
func (s *FamilyControlsService) Authorize(req models.AuthorizeRequest) (*models.AuthorizationToken, error) {
	days := req.ExpiresInDays
	if days <= 0 {
		days = defaultTokenTTLDays
	}
	expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	tokenValue, err := utils.GenerateToken()
	if err != nil {
		return nil, err
	}

	var token models.AuthorizationToken
	err = utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO fc_accounts (user_id, family_id, authorized)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (user_id, family_id)
			DO UPDATE SET authorized = TRUE, updated_at = NOW()
		`, req.TargetUserID, req.FamilyID)
		if err != nil {
			return err
		}

		return tx.QueryRow(`
			INSERT INTO fc_authorization_tokens (token, user_id, target_user_id, family_id, scopes, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, token, user_id, target_user_id, family_id, scopes, expires_at, created_at
		`, tokenValue, req.UserID, req.TargetUserID, req.FamilyID, pq.Array(req.Scopes), expiresAt).Scan(
			&token.ID, &token.Token, &token.UserID, &token.TargetUserID,
			&token.FamilyID, pq.Array(&token.Scopes), &token.ExpiresAt, &token.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"family_id":      req.FamilyID,
		"target_user_id": req.TargetUserID,
		"expires_at":     expiresAt,
	}).Info("family controls authorization issued")

	return &token, nil
}

// AccountStatus reports whether a user has an authorized account in the family
func (s *FamilyControlsService) AccountStatus(userID, familyID string) (*models.FamilyControlsAccount, error) {
	var acct models.FamilyControlsAccount
	err := s.DB.QueryRow(`
		SELECT id, user_id, family_id, authorized, created_at, updated_at
		FROM fc_accounts
		WHERE user_id = $1 AND family_id = $2
	`, userID, familyID).Scan(&acct.ID, &acct.UserID, &acct.FamilyID,
		&acct.Authorized, &acct.CreatedAt, &acct.UpdatedAt)
	if err == sql.ErrNoRows {
		// never authorized; report unauthorized rather than an error
		return &models.FamilyControlsAccount{UserID: userID, FamilyID: familyID, Authorized: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Validate checks a token value and stamps last_validated_at on success.
// It distinguishes not-found, expired and revoked.
func (s *FamilyControlsService) Validate(tokenValue string) (*models.AuthorizationToken, error) {
	token, err := s.loadToken(tokenValue)
	if err != nil {
		return nil, err
	}

	if token.RevokedAt != nil {
		return token, ErrTokenRevoked
	}
	if time.Now().After(token.ExpiresAt) {
		return token, ErrTokenExpired
	}

	now := time.Now()
	if _, err := s.DB.Exec(`
		UPDATE fc_authorization_tokens SET last_validated_at = $1 WHERE id = $2
	`, now, token.ID); err != nil {
		// stale stamp is acceptable, the token itself checked out
		s.Log.WithError(err).Warn("failed to stamp token validation time")
	} else {
		token.LastValidatedAt = &now
	}

	return token, nil
}

// Revoke marks a token revoked. Revoking an already revoked token is an error.
func (s *FamilyControlsService) Revoke(tokenValue string, req models.RevokeTokenRequest) (*models.AuthorizationToken, error) {
	token, err := s.loadToken(tokenValue)
	if err != nil {
		return nil, err
	}
	if token.RevokedAt != nil {
		return token, ErrTokenRevoked
	}

	now := time.Now()
	_, err = s.DB.Exec(`
		UPDATE fc_authorization_tokens
		SET revoked_at = $1, revoked_by = $2, revoke_reason = $3
		WHERE id = $4
	`, now, req.RevokedBy, req.Reason, token.ID)
	if err != nil {
		return nil, err
	}

	token.RevokedAt = &now
	token.RevokedBy = req.RevokedBy
	token.RevokeReason = req.Reason

	s.Log.WithFields(logrus.Fields{
		"token_id":   token.ID,
		"revoked_by": req.RevokedBy,
	}).Info("family controls token revoked")

	return token, nil
}

// Renew extends a token's expiry from its current expiry (or from now if
// already lapsed). Revoked tokens cannot be renewed.
func (s *FamilyControlsService) Renew(tokenValue string, extendDays int) (*models.AuthorizationToken, error) {
	token, err := s.loadToken(tokenValue)
	if err != nil {
		return nil, err
	}
	if token.RevokedAt != nil {
		return token, ErrTokenRevoked
	}

	base := token.ExpiresAt
	if base.Before(time.Now()) {
		base = time.Now()
	}
	newExpiry := base.Add(time.Duration(extendDays) * 24 * time.Hour)

	if _, err := s.DB.Exec(`
		UPDATE fc_authorization_tokens SET expires_at = $1 WHERE id = $2
	`, newExpiry, token.ID); err != nil {
		return nil, err
	}

	token.ExpiresAt = newExpiry
	return token, nil
}

// ListTokens returns every token issued within a family, newest first
func (s *FamilyControlsService) ListTokens(familyID string) ([]models.AuthorizationToken, error) {
	rows, err := s.DB.Query(`
		SELECT id, token, user_id, target_user_id, family_id, scopes,
		       expires_at, revoked_at, revoked_by, revoke_reason, last_validated_at, created_at
		FROM fc_authorization_tokens
		WHERE family_id = $1
		ORDER BY created_at DESC
	`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []models.AuthorizationToken{}
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *token)
	}
	return tokens, rows.Err()
}

// CleanupExpired deletes tokens past their expiry or already revoked,
// returning the count removed
func (s *FamilyControlsService) CleanupExpired(familyID string) (int64, error) {
	res, err := s.DB.Exec(`
		DELETE FROM fc_authorization_tokens
		WHERE family_id = $1 AND (expires_at < NOW() OR revoked_at IS NOT NULL)
	`, familyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordScreenTime upserts one day's usage for a user
func (s *FamilyControlsService) RecordScreenTime(req models.RecordScreenTimeRequest) (*models.ScreenTimeRecord, error) {
	appBreakdown := req.AppBreakdown
	if len(appBreakdown) == 0 {
		appBreakdown = []byte("{}")
	}
	categoryBreakdown := req.CategoryBreakdown
	if len(categoryBreakdown) == 0 {
		categoryBreakdown = []byte("{}")
	}

	var rec models.ScreenTimeRecord
	var recordDate time.Time
	err := s.DB.QueryRow(`
		INSERT INTO fc_screen_time_records (user_id, family_id, record_date, total_minutes, app_breakdown, category_breakdown)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, family_id, record_date)
		DO UPDATE SET total_minutes = EXCLUDED.total_minutes,
		              app_breakdown = EXCLUDED.app_breakdown,
		              category_breakdown = EXCLUDED.category_breakdown
		RETURNING id, user_id, family_id, record_date, total_minutes, app_breakdown, category_breakdown, created_at
	`, req.UserID, req.FamilyID, req.RecordDate, req.TotalMinutes,
		[]byte(appBreakdown), []byte(categoryBreakdown)).Scan(
		&rec.ID, &rec.UserID, &rec.FamilyID, &recordDate, &rec.TotalMinutes,
		&rec.AppBreakdown, &rec.CategoryBreakdown, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.RecordDate = recordDate.Format("2006-01-02")
	return &rec, nil
}

// ScreenTimeHistory returns a user's records for [from, to], newest first
func (s *FamilyControlsService) ScreenTimeHistory(userID, familyID string, from, to time.Time) ([]models.ScreenTimeRecord, error) {
	rows, err := s.DB.Query(`
		SELECT id, user_id, family_id, record_date, total_minutes, app_breakdown, category_breakdown, created_at
		FROM fc_screen_time_records
		WHERE user_id = $1 AND family_id = $2 AND record_date >= $3 AND record_date <= $4
		ORDER BY record_date DESC
	`, userID, familyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ScreenTimeRecord{}
	for rows.Next() {
		var rec models.ScreenTimeRecord
		var recordDate time.Time
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FamilyID, &recordDate,
			&rec.TotalMinutes, &rec.AppBreakdown, &rec.CategoryBreakdown, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.RecordDate = recordDate.Format("2006-01-02")
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertPolicy creates or replaces the device policy for (family, device)
func (s *FamilyControlsService) UpsertPolicy(req models.UpsertPolicyRequest, updatedBy string) (*models.DeviceControlPolicy, error) {
	restrictions := req.ContentRestrictions
	if len(restrictions) == 0 {
		restrictions = []byte("{}")
	}

	var policy models.DeviceControlPolicy
	err := s.DB.QueryRow(`
		INSERT INTO fc_device_policies (family_id, device_id, blocked_apps, content_restrictions, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (family_id, device_id)
		DO UPDATE SET blocked_apps = EXCLUDED.blocked_apps,
		              content_restrictions = EXCLUDED.content_restrictions,
		              updated_by = EXCLUDED.updated_by,
		              updated_at = NOW()
		RETURNING id, family_id, device_id, blocked_apps, content_restrictions, updated_by, created_at, updated_at
	`, req.FamilyID, req.DeviceID, pq.Array(req.BlockedApps), []byte(restrictions), updatedBy).Scan(
		&policy.ID, &policy.FamilyID, &policy.DeviceID, pq.Array(&policy.BlockedApps),
		&policy.ContentRestrictions, &policy.UpdatedBy, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListPolicies returns a family's device policies
func (s *FamilyControlsService) ListPolicies(familyID string) ([]models.DeviceControlPolicy, error) {
	rows, err := s.DB.Query(`
		SELECT id, family_id, device_id, blocked_apps, content_restrictions, updated_by, created_at, updated_at
		FROM fc_device_policies
		WHERE family_id = $1
		ORDER BY device_id
	`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := []models.DeviceControlPolicy{}
	for rows.Next() {
		var p models.DeviceControlPolicy
		var updatedBy sql.NullString
		if err := rows.Scan(&p.ID, &p.FamilyID, &p.DeviceID, pq.Array(&p.BlockedApps),
			&p.ContentRestrictions, &updatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.UpdatedBy = updatedBy.String
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// Stats aggregates token and screen-time counters for a family
func (s *FamilyControlsService) Stats(familyID string) (*models.FamilyControlsStats, error) {
	stats := &models.FamilyControlsStats{FamilyID: familyID}

	err := s.DB.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE revoked_at IS NULL AND expires_at > NOW()),
			COUNT(*) FILTER (WHERE revoked_at IS NULL AND expires_at <= NOW()),
			COUNT(*) FILTER (WHERE revoked_at IS NOT NULL)
		FROM fc_authorization_tokens
		WHERE family_id = $1
	`, familyID).Scan(&stats.ActiveTokens, &stats.ExpiredTokens, &stats.RevokedTokens)
	if err != nil {
		return nil, err
	}

	err = s.DB.QueryRow(`
		SELECT COALESCE(SUM(total_minutes), 0)
		FROM fc_screen_time_records
		WHERE family_id = $1
	`, familyID).Scan(&stats.TotalScreenTimeMin)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *FamilyControlsService) loadToken(tokenValue string) (*models.AuthorizationToken, error) {
	row := s.DB.QueryRow(`
		SELECT id, token, user_id, target_user_id, family_id, scopes,
		       expires_at, revoked_at, revoked_by, revoke_reason, last_validated_at, created_at
		FROM fc_authorization_tokens
		WHERE token = $1
	`, tokenValue)
	token, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	return token, err
}

type tokenScanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row tokenScanner) (*models.AuthorizationToken, error) {
	var token models.AuthorizationToken
	var revokedAt, lastValidatedAt sql.NullTime
	var revokedBy, revokeReason sql.NullString
	err := row.Scan(&token.ID, &token.Token, &token.UserID, &token.TargetUserID,
		&token.FamilyID, pq.Array(&token.Scopes), &token.ExpiresAt,
		&revokedAt, &revokedBy, &revokeReason, &lastValidatedAt, &token.CreatedAt)
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	if lastValidatedAt.Valid {
		token.LastValidatedAt = &lastValidatedAt.Time
	}
	token.RevokedBy = revokedBy.String
	token.RevokeReason = revokeReason.String
	return &token, nil
}
