package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/services"
)

func fcTestRouter(h *FamilyControlsHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) { c.Set(middleware.ContextUserID, "caller-1"); c.Next() }
	r.POST("/family-controls/tokens/:token/validate", h.ValidateToken)
	r.GET("/family-controls/tokens/:token/status", h.CheckToken)
	r.GET("/family-controls/account", identity, h.GetAccountStatus)
	r.POST("/family-controls/screen-time", identity, h.RecordScreenTime)
	return r
}

func newFCHandler(t *testing.T) (*FamilyControlsHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := &FamilyControlsHandler{DB: db, FC: services.NewFamilyControlsService(db, log), Log: log}
	return h, mock, func() { db.Close() }
}

func fcTokenRows(expiresAt time.Time, revokedAt interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "token", "user_id", "target_user_id", "family_id", "scopes",
		"expires_at", "revoked_at", "revoked_by", "revoke_reason", "last_validated_at", "created_at",
	}).AddRow("tok-id", "tok-value", "parent-1", "child-1", "fam-1",
		"{screen_time}", expiresAt, revokedAt, nil, nil, nil, time.Now())
}

func decodeCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Code
}

func TestValidateTokenErrorCodes(t *testing.T) {
	cases := []struct {
		name       string
		rows       *sqlmock.Rows
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			rows:       sqlmock.NewRows([]string{"id"}),
			wantStatus: http.StatusNotFound,
			wantCode:   models.CodeTokenNotFound,
		},
		{
			name:       "expired",
			rows:       fcTokenRows(time.Now().Add(-time.Hour), nil),
			wantStatus: http.StatusUnauthorized,
			wantCode:   models.CodeTokenExpired,
		},
		{
			name:       "revoked",
			rows:       fcTokenRows(time.Now().Add(time.Hour), time.Now()),
			wantStatus: http.StatusUnauthorized,
			wantCode:   models.CodeTokenRevoked,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, mock, closeDB := newFCHandler(t)
			defer closeDB()

			mock.ExpectQuery("SELECT id, token").WillReturnRows(tc.rows)

			r := fcTestRouter(h)
			req := httptest.NewRequest(http.MethodPost, "/family-controls/tokens/tok-value/validate", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if code := decodeCode(t, w.Body.Bytes()); code != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestValidateTokenSuccess(t *testing.T) {
	h, mock, closeDB := newFCHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT id, token").
		WillReturnRows(fcTokenRows(time.Now().Add(time.Hour), nil))
	mock.ExpectExec("UPDATE fc_authorization_tokens SET last_validated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := fcTestRouter(h)
	req := httptest.NewRequest(http.MethodPost, "/family-controls/tokens/tok-value/validate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Valid {
		t.Fatal("expected valid=true")
	}
}

func TestRecordScreenTimeRequiresMembership(t *testing.T) {
	h, mock, closeDB := newFCHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "caller-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	r := fcTestRouter(h)
	body, _ := json.Marshal(map[string]interface{}{
		"user_id":       "child-1",
		"family_id":     "fam-1",
		"record_date":   "2026-08-30",
		"total_minutes": 9999,
	})
	req := httptest.NewRequest(http.MethodPost, "/family-controls/screen-time", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if code := decodeCode(t, w.Body.Bytes()); code != models.CodeAuthorization {
		t.Fatalf("expected code %s, got %s", models.CodeAuthorization, code)
	}
	// no insert was issued
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordScreenTimeMemberUpserts(t *testing.T) {
	h, mock, closeDB := newFCHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "caller-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO fc_screen_time_records").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "family_id", "record_date", "total_minutes",
			"app_breakdown", "category_breakdown", "created_at",
		}).AddRow("rec-1", "child-1", "fam-1", time.Now(), 120, []byte("{}"), []byte("{}"), time.Now()))

	r := fcTestRouter(h)
	body, _ := json.Marshal(map[string]interface{}{
		"user_id":       "child-1",
		"family_id":     "fam-1",
		"record_date":   "2026-08-30",
		"total_minutes": 120,
	})
	req := httptest.NewRequest(http.MethodPost, "/family-controls/screen-time", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAccountStatusRequiresMembership(t *testing.T) {
	h, mock, closeDB := newFCHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "caller-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	r := fcTestRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/family-controls/account?user_id=child-1&family_id=fam-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckTokenReportsExistenceWithoutError(t *testing.T) {
	h, mock, closeDB := newFCHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT id, token").
		WillReturnRows(fcTokenRows(time.Now().Add(-time.Hour), nil))

	r := fcTestRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/family-controls/tokens/tok-value/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Exists bool `json:"exists"`
		Valid  bool `json:"valid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Exists || resp.Valid {
		t.Fatalf("expected exists=true valid=false, got %+v", resp)
	}
}
