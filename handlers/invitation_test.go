package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/services"
)

func invitationTestRouter(h *InvitationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) { c.Set(middleware.ContextUserID, "user-1"); c.Next() }
	r.POST("/invitations", identity, h.CreateInvitation)
	r.POST("/invitations/accept", identity, h.AcceptInvitation)
	return r
}

func TestCreateInvitationIssuesToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	// membership check, already-member check, upsert, name lookup
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO invitations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("inv-1"))
	mock.ExpectQuery("SELECT f.name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "inviter"}).AddRow("The Smiths", "Jane Smith"))

	// no API key: email send fails, invitation is still created
	h := &InvitationHandler{DB: db, Email: services.NewEmailService("", "noreply@famconomy.com", "http://localhost:3000")}
	r := invitationTestRouter(h)

	body, _ := json.Marshal(map[string]string{
		"family_id": "fam-1",
		"email":     "new@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/invitations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID        string    `json:"id"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "inv-1" {
		t.Fatalf("expected inv-1, got %s", resp.ID)
	}
	if len(resp.Token) != 64 {
		t.Fatalf("expected 64-char token, got %d chars", len(resp.Token))
	}
	expectedExpiry := time.Now().Add(7 * 24 * time.Hour)
	if diff := expectedExpiry.Sub(resp.ExpiresAt); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expiry not ~7 days out: %v", resp.ExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateInvitationRejectsExistingMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "member@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	h := &InvitationHandler{DB: db, Email: services.NewEmailService("", "noreply@famconomy.com", "http://localhost:3000")}
	r := invitationTestRouter(h)

	body, _ := json.Marshal(map[string]string{
		"family_id": "fam-1",
		"email":     "member@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/invitations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestAcceptInvitationConsumesToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, email, relationship, expires_at").
		WithArgs("tok-abc").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "family_id", "email", "relationship", "expires_at"}).
			AddRow("inv-1", "fam-1", "new@example.com", "member", time.Now().Add(time.Hour)))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO family_members").
		WithArgs("fam-1", "user-1", "member", "member").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM invitations").
		WithArgs("inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := &InvitationHandler{DB: db}
	r := invitationTestRouter(h)

	body, _ := json.Marshal(map[string]string{"token": "tok-abc"})
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAcceptInvitationGrantsInvitedRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, email, relationship, expires_at").
		WithArgs("tok-kid").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "family_id", "email", "relationship", "expires_at"}).
			AddRow("inv-2", "fam-1", "kid@example.com", "child", time.Now().Add(time.Hour)))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO family_members").
		WithArgs("fam-1", "user-1", "child", "child").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM invitations").
		WithArgs("inv-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := &InvitationHandler{DB: db}
	r := invitationTestRouter(h)

	body, _ := json.Marshal(map[string]string{"token": "tok-kid"})
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAcceptInvitationUnknownToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, email, relationship, expires_at").
		WithArgs("tok-used").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := &InvitationHandler{DB: db}
	r := invitationTestRouter(h)

	body, _ := json.Marshal(map[string]string{"token": "tok-used"})
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAcceptInvitationExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, email, relationship, expires_at").
		WithArgs("tok-old").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "family_id", "email", "relationship", "expires_at"}).
			AddRow("inv-1", "fam-1", "new@example.com", "member", time.Now().Add(-time.Hour)))
	mock.ExpectExec("DELETE FROM invitations").
		WithArgs("inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &InvitationHandler{DB: db}
	r := invitationTestRouter(h)

	body, _ := json.Marshal(map[string]string{"token": "tok-old"})
	req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
