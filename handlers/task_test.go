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
)

func testWSHandler() *WSHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewWSHandler(log)
}

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "family_id", "title", "description", "due_date", "assigned_to", "created_by",
		"reward_type", "reward_amount", "category", "recurrence", "status", "approval_status",
		"created_at", "updated_at",
	}).AddRow("task-1", "fam-1", "Dishes", "", time.Now(), "child-1", "parent-1",
		"points", 10.0, "chores", "none", "completed", "pending", time.Now(), time.Now())
}

func taskApprovalRequest(t *testing.T, r *gin.Engine, status string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"approval_status": status})
	req := httptest.NewRequest(http.MethodPut, "/tasks/task-1/approval", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func approvalTestRouter(h *TaskHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/tasks/:id/approval",
		func(c *gin.Context) { c.Set(middleware.ContextUserID, userID); c.Next() },
		h.UpdateApproval)
	return r
}

func TestUpdateApprovalByParent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, title").
		WithArgs("task-1").
		WillReturnRows(taskRows())
	mock.ExpectQuery("SELECT role FROM family_members").
		WithArgs("fam-1", "parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("parent"))
	mock.ExpectExec("UPDATE tasks SET approval_status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &TaskHandler{DB: db, WS: testWSHandler()}
	w := taskApprovalRequest(t, approvalTestRouter(h, "parent-1"), "approved")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateApprovalRejectedForChild(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, title").
		WithArgs("task-1").
		WillReturnRows(taskRows())
	mock.ExpectQuery("SELECT role FROM family_members").
		WithArgs("fam-1", "child-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("child"))

	h := &TaskHandler{DB: db, WS: testWSHandler()}
	w := taskApprovalRequest(t, approvalTestRouter(h, "child-1"), "approved")

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestUpdateApprovalRejectsBadStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, family_id, title").
		WithArgs("task-1").
		WillReturnRows(taskRows())
	mock.ExpectQuery("SELECT role FROM family_members").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("parent"))

	h := &TaskHandler{DB: db, WS: testWSHandler()}
	w := taskApprovalRequest(t, approvalTestRouter(h, "parent-1"), "sort_of_ok")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
