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
	"github.com/famconomy/famconomy-api/services"
)

func assistantTestRouter(h *AssistantHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) { c.Set(middleware.ContextUserID, "user-1"); c.Next() }
	r.POST("/assistant/memories", identity, h.CreateMemory)
	r.GET("/assistant/memories", identity, h.GetMemories)
	return r
}

func newAssistantHandler(t *testing.T) (*AssistantHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := &AssistantHandler{DB: db, Assistant: services.NewAssistantService(db, log)}
	return h, mock, func() { db.Close() }
}

func TestCreateMemoryStoresShortTerm(t *testing.T) {
	h, mock, closeDB := newAssistantHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO assistant_memories").
		WithArgs("user-1", "fam-1", services.MemoryShortTerm, "likes pancakes on Sundays").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := assistantTestRouter(h)
	body, _ := json.Marshal(map[string]string{
		"family_id": "fam-1",
		"content":   "likes pancakes on Sundays",
	})
	req := httptest.NewRequest(http.MethodPost, "/assistant/memories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateMemoryRequiresMembership(t *testing.T) {
	h, mock, closeDB := newAssistantHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	r := assistantTestRouter(h)
	body, _ := json.Marshal(map[string]string{
		"family_id": "fam-1",
		"content":   "should not land",
	})
	req := httptest.NewRequest(http.MethodPost, "/assistant/memories", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMemoriesReturnsNewestFirst(t *testing.T) {
	h, mock, closeDB := newAssistantHandler(t)
	defer closeDB()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, user_id, family_id, kind, content, created_at").
		WithArgs("user-1", "fam-1", 50).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "family_id", "kind", "content", "created_at"}).
			AddRow("mem-2", "user-1", "fam-1", services.MemoryShortTerm, "newer", time.Now()).
			AddRow("mem-1", "user-1", "fam-1", services.MemoryConsolidated, "older", time.Now().Add(-time.Hour)))

	r := assistantTestRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/assistant/memories?family_id=fam-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var memories []services.AssistantMemory
	if err := json.Unmarshal(w.Body.Bytes(), &memories); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(memories) != 2 || memories[0].ID != "mem-2" {
		t.Fatalf("unexpected memories: %+v", memories)
	}
}
