package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
)

func gigTestRouter(h *GigHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/gigs/:id/claim",
		func(c *gin.Context) { c.Set(middleware.ContextUserID, "user-1"); c.Next() },
		h.ClaimGig)
	return r
}

func TestClaimOpenGig(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT family_id, status FROM gigs").
		WithArgs("gig-1").
		WillReturnRows(sqlmock.NewRows([]string{"family_id", "status"}).AddRow("fam-1", "open"))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("UPDATE gigs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &GigHandler{DB: db, WS: testWSHandler()}
	r := gigTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/gigs/gig-1/claim", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimAlreadyClaimedGig(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT family_id, status FROM gigs").
		WithArgs("gig-1").
		WillReturnRows(sqlmock.NewRows([]string{"family_id", "status"}).AddRow("fam-1", "claimed"))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	h := &GigHandler{DB: db, WS: testWSHandler()}
	r := gigTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/gigs/gig-1/claim", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestClaimRacesToZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	// status read as open, but another claim lands first
	mock.ExpectQuery("SELECT family_id, status FROM gigs").
		WithArgs("gig-1").
		WillReturnRows(sqlmock.NewRows([]string{"family_id", "status"}).AddRow("fam-1", "open"))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fam-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("UPDATE gigs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := &GigHandler{DB: db, WS: testWSHandler()}
	r := gigTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/gigs/gig-1/claim", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}
