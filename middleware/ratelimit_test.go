package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	// shrink the shared limiter for the test and restore it after
	origLimit := limiter.limit
	limiter.limit = 3
	limiter.requests = map[string]*clientRequest{}
	defer func() {
		limiter.limit = origLimit
		limiter.requests = map[string]*clientRequest{}
	}()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimiter(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", w.Code)
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	origLimit := limiter.limit
	limiter.limit = 1
	limiter.requests = map[string]*clientRequest{}
	defer func() {
		limiter.limit = origLimit
		limiter.requests = map[string]*clientRequest{}
	}()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimiter(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}

	// expire the window by hand
	for _, client := range limiter.requests {
		client.resetTime = time.Now().Add(-time.Second)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("after window: expected 200, got %d", w.Code)
	}
}
