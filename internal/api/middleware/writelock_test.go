package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubChecker struct {
	op   string
	held bool
}

func (c *stubChecker) Check() (string, bool) { return c.op, c.held }

func newLockedRouter(checker *stubChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WriteLockMiddleware(checker))

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/items", ok)
	router.POST("/items", ok)
	router.DELETE("/items", ok)
	router.POST("/backup/restore/some-file", ok)
	router.POST("/database/unlock", ok)
	router.POST("/auth/login", ok)
	router.GET("/health", ok)

	return router
}

func TestWriteLockBlocksMutationsDuringRestore(t *testing.T) {
	router := newLockedRouter(&stubChecker{op: "restore", held: true})

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"reads pass", http.MethodGet, "/items", http.StatusOK},
		{"writes blocked", http.MethodPost, "/items", http.StatusServiceUnavailable},
		{"deletes blocked", http.MethodDelete, "/items", http.StatusServiceUnavailable},
		{"backup endpoints exempt", http.MethodPost, "/backup/restore/some-file", http.StatusOK},
		{"lock management exempt", http.MethodPost, "/database/unlock", http.StatusOK},
		{"auth exempt", http.MethodPost, "/auth/login", http.StatusOK},
		{"health exempt", http.MethodGet, "/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.expectedStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestWriteLockPassesWhenUnlocked(t *testing.T) {
	router := newLockedRouter(&stubChecker{})

	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestWriteLockIgnoresNonRestoreHolders(t *testing.T) {
	// A backup holds the lock too, but only restores make writes unsafe.
	router := newLockedRouter(&stubChecker{op: "backup", held: true})

	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
