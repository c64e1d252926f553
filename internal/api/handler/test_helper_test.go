package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
	"github.com/sokrates1989/dbsnap/internal/core/domain"
	"github.com/sokrates1989/dbsnap/internal/core/service"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/catalog"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/sqlite"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/state"
	"github.com/sokrates1989/dbsnap/internal/logging"
)

// stubBackend is a minimal in-memory store backend for handler tests.
type stubBackend struct {
	exportData string
	restored   []string
}

func (b *stubBackend) Kind() string                      { return "neo4j" }
func (b *stubBackend) ArtifactKind() domain.ArtifactKind { return domain.ArtifactKindStatement }
func (b *stubBackend) DumpExt() string                   { return "cypher" }
func (b *stubBackend) RequiresSafetyBackup() bool        { return false }
func (b *stubBackend) Close(ctx context.Context) error   { return nil }

func (b *stubBackend) Export(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, b.exportData)
	return err
}

func (b *stubBackend) Restore(ctx context.Context, r io.Reader) ([]domain.Warning, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b.restored = append(b.restored, string(data))
	return nil, nil
}

func (b *stubBackend) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	return &domain.DatabaseStats{StoreKind: "neo4j", NodeCount: 3, RelationshipCount: 2}, nil
}

// testEnv holds all test dependencies
type testEnv struct {
	db      *sqlite.DB
	router  *gin.Engine
	backend *stubBackend
	lock    *state.LockCoordinator
	svc     *service.BackupService
}

// setupTestEnv wires handlers against a stub backend, a temp backup
// directory and an in-memory SQLite credentials database. Routes are
// registered without the auth middleware.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := state.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create state store: %v", err)
	}
	lock := state.NewLockCoordinator(store, time.Hour)
	progress := state.NewProgressTracker(store)

	backend := &stubBackend{exportData: "CREATE (:A {});\n"}
	cat := catalog.New(t.TempDir(), backend.ArtifactKind())
	svc := service.NewBackupService(backend, cat, lock, progress, logging.NewNop())

	userRepo := sqlite.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, "test-secret", "HS256")

	authHandler := NewAuthHandler(authService)
	backupHandler := NewBackupHandler(svc, logging.NewNop())
	lockHandler := NewLockHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.POST("/auth/login", authHandler.Login)
	router.POST("/backup/create", backupHandler.CreateBackup)
	router.GET("/backup/list", backupHandler.ListBackups)
	router.GET("/backup/download/:filename", backupHandler.DownloadBackup)
	router.POST("/backup/restore/:filename", backupHandler.RestoreBackup)
	router.DELETE("/backup/delete/:filename", backupHandler.DeleteBackup)
	router.GET("/backup/stats", backupHandler.Stats)
	router.GET("/backup/status", backupHandler.Status)
	router.POST("/database/lock", lockHandler.Lock)
	router.POST("/database/unlock", lockHandler.Unlock)
	router.GET("/database/lock-status", lockHandler.LockStatus)

	return &testEnv{
		db:      db,
		router:  router,
		backend: backend,
		lock:    lock,
		svc:     svc,
	}
}

// seedUser creates a user with the given credentials.
func (env *testEnv) seedUser(t *testing.T, username, password string) {
	t.Helper()

	userRepo := sqlite.NewUserRepository(env.db)
	authService := service.NewAuthService(userRepo, "test-secret", "HS256")
	hash, err := authService.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := userRepo.Create(context.Background(), domain.NewUser(username, hash)); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

// do performs a request against the test router.
func (env *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// decode parses a JSON response body into v.
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// createBackup creates one backup through the API and returns its filename.
func (env *testEnv) createBackup(t *testing.T) string {
	t.Helper()

	w := env.do(t, http.MethodPost, "/backup/create", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create backup returned %d: %s", w.Code, w.Body.String())
	}
	var resp dto.BackupResponse
	decode(t, w, &resp)
	return resp.Filename
}
