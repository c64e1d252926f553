package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/api/handler"
	"github.com/sokrates1989/dbsnap/internal/api/middleware"
	"github.com/sokrates1989/dbsnap/internal/core/service"
	"github.com/sokrates1989/dbsnap/pkg/config"
)

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
	log    *zap.SugaredLogger
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	authService *service.AuthService,
	backupService *service.BackupService,
	lock middleware.LockChecker,
	log *zap.SugaredLogger,
) *Server {
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandlerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.WriteLockMiddleware(lock))

	authHandler := handler.NewAuthHandler(authService)
	backupHandler := handler.NewBackupHandler(backupService, log)
	lockHandler := handler.NewLockHandler(backupService)

	// Public routes (no auth required)
	auth := router.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	authMiddleware := middleware.AuthMiddleware(authService)

	// Backups
	backup := router.Group("/backup")
	backup.Use(authMiddleware)
	{
		backup.POST("/create", backupHandler.CreateBackup)
		backup.GET("/list", backupHandler.ListBackups)
		backup.GET("/download/:filename", backupHandler.DownloadBackup)
		backup.POST("/restore/:filename", backupHandler.RestoreBackup)
		backup.POST("/restore-upload", backupHandler.RestoreUpload)
		backup.DELETE("/delete/:filename", backupHandler.DeleteBackup)
		backup.GET("/stats", backupHandler.Stats)
		backup.GET("/status", backupHandler.Status)
	}

	// Lock management
	database := router.Group("/database")
	database.Use(authMiddleware)
	{
		database.POST("/lock", lockHandler.Lock)
		database.POST("/unlock", lockHandler.Unlock)
		database.GET("/lock-status", lockHandler.LockStatus)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return &Server{
		router: router,
		config: cfg,
		log:    log,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)

	s.srv = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	if s.config.SSLCert != "" && s.config.SSLKey != "" {
		s.log.Infow("starting HTTPS server", "addr", addr)
		return s.srv.ListenAndServeTLS(s.config.SSLCert, s.config.SSLKey)
	}

	s.log.Infow("starting HTTP server", "addr", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
