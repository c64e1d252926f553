package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/backend"
	"github.com/sokrates1989/dbsnap/internal/core/repository"
	"github.com/sokrates1989/dbsnap/internal/core/service"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/catalog"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/sqlite"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/state"
	"github.com/sokrates1989/dbsnap/internal/logging"
	"github.com/sokrates1989/dbsnap/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dbsnap",
	Short: "dbsnap - Database backup and restore coordination",
	Long: `dbsnap creates, manages and restores backups for Neo4j, PostgreSQL,
MySQL/MariaDB and SQLite databases.

It provides:
- Statement-level exports for graph stores, native dumps for relational ones
- Gzip-compressed artifacts with a consistent naming scheme
- A global operation lock so backups and restores never overlap
- Automatic safety backups before destructive restores
- Pollable restore progress with per-statement warnings
- A REST API with JWT authentication for remote management`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/dbsnap/config.yml)")
}

// initServices initializes all services
func initServices() (*Services, error) {
	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	db, err := sqlite.New(cfg.CredentialsDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credentials database: %w", err)
	}

	userRepo := sqlite.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.JWTAlgorithm)

	store, err := state.NewFileStore(cfg.StateDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}
	lock := state.NewLockCoordinator(store, cfg.LockTTL())
	progress := state.NewProgressTracker(store)

	be, err := backend.New(cfg, progress, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	cat := catalog.New(cfg.BackupDir, be.ArtifactKind())
	backupService := service.NewBackupService(be, cat, lock, progress, log)

	return &Services{
		DB:            db,
		Log:           log,
		UserRepo:      userRepo,
		AuthService:   authService,
		BackupService: backupService,
		Lock:          lock,
		Backend:       be,
	}, nil
}

// Services holds all initialized services
type Services struct {
	DB            *sqlite.DB
	Log           *zap.SugaredLogger
	UserRepo      repository.UserRepository
	AuthService   *service.AuthService
	BackupService *service.BackupService
	Lock          *state.LockCoordinator
	Backend       backend.Backend
}

// Close releases every held resource.
func (s *Services) Close() {
	if s.Backend != nil {
		_ = s.Backend.Close(context.Background())
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
	if s.Log != nil {
		_ = s.Log.Sync()
	}
}
