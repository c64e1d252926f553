package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Required fields
	BackupDir    string `mapstructure:"backup_dir"`
	StoreKind    string `mapstructure:"store_kind"` // "neo4j", "postgresql", "mysql" or "sqlite"
	JWTSecretKey string `mapstructure:"jwt_secret_key"`

	// Backing store connection
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"` // file path for sqlite

	// Lock coordination
	LockTTLMinutes int `mapstructure:"lock_ttl_minutes"`

	// Optional API settings
	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`

	// Optional SSL settings
	SSLCert string `mapstructure:"ssl_cert"`
	SSLKey  string `mapstructure:"ssl_key"`

	// Optional CORS settings
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Optional logging settings
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`

	// Optional JWT settings
	JWTAlgorithm string `mapstructure:"jwt_algorithm"`

	// Static paths
	ConfigPath        string
	CredentialsDBPath string `mapstructure:"credentials_db_path"`
	StateDir          string `mapstructure:"state_dir"`
}

const (
	DefaultConfigPath        = "/etc/dbsnap/config.yml"
	DefaultCredentialsDBPath = "/var/lib/dbsnap/db.sqlite3"
	DefaultStateDir          = "/var/lib/dbsnap/state"
	DefaultAPIHost           = "0.0.0.0"
	DefaultAPIPort           = 8337
	DefaultLogLevel          = "info"
	DefaultJWTAlgorithm      = "HS256"
	DefaultLockTTLMinutes    = 120
)

var supportedStoreKinds = map[string]bool{
	"neo4j":      true,
	"postgresql": true,
	"mysql":      true,
	"sqlite":     true,
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("api_host", DefaultAPIHost)
	viper.SetDefault("api_port", DefaultAPIPort)
	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("jwt_algorithm", DefaultJWTAlgorithm)
	viper.SetDefault("lock_ttl_minutes", DefaultLockTTLMinutes)
	viper.SetDefault("credentials_db_path", DefaultCredentialsDBPath)
	viper.SetDefault("state_dir", DefaultStateDir)

	// Allow environment variable overrides
	viper.AutomaticEnv()
	viper.SetEnvPrefix("DBSNAP")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ConfigPath = configPath

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BackupDir == "" {
		return fmt.Errorf("backup_dir is required")
	}

	if c.StoreKind == "" {
		return fmt.Errorf("store_kind is required")
	}

	if !supportedStoreKinds[c.StoreKind] {
		return fmt.Errorf("store_kind must be one of 'neo4j', 'postgresql', 'mysql' or 'sqlite'")
	}

	if c.JWTSecretKey == "" {
		return fmt.Errorf("jwt_secret_key is required")
	}

	if c.DBName == "" {
		return fmt.Errorf("db_name is required")
	}

	if c.LockTTLMinutes <= 0 {
		return fmt.Errorf("lock_ttl_minutes must be positive")
	}

	// Validate backup directory exists
	if _, err := os.Stat(c.BackupDir); os.IsNotExist(err) {
		return fmt.Errorf("backup_dir does not exist: %s", c.BackupDir)
	}

	// Validate SSL config if provided
	if c.SSLCert != "" || c.SSLKey != "" {
		if c.SSLCert == "" || c.SSLKey == "" {
			return fmt.Errorf("both ssl_cert and ssl_key must be provided")
		}
		if _, err := os.Stat(c.SSLCert); os.IsNotExist(err) {
			return fmt.Errorf("ssl_cert file does not exist: %s", c.SSLCert)
		}
		if _, err := os.Stat(c.SSLKey); os.IsNotExist(err) {
			return fmt.Errorf("ssl_key file does not exist: %s", c.SSLKey)
		}
	}

	return nil
}

// LockTTL returns the lock time-to-live as a duration.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMinutes) * time.Minute
}

func (c *Config) IsDevMode() bool {
	return os.Getenv("DBSNAP_DEV_MODE") == "1"
}
