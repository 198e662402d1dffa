// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	Drive  DriveConfig
	Sync   SyncConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local storage paths.
type DataConfig struct {
	// BasePath is the root for the SQLite database, the session KV store
	// and built presentation artifacts.
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	FrontendOrigin string // CORS origin for the web client
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// AuthConfig holds session configuration.
type AuthConfig struct {
	SessionDuration time.Duration // e.g. 720h (30 days)
	CookieName      string
}

// DriveConfig holds Google Drive OAuth configuration.
type DriveConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// SyncConfig holds sync pipeline configuration.
type SyncConfig struct {
	// Workers bounds concurrent per-deck sync operations. Renderer sessions
	// are expensive to start, so this also bounds renderer load.
	Workers int
	// MaxSlides caps the number of slides read per rendered deck.
	MaxSlides int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for local data storage")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	frontendOrigin := flag.String("frontend-origin", "", "Allowed CORS origin for the web client")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	sessionDuration := flag.String("session-duration", "", "Session lifetime (e.g., 720h)")
	driveClientID := flag.String("drive-client-id", "", "Google OAuth client ID")
	driveClientSecret := flag.String("drive-client-secret", "", "Google OAuth client secret")
	driveRedirectURL := flag.String("drive-redirect-url", "", "Google OAuth redirect URL")
	syncWorkers := flag.String("sync-workers", "", "Max concurrent per-deck sync operations (default: 4)")
	maxSlides := flag.String("max-slides", "", "Max slides read per deck (default: 100)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			FrontendOrigin: getConfigValue(*frontendOrigin, "FRONTEND_ORIGIN", "http://localhost:3000"),
		},
		Auth: AuthConfig{
			CookieName: getConfigValue("", "SESSION_COOKIE_NAME", "pres_conf_user_state"),
		},
		Drive: DriveConfig{
			ClientID:     getConfigValue(*driveClientID, "DRIVE_CLIENT_ID", ""),
			ClientSecret: getConfigValue(*driveClientSecret, "DRIVE_CLIENT_SECRET", ""),
			RedirectURL:  getConfigValue(*driveRedirectURL, "DRIVE_REDIRECT_URL", ""),
		},
		Sync: SyncConfig{
			Workers:   getIntConfigValue(*syncWorkers, "SYNC_WORKERS", 4),
			MaxSlides: getIntConfigValue(*maxSlides, "SYNC_MAX_SLIDES", 100),
		},
	}

	sessionDurationStr := getConfigValue(*sessionDuration, "SESSION_DURATION", "720h")
	d, err := time.ParseDuration(sessionDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid session duration %q: %w", sessionDurationStr, err)
	}
	cfg.Auth.SessionDuration = d

	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	if cfg.Server.ReadTimeout, err = time.ParseDuration(readTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}

	// Deck downloads and builds can be slow, so the write timeout is generous.
	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s")
	if cfg.Server.WriteTimeout, err = time.ParseDuration(writeTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	if cfg.Server.IdleTimeout, err = time.ParseDuration(idleTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync workers must be at least 1, got %d", c.Sync.Workers)
	}

	// Drive credentials can be empty in development; the drive client
	// refuses to start the OAuth flow without them.

	return nil
}

// DatabasePath returns the SQLite database file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.BasePath, "presconf.db")
}

// SessionStorePath returns the badger session store directory.
func (c *Config) SessionStorePath() string {
	return filepath.Join(c.Data.BasePath, "sessions")
}

// BuiltPath returns the directory holding built presentation artifacts
// for the given user.
func (c *Config) BuiltPath(userID string) string {
	return filepath.Join(c.Data.BasePath, "built", userID)
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/PresentationConfigurator.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "PresentationConfigurator")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
