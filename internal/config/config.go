// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
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
	App      AppConfig
	Logger   LoggerConfig
	Sources  SourcesConfig
	Pipeline PipelineConfig
	Server   ServerConfig
	Watch    WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// SourcesConfig holds the locations of the raw input files.
type SourcesConfig struct {
	// ExportsDir contains one rating-export CSV per member.
	ExportsDir string
	// MeetingLogPath is the club's canonical meeting log CSV.
	MeetingLogPath string
	// ManualRatingsPath is the optional manual-overrides CSV. May be empty
	// or point to a file that does not exist; both mean "no overrides".
	ManualRatingsPath string
	// RosterPath is the JSON roster of members and their export files.
	RosterPath string
}

// PipelineConfig holds reconciliation behavior settings.
type PipelineConfig struct {
	// OutputDir is where CSV artifacts are written after a successful run.
	OutputDir string
	// JoinMode is the join used for the unified table (default: left).
	JoinMode string
	// FilterReadShelf restricts export rows to Exclusive Shelf == "read".
	FilterReadShelf bool
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	// RefreshPerMinute limits POST /refresh calls per client IP.
	RefreshPerMinute int
	RefreshBurst     int
}

// WatchConfig holds source file watching configuration.
type WatchConfig struct {
	// Enabled re-runs the pipeline when a source file changes.
	Enabled bool
	// Debounce coalesces bursts of file events into one refresh.
	Debounce time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	exportsDir := flag.String("exports-dir", "", "Directory with per-member rating export CSVs")
	meetingLog := flag.String("meeting-log", "", "Path to the meeting log CSV")
	manualRatings := flag.String("manual-ratings", "", "Path to the optional manual ratings CSV")
	rosterPath := flag.String("roster", "", "Path to the member roster JSON")
	outputDir := flag.String("output-dir", "", "Directory for output CSV artifacts")
	joinMode := flag.String("join-mode", "", "Join mode for the unified table (inner, left)")
	filterShelf := flag.String("filter-read-shelf", "", "Only include export rows with Exclusive Shelf == read (default: false)")

	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	watch := flag.String("watch", "", "Re-run the pipeline when source files change (default: true)")
	watchDebounce := flag.String("watch-debounce", "", "Debounce window for file events (default: 2s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Sources: SourcesConfig{
			ExportsDir:        getConfigValue(*exportsDir, "EXPORTS_DIR", "data/exports"),
			MeetingLogPath:    getConfigValue(*meetingLog, "MEETING_LOG_PATH", "data/bookclub/bookclub.csv"),
			ManualRatingsPath: getConfigValue(*manualRatings, "MANUAL_RATINGS_PATH", "data/bookclub/manual_ratings.csv"),
			RosterPath:        getConfigValue(*rosterPath, "ROSTER_PATH", "data/roster.json"),
		},
		Pipeline: PipelineConfig{
			OutputDir:       getConfigValue(*outputDir, "OUTPUT_DIR", "data/out"),
			JoinMode:        getConfigValue(*joinMode, "JOIN_MODE", "left"),
			FilterReadShelf: getBoolConfigValue(*filterShelf, "FILTER_READ_SHELF", false),
		},
		Server: ServerConfig{
			Name:             getConfigValue(*serverName, "SERVER_NAME", "Bookclub Server"),
			Port:             getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			RefreshPerMinute: getIntConfigValue("", "REFRESH_PER_MINUTE", 6),
			RefreshBurst:     getIntConfigValue("", "REFRESH_BURST", 2),
		},
		Watch: WatchConfig{
			Enabled: getBoolConfigValue(*watch, "WATCH_SOURCES", true),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	debounceStr := getConfigValue(*watchDebounce, "WATCH_DEBOUNCE", "2s")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid watch debounce %q: %w", debounceStr, err)
	}
	cfg.Watch.Debounce = debounce

	// Expand source and output paths.
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Validate configuration.
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

	validJoins := map[string]bool{
		"inner": true,
		"left":  true,
	}
	if !validJoins[c.Pipeline.JoinMode] {
		return fmt.Errorf("invalid join mode: %s (pipeline default must be inner or left)", c.Pipeline.JoinMode)
	}

	if c.Sources.ExportsDir == "" {
		return errors.New("exports directory cannot be empty")
	}
	if c.Sources.MeetingLogPath == "" {
		return errors.New("meeting log path cannot be empty")
	}
	if c.Sources.RosterPath == "" {
		return errors.New("roster path cannot be empty")
	}
	// ManualRatingsPath may be empty: the overrides file is optional.

	return nil
}

// expandPaths expands ~ and makes all source/output paths absolute.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Sources.ExportsDir,
		&c.Sources.MeetingLogPath,
		&c.Sources.RosterPath,
		&c.Pipeline.OutputDir,
	}
	if c.Sources.ManualRatingsPath != "" {
		paths = append(paths, &c.Sources.ManualRatingsPath)
	}

	for _, p := range paths {
		expanded, err := expandPath(*p, "")
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
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
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
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
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
