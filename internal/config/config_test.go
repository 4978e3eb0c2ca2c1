package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Sources: SourcesConfig{
			ExportsDir:     "/data/exports",
			MeetingLogPath: "/data/bookclub.csv",
			RosterPath:     "/data/roster.json",
		},
		Pipeline: PipelineConfig{
			OutputDir: "/data/out",
			JoinMode:  "left",
		},
		Server: ServerConfig{
			Port:        "8080",
			ReadTimeout: 15 * time.Second,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Environment(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "test"
	assert.Error(t, cfg.Validate())
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_JoinMode(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.JoinMode = "inner"
	require.NoError(t, cfg.Validate())

	// Only inner and left make sense as the pipeline default.
	cfg.Pipeline.JoinMode = "anti"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiredPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.MeetingLogPath = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Sources.ExportsDir = ""
	assert.Error(t, cfg.Validate())

	// The overrides file is optional.
	cfg = validConfig()
	cfg.Sources.ManualRatingsPath = ""
	assert.NoError(t, cfg.Validate())
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("BOOKCLUB_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "BOOKCLUB_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "BOOKCLUB_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "BOOKCLUB_TEST_UNSET", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("true", "", false))
	assert.True(t, getBoolConfigValue("YES", "", false))
	assert.True(t, getBoolConfigValue("1", "", false))
	assert.False(t, getBoolConfigValue("no", "", true))
	assert.True(t, getBoolConfigValue("", "BOOKCLUB_TEST_UNSET", true))
}
