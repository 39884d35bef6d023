package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form_filler/domain/entities"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, 500*time.Millisecond, cfg.FieldDelay)
	assert.Equal(t, 2*time.Second, cfg.FormDelay)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 0, cfg.Limit)
	assert.Equal(t, "emailmeform.com", cfg.FrameMatch)
	assert.Equal(t, "#element_0", cfg.Anchor)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.KeepOpen)
	assert.Equal(t, 5*time.Second, cfg.Browser.Settle)
	assert.Equal(t, "form_filler.log", cfg.Logger.File)
	assert.Equal(t, entities.LoginManual, cfg.LoginMode())
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: https://example.com/forms
max_retries: 5
field_delay: 250ms
login:
  mode: auto
  username: alice
`), 0o600))

	t.Setenv("FORM_FILLER_MAX_RETRIES", "2")
	t.Setenv("FORM_FILLER_LOGIN_PASSWORD", "s3cret")

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/forms", cfg.URL)
	assert.Equal(t, 2, cfg.MaxRetries, "env overrides file")
	assert.Equal(t, 250*time.Millisecond, cfg.FieldDelay)
	assert.Equal(t, entities.LoginAuto, cfg.LoginMode())

	creds := cfg.Credentials()
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "s3cret", creds.Password)
	assert.True(t, creds.Complete())
}

func TestPasswordShortEnv(t *testing.T) {
	t.Setenv("FORM_FILLER_PASSWORD", "hunter2")
	cfg := loadDefaults(t)
	assert.Equal(t, "hunter2", cfg.Credentials().Password)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := loadDefaults(t)
		cfg.File = "people.csv"
		cfg.URL = "https://example.com"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid(t).Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := valid(t)
		cfg.File = " "
		assert.ErrorContains(t, cfg.Validate(), "CSV data file")
	})

	t.Run("missing url", func(t *testing.T) {
		cfg := valid(t)
		cfg.URL = ""
		assert.ErrorContains(t, cfg.Validate(), "website URL")
	})

	t.Run("dry run needs no url", func(t *testing.T) {
		cfg := valid(t)
		cfg.URL = ""
		cfg.DryRun = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("retries out of range", func(t *testing.T) {
		cfg := valid(t)
		cfg.MaxRetries = 0
		assert.ErrorContains(t, cfg.Validate(), "max_retries")
		cfg.MaxRetries = 6
		assert.ErrorContains(t, cfg.Validate(), "max_retries")
	})

	t.Run("negative delay", func(t *testing.T) {
		cfg := valid(t)
		cfg.FormDelay = -time.Second
		assert.ErrorContains(t, cfg.Validate(), "delays")
	})

	t.Run("unknown login mode", func(t *testing.T) {
		cfg := valid(t)
		cfg.Login.Mode = "sso"
		assert.ErrorContains(t, cfg.Validate(), "unknown login mode")
	})
}
