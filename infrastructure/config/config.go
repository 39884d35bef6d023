package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"form_filler/domain/entities"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. FORM_FILLER_URL.
const EnvPrefix = "FORM_FILLER"

// Config holds everything a fill run needs.
type Config struct {
	File  string `mapstructure:"file"`
	URL   string `mapstructure:"url"`
	Limit int    `mapstructure:"limit"`

	FieldDelay time.Duration `mapstructure:"field_delay"`
	FormDelay  time.Duration `mapstructure:"form_delay"`
	MaxRetries int           `mapstructure:"max_retries"`

	FrameMatch string `mapstructure:"frame_match"`
	Anchor     string `mapstructure:"anchor"`

	Browser BrowserConfig `mapstructure:"browser"`
	Login   LoginConfig   `mapstructure:"login"`
	Logger  LoggerConfig  `mapstructure:"log"`

	ReportDir string `mapstructure:"report_dir"`
	DryRun    bool   `mapstructure:"dry_run"`
}

// BrowserConfig controls the chromium instance.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless"`
	SlowMo        time.Duration `mapstructure:"slow_mo"`
	StateFile     string        `mapstructure:"state_file"`
	Settle        time.Duration `mapstructure:"settle"`
	DebugSnapshot bool          `mapstructure:"debug_snapshot"`
	SnapshotDir   string        `mapstructure:"snapshot_dir"`
	KeepOpen      bool          `mapstructure:"keep_open"`
}

// LoginConfig controls the login gate.
type LoginConfig struct {
	Mode             string `mapstructure:"mode"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	UsernameSelector string `mapstructure:"username_selector"`
	PasswordSelector string `mapstructure:"password_selector"`
	SubmitSelector   string `mapstructure:"submit_selector"`
	AllowInsecure    bool   `mapstructure:"allow_insecure"`
}

// LoggerConfig controls console and file logging.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("file", "")
	v.SetDefault("url", "")
	v.SetDefault("limit", 0)
	v.SetDefault("field_delay", 500*time.Millisecond)
	v.SetDefault("form_delay", 2*time.Second)
	v.SetDefault("max_retries", 3)
	v.SetDefault("frame_match", "emailmeform.com")
	v.SetDefault("anchor", "#element_0")

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.slow_mo", 0)
	v.SetDefault("browser.state_file", "")
	v.SetDefault("browser.settle", 5*time.Second)
	v.SetDefault("browser.debug_snapshot", true)
	v.SetDefault("browser.snapshot_dir", ".")
	v.SetDefault("browser.keep_open", true)

	v.SetDefault("login.mode", string(entities.LoginManual))
	v.SetDefault("login.username", "")
	v.SetDefault("login.password", "")
	v.SetDefault("login.username_selector", "input[type='email'], input[name*='user' i], input[name*='login' i], input[name*='email' i]")
	v.SetDefault("login.password_selector", "input[type='password']")
	v.SetDefault("login.submit_selector", "button[type='submit'], input[type='submit']")
	v.SetDefault("login.allow_insecure", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "form_filler.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)

	v.SetDefault("report_dir", "")
	v.SetDefault("dry_run", false)
}

// New builds a viper instance reading defaults, an optional config file, .env and
// FORM_FILLER_* environment variables.
func New(cfgFile string) (*viper.Viper, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("form_filler")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("login.password", EnvPrefix+"_LOGIN_PASSWORD", EnvPrefix+"_PASSWORD"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.File) == "" {
		return errors.New("please select a CSV data file (--file)")
	}
	if !c.DryRun && strings.TrimSpace(c.URL) == "" {
		return errors.New("please enter the website URL (--url)")
	}
	if c.MaxRetries < 1 || c.MaxRetries > 5 {
		return fmt.Errorf("max_retries must be between 1 and 5, got %d", c.MaxRetries)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if c.FieldDelay < 0 || c.FormDelay < 0 || c.Browser.Settle < 0 {
		return errors.New("delays must not be negative")
	}
	if strings.TrimSpace(c.FrameMatch) == "" {
		return errors.New("frame_match must not be empty")
	}
	if strings.TrimSpace(c.Anchor) == "" {
		return errors.New("anchor must not be empty")
	}
	if _, err := entities.ParseLoginMode(c.Login.Mode); err != nil {
		return err
	}
	return nil
}

// LoginMode returns the parsed login mode. Call Validate first.
func (c *Config) LoginMode() entities.LoginMode {
	m, _ := entities.ParseLoginMode(c.Login.Mode)
	return m
}

// Credentials returns the automatic login settings.
func (c *Config) Credentials() entities.Credentials {
	return entities.Credentials{
		Username:         c.Login.Username,
		Password:         c.Login.Password,
		UsernameSelector: c.Login.UsernameSelector,
		PasswordSelector: c.Login.PasswordSelector,
		SubmitSelector:   c.Login.SubmitSelector,
	}
}
