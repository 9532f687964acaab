package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/wealth-advisor/internal/common"
)

// EnvPrefix is the prefix for environment overrides, e.g. ADVISOR_GEMINI_MODEL.
const EnvPrefix = "ADVISOR"

// Settings is the fully resolved application configuration.
type Settings struct {
	Gemini   GeminiSettings
	Storage  StorageSettings
	Database DatabaseSettings
	Server   ServerSettings
	Advisor  AdvisorSettings
	Logging  LoggingSettings
}

// GeminiSettings configures the model client.
type GeminiSettings struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// StorageSettings locates the analysis history.
type StorageSettings struct {
	Dir string
}

// DatabaseSettings locates the catalog database.
type DatabaseSettings struct {
	Path string
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Host   string
	Origin string
	Port   int
}

// AdvisorSettings tunes prompt content.
type AdvisorSettings struct {
	Institution string
}

// LoggingSettings configures slog.
type LoggingSettings struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	dataDir := DataDir()

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.max_retries", 3)
	v.SetDefault("gemini.retry_delay", 2*time.Second)
	v.SetDefault("gemini.timeout", 60*time.Second)
	v.SetDefault("storage.dir", filepath.Join(dataDir, "records"))
	v.SetDefault("database.path", filepath.Join(dataDir, "catalog.db"))
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.origin", "*")
	v.SetDefault("advisor.institution", "HSBC")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv makes every key overridable through ADVISOR_ prefixed variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are skipped and existing variables are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load resolves settings from v. Direct GEMINI_API_KEY or GOOGLE_API_KEY
// variables are used when no key is configured.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Gemini: GeminiSettings{
			APIKey:     v.GetString("gemini.api_key"),
			Model:      v.GetString("gemini.model"),
			BaseURL:    v.GetString("gemini.base_url"),
			MaxRetries: v.GetInt("gemini.max_retries"),
			RetryDelay: v.GetDuration("gemini.retry_delay"),
			Timeout:    v.GetDuration("gemini.timeout"),
		},
		Storage:  StorageSettings{Dir: ExpandPath(v.GetString("storage.dir"))},
		Database: DatabaseSettings{Path: ExpandPath(v.GetString("database.path"))},
		Server: ServerSettings{
			Host:   v.GetString("server.host"),
			Port:   v.GetInt("server.port"),
			Origin: v.GetString("server.origin"),
		},
		Advisor: AdvisorSettings{Institution: v.GetString("advisor.institution")},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if s.Gemini.APIKey == "" {
		s.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if s.Gemini.APIKey == "" {
		s.Gemini.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks value ranges. The API key is checked separately by
// RequireAPIKey since catalog commands run without one.
func (s *Settings) Validate() error {
	if s.Gemini.MaxRetries < 1 {
		return fmt.Errorf("%w: gemini.max_retries must be at least 1, got %d", common.ErrInvalidConfig, s.Gemini.MaxRetries)
	}
	if s.Gemini.RetryDelay < 0 {
		return fmt.Errorf("%w: gemini.retry_delay cannot be negative", common.ErrInvalidConfig)
	}
	if s.Gemini.Timeout <= 0 {
		return fmt.Errorf("%w: gemini.timeout must be positive", common.ErrInvalidConfig)
	}
	if s.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir", common.ErrMissingConfig)
	}
	if s.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", common.ErrInvalidConfig, s.Server.Port)
	}
	return nil
}

// RequireAPIKey reports a missing model API key.
func (s *Settings) RequireAPIKey() error {
	if strings.TrimSpace(s.Gemini.APIKey) == "" {
		return common.NewUserError(
			"Gemini API key not configured; set GEMINI_API_KEY or gemini.api_key",
			fmt.Errorf("%w: gemini.api_key", common.ErrMissingConfig))
	}
	return nil
}
