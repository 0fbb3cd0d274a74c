package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	UIAuto = "auto"
	UITUI  = "tui"
	UILine = "line"
)

var validate = validator.New()

// Config holds application configuration
type Config struct {
	BaseURL        string        `env:"SUPPORTCHAT_BASE_URL,default=http://localhost:5001" validate:"required,url"`
	RequestTimeout time.Duration `env:"SUPPORTCHAT_REQUEST_TIMEOUT,default=60s" validate:"min=0"` // 0 waits for the backend indefinitely
	LogDir         string        `env:"SUPPORTCHAT_LOG_DIR,default=logs" validate:"required"`
	LogLevel       string        `env:"SUPPORTCHAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	TranscriptDB   string        `env:"SUPPORTCHAT_TRANSCRIPT_DB"` // Empty disables transcript archiving
	Telemetry      bool          `env:"SUPPORTCHAT_TELEMETRY,default=true"`
	UI             string        `env:"SUPPORTCHAT_UI,default=auto" validate:"oneof=auto tui line"`
	Debug          bool          `env:"SUPPORTCHAT_DEBUG,default=false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration once flags have been applied
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
