// Package config loads the engine settings from an optional YAML file.
// Command line flags are applied on top by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort            = 9091
	DefaultDatabaseURL     = "file://./data"
	DefaultCallbackBaseURL = "http://localhost:9091"
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultDedupeTTL       = 10 * time.Minute
	DefaultSchedulerDelay  = time.Minute
	DefaultSchedulerExpiry = 5 * time.Minute
)

// Config is the full engine configuration.
type Config struct {
	Port            int    `yaml:"port"              validate:"min=1,max=65535"`
	DatabaseURL     string `yaml:"database_url"      validate:"required"`
	LogLevel        string `yaml:"log_level"         validate:"oneof=debug info warn error"`
	LogFormat       string `yaml:"log_format"        validate:"oneof=text json tint"`
	EventBus        string `yaml:"event_bus"         validate:"oneof=gochannel kafka"`
	KafkaBrokers    string `yaml:"kafka_brokers"     validate:"required_if=EventBus kafka"`
	CallbackBaseURL string `yaml:"callback_base_url" validate:"required,url"`
	Tracing         bool   `yaml:"tracing"`

	HTTPTimeout            time.Duration `yaml:"http_timeout"             validate:"gt=0"`
	DedupeTTL              time.Duration `yaml:"dedupe_ttl"               validate:"gte=0"`
	MaxConcurrentWorkflows int           `yaml:"max_concurrent_workflows" validate:"min=1"`

	Connectors ConnectorsConfig `yaml:"connectors"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ConnectorsConfig overrides the outbound API roots, mostly for tests and
// self-hosted gateways. Empty values use each client's default.
type ConnectorsConfig struct {
	SlackBaseURL   string `yaml:"slack_base_url"    validate:"omitempty,url"`
	NotionBaseURL  string `yaml:"notion_base_url"   validate:"omitempty,url"`
	CronJobBaseURL string `yaml:"cron_job_base_url" validate:"omitempty,url"`
}

// SchedulerConfig selects where Delay wake-ups are registered. Delay is the
// local callback wait; Expiry is how long a cron-job.org job keeps firing.
type SchedulerConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=cronjob local"`
	APIKey   string        `yaml:"api_key"  validate:"required_if=Provider cronjob"`
	Timezone string        `yaml:"timezone" validate:"required"`
	Delay    time.Duration `yaml:"delay"    validate:"gt=0"`
	Expiry   time.Duration `yaml:"expiry"   validate:"gt=0"`
}

// Default returns a configuration that runs locally without external
// services.
func Default() Config {
	return Config{
		Port:                   DefaultPort,
		DatabaseURL:            DefaultDatabaseURL,
		LogLevel:               "info",
		LogFormat:              "text",
		EventBus:               "gochannel",
		CallbackBaseURL:        DefaultCallbackBaseURL,
		HTTPTimeout:            DefaultHTTPTimeout,
		DedupeTTL:              DefaultDedupeTTL,
		MaxConcurrentWorkflows: 1,
		Scheduler: SchedulerConfig{
			Provider: "local",
			Timezone: "UTC",
			Delay:    DefaultSchedulerDelay,
			Expiry:   DefaultSchedulerExpiry,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return config, nil
}

// Validate checks field constraints and that the scheduler timezone exists.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(c)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return fmt.Errorf("invalid configuration: %s", describe(validationErrors))
		}

		return err
	}

	_, err = time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("invalid configuration: scheduler timezone: %w", err)
	}

	return nil
}

func describe(validationErrors validator.ValidationErrors) string {
	messages := make([]string, 0, len(validationErrors))

	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed %s", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return strings.Join(messages, "; ")
}
