// Package config provides configuration for the research client.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Required setting names. All four must be present before any remote call.
const (
	KeyProjectEndpoint   = "PROJECT_ENDPOINT"
	KeyBingResourceName  = "BING_RESOURCE_NAME"
	KeyDeepResearchModel = "DEEP_RESEARCH_MODEL_DEPLOYMENT_NAME"
	KeyModelDeployment   = "MODEL_DEPLOYMENT_NAME"
)

// RequiredKeys lists the required settings in reporting order.
var RequiredKeys = []string{
	KeyProjectEndpoint,
	KeyBingResourceName,
	KeyDeepResearchModel,
	KeyModelDeployment,
}

// ModeMock selects the in-process fake agent service.
const ModeMock = "MOCK"

// DefaultEnvFile is read when present.
const DefaultEnvFile = ".env"

// ErrMissingRequired is matched by errors.Is for a *MissingError.
var ErrMissingRequired = errors.New("required configuration missing")

// MissingError lists every required setting that was not provided.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required configuration missing: %s", strings.Join(e.Names, ", "))
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissingRequired
}

// Config holds the research client configuration.
type Config struct {
	// Remote project
	ProjectEndpoint   string
	BingResourceName  string
	DeepResearchModel string
	ModelDeployment   string
	APIVersion        string

	// Polling
	PollInterval time.Duration
	MaxWait      time.Duration // zero means poll until terminal

	// Output
	SummaryPath string
	KeepAgent   bool

	// Optional collaborators
	JournalDSN string
	PolicyFile string
	Mode       string

	// Logging
	LogLevel string

	// EnvFile is the dotenv file that was read, empty if none.
	EnvFile string
}

// Load loads configuration from the dotenv file (if present) and environment
// variables. Environment variables take precedence over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("AGENTS_API_VERSION", "v1")
	v.SetDefault("RESEARCH_POLL_INTERVAL_MS", 1000)
	v.SetDefault("RESEARCH_MAX_WAIT", "0s")
	v.SetDefault("RESEARCH_SUMMARY_PATH", "research_summary.md")
	v.SetDefault("KEEP_AGENT", false)
	v.SetDefault("LOG_LEVEL", "info")

	envFile := os.Getenv("RESEARCH_ENV_FILE")
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	readFile := ""
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		readFile = envFile
	}
	v.AutomaticEnv()

	pollMS, err := cast.ToIntE(strings.TrimSpace(v.GetString("RESEARCH_POLL_INTERVAL_MS")))
	if err != nil {
		return nil, fmt.Errorf("invalid RESEARCH_POLL_INTERVAL_MS: %w", err)
	}
	maxWait, err := parseMaxWait(v.GetString("RESEARCH_MAX_WAIT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectEndpoint:   strings.TrimSpace(v.GetString(KeyProjectEndpoint)),
		BingResourceName:  strings.TrimSpace(v.GetString(KeyBingResourceName)),
		DeepResearchModel: strings.TrimSpace(v.GetString(KeyDeepResearchModel)),
		ModelDeployment:   strings.TrimSpace(v.GetString(KeyModelDeployment)),
		APIVersion:        v.GetString("AGENTS_API_VERSION"),
		PollInterval:      time.Duration(pollMS) * time.Millisecond,
		MaxWait:           maxWait,
		SummaryPath:       v.GetString("RESEARCH_SUMMARY_PATH"),
		KeepAgent:         v.GetBool("KEEP_AGENT"),
		JournalDSN:        v.GetString("RESEARCH_JOURNAL_DSN"),
		PolicyFile:        v.GetString("RESEARCH_POLICY_FILE"),
		Mode:              strings.ToUpper(v.GetString("RESEARCH_MODE")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		EnvFile:           readFile,
	}
	return cfg, nil
}

// parseMaxWait accepts a Go duration; empty or zero disables the limit.
func parseMaxWait(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid RESEARCH_MAX_WAIT: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid RESEARCH_MAX_WAIT: %s is negative", raw)
	}
	return d, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	values := map[string]string{
		KeyProjectEndpoint:   c.ProjectEndpoint,
		KeyBingResourceName:  c.BingResourceName,
		KeyDeepResearchModel: c.DeepResearchModel,
		KeyModelDeployment:   c.ModelDeployment,
	}
	var missing []string
	for _, key := range RequiredKeys {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Names: missing}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid RESEARCH_POLL_INTERVAL_MS: %s is not positive", c.PollInterval)
	}
	return nil
}

// IsMock reports whether the fake agent service was requested.
func (c *Config) IsMock() bool {
	return c.Mode == ModeMock
}
