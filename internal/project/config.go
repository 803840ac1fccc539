package project

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/demoplan/demoplan/internal/claude"
	"github.com/demoplan/demoplan/internal/openrouter"
)

//go:embed templates/config.tmpl
var configTemplateText string

// AI provider names.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// Config represents the project configuration stored in
// .demoplan/config.toml.
type Config struct {
	Project ProjectConfig `toml:"project"`
	AI      AIConfig      `toml:"ai"`
	Queue   QueueConfig   `toml:"queue"`
	Export  ExportConfig  `toml:"export"`
	Watch   WatchConfig   `toml:"watch"`
	Logging LoggingConfig `toml:"logging"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name      string    `toml:"name"`
	CreatedAt time.Time `toml:"created_at"`
}

// AIConfig selects and configures the completion backend.
type AIConfig struct {
	// Provider is "openrouter" or "anthropic".
	// Defaults to "openrouter" when not specified.
	Provider string `toml:"provider"`

	// APIKey authenticates against the provider. When empty, the
	// OPENROUTER_API_KEY or ANTHROPIC_API_KEY environment variable is used
	// depending on the provider.
	APIKey string `toml:"api_key"`

	// Model names the completion model. FallbackModel is only used by the
	// openrouter provider, after the primary model has failed repeatedly.
	Model         string `toml:"model"`
	FallbackModel string `toml:"fallback_model"`

	// MaxInputTokens caps the estimated prompt size per request.
	MaxInputTokens *int `toml:"max_input_tokens"`

	// RateLimitRequests per RateLimitSeconds bound the request rate.
	RateLimitRequests *int `toml:"rate_limit_requests"`
	RateLimitSeconds  *int `toml:"rate_limit_seconds"`
}

// GetProvider returns the configured provider, or "openrouter" when not
// specified or invalid.
func (a *AIConfig) GetProvider() string {
	switch a.Provider {
	case ProviderOpenRouter, ProviderAnthropic:
		return a.Provider
	default:
		return ProviderOpenRouter
	}
}

// GetAPIKey returns the configured API key, falling back to the provider's
// environment variable.
func (a *AIConfig) GetAPIKey() string {
	if a.APIKey != "" {
		return a.APIKey
	}
	if a.GetProvider() == ProviderAnthropic {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

// GetModel returns the configured model or the provider's default.
func (a *AIConfig) GetModel() string {
	if a.Model != "" {
		return a.Model
	}
	if a.GetProvider() == ProviderAnthropic {
		return claude.DefaultModel
	}
	return openrouter.DefaultModel
}

// GetFallbackModel returns the configured fallback model or the default.
func (a *AIConfig) GetFallbackModel() string {
	if a.FallbackModel != "" {
		return a.FallbackModel
	}
	return openrouter.DefaultFallbackModel
}

// GetMaxInputTokens returns the input token budget.
// Defaults to 16000 when not specified.
func (a *AIConfig) GetMaxInputTokens() int {
	if a.MaxInputTokens != nil && *a.MaxInputTokens > 0 {
		return *a.MaxInputTokens
	}
	return openrouter.DefaultMaxInputTokens
}

// GetRateLimitRequests returns the request budget per rate-limit period.
// Defaults to 10 when not specified.
func (a *AIConfig) GetRateLimitRequests() int {
	if a.RateLimitRequests != nil && *a.RateLimitRequests > 0 {
		return *a.RateLimitRequests
	}
	return openrouter.DefaultRateLimit
}

// GetRateLimitPeriod returns the rate-limit window.
// Defaults to 60 seconds when not specified.
func (a *AIConfig) GetRateLimitPeriod() time.Duration {
	if a.RateLimitSeconds != nil && *a.RateLimitSeconds > 0 {
		return time.Duration(*a.RateLimitSeconds) * time.Second
	}
	return openrouter.DefaultRatePeriod
}

// QueueConfig contains generation queue configuration.
type QueueConfig struct {
	// Workers is the number of jobs processed concurrently.
	// Defaults to 2 when not specified.
	Workers *int `toml:"workers"`

	// JobTTLMinutes controls how long finished jobs are kept for status
	// queries. Defaults to 60 minutes when not specified.
	JobTTLMinutes *int `toml:"job_ttl_minutes"`
}

// GetWorkers returns the configured worker count or 2 if not specified.
func (q *QueueConfig) GetWorkers() int {
	if q.Workers != nil && *q.Workers > 0 {
		return *q.Workers
	}
	return 2
}

// GetJobTTL returns how long finished jobs are retained.
// Defaults to 60 minutes when not specified.
func (q *QueueConfig) GetJobTTL() time.Duration {
	if q.JobTTLMinutes != nil && *q.JobTTLMinutes > 0 {
		return time.Duration(*q.JobTTLMinutes) * time.Minute
	}
	return 60 * time.Minute
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// Dir is the export directory, relative to the project root.
	// Defaults to "exports" when not specified.
	Dir string `toml:"dir"`

	// Format is the default export format: "json", "markdown" or "text".
	// Defaults to "json" when not specified.
	Format string `toml:"format"`
}

// GetDir returns the configured export directory or "exports" if not set.
func (e *ExportConfig) GetDir() string {
	if e.Dir == "" {
		return "exports"
	}
	return e.Dir
}

// GetFormat returns the configured export format.
// Defaults to "json" when not specified or when an invalid format is
// configured. Valid formats are: "json", "markdown", "text".
func (e *ExportConfig) GetFormat() string {
	switch e.Format {
	case "json", "markdown", "text":
		return e.Format
	default:
		return "json"
	}
}

// WatchConfig contains file watcher configuration.
type WatchConfig struct {
	// Dir is the watched directory, relative to the project root.
	// Defaults to "summaries" when not specified.
	Dir string `toml:"dir"`

	// DebounceSeconds is how long to wait after the last file event before
	// generating. Defaults to 2 seconds when not specified.
	DebounceSeconds *int `toml:"debounce_seconds"`

	// Extensions lists the file extensions that trigger generation.
	// Defaults to [".txt", ".md"] when not specified.
	Extensions []string `toml:"extensions"`
}

// GetDir returns the configured watch directory or "summaries" if not set.
func (w *WatchConfig) GetDir() string {
	if w.Dir == "" {
		return "summaries"
	}
	return w.Dir
}

// GetDebounce returns the debounce interval.
// Defaults to 2 seconds when not specified.
func (w *WatchConfig) GetDebounce() time.Duration {
	if w.DebounceSeconds != nil && *w.DebounceSeconds > 0 {
		return time.Duration(*w.DebounceSeconds) * time.Second
	}
	return 2 * time.Second
}

// GetExtensions returns the watched file extensions.
func (w *WatchConfig) GetExtensions() []string {
	if len(w.Extensions) > 0 {
		return w.Extensions
	}
	return []string{".txt", ".md"}
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum level written to the log file.
	// Valid values: "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// GetLevel returns the configured level, or "" when not specified or
// invalid, leaving the logger on its own default.
func (l *LoggingConfig) GetLevel() string {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return l.Level
	default:
		return ""
	}
}

// LoadConfig reads and parses a config.toml file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the config to the specified path.
func (c *Config) SaveConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveDocumentedConfig writes a fully documented config to the specified
// path, with inline comments explaining all available options.
func (c *Config) SaveDocumentedConfig(path string) error {
	content := c.GenerateDocumentedConfig()
	return os.WriteFile(path, []byte(content), 0600)
}

// configTemplateData holds the data used to render the config template.
type configTemplateData struct {
	ProjectName string
	CreatedAt   string
	Provider    string
}

// tomlString formats a string for TOML output with proper escaping.
func tomlString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}

// configTemplate is the parsed template for generating documented config
// files.
var configTemplate = template.Must(template.New("config").Funcs(template.FuncMap{
	"tomlString": tomlString,
}).Parse(configTemplateText))

// GenerateDocumentedConfig generates a documented config.toml string with
// the project values filled in and commented-out examples for the optional
// settings.
func (c *Config) GenerateDocumentedConfig() string {
	data := configTemplateData{
		ProjectName: c.Project.Name,
		CreatedAt:   c.Project.CreatedAt.Format(time.RFC3339),
		Provider:    c.AI.GetProvider(),
	}

	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		// Fall back to minimal valid TOML if template execution fails.
		return fmt.Sprintf("[project]\nname = %q\ncreated_at = %s\n\n[ai]\nprovider = %q\n",
			c.Project.Name, data.CreatedAt, data.Provider)
	}
	return buf.String()
}
