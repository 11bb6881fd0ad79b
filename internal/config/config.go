package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/azure/answer-engine-bot/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	ReportSchedule string // "daily" or "weekly"
	TimeZone       string
	AnalysisCron   string
	RecomputeCron  string

	// Persistence
	DatabaseDriver  string // "postgres" or "sqlite"
	DatabaseURL     string
	LocalStorageDir string

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	AlertDropPercent  float64

	// Answer engine credentials and models
	OpenAIAPIKey          string
	OpenAIModel           string
	AzureOpenAIEndpoint   string
	AzureOpenAIKey        string
	AzureOpenAIDeployment string
	AnthropicAPIKey       string
	AnthropicModel        string
	PerplexityAPIKey      string
	PerplexityModel       string
	GoogleAIAPIKey        string
	GeminiModel           string
	EnableGeminiGrounding bool

	// Query execution
	AIRequestTimeout   time.Duration
	AIMaxRetries       int
	AIRetryDelay       time.Duration
	MaxWorkers         int
	MaxQuestionsPerRun int

	// Analysis
	LexiconFile string
	CacheTTL    time.Duration

	// Tracked brands, from BRANDS_FILE or the single-brand variables
	BrandsFile string
	Brands     []models.Brand
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Debug:          getBoolEnv("DEBUG", false),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "daily"),
		TimeZone:       getEnv("TIMEZONE", "UTC"),
		AnalysisCron:   getEnv("ANALYSIS_CRON", "0 0 9 * * *"),
		RecomputeCron:  getEnv("RECOMPUTE_CRON", "0 0 */4 * * *"),

		DatabaseDriver:  getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:     getEnv("DATABASE_URL", "data/answer-engine-bot.db"),
		LocalStorageDir: getEnv("LOCAL_STORAGE_DIR", "data/archive"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "answer-engine"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		AlertDropPercent:  getFloatEnv("ALERT_DROP_PERCENT", 20),

		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		AzureOpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIKey:        getEnv("AZURE_OPENAI_KEY", ""),
		AzureOpenAIDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", ""),
		AnthropicAPIKey:       getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:        getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		PerplexityAPIKey:      getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityModel:       getEnv("PERPLEXITY_MODEL", "sonar-pro"),
		GoogleAIAPIKey:        getEnv("GOOGLE_AI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		EnableGeminiGrounding: getBoolEnv("ENABLE_GEMINI_GROUNDING", false),

		AIRequestTimeout:   getDurationEnv("AI_REQUEST_TIMEOUT", 60*time.Second),
		AIMaxRetries:       getIntEnv("AI_MAX_RETRIES", 3),
		AIRetryDelay:       getDurationEnv("AI_RETRY_DELAY", 2*time.Second),
		MaxWorkers:         getIntEnv("MAX_WORKERS", 4),
		MaxQuestionsPerRun: getIntEnv("MAX_QUESTIONS_PER_RUN", 0),

		LexiconFile: getEnv("LEXICON_FILE", ""),
		CacheTTL:    getDurationEnv("CACHE_TTL", 5*time.Minute),

		BrandsFile: getEnv("BRANDS_FILE", ""),
	}

	brands, err := loadBrands(cfg.BrandsFile)
	if err != nil {
		return nil, err
	}
	cfg.Brands = brands

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("DATABASE_DRIVER must be 'postgres' or 'sqlite'")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.AIMaxRetries < 0 {
		return fmt.Errorf("AI_MAX_RETRIES must not be negative")
	}

	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1")
	}

	if c.AlertDropPercent <= 0 || c.AlertDropPercent > 100 {
		return fmt.Errorf("ALERT_DROP_PERCENT must be in (0, 100]")
	}

	if len(c.Brands) == 0 {
		return fmt.Errorf("at least one brand must be configured (BRANDS_FILE or BRAND_NAME)")
	}

	seen := make(map[string]bool)
	for _, b := range c.Brands {
		if b.Name == "" {
			return fmt.Errorf("brand %q has no name", b.ID)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate brand id %q", b.ID)
		}
		seen[b.ID] = true
	}

	return nil
}

// Brand returns the configured brand with the given id or name
func (c *Config) Brand(key string) (models.Brand, bool) {
	for _, b := range c.Brands {
		if b.ID == key || strings.EqualFold(b.Name, key) {
			return b, true
		}
	}
	return models.Brand{}, false
}

type brandsFile struct {
	Brands []brandEntry `yaml:"brands"`
}

type brandEntry struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Domain      string          `yaml:"domain"`
	Competitors []string        `yaml:"competitors"`
	Questions   []questionEntry `yaml:"questions"`
}

// questionEntry accepts either a plain string or {id, text, active}
type questionEntry struct {
	ID     string `yaml:"id"`
	Text   string `yaml:"text"`
	Active *bool  `yaml:"active"`
}

func (q *questionEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		q.Text = node.Value
		return nil
	}
	type plain questionEntry
	return node.Decode((*plain)(q))
}

func loadBrands(path string) ([]models.Brand, error) {
	if path == "" {
		return brandFromEnv(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read brands file: %w", err)
	}
	return ParseBrands(data)
}

// ParseBrands decodes a brands YAML document. Missing ids are derived from names and
// questions are active unless stated otherwise.
func ParseBrands(data []byte) ([]models.Brand, error) {
	var file brandsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse brands file: %w", err)
	}

	brands := make([]models.Brand, 0, len(file.Brands))
	for _, entry := range file.Brands {
		brand := models.Brand{
			ID:          entry.ID,
			Name:        strings.TrimSpace(entry.Name),
			Domain:      entry.Domain,
			Competitors: trimAll(entry.Competitors),
		}
		if brand.ID == "" {
			brand.ID = Slug(brand.Name)
		}
		for i, q := range entry.Questions {
			if strings.TrimSpace(q.Text) == "" {
				continue
			}
			question := models.Question{ID: q.ID, Text: strings.TrimSpace(q.Text), Active: true}
			if question.ID == "" {
				question.ID = fmt.Sprintf("%s-q%d", brand.ID, i+1)
			}
			if q.Active != nil {
				question.Active = *q.Active
			}
			brand.Questions = append(brand.Questions, question)
		}
		brands = append(brands, brand)
	}
	return brands, nil
}

func brandFromEnv() []models.Brand {
	name := strings.TrimSpace(getEnv("BRAND_NAME", ""))
	if name == "" {
		return nil
	}

	brand := models.Brand{
		ID:          Slug(name),
		Name:        name,
		Domain:      getEnv("BRAND_DOMAIN", ""),
		Competitors: trimAll(getSliceEnv("COMPETITORS", nil)),
	}
	// questions contain commas, so they are separated by '|'
	for i, text := range trimAll(getSeparatedEnv("QUESTIONS", "|", nil)) {
		brand.Questions = append(brand.Questions, models.Question{
			ID:     fmt.Sprintf("%s-q%d", brand.ID, i+1),
			Text:   text,
			Active: true,
		})
	}
	return []models.Brand{brand}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a stable identifier from a brand name
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	return getSeparatedEnv(key, ",", defaultValue)
}

func getSeparatedEnv(key, sep string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, sep)
	}
	return defaultValue
}
