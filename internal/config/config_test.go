package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBrandEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BRAND_NAME", "Acme Corp")
	t.Setenv("BRAND_DOMAIN", "acme.com")
	t.Setenv("COMPETITORS", "Beta Inc, Gamma ,")
	t.Setenv("QUESTIONS", "What is the best CRM?|Which CRM is cheapest, and why?")
}

func TestLoad_Defaults(t *testing.T) {
	setBrandEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "daily", cfg.ReportSchedule)
	assert.Equal(t, "0 0 9 * * *", cfg.AnalysisCron)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 3, cfg.AIMaxRetries)
	assert.Equal(t, 60*time.Second, cfg.AIRequestTimeout)
	assert.Equal(t, 20.0, cfg.AlertDropPercent)

	require.Len(t, cfg.Brands, 1)
	brand := cfg.Brands[0]
	assert.Equal(t, "acme-corp", brand.ID)
	assert.Equal(t, "Acme Corp", brand.Name)
	assert.Equal(t, "acme.com", brand.Domain)
	assert.Equal(t, []string{"Beta Inc", "Gamma"}, brand.Competitors)
	require.Len(t, brand.Questions, 2)
	assert.Equal(t, "acme-corp-q2", brand.Questions[1].ID)
	assert.Equal(t, "Which CRM is cheapest, and why?", brand.Questions[1].Text)
	assert.True(t, brand.Questions[1].Active)
}

func TestLoad_Overrides(t *testing.T) {
	setBrandEnv(t)
	t.Setenv("AI_MAX_RETRIES", "5")
	t.Setenv("AI_REQUEST_TIMEOUT", "90s")
	t.Setenv("ENABLE_GEMINI_GROUNDING", "true")
	t.Setenv("ALERT_DROP_PERCENT", "12.5")
	t.Setenv("MAX_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.AIMaxRetries)
	assert.Equal(t, 90*time.Second, cfg.AIRequestTimeout)
	assert.True(t, cfg.EnableGeminiGrounding)
	assert.Equal(t, 12.5, cfg.AlertDropPercent)
	assert.Equal(t, 4, cfg.MaxWorkers)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "no brand", env: map[string]string{"BRAND_NAME": ""}, want: "at least one brand"},
		{name: "bad schedule", env: map[string]string{"REPORT_SCHEDULE": "hourly"}, want: "REPORT_SCHEDULE"},
		{name: "bad driver", env: map[string]string{"DATABASE_DRIVER": "mysql"}, want: "DATABASE_DRIVER"},
		{name: "email without smtp", env: map[string]string{"NOTIFICATION_EMAIL": "team@example.org"}, want: "SMTP"},
		{name: "negative retries", env: map[string]string{"AI_MAX_RETRIES": "-1"}, want: "AI_MAX_RETRIES"},
		{name: "drop percent", env: map[string]string{"ALERT_DROP_PERCENT": "150"}, want: "ALERT_DROP_PERCENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBrandEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_BrandsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
brands:
  - name: Acme Corp
    domain: acme.com
    competitors: [Beta Inc, Gamma]
    questions:
      - What is the best CRM for startups?
      - id: pricing
        text: Which CRM has the best pricing?
        active: false
  - id: beta
    name: Beta Inc
`), 0o644))
	t.Setenv("BRANDS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Brands, 2)

	acme := cfg.Brands[0]
	assert.Equal(t, "acme-corp", acme.ID)
	require.Len(t, acme.Questions, 2)
	assert.Equal(t, "acme-corp-q1", acme.Questions[0].ID)
	assert.True(t, acme.Questions[0].Active)
	assert.Equal(t, "pricing", acme.Questions[1].ID)
	assert.False(t, acme.Questions[1].Active)

	b, ok := cfg.Brand("beta inc")
	require.True(t, ok)
	assert.Equal(t, "beta", b.ID)

	_, ok = cfg.Brand("unknown")
	assert.False(t, ok)
}

func TestLoad_MissingBrandsFile(t *testing.T) {
	t.Setenv("BRANDS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestParseBrands_DuplicateIDs(t *testing.T) {
	brands, err := ParseBrands([]byte("brands:\n  - name: Acme\n  - name: acme\n"))
	require.NoError(t, err)

	cfg := &Config{
		ReportSchedule:   "daily",
		DatabaseDriver:   "sqlite",
		DatabaseURL:      ":memory:",
		MaxWorkers:       1,
		AlertDropPercent: 20,
		Brands:           brands,
	}
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate brand id")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme-corp", Slug("Acme Corp"))
	assert.Equal(t, "hubspot-crm", Slug("  HubSpot CRM! "))
	assert.Equal(t, "", Slug("!!!"))
}
