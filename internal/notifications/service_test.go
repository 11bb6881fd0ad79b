package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/azure/answer-engine-bot/internal/config"
	"github.com/azure/answer-engine-bot/internal/models"
)

type fakeMailer struct {
	mu       sync.Mutex
	messages []*gomail.Message
	err      error
}

func (f *fakeMailer) DialAndSend(m ...*gomail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m...)
	return f.err
}

func newTestService(cfg *config.Config, mailer mailSender) *Service {
	return &Service{config: cfg, client: resty.New(), mailer: mailer}
}

func sampleReport() *models.Report {
	pos := 1.5
	return &models.Report{
		GeneratedAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		Period:      "daily",
		Brand:       "Acme Corp",
		Metrics: &models.DailyMetrics{
			Date:                   "2024-03-01",
			VisibilityScore:        62.5,
			SentimentAvg:           0.4,
			MentionCount:           3,
			ShareOfVoice:           60,
			CompetitorShareOfVoice: map[string]float64{"Beta": 40, "Gamma": 0},
			PlatformBreakdown: map[string]models.PlatformBreakdown{
				"claude":  {Mentions: 1, Queries: 2, VisibilityScore: 50, PositionAvg: &pos},
				"chatgpt": {Mentions: 2, Queries: 2, VisibilityScore: 75},
			},
			TopCitations:      []models.SourceRank{{Domain: "g2.com", Count: 2, Percentage: 66.7}},
			TotalQueries:      4,
			SuccessfulQueries: 4,
		},
		Trends: map[string]models.Trend{
			"visibility_score": {Change: 12.5, Direction: models.TrendUp, Percent: 25},
		},
	}
}

func TestSendReport_Teams(t *testing.T) {
	var received TeamsMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestService(&config.Config{TeamsWebhookURL: srv.URL}, &fakeMailer{})
	require.NoError(t, s.SendReport(sampleReport()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "Answer Engine Visibility - Acme Corp (Daily)", received.Title)
	assert.Contains(t, received.Text, "62.5")
	assert.Contains(t, received.Text, "up 25.0%")
	require.Len(t, received.Sections, 4)

	platforms := received.Sections[1]
	assert.Equal(t, "Platforms", platforms.ActivityTitle)
	require.Len(t, platforms.Facts, 2)
	assert.Equal(t, "chatgpt", platforms.Facts[0].Name)
	assert.Contains(t, platforms.Facts[1].Value, "position 1.5")

	competitors := received.Sections[2]
	assert.Equal(t, "Beta", competitors.Facts[0].Name)
	assert.Contains(t, received.Sections[3].ActivityText, "g2.com (2, 66.7%)")
}

func TestSendReport_TeamsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad card"))
	}))
	defer srv.Close()

	s := newTestService(&config.Config{TeamsWebhookURL: srv.URL}, &fakeMailer{})
	err := s.SendReport(sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams webhook returned status 400")
}

func TestSendReport_Email(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestService(&config.Config{
		NotificationEmail: "team@example.org",
		SMTPUsername:      "bot@example.org",
	}, mailer)

	require.NoError(t, s.SendReport(sampleReport()))
	require.Len(t, mailer.messages, 1)

	m := mailer.messages[0]
	assert.Equal(t, []string{"team@example.org"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Answer Engine Visibility - Acme Corp (Daily): 62.5"}, m.GetHeader("Subject"))
}

func TestSendReport_AggregatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestService(&config.Config{
		TeamsWebhookURL:   srv.URL,
		NotificationEmail: "team@example.org",
	}, &fakeMailer{err: errors.New("smtp down")})

	err := s.SendReport(sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams:")
	assert.Contains(t, err.Error(), "Email: failed to send email: smtp down")
}

func TestSendReport_NoChannelsLogs(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestService(&config.Config{}, mailer)

	assert.NoError(t, s.SendReport(sampleReport()))
	assert.NoError(t, s.SendAlert(&models.Alert{Type: "urgent", Title: "drop"}))
	assert.Empty(t, mailer.messages)
}

func TestSendAlert(t *testing.T) {
	var received TeamsMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mailer := &fakeMailer{}
	s := newTestService(&config.Config{TeamsWebhookURL: srv.URL, NotificationEmail: "team@example.org"}, mailer)

	alert := &models.Alert{
		Type:    "urgent",
		Title:   "Visibility drop for Acme Corp",
		Message: "Visibility fell 30%",
		Brand:   "Acme Corp",
		Metrics: &models.DailyMetrics{Date: "2024-03-02", VisibilityScore: 40},
	}
	require.NoError(t, s.SendAlert(alert))

	assert.Equal(t, colorAlert, received.ThemeColor)
	assert.Equal(t, "Visibility drop for Acme Corp", received.Title)
	require.Len(t, received.Sections, 1)
	assert.Equal(t, "2024-03-02", received.Sections[0].Facts[0].Value)

	require.Len(t, mailer.messages, 1)
	assert.Equal(t, []string{"[URGENT] Visibility drop for Acme Corp"}, mailer.messages[0].GetHeader("Subject"))
}

func TestBuildEmailHTML(t *testing.T) {
	html, err := buildEmailHTML(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, html, "Acme Corp in Answer Engines")
	assert.Contains(t, html, "62.5")
	assert.Contains(t, html, `<span class="up">(up 25.0%)</span>`)
	assert.Contains(t, html, "<td>claude</td>")
	assert.Contains(t, html, "<li>g2.com (2, 66.7%)</li>")

	empty, err := buildEmailHTML(&models.Report{Brand: "Acme Corp", Period: "daily"})
	require.NoError(t, err)
	assert.Contains(t, empty, "No answer engine results")
}

func TestBuildReportText(t *testing.T) {
	text := buildReportText(sampleReport())

	assert.Contains(t, text, "Visibility Score: 62.5 (up 25.0%)")
	assert.Contains(t, text, "Queries: 4 of 4 succeeded")
	assert.Contains(t, text, "chatgpt: visibility 75.0, 2 mentions in 2 queries, position n/a")
	assert.Contains(t, text, "Beta: 40.0%")
	assert.Contains(t, text, "1. g2.com (2, 66.7%)")
}

func TestTrendLabel(t *testing.T) {
	assert.Equal(t, "up 10.0%", trendLabel(models.Trend{Direction: models.TrendUp, Percent: 10}))
	assert.Equal(t, "down 25.5%", trendLabel(models.Trend{Direction: models.TrendDown, Percent: -25.5}))
	assert.Equal(t, "no change", trendLabel(models.Trend{}))
}

func TestSortedShares(t *testing.T) {
	got := sortedShares(map[string]float64{"B": 10, "A": 10, "C": 30})
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].name)
	assert.Equal(t, "A", got[1].name)
	assert.Equal(t, "B", got[2].name)
}
