package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/azure/answer-engine-bot/internal/config"
	"github.com/azure/answer-engine-bot/internal/metrics"
	"github.com/azure/answer-engine-bot/internal/models"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	mailer mailSender
}

// mailSender is satisfied by *gomail.Dialer
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

const (
	colorReport = "0078D4"
	colorAlert  = "D13438"
)

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		mailer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (s *Service) channelsConfigured() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends a visibility report via configured notification channels. Without
// any channel the report is written to the log.
func (s *Service) SendReport(report *models.Report) error {
	if !s.channelsConfigured() {
		logrus.WithFields(logrus.Fields{
			"brand":  report.Brand,
			"period": report.Period,
		}).Info(buildReportText(report))
		return nil
	}

	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(buildTeamsReport(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s report to Teams", report.Brand)
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := s.sendReportEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s report via email", report.Brand)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert sends an urgent alert notification
func (s *Service) SendAlert(alert *models.Alert) error {
	if !s.channelsConfigured() {
		logrus.WithFields(logrus.Fields{
			"brand": alert.Brand,
			"type":  alert.Type,
		}).Warnf("%s: %s", alert.Title, alert.Message)
		return nil
	}

	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(buildTeamsAlert(alert)); err != nil {
			logrus.Errorf("Failed to send Teams alert: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		}
	}

	if s.config.NotificationEmail != "" {
		m := s.newMessage(fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Type), alert.Title))
		m.SetBody("text/plain", buildAlertText(alert))
		if err := s.mailer.DialAndSend(m); err != nil {
			logrus.Errorf("Failed to send alert email: %v", err)
			errors = append(errors, fmt.Sprintf("Email: failed to send email: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	logrus.Infof("Sent %s alert for %s", alert.Type, alert.Brand)
	return nil
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildTeamsReport(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: colorReport,
		Title:      fmt.Sprintf("Answer Engine Visibility - %s (%s)", report.Brand, strings.Title(report.Period)),
	}

	dm := report.Metrics
	if dm == nil {
		message.Text = "No answer engine results were recorded for this period"
		return message
	}

	message.Text = fmt.Sprintf("Visibility score %.1f (%s) on %s", dm.VisibilityScore, trendLabel(report.Trends["visibility_score"]), dm.Date)

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts: []TeamsFact{
			{Name: "Visibility Score", Value: fmt.Sprintf("%.1f / 100", dm.VisibilityScore)},
			{Name: "Mentions", Value: fmt.Sprintf("%d (%s)", dm.MentionCount, trendLabel(report.Trends["mention_count"]))},
			{Name: "Share of Voice", Value: fmt.Sprintf("%.1f%%", dm.ShareOfVoice)},
			{Name: "Sentiment", Value: fmt.Sprintf("%+.2f", dm.SentimentAvg)},
			{Name: "Queries", Value: fmt.Sprintf("%d of %d succeeded", dm.SuccessfulQueries, dm.TotalQueries)},
			{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		},
		Markdown: true,
	})

	if len(dm.PlatformBreakdown) > 0 {
		var facts []TeamsFact
		for _, name := range metrics.SortedPlatforms(dm.PlatformBreakdown) {
			facts = append(facts, TeamsFact{Name: name, Value: platformLine(dm.PlatformBreakdown[name])})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Platforms",
			Facts:         facts,
			Markdown:      true,
		})
	}

	if len(dm.CompetitorShareOfVoice) > 0 {
		var facts []TeamsFact
		for _, c := range sortedShares(dm.CompetitorShareOfVoice) {
			facts = append(facts, TeamsFact{Name: c.name, Value: fmt.Sprintf("%.1f%%", c.share)})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Competitor Share of Voice",
			Facts:         facts,
			Markdown:      true,
		})
	}

	if len(dm.TopCitations) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Cited Sources",
			ActivityText:  strings.Join(sourceLines(dm.TopCitations, 5), "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func buildTeamsAlert(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: colorAlert,
		Title:      alert.Title,
		Text:       alert.Message,
	}
	if alert.Metrics != nil {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: alert.Brand,
			Facts: []TeamsFact{
				{Name: "Date", Value: alert.Metrics.Date},
				{Name: "Visibility Score", Value: fmt.Sprintf("%.1f / 100", alert.Metrics.VisibilityScore)},
				{Name: "Mentions", Value: fmt.Sprintf("%d", alert.Metrics.MentionCount)},
			},
		})
	}
	return message
}

func (s *Service) newMessage(subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	return m
}

func (s *Service) sendReportEmail(report *models.Report) error {
	subject := fmt.Sprintf("Answer Engine Visibility - %s (%s)", report.Brand, strings.Title(report.Period))
	if report.Metrics != nil {
		subject = fmt.Sprintf("%s: %.1f", subject, report.Metrics.VisibilityScore)
	}

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := s.newMessage(subject)
	m.SetBody("text/plain", buildReportText(report))
	m.AddAlternative("text/html", htmlBody)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Answer Engine Visibility Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; margin: 10px 0; }
        td, th { border-bottom: 1px solid #ddd; padding: 6px 12px; text-align: left; }
        .up { color: #107c10; }
        .down { color: #d13438; }
        .flat { color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Report.Brand}} in Answer Engines</h1>
        <p>{{.Report.Period}} report generated on {{.Report.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    {{with .Report.Metrics}}
    <div class="summary">
        <h2>Summary for {{.Date}}</h2>
        <p><strong>Visibility Score:</strong> {{printf "%.1f" .VisibilityScore}}
            {{with index $.Report.Trends "visibility_score"}}<span class="{{.Direction}}">({{trend .}})</span>{{end}}</p>
        <p><strong>Mentions:</strong> {{.MentionCount}}</p>
        <p><strong>Share of Voice:</strong> {{printf "%.1f" .ShareOfVoice}}%</p>
        <p><strong>Sentiment:</strong> {{printf "%+.2f" .SentimentAvg}}</p>
        <p><strong>Queries:</strong> {{.SuccessfulQueries}} of {{.TotalQueries}} succeeded</p>
    </div>
    {{else}}
    <p>No answer engine results were recorded for this period.</p>
    {{end}}

    {{if .Platforms}}
    <h2>Platforms</h2>
    <table>
        <tr><th>Platform</th><th>Visibility</th><th>Mentions</th><th>Queries</th><th>Avg Position</th></tr>
        {{range .Platforms}}
        <tr><td>{{.Name}}</td><td>{{printf "%.1f" .VisibilityScore}}</td><td>{{.Mentions}}</td><td>{{.Queries}}</td><td>{{.Position}}</td></tr>
        {{end}}
    </table>
    {{end}}

    {{if .Competitors}}
    <h2>Competitor Share of Voice</h2>
    <table>
        {{range .Competitors}}<tr><td>{{.Name}}</td><td>{{printf "%.1f" .Share}}%</td></tr>{{end}}
    </table>
    {{end}}

    {{if .Sources}}
    <h2>Top Cited Sources</h2>
    <ol>{{range .Sources}}<li>{{.}}</li>{{end}}</ol>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the Answer Engine Visibility Bot.</small></p>
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"trend": trendLabel,
}).Parse(emailTemplate))

type platformRow struct {
	Name            string
	VisibilityScore float64
	Mentions        int
	Queries         int
	Position        string
}

type shareRow struct {
	Name  string
	Share float64
}

func buildEmailHTML(report *models.Report) (string, error) {
	data := struct {
		Report      *models.Report
		Platforms   []platformRow
		Competitors []shareRow
		Sources     []string
	}{Report: report}

	if dm := report.Metrics; dm != nil {
		for _, name := range metrics.SortedPlatforms(dm.PlatformBreakdown) {
			pb := dm.PlatformBreakdown[name]
			data.Platforms = append(data.Platforms, platformRow{
				Name:            name,
				VisibilityScore: pb.VisibilityScore,
				Mentions:        pb.Mentions,
				Queries:         pb.Queries,
				Position:        positionLabel(pb.PositionAvg),
			})
		}
		for _, c := range sortedShares(dm.CompetitorShareOfVoice) {
			data.Competitors = append(data.Competitors, shareRow{Name: c.name, Share: c.share})
		}
		data.Sources = sourceLines(dm.TopCitations, 10)
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func buildReportText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Answer Engine Visibility - %s (%s)\n", report.Brand, strings.Title(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	dm := report.Metrics
	if dm == nil {
		text.WriteString("No answer engine results were recorded for this period.\n")
		return text.String()
	}

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Date: %s\n", dm.Date))
	text.WriteString(fmt.Sprintf("Visibility Score: %.1f (%s)\n", dm.VisibilityScore, trendLabel(report.Trends["visibility_score"])))
	text.WriteString(fmt.Sprintf("Mentions: %d\n", dm.MentionCount))
	text.WriteString(fmt.Sprintf("Share of Voice: %.1f%%\n", dm.ShareOfVoice))
	text.WriteString(fmt.Sprintf("Sentiment: %+.2f\n", dm.SentimentAvg))
	text.WriteString(fmt.Sprintf("Queries: %d of %d succeeded\n", dm.SuccessfulQueries, dm.TotalQueries))

	if len(dm.PlatformBreakdown) > 0 {
		text.WriteString("\nPLATFORMS\n")
		text.WriteString("=========\n")
		for _, name := range metrics.SortedPlatforms(dm.PlatformBreakdown) {
			text.WriteString(fmt.Sprintf("%s: %s\n", name, platformLine(dm.PlatformBreakdown[name])))
		}
	}

	if len(dm.CompetitorShareOfVoice) > 0 {
		text.WriteString("\nCOMPETITORS\n")
		text.WriteString("===========\n")
		for _, c := range sortedShares(dm.CompetitorShareOfVoice) {
			text.WriteString(fmt.Sprintf("%s: %.1f%%\n", c.name, c.share))
		}
	}

	if len(dm.TopCitations) > 0 {
		text.WriteString("\nTOP CITED SOURCES\n")
		text.WriteString("=================\n")
		for i, line := range sourceLines(dm.TopCitations, 10) {
			text.WriteString(fmt.Sprintf("%d. %s\n", i+1, line))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the Answer Engine Visibility Bot.\n")

	return text.String()
}

func buildAlertText(alert *models.Alert) string {
	var text strings.Builder
	text.WriteString(alert.Title + "\n\n")
	text.WriteString(alert.Message + "\n")
	if alert.Metrics != nil {
		text.WriteString(fmt.Sprintf("\nDate: %s\nVisibility Score: %.1f\nMentions: %d\n",
			alert.Metrics.Date, alert.Metrics.VisibilityScore, alert.Metrics.MentionCount))
	}
	return text.String()
}

func trendLabel(t models.Trend) string {
	switch t.Direction {
	case models.TrendUp:
		return fmt.Sprintf("up %.1f%%", t.Percent)
	case models.TrendDown:
		return fmt.Sprintf("down %.1f%%", -t.Percent)
	}
	return "no change"
}

func platformLine(pb models.PlatformBreakdown) string {
	return fmt.Sprintf("visibility %.1f, %d mentions in %d queries, position %s",
		pb.VisibilityScore, pb.Mentions, pb.Queries, positionLabel(pb.PositionAvg))
}

func positionLabel(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *p)
}

func sourceLines(ranks []models.SourceRank, limit int) []string {
	var lines []string
	for i, r := range ranks {
		if i >= limit {
			break
		}
		lines = append(lines, fmt.Sprintf("%s (%d, %.1f%%)", r.Domain, r.Count, r.Percentage))
	}
	return lines
}

type share struct {
	name  string
	share float64
}

// sortedShares orders competitors by share, highest first, then by name
func sortedShares(shares map[string]float64) []share {
	out := make([]share, 0, len(shares))
	for name, v := range shares {
		out = append(out, share{name, v})
	}
	for i := 0; i < len(out)-1; i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].share > out[i].share || (out[j].share == out[i].share && out[j].name < out[i].name) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
