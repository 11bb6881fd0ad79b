package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/adapters"
	"github.com/azure/answer-engine-bot/internal/config"
	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/monitoring"
	"github.com/azure/answer-engine-bot/internal/storage"
)

const outputDir = "test_output"

// cannedAdapter answers every question with a fixed text and payload
type cannedAdapter struct {
	name    string
	model   string
	content string
	payload map[string]interface{}
}

func (a *cannedAdapter) GetName() string   { return a.name }
func (a *cannedAdapter) IsEnabled() bool   { return true }
func (a *cannedAdapter) RateLimitRPM() int { return 0 }

func (a *cannedAdapter) ExecuteQuery(_ context.Context, _ string) models.RawAnswer {
	return models.RawAnswer{
		Platform:       a.name,
		Model:          a.model,
		Content:        a.content,
		NativePayload:  a.payload,
		TokensUsed:     len(strings.Fields(a.content)),
		ResponseTimeMs: 120,
	}
}

// terminalNotifier prints reports and alerts and keeps a JSON copy of each report
type terminalNotifier struct {
	archive storage.StorageInterface
}

func (t *terminalNotifier) SendReport(report *models.Report) error {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📊 ANSWER ENGINE VISIBILITY REPORT: %s\n", report.Brand)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s\n", report.Period)
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	m := report.Metrics
	if m == nil {
		fmt.Println("\nNo analyses recorded for this day.")
		return nil
	}

	fmt.Printf("👁  Visibility score: %.1f\n", m.VisibilityScore)
	fmt.Printf("💭 Sentiment average: %.2f\n", m.SentimentAvg)
	fmt.Printf("📣 Mentions: %d (share of voice %.1f%%)\n", m.MentionCount, m.ShareOfVoice)
	fmt.Printf("✅ Queries: %d of %d succeeded\n", m.SuccessfulQueries, m.TotalQueries)

	fmt.Println("\n📍 Platforms:")
	platforms := make([]string, 0, len(m.PlatformBreakdown))
	for name := range m.PlatformBreakdown {
		platforms = append(platforms, name)
	}
	sort.Strings(platforms)
	for _, name := range platforms {
		p := m.PlatformBreakdown[name]
		position := "n/a"
		if p.PositionAvg != nil {
			position = fmt.Sprintf("%.1f", *p.PositionAvg)
		}
		fmt.Printf("   • %-16s visibility %5.1f | mentions %d/%d | position %s\n",
			name+":", p.VisibilityScore, p.Mentions, p.Queries, position)
	}

	if len(m.CompetitorShareOfVoice) > 0 {
		fmt.Println("\n🏁 Competitor share of voice:")
		for name, share := range m.CompetitorShareOfVoice {
			fmt.Printf("   • %-16s %.1f%%\n", name+":", share)
		}
	}

	if len(m.TopCitations) > 0 {
		fmt.Println("\n🔗 Top cited sources:")
		for i, src := range m.TopCitations {
			if i >= 5 {
				break
			}
			fmt.Printf("   %d. %s (%d, %.1f%%)\n", i+1, src.Domain, src.Count, src.Percentage)
		}
	}

	if err := t.saveReport(report); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save report: %v\n", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *terminalNotifier) SendAlert(alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func (t *terminalNotifier) saveReport(report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("reports/%s_%s.json", config.Slug(report.Brand), report.GeneratedAt.Format("2006-01-02_15-04-05"))
	if err := t.archive.Store(context.Background(), name, data); err != nil {
		return err
	}
	fmt.Printf("\n💾 Report saved to: %s/%s\n", outputDir, name)
	return nil
}

func sampleAdapters() []adapters.Adapter {
	return []adapters.Adapter{
		&cannedAdapter{
			name:  adapters.ChatGPTName,
			model: "gpt-4o",
			content: `Here are the best project management tools for remote teams:

1. **Asana** - flexible task tracking, excellent for cross-functional work.
2. **Acme Boards** - highly recommended for distributed teams, with great async updates.
3. **Trello** - simple kanban boards, but limited reporting.

Acme Boards stands out for its reliable integrations. Source: https://www.g2.com/categories/project-management`,
			payload: map[string]interface{}{
				"annotations": []map[string]interface{}{
					{"url": "https://www.g2.com/categories/project-management", "title": "Best Project Management Software"},
				},
			},
		},
		&cannedAdapter{
			name:  adapters.PerplexityName,
			model: "sonar-pro",
			content: `Popular choices include Asana [1] and Trello [2]. Some reviewers mention Acme Boards,
although its pricing is expensive for small teams and setup can be confusing [3].`,
			payload: map[string]interface{}{
				"search_results": []interface{}{
					map[string]interface{}{"url": "https://www.forbes.com/advisor/business/software/best-project-management-software/", "title": "Best Project Management Software"},
					map[string]interface{}{"url": "https://www.reddit.com/r/projectmanagement/comments/abc/trello_vs_asana/", "title": "Trello vs Asana"},
					map[string]interface{}{"url": "https://www.capterra.com/project-management-software/", "title": "Project Management Software"},
				},
			},
		},
		&cannedAdapter{
			name:    adapters.ClaudeName,
			model:   "claude-sonnet-4-20250514",
			content: "For remote teams, Asana, Monday.com and Trello are the most commonly used tools. Each offers boards, timelines and integrations with chat tools.",
		},
	}
}

func main() {
	fmt.Println("🤖 Answer Engine Bot - Test Report Generator")
	fmt.Println("============================================")

	logrus.SetLevel(logrus.WarnLevel)
	ctx := context.Background()

	brands, err := config.ParseBrands([]byte(`
- name: Acme Boards
  domain: acmeboards.com
  competitors: [Asana, Trello, Monday.com]
  questions:
    - What are the best project management tools for remote teams?
    - Which kanban tool has the best integrations?
`))
	if err != nil {
		fmt.Printf("❌ Failed to parse sample brands: %v\n", err)
		os.Exit(1)
	}

	cfg := &config.Config{
		ReportSchedule:   "daily",
		AIMaxRetries:     0,
		MaxWorkers:       4,
		AlertDropPercent: 20,
		Brands:           brands,
	}

	repo, err := storage.NewSQLRepository(ctx, storage.DriverSQLite, ":memory:")
	if err != nil {
		fmt.Printf("❌ Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	archive, err := storage.NewFileStorage(outputDir)
	if err != nil {
		fmt.Printf("❌ Failed to prepare %s: %v\n", outputDir, err)
		os.Exit(1)
	}

	notifier := &terminalNotifier{archive: archive}
	service := monitoring.NewService(cfg, repo, archive, notifier, sampleAdapters(), lexicon.Default())

	summary, err := service.RunAnalysis(ctx, "")
	if err != nil {
		fmt.Printf("❌ Analysis run failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n✅ Run %s: %d scheduled, %d completed, %d failed in %s\n",
		summary.RunID, summary.Scheduled, summary.Completed, summary.Failed, summary.Duration)

	if err := service.SendDailyReports(ctx); err != nil {
		fmt.Printf("❌ Failed to generate reports: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n📈 Runtime metrics:")
	fmt.Println(service.GetMetrics())
}
