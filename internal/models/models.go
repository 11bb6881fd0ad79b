package models

import "time"

// DateLayout is the calendar-day key used for executions and daily metrics
const DateLayout = "2006-01-02"

// Brand is a tracked brand with its competitors and the questions asked about it
type Brand struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Domain      string     `json:"domain,omitempty" yaml:"domain"`
	Competitors []string   `json:"competitors" yaml:"competitors"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Question is a curated prompt sent to every answer engine
type Question struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Active bool   `json:"active" yaml:"active"`
}

// ActiveQuestions returns the active questions, capped at limit when limit > 0
func (b *Brand) ActiveQuestions(limit int) []Question {
	var active []Question
	for _, q := range b.Questions {
		if !q.Active {
			continue
		}
		active = append(active, q)
		if limit > 0 && len(active) >= limit {
			break
		}
	}
	return active
}

// RawAnswer is what an answer engine adapter returns for one question
type RawAnswer struct {
	Platform       string                 `json:"platform"`
	Model          string                 `json:"model"`
	Content        string                 `json:"content"`
	NativePayload  map[string]interface{} `json:"native_payload"`
	TokensUsed     int                    `json:"tokens_used,omitempty"`
	ResponseTimeMs int                    `json:"response_time_ms,omitempty"`
}

// ErrorMessage returns the adapter error recorded in the payload, if any
func (a *RawAnswer) ErrorMessage() string {
	if a.NativePayload == nil {
		return ""
	}
	if msg, ok := a.NativePayload["error"].(string); ok {
		return msg
	}
	return ""
}

// Execution status values
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// QueryExecution tracks one question sent to one platform
type QueryExecution struct {
	ID               string                 `json:"id"`
	BrandID          string                 `json:"brand_id"`
	QuestionID       string                 `json:"question_id"`
	Platform         string                 `json:"platform"`
	Model            string                 `json:"model"`
	RawResponse      string                 `json:"raw_response"`
	ResponseMetadata map[string]interface{} `json:"response_metadata"`
	Status           string                 `json:"status"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	ExecutedAt       time.Time              `json:"executed_at"`
	Date             string                 `json:"date"`
	ResponseTimeMs   int                    `json:"response_time_ms"`
	TokensUsed       int                    `json:"tokens_used"`
}

// ExecutionRecord pairs an execution with its analysis (nil when the execution failed)
type ExecutionRecord struct {
	Execution QueryExecution  `json:"execution"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
}

// Report is a periodic visibility report for one brand
type Report struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Period      string                 `json:"period"` // "daily" or "weekly"
	Brand       string                 `json:"brand"`
	Metrics     *DailyMetrics          `json:"metrics"`
	Previous    *DailyMetrics          `json:"previous,omitempty"`
	Trends      map[string]Trend       `json:"trends"`
	Summary     map[string]interface{} `json:"summary"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"` // "critical", "urgent", "info"
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Brand     string        `json:"brand"`
	Metrics   *DailyMetrics `json:"metrics,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
