package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/azure/answer-engine-bot/internal/models"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Timestamps are stored as RFC 3339 text so both drivers round-trip them identically
const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS query_executions (
	id TEXT PRIMARY KEY,
	brand_id TEXT NOT NULL,
	question_id TEXT NOT NULL,
	platform TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	raw_response TEXT NOT NULL DEFAULT '',
	response_metadata TEXT NOT NULL DEFAULT '{}',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	executed_at TEXT NOT NULL,
	day TEXT NOT NULL,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	tokens_used INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_query_executions_brand_day ON query_executions(brand_id, day);

CREATE TABLE IF NOT EXISTS analysis_results (
	id TEXT PRIMARY KEY,
	execution_id TEXT NOT NULL UNIQUE,
	brand_id TEXT NOT NULL,
	data TEXT NOT NULL,
	analyzed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_metrics (
	id TEXT PRIMARY KEY,
	brand_id TEXT NOT NULL,
	day TEXT NOT NULL,
	visibility_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	sentiment_avg DOUBLE PRECISION NOT NULL DEFAULT 0,
	mention_count INTEGER NOT NULL DEFAULT 0,
	share_of_voice DOUBLE PRECISION NOT NULL DEFAULT 0,
	competitor_share_of_voice TEXT NOT NULL DEFAULT '{}',
	platform_breakdown TEXT NOT NULL DEFAULT '{}',
	top_citations TEXT NOT NULL DEFAULT '[]',
	total_queries INTEGER NOT NULL DEFAULT 0,
	successful_queries INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (brand_id, day)
);
`

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	Rebind(query string) string
}

// SQLRepository is the Repository over Postgres or SQLite
type SQLRepository struct {
	db     *sqlx.DB
	driver string
}

// Ensure SQLRepository implements Repository
var _ Repository = (*SQLRepository)(nil)

// NewSQLRepository connects to the database and creates the schema if needed. For SQLite
// the dsn may be a plain file path or ":memory:".
func NewSQLRepository(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite serializes writers; one connection also keeps ":memory:" databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	repo := &SQLRepository{db: db, driver: driver}
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logrus.Infof("Connected to %s database", driver)
	return repo, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type executionRow struct {
	ID               string         `db:"id"`
	BrandID          string         `db:"brand_id"`
	QuestionID       string         `db:"question_id"`
	Platform         string         `db:"platform"`
	Model            string         `db:"model"`
	RawResponse      string         `db:"raw_response"`
	ResponseMetadata string         `db:"response_metadata"`
	Status           string         `db:"status"`
	ErrorMessage     string         `db:"error_message"`
	ExecutedAt       string         `db:"executed_at"`
	Day              string         `db:"day"`
	ResponseTimeMs   int            `db:"response_time_ms"`
	TokensUsed       int            `db:"tokens_used"`
	AnalysisData     sql.NullString `db:"analysis_data"`
}

// SaveExecution inserts an execution or updates its outcome. Missing ID, timestamp and
// date are filled in on the passed record.
func (r *SQLRepository) SaveExecution(ctx context.Context, exec *models.QueryExecution) error {
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.ExecutedAt.IsZero() {
		exec.ExecutedAt = time.Now().UTC()
	}
	if exec.Date == "" {
		exec.Date = exec.ExecutedAt.UTC().Format(models.DateLayout)
	}
	if exec.Status == "" {
		exec.Status = models.StatusPending
	}

	metadata := exec.ResponseMetadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode response metadata: %w", err)
	}

	row := executionRow{
		ID:               exec.ID,
		BrandID:          exec.BrandID,
		QuestionID:       exec.QuestionID,
		Platform:         exec.Platform,
		Model:            exec.Model,
		RawResponse:      exec.RawResponse,
		ResponseMetadata: string(metaJSON),
		Status:           exec.Status,
		ErrorMessage:     exec.ErrorMessage,
		ExecutedAt:       exec.ExecutedAt.UTC().Format(timeLayout),
		Day:              exec.Date,
		ResponseTimeMs:   exec.ResponseTimeMs,
		TokensUsed:       exec.TokensUsed,
	}

	query := `
		INSERT INTO query_executions (
			id, brand_id, question_id, platform, model, raw_response, response_metadata,
			status, error_message, executed_at, day, response_time_ms, tokens_used
		) VALUES (
			:id, :brand_id, :question_id, :platform, :model, :raw_response, :response_metadata,
			:status, :error_message, :executed_at, :day, :response_time_ms, :tokens_used
		)
		ON CONFLICT (id) DO UPDATE SET
			model = excluded.model,
			raw_response = excluded.raw_response,
			response_metadata = excluded.response_metadata,
			status = excluded.status,
			error_message = excluded.error_message,
			response_time_ms = excluded.response_time_ms,
			tokens_used = excluded.tokens_used`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save execution %s: %w", exec.ID, err)
	}
	return nil
}

// SaveAnalysis stores an analysis result. A second result for the same execution is
// ignored, keeping results immutable under retries.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	if result.ExecutionID == "" {
		return fmt.Errorf("analysis result has no execution id")
	}
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = time.Now().UTC()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO analysis_results (id, execution_id, brand_id, data, analyzed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (execution_id) DO NOTHING`)

	_, err = r.db.ExecContext(ctx, query,
		result.ID, result.ExecutionID, result.BrandID, string(data), result.AnalyzedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save analysis for execution %s: %w", result.ExecutionID, err)
	}
	return nil
}

// ListExecutionRecords returns a brand-day's executions in execution order
func (r *SQLRepository) ListExecutionRecords(ctx context.Context, brandID, date string) ([]models.ExecutionRecord, error) {
	return listExecutionRecords(ctx, r.db, brandID, date)
}

func listExecutionRecords(ctx context.Context, q queryer, brandID, date string) ([]models.ExecutionRecord, error) {
	query := q.Rebind(`
		SELECT e.id, e.brand_id, e.question_id, e.platform, e.model, e.raw_response,
			e.response_metadata, e.status, e.error_message, e.executed_at, e.day,
			e.response_time_ms, e.tokens_used, a.data AS analysis_data
		FROM query_executions e
		LEFT JOIN analysis_results a ON a.execution_id = e.id
		WHERE e.brand_id = ? AND e.day = ?
		ORDER BY e.executed_at, e.id`)

	var rows []executionRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, brandID, date); err != nil {
		return nil, fmt.Errorf("failed to list executions for %s on %s: %w", brandID, date, err)
	}

	records := make([]models.ExecutionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (row executionRow) toRecord() (models.ExecutionRecord, error) {
	executedAt, err := time.Parse(timeLayout, row.ExecutedAt)
	if err != nil {
		return models.ExecutionRecord{}, fmt.Errorf("execution %s has invalid timestamp: %w", row.ID, err)
	}

	var metadata map[string]interface{}
	if row.ResponseMetadata != "" {
		if err := json.Unmarshal([]byte(row.ResponseMetadata), &metadata); err != nil {
			return models.ExecutionRecord{}, fmt.Errorf("execution %s has invalid metadata: %w", row.ID, err)
		}
	}

	rec := models.ExecutionRecord{
		Execution: models.QueryExecution{
			ID:               row.ID,
			BrandID:          row.BrandID,
			QuestionID:       row.QuestionID,
			Platform:         row.Platform,
			Model:            row.Model,
			RawResponse:      row.RawResponse,
			ResponseMetadata: metadata,
			Status:           row.Status,
			ErrorMessage:     row.ErrorMessage,
			ExecutedAt:       executedAt,
			Date:             row.Day,
			ResponseTimeMs:   row.ResponseTimeMs,
			TokensUsed:       row.TokensUsed,
		},
	}

	if row.AnalysisData.Valid {
		var analysis models.AnalysisResult
		if err := json.Unmarshal([]byte(row.AnalysisData.String), &analysis); err != nil {
			return models.ExecutionRecord{}, fmt.Errorf("analysis of execution %s is invalid: %w", row.ID, err)
		}
		rec.Analysis = &analysis
	}

	return rec, nil
}

type dailyRow struct {
	ID                     string  `db:"id"`
	BrandID                string  `db:"brand_id"`
	Day                    string  `db:"day"`
	VisibilityScore        float64 `db:"visibility_score"`
	SentimentAvg           float64 `db:"sentiment_avg"`
	MentionCount           int     `db:"mention_count"`
	ShareOfVoice           float64 `db:"share_of_voice"`
	CompetitorShareOfVoice string  `db:"competitor_share_of_voice"`
	PlatformBreakdown      string  `db:"platform_breakdown"`
	TopCitations           string  `db:"top_citations"`
	TotalQueries           int     `db:"total_queries"`
	SuccessfulQueries      int     `db:"successful_queries"`
	CreatedAt              string  `db:"created_at"`
	UpdatedAt              string  `db:"updated_at"`
}

const dailyColumns = `id, brand_id, day, visibility_score, sentiment_avg, mention_count,
	share_of_voice, competitor_share_of_voice, platform_breakdown, top_citations,
	total_queries, successful_queries, created_at, updated_at`

func newDailyRow(dm models.DailyMetrics, now time.Time) (dailyRow, error) {
	competitors := dm.CompetitorShareOfVoice
	if competitors == nil {
		competitors = map[string]float64{}
	}
	breakdown := dm.PlatformBreakdown
	if breakdown == nil {
		breakdown = map[string]models.PlatformBreakdown{}
	}
	top := dm.TopCitations
	if top == nil {
		top = []models.SourceRank{}
	}

	competitorJSON, err := json.Marshal(competitors)
	if err != nil {
		return dailyRow{}, fmt.Errorf("failed to encode competitor share of voice: %w", err)
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return dailyRow{}, fmt.Errorf("failed to encode platform breakdown: %w", err)
	}
	topJSON, err := json.Marshal(top)
	if err != nil {
		return dailyRow{}, fmt.Errorf("failed to encode top citations: %w", err)
	}

	return dailyRow{
		ID:                     uuid.New().String(),
		BrandID:                dm.BrandID,
		Day:                    dm.Date,
		VisibilityScore:        dm.VisibilityScore,
		SentimentAvg:           dm.SentimentAvg,
		MentionCount:           dm.MentionCount,
		ShareOfVoice:           dm.ShareOfVoice,
		CompetitorShareOfVoice: string(competitorJSON),
		PlatformBreakdown:      string(breakdownJSON),
		TopCitations:           string(topJSON),
		TotalQueries:           dm.TotalQueries,
		SuccessfulQueries:      dm.SuccessfulQueries,
		CreatedAt:              now.Format(timeLayout),
		UpdatedAt:              now.Format(timeLayout),
	}, nil
}

func (row dailyRow) toModel() (models.DailyMetrics, error) {
	dm := models.DailyMetrics{
		ID:                row.ID,
		BrandID:           row.BrandID,
		Date:              row.Day,
		VisibilityScore:   row.VisibilityScore,
		SentimentAvg:      row.SentimentAvg,
		MentionCount:      row.MentionCount,
		ShareOfVoice:      row.ShareOfVoice,
		TotalQueries:      row.TotalQueries,
		SuccessfulQueries: row.SuccessfulQueries,
	}

	if err := json.Unmarshal([]byte(row.CompetitorShareOfVoice), &dm.CompetitorShareOfVoice); err != nil {
		return dm, fmt.Errorf("daily metrics %s: invalid competitor share of voice: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.PlatformBreakdown), &dm.PlatformBreakdown); err != nil {
		return dm, fmt.Errorf("daily metrics %s: invalid platform breakdown: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.TopCitations), &dm.TopCitations); err != nil {
		return dm, fmt.Errorf("daily metrics %s: invalid top citations: %w", row.ID, err)
	}

	var err error
	if dm.CreatedAt, err = time.Parse(timeLayout, row.CreatedAt); err != nil {
		return dm, fmt.Errorf("daily metrics %s: invalid created_at: %w", row.ID, err)
	}
	if dm.UpdatedAt, err = time.Parse(timeLayout, row.UpdatedAt); err != nil {
		return dm, fmt.Errorf("daily metrics %s: invalid updated_at: %w", row.ID, err)
	}

	return dm, nil
}

// RecomputeDailyMetrics rebuilds a brand-day inside one transaction. On Postgres a
// transaction-scoped advisory lock keyed by brand and date makes concurrent recomputations
// take turns; SQLite already serializes writers. The row keeps its ID and created_at
// across recomputations.
func (r *SQLRepository) RecomputeDailyMetrics(ctx context.Context, brandID, date string, aggregate AggregateFunc) (*models.DailyMetrics, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if r.driver == DriverPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, brandID+"|"+date); err != nil {
			return nil, fmt.Errorf("failed to lock %s on %s: %w", brandID, date, err)
		}
	}

	records, err := listExecutionRecords(ctx, tx, brandID, date)
	if err != nil {
		return nil, err
	}

	dm, ok := aggregate(records)
	if !ok {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil
	}
	dm.BrandID = brandID
	dm.Date = date

	row, err := newDailyRow(dm, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO daily_metrics (` + dailyColumns + `) VALUES (
			:id, :brand_id, :day, :visibility_score, :sentiment_avg, :mention_count,
			:share_of_voice, :competitor_share_of_voice, :platform_breakdown, :top_citations,
			:total_queries, :successful_queries, :created_at, :updated_at
		)
		ON CONFLICT (brand_id, day) DO UPDATE SET
			visibility_score = excluded.visibility_score,
			sentiment_avg = excluded.sentiment_avg,
			mention_count = excluded.mention_count,
			share_of_voice = excluded.share_of_voice,
			competitor_share_of_voice = excluded.competitor_share_of_voice,
			platform_breakdown = excluded.platform_breakdown,
			top_citations = excluded.top_citations,
			total_queries = excluded.total_queries,
			successful_queries = excluded.successful_queries,
			updated_at = excluded.updated_at`

	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return nil, fmt.Errorf("failed to upsert daily metrics for %s on %s: %w", brandID, date, err)
	}

	saved, err := getDailyMetrics(ctx, tx, brandID, date)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return saved, nil
}

// GetDailyMetrics returns the metrics row of a brand-day
func (r *SQLRepository) GetDailyMetrics(ctx context.Context, brandID, date string) (*models.DailyMetrics, error) {
	return getDailyMetrics(ctx, r.db, brandID, date)
}

func getDailyMetrics(ctx context.Context, q queryer, brandID, date string) (*models.DailyMetrics, error) {
	query := q.Rebind(`SELECT ` + dailyColumns + ` FROM daily_metrics WHERE brand_id = ? AND day = ?`)

	var row dailyRow
	if err := sqlx.GetContext(ctx, q, &row, query, brandID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("daily metrics for %s on %s: %w", brandID, date, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get daily metrics for %s on %s: %w", brandID, date, err)
	}

	dm, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &dm, nil
}

// ListDailyMetrics returns the brand's rows between from and to inclusive, oldest first
func (r *SQLRepository) ListDailyMetrics(ctx context.Context, brandID, from, to string) ([]models.DailyMetrics, error) {
	query := r.db.Rebind(`SELECT ` + dailyColumns + ` FROM daily_metrics
		WHERE brand_id = ? AND day >= ? AND day <= ? ORDER BY day`)

	var rows []dailyRow
	if err := r.db.SelectContext(ctx, &rows, query, brandID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list daily metrics for %s: %w", brandID, err)
	}

	result := make([]models.DailyMetrics, 0, len(rows))
	for _, row := range rows {
		dm, err := row.toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, dm)
	}
	return result, nil
}
