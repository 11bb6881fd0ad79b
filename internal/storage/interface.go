package storage

import (
	"context"
	"errors"

	"github.com/azure/answer-engine-bot/internal/models"
)

// ErrNotFound is returned when a requested record or blob does not exist
var ErrNotFound = errors.New("not found")

// StorageInterface defines the contract for blob storage of run archives and reports
type StorageInterface interface {
	Store(ctx context.Context, filename string, data []byte) error
	Retrieve(ctx context.Context, filename string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, filename string) error
}

// AggregateFunc reduces a consistent snapshot of one brand-day to its metrics row. It
// returns false when no row should exist.
type AggregateFunc func(records []models.ExecutionRecord) (models.DailyMetrics, bool)

// Repository persists executions, analysis results and daily metrics
type Repository interface {
	// SaveExecution inserts an execution or updates its outcome
	SaveExecution(ctx context.Context, exec *models.QueryExecution) error
	// SaveAnalysis stores the analysis of a completed execution. Each execution has at
	// most one analysis.
	SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error
	// ListExecutionRecords returns a brand-day's executions with their analyses
	ListExecutionRecords(ctx context.Context, brandID, date string) ([]models.ExecutionRecord, error)
	// RecomputeDailyMetrics reads the brand-day and writes aggregate's row in one
	// transaction, holding the brand-day lock. It returns nil when aggregate produced no row.
	RecomputeDailyMetrics(ctx context.Context, brandID, date string, aggregate AggregateFunc) (*models.DailyMetrics, error)
	// GetDailyMetrics returns ErrNotFound when the brand-day has no row
	GetDailyMetrics(ctx context.Context, brandID, date string) (*models.DailyMetrics, error)
	// ListDailyMetrics returns the rows with from <= date <= to in date order
	ListDailyMetrics(ctx context.Context, brandID, from, to string) ([]models.DailyMetrics, error)
	Close() error
}
