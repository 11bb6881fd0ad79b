package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/cache"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/monitoring"
	"github.com/azure/answer-engine-bot/internal/storage"
)

const defaultTrendDays = 7

// visibilityService is what the HTTP handlers need from the monitoring service
type visibilityService interface {
	GetMetrics() string
	Brands(filter string) ([]models.Brand, error)
	RunAnalysis(ctx context.Context, brandFilter string) (*monitoring.RunSummary, error)
	GetDailyMetrics(ctx context.Context, brandKey, date string) (*models.DailyMetrics, error)
	GetTrend(ctx context.Context, brandKey string, days int, endDate string) (*cache.TrendWindow, error)
}

func newRouter(svc visibilityService) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(svc)).Methods("GET")
	// Manual trigger, runs in the background
	router.HandleFunc("/trigger", triggerHandler(svc)).Methods("POST")
	router.HandleFunc("/brands/{brand}/metrics", dailyMetricsHandler(svc)).Methods("GET")
	router.HandleFunc("/brands/{brand}/trend", trendHandler(svc)).Methods("GET")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func metricsHandler(svc visibilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(svc.GetMetrics()))
	}
}

func triggerHandler(svc visibilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brand := r.URL.Query().Get("brand")
		if _, err := svc.Brands(brand); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		go func() {
			summary, err := svc.RunAnalysis(context.Background(), brand)
			if err != nil {
				logrus.Errorf("Manual analysis trigger failed: %v", err)
				return
			}
			logrus.Infof("Manual analysis run %s finished: %d completed, %d failed", summary.RunID, summary.Completed, summary.Failed)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Analysis triggered successfully"})
	}
}

func dailyMetricsHandler(svc visibilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brand := mux.Vars(r)["brand"]
		if _, err := svc.Brands(brand); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		date := r.URL.Query().Get("date")
		if date != "" {
			if _, err := time.Parse(models.DateLayout, date); err != nil {
				writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
				return
			}
		}

		dm, err := svc.GetDailyMetrics(r.Context(), brand, date)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, errors.New("no metrics for that day"))
				return
			}
			logrus.Errorf("Failed to load daily metrics for %s: %v", brand, err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, dm)
	}
}

func trendHandler(svc visibilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brand := mux.Vars(r)["brand"]
		if _, err := svc.Brands(brand); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		days := defaultTrendDays
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 365 {
				writeError(w, http.StatusBadRequest, errors.New("days must be between 1 and 365"))
				return
			}
			days = n
		}

		end := r.URL.Query().Get("end")
		if end != "" {
			if _, err := time.Parse(models.DateLayout, end); err != nil {
				writeError(w, http.StatusBadRequest, errors.New("end must be YYYY-MM-DD"))
				return
			}
		}

		trend, err := svc.GetTrend(r.Context(), brand, days, end)
		if err != nil {
			logrus.Errorf("Failed to compute trend for %s: %v", brand, err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
