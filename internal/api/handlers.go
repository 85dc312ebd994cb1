package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/internal/scanner"
	"github.com/illi4/asx-screener/internal/signal"
	"github.com/illi4/asx-screener/internal/storage"
	"github.com/illi4/asx-screener/pkg/logger"
)

const (
	dateLayout      = "2006-01-02"
	defaultStrategy = signal.StrategyMRI
	defaultLimit    = 50
	maxLimit        = 500
)

// Evaluator evaluates one strategy on one stock on demand
type Evaluator interface {
	Evaluate(ctx context.Context, code, strategy string, asOf time.Time) (scanner.Outcome, error)
}

// SignalHandler handles strategy and signal endpoints
type SignalHandler struct {
	evaluator Evaluator
	signals   storage.SignalStorage
	location  *time.Location
}

// NewSignalHandler creates a new signal handler. Dates in requests are read
// in loc.
func NewSignalHandler(evaluator Evaluator, signals storage.SignalStorage, loc *time.Location) *SignalHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SignalHandler{
		evaluator: evaluator,
		signals:   signals,
		location:  loc,
	}
}

// ListStrategies handles GET /api/v1/strategies
func (h *SignalHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies := signal.Strategies()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": strategies,
		"count":      len(strategies),
	})
}

// EvaluationResponse is the body of an on-demand evaluation
type EvaluationResponse struct {
	Code       string             `json:"code"`
	Strategy   string             `json:"strategy"`
	AsOf       string             `json:"as_of"`
	Close      float64            `json:"close"`
	Confirmed  bool               `json:"confirmed"`
	Score      float64            `json:"score"`
	Trigger    string             `json:"trigger,omitempty"`
	Summary    string             `json:"summary"`
	Conditions []signal.Condition `json:"conditions"`
}

// Evaluate handles GET /api/v1/signals/{code}?strategy=mri&date=YYYY-MM-DD
func (h *SignalHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	query := r.URL.Query()

	strategy := query.Get("strategy")
	if strategy == "" {
		strategy = defaultStrategy
	}

	var asOf time.Time
	if date := query.Get("date"); date != "" {
		parsed, err := time.ParseInLocation(dateLayout, date, h.location)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	outcome, err := h.evaluator.Evaluate(r.Context(), code, strategy, asOf)
	switch {
	case errors.Is(err, models.ErrUnknownStrategy):
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, models.ErrNoBars):
		respondWithError(w, http.StatusNotFound, "No price history for "+code)
		return
	case err != nil:
		logger.Error("Failed to evaluate signal",
			logger.ErrorField(err),
			logger.String("request_id", RequestID(r.Context())),
			logger.String("stock", code),
			logger.String("strategy", strategy),
		)
		respondWithError(w, http.StatusInternalServerError, "Failed to evaluate signal")
		return
	}

	res := outcome.Result
	respondWithJSON(w, http.StatusOK, EvaluationResponse{
		Code:       code,
		Strategy:   res.Strategy,
		AsOf:       outcome.AsOf.In(h.location).Format(dateLayout),
		Close:      outcome.Close,
		Confirmed:  res.Confirmed,
		Score:      res.Score,
		Trigger:    res.Trigger,
		Summary:    res.Summary(),
		Conditions: res.Conditions,
	})
}

// ListSignals handles GET /api/v1/signals?code=&strategy=&confirmed=&limit=&offset=
func (h *SignalHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := storage.SignalFilter{
		Code:     strings.ToUpper(query.Get("code")),
		Strategy: query.Get("strategy"),
		ScanID:   query.Get("scan_id"),
		Limit:    defaultLimit,
	}

	if v := query.Get("confirmed"); v != "" {
		confirmed, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid confirmed parameter")
			return
		}
		filter.ConfirmedOnly = confirmed
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}

	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		filter.Offset = offset
	}

	for key, dst := range map[string]*time.Time{"from": &filter.StartTime, "to": &filter.EndTime} {
		v := query.Get(key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseInLocation(dateLayout, v, h.location)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid "+key+" date, expected YYYY-MM-DD")
			return
		}
		*dst = parsed
	}

	signals, err := h.signals.GetSignals(r.Context(), filter)
	if err != nil {
		logger.Error("Failed to retrieve signals",
			logger.ErrorField(err),
			logger.String("request_id", RequestID(r.Context())),
		)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}
	if signals == nil {
		signals = []*models.Signal{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// NewRouter wires the API routes. ready reports whether dependencies are
// reachable; nil means always ready.
func NewRouter(h *SignalHandler, ready func(ctx context.Context) error) *mux.Router {
	router := mux.NewRouter()

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/strategies", h.ListStrategies).Methods(http.MethodGet)
	v1.HandleFunc("/signals", h.ListSignals).Methods(http.MethodGet)
	v1.HandleFunc("/signals/{code}", h.Evaluate).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)

	return router
}
