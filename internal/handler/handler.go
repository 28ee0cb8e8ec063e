// Package handler serves stop suggestions over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/internal/logger"
	"github.com/remiges-tech/stopsearch/internal/metrics"
)

// maxBodyBytes bounds POST request bodies.
const maxBodyBytes = 4 << 10

// suggestRequest is the POST body of a suggest call.
type suggestRequest struct {
	Query string          `json:"query"`
	Limit json.RawMessage `json:"limit"`
}

// errorResponse keeps the suggestions field so clients can always read it.
type errorResponse struct {
	Suggestions []stopsearch.Suggestion `json:"suggestions"`
	Error       string                  `json:"error"`
}

// Handler serves the stop suggestion endpoints.
type Handler struct {
	searcher stopsearch.Searcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a handler. m may be nil to disable metrics.
func New(searcher stopsearch.Searcher, m *metrics.Metrics) *Handler {
	return &Handler{
		searcher: searcher,
		metrics:  m,
		logger:   logger.WithComponent("suggest-handler"),
	}
}

// Routes returns the router with all endpoints. When metricsPath is not
// empty and metrics are enabled, the Prometheus handler is mounted there.
func (h *Handler) Routes(metricsPath string) http.Handler {
	router := httprouter.New()

	router.RedirectFixedPath = false
	router.RedirectTrailingSlash = false

	router.HandlerFunc(http.MethodGet, "/api/v1/stops/suggest", h.SuggestGet)
	router.HandlerFunc(http.MethodPost, "/api/v1/stops/suggest", h.SuggestPost)
	router.HandlerFunc(http.MethodGet, "/api/v1/stops/stats", h.Stats)

	router.HandlerFunc(http.MethodGet, "/health/live", h.Live)
	router.HandlerFunc(http.MethodGet, "/health/ready", h.Ready)

	if h.metrics != nil && metricsPath != "" {
		router.Handler(http.MethodGet, metricsPath, h.metrics.Handler())
	}

	return requestID(router)
}

// SuggestGet handles GET /api/v1/stops/suggest?q=&limit=. A fractional limit
// is truncated; a missing or non-numeric one selects the default.
func (h *Handler) SuggestGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.suggest(w, r, query.Get("q"), limitFromString(query.Get("limit")))
}

// SuggestPost handles POST /api/v1/stops/suggest with a JSON body
// {"query": "...", "limit": 10}. The limit may also be a numeric string.
func (h *Handler) SuggestPost(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Suggestions: []stopsearch.Suggestion{},
			Error:       "request body must be a JSON object",
		})
		return
	}
	h.suggest(w, r, req.Query, parseLimit(req.Limit))
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request, query string, limit int) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	resp, err := h.searcher.Suggest(ctx, query, limit)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("suggest failed", "query", query, "error", err)
		h.observe(metrics.OutcomeError, 0, elapsed)

		message := "suggest failed"
		if errors.Is(err, stopsearch.ErrDataUnavailable) {
			message = "stop data unavailable"
		}
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Suggestions: []stopsearch.Suggestion{},
			Error:       message,
		})
		return
	}

	outcome := metrics.OutcomeMatched
	switch {
	case resp.TotalFound == nil:
		outcome = metrics.OutcomeTooShort
	case *resp.TotalFound == 0:
		outcome = metrics.OutcomeEmpty
	}
	h.observe(outcome, len(resp.Suggestions), elapsed)

	log.Debug("suggest completed",
		"query", query,
		"limit", limit,
		"outcome", outcome,
		"returned", len(resp.Suggestions),
		"latency_us", elapsed.Microseconds(),
	)

	h.writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/v1/stops/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Stats())
}

// Live reports that the process is serving.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

// Ready reports whether the stop catalog has been loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	stats := h.searcher.Stats()
	if !stats.Loaded {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "up", "stops": stats.Stops})
}

func (h *Handler) observe(outcome string, results int, elapsed time.Duration) {
	if h.metrics != nil {
		h.metrics.ObserveSuggest(outcome, results, elapsed)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// parseLimit accepts a JSON number or numeric string. Anything else, or an
// absent limit, yields 0.
func parseLimit(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return truncateLimit(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return limitFromString(s)
	}
	return 0
}

// limitFromString parses a decimal limit, truncating any fraction toward
// zero. Non-numeric input yields 0.
func limitFromString(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return truncateLimit(n)
}

// truncateLimit drops the fraction of n. NaN and infinities yield 0, and
// values beyond the int32 range are pinned to it so clamping still applies.
func truncateLimit(n float64) int {
	switch {
	case math.IsNaN(n) || math.IsInf(n, 0):
		return 0
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int(n)
}

// requestID tags each request context with the X-Request-ID header, or a
// fresh UUID, and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
