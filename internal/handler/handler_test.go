package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/internal/metrics"
)

// stubSearcher records the arguments of the last Suggest call.
type stubSearcher struct {
	mu       sync.Mutex
	gotQuery string
	gotLimit int
	resp     *stopsearch.Response
	err      error
	stats    stopsearch.Stats
}

func (s *stubSearcher) Suggest(_ context.Context, query string, limit int) (*stopsearch.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotQuery, s.gotLimit = query, limit
	return s.resp, s.err
}

func (s *stubSearcher) Warm(context.Context) error { return s.err }

func (s *stubSearcher) Stats() stopsearch.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *stubSearcher) Close() error { return nil }

func (s *stubSearcher) setStats(stats stopsearch.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

func (s *stubSearcher) lastCall() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotQuery, s.gotLimit
}

func intPtr(n int) *int { return &n }

func matchedResponse() *stopsearch.Response {
	return &stopsearch.Response{
		Suggestions: []stopsearch.Suggestion{
			{StopID: "U476Z1P", Name: "Náměstí Míru", Lat: 50.0753, Lon: 14.4372},
		},
		TotalFound: intPtr(1),
	}
}

func newTestServer(t *testing.T, searcher stopsearch.Searcher) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)
	server := httptest.NewServer(New(searcher, m).Routes("/metrics"))
	t.Cleanup(server.Close)
	return server, m
}

func decode(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestSuggestGet(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantQuery string
		wantLimit int
	}{
		{name: "query and limit", query: "?q=n%C3%A1m&limit=5", wantQuery: "nám", wantLimit: 5},
		{name: "no limit", query: "?q=and", wantQuery: "and", wantLimit: 0},
		{name: "non-numeric limit", query: "?q=and&limit=ten", wantQuery: "and", wantLimit: 0},
		{name: "negative limit passed through", query: "?q=and&limit=-3", wantQuery: "and", wantLimit: -3},
		{name: "fractional limit truncated", query: "?q=and&limit=5.5", wantQuery: "and", wantLimit: 5},
		{name: "missing query", query: "", wantQuery: "", wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{resp: matchedResponse()}
			server, _ := newTestServer(t, stub)

			res, err := http.Get(server.URL + "/api/v1/stops/suggest" + tt.query)
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			body := decode(t, res)

			if res.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if gotQuery, gotLimit := stub.lastCall(); gotQuery != tt.wantQuery || gotLimit != tt.wantLimit {
				t.Errorf("Suggest(%q, %d), want Suggest(%q, %d)", gotQuery, gotLimit, tt.wantQuery, tt.wantLimit)
			}
			if body["totalFound"] != float64(1) {
				t.Errorf("totalFound = %v, want 1", body["totalFound"])
			}
		})
	}
}

func TestSuggestPost(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLimit  int
	}{
		{name: "number limit", body: `{"query":"nám","limit":3}`, wantStatus: http.StatusOK, wantLimit: 3},
		{name: "string limit", body: `{"query":"nám","limit":"7"}`, wantStatus: http.StatusOK, wantLimit: 7},
		{name: "fractional limit", body: `{"query":"nám","limit":5.5}`, wantStatus: http.StatusOK, wantLimit: 5},
		{name: "fractional string limit", body: `{"query":"nám","limit":"2.9"}`, wantStatus: http.StatusOK, wantLimit: 2},
		{name: "garbage limit", body: `{"query":"nám","limit":"many"}`, wantStatus: http.StatusOK, wantLimit: 0},
		{name: "no limit", body: `{"query":"nám"}`, wantStatus: http.StatusOK, wantLimit: 0},
		{name: "malformed body", body: `{"query":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{resp: matchedResponse()}
			server, _ := newTestServer(t, stub)

			res, err := http.Post(server.URL+"/api/v1/stops/suggest", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			body := decode(t, res)

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if _, ok := body["suggestions"]; !ok {
				t.Error("response has no suggestions field")
			}
			if _, gotLimit := stub.lastCall(); tt.wantStatus == http.StatusOK && gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestSuggest_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		resp        *stopsearch.Response
		err         error
		wantStatus  int
		wantOutcome string
		wantTotal   bool
	}{
		{
			name:        "matched",
			resp:        matchedResponse(),
			wantStatus:  http.StatusOK,
			wantOutcome: metrics.OutcomeMatched,
			wantTotal:   true,
		},
		{
			name:        "empty",
			resp:        &stopsearch.Response{Suggestions: []stopsearch.Suggestion{}, TotalFound: intPtr(0)},
			wantStatus:  http.StatusOK,
			wantOutcome: metrics.OutcomeEmpty,
			wantTotal:   true,
		},
		{
			name:        "too short",
			resp:        &stopsearch.Response{Suggestions: []stopsearch.Suggestion{}},
			wantStatus:  http.StatusOK,
			wantOutcome: metrics.OutcomeTooShort,
		},
		{
			name:        "data unavailable",
			err:         fmt.Errorf("%w: disk gone", stopsearch.ErrDataUnavailable),
			wantStatus:  http.StatusInternalServerError,
			wantOutcome: metrics.OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{resp: tt.resp, err: tt.err}
			server, m := newTestServer(t, stub)

			res, err := http.Get(server.URL + "/api/v1/stops/suggest?q=xyz")
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			body := decode(t, res)

			if res.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			suggestions, ok := body["suggestions"].([]any)
			if !ok {
				t.Fatalf("suggestions = %v, want a JSON array", body["suggestions"])
			}
			if tt.err != nil && len(suggestions) != 0 {
				t.Errorf("error response carries %d suggestions, want 0", len(suggestions))
			}
			if _, ok := body["totalFound"]; ok != tt.wantTotal {
				t.Errorf("totalFound present = %v, want %v", ok, tt.wantTotal)
			}
			if got := testutil.ToFloat64(m.SuggestRequestsTotal.WithLabelValues(tt.wantOutcome)); got != 1 {
				t.Errorf("suggest_requests_total{outcome=%q} = %v, want 1", tt.wantOutcome, got)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	stub := &stubSearcher{}
	server, _ := newTestServer(t, stub)

	res, err := http.Get(server.URL + "/health/live")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("live status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	res, err = http.Get(server.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status before load = %d, want %d", res.StatusCode, http.StatusServiceUnavailable)
	}

	stub.setStats(stopsearch.Stats{Loaded: true, Stops: 6, PrefixBuckets: 14})
	res, err = http.Get(server.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body := decode(t, res)
	if res.StatusCode != http.StatusOK || body["stops"] != float64(6) {
		t.Errorf("ready = %d %v, want 200 with 6 stops", res.StatusCode, body)
	}
}

func TestRequestID(t *testing.T) {
	server, _ := newTestServer(t, &stubSearcher{resp: matchedResponse()})

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}

	res, err = http.Get(server.URL + "/health/live")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if res.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &stubSearcher{resp: matchedResponse()})

	res, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"12", 12},
		{`"4"`, 4},
		{`"x"`, 0},
		{"null", 0},
		{"2.5", 2},
		{"-1.5", -1},
		{`"5.5"`, 5},
		{`"NaN"`, 0},
		{"1e12", math.MaxInt32},
		{"-1", -1},
	}
	for _, tt := range tests {
		if got := parseLimit(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("parseLimit(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
