package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	resultsMediaType = "application/sparql-results+json"

	// maxErrorBody bounds how much of an error response we keep.
	maxErrorBody = 512
)

// QueryError is a failed request against the query service.
type QueryError struct {
	StatusCode int
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query service returned status %d: %s", e.StatusCode, e.Body)
}

// WDQSConfig configures the HTTP SPARQL driver.
type WDQSConfig struct {
	// Endpoint is the SPARQL query service URL.
	Endpoint string

	// UserAgent identifies this crawler to the service, per its
	// fair-use policy.
	UserAgent string

	// Timeout bounds a single query round-trip.
	Timeout time.Duration
}

// WDQSDriver executes SPARQL queries against a Wikidata-compatible
// query service over HTTP. A circuit breaker sits in front of the
// endpoint so a flapping service trips fast instead of burning the
// per-batch time budget.
type WDQSDriver struct {
	endpoint  string
	userAgent string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

func NewWDQSDriver(cfg WDQSConfig, logger *zap.Logger) *WDQSDriver {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wdqs",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &WDQSDriver{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		breaker:   breaker,
		logger:    logger,
	}
}

// sparqlResponse is the SPARQL 1.1 JSON results format.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

func (d *WDQSDriver) Query(ctx context.Context, sparql string) (*Result, error) {
	v, err := d.breaker.Execute(func() (interface{}, error) {
		return d.query(ctx, sparql)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (d *WDQSDriver) query(ctx context.Context, sparql string) (*Result, error) {
	params := url.Values{}
	params.Set("query", sparql)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Accept", resultsMediaType)
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &QueryError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode query results: %w", err)
	}

	result := &Result{Rows: make([]Row, 0, len(parsed.Results.Bindings))}
	for _, binding := range parsed.Results.Bindings {
		row := make(Row, len(binding))
		for name, cell := range binding {
			row[name] = cell.Value
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func (d *WDQSDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
