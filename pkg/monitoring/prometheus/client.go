// Package prometheus wraps the Prometheus HTTP API client used to warm-start
// a CommMatrix from historical traffic metrics (pkg/commatrix/promsource).
package prometheus

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Client wraps the Prometheus API client.
type Client struct {
	api    v1.API
	config Config
}

// Config contains Prometheus client configuration.
type Config struct {
	URL             string
	Timeout         time.Duration
	RefreshInterval time.Duration
}

// QueryResult represents a Prometheus query result.
type QueryResult struct {
	Timestamp time.Time
	Value     float64
	Labels    map[string]string
	Raw       model.Value
}

// New creates a new Prometheus client.
func New(config Config) (*Client, error) {
	apiClient, err := api.NewClient(api.Config{
		Address: config.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	v1api := v1.NewAPI(apiClient)

	return &Client{
		api:    v1api,
		config: config,
	}, nil
}

// QueryInstant executes an instant query at a specific time.
func (c *Client) QueryInstant(ctx context.Context, query string, ts time.Time) ([]QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, warnings, err := c.api.Query(ctx, query, ts)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(warnings) > 0 {
		fmt.Printf("Prometheus warnings: %v\n", warnings)
	}

	return c.parseResult(result)
}

// QueryRange executes a range query over a time window.
func (c *Client) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	r := v1.Range{Start: start, End: end, Step: step}

	result, warnings, err := c.api.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	if len(warnings) > 0 {
		fmt.Printf("Prometheus warnings: %v\n", warnings)
	}

	return c.parseResult(result)
}

// QueryLatest executes an instant query at the current time.
func (c *Client) QueryLatest(ctx context.Context, query string) ([]QueryResult, error) {
	return c.QueryInstant(ctx, query, time.Now())
}

// TestConnection checks reachability of the configured Prometheus server.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	_, _, err := c.api.Query(ctx, "up", time.Now())
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// parseResult converts a Prometheus model.Value into QueryResults.
func (c *Client) parseResult(value model.Value) ([]QueryResult, error) {
	results := make([]QueryResult, 0)

	switch v := value.(type) {
	case model.Vector:
		for _, sample := range v {
			results = append(results, QueryResult{
				Timestamp: sample.Timestamp.Time(),
				Value:     float64(sample.Value),
				Labels:    metricToMap(sample.Metric),
				Raw:       value,
			})
		}

	case model.Matrix:
		for _, stream := range v {
			for _, sample := range stream.Values {
				results = append(results, QueryResult{
					Timestamp: sample.Timestamp.Time(),
					Value:     float64(sample.Value),
					Labels:    metricToMap(stream.Metric),
					Raw:       value,
				})
			}
		}

	case *model.Scalar:
		results = append(results, QueryResult{
			Timestamp: v.Timestamp.Time(),
			Value:     float64(v.Value),
			Labels:    make(map[string]string),
			Raw:       value,
		})

	case *model.String:
		return nil, fmt.Errorf("string result type not supported")

	default:
		return nil, fmt.Errorf("unknown result type: %T", value)
	}

	return results, nil
}

func metricToMap(metric model.Metric) map[string]string {
	labels := make(map[string]string, len(metric))
	for k, v := range metric {
		labels[string(k)] = string(v)
	}
	return labels
}
