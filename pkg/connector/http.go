package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"tessera-hq/warden/pkg/routing"
)

// HTTPConfig configures the outbound HTTP connector.
type HTTPConfig struct {
	// Timeout bounds one attempt. Default: 60 seconds.
	Timeout time.Duration

	// MaxRetries is how many times a transient failure is retried with
	// exponential backoff. Default: 2.
	MaxRetries int

	// MaxIdleConnsPerHost sizes the connection pool. Default: 10.
	MaxIdleConnsPerHost int

	// AuthHeader and AuthToken, when set, are attached to every request.
	AuthHeader string
	AuthToken  string
}

// HTTP posts decision payloads to target endpoints as JSON. Transient
// failures (network errors and 5xx answers) retry with exponential
// backoff; 4xx answers fail immediately.
type HTTP struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTP creates the connector with a pooled client.
func NewHTTP(cfg HTTPConfig, logger *slog.Logger) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &HTTP{
		config: cfg,
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: logger.With("component", "connector.http"),
	}
}

// Invoke posts the payload to the target's endpoint and decodes the JSON
// answer.
func (h *HTTP) Invoke(ctx context.Context, target *routing.RouteTarget, payload map[string]any) (map[string]any, error) {
	if target.Endpoint == "" {
		return nil, fmt.Errorf("target %s has no endpoint", target.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			h.logger.Debug("retrying invocation",
				"target_id", target.ID,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		output, retryable, err := h.attempt(ctx, target, body)
		if err == nil {
			return output, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		h.logger.Warn("invocation failed, will retry",
			"target_id", target.ID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, lastErr
}

func (h *HTTP) attempt(ctx context.Context, target *routing.RouteTarget, body []byte) (map[string]any, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.config.AuthHeader != "" && h.config.AuthToken != "" {
		req.Header.Set(h.config.AuthHeader, h.config.AuthToken)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, &TimeoutError{TargetID: target.ID, Timeout: h.config.Timeout}
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, true, &InvokeError{TargetID: target.ID, StatusCode: resp.StatusCode, Message: string(msg)}
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, false, &InvokeError{TargetID: target.ID, StatusCode: resp.StatusCode, Message: string(msg)}
	}

	var output map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, false, fmt.Errorf("decode response from %s: %w", target.ID, err)
	}
	return output, false, nil
}
