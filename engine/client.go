package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"harmony-chat/config"
	"harmony-chat/internal"
	"harmony-chat/logger"
	"harmony-chat/metrics"
)

// HTTPEngine sends generation requests to the configured inference
// endpoints with round-robin failover driven by the config circuit
// breaker.
type HTTPEngine struct {
	config *config.Config
	obs    *logger.ObservabilityLogger
	client *http.Client
}

// NewHTTPEngine creates an engine client. obs may be nil.
func NewHTTPEngine(cfg *config.Config, obs *logger.ObservabilityLogger) *HTTPEngine {
	return &HTTPEngine{
		config: cfg,
		obs:    obs,
		client: &http.Client{
			Timeout: 10 * time.Minute, // long-running completions
		},
	}
}

// Complete sends the request to the next healthy endpoint, rotating on
// failure until every configured endpoint has been tried once.
func (e *HTTPEngine) Complete(ctx context.Context, req Request) (string, error) {
	attempts := len(e.config.EngineEndpoints)
	if attempts == 0 {
		return "", fmt.Errorf("no engine endpoints configured")
	}

	turnID := internal.GetTurnID(ctx)
	lg := logger.FromContext(ctx, logger.NewConfigAdapter(e.config)).WithComponent("engine")

	var lastErr error
	for i := 0; i < attempts; i++ {
		endpoint := e.config.GetHealthyEngineEndpoint()
		lg.Debug("📤 Sending completion request to %s (attempt %d/%d)", endpoint, i+1, attempts)

		start := time.Now()
		text, err := e.completeAt(ctx, endpoint, req)
		metrics.EngineRequestDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			e.config.RecordEndpointSuccess(endpoint)
			metrics.EngineRequests.WithLabelValues("ok").Inc()
			lg.Debug("📥 Completion received from %s in %.2fs", endpoint, time.Since(start).Seconds())
			return text, nil
		}

		lastErr = err
		e.config.RecordEndpointFailure(endpoint)
		metrics.EngineRequests.WithLabelValues("error").Inc()
		lg.Warn("⚠️ Engine endpoint %s failed: %v", endpoint, err)
		if e.obs != nil {
			e.obs.EngineFailover(turnID, endpoint, err)
		}

		// Cancellation is not an endpoint fault; stop rotating.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	lg.Error("❌ All %d engine endpoints failed: %v", attempts, lastErr)
	return "", fmt.Errorf("all engine endpoints failed: %v", lastErr)
}

// completeAt performs a single request against one endpoint.
func (e *HTTPEngine) completeAt(ctx context.Context, endpoint string, req Request) (string, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if e.config.EngineAPIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.config.EngineAPIKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("engine returned status %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}

	var engineResp Response
	if err := json.Unmarshal(respBody, &engineResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}

	return engineResp.Text, nil
}
