// Package webhook dispatches workflow operations to their configured webhooks.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/util"
)

// maxResponseBytes caps how much of an upstream body is kept and echoed back.
const maxResponseBytes = 1 << 20

// Payload is the JSON body sent with operations that carry one.
type Payload map[string]any

// Category returns the trimmed category field, or "" when missing or not a string.
func (p Payload) Category() string {
	v, ok := p["category"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Hook runs after every dispatch with the classified result.
type Hook func(ctx context.Context, op Operation, result Result)

// Dispatcher issues webhook calls for operations.
type Dispatcher struct {
	config     *config.WebhooksConfig
	httpClient *http.Client

	mu    sync.RWMutex
	hooks []Hook
}

// NewDispatcher creates a dispatcher. A nil httpClient gets one bounded by the configured timeout.
func NewDispatcher(cfg *config.WebhooksConfig, httpClient *http.Client) *Dispatcher {
	if httpClient == nil {
		timeout := config.DefaultWebhookTimeout
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Dispatcher{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Configured reports whether an operation has a webhook URL.
func (d *Dispatcher) Configured(op Operation) bool {
	return d.config.URL(string(op)) != ""
}

// WorkflowURL returns the workflow page of an operation, or "".
func (d *Dispatcher) WorkflowURL(op Operation) string {
	return d.config.WorkflowURL(string(op))
}

// OnDispatch registers a hook run after each dispatch.
func (d *Dispatcher) OnDispatch(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch calls the webhook bound to op and classifies the outcome.
// Failures are reported in the Result, never as a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, payload Payload) Result {
	start := time.Now()
	result := d.dispatch(ctx, op, payload)

	util.Info("Webhook dispatched",
		"operation", string(op),
		"method", op.Method(),
		"ok", result.OK,
		"status", result.StatusCode(),
		"error", result.ErrorMessage(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	d.mu.RLock()
	hooks := append([]Hook(nil), d.hooks...)
	d.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, op, result)
	}

	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, op Operation, payload Payload) Result {
	url := d.config.URL(string(op))
	if url == "" {
		return failure(http.StatusBadRequest, ErrMsgNotConfigured)
	}

	var body io.Reader
	if op.RequiresPayload() {
		if payload.Category() == "" {
			return failure(http.StatusBadRequest, ErrMsgCategoryRequired)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return failure(http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method(), url, body)
	if err != nil {
		return failure(http.StatusInternalServerError, fmt.Sprintf("failed to create request: %v", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "flowdash/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyError(err)
	}

	return response(resp.StatusCode, string(respBody))
}
