// Package api provides the JSON endpoints for triggering workflows and reading status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dtorcivia/flowdash/internal/response"
	"github.com/dtorcivia/flowdash/internal/status"
	"github.com/dtorcivia/flowdash/internal/webhook"
)

const maxPayloadBytes = 1 << 20

// Dispatcher triggers workflow webhooks.
type Dispatcher interface {
	Dispatch(ctx context.Context, op webhook.Operation, payload webhook.Payload) webhook.Result
	WorkflowURL(op webhook.Operation) string
}

// Aggregator recomputes spreadsheet-derived data.
type Aggregator interface {
	RefreshCategories(ctx context.Context) []string
	RefreshStatusCounts(ctx context.Context) status.Counts
}

// Handler serves the JSON API.
type Handler struct {
	dispatcher Dispatcher
	aggregator Aggregator
}

// NewHandler creates a new API handler.
func NewHandler(dispatcher Dispatcher, aggregator Aggregator) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		aggregator: aggregator,
	}
}

// TriggerResponse is the dispatch result as sent to the browser.
type TriggerResponse struct {
	Operation string `json:"operation"`
	webhook.Result
	WorkflowURL string `json:"workflow_url,omitempty"`
}

// CategoriesResponse lists the known categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// StatusCountsResponse holds the per-bucket tallies.
type StatusCountsResponse struct {
	StatusCounts status.Counts `json:"status_counts"`
}

// Trigger dispatches the operation named in the path.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, r.PathValue("operation"))
}

// TriggerLegacy serves the single-hook entry point.
func (h *Handler) TriggerLegacy(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, string(webhook.OpWebhook))
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, name string) {
	op, err := webhook.ParseOperation(name)
	if err != nil {
		response.WriteNotFound(w, "Unknown operation: "+name)
		return
	}

	payload, err := readPayload(r)
	if err != nil {
		response.WriteValidationError(w, "Invalid JSON payload", map[string]any{"error": err.Error()})
		return
	}

	result := h.dispatcher.Dispatch(r.Context(), op, payload)

	resp := TriggerResponse{
		Operation: string(op),
		Result:    result,
	}
	if !result.OK {
		resp.WorkflowURL = h.dispatcher.WorkflowURL(op)
	}
	response.JSON(w, result.HTTPStatus(), resp)
}

// readPayload decodes a JSON body on POST, or collects query parameters on GET.
func readPayload(r *http.Request) (webhook.Payload, error) {
	if r.Method != http.MethodPost {
		q := r.URL.Query()
		if len(q) == 0 {
			return nil, nil
		}
		payload := make(webhook.Payload, len(q))
		for k := range q {
			payload[k] = q.Get(k)
		}
		return payload, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxPayloadBytes {
		return nil, errors.New("payload too large")
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, nil
	}

	var payload webhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Categories recomputes and returns the category list.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, CategoriesResponse{
		Categories: h.aggregator.RefreshCategories(r.Context()),
	})
}

// StatusCounts recomputes and returns the status tallies.
func (h *Handler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, StatusCountsResponse{
		StatusCounts: h.aggregator.RefreshStatusCounts(r.Context()),
	})
}
