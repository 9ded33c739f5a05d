package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/status"
	"github.com/dtorcivia/flowdash/internal/webhook"
)

const ideaURL = "https://hooks.example.com/webhook/idea"

type fakeReader struct {
	rows map[string][][]any
}

func (f *fakeReader) ReadRange(ctx context.Context, a1Range string) ([][]any, error) {
	return f.rows[a1Range], nil
}

func newTestHandler(t *testing.T) (*http.ServeMux, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Webhooks.Operations[config.OperationCreateIdea] = config.OperationConfig{
		URL:         ideaURL,
		WorkflowURL: "https://hooks.example.com/workflow/idea",
	}
	cfg.Sheets.SpreadsheetID = "sheet123"

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	dispatcher := webhook.NewDispatcher(&cfg.Webhooks, client)
	aggregator := status.NewAggregator(&cfg.Sheets, &fakeReader{rows: map[string][][]any{
		config.DefaultCategoryRange: {{"header"}, {"B"}, {"A"}, {"A"}, {""}},
		config.DefaultStatusRange:   {{"header"}, {"Ready_Prompt"}, {"done"}, {"bogus"}},
	}})

	mux := http.NewServeMux()
	NewHandler(dispatcher, aggregator).RegisterRoutes(mux, func(h http.Handler) http.Handler { return h })
	return mux, cfg
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	return got
}

func TestTriggerCreateIdea(t *testing.T) {
	mux, _ := newTestHandler(t)
	httpmock.RegisterResponder("POST", ideaURL, httpmock.NewStringResponder(200, "accepted"))

	rr := serve(mux, "POST", "/trigger/create_idea", `{"category":"Travel"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	got := decode(t, rr)
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, "create_idea", got["operation"])
	assert.EqualValues(t, 200, got["status"])
	assert.Equal(t, "accepted", got["body"])
	assert.NotContains(t, got, "workflow_url")
	assert.NotContains(t, got, "error")
}

func TestTriggerCreateIdeaFromQuery(t *testing.T) {
	mux, _ := newTestHandler(t)
	httpmock.RegisterResponder("POST", ideaURL, httpmock.NewStringResponder(201, ""))

	rr := serve(mux, "GET", "/trigger/create_idea?category=Food", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestTriggerMissingCategory(t *testing.T) {
	mux, _ := newTestHandler(t)

	rr := serve(mux, "POST", "/trigger/create_idea", `{"idea":"no category"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	got := decode(t, rr)
	assert.Equal(t, false, got["ok"])
	assert.Equal(t, webhook.ErrMsgCategoryRequired, got["error"])
	assert.Equal(t, "https://hooks.example.com/workflow/idea", got["workflow_url"])
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestTriggerNotConfigured(t *testing.T) {
	mux, _ := newTestHandler(t)

	for _, target := range []string{"/trigger/create_post", "/trigger-webhook"} {
		rr := serve(mux, "GET", target, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		got := decode(t, rr)
		assert.Equal(t, webhook.ErrMsgNotConfigured, got["error"], target)
	}
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestTriggerUpstreamFailurePassesStatus(t *testing.T) {
	mux, _ := newTestHandler(t)
	httpmock.RegisterResponder("POST", ideaURL, httpmock.NewStringResponder(404, "gone"))

	rr := serve(mux, "POST", "/trigger/create_idea", `{"category":"Travel"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	got := decode(t, rr)
	assert.Equal(t, false, got["ok"])
	assert.EqualValues(t, 404, got["status"])
	assert.Equal(t, "gone", got["body"])
}

func TestTriggerUnknownOperation(t *testing.T) {
	mux, _ := newTestHandler(t)

	rr := serve(mux, "GET", "/trigger/format_disk", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	got := decode(t, rr)
	assert.Equal(t, "NOT_FOUND", got["error"].(map[string]any)["code"])
}

func TestTriggerInvalidJSON(t *testing.T) {
	mux, _ := newTestHandler(t)

	rr := serve(mux, "POST", "/trigger/create_idea", `{"category":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	got := decode(t, rr)
	assert.Equal(t, "VALIDATION_ERROR", got["error"].(map[string]any)["code"])
}

func TestGetCategories(t *testing.T) {
	mux, _ := newTestHandler(t)

	rr := serve(mux, "GET", "/get_categories", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var got CategoriesResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, []string{"A", "B"}, got.Categories)
}

func TestGetStatusCounts(t *testing.T) {
	mux, _ := newTestHandler(t)

	rr := serve(mux, "GET", "/get_status_counts", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var got StatusCountsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, status.Counts{"ready_prompt": 1, "done": 1, "ready_image": 0, "ready_post": 0}, got.StatusCounts)
}
