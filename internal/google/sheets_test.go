package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/dtorcivia/flowdash/internal/config"
)

func newTestServer(t *testing.T, status int, body string, gotPath *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReadRange(t *testing.T) {
	var path string
	srv := newTestServer(t, http.StatusOK,
		`{"range":"Categories!A1:A4","majorDimension":"ROWS","values":[["header"],["B"],["A"]]}`, &path)

	cfg := &config.SheetsConfig{SpreadsheetID: "sheet123"}
	c := newSheetsClientWithOptions(cfg, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())

	rows, err := c.ReadRange(context.Background(), "Categories!A:A")
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"header"}, {"B"}, {"A"}}, rows)
	assert.True(t, strings.HasPrefix(path, "/v4/spreadsheets/sheet123/values/"), path)
}

func TestReadRangeAPIError(t *testing.T) {
	srv := newTestServer(t, http.StatusForbidden,
		`{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`, nil)

	cfg := &config.SheetsConfig{SpreadsheetID: "sheet123"}
	c := newSheetsClientWithOptions(cfg, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())

	_, err := c.ReadRange(context.Background(), "Ideas!A:A")
	assert.ErrorContains(t, err, "Ideas!A:A")
}

func TestReadRangeNotConfigured(t *testing.T) {
	c := NewSheetsClient(&config.SheetsConfig{})
	_, err := c.ReadRange(context.Background(), "A:A")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestReadRangeBadCredentials(t *testing.T) {
	c := NewSheetsClient(&config.SheetsConfig{
		SpreadsheetID:   "sheet123",
		CredentialsJSON: "not json",
	})
	_, err := c.ReadRange(context.Background(), "A:A")
	assert.ErrorContains(t, err, "credentials")
}
