package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorWithDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteValidationError(rr, "bad payload", map[string]any{"field": "category"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, ErrCodeValidationError, got.Error.Code)
	assert.Equal(t, "bad payload", got.Error.Message)
	assert.Equal(t, "category", got.Error.Details["field"])
}

func TestWriteUnauthorized(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteUnauthorized(rr, "flowdash")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), `realm="flowdash"`)
}
