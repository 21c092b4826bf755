package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var req struct {
		Query string `json:"query"`
	}
	require.NoError(t, ReadJSON(strings.NewReader(`{"query":"ocean"}`), &req))
	assert.Equal(t, "ocean", req.Query)

	require.NoError(t, ReadJSON(strings.NewReader(""), &req), "empty body is allowed")
	assert.Error(t, ReadJSON(strings.NewReader(`{`), &req))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "video not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"video not found"}`, rec.Body.String())
}
