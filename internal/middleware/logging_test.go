package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"ok without explicit header", 0, "hello", "INFO"},
		{"not found", http.StatusNotFound, "", "WARN"},
		{"server error", http.StatusInternalServerError, "boom", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			h := chimiddleware.RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.body))
			})))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipes/1", nil))

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, "GET", line["method"])
			assert.Equal(t, "/recipes/1", line["path"])
			assert.EqualValues(t, want, line["status"])
			assert.EqualValues(t, len(tt.body), line["bytes"])
			assert.NotEmpty(t, line["requestID"])
		})
	}
}
