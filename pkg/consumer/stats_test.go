package consumer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		body   string
	}{
		{
			name:   "no checks",
			status: http.StatusOK,
			body:   "OK",
		},
		{
			name: "all healthy",
			checks: map[string]HealthCheck{
				"redis": func(context.Context) error { return nil },
				"mongo": func(context.Context) error { return nil },
			},
			status: http.StatusOK,
			body:   "OK",
		},
		{
			name: "one failing",
			checks: map[string]HealthCheck{
				"redis": func(context.Context) error { return errors.New("connection refused") },
				"mongo": func(context.Context) error { return nil },
			},
			status: http.StatusInternalServerError,
			body:   "redis: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			NewHealthHandler(tt.checks).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.body, recorder.Body.String())
		})
	}
}
