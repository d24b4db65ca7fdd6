package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/account-service/app"
	"github.com/upb/account-service/config"
	"github.com/upb/account-service/routes"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, "localhost:8080", srv.Addr)
	assert.Equal(t, 30*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
}

func TestApplicationStartup(t *testing.T) {
	ctx := context.Background()
	deps, err := app.NewDependencies(ctx, testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer deps.Close(ctx)

	ts := httptest.NewServer(routes.SetupRoutes(deps))
	defer ts.Close()

	t.Run("health check returns healthy", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["data"].(map[string]interface{})["status"])
	})

	t.Run("readiness check sees the database", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"list users", http.MethodGet, "/api/users", http.StatusUnauthorized},
		{"get current user unauthenticated", http.MethodGet, "/api/users/me", http.StatusUnauthorized},
		{"get user unauthenticated", http.MethodGet, "/api/users/6f1c2a8e-0000-4000-8000-000000000000", http.StatusUnauthorized},
		{"set status unauthenticated", http.MethodPut, "/api/users/6f1c2a8e-0000-4000-8000-000000000000/status", http.StatusUnauthorized},
		{"register without body", http.MethodPost, "/api/users/register", http.StatusBadRequest},
		{"login without body", http.MethodPost, "/api/users/login", http.StatusBadRequest},
		{"not found", http.MethodGet, "/api/v1/nonexistent", http.StatusNotFound},
		{"method not allowed", http.MethodDelete, "/api/users/login", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "endpoint: %s %s", tc.method, tc.path)
		})
	}

	t.Run("request id header is not required", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-Id", "test-request-id")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// Test helpers

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			SQLitePath:  ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			JWTSecret:  "main-test-secret",
			TokenTTL:   time.Hour,
			Issuer:     "account-service",
			BcryptCost: bcrypt.MinCost,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}
