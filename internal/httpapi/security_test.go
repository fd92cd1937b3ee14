package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil, Options{})

	resp := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRateLimitReturns429(t *testing.T) {
	srv := newTestServer(t, nil, Options{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		resp := srv.do(t, http.MethodGet, "/api/v1/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}
	resp := srv.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflightForAllowedOrigin(t *testing.T) {
	srv := newTestServer(t, nil, Options{AllowedOrigin: "https://backoffice.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://backoffice.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://backoffice.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	srv := newTestServer(t, nil, Options{})

	resp := srv.do(t, http.MethodGet, "/api/v1/checkout", srv.token(t, "admin-1", RoleAdmin), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body["error"])
}
