package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMetricsRouter(apiKey string) *gin.Engine {
	r := gin.New()
	r.Use(MetricsAuthMiddleware(apiKey))
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func doMetricsRequest(r *gin.Engine, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
	}{
		{
			name:          "valid_api_key",
			configuredKey: "scrape-key",
			requestKey:    "scrape-key",
			wantStatus:    http.StatusOK,
		},
		{
			name:          "invalid_api_key",
			configuredKey: "scrape-key",
			requestKey:    "wrong-key",
			wantStatus:    http.StatusUnauthorized,
		},
		{
			name:          "missing_api_key",
			configuredKey: "scrape-key",
			requestKey:    "",
			wantStatus:    http.StatusUnauthorized,
		},
		{
			name:          "open_when_unconfigured",
			configuredKey: "",
			requestKey:    "",
			wantStatus:    http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupMetricsRouter(tt.configuredKey)
			rec := doMetricsRequest(r, tt.requestKey)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
