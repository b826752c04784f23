package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOperatorAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		enabled bool
		auth    func(r *http.Request)
		want    int
	}{
		{"disabled guard", false, func(*http.Request) {}, http.StatusOK},
		{"valid credentials", true, func(r *http.Request) { r.SetBasicAuth("operator", "s3cret") }, http.StatusOK},
		{"missing header", true, func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong user", true, func(r *http.Request) { r.SetBasicAuth("admin", "s3cret") }, http.StatusUnauthorized},
		{"wrong password", true, func(r *http.Request) { r.SetBasicAuth("operator", "guess") }, http.StatusUnauthorized},
		{"empty basic", true, func(r *http.Request) { r.Header.Set("Authorization", "Basic") }, http.StatusUnauthorized},
		{"bad base64", true, func(r *http.Request) { r.Header.Set("Authorization", "Basic %%%") }, http.StatusUnauthorized},
		{"bearer", true, func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := gin.New()
			router.GET("/stats", operatorAuthMiddleware(tt.enabled, "operator", "operator", "s3cret"), func(c *gin.Context) {
				c.String(http.StatusOK, "stats")
			})

			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			tt.auth(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="operator"`, w.Header().Get("WWW-Authenticate"))
			} else {
				assert.Equal(t, "stats", w.Body.String())
			}
		})
	}
}

func TestCredentialsMatch(t *testing.T) {
	t.Parallel()
	assert.True(t, credentialsMatch("a", "b", "a", "b"))
	assert.False(t, credentialsMatch("a", "x", "a", "b"))
	assert.False(t, credentialsMatch("x", "b", "a", "b"))
	assert.False(t, credentialsMatch("", "", "a", "b"))
}
