package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// operatorAuthMiddleware guards operator endpoints (/metrics and lookup
// history) with Basic Auth. A disabled guard passes every request through.
func operatorAuthMiddleware(enabled bool, realm, username, password string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok || !credentialsMatch(user, pass, username, password) {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// credentialsMatch compares in constant time; both comparisons always run.
func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return userOK&passOK == 1
}
