package canvas

import (
	"crypto/subtle"
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/sharedcanvas/server/internal/errors"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

// guards the ops endpoints: with a token set the caller must present it as a bearer token,
// without one only loopback callers get through
func OpsOnly(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" {
			authHeader := c.GetHeader("Authorization")

			presented, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Warn("rejected ops request", "path", c.Request.URL.Path, "remote_ip", c.RemoteIP())
				errors.Unauthorized(c, "ops token required")
				c.Abort()
				return
			}

			c.Next()
			return
		}

		// RemoteIP ignores forwarding headers
		if ip := net.ParseIP(c.RemoteIP()); ip == nil || !ip.IsLoopback() {
			logger.Warn("rejected ops request", "path", c.Request.URL.Path, "remote_ip", c.RemoteIP())
			errors.Forbidden(c, "ops endpoints are restricted to localhost")
			c.Abort()
			return
		}

		c.Next()
	}
}
