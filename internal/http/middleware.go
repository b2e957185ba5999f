package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/audit"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware attaches a request id to the request context so audit
// events written while serving it can be correlated. A client supplied id
// is kept when short enough.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if len(id) > 36 {
			id = ""
		}
		ctx := audit.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, audit.RequestIDFrom(ctx))
		c.Next()
	}
}
