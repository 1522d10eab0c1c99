package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/recruit-api/pkg/httputil"
	"github.com/jwalitptl/recruit-api/pkg/logger"
)

// ErrorHandler logs errors attached to the context. When a handler attached an
// error without writing a response, the last error is rendered.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error(e.Err, "Request error",
				"request_id", c.GetString(ContextRequestID),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"client_ip", c.ClientIP(),
			)
		}

		if !c.Writer.Written() {
			httputil.RespondWithError(c, c.Errors.Last().Err)
		}
	}
}
