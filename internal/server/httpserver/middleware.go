package httpserver

import (
	"time"

	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// accessLog tags every request with an id and logs its outcome.
func (s *HTTPServer) accessLog(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)

	log := s.logger.With("request_id", id)
	c.Set(loggerKey, log)

	start := time.Now()
	c.Next()

	log.Debug(c.Request.Context(), "request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"took", time.Since(start),
	)
}

func (s *HTTPServer) requestLogger(c *gin.Context) logging.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logging.Logger); ok {
			return l
		}
	}
	return s.logger
}
