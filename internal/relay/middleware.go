package relay

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// RequestIDHeader carries the per-request id in both directions.
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestLogger assigns a request id and writes one access log line per
// request. Incoming ids are kept when they parse as UUIDs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		log.Info().
			Str("requestId", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// NewRouter wires the relay's routes. Any method reaches the generate
// handler so non-POST requests get the JSON 405 body.
func NewRouter(r *Relay) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger())
	router.Use(gin.Recovery())

	router.GET("/health", Health)
	router.Any("/api/generate", r.Generate)

	return router
}
