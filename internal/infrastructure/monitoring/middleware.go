package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())

		metrics.RecordHTTPRequest(method, path, status, duration, respSize)
	}
}

// Timer measures one vault operation.
type Timer struct {
	start   time.Time
	metrics *Metrics
	op      string
}

// NewTimer creates a new timer for an operation.
func NewTimer(metrics *Metrics, op string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, op: op}
}

// Stop stops the timer and records the outcome.
func (t *Timer) Stop(status string) {
	t.metrics.RecordOp(t.op, status, time.Since(t.start))
}
