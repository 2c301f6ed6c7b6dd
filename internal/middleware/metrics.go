package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records one finished request.
type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

// Metrics reports every request to observer, labelled by its route template so that
// path parameters do not multiply series. Unmatched requests are reported as "unmatched".
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
