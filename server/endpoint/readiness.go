package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/component"
)

// Readiness returns a handler that gates traffic on component health.
// The service is not ready while any component (hub, relays) reports
// unhealthy, so load balancers hold new SSE connections back until every
// relay is attached to its source.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ready"
		httpStatus := http.StatusOK
		var blocking []string

		if checker != nil {
			for _, ch := range checker(c.Request.Context()) {
				if ch.Status == component.StatusUnhealthy {
					blocking = append(blocking, ch.Name)
				}
			}
		}
		if len(blocking) > 0 {
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if len(blocking) > 0 {
			body["blocked_by"] = blocking
		}
		c.JSON(httpStatus, body)
	}
}
