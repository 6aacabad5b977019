// internal/api/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/metrics"
)

// RequestLogger registra a latência de cada rota no Prometheus e loga as
// requisições que terminaram com erro (status >= 400 ou c.Errors).
func RequestLogger(logger *logrus.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "sem_rota"
		}
		m.ObserveEndpointLatency(endpoint, c.Request.Method, latency.Seconds())

		status := c.Writer.Status()
		if status < 400 && len(c.Errors) == 0 {
			return
		}
		entry := logger.WithFields(logrus.Fields{
			"status":   status,
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"latency":  latency.String(),
			"clientIP": c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		entry.Warn("requisição com erro")
	}
}
