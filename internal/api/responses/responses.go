// internal/api/responses/responses.go
package responses

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// InitLogger configura o logger do processo (JSON em stdout). O nível vem de
// LOG_LEVEL; valor inválido mantém info.
func InitLogger() {
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			logger.SetLevel(parsed)
		}
	}
}

func Logger() *logrus.Logger {
	return logger
}

type successBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorBody struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, successBody{Success: true, Data: data})
}

// Error responde no envelope de erro. Erros 5xx também vão para o log.
func Error(c *gin.Context, status int, message string, details ...string) {
	if status >= 500 {
		logger.WithFields(logrus.Fields{
			"status":  status,
			"path":    c.Request.URL.Path,
			"details": details,
		}).Error(message)
	}
	c.AbortWithStatusJSON(status, errorBody{Success: false, Error: message, Details: details})
}
