package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vocmoney/pipeline/pkg/apperror"
	"github.com/vocmoney/pipeline/pkg/logger"
)

// TokenAuthMiddleware guards the ops endpoints with a static bearer token.
// The pipeline has no user accounts; one operator token is enough.
func TokenAuthMiddleware(token string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "ops token not configured"})
			return
		}

		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		log.Error("request failed", err)

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(apperror.ToHTTPStatus(appErr), appErr.ToJSON())
			return
		}
		c.JSON(apperror.ToHTTPStatus(err), gin.H{"error": err.Error()})
	}
}
