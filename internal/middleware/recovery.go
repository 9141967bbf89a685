package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/dto/response"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

// Recovery returns a middleware that recovers from panics
func Recovery(l *zap.Logger) gin.HandlerFunc {
	log := logger.ForComponent(l, "http")

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", GetRequestID(c)),
					zap.ByteString("stack", debug.Stack()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					response.NewAppError[any](apperrors.ErrInternalError).WithRequestID(GetRequestID(c)))
			}
		}()
		c.Next()
	}
}
