package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/arcana-account-adaptor/internal/dto/response"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
)

// StateSource reports the account store connection state.
type StateSource interface {
	State() store.State
}

// HealthController serves the liveness and readiness probes
type HealthController struct {
	source StateSource
}

// NewHealthController creates a new HealthController instance
func NewHealthController(source StateSource) *HealthController {
	return &HealthController{source: source}
}

// RegisterRoutes registers the probe routes at the root of the router
func (c *HealthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", c.Health)
	router.GET("/ready", c.Ready)
}

// Health reports that the process is serving requests
func (c *HealthController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.NewSuccessWithData(response.Health{Status: "healthy"}))
}

// Ready reports 200 only once the store connection is ready
func (c *HealthController) Ready(ctx *gin.Context) {
	state := c.source.State()
	body := response.Health{Status: "ready", Store: state.String()}
	if state != store.StateReady {
		body.Status = "unavailable"
		resp := response.NewAppError[response.Health](apperrors.ErrServiceUnavailable)
		resp.Data = body
		ctx.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	ctx.JSON(http.StatusOK, response.NewSuccessWithData(body))
}
