package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/sync"
)

// SyncHandler handles sync API requests
type SyncHandler struct {
	orchestrator *sync.Orchestrator
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(orchestrator *sync.Orchestrator) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
	}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(g *echo.Group) {
	syncGroup := g.Group("/sync")
	syncGroup.POST("/run", h.Run)
	syncGroup.GET("/drift", h.Drift)
}

// Run handles POST /sync/run. The run executes inline; the response carries
// the full result including any batch errors.
func (h *SyncHandler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

// Drift handles GET /sync/drift
func (h *SyncHandler) Drift(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.orchestrator.Drift(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, report)
}
