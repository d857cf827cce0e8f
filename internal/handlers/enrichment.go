package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/enrichment"
)

// EnrichmentHandler handles enrichment run control requests
type EnrichmentHandler struct {
	worker *enrichment.Worker
}

// NewEnrichmentHandler creates a new enrichment handler
func NewEnrichmentHandler(worker *enrichment.Worker) *EnrichmentHandler {
	return &EnrichmentHandler{
		worker: worker,
	}
}

// RegisterRoutes registers the enrichment routes
func (h *EnrichmentHandler) RegisterRoutes(g *echo.Group) {
	enrich := g.Group("/enrichment")
	enrich.POST("/start", h.Start)
	enrich.POST("/stop", h.Stop)
	enrich.POST("/reset", h.Reset)
	enrich.POST("/run", h.Run)
	enrich.GET("/status", h.Status)
}

// Start handles POST /enrichment/start
func (h *EnrichmentHandler) Start(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := h.worker.Start(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, run)
}

// Stop handles POST /enrichment/stop
func (h *EnrichmentHandler) Stop(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.worker.Stop(ctx); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// Reset handles POST /enrichment/reset
func (h *EnrichmentHandler) Reset(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.worker.Reset(ctx); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// Run handles POST /enrichment/run: executes one batch immediately, without
// waiting for the next scheduled tick. The run must be started first.
func (h *EnrichmentHandler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.worker.RunOnce(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

// StatusResponse is the enrichment status payload. Started reports whether a
// control row exists at all.
type StatusResponse struct {
	Started bool `json:"started"`
	Run     any  `json:"run,omitempty"`
}

// Status handles GET /enrichment/status
func (h *EnrichmentHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := h.worker.Status(ctx)
	if err != nil {
		return err
	}

	resp := StatusResponse{Started: run != nil}
	if run != nil {
		resp.Run = run
	}

	return SuccessResponse(c, resp)
}
