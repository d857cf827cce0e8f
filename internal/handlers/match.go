package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Directory lists the full customer directory for index building.
type Directory interface {
	ListAll(ctx context.Context) ([]models.Customer, error)
}

// MatchHandler resolves ad-hoc order rows against the directory
type MatchHandler struct {
	directory Directory
	matcher   *identity.Matcher
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(directory Directory) *MatchHandler {
	return &MatchHandler{
		directory: directory,
		matcher:   identity.NewMatcher(),
	}
}

// RegisterRoutes registers the match routes
func (h *MatchHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/match", h.Match)
}

// MatchRequest is one order row to resolve.
type MatchRequest struct {
	Name  string  `json:"name" validate:"required"`
	Phone *string `json:"phone,omitempty"`
}

// MatchResponse reports the resolution outcome.
type MatchResponse struct {
	Matched  bool             `json:"matched"`
	Strategy string           `json:"strategy,omitempty"`
	Customer *models.Customer `json:"customer,omitempty"`
}

// Match handles POST /match
func (h *MatchHandler) Match(c echo.Context) error {
	ctx := c.Request().Context()

	var req MatchRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	customers, err := h.directory.ListAll(ctx)
	if err != nil {
		return err
	}
	index := identity.BuildIndex(customers)

	row := models.OrderRow{Name: req.Name, Phone: req.Phone}
	customer, strategy, ok := h.matcher.Match(row, index)
	if !ok {
		metrics.RecordMatchAttempt("none")
		return SuccessResponse(c, MatchResponse{Matched: false})
	}

	metrics.RecordMatchAttempt(strategy)
	return SuccessResponse(c, MatchResponse{
		Matched:  true,
		Strategy: strategy,
		Customer: customer,
	})
}
