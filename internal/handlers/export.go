package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/export"
)

// ExportHandler streams the order export CSV
type ExportHandler struct {
	exporter *export.Exporter
}

// NewExportHandler creates a new export handler
func NewExportHandler(exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
	}
}

// RegisterRoutes registers the export routes
func (h *ExportHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/export/csv", h.CSV)
}

// CSV handles POST /export/csv. The export is buffered before sending so a
// mid-export source failure returns a clean error instead of a truncated
// file. Match counts travel in response headers.
func (h *ExportHandler) CSV(c echo.Context) error {
	ctx := c.Request().Context()

	var buf bytes.Buffer
	summary, err := h.exporter.Export(ctx, &buf)
	if err != nil {
		return err
	}

	filename := "orders-" + time.Now().UTC().Format("20060102-150405") + ".csv"
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Response().Header().Set("X-Export-Rows", itoa(summary.Rows))
	c.Response().Header().Set("X-Export-Matched", itoa(summary.Matched))
	c.Response().Header().Set("X-Export-Unmatched", itoa(summary.Unmatched))

	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
