package api

import (
	"net/http"

	"github.com/gcviewer/backend/internal/dataset"
	"github.com/gcviewer/backend/internal/logging"
	"github.com/gcviewer/backend/internal/workspace"
	"github.com/labstack/echo/v4"
)

var logger = logging.New("api")

// Handler handles API requests.
type Handler struct {
	workspace *workspace.Manager
	catalog   *dataset.Catalog
	version   string
}

// NewHandler creates a new API handler. catalog may be nil, in which case
// the dataset routes answer 503.
func NewHandler(ws *workspace.Manager, catalog *dataset.Catalog, version string) *Handler {
	return &Handler{
		workspace: ws,
		catalog:   catalog,
		version:   version,
	}
}

// HandleHealth returns server health status
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"documents": len(h.workspace.List()),
	})
}
