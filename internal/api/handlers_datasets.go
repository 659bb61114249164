// handlers_datasets.go - Dataset summary ingestion
package api

import (
	"net/http"

	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/labstack/echo/v4"
)

type ingestRequest struct {
	Resource    string  `json:"resource"`
	Footprint   uint64  `json:"footprint"`
	MaxPause    float64 `json:"maxPause"`
	RunningTime float64 `json:"runningTime"`
}

type ingestResponse struct {
	Resource  string `json:"resource"`
	Refreshed int    `json:"refreshed"`
}

// HandleListDatasets returns every stored summary.
func (h *Handler) HandleListDatasets(c echo.Context) error {
	if h.catalog == nil {
		return NewServiceUnavailableError("dataset catalog is disabled")
	}
	records, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list datasets", err)
	}
	return c.JSON(http.StatusOK, records)
}

// HandleIngestDataset stores a summary produced by an external parser and
// refreshes every open view showing it.
func (h *Handler) HandleIngestDataset(c echo.Context) error {
	if h.catalog == nil {
		return NewServiceUnavailableError("dataset catalog is disabled")
	}

	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	id, err := resource.Normalize(req.Resource)
	if err != nil {
		return NewBadRequestError("invalid resource identifier", err)
	}
	if req.MaxPause < 0 {
		return NewValidationError("maxPause")
	}
	if req.RunningTime < 0 {
		return NewValidationError("runningTime")
	}

	ctx := c.Request().Context()
	summary := models.DatasetSummary{
		Footprint:   req.Footprint,
		MaxPause:    req.MaxPause,
		RunningTime: req.RunningTime,
	}
	if err := h.catalog.Put(ctx, id, summary); err != nil {
		return NewInternalError("failed to store dataset", err)
	}

	n, err := h.workspace.RefreshResource(ctx, id, "ingest")
	if err != nil {
		// stored, but a series sharing the file may still miss parts
		logger.Warnf("refresh after ingest of %s: %v", id, err)
	}
	return c.JSON(http.StatusCreated, ingestResponse{Resource: id.String(), Refreshed: n})
}

// HandleDeleteDataset removes a stored summary. Open views keep what they
// already show.
func (h *Handler) HandleDeleteDataset(c echo.Context) error {
	if h.catalog == nil {
		return NewServiceUnavailableError("dataset catalog is disabled")
	}
	id, err := resource.Normalize(c.QueryParam("resource"))
	if err != nil {
		return NewBadRequestError("invalid resource identifier", err)
	}
	if err := h.catalog.Delete(c.Request().Context(), id); err != nil {
		return fromDomain(err, "failed to delete dataset")
	}
	return c.NoContent(http.StatusNoContent)
}
