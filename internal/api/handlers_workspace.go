// handlers_workspace.go - Workspace export and import
package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxWorkspaceSize bounds an imported workspace file.
const maxWorkspaceSize = 1 << 20

// HandleExportWorkspace returns the open documents as YAML.
func (h *Handler) HandleExportWorkspace(c echo.Context) error {
	data, err := h.workspace.Export()
	if err != nil {
		return NewInternalError("failed to export workspace", err)
	}
	return c.Blob(http.StatusOK, "application/yaml", data)
}

// HandleImportWorkspace opens the documents of a YAML workspace file next
// to the ones already open.
func (h *Handler) HandleImportWorkspace(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWorkspaceSize+1))
	if err != nil {
		return NewBadRequestError("failed to read body", err)
	}
	if len(data) > maxWorkspaceSize {
		return NewBadRequestError("workspace file too large", nil)
	}

	opened, err := h.workspace.Import(c.Request().Context(), data)
	if err != nil {
		if len(opened) == 0 {
			return NewBadRequestError("failed to import workspace", err)
		}
		logger.Warnf("workspace import stopped after %d documents: %v", len(opened), err)
	}
	return c.JSON(http.StatusOK, opened)
}
