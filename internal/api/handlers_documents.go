// handlers_documents.go - Document and sub-view handlers
package api

import (
	"net/http"

	"github.com/gcviewer/backend/internal/workspace"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

type openDocumentRequest struct {
	Group string `json:"group"`
}

type addViewRequest struct {
	Resource string `json:"resource"`
}

type minimizedRequest struct {
	Minimized *bool `json:"minimized"`
}

type watchedRequest struct {
	Watched *bool `json:"watched"`
}

type scrollRequest struct {
	X     *int `json:"x"`
	Width *int `json:"width,omitempty"`
}

type closeViewResponse struct {
	Disposed bool        `json:"disposed"`
	Document interface{} `json:"document,omitempty"`
}

// HandleListDocuments returns every open document in opening order.
func (h *Handler) HandleListDocuments(c echo.Context) error {
	return c.JSON(http.StatusOK, h.workspace.List())
}

// HandleOpenDocument opens an encoded resource group as a new document.
func (h *Handler) HandleOpenDocument(c echo.Context) error {
	var req openDocumentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Group == "" {
		return NewValidationError("group")
	}

	info, err := h.workspace.Open(c.Request().Context(), req.Group)
	if err != nil {
		return fromDomain(err, "failed to open document")
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleGetDocument returns one document.
func (h *Handler) HandleGetDocument(c echo.Context) error {
	info, err := h.workspace.Get(c.Param("id"))
	if err != nil {
		return fromDomain(err, "failed to get document")
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDocumentSnapshot returns one document as MessagePack.
func (h *Handler) HandleDocumentSnapshot(c echo.Context) error {
	info, err := h.workspace.Get(c.Param("id"))
	if err != nil {
		return fromDomain(err, "failed to get document")
	}
	data, err := msgpack.Marshal(&info)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleCloseDocument closes a document and all of its views.
func (h *Handler) HandleCloseDocument(c echo.Context) error {
	if err := h.workspace.CloseDocument(c.Param("id")); err != nil {
		return fromDomain(err, "failed to close document")
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddView attaches one more entry to a document.
func (h *Handler) HandleAddView(c echo.Context) error {
	var req addViewRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Resource == "" {
		return NewValidationError("resource")
	}

	info, err := h.workspace.AddView(c.Request().Context(), c.Param("id"), req.Resource)
	if err != nil {
		return fromDomain(err, "failed to add view")
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleCloseView closes one view. Closing the last view disposes the
// document, which the response reports.
func (h *Handler) HandleCloseView(c echo.Context) error {
	info, disposed, err := h.workspace.CloseView(c.Param("id"), c.Param("viewId"))
	if err != nil {
		return fromDomain(err, "failed to close view")
	}
	resp := closeViewResponse{Disposed: disposed}
	if !disposed {
		resp.Document = info
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleSetMinimized minimizes or restores one view.
func (h *Handler) HandleSetMinimized(c echo.Context) error {
	var req minimizedRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Minimized == nil {
		return NewValidationError("minimized")
	}

	info, err := h.workspace.SetMinimized(c.Param("id"), c.Param("viewId"), *req.Minimized)
	if err != nil {
		return fromDomain(err, "failed to update view")
	}
	return c.JSON(http.StatusOK, info)
}

// HandleSetWatched turns live-follow on or off.
func (h *Handler) HandleSetWatched(c echo.Context) error {
	var req watchedRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Watched == nil {
		return NewValidationError("watched")
	}

	info, err := h.workspace.SetWatched(c.Param("id"), *req.Watched)
	if err != nil {
		return fromDomain(err, "failed to update document")
	}
	return c.JSON(http.StatusOK, info)
}

// HandleScroll moves the master view.
func (h *Handler) HandleScroll(c echo.Context) error {
	var req scrollRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.X == nil {
		return NewValidationError("x")
	}
	if req.Width != nil && *req.Width < 0 {
		return NewValidationError("width")
	}

	info, err := h.workspace.Scroll(c.Param("id"), *req.X, req.Width)
	if err != nil {
		return fromDomain(err, "failed to scroll document")
	}
	return c.JSON(http.StatusOK, info)
}

// HandleUpdateSettings changes display settings of every view.
func (h *Handler) HandleUpdateSettings(c echo.Context) error {
	var req workspace.SettingsUpdate
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	info, err := h.workspace.UpdateSettings(c.Param("id"), req)
	if err != nil {
		return fromDomain(err, "failed to update settings")
	}
	return c.JSON(http.StatusOK, info)
}
