// handlers_prefs.go - Preference and recent group handlers
package api

import (
	"net/http"

	"github.com/gcviewer/backend/internal/prefs"
	"github.com/labstack/echo/v4"
)

type preferencesResponse struct {
	prefs.Settings
	Path   string          `json:"path"`
	State  prefs.LoadState `json:"state"`
	Recent []GroupInfo     `json:"recent"`
}

// HandleRecentGroups returns the recent groups, most recent first.
func (h *Handler) HandleRecentGroups(c echo.Context) error {
	recent := h.workspace.RecentGroups()
	out := make([]GroupInfo, 0, len(recent))
	for _, g := range recent {
		out = append(out, groupInfo(g))
	}
	return c.JSON(http.StatusOK, out)
}

// HandleGetPreferences returns the structured live preferences.
func (h *Handler) HandleGetPreferences(c echo.Context) error {
	st := h.workspace.Preferences()
	resp := preferencesResponse{
		Settings: st,
		Path:     h.workspace.PreferencesPath(),
		State:    h.workspace.PreferencesState(),
		Recent:   make([]GroupInfo, 0, len(st.RecentGroups)),
	}
	for _, g := range st.RecentGroups {
		resp.Recent = append(resp.Recent, groupInfo(g))
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleSetWindow stores the main window geometry.
func (h *Handler) HandleSetWindow(c echo.Context) error {
	var req prefs.WindowBounds
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Width <= 0 {
		return NewValidationError("width")
	}
	if req.Height <= 0 {
		return NewValidationError("height")
	}
	h.workspace.SetWindow(req)
	return c.JSON(http.StatusOK, req)
}

// HandleSavePreferences writes the preferences file.
func (h *Handler) HandleSavePreferences(c echo.Context) error {
	if err := h.workspace.SavePreferences(); err != nil {
		return NewInternalError("could not store preferences", err)
	}
	return c.NoContent(http.StatusNoContent)
}
