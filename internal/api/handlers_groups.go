// handlers_groups.go - Resource group codec handlers
package api

import (
	"net/http"

	"github.com/gcviewer/backend/internal/resource"
	"github.com/labstack/echo/v4"
)

// EntryInfo is one decoded group entry.
type EntryInfo struct {
	Kind      string   `json:"kind"`
	Resources []string `json:"resources"`
}

// GroupInfo describes a decoded group.
type GroupInfo struct {
	Encoded string      `json:"encoded"`
	Label   string      `json:"label"`
	Entries []EntryInfo `json:"entries"`
}

type decodeGroupRequest struct {
	Group string `json:"group"`
}

type encodeGroupRequest struct {
	Entries [][]string `json:"entries"`
}

func groupInfo(g resource.Group) GroupInfo {
	info := GroupInfo{
		Encoded: g.Encode(),
		Label:   g.ShortLabel(),
		Entries: make([]EntryInfo, 0, g.Len()),
	}
	for _, e := range g.Entries() {
		ids := e.IDs()
		resources := make([]string, len(ids))
		for i, id := range ids {
			resources[i] = id.String()
		}
		info.Entries = append(info.Entries, EntryInfo{Kind: e.Kind().String(), Resources: resources})
	}
	return info
}

// HandleDecodeGroup parses an encoded group. Malformed identifiers are
// dropped, so this never fails on content.
func (h *Handler) HandleDecodeGroup(c echo.Context) error {
	var req decodeGroupRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	return c.JSON(http.StatusOK, groupInfo(resource.Decode(req.Group)))
}

// HandleEncodeGroup builds a group from raw identifiers. An inner list
// with more than one identifier becomes a series.
func (h *Handler) HandleEncodeGroup(c echo.Context) error {
	var req encodeGroupRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	entries := make([]resource.Entry, 0, len(req.Entries))
	for _, raw := range req.Entries {
		if len(raw) == 0 {
			return NewValidationError("entries")
		}
		ids := make([]resource.ID, len(raw))
		for i, r := range raw {
			id, err := resource.Normalize(r)
			if err != nil {
				return NewBadRequestError("invalid resource identifier", err)
			}
			ids[i] = id
		}
		if len(ids) == 1 {
			entries = append(entries, resource.Single(ids[0]))
			continue
		}
		e, err := resource.Series(ids...)
		if err != nil {
			return NewBadRequestError("invalid series", err)
		}
		entries = append(entries, e)
	}
	return c.JSON(http.StatusOK, groupInfo(resource.NewGroup(entries...)))
}
