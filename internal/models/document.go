package models

// DisplaySettingsInfo is the wire form of a document's display settings.
type DisplaySettingsInfo struct {
	Toggles               map[string]bool `json:"toggles" msgpack:"toggles"`
	ScaleFactor           float64         `json:"scaleFactor" msgpack:"scaleFactor"`
	ShowModelMetricsPanel bool            `json:"showModelMetricsPanel" msgpack:"showModelMetricsPanel"`
}

// RangeInfo is a horizontal scroll range.
type RangeInfo struct {
	Value   int `json:"value" msgpack:"value"`
	Extent  int `json:"extent" msgpack:"extent"`
	Maximum int `json:"maximum" msgpack:"maximum"`
}

// ViewInfo describes one sub-view after the last layout.
type ViewInfo struct {
	ID                  string              `json:"id" msgpack:"id"`
	Kind                string              `json:"kind" msgpack:"kind"` // single or series
	Resources           []string            `json:"resources" msgpack:"resources"`
	Minimized           bool                `json:"minimized" msgpack:"minimized"`
	Role                string              `json:"role" msgpack:"role"` // master, slave or none
	Row                 int                 `json:"row" msgpack:"row"`
	HeaderRow           bool                `json:"headerRow" msgpack:"headerRow"`
	ChartVisible        bool                `json:"chartVisible" msgpack:"chartVisible"`
	MetricsPanelVisible bool                `json:"metricsPanelVisible" msgpack:"metricsPanelVisible"`
	ScrollPolicy        string              `json:"scrollPolicy" msgpack:"scrollPolicy"`
	ScrollEnabled       bool                `json:"scrollEnabled" msgpack:"scrollEnabled"`
	X                   int                 `json:"x" msgpack:"x"`
	Y                   int                 `json:"y" msgpack:"y"`
	Range               RangeInfo           `json:"range" msgpack:"range"`
	Dataset             DatasetSummary      `json:"dataset" msgpack:"dataset"`
	Scale               Scale               `json:"scale" msgpack:"scale"`
	Settings            DisplaySettingsInfo `json:"settings" msgpack:"settings"`
}

// DocumentInfo is a point-in-time view of a document.
type DocumentInfo struct {
	ID           string              `json:"id" msgpack:"id"`
	Title        string              `json:"title" msgpack:"title"`
	Group        string              `json:"group" msgpack:"group"` // encoded resource group
	Watched      bool                `json:"watched" msgpack:"watched"`
	MasterID     string              `json:"masterId,omitempty" msgpack:"masterId,omitempty"`
	Filler       bool                `json:"filler" msgpack:"filler"`
	NeedsRepaint bool                `json:"needsRepaint" msgpack:"needsRepaint"`
	Scale        Scale               `json:"scale" msgpack:"scale"`
	Settings     DisplaySettingsInfo `json:"settings" msgpack:"settings"`
	Views        []ViewInfo          `json:"views" msgpack:"views"`
}

// DocumentEventType names a document notification.
type DocumentEventType string

const (
	DocumentEventLayout   DocumentEventType = "layout"
	DocumentEventDisposed DocumentEventType = "disposed"
)

// DocumentEvent is pushed to renderers whenever a document changes.
type DocumentEvent struct {
	Type       DocumentEventType `json:"type"`
	DocumentID string            `json:"documentId"`
	Document   *DocumentInfo     `json:"document,omitempty"`
}
