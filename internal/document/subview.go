package document

import (
	"math"
	"slices"

	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/gcviewer/backend/internal/viewport"
	"github.com/google/uuid"
)

// Role is the part a view plays in scroll synchronization.
type Role string

const (
	RoleNone   Role = "none"
	RoleMaster Role = "master"
	RoleSlave  Role = "slave"
)

// Placement is the layout slot assigned to a view by the last relayout.
type Placement struct {
	Row                 int
	HeaderRow           bool
	ChartVisible        bool
	MetricsPanelVisible bool
}

// Event is a state notification emitted by a SubView.
type Event int

const (
	EventMinimized Event = iota + 1
	EventMaximized
	EventClosed
)

func (e Event) String() string {
	switch e {
	case EventMinimized:
		return "minimized"
	case EventMaximized:
		return "maximized"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SubView displays one resource entry inside a Document.
type SubView struct {
	id        string
	entry     resource.Entry
	dataset   models.DatasetSummary
	minimized bool
	closed    bool

	settings  DisplaySettings
	scale     models.Scale
	pane      *viewport.Pane
	placement Placement
	role      Role

	observers []func(*SubView, Event)
}

// NewSubView creates a maximized view of entry with its own settings.
func NewSubView(entry resource.Entry, dataset models.DatasetSummary, settings DisplaySettings) *SubView {
	if settings.Toggles == nil {
		settings.Toggles = make(map[Toggle]bool)
	}
	if !ValidScaleFactor(settings.ScaleFactor) {
		settings.ScaleFactor = DefaultScaleFactor
	}
	return &SubView{
		id:       uuid.New().String(),
		entry:    entry,
		dataset:  dataset,
		settings: settings.Clone(),
		pane:     viewport.NewPane(),
		role:     RoleNone,
	}
}

func (v *SubView) ID() string                     { return v.id }
func (v *SubView) Entry() resource.Entry          { return v.entry }
func (v *SubView) Dataset() models.DatasetSummary { return v.dataset }
func (v *SubView) Minimized() bool                { return v.minimized }
func (v *SubView) Scale() models.Scale            { return v.scale }
func (v *SubView) Pane() *viewport.Pane           { return v.pane }
func (v *SubView) Placement() Placement           { return v.placement }
func (v *SubView) Role() Role                     { return v.role }

// Settings returns a copy of the settings pushed into this view.
func (v *SubView) Settings() DisplaySettings {
	return v.settings.Clone()
}

// Toggle returns the view's value of t.
func (v *SubView) Toggle(t Toggle) bool {
	return v.settings.Toggles[t]
}

// SetMinimized collapses or restores the chart. Observers are notified only
// when the state changes.
func (v *SubView) SetMinimized(minimized bool) {
	if v.closed || v.minimized == minimized {
		return
	}
	v.minimized = minimized
	if minimized {
		v.notify(EventMinimized)
	} else {
		v.notify(EventMaximized)
	}
}

// Close asks the owner to remove the view. Only the first call notifies.
func (v *SubView) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.notify(EventClosed)
}

// SetVisibleWidth sets how much of the chart fits on screen.
func (v *SubView) SetVisibleWidth(w int) {
	v.pane.Range().SetExtent(w)
}

// Observe registers fn for state notifications and returns its cancel func.
func (v *SubView) Observe(fn func(*SubView, Event)) (cancel func()) {
	v.observers = append(v.observers, fn)
	idx := len(v.observers) - 1
	return func() {
		if idx < len(v.observers) {
			v.observers[idx] = nil
		}
	}
}

func (v *SubView) notify(e Event) {
	for _, fn := range slices.Clone(v.observers) {
		if fn != nil {
			fn(v, e)
		}
	}
}

// applyScale stores the aggregate and sizes the horizontal range to the
// chart width at the view's scale factor.
func (v *SubView) applyScale(s models.Scale) {
	v.scale = s
	v.pane.Range().SetMaximum(chartWidth(s.MaxRunningTime, v.settings.ScaleFactor))
}

func chartWidth(runningTime, scaleFactor float64) int {
	w := math.Ceil(runningTime * scaleFactor)
	if w <= 0 || math.IsNaN(w) {
		return 0
	}
	if w > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(w)
}
