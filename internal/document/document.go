// Package document implements the multi-dataset document: an ordered set of
// sub-views over one resource group, drawn against a shared scale, with the
// last visible view driving the horizontal scroll of the others.
//
// A Document is not safe for concurrent use. All calls, and the callbacks
// they trigger, must be serialized by the owner.
package document

import (
	"errors"
	"fmt"

	"github.com/gcviewer/backend/internal/logging"
	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/gcviewer/backend/internal/viewport"
	"github.com/google/uuid"
)

var (
	ErrDisposed      = errors.New("document disposed")
	ErrUnknownView   = errors.New("view not part of document")
	ErrDuplicateView = errors.New("view already part of document")
	ErrNoMaster      = errors.New("document has no visible view")
	ErrScrollLocked  = errors.New("scrolling is locked while watched")
	ErrInvalidScale  = errors.New("scale factor must be a positive number")
)

var logger = logging.New("document")

type member struct {
	view   *SubView
	cancel func()
}

// Document groups sub-views that are displayed and scrolled together.
type Document struct {
	id       string
	members  []member
	settings DisplaySettings
	watched  bool

	title     string
	master    *SubView
	sync      *viewport.Synchronizer
	filler    bool
	aggregate models.Scale
	dirty     bool
	disposed  bool

	layoutObservers  []func(*Document)
	disposeObservers []func(*Document)
}

// New creates an empty document. settings apply until the first view joins.
func New(settings DisplaySettings) *Document {
	if settings.Toggles == nil {
		settings.Toggles = make(map[Toggle]bool)
	}
	if !ValidScaleFactor(settings.ScaleFactor) {
		settings.ScaleFactor = DefaultScaleFactor
	}
	return &Document{
		id:       uuid.New().String(),
		settings: settings.Clone(),
		filler:   true,
	}
}

func (d *Document) ID() string { return d.id }

// AddSubView appends v and relayouts. The first view seeds the document's
// settings. Once there is more than one view, the document's settings are
// pushed onto all of them.
func (d *Document) AddSubView(v *SubView) error {
	if d.disposed {
		return ErrDisposed
	}
	if v == nil {
		return fmt.Errorf("add sub-view: nil view")
	}
	if d.index(v) >= 0 {
		return ErrDuplicateView
	}

	cancel := v.Observe(d.handleViewEvent)
	d.members = append(d.members, member{view: v, cancel: cancel})

	if len(d.members) == 1 {
		d.settings = v.settings.Clone()
	} else {
		for _, m := range d.members {
			m.view.settings = d.settings.Clone()
		}
	}

	d.Relayout()
	return nil
}

func (d *Document) handleViewEvent(v *SubView, e Event) {
	switch e {
	case EventMinimized, EventMaximized:
		d.Relayout()
	case EventClosed:
		if err := d.RemoveSubView(v); err != nil {
			logger.Warnf("closing view %s: %v", v.ID(), err)
		}
	}
}

// RemoveSubView detaches v. Removing the last view disposes the document.
func (d *Document) RemoveSubView(v *SubView) error {
	if d.disposed {
		return ErrDisposed
	}
	i := d.index(v)
	if i < 0 {
		return ErrUnknownView
	}

	d.members[i].cancel()
	d.members = append(d.members[:i], d.members[i+1:]...)
	v.role = RoleNone

	if len(d.members) == 0 {
		d.dispose()
		return nil
	}
	d.Relayout()
	return nil
}

func (d *Document) dispose() {
	if d.sync != nil {
		d.sync.Close()
		d.sync = nil
	}
	d.disposed = true
	d.master = nil
	d.title = ""
	d.filler = true
	d.aggregate = models.Scale{}
	for _, fn := range d.disposeObservers {
		fn(d)
	}
	d.layoutObservers = nil
	d.disposeObservers = nil
}

// Relayout recomputes title, master, layout slots, scroll synchronization
// and the aggregate scale, then marks the layout dirty.
func (d *Document) Relayout() {
	if d.disposed {
		return
	}

	d.title = d.Group().ShortLabel()

	d.master = nil
	for i := len(d.members) - 1; i >= 0; i-- {
		if !d.members[i].view.minimized {
			d.master = d.members[i].view
			break
		}
	}

	if d.sync != nil {
		d.sync.Close()
	}
	d.sync = viewport.NewSynchronizer()

	header := len(d.members) > 1
	for row, m := range d.members {
		v := m.view
		v.placement = Placement{
			Row:                 row,
			HeaderRow:           header || v.minimized,
			ChartVisible:        !v.minimized,
			MetricsPanelVisible: d.settings.ShowModelMetricsPanel && !v.minimized,
		}
		v.role = RoleNone
	}

	for _, m := range d.members {
		v := m.view
		if v.minimized {
			continue
		}
		pane := v.pane
		if v == d.master {
			v.role = RoleMaster
			pane.SetPolicy(viewport.PolicyAsNeeded)
			pane.SetEnabled(!d.watched)
			d.sync.SetSource(pane.Viewport())
			if d.watched {
				d.sync.Follow(pane.Range(), d.Watched)
			}
		} else {
			v.role = RoleSlave
			pane.SetPolicy(viewport.PolicyNever)
			pane.SetEnabled(false)
			d.sync.AddSlave(pane.Viewport())
		}
	}

	d.filler = d.master == nil

	d.refreshScales()
}

// refreshScales recomputes the aggregate, pushes it into every view and
// marks the layout dirty.
func (d *Document) refreshScales() {
	d.aggregate = d.computeAggregate()
	for _, m := range d.members {
		m.view.applyScale(d.aggregate)
	}
	d.dirty = true
	for _, fn := range d.layoutObservers {
		fn(d)
	}
}

func (d *Document) computeAggregate() models.Scale {
	var s models.Scale
	for _, m := range d.members {
		ds := m.view.dataset
		if ds.Footprint > s.MaxFootprint {
			s.MaxFootprint = ds.Footprint
		}
		if ds.MaxPause > s.MaxPause {
			s.MaxPause = ds.MaxPause
		}
		if ds.RunningTime > s.MaxRunningTime {
			s.MaxRunningTime = ds.RunningTime
		}
	}
	return s
}

// RefreshDataset replaces the summary shown by v and re-pushes the
// aggregate scale. A watched master follows the grown range.
func (d *Document) RefreshDataset(v *SubView, summary models.DatasetSummary) error {
	if d.disposed {
		return ErrDisposed
	}
	if d.index(v) < 0 {
		return ErrUnknownView
	}
	v.dataset = summary
	d.refreshScales()
	return nil
}

// SetWatched turns live-follow on or off. Enabling it snaps the master to
// the end of its range and locks its scrollbar.
func (d *Document) SetWatched(watched bool) {
	d.watched = watched
	if d.master == nil {
		return
	}
	pane := d.master.pane
	if watched {
		pane.Range().ScrollToEnd()
		pane.SetEnabled(false)
		if d.sync != nil {
			d.sync.Follow(pane.Range(), d.Watched)
		}
	} else {
		pane.SetEnabled(true)
	}
	d.dirty = true
}

func (d *Document) Watched() bool { return d.watched }

// Scroll moves the master to x. The slaves follow.
func (d *Document) Scroll(x int) error {
	if d.master == nil {
		return ErrNoMaster
	}
	if !d.master.pane.Enabled() {
		return ErrScrollLocked
	}
	d.master.pane.Range().SetValue(x)
	d.dirty = true
	return nil
}

// Master returns the last non-minimized view, or nil.
func (d *Document) Master() *SubView { return d.master }

// Synchronizer returns the synchronizer installed by the last relayout.
func (d *Document) Synchronizer() *viewport.Synchronizer { return d.sync }

// Views returns the views in order.
func (d *Document) Views() []*SubView {
	out := make([]*SubView, len(d.members))
	for i, m := range d.members {
		out[i] = m.view
	}
	return out
}

// View looks up a view by id.
func (d *Document) View(id string) (*SubView, bool) {
	for _, m := range d.members {
		if m.view.id == id {
			return m.view, true
		}
	}
	return nil, false
}

func (d *Document) Len() int { return len(d.members) }

// Group returns the resource group of all current views.
func (d *Document) Group() resource.Group {
	entries := make([]resource.Entry, len(d.members))
	for i, m := range d.members {
		entries[i] = m.view.entry
	}
	return resource.NewGroup(entries...)
}

func (d *Document) Title() string           { return d.title }
func (d *Document) Filler() bool            { return d.filler }
func (d *Document) Aggregate() models.Scale { return d.aggregate }
func (d *Document) Disposed() bool          { return d.disposed }

// NeedsRepaint reports whether the layout changed since MarkPainted.
func (d *Document) NeedsRepaint() bool { return d.dirty }

// MarkPainted clears the dirty flag.
func (d *Document) MarkPainted() { d.dirty = false }

// OnLayout registers fn to run after every relayout or scale refresh.
func (d *Document) OnLayout(fn func(*Document)) {
	d.layoutObservers = append(d.layoutObservers, fn)
}

// OnDispose registers fn to run once when the last view is removed.
func (d *Document) OnDispose(fn func(*Document)) {
	d.disposeObservers = append(d.disposeObservers, fn)
}

func (d *Document) index(v *SubView) int {
	for i, m := range d.members {
		if m.view == v {
			return i
		}
	}
	return -1
}

// Settings returns a copy of the document's authoritative settings.
func (d *Document) Settings() DisplaySettings {
	return d.settings.Clone()
}

// Toggle reads t from the first view, or false when there are no views.
func (d *Document) Toggle(t Toggle) bool {
	if len(d.members) == 0 {
		return false
	}
	return d.members[0].view.settings.Toggles[t]
}

// SetToggle updates t and broadcasts it to every view.
func (d *Document) SetToggle(t Toggle, on bool) {
	d.settings.Toggles[t] = on
	for _, m := range d.members {
		m.view.settings.Toggles[t] = on
	}
	d.dirty = true
}

func (d *Document) AntiAlias() bool         { return d.Toggle(ToggleAntiAlias) }
func (d *Document) SetAntiAlias(on bool)    { d.SetToggle(ToggleAntiAlias, on) }
func (d *Document) ShowDateStamp() bool     { return d.Toggle(ToggleShowDateStamp) }
func (d *Document) SetShowDateStamp(b bool) { d.SetToggle(ToggleShowDateStamp, b) }

// ScaleFactor reads the first view's scale factor, or 1.0 without views.
func (d *Document) ScaleFactor() float64 {
	if len(d.members) == 0 {
		return DefaultScaleFactor
	}
	return d.members[0].view.settings.ScaleFactor
}

// SetScaleFactor broadcasts f and resizes every chart.
func (d *Document) SetScaleFactor(f float64) error {
	if !ValidScaleFactor(f) {
		return ErrInvalidScale
	}
	d.settings.ScaleFactor = f
	for _, m := range d.members {
		m.view.settings.ScaleFactor = f
	}
	if !d.disposed {
		d.refreshScales()
	}
	return nil
}

// ShowModelMetricsPanel reads the first view's value, or false without views.
func (d *Document) ShowModelMetricsPanel() bool {
	if len(d.members) == 0 {
		return false
	}
	return d.members[0].view.settings.ShowModelMetricsPanel
}

// SetShowModelMetricsPanel broadcasts b and relayouts if it changed.
func (d *Document) SetShowModelMetricsPanel(b bool) {
	changed := d.settings.ShowModelMetricsPanel != b
	d.settings.ShowModelMetricsPanel = b
	for _, m := range d.members {
		m.view.settings.ShowModelMetricsPanel = b
	}
	if changed {
		d.Relayout()
	}
}
