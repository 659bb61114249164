package viewport

// Point is a view position in chart coordinates.
type Point struct {
	X int `json:"x" msgpack:"x" yaml:"x"`
	Y int `json:"y" msgpack:"y" yaml:"y"`
}

// Viewport is the visible window onto a chart.
type Viewport struct {
	pos  Point
	subs listeners[Point]
}

// NewViewport returns a viewport at the origin.
func NewViewport() *Viewport {
	return &Viewport{}
}

// Position returns the current view position.
func (v *Viewport) Position() Point {
	return v.pos
}

// SetPosition moves the view. Listeners are notified only on change.
func (v *Viewport) SetPosition(p Point) {
	if p == v.pos {
		return
	}
	v.pos = p
	v.subs.notify(p)
}

// Subscribe registers fn for position changes and returns its cancel func.
func (v *Viewport) Subscribe(fn func(Point)) (cancel func()) {
	return v.subs.add(fn)
}

// Listeners returns the number of registered listeners.
func (v *Viewport) Listeners() int {
	return v.subs.len()
}

// Policy controls when the horizontal scrollbar is shown.
type Policy string

const (
	PolicyAsNeeded Policy = "as-needed"
	PolicyNever    Policy = "never"
)

// Pane is a scroll pane: a horizontal scrollbar range coupled with a
// viewport. Moving either one moves the other.
type Pane struct {
	rng     *RangeModel
	view    *Viewport
	policy  Policy
	enabled bool
}

// NewPane returns a coupled range and viewport with an as-needed scrollbar.
func NewPane() *Pane {
	p := &Pane{
		rng:     NewRangeModel(),
		view:    NewViewport(),
		policy:  PolicyAsNeeded,
		enabled: true,
	}
	p.rng.Subscribe(func(c Change) {
		if !c.Value {
			return
		}
		pos := p.view.Position()
		if pos.X != p.rng.Value() {
			p.view.SetPosition(Point{X: p.rng.Value(), Y: pos.Y})
		}
	})
	p.view.Subscribe(func(pos Point) {
		if pos.X != p.rng.Value() {
			p.rng.SetValue(pos.X)
		}
	})
	return p
}

func (p *Pane) Range() *RangeModel  { return p.rng }
func (p *Pane) Viewport() *Viewport { return p.view }

func (p *Pane) Policy() Policy       { return p.policy }
func (p *Pane) SetPolicy(pol Policy) { p.policy = pol }

// Enabled reports whether the user may drag the scrollbar.
func (p *Pane) Enabled() bool     { return p.enabled }
func (p *Pane) SetEnabled(b bool) { p.enabled = b }
