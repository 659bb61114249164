package viewport

// Synchronizer copies the horizontal position of a source viewport to its
// slaves and optionally keeps a range pinned to its end while watched.
//
// An instance owns every registration it makes. Close removes them all, after
// which the instance is inert. A new layout builds a new Synchronizer.
type Synchronizer struct {
	source    *Viewport
	slaves    []*Viewport
	following *RangeModel
	cancels   []func()
	closed    bool
}

// NewSynchronizer returns an empty synchronizer.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// SetSource registers v as the propagation source. Only the first call has
// an effect.
func (s *Synchronizer) SetSource(v *Viewport) {
	if s.closed || s.source != nil || v == nil {
		return
	}
	s.source = v
	s.cancels = append(s.cancels, v.Subscribe(s.propagate))
}

func (s *Synchronizer) propagate(p Point) {
	for _, slave := range s.slaves {
		slave.SetPosition(Point{X: p.X, Y: slave.Position().Y})
	}
}

// AddSlave registers v to mirror the source x coordinate.
func (s *Synchronizer) AddSlave(v *Viewport) {
	if s.closed || v == nil {
		return
	}
	s.slaves = append(s.slaves, v)
}

// Follow attaches the auto-follow listener to r: whenever the bounds of r
// change and watched reports true, r is moved to its end. Calling Follow
// again is a no-op.
func (s *Synchronizer) Follow(r *RangeModel, watched func() bool) {
	if s.closed || s.following != nil || r == nil {
		return
	}
	s.following = r
	s.cancels = append(s.cancels, r.Subscribe(func(c Change) {
		if c.Bounds && watched() {
			r.ScrollToEnd()
		}
	}))
}

// Following reports whether the auto-follow listener is attached.
func (s *Synchronizer) Following() bool {
	return s.following != nil
}

// Source returns the propagation source, or nil.
func (s *Synchronizer) Source() *Viewport {
	return s.source
}

// Slaves returns the registered slaves in order.
func (s *Synchronizer) Slaves() []*Viewport {
	out := make([]*Viewport, len(s.slaves))
	copy(out, s.slaves)
	return out
}

// Close removes every registration. It is safe to call more than once.
func (s *Synchronizer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.source = nil
	s.slaves = nil
	s.following = nil
}
