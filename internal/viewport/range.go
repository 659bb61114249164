// Package viewport models the scrollable chart area of a sub-view: a bounded
// horizontal range, the view position it drives, and the synchronizer that
// propagates the master position to slave views.
//
// None of the types are safe for concurrent use. Callers serialize access.
package viewport

// Change describes what a RangeModel notification is about.
type Change struct {
	// Bounds is set when the maximum or the extent changed.
	Bounds bool
	// Value is set when the current value changed.
	Value bool
}

type listener[T any] struct {
	id int
	fn func(T)
}

// listeners is an ordered registration list. Notification iterates over a
// snapshot so callbacks may subscribe or cancel while being notified.
type listeners[T any] struct {
	next int
	list []listener[T]
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.next++
	id := l.next
	l.list = append(l.list, listener[T]{id: id, fn: fn})
	return func() { l.remove(id) }
}

func (l *listeners[T]) remove(id int) {
	for i, x := range l.list {
		if x.id == id {
			l.list = append(l.list[:i:i], l.list[i+1:]...)
			return
		}
	}
}

func (l *listeners[T]) notify(v T) {
	snapshot := make([]listener[T], len(l.list))
	copy(snapshot, l.list)
	for _, x := range snapshot {
		x.fn(v)
	}
}

func (l *listeners[T]) len() int {
	return len(l.list)
}

// RangeModel is a bounded integer range with a minimum of 0. The value is
// always within [0, Maximum-Extent].
type RangeModel struct {
	value   int
	extent  int
	maximum int

	subs listeners[Change]
}

// NewRangeModel returns an empty range.
func NewRangeModel() *RangeModel {
	return &RangeModel{}
}

func (r *RangeModel) Value() int   { return r.value }
func (r *RangeModel) Extent() int  { return r.extent }
func (r *RangeModel) Maximum() int { return r.maximum }

// Subscribe registers fn for every change and returns its cancel func.
func (r *RangeModel) Subscribe(fn func(Change)) (cancel func()) {
	return r.subs.add(fn)
}

// Listeners returns the number of registered listeners.
func (r *RangeModel) Listeners() int {
	return r.subs.len()
}

// SetValue moves the value, clamped to the range.
func (r *RangeModel) SetValue(v int) {
	r.set(v, r.extent, r.maximum)
}

// SetExtent sets the visible amount. Negative values count as 0.
func (r *RangeModel) SetExtent(e int) {
	r.set(r.value, e, r.maximum)
}

// SetMaximum sets the upper bound. It never drops below the extent.
func (r *RangeModel) SetMaximum(m int) {
	r.set(r.value, r.extent, m)
}

// ScrollToEnd moves the value as far as it goes.
func (r *RangeModel) ScrollToEnd() {
	r.SetValue(r.maximum)
}

func (r *RangeModel) set(value, extent, maximum int) {
	if extent < 0 {
		extent = 0
	}
	if maximum < extent {
		maximum = extent
	}
	value = clamp(value, 0, maximum-extent)

	c := Change{
		Bounds: extent != r.extent || maximum != r.maximum,
		Value:  value != r.value,
	}
	if !c.Bounds && !c.Value {
		return
	}
	r.value, r.extent, r.maximum = value, extent, maximum
	r.subs.notify(c)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
