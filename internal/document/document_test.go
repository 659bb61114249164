package document

import (
	"testing"

	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/gcviewer/backend/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newView(id string, ds models.DatasetSummary) *SubView {
	return NewSubView(resource.Single(resource.ID(id)), ds, NewDisplaySettings())
}

func newDocument(t *testing.T, views ...*SubView) *Document {
	t.Helper()
	d := New(NewDisplaySettings())
	for _, v := range views {
		require.NoError(t, d.AddSubView(v))
	}
	return d
}

func TestRelayoutOnlyLastVisible(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{RunningTime: 10})
	b := newView("/a/y.log", models.DatasetSummary{RunningTime: 10})
	c := newView("/a/z.log", models.DatasetSummary{RunningTime: 10})
	a.SetMinimized(true)
	b.SetMinimized(true)

	d := newDocument(t, a, b, c)

	require.Same(t, c, d.Master())
	assert.Equal(t, RoleMaster, c.Role())
	assert.Equal(t, viewport.PolicyAsNeeded, c.Pane().Policy())
	assert.Same(t, c.Pane().Viewport(), d.Synchronizer().Source())

	assert.Equal(t, RoleNone, a.Role())
	assert.Equal(t, RoleNone, b.Role())
	assert.Empty(t, d.Synchronizer().Slaves(), "minimized views are neither master nor slave")
	assert.False(t, d.Filler())
}

func TestRelayoutMasterIsLastNonMinimized(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{})
	b := newView("/a/y.log", models.DatasetSummary{})
	c := newView("/a/z.log", models.DatasetSummary{})
	d := newDocument(t, a, b, c)

	assert.Same(t, c, d.Master())
	assert.Equal(t, RoleSlave, a.Role())
	assert.Equal(t, RoleSlave, b.Role())
	assert.Equal(t, viewport.PolicyNever, a.Pane().Policy())
	assert.False(t, a.Pane().Enabled())
	assert.Len(t, d.Synchronizer().Slaves(), 2)

	c.SetMinimized(true)
	assert.Same(t, b, d.Master(), "minimizing triggers relayout")
	assert.Equal(t, RoleMaster, b.Role())
	assert.Equal(t, viewport.PolicyAsNeeded, b.Pane().Policy())
	assert.True(t, b.Pane().Enabled())
	assert.Equal(t, RoleNone, c.Role())
	assert.Len(t, d.Synchronizer().Slaves(), 1)

	c.SetMinimized(false)
	assert.Same(t, c, d.Master())
}

func TestRelayoutPlacement(t *testing.T) {
	t.Run("single visible view has no header", func(t *testing.T) {
		v := newView("/a/x.log", models.DatasetSummary{})
		d := newDocument(t, v)
		assert.Equal(t, Placement{Row: 0, ChartVisible: true}, v.Placement())
		assert.False(t, d.Filler())
	})

	t.Run("single minimized view reserves a header and uses the filler", func(t *testing.T) {
		v := newView("/a/x.log", models.DatasetSummary{})
		d := newDocument(t, v)
		v.SetMinimized(true)
		assert.Equal(t, Placement{Row: 0, HeaderRow: true}, v.Placement())
		assert.True(t, d.Filler())
		assert.Nil(t, d.Master())
	})

	t.Run("multiple views all get headers", func(t *testing.T) {
		a := newView("/a/x.log", models.DatasetSummary{})
		b := newView("/a/y.log", models.DatasetSummary{})
		d := newDocument(t, a, b)
		d.SetShowModelMetricsPanel(true)

		assert.Equal(t, Placement{Row: 0, HeaderRow: true, ChartVisible: true, MetricsPanelVisible: true}, a.Placement())
		b.SetMinimized(true)
		assert.Equal(t, Placement{Row: 1, HeaderRow: true}, b.Placement())
	})

	t.Run("empty document", func(t *testing.T) {
		d := New(NewDisplaySettings())
		d.Relayout()
		assert.True(t, d.Filler())
		assert.Equal(t, "", d.Title())
		assert.Equal(t, models.Scale{}, d.Aggregate())
	})
}

func TestTitle(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{})
	d := newDocument(t, a)
	assert.Equal(t, "/a/x.log", d.Title())

	require.NoError(t, d.AddSubView(newView("/a/y.log", models.DatasetSummary{})))
	assert.Equal(t, "x.log;y.log;", d.Title())

	series := NewSubView(resource.MustSeries("/b/s.log", "/b/s.log.1"), models.DatasetSummary{}, NewDisplaySettings())
	require.NoError(t, d.AddSubView(series))
	assert.Equal(t, "x.log;y.log;s.log (series, 1 more files);", d.Title())
	assert.Equal(t, "/a/x.log;/a/y.log;/b/s.log>/b/s.log.1;", d.Group().Encode())
}

func TestAggregatePushedToEveryView(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{Footprint: 512, MaxPause: 0.3, RunningTime: 40})
	b := newView("/a/y.log", models.DatasetSummary{Footprint: 256, MaxPause: 1.2, RunningTime: 90})
	b.SetMinimized(true)
	d := newDocument(t, a, b)

	want := models.Scale{MaxFootprint: 512, MaxPause: 1.2, MaxRunningTime: 90}
	assert.Equal(t, want, d.Aggregate())
	assert.Equal(t, want, a.Scale())
	assert.Equal(t, want, b.Scale(), "minimized views share the scale too")
	assert.Equal(t, 90, a.Pane().Range().Maximum())
	assert.Equal(t, 90, b.Pane().Range().Maximum())
}

func TestSetWatchedFollowsMaximum(t *testing.T) {
	slave := newView("/a/x.log", models.DatasetSummary{RunningTime: 100})
	master := newView("/a/y.log", models.DatasetSummary{RunningTime: 100})
	d := newDocument(t, slave, master)
	rng := master.Pane().Range()
	require.Equal(t, 100, rng.Maximum())
	require.Equal(t, 0, rng.Value())

	d.SetWatched(true)
	assert.True(t, d.Watched())
	assert.Equal(t, 100, rng.Value())
	assert.False(t, master.Pane().Enabled())
	assert.Equal(t, 100, slave.Pane().Viewport().Position().X)

	require.NoError(t, d.RefreshDataset(master, models.DatasetSummary{RunningTime: 250}))
	assert.Equal(t, 250, rng.Maximum())
	assert.Equal(t, 250, rng.Value(), "new data is followed")
	assert.Equal(t, 250, slave.Pane().Viewport().Position().X)

	rng.SetMaximum(400)
	assert.Equal(t, 400, rng.Value())

	// a relayout keeps following
	d.Relayout()
	rng.SetMaximum(500)
	assert.Equal(t, 500, rng.Value())
	assert.False(t, master.Pane().Enabled())

	assert.ErrorIs(t, d.Scroll(10), ErrScrollLocked)

	d.SetWatched(false)
	assert.True(t, master.Pane().Enabled())
	rng.SetMaximum(600)
	assert.Equal(t, 500, rng.Value(), "no longer following")

	require.NoError(t, d.Scroll(10))
	assert.Equal(t, 10, slave.Pane().Viewport().Position().X)
}

func TestSetWatchedWithoutMaster(t *testing.T) {
	v := newView("/a/x.log", models.DatasetSummary{RunningTime: 100})
	v.SetMinimized(true)
	d := newDocument(t, v)

	assert.NotPanics(t, func() { d.SetWatched(true) })
	assert.True(t, d.Watched())
	assert.ErrorIs(t, d.Scroll(1), ErrNoMaster)

	// the view becoming visible picks up watched mode
	v.SetMinimized(false)
	assert.False(t, v.Pane().Enabled())
	assert.True(t, d.Synchronizer().Following())
}

func TestSlavesKeepVerticalPosition(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{RunningTime: 100})
	b := newView("/a/y.log", models.DatasetSummary{RunningTime: 100})
	d := newDocument(t, a, b)

	a.Pane().Viewport().SetPosition(viewport.Point{X: 0, Y: 33})
	require.NoError(t, d.Scroll(60))

	assert.Equal(t, viewport.Point{X: 60, Y: 33}, a.Pane().Viewport().Position())
}

func TestRelayoutDiscardsPreviousSynchronizer(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{RunningTime: 100})
	b := newView("/a/y.log", models.DatasetSummary{RunningTime: 100})
	d := newDocument(t, a, b)
	d.SetWatched(true)

	viewListeners := b.Pane().Viewport().Listeners()
	rangeListeners := b.Pane().Range().Listeners()
	old := d.Synchronizer()

	for i := 0; i < 5; i++ {
		d.Relayout()
	}

	assert.NotSame(t, old, d.Synchronizer())
	assert.Nil(t, old.Source())
	assert.Equal(t, viewListeners, b.Pane().Viewport().Listeners())
	assert.Equal(t, rangeListeners, b.Pane().Range().Listeners())
}

func TestDisplaySettingsDefaultsWithoutViews(t *testing.T) {
	settings := NewDisplaySettings()
	settings.Toggles[ToggleAntiAlias] = true
	settings.ScaleFactor = 3
	settings.ShowModelMetricsPanel = true
	d := New(settings)

	assert.False(t, d.AntiAlias())
	assert.False(t, d.Toggle(ToggleFullGCLines))
	assert.Equal(t, 1.0, d.ScaleFactor())
	assert.False(t, d.ShowModelMetricsPanel())
}

func TestDisplaySettingsBroadcast(t *testing.T) {
	first := NewDisplaySettings()
	first.Toggles[ToggleAntiAlias] = true
	first.Toggles[ToggleUsedMemory] = true
	a := NewSubView(resource.Single("/a/x.log"), models.DatasetSummary{RunningTime: 10}, first)
	d := newDocument(t, a)

	assert.True(t, d.AntiAlias(), "first view seeds the document")
	assert.True(t, d.Settings().Toggles[ToggleAntiAlias])

	// a joining view adopts the group-wide values
	b := newView("/a/y.log", models.DatasetSummary{RunningTime: 10})
	require.NoError(t, d.AddSubView(b))
	assert.True(t, b.Toggle(ToggleAntiAlias))
	assert.True(t, b.Toggle(ToggleUsedMemory))

	d.SetToggle(ToggleTenuredMemory, true)
	d.SetAntiAlias(false)
	for _, v := range d.Views() {
		assert.True(t, v.Toggle(ToggleTenuredMemory))
		assert.False(t, v.Toggle(ToggleAntiAlias))
	}
	assert.False(t, d.AntiAlias())
	assert.True(t, d.Toggle(ToggleTenuredMemory))

	require.NoError(t, d.SetScaleFactor(2.5))
	assert.Equal(t, 2.5, d.ScaleFactor())
	assert.Equal(t, 25, a.Pane().Range().Maximum())
	assert.Equal(t, 25, b.Pane().Range().Maximum())
	assert.ErrorIs(t, d.SetScaleFactor(0), ErrInvalidScale)
	assert.Equal(t, 2.5, d.ScaleFactor())
}

func TestShowModelMetricsPanelRelayoutsOnChange(t *testing.T) {
	d := newDocument(t, newView("/a/x.log", models.DatasetSummary{}))
	layouts := 0
	d.OnLayout(func(*Document) { layouts++ })

	d.SetShowModelMetricsPanel(false)
	assert.Equal(t, 0, layouts)

	d.SetShowModelMetricsPanel(true)
	assert.Equal(t, 1, layouts)
	assert.True(t, d.ShowModelMetricsPanel())
	assert.True(t, d.Views()[0].Placement().MetricsPanelVisible)

	d.SetShowModelMetricsPanel(true)
	assert.Equal(t, 1, layouts)
}

func TestRemoveSubView(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{RunningTime: 70})
	b := newView("/a/y.log", models.DatasetSummary{RunningTime: 30})
	d := newDocument(t, a, b)

	disposed := 0
	d.OnDispose(func(*Document) { disposed++ })

	d.MarkPainted()
	require.NoError(t, d.RemoveSubView(a))
	assert.True(t, d.NeedsRepaint())
	assert.Equal(t, []*SubView{b}, d.Views())
	assert.Equal(t, "/a/y.log", d.Title())
	assert.Equal(t, 30.0, d.Aggregate().MaxRunningTime)
	assert.ErrorIs(t, d.RemoveSubView(a), ErrUnknownView)

	// notifications from a removed view are ignored
	a.SetMinimized(true)
	assert.Same(t, b, d.Master())

	b.Close()
	assert.True(t, d.Disposed())
	assert.Equal(t, 1, disposed)
	assert.Equal(t, 0, d.Len())
	assert.ErrorIs(t, d.AddSubView(newView("/a/z.log", models.DatasetSummary{})), ErrDisposed)
}

func TestObserversRegisteredDuringNotify(t *testing.T) {
	v := newView("/a/x.log", models.DatasetSummary{})

	var late []Event
	var cancelFirst func()
	cancelFirst = v.Observe(func(_ *SubView, e Event) {
		cancelFirst()
		v.Observe(func(_ *SubView, e Event) { late = append(late, e) })
	})

	v.SetMinimized(true)
	assert.Empty(t, late, "observer added during delivery misses the event in flight")

	v.SetMinimized(false)
	assert.Equal(t, []Event{EventMaximized}, late)
}

func TestAddSubViewRejectsDuplicates(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{})
	d := newDocument(t, a)
	assert.ErrorIs(t, d.AddSubView(a), ErrDuplicateView)
	assert.Equal(t, 1, d.Len())

	// duplicates of the same resource are separate views
	require.NoError(t, d.AddSubView(newView("/a/x.log", models.DatasetSummary{})))
	assert.Equal(t, 2, d.Group().Len())
}

func TestSnapshot(t *testing.T) {
	a := newView("/a/x.log", models.DatasetSummary{Footprint: 1, RunningTime: 10})
	b := newView("/a/y.log", models.DatasetSummary{Footprint: 2, RunningTime: 20})
	d := newDocument(t, a, b)
	d.SetWatched(true)

	info := d.Snapshot()
	assert.Equal(t, d.ID(), info.ID)
	assert.Equal(t, "x.log;y.log;", info.Title)
	assert.Equal(t, "/a/x.log;/a/y.log;", info.Group)
	assert.True(t, info.Watched)
	assert.Equal(t, b.ID(), info.MasterID)
	require.Len(t, info.Views, 2)
	assert.Equal(t, "slave", info.Views[0].Role)
	assert.Equal(t, "master", info.Views[1].Role)
	assert.Equal(t, "as-needed", info.Views[1].ScrollPolicy)
	assert.False(t, info.Views[1].ScrollEnabled)
	assert.Equal(t, 20, info.Views[1].Range.Value)
	assert.Equal(t, 20, info.Views[0].X)
	assert.Equal(t, "single", info.Views[0].Kind)
	assert.Equal(t, uint64(2), info.Scale.MaxFootprint)
	assert.Len(t, info.Settings.Toggles, len(Toggles()))
}

func TestParseToggle(t *testing.T) {
	tg, err := ParseToggle("gctimesline")
	require.NoError(t, err)
	assert.Equal(t, ToggleGCTimesLine, tg)

	_, err = ParseToggle("bogus")
	assert.ErrorIs(t, err, ErrUnknownToggle)
}
