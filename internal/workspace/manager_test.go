package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/prefs"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/gcviewer/backend/internal/testutil"
	"github.com/gcviewer/backend/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	m      *Manager
	loader *testutil.MemoryLoader
	store  *prefs.Store

	mu     sync.Mutex
	events []models.DocumentEvent
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		loader: testutil.NewMemoryLoader(),
		store:  prefs.NewStore(filepath.Join(t.TempDir(), prefs.FileName)),
	}
	f.m = NewManager(f.loader, f.store, nil)
	f.m.Subscribe(func(e models.DocumentEvent) {
		f.mu.Lock()
		f.events = append(f.events, e)
		f.mu.Unlock()
	})
	return f
}

func (f *fixture) takeEvents() []models.DocumentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.events
	f.events = nil
	return out
}

func TestOpenGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.loader.Set("file:/a/x.log", models.DatasetSummary{Footprint: 10, MaxPause: 1, RunningTime: 100})
	f.loader.Set("file:/a/y.log", models.DatasetSummary{Footprint: 20, MaxPause: 2, RunningTime: 50})

	info, err := f.m.Open(ctx, "file:/a/x.log;file:/a/y.log;")
	require.NoError(t, err)

	assert.Equal(t, "x.log;y.log;", info.Title)
	assert.Equal(t, "file:/a/x.log;file:/a/y.log;", info.Group)
	require.Len(t, info.Views, 2)
	assert.Equal(t, info.Views[1].ID, info.MasterID)
	assert.Equal(t, models.Scale{MaxFootprint: 20, MaxPause: 2, MaxRunningTime: 100}, info.Scale)
	assert.True(t, info.Settings.Toggles["fullgclines"], "missing preferences default to on")

	events := f.takeEvents()
	require.Len(t, events, 1, "layout events are coalesced per operation")
	assert.Equal(t, models.DocumentEventLayout, events[0].Type)
	assert.Equal(t, info.ID, events[0].DocumentID)
	require.NotNil(t, events[0].Document)

	list := f.m.List()
	require.Len(t, list, 1)
	assert.Equal(t, info.ID, list[0].ID)

	last, ok := f.store.LastFile()
	assert.True(t, ok)
	assert.Equal(t, "/a/x.log", last)
	assert.Equal(t, []string{"file:/a/x.log;file:/a/y.log;"}, f.store.RecentFiles())
}

func TestOpenGroupLoaderMiss(t *testing.T) {
	f := newFixture(t)
	info, err := f.m.Open(context.Background(), "file:/missing.log;")
	require.NoError(t, err)
	require.Len(t, info.Views, 1)
	assert.Equal(t, models.DatasetSummary{}, info.Views[0].Dataset)
}

func TestOpenEmptyGroup(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Open(context.Background(), ";;")
	assert.ErrorIs(t, err, ErrEmptyGroup)
	assert.Empty(t, f.m.List())
}

func TestOpenUsesStoredToggles(t *testing.T) {
	f := newFixture(t)
	f.store.SetViewToggle("antialias", false)
	f.store.SetViewToggle("showmodelmetricspanel", false)

	info, err := f.m.Open(context.Background(), "file:/a.log;")
	require.NoError(t, err)
	assert.False(t, info.Settings.Toggles["antialias"])
	assert.False(t, info.Settings.ShowModelMetricsPanel)
	assert.True(t, info.Settings.Toggles["youngmemory"])
}

func TestRecentGroupsMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, g := range []string{"file:/a.log;", "file:/b.log;", "file:/a.log;"} {
		_, err := f.m.Open(ctx, g)
		require.NoError(t, err)
	}

	recent := f.m.RecentGroups()
	require.Len(t, recent, 2)
	assert.Equal(t, "file:/a.log;", recent[0].Encode())
	assert.Equal(t, "file:/b.log;", recent[1].Encode())

	for i := 0; i < MaxRecentGroups+3; i++ {
		_, err := f.m.OpenGroup(ctx, resource.NewGroup(resource.Single(resource.ID("file:/r" + string(rune('a'+i)) + ".log"))))
		require.NoError(t, err)
	}
	assert.Len(t, f.m.RecentGroups(), MaxRecentGroups)
	assert.Len(t, f.store.RecentFiles(), MaxRecentGroups)
}

func TestRecentGroupsSeededFromPreferences(t *testing.T) {
	store := prefs.NewStore(filepath.Join(t.TempDir(), prefs.FileName))
	store.SetRecentFiles([]string{"file:/a.log;file:/b.log>file:/b.log.1;"})

	m := NewManager(testutil.NewMemoryLoader(), store, nil)
	recent := m.RecentGroups()
	require.Len(t, recent, 1)
	assert.Equal(t, 2, recent[0].Len())
}

func TestViewLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.m.Open(ctx, "file:/a.log;")
	require.NoError(t, err)
	docID := info.ID

	info, err = f.m.AddView(ctx, docID, "file:/b.log>file:/b.log.1;")
	require.NoError(t, err)
	require.Len(t, info.Views, 2)
	assert.Equal(t, "series", info.Views[1].Kind)
	assert.Equal(t, "a.log;b.log (series, 1 more files);", info.Title)

	second := info.Views[1].ID
	info, err = f.m.SetMinimized(docID, second, true)
	require.NoError(t, err)
	assert.Equal(t, info.Views[0].ID, info.MasterID)
	assert.Equal(t, "none", info.Views[1].Role)

	_, err = f.m.SetMinimized(docID, "nope", true)
	assert.ErrorIs(t, err, ErrViewNotFound)
	_, err = f.m.SetMinimized("nope", second, true)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	f.takeEvents()
	info, disposed, err := f.m.CloseView(docID, info.Views[0].ID)
	require.NoError(t, err)
	assert.False(t, disposed)
	require.Len(t, info.Views, 1)
	assert.True(t, info.Filler, "only a minimized view is left")

	_, disposed, err = f.m.CloseView(docID, second)
	require.NoError(t, err)
	assert.True(t, disposed)
	_, err = f.m.Get(docID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	var types []models.DocumentEventType
	for _, e := range f.takeEvents() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []models.DocumentEventType{models.DocumentEventLayout, models.DocumentEventDisposed}, types)
}

func TestCloseDocument(t *testing.T) {
	f := newFixture(t)
	info, err := f.m.Open(context.Background(), "file:/a.log;file:/b.log;file:/c.log;")
	require.NoError(t, err)

	require.NoError(t, f.m.CloseDocument(info.ID))
	assert.Empty(t, f.m.List())
	assert.ErrorIs(t, f.m.CloseDocument(info.ID), ErrDocumentNotFound)
}

func TestWatchedScrollAndRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.loader.Set("file:/a.log", models.DatasetSummary{RunningTime: 100})
	f.loader.Set("file:/b.log", models.DatasetSummary{RunningTime: 80})

	info, err := f.m.Open(ctx, "file:/a.log;file:/b.log;")
	require.NoError(t, err)
	docID := info.ID

	width := 0
	info, err = f.m.Scroll(docID, 30, &width)
	require.NoError(t, err)
	assert.Equal(t, 30, info.Views[1].Range.Value)
	assert.Equal(t, 30, info.Views[0].X)

	info, err = f.m.SetWatched(docID, true)
	require.NoError(t, err)
	assert.True(t, info.Watched)
	assert.Equal(t, 100, info.Views[1].Range.Value)
	assert.False(t, info.Views[1].ScrollEnabled)

	_, err = f.m.Scroll(docID, 10, nil)
	assert.Error(t, err)

	f.loader.Set("file:/b.log", models.DatasetSummary{RunningTime: 400})
	n, err := f.m.RefreshResource(ctx, "file:/b.log", "test")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	info, err = f.m.Get(docID)
	require.NoError(t, err)
	assert.Equal(t, 400, info.Views[1].Range.Maximum)
	assert.Equal(t, 400, info.Views[1].Range.Value, "watched master follows new data")
	assert.Equal(t, 400, info.Views[0].X)

	n, err = f.m.RefreshResource(ctx, "file:/unrelated.log", "test")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	info, err := f.m.Open(context.Background(), "file:/a.log;file:/b.log;")
	require.NoError(t, err)

	scale := 2.0
	show := false
	info, err = f.m.UpdateSettings(info.ID, SettingsUpdate{
		Toggles:               map[string]bool{"antialias": false, "gctimesline": false},
		ScaleFactor:           &scale,
		ShowModelMetricsPanel: &show,
	})
	require.NoError(t, err)
	for _, v := range info.Views {
		assert.False(t, v.Settings.Toggles["antialias"])
		assert.False(t, v.Settings.Toggles["gctimesline"])
		assert.True(t, v.Settings.Toggles["fullgclines"])
		assert.Equal(t, 2.0, v.Settings.ScaleFactor)
		assert.False(t, v.MetricsPanelVisible)
	}
	assert.False(t, f.store.ViewToggle("antialias", true))
	assert.False(t, f.store.Bool(prefs.KeyAntiAlias, true))
	assert.False(t, f.store.ViewToggle("gctimesline", true))
	assert.False(t, f.store.ViewToggle(prefs.KeyShowModelMetricsPanel, true))

	_, err = f.m.UpdateSettings(info.ID, SettingsUpdate{Toggles: map[string]bool{"bogus": true}})
	assert.Error(t, err)
	bad := -1.0
	_, err = f.m.UpdateSettings(info.ID, SettingsUpdate{ScaleFactor: &bad})
	assert.Error(t, err)
}

func TestSavePreferences(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Open(context.Background(), "file:/a.log;")
	require.NoError(t, err)
	f.m.SetWindow(prefs.WindowBounds{X: 5, Y: 6, Width: 1000, Height: 700})

	require.NoError(t, f.m.SavePreferences())

	loaded := prefs.NewStore(f.store.Path()).Load()
	require.True(t, loaded.Loaded())
	assert.Equal(t, 1000, loaded.WindowWidth())
	assert.Equal(t, []string{"file:/a.log;"}, loaded.RecentFiles())
}

func TestSavePreferencesFailureKeepsLiveStore(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	store := prefs.NewStore(filepath.Join(blocker, prefs.FileName))
	store.SetLastFile("kept")
	m := NewManager(testutil.NewMemoryLoader(), store, nil)

	assert.Error(t, m.SavePreferences())
	last, _ := store.LastFile()
	assert.Equal(t, "kept", last)
}

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.m.Open(ctx, "file:/a.log;file:/b.log>file:/b.log.1;")
	require.NoError(t, err)
	_, err = f.m.SetMinimized(info.ID, info.Views[0].ID, true)
	require.NoError(t, err)
	_, err = f.m.SetWatched(info.ID, true)
	require.NoError(t, err)
	scale := 3.0
	_, err = f.m.UpdateSettings(info.ID, SettingsUpdate{ScaleFactor: &scale})
	require.NoError(t, err)

	data, err := f.m.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), "file:/a.log;file:/b.log>file:/b.log.1;")

	other := newFixture(t)
	opened, err := other.m.Import(ctx, data)
	require.NoError(t, err)
	require.Len(t, opened, 1)
	got := opened[0]
	assert.Equal(t, info.Group, got.Group)
	assert.True(t, got.Watched)
	assert.Equal(t, 3.0, got.Settings.ScaleFactor)
	require.Len(t, got.Views, 2)
	assert.True(t, got.Views[0].Minimized)
	assert.False(t, got.Views[1].Minimized)

	_, err = other.m.Import(ctx, []byte("version: 99\n"))
	assert.ErrorIs(t, err, ErrInvalidWorkspace)
	_, err = other.m.Import(ctx, []byte(":::"))
	assert.ErrorIs(t, err, ErrInvalidWorkspace)
	_, err = other.m.Import(ctx, []byte("documents: []\n"))
	assert.ErrorIs(t, err, ErrInvalidWorkspace)
	_, err = other.m.Import(ctx, []byte("version: [1\n"))
	assert.ErrorIs(t, err, ErrInvalidWorkspace)

	none, err := other.m.Import(ctx, []byte("version: 1\ndocuments: []\n"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileEventsRefreshViews(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gc.log")
	require.NoError(t, os.WriteFile(path, []byte("0\n"), 0644))
	id := resource.MustNormalize(path)

	w, err := watch.NewFileWatcher(10 * time.Millisecond)
	require.NoError(t, err)

	loader := testutil.NewMemoryLoader()
	loader.Set(id, models.DatasetSummary{RunningTime: 10})
	m := NewManager(loader, prefs.NewStore(filepath.Join(dir, prefs.FileName)), w)
	defer m.Shutdown()
	w.Start(context.Background(), m.HandleFileEvent)

	info, err := m.Open(context.Background(), id.String()+";")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, w.Watched())

	loader.Set(id, models.DatasetSummary{RunningTime: 99})
	require.NoError(t, os.WriteFile(path, []byte("0\n1\n"), 0644))

	require.Eventually(t, func() bool {
		got, err := m.Get(info.ID)
		return err == nil && got.Scale.MaxRunningTime == 99
	}, 5*time.Second, 20*time.Millisecond)
}
