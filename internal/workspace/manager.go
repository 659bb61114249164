// Package workspace is the host side of the document model. It owns every
// open document, creates views from dataset summaries, and keeps the
// preference store and recent groups in step with what the user does.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gcviewer/backend/internal/dataset"
	"github.com/gcviewer/backend/internal/document"
	"github.com/gcviewer/backend/internal/logging"
	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/prefs"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/gcviewer/backend/internal/watch"
)

// MaxRecentGroups limits the recent groups list.
const MaxRecentGroups = 10

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrViewNotFound     = errors.New("view not found")
	ErrEmptyGroup       = errors.New("group has no valid entries")
)

var logger = logging.New("workspace")

// Manager serializes every document mutation under one lock, which plays
// the role of the GUI event thread.
type Manager struct {
	mu      sync.Mutex
	docs    map[string]*document.Document
	order   []string
	loader  dataset.Loader
	prefs   *prefs.Store
	recent  []resource.Group
	watcher *watch.FileWatcher

	pending []pendingEvent
	subs    map[int]func(models.DocumentEvent)
	nextSub int
}

type pendingEvent struct {
	typ models.DocumentEventType
	id  string
}

// NewManager creates a manager. store is the live preference store; its
// recent groups seed the recent list. watcher may be nil.
func NewManager(loader dataset.Loader, store *prefs.Store, watcher *watch.FileWatcher) *Manager {
	m := &Manager{
		docs:    make(map[string]*document.Document),
		loader:  loader,
		prefs:   store,
		watcher: watcher,
		subs:    make(map[int]func(models.DocumentEvent)),
	}
	m.recent = store.Settings().RecentGroups
	if len(m.recent) > MaxRecentGroups {
		m.recent = m.recent[:MaxRecentGroups]
	}
	return m
}

// Subscribe registers fn for document events and returns its cancel func.
// fn is called outside the manager lock.
func (m *Manager) Subscribe(fn func(models.DocumentEvent)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// do runs fn under the lock and then dispatches the events it produced,
// one per document and type.
func (m *Manager) do(fn func() error) error {
	m.mu.Lock()
	err := fn()
	events := m.collectEvents()
	subs := make([]func(models.DocumentEvent), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, e := range events {
		for _, s := range subs {
			s(e)
		}
	}
	return err
}

func (m *Manager) collectEvents() []models.DocumentEvent {
	seen := make(map[pendingEvent]bool, len(m.pending))
	var events []models.DocumentEvent
	for _, p := range m.pending {
		if seen[p] {
			continue
		}
		seen[p] = true
		e := models.DocumentEvent{Type: p.typ, DocumentID: p.id}
		if p.typ == models.DocumentEventLayout {
			doc, ok := m.docs[p.id]
			if !ok {
				continue
			}
			info := doc.Snapshot()
			e.Document = &info
		}
		events = append(events, e)
	}
	m.pending = nil
	return events
}

func (m *Manager) track(doc *document.Document) {
	id := doc.ID()
	m.docs[id] = doc
	m.order = append(m.order, id)
	openDocuments.Inc()

	doc.OnLayout(func(d *document.Document) {
		relayoutsTotal.Inc()
		m.pending = append(m.pending, pendingEvent{typ: models.DocumentEventLayout, id: id})
	})
	doc.OnDispose(func(d *document.Document) {
		delete(m.docs, id)
		for i, x := range m.order {
			if x == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		openDocuments.Dec()
		m.pending = append(m.pending, pendingEvent{typ: models.DocumentEventDisposed, id: id})
		logger.Infof("document %s closed", id)
	})
}

// displaySettings builds view settings from the preferences. Missing
// toggles default to on.
func (m *Manager) displaySettings() document.DisplaySettings {
	s := document.NewDisplaySettings()
	for _, t := range document.Toggles() {
		s.Toggles[t] = m.prefs.ViewToggle(string(t), true)
	}
	s.ShowModelMetricsPanel = m.prefs.ViewToggle(prefs.KeyShowModelMetricsPanel, true)
	return s
}

type loadedEntry struct {
	entry   resource.Entry
	summary models.DatasetSummary
}

// load fetches summaries without holding the lock. A miss opens the view
// with a zero summary.
func (m *Manager) load(ctx context.Context, g resource.Group) ([]loadedEntry, error) {
	out := make([]loadedEntry, 0, g.Len())
	for _, e := range g.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := m.loader.Load(ctx, e)
		if err != nil {
			loaderMissesTotal.Inc()
			logger.Warnf("no dataset for %s, showing it empty: %v", e, err)
			s = models.DatasetSummary{}
		}
		out = append(out, loadedEntry{entry: e, summary: s})
	}
	return out, nil
}

// Open decodes an encoded group and opens it as a new document.
func (m *Manager) Open(ctx context.Context, encoded string) (models.DocumentInfo, error) {
	return m.OpenGroup(ctx, resource.Decode(encoded))
}

// OpenGroup opens g as a new document and records it as the most recent group.
func (m *Manager) OpenGroup(ctx context.Context, g resource.Group) (models.DocumentInfo, error) {
	if g.Len() == 0 {
		return models.DocumentInfo{}, ErrEmptyGroup
	}
	loaded, err := m.load(ctx, g)
	if err != nil {
		return models.DocumentInfo{}, err
	}

	var info models.DocumentInfo
	err = m.do(func() error {
		settings := m.displaySettings()
		doc := document.New(settings)
		m.track(doc)
		for _, le := range loaded {
			if err := m.attach(doc, le, settings); err != nil {
				return err
			}
		}
		m.remember(g)
		info = doc.Snapshot()
		logger.Infof("opened document %s: %s", doc.ID(), doc.Title())
		return nil
	})
	return info, err
}

func (m *Manager) attach(doc *document.Document, le loadedEntry, settings document.DisplaySettings) error {
	v := document.NewSubView(le.entry, le.summary, settings)
	if err := doc.AddSubView(v); err != nil {
		return err
	}
	openViews.Inc()
	m.watchEntry(le.entry)
	return nil
}

func (m *Manager) watchEntry(e resource.Entry) {
	if m.watcher == nil {
		return
	}
	for _, id := range e.IDs() {
		if p, ok := id.Path(); ok {
			if err := m.watcher.Add(p); err != nil {
				logger.Warnf("cannot watch %s: %v", p, err)
			}
		}
	}
}

func (m *Manager) unwatchEntry(e resource.Entry) {
	if m.watcher == nil {
		return
	}
	for _, id := range e.IDs() {
		if p, ok := id.Path(); ok {
			m.watcher.Remove(p)
		}
	}
}

// remember moves g to the front of the recent list and writes the list and
// the last file to the live preferences.
func (m *Manager) remember(g resource.Group) {
	recent := []resource.Group{g}
	for _, r := range m.recent {
		if !r.Equal(g) && len(recent) < MaxRecentGroups {
			recent = append(recent, r)
		}
	}
	m.recent = recent

	encoded := make([]string, len(recent))
	for i, r := range recent {
		encoded[i] = r.Encode()
	}
	m.prefs.SetRecentFiles(encoded)

	if ids := g.Resources(); len(ids) > 0 {
		last := ids[0].String()
		if p, ok := ids[0].Path(); ok {
			last = p
		}
		m.prefs.SetLastFile(last)
	}
}

func (m *Manager) document(id string) (*document.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (m *Manager) view(docID, viewID string) (*document.Document, *document.SubView, error) {
	doc, err := m.document(docID)
	if err != nil {
		return nil, nil, err
	}
	v, ok := doc.View(viewID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrViewNotFound, viewID)
	}
	return doc, v, nil
}

// AddView decodes encoded (one or more entries in group form) and appends
// the entries to an open document.
func (m *Manager) AddView(ctx context.Context, docID, encoded string) (models.DocumentInfo, error) {
	g := resource.Decode(encoded)
	if g.Len() == 0 {
		return models.DocumentInfo{}, ErrEmptyGroup
	}
	loaded, err := m.load(ctx, g)
	if err != nil {
		return models.DocumentInfo{}, err
	}

	var info models.DocumentInfo
	err = m.do(func() error {
		doc, err := m.document(docID)
		if err != nil {
			return err
		}
		settings := doc.Settings()
		for _, le := range loaded {
			if err := m.attach(doc, le, settings); err != nil {
				return err
			}
		}
		m.remember(doc.Group())
		info = doc.Snapshot()
		return nil
	})
	return info, err
}

// Get returns a snapshot of an open document.
func (m *Manager) Get(docID string) (models.DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.document(docID)
	if err != nil {
		return models.DocumentInfo{}, err
	}
	return doc.Snapshot(), nil
}

// List returns snapshots of every open document in opening order.
func (m *Manager) List() []models.DocumentInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DocumentInfo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.docs[id].Snapshot())
	}
	return out
}

// SetMinimized minimizes or restores a view.
func (m *Manager) SetMinimized(docID, viewID string, minimized bool) (models.DocumentInfo, error) {
	var info models.DocumentInfo
	err := m.do(func() error {
		doc, v, err := m.view(docID, viewID)
		if err != nil {
			return err
		}
		v.SetMinimized(minimized)
		info = doc.Snapshot()
		return nil
	})
	return info, err
}

// CloseView closes one view. Closing the last view closes the document, in
// which case the returned snapshot is empty and disposed is true.
func (m *Manager) CloseView(docID, viewID string) (info models.DocumentInfo, disposed bool, err error) {
	err = m.do(func() error {
		doc, v, err := m.view(docID, viewID)
		if err != nil {
			return err
		}
		v.Close()
		openViews.Dec()
		m.unwatchEntry(v.Entry())
		if doc.Disposed() {
			disposed = true
			return nil
		}
		info = doc.Snapshot()
		return nil
	})
	return info, disposed, err
}

// CloseDocument closes every view of a document.
func (m *Manager) CloseDocument(docID string) error {
	return m.do(func() error {
		doc, err := m.document(docID)
		if err != nil {
			return err
		}
		for _, v := range doc.Views() {
			v.Close()
			openViews.Dec()
			m.unwatchEntry(v.Entry())
		}
		return nil
	})
}

// SetWatched toggles live-follow on a document.
func (m *Manager) SetWatched(docID string, watched bool) (models.DocumentInfo, error) {
	var info models.DocumentInfo
	err := m.do(func() error {
		doc, err := m.document(docID)
		if err != nil {
			return err
		}
		doc.SetWatched(watched)
		m.pending = append(m.pending, pendingEvent{typ: models.DocumentEventLayout, id: docID})
		info = doc.Snapshot()
		return nil
	})
	return info, err
}

// Scroll moves the master view to x. width, when given, is the visible
// chart width applied to every view first.
func (m *Manager) Scroll(docID string, x int, width *int) (models.DocumentInfo, error) {
	var info models.DocumentInfo
	err := m.do(func() error {
		doc, err := m.document(docID)
		if err != nil {
			return err
		}
		if width != nil {
			for _, v := range doc.Views() {
				v.SetVisibleWidth(*width)
			}
		}
		if err := doc.Scroll(x); err != nil {
			return err
		}
		info = doc.Snapshot()
		return nil
	})
	return info, err
}

// SettingsUpdate changes display settings of a document. Nil or empty
// fields are left alone.
type SettingsUpdate struct {
	Toggles               map[string]bool `json:"toggles,omitempty"`
	ScaleFactor           *float64        `json:"scaleFactor,omitempty"`
	ShowModelMetricsPanel *bool           `json:"showModelMetricsPanel,omitempty"`
}

// UpdateSettings broadcasts the update to every view of the document and
// records toggles in the live preferences.
func (m *Manager) UpdateSettings(docID string, u SettingsUpdate) (models.DocumentInfo, error) {
	toggles := make(map[document.Toggle]bool, len(u.Toggles))
	for name, on := range u.Toggles {
		t, err := document.ParseToggle(name)
		if err != nil {
			return models.DocumentInfo{}, err
		}
		toggles[t] = on
	}
	if u.ScaleFactor != nil && !document.ValidScaleFactor(*u.ScaleFactor) {
		return models.DocumentInfo{}, document.ErrInvalidScale
	}

	var info models.DocumentInfo
	err := m.do(func() error {
		doc, err := m.document(docID)
		if err != nil {
			return err
		}
		for t, on := range toggles {
			doc.SetToggle(t, on)
			m.prefs.SetViewToggle(string(t), on)
			if t == document.ToggleAntiAlias {
				m.prefs.SetBool(prefs.KeyAntiAlias, on)
			}
		}
		if u.ScaleFactor != nil {
			if err := doc.SetScaleFactor(*u.ScaleFactor); err != nil {
				return err
			}
		}
		if u.ShowModelMetricsPanel != nil {
			doc.SetShowModelMetricsPanel(*u.ShowModelMetricsPanel)
			m.prefs.SetViewToggle(prefs.KeyShowModelMetricsPanel, *u.ShowModelMetricsPanel)
			m.prefs.SetBool(prefs.KeyShowModelMetricsPanel, *u.ShowModelMetricsPanel)
		}
		m.pending = append(m.pending, pendingEvent{typ: models.DocumentEventLayout, id: docID})
		info = doc.Snapshot()
		return nil
	})
	return info, err
}

// RefreshResource reloads the summary of every open view that shows id.
// It returns the number of views refreshed.
func (m *Manager) RefreshResource(ctx context.Context, id resource.ID, trigger string) (int, error) {
	type target struct {
		doc *document.Document
		v   *document.SubView
	}

	m.mu.Lock()
	var targets []target
	for _, docID := range m.order {
		doc := m.docs[docID]
		for _, v := range doc.Views() {
			if v.Entry().Contains(id) {
				targets = append(targets, target{doc: doc, v: v})
			}
		}
	}
	m.mu.Unlock()

	if len(targets) == 0 {
		return 0, nil
	}

	summaries := make([]models.DatasetSummary, len(targets))
	for i, t := range targets {
		s, err := m.loader.Load(ctx, t.v.Entry())
		if err != nil {
			return 0, fmt.Errorf("reloading %s: %w", id, err)
		}
		summaries[i] = s
	}

	refreshed := 0
	err := m.do(func() error {
		for i, t := range targets {
			// the view may have been closed while loading
			if err := t.doc.RefreshDataset(t.v, summaries[i]); err != nil {
				continue
			}
			refreshed++
			datasetRefreshesTotal.WithLabelValues(trigger).Inc()
		}
		return nil
	})
	return refreshed, err
}

// HandleFileEvent refreshes the views showing a changed local file.
func (m *Manager) HandleFileEvent(e watch.FileEvent) {
	id, err := resource.Normalize(e.Path)
	if err != nil {
		logger.Warnf("ignoring change to %s: %v", e.Path, err)
		return
	}
	n, err := m.RefreshResource(context.Background(), id, "watch")
	if err != nil {
		logger.Warnf("refresh after change to %s failed: %v", e.Path, err)
		return
	}
	if n > 0 {
		logger.Debugf("file %s %s, refreshed %d views", e.Path, e.EventType, n)
	}
}

// RecentGroups returns the recent groups, most recent first.
func (m *Manager) RecentGroups() []resource.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]resource.Group, len(m.recent))
	copy(out, m.recent)
	return out
}

// Preferences returns the structured view of the live preferences.
func (m *Manager) Preferences() prefs.Settings {
	return m.prefs.Settings()
}

// PreferencesPath is the file the preferences are saved to.
func (m *Manager) PreferencesPath() string { return m.prefs.Path() }

// PreferencesState reports how the preferences were loaded.
func (m *Manager) PreferencesState() prefs.LoadState { return m.prefs.State() }

// SetWindow stores the main window geometry.
func (m *Manager) SetWindow(b prefs.WindowBounds) {
	m.prefs.Apply(prefs.Settings{Window: &b})
}

// SavePreferences snapshots the live preferences into a fresh store and
// writes that, so a failed write never touches the live copy.
func (m *Manager) SavePreferences() error {
	snapshot := prefs.NewStore(m.prefs.Path())
	snapshot.ReplaceAll(m.prefs)
	if err := snapshot.Save(); err != nil {
		preferenceSavesTotal.WithLabelValues("error").Inc()
		return err
	}
	preferenceSavesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Shutdown saves the preferences and stops the watcher. A failed save is
// logged by the store and does not stop the shutdown.
func (m *Manager) Shutdown() {
	_ = m.SavePreferences()
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			logger.Warnf("stopping watcher: %v", err)
		}
	}
}
