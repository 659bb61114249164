// Package prefs holds user preferences of gcviewer and loads / stores them
// from / in a java-style properties file.
package prefs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gcviewer/backend/internal/logging"
	"github.com/magiconair/properties"
)

// Legacy key names. They are the on-disk schema and must not change.
const (
	KeyAntiAlias             = "antialias"
	KeyShowModelMetricsPanel = "showmodelmetricspanel"

	ViewPrefix       = "view."
	RecentFilePrefix = "recent."

	KeyWindowWidth  = "window.width"
	KeyWindowHeight = "window.height"
	KeyWindowX      = "window.x"
	KeyWindowY      = "window.y"
	KeyLastFile     = "lastfile"
)

// Window defaults used when no value is stored.
const (
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
	DefaultWindowX      = 0
	DefaultWindowY      = 0
)

// FileName is the preferences file name in the user's home directory.
const FileName = ".gcviewer.properties"

var logger = logging.New("prefs")

// LoadState describes the outcome of the last Load.
type LoadState string

const (
	StateNotFound LoadState = "not-found"
	StateLoaded   LoadState = "loaded"
	StateInvalid  LoadState = "invalid"
)

// Store is a flat key/value preference mapping backed by a properties file.
type Store struct {
	mu    sync.RWMutex
	path  string
	props *properties.Properties
	state LoadState
}

// DefaultPath returns $HOME/.gcviewer.properties.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName), nil
}

// NewStore creates an empty store backed by path.
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		props: newProperties(),
		state: StateNotFound,
	}
}

func newProperties() *properties.Properties {
	p := properties.NewProperties()
	p.DisableExpansion = true
	p.WriteSeparator = "="
	return p
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file. A missing file leaves the store empty and not
// loaded; read or parse failures are logged and leave the store as it was.
func (s *Store) Load() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.state = StateNotFound
		return s
	}
	if err != nil {
		logger.Warnf("could not load preferences (%v)", err)
		s.state = StateInvalid
		return s
	}

	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		logger.Warnf("could not load preferences from %s (%v)", s.path, err)
		s.state = StateInvalid
		return s
	}
	p.DisableExpansion = true
	p.WriteSeparator = "="

	s.props = p
	s.state = StateLoaded
	return s
}

// State returns the outcome of the last Load.
func (s *Store) State() LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loaded reports whether the last Load read a valid file.
func (s *Store) Loaded() bool {
	return s.State() == StateLoaded
}

// Save writes the whole mapping to the backing file. The error is logged and
// returned; callers may keep running on the in-memory values.
func (s *Store) Save() error {
	s.mu.RLock()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#GCViewer preferences\n#%s\n", time.Now().Format(time.UnixDate))
	_, err := s.props.Write(&buf, properties.UTF8)
	s.mu.RUnlock()
	if err != nil {
		logger.Warnf("could not store preferences (%v)", err)
		return fmt.Errorf("encoding preferences: %w", err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		logger.Warnf("could not store preferences (%v)", err)
		return err
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gcviewer-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing preferences: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing preferences: %w", err)
	}
	return nil
}

// ReplaceAll clears s and copies every key of other into it.
func (s *Store) ReplaceAll(other *Store) {
	if other == s {
		return
	}
	other.mu.RLock()
	keys := other.props.Keys()
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i], _ = other.props.Get(k)
	}
	other.mu.RUnlock()

	p := newProperties()
	for i, k := range keys {
		set(p, k, values[i])
	}

	s.mu.Lock()
	s.props = p
	s.mu.Unlock()
}

// Clone returns an independent copy of s backed by the same path.
func (s *Store) Clone() *Store {
	c := NewStore(s.path)
	c.ReplaceAll(s)
	c.state = s.State()
	return c
}

func set(p *properties.Properties, key, value string) {
	if _, _, err := p.Set(key, value); err != nil {
		logger.Warnf("could not set preference %q (%v)", key, err)
	}
}

// Keys returns all keys in the store.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Keys()
}

// Map returns a copy of the raw mapping.
func (s *Store) Map() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Map()
}

// String returns the raw value of key.
func (s *Store) String(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props.Get(key)
}

// SetString stores a raw value.
func (s *Store) SetString(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set(s.props, key, value)
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props.Delete(key)
}

// Bool returns true if the stored text is "true" (any case). A missing key
// yields def; any other text yields false.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.String(key)
	if !ok {
		return def
	}
	return strings.EqualFold(v, "true")
}

// SetBool stores value as "true" or "false".
func (s *Store) SetBool(key string, value bool) {
	s.SetString(key, strconv.FormatBool(value))
}

// Int parses the stored value. Missing or unparsable values yield def.
func (s *Store) Int(key string, def int) int {
	v, ok := s.String(key)
	if !ok {
		logger.Debugf("preference %q not set; using default: %d", key, def)
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Infof("could not read property '%s' from %s; using default: %d", key, s.path, def)
		return def
	}
	return n
}

// SetInt stores value in decimal.
func (s *Store) SetInt(key string, value int) {
	s.SetString(key, strconv.Itoa(value))
}

// ViewToggle returns a display toggle stored under the view. prefix.
func (s *Store) ViewToggle(name string, def bool) bool {
	return s.Bool(ViewPrefix+name, def)
}

// SetViewToggle stores a display toggle under the view. prefix.
func (s *Store) SetViewToggle(name string, value bool) {
	s.SetBool(ViewPrefix+name, value)
}

func (s *Store) WindowWidth() int  { return s.Int(KeyWindowWidth, DefaultWindowWidth) }
func (s *Store) WindowHeight() int { return s.Int(KeyWindowHeight, DefaultWindowHeight) }
func (s *Store) WindowX() int      { return s.Int(KeyWindowX, DefaultWindowX) }
func (s *Store) WindowY() int      { return s.Int(KeyWindowY, DefaultWindowY) }

func (s *Store) SetWindowWidth(v int)  { s.SetInt(KeyWindowWidth, v) }
func (s *Store) SetWindowHeight(v int) { s.SetInt(KeyWindowHeight, v) }
func (s *Store) SetWindowX(v int)      { s.SetInt(KeyWindowX, v) }
func (s *Store) SetWindowY(v int)      { s.SetInt(KeyWindowY, v) }

// LastFile returns the last opened file, if any.
func (s *Store) LastFile() (string, bool) {
	return s.String(KeyLastFile)
}

// SetLastFile stores the last opened file.
func (s *Store) SetLastFile(name string) {
	s.SetString(KeyLastFile, name)
}

// SetRecentFiles replaces the recent file list. Entries are written as
// recent.0, recent.1, ... in order.
func (s *Store) SetRecentFiles(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.props.Keys() {
		if strings.HasPrefix(k, RecentFilePrefix) {
			s.props.Delete(k)
		}
	}
	for i, name := range names {
		set(s.props, RecentFilePrefix+strconv.Itoa(i), name)
	}
}

// RecentFiles returns every value stored under the recent. prefix.
// The order is that of the key scan and is not guaranteed to match the
// order given to SetRecentFiles.
func (s *Store) RecentFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for k, v := range s.props.Map() {
		if strings.HasPrefix(k, RecentFilePrefix) {
			names = append(names, v)
		}
	}
	return names
}
