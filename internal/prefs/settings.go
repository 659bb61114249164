package prefs

import (
	"strings"

	"github.com/gcviewer/backend/internal/resource"
)

// WindowBounds is the main window geometry.
type WindowBounds struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Settings is the structured view of a Store. Nil or empty fields mean
// "not stored"; Apply leaves the corresponding keys untouched.
type Settings struct {
	Window       *WindowBounds    `json:"window,omitempty"`
	Toggles      map[string]bool  `json:"toggles,omitempty"`
	LastFile     *string          `json:"lastFile,omitempty"`
	RecentGroups []resource.Group `json:"-"`
}

// Settings derives the structured view from the raw mapping.
func (s *Store) Settings() Settings {
	var out Settings

	m := s.Map()
	if hasAny(m, KeyWindowX, KeyWindowY, KeyWindowWidth, KeyWindowHeight) {
		out.Window = &WindowBounds{
			X:      s.WindowX(),
			Y:      s.WindowY(),
			Width:  s.WindowWidth(),
			Height: s.WindowHeight(),
		}
	}

	for k, v := range m {
		if name, ok := strings.CutPrefix(k, ViewPrefix); ok && name != "" {
			if out.Toggles == nil {
				out.Toggles = make(map[string]bool)
			}
			out.Toggles[name] = strings.EqualFold(v, "true")
		}
	}

	if v, ok := m[KeyLastFile]; ok {
		out.LastFile = &v
	}

	for _, encoded := range s.RecentFiles() {
		if encoded == "" {
			continue
		}
		if g := resource.Decode(encoded); g.Len() > 0 {
			out.RecentGroups = append(out.RecentGroups, g)
		}
	}
	return out
}

// Apply writes every set field of st under its legacy key names.
func (s *Store) Apply(st Settings) {
	if st.Window != nil {
		s.SetWindowX(st.Window.X)
		s.SetWindowY(st.Window.Y)
		s.SetWindowWidth(st.Window.Width)
		s.SetWindowHeight(st.Window.Height)
	}
	for name, on := range st.Toggles {
		s.SetViewToggle(name, on)
	}
	if st.LastFile != nil {
		s.SetLastFile(*st.LastFile)
	}
	if st.RecentGroups != nil {
		encoded := make([]string, 0, len(st.RecentGroups))
		for _, g := range st.RecentGroups {
			encoded = append(encoded, g.Encode())
		}
		s.SetRecentFiles(encoded)
	}
}

func hasAny(m map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
