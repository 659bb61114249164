package document

import (
	"errors"
	"fmt"
	"math"

	"github.com/gcviewer/backend/internal/models"
)

// Toggle is a boolean display option. Its value doubles as the preference
// key (under the "view." prefix) the option is persisted with.
type Toggle string

const (
	ToggleAntiAlias                    Toggle = "antialias"
	ToggleFullGCLines                  Toggle = "fullgclines"
	ToggleIncGCLines                   Toggle = "incgclines"
	ToggleGCTimesLine                  Toggle = "gctimesline"
	ToggleGCTimesRectangles            Toggle = "gctimesrectangles"
	ToggleTotalMemory                  Toggle = "totalmemory"
	ToggleUsedMemory                   Toggle = "usedmemory"
	ToggleUsedTenuredMemory            Toggle = "usedtenuredmemory"
	ToggleUsedYoungMemory              Toggle = "usedyoungmemory"
	ToggleTenuredMemory                Toggle = "tenuredmemory"
	ToggleYoungMemory                  Toggle = "youngmemory"
	ToggleInitialMarkLevel             Toggle = "initialmarklevel"
	ToggleConcurrentCollectionBeginEnd Toggle = "concurrentcollectionbeginend"
	ToggleShowDateStamp                Toggle = "showdatestamp"
)

var allToggles = []Toggle{
	ToggleAntiAlias,
	ToggleFullGCLines,
	ToggleIncGCLines,
	ToggleGCTimesLine,
	ToggleGCTimesRectangles,
	ToggleTotalMemory,
	ToggleUsedMemory,
	ToggleUsedTenuredMemory,
	ToggleUsedYoungMemory,
	ToggleTenuredMemory,
	ToggleYoungMemory,
	ToggleInitialMarkLevel,
	ToggleConcurrentCollectionBeginEnd,
	ToggleShowDateStamp,
}

// Toggles returns every known toggle in a stable order.
func Toggles() []Toggle {
	out := make([]Toggle, len(allToggles))
	copy(out, allToggles)
	return out
}

// ErrUnknownToggle is returned by ParseToggle for names outside Toggles.
var ErrUnknownToggle = errors.New("unknown display toggle")

// ParseToggle validates a toggle name.
func ParseToggle(name string) (Toggle, error) {
	for _, t := range allToggles {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownToggle, name)
}

// DefaultScaleFactor is the horizontal zoom of a fresh view.
const DefaultScaleFactor = 1.0

// DisplaySettings is the set of display options shared by all views of a
// document. The zero value has every toggle off and a zero scale factor;
// use NewDisplaySettings for usable defaults.
type DisplaySettings struct {
	Toggles               map[Toggle]bool
	ScaleFactor           float64
	ShowModelMetricsPanel bool
}

// NewDisplaySettings returns settings with every toggle off and the default
// scale factor.
func NewDisplaySettings() DisplaySettings {
	return DisplaySettings{
		Toggles:     make(map[Toggle]bool, len(allToggles)),
		ScaleFactor: DefaultScaleFactor,
	}
}

// Clone returns a deep copy.
func (s DisplaySettings) Clone() DisplaySettings {
	out := s
	out.Toggles = make(map[Toggle]bool, len(s.Toggles))
	for k, v := range s.Toggles {
		out.Toggles[k] = v
	}
	return out
}

// Info converts s to its wire form.
func (s DisplaySettings) Info() models.DisplaySettingsInfo {
	toggles := make(map[string]bool, len(allToggles))
	for _, t := range allToggles {
		toggles[string(t)] = s.Toggles[t]
	}
	return models.DisplaySettingsInfo{
		Toggles:               toggles,
		ScaleFactor:           s.ScaleFactor,
		ShowModelMetricsPanel: s.ShowModelMetricsPanel,
	}
}

// ValidScaleFactor reports whether f can be used as a scale factor.
func ValidScaleFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
