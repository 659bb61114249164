package resource

import (
	"fmt"
	"strings"

	"github.com/gcviewer/backend/internal/logging"
)

const (
	// GroupSeparator separates entries of a group.
	GroupSeparator = ";"
	// SeriesSeparator separates the files of a series.
	SeriesSeparator = ">"
)

var logger = logging.New("resource")

// Kind tags the variant of an Entry.
type Kind uint8

const (
	kindInvalid Kind = iota
	// KindSingle is one resource.
	KindSingle
	// KindSeries is an ordered run of rotated files treated as one source.
	KindSeries
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindSeries:
		return "series"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entry is either a single resource or a series of resources.
// The zero Entry is invalid.
type Entry struct {
	kind Kind
	ids  []ID
}

// Single returns an entry for one resource.
func Single(id ID) Entry {
	return Entry{kind: KindSingle, ids: []ID{id}}
}

// Series returns an entry for rotated files in order. At least one ID is required.
// A one-part series encodes like a Single and decodes back as one.
func Series(ids ...ID) (Entry, error) {
	if len(ids) == 0 {
		return Entry{}, fmt.Errorf("resource: empty series")
	}
	cp := make([]ID, len(ids))
	copy(cp, ids)
	return Entry{kind: KindSeries, ids: cp}, nil
}

// MustSeries is like Series but panics on error.
func MustSeries(ids ...ID) Entry {
	e, err := Series(ids...)
	if err != nil {
		panic(err)
	}
	return e
}

// Kind returns the variant of e.
func (e Entry) Kind() Kind {
	return e.kind
}

// IDs returns a copy of the identifiers in order.
func (e Entry) IDs() []ID {
	cp := make([]ID, len(e.ids))
	copy(cp, e.ids)
	return cp
}

// First returns the first identifier.
func (e Entry) First() ID {
	if len(e.ids) == 0 {
		return ""
	}
	return e.ids[0]
}

// Contains reports whether id is part of e.
func (e Entry) Contains(id ID) bool {
	for _, x := range e.ids {
		if x == id {
			return true
		}
	}
	return false
}

// Equal reports structural equality.
func (e Entry) Equal(o Entry) bool {
	if e.kind != o.kind || len(e.ids) != len(o.ids) {
		return false
	}
	for i := range e.ids {
		if e.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// String returns the encoded form of e. It panics if e is not a valid entry.
func (e Entry) String() string {
	switch e.kind {
	case KindSingle:
		return string(e.ids[0])
	case KindSeries:
		parts := make([]string, len(e.ids))
		for i, id := range e.ids {
			parts[i] = string(id)
		}
		return strings.Join(parts, SeriesSeparator)
	default:
		panic(fmt.Sprintf("resource: unknown entry kind %v", e.kind))
	}
}

// displayName is the encoded form with series shortened to their first file.
func (e Entry) displayName() string {
	switch e.kind {
	case KindSingle:
		return string(e.ids[0])
	case KindSeries:
		if len(e.ids) > 1 {
			return fmt.Sprintf("%s (series, %d more files)", e.ids[0], len(e.ids)-1)
		}
		return string(e.ids[0])
	default:
		panic(fmt.Sprintf("resource: unknown entry kind %v", e.kind))
	}
}

// Group is an ordered list of entries displayed together. Groups are immutable.
type Group struct {
	entries []Entry
}

// NewGroup builds a group from live entries. Order is kept, duplicates are not removed.
func NewGroup(entries ...Entry) Group {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return Group{entries: cp}
}

// Decode parses the encoded group form. Identifiers that fail to normalize
// are logged and dropped; decoding never fails.
func Decode(s string) Group {
	var entries []Entry
	for _, token := range strings.Split(s, GroupSeparator) {
		if token == "" {
			continue
		}
		parts := strings.Split(token, SeriesSeparator)
		ids := make([]ID, 0, len(parts))
		for _, part := range parts {
			id, err := Normalize(part)
			if err != nil {
				logger.Warnf("failed to determine URL of %q, dropping it: %v", part, err)
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		if len(parts) > 1 {
			entries = append(entries, Entry{kind: KindSeries, ids: ids})
		} else {
			entries = append(entries, Single(ids[0]))
		}
	}
	return Group{entries: entries}
}

// Entries returns a copy of the entries in order.
func (g Group) Entries() []Entry {
	cp := make([]Entry, len(g.entries))
	copy(cp, g.entries)
	return cp
}

// Len returns the number of entries.
func (g Group) Len() int {
	return len(g.entries)
}

// Resources returns every identifier in the group, series flattened, in order.
func (g Group) Resources() []ID {
	var ids []ID
	for _, e := range g.entries {
		ids = append(ids, e.ids...)
	}
	return ids
}

// Encode renders the group with a trailing separator after every entry.
// The empty group encodes to "".
func (g Group) Encode() string {
	var sb strings.Builder
	for _, e := range g.entries {
		sb.WriteString(e.String())
		sb.WriteString(GroupSeparator)
	}
	return sb.String()
}

// ShortLabel returns a title for the group. With more than one entry only
// the file names are kept, each followed by the group separator. A single
// entry keeps its full location.
func (g Group) ShortLabel() string {
	switch len(g.entries) {
	case 0:
		return ""
	case 1:
		return g.entries[0].displayName()
	}

	var sb strings.Builder
	for _, e := range g.entries {
		name := e.displayName()
		// "/" first: windows http urls contain "/" while file paths use "\"
		i := strings.LastIndex(name, "/")
		if i < 0 {
			i = strings.LastIndex(name, `\`)
		}
		sb.WriteString(name[i+1:])
		sb.WriteString(GroupSeparator)
	}
	return sb.String()
}

// Equal reports structural, order-sensitive equality.
func (g Group) Equal(o Group) bool {
	if len(g.entries) != len(o.entries) {
		return false
	}
	for i := range g.entries {
		if !g.entries[i].Equal(o.entries[i]) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer with the encoded form.
func (g Group) String() string {
	return g.Encode()
}
