package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcviewer/backend/internal/document"
	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
	"gopkg.in/yaml.v3"
)

// exportVersion is bumped when the file layout changes incompatibly.
const exportVersion = 1

// ErrInvalidWorkspace is returned by Import for data that is not a
// workspace file this version can read.
var ErrInvalidWorkspace = errors.New("invalid workspace file")

// File is the YAML form of the open documents.
type File struct {
	Version   int             `yaml:"version"`
	Documents []DocumentState `yaml:"documents"`
}

// DocumentState is one open document. Minimized lists the state of each
// entry of Group in order.
type DocumentState struct {
	Group       string  `yaml:"group"`
	Title       string  `yaml:"title,omitempty"`
	Watched     bool    `yaml:"watched,omitempty"`
	ScaleFactor float64 `yaml:"scaleFactor,omitempty"`
	Minimized   []bool  `yaml:"minimized,omitempty"`
}

// Export writes every open document as YAML.
func (m *Manager) Export() ([]byte, error) {
	m.mu.Lock()
	f := File{Version: exportVersion, Documents: make([]DocumentState, 0, len(m.order))}
	for _, id := range m.order {
		doc := m.docs[id]
		st := DocumentState{
			Group:   doc.Group().Encode(),
			Title:   doc.Title(),
			Watched: doc.Watched(),
		}
		if sf := doc.ScaleFactor(); sf != document.DefaultScaleFactor {
			st.ScaleFactor = sf
		}
		anyMinimized := false
		minimized := make([]bool, 0, doc.Len())
		for _, v := range doc.Views() {
			minimized = append(minimized, v.Minimized())
			anyMinimized = anyMinimized || v.Minimized()
		}
		if anyMinimized {
			st.Minimized = minimized
		}
		f.Documents = append(f.Documents, st)
	}
	m.mu.Unlock()

	out, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workspace: %w", err)
	}
	return out, nil
}

// Import opens every document described by data next to the ones already
// open.
func (m *Manager) Import(ctx context.Context, data []byte) ([]models.DocumentInfo, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}
	if f.Version < 1 {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidWorkspace)
	}
	if f.Version > exportVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidWorkspace, f.Version)
	}

	opened := make([]models.DocumentInfo, 0, len(f.Documents))
	for i, st := range f.Documents {
		g := resource.Decode(st.Group)
		if g.Len() == 0 {
			logger.Warnf("workspace document %d has no valid entries, skipping", i)
			continue
		}
		info, err := m.OpenGroup(ctx, g)
		if err != nil {
			return opened, err
		}

		err = m.do(func() error {
			doc, err := m.document(info.ID)
			if err != nil {
				return err
			}
			views := doc.Views()
			for j, minimized := range st.Minimized {
				if j < len(views) && minimized {
					views[j].SetMinimized(true)
				}
			}
			if st.ScaleFactor != 0 {
				if err := doc.SetScaleFactor(st.ScaleFactor); err != nil {
					logger.Warnf("workspace document %d: %v", i, err)
				}
			}
			if st.Watched {
				doc.SetWatched(true)
			}
			m.pending = append(m.pending, pendingEvent{typ: models.DocumentEventLayout, id: info.ID})
			info = doc.Snapshot()
			return nil
		})
		if err != nil {
			return opened, err
		}
		opened = append(opened, info)
	}
	return opened, nil
}
