package document

import "github.com/gcviewer/backend/internal/models"

// Snapshot returns the state of the last layout in wire form.
func (d *Document) Snapshot() models.DocumentInfo {
	info := models.DocumentInfo{
		ID:           d.id,
		Title:        d.title,
		Group:        d.Group().Encode(),
		Watched:      d.watched,
		Filler:       d.filler,
		NeedsRepaint: d.dirty,
		Scale:        d.aggregate,
		Settings:     d.settings.Info(),
		Views:        make([]models.ViewInfo, 0, len(d.members)),
	}
	if d.master != nil {
		info.MasterID = d.master.id
	}
	for _, m := range d.members {
		info.Views = append(info.Views, m.view.Info())
	}
	return info
}

// Info returns the view in wire form.
func (v *SubView) Info() models.ViewInfo {
	ids := v.entry.IDs()
	resources := make([]string, len(ids))
	for i, id := range ids {
		resources[i] = id.String()
	}

	pos := v.pane.Viewport().Position()
	rng := v.pane.Range()
	return models.ViewInfo{
		ID:                  v.id,
		Kind:                v.entry.Kind().String(),
		Resources:           resources,
		Minimized:           v.minimized,
		Role:                string(v.role),
		Row:                 v.placement.Row,
		HeaderRow:           v.placement.HeaderRow,
		ChartVisible:        v.placement.ChartVisible,
		MetricsPanelVisible: v.placement.MetricsPanelVisible,
		ScrollPolicy:        string(v.pane.Policy()),
		ScrollEnabled:       v.pane.Enabled(),
		X:                   pos.X,
		Y:                   pos.Y,
		Range: models.RangeInfo{
			Value:   rng.Value(),
			Extent:  rng.Extent(),
			Maximum: rng.Maximum(),
		},
		Dataset:  v.dataset,
		Scale:    v.scale,
		Settings: v.settings.Info(),
	}
}
