package models

// DatasetSummary holds the summary metrics an external loader produces for
// one resource.
type DatasetSummary struct {
	Footprint   uint64  `json:"footprint" msgpack:"footprint" yaml:"footprint"`       // bytes
	MaxPause    float64 `json:"maxPause" msgpack:"maxPause" yaml:"maxPause"`          // seconds
	RunningTime float64 `json:"runningTime" msgpack:"runningTime" yaml:"runningTime"` // seconds
}

// Scale is the aggregate of the summaries of every view in a document.
// All charts of a document are drawn against the same Scale.
type Scale struct {
	MaxFootprint   uint64  `json:"maxFootprint" msgpack:"maxFootprint"`
	MaxPause       float64 `json:"maxPause" msgpack:"maxPause"`
	MaxRunningTime float64 `json:"maxRunningTime" msgpack:"maxRunningTime"`
}

// Combine folds rotated parts of one series into a single summary: the
// largest footprint and pause, and the summed running time.
func Combine(parts ...DatasetSummary) DatasetSummary {
	var out DatasetSummary
	for _, p := range parts {
		if p.Footprint > out.Footprint {
			out.Footprint = p.Footprint
		}
		if p.MaxPause > out.MaxPause {
			out.MaxPause = p.MaxPause
		}
		out.RunningTime += p.RunningTime
	}
	return out
}

// DatasetRecord is a stored summary keyed by its resource.
type DatasetRecord struct {
	Resource  string         `json:"resource" msgpack:"resource"`
	Summary   DatasetSummary `json:"summary" msgpack:"summary"`
	UpdatedAt int64          `json:"updatedAt" msgpack:"updatedAt"` // Unix ms
}
