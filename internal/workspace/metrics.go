package workspace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gcviewer",
		Subsystem: "workspace",
		Name:      "open_documents",
		Help:      "Number of open documents.",
	})

	openViews = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gcviewer",
		Subsystem: "workspace",
		Name:      "open_views",
		Help:      "Number of sub-views across all open documents.",
	})

	relayoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gcviewer",
		Subsystem: "workspace",
		Name:      "relayouts_total",
		Help:      "Total document layout passes, including scale refreshes.",
	})

	datasetRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gcviewer",
		Subsystem: "workspace",
		Name:      "dataset_refreshes_total",
		Help:      "Total dataset reloads of open views, by trigger.",
	}, []string{"trigger"})

	loaderMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gcviewer",
		Subsystem: "workspace",
		Name:      "loader_misses_total",
		Help:      "Total views opened without a dataset summary.",
	})

	preferenceSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gcviewer",
		Subsystem: "prefs",
		Name:      "saves_total",
		Help:      "Total preference saves by outcome.",
	}, []string{"outcome"})
)
