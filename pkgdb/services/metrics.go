package services

import (
	"errors"
	"pkgdb/pkgdb/schema"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusChangeMetric = promauto.NewSummary(prometheus.SummaryOpts{Name: "pkgdb_status_change", Help: "Status change latency"})

	statusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgdb_status_changes_total",
		Help: "Committed status changes by family and resulting status",
	}, []string{"family", "status"})

	statusConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgdb_status_conflicts_total",
		Help: "Status changes rejected because of a concurrent update",
	}, []string{"family"})

	entitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgdb_entities_created_total",
		Help: "Entities created by log kind",
	}, []string{"kind"})
)

func recordStatusChange(family schema.Family, status schema.Status, err error) {
	switch {
	case err == nil:
		statusChanges.WithLabelValues(string(family), status.String()).Inc()
	case errors.Is(err, schema.ErrConflict):
		statusConflicts.WithLabelValues(string(family)).Inc()
	}
}

func recordCreated(kind schema.LogKind) {
	entitiesCreated.WithLabelValues(string(kind)).Inc()
}
