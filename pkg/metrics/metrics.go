// Package metrics exposes Prometheus counters for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts accepted CSV uploads.
	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_sufficiency_uploads_total",
		Help: "Number of accepted game plan CSV uploads.",
	})

	// ValidationIssuesTotal counts validation issues by severity.
	ValidationIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_sufficiency_validation_issues_total",
		Help: "Validation issues produced, by severity.",
	}, []string{"severity"})

	// ImportsTotal counts commit attempts by outcome.
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_sufficiency_imports_total",
		Help: "Import commit attempts, by status.",
	}, []string{"status"})

	// BackupsTotal counts backup operations by kind and outcome.
	BackupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_sufficiency_backups_total",
		Help: "Backup operations, by kind and status.",
	}, []string{"kind", "status"})
)
