package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	issues := []Issue{
		{RowIndex: 0, Severity: SeverityCritical},
		{RowIndex: 0, Severity: SeverityWarning},
		{RowIndex: 2, Severity: SeverityWarning},
		{RowIndex: 3, Severity: SeveritySuggestion},
	}

	t.Run("counts severities and distinct rows", func(t *testing.T) {
		summary := Aggregate(issues)

		assert.Equal(t, 4, summary.Total)
		assert.Equal(t, 1, summary.Critical)
		assert.Equal(t, 2, summary.Warning)
		assert.Equal(t, 1, summary.Suggestion)
		assert.Equal(t, 3, summary.UniqueRows)
		assert.False(t, summary.CanImport)
	})

	t.Run("is idempotent", func(t *testing.T) {
		assert.Equal(t, Aggregate(issues), Aggregate(issues))
	})

	t.Run("warnings and suggestions do not block import", func(t *testing.T) {
		summary := Aggregate([]Issue{
			{RowIndex: 0, Severity: SeverityWarning},
			{RowIndex: 1, Severity: SeveritySuggestion},
		})

		assert.True(t, summary.CanImport)
		assert.Equal(t, 0, summary.Critical)
	})

	t.Run("empty issue list can import", func(t *testing.T) {
		summary := Aggregate(nil)

		assert.True(t, summary.CanImport)
		assert.Zero(t, summary.Total)
		assert.Zero(t, summary.UniqueRows)
	})

	t.Run("severity counts are additive over concatenation", func(t *testing.T) {
		a := []Issue{{RowIndex: 0, Severity: SeverityCritical}}
		b := []Issue{{RowIndex: 1, Severity: SeverityWarning}, {RowIndex: 1, Severity: SeverityWarning}}

		combined := Aggregate(append(append([]Issue{}, a...), b...))

		assert.Equal(t, Aggregate(a).Critical+Aggregate(b).Critical, combined.Critical)
		assert.Equal(t, Aggregate(a).Warning+Aggregate(b).Warning, combined.Warning)
		assert.Equal(t, Aggregate(a).Total+Aggregate(b).Total, combined.Total)
	})
}
