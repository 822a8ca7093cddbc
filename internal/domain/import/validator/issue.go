// Package validator cross-checks parsed import records against the
// master-data snapshot and rolls the findings up into an import decision.
package validator

// Severity classifies a validation issue. Critical issues block import;
// warnings and suggestions are surfaced but never block.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Issue is one finding against one cell (or logical field) of one row.
// A row may accumulate any number of issues; checks never short-circuit.
type Issue struct {
	RowIndex     int      `json:"rowIndex"`
	Column       string   `json:"columnName"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	CurrentValue string   `json:"currentValue,omitempty"`
}

// Summary is derived from an issue list, never stored independently.
type Summary struct {
	Total      int  `json:"total"`
	Critical   int  `json:"critical"`
	Warning    int  `json:"warning"`
	Suggestion int  `json:"suggestion"`
	UniqueRows int  `json:"uniqueRows"`
	CanImport  bool `json:"canImport"`
}

// Aggregate computes severity counts, the number of distinct affected rows
// and the import decision. It is pure and idempotent so callers can cache
// issues and recompute the summary on demand without drift.
func Aggregate(issues []Issue) Summary {
	summary := Summary{Total: len(issues)}

	rows := make(map[int]struct{}, len(issues))
	for _, issue := range issues {
		rows[issue.RowIndex] = struct{}{}
		switch issue.Severity {
		case SeverityCritical:
			summary.Critical++
		case SeverityWarning:
			summary.Warning++
		case SeveritySuggestion:
			summary.Suggestion++
		}
	}

	summary.UniqueRows = len(rows)
	summary.CanImport = summary.Critical == 0
	return summary
}
