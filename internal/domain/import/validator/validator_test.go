package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignops/media-sufficiency/internal/domain/import/parser"
	"github.com/campaignops/media-sufficiency/internal/domain/import/policy"
	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
)

// stubDecider returns a fixed decision for every unknown reference.
type stubDecider struct {
	decision policy.Decision
}

func (s stubDecider) Evaluate(policy.EntityKind, string, bool) policy.Decision {
	return s.decision
}

// recordingDecider captures the calls the validator makes.
type recordingDecider struct {
	decision policy.Decision
	calls    []struct {
		Kind        policy.EntityKind
		Name        string
		ParentValid bool
	}
}

func (r *recordingDecider) Evaluate(kind policy.EntityKind, name string, parentValid bool) policy.Decision {
	r.calls = append(r.calls, struct {
		Kind        policy.EntityKind
		Name        string
		ParentValid bool
	}{kind, name, parentValid})
	return r.decision
}

var (
	warnDecider   = stubDecider{policy.Decision{Outcome: policy.OutcomeWarn, Reason: "will be created pending review"}}
	rejectDecider = stubDecider{policy.Decision{Outcome: policy.OutcomeReject, Reason: "does not exist"}}
	acceptDecider = stubDecider{policy.Decision{Outcome: policy.OutcomeAccept}}
)

func newTestSnapshot(t *testing.T) *masterdata.Snapshot {
	t.Helper()

	deoID, skinID := uuid.New(), uuid.New()
	dryID, bwID, softID := uuid.New(), uuid.New(), uuid.New()
	digitalID, tvID := uuid.New(), uuid.New()

	snapshot, err := masterdata.Build(
		[]masterdata.Country{
			{ID: uuid.New(), Name: "Germany"},
			{ID: uuid.New(), Name: "France"},
		},
		[]masterdata.SubRegion{
			{ID: uuid.New(), Name: "DACH"},
		},
		[]masterdata.Category{
			{ID: deoID, Name: "Deo"},
			{ID: skinID, Name: "Skin Care"},
		},
		[]masterdata.Range{
			{ID: dryID, Name: "Dry Comfort", Status: "active"},
			{ID: bwID, Name: "Black & White", Status: "active"},
			{ID: softID, Name: "Soft", Status: "active"},
		},
		[]masterdata.CategoryRange{
			{CategoryID: deoID, RangeID: dryID},
			{CategoryID: deoID, RangeID: bwID},
			{CategoryID: skinID, RangeID: softID},
		},
		[]masterdata.Campaign{
			{ID: uuid.New(), Name: "Summer Push", RangeID: dryID, Status: "active"},
			{ID: uuid.New(), Name: "Winter Glow", RangeID: softID, Status: "active"},
		},
		[]masterdata.MediaType{
			{ID: digitalID, Name: "Digital"},
			{ID: tvID, Name: "TV"},
		},
		[]masterdata.MediaSubType{
			{ID: uuid.New(), Name: "PM Advanced", MediaTypeID: digitalID},
			{ID: uuid.New(), Name: "Open TV", MediaTypeID: tvID},
		},
		[]masterdata.BusinessUnit{{ID: uuid.New(), Name: "Personal Care"}},
		[]masterdata.PMType{{ID: uuid.New(), Name: "Non-PM"}},
		[]masterdata.FinancialCycle{{ID: uuid.New(), Name: "ABP 2025"}},
	)
	require.NoError(t, err)
	return snapshot
}

func validRecord() parser.Record {
	return parser.Record{
		Index: 0,
		Fields: map[parser.Field]string{
			parser.FieldCountry:      "Germany",
			parser.FieldCategory:     "Deo",
			parser.FieldRange:        "Dry Comfort",
			parser.FieldCampaign:     "Summer Push",
			parser.FieldMedia:        "Digital",
			parser.FieldMediaSubtype: "PM Advanced",
			parser.FieldStartDate:    "2025-03-01",
			parser.FieldEndDate:      "2025-06-30",
			parser.FieldTotalBudget:  "1,200,000",
		},
	}
}

func validate(t *testing.T, decider AutoCreateDecider, records ...parser.Record) []Issue {
	t.Helper()
	v := New(newTestSnapshot(t), decider, Config{})
	return v.Validate(&parser.Result{Records: records})
}

func issuesFor(issues []Issue, column string) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Column == column {
			out = append(out, issue)
		}
	}
	return out
}

func TestValidator_ValidRow(t *testing.T) {
	issues := validate(t, rejectDecider, validRecord())
	assert.Empty(t, issues)

	summary := Aggregate(issues)
	assert.True(t, summary.CanImport)
	assert.Zero(t, summary.Total)
}

func TestValidator_RequiredFields(t *testing.T) {
	t.Run("empty row yields one critical per required field", func(t *testing.T) {
		issues := validate(t, rejectDecider, parser.Record{Index: 0, Fields: map[parser.Field]string{}})

		require.Len(t, issues, 5)
		for _, issue := range issues {
			assert.Equal(t, SeverityCritical, issue.Severity)
			assert.Contains(t, issue.Message, "is required")
		}

		columns := make([]string, len(issues))
		for i, issue := range issues {
			columns[i] = issue.Column
		}
		assert.Equal(t, []string{"Campaign", "Range", "Media Subtype", "Start Date", "End Date"}, columns)
	})

	t.Run("missing optional fields pass", func(t *testing.T) {
		rec := validRecord()
		delete(rec.Fields, parser.FieldCountry)
		delete(rec.Fields, parser.FieldCategory)
		delete(rec.Fields, parser.FieldMedia)
		delete(rec.Fields, parser.FieldTotalBudget)

		assert.Empty(t, validate(t, rejectDecider, rec))
	})

	t.Run("configured extras become required", func(t *testing.T) {
		rec := validRecord()
		delete(rec.Fields, parser.FieldCountry)

		v := New(newTestSnapshot(t), rejectDecider, Config{RequiredExtras: []parser.Field{parser.FieldCountry}})
		issues := v.Validate(&parser.Result{Records: []parser.Record{rec}})

		require.Len(t, issues, 1)
		assert.Equal(t, "Country", issues[0].Column)
		assert.Equal(t, SeverityCritical, issues[0].Severity)
	})
}

func TestValidator_ReferentialIntegrity(t *testing.T) {
	t.Run("unknown country is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCountry] = "Atlantis"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityCritical, issues[0].Severity)
		assert.Equal(t, "Atlantis", issues[0].CurrentValue)
	})

	t.Run("sub-region is a valid country value", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCountry] = "DACH"

		assert.Empty(t, validate(t, rejectDecider, rec))
	})

	t.Run("country lookup is case-insensitive", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCountry] = "germany"

		assert.Empty(t, validate(t, rejectDecider, rec))
	})

	t.Run("unknown category is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCategory] = "Home Care"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, "Category", issues[0].Column)
	})

	t.Run("unknown media type is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldMedia] = "Skywriting"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, "Media", issues[0].Column)
	})

	t.Run("unknown media subtype is critical with a suggestion", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldMediaSubtype] = "PM Advancd"

		issues := validate(t, rejectDecider, rec)
		subtypeIssues := issuesFor(issues, "Media Subtype")
		require.Len(t, subtypeIssues, 2)
		assert.Equal(t, SeverityCritical, subtypeIssues[0].Severity)
		assert.Equal(t, SeveritySuggestion, subtypeIssues[1].Severity)
		assert.Contains(t, subtypeIssues[1].Message, "PM Advanced")
	})
}

func TestValidator_AutoCreatePolicy(t *testing.T) {
	t.Run("unknown campaign warns when policy allows", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCampaign] = "Brand New Campaign"

		issues := validate(t, warnDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "Campaign", issues[0].Column)
	})

	t.Run("unknown campaign already pending passes silently", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCampaign] = "Brand New Campaign"

		assert.Empty(t, validate(t, acceptDecider, rec))
	})

	t.Run("rejected campaign is critical with fuzzy suggestion", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCampaign] = "Sumer Push"

		issues := validate(t, rejectDecider, rec)
		campaignIssues := issuesFor(issues, "Campaign")
		require.Len(t, campaignIssues, 2)
		assert.Equal(t, SeverityCritical, campaignIssues[0].Severity)
		assert.Equal(t, SeveritySuggestion, campaignIssues[1].Severity)
		assert.Contains(t, campaignIssues[1].Message, "Summer Push")
	})

	t.Run("rejected range is critical with fuzzy suggestion", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldRange] = "Dry Comfrt"
		rec.Fields[parser.FieldCampaign] = "Summer Push"

		issues := validate(t, rejectDecider, rec)
		rangeIssues := issuesFor(issues, "Range")
		require.Len(t, rangeIssues, 2)
		assert.Equal(t, SeverityCritical, rangeIssues[0].Severity)
		assert.Contains(t, rangeIssues[1].Message, "Dry Comfort")
	})

	t.Run("campaign parent validity follows the range decision", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldRange] = "Unknown Range"
		rec.Fields[parser.FieldCampaign] = "Unknown Campaign"

		decider := &recordingDecider{decision: policy.Decision{Outcome: policy.OutcomeReject, Reason: "no"}}
		validate(t, decider, rec)

		require.Len(t, decider.calls, 2)
		assert.Equal(t, policy.KindRange, decider.calls[0].Kind)
		assert.Equal(t, policy.KindCampaign, decider.calls[1].Kind)
		// The range was rejected, so the campaign's parent is invalid.
		assert.False(t, decider.calls[1].ParentValid)
	})

	t.Run("accepted new range counts as valid parent", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldRange] = "Unknown Range"
		rec.Fields[parser.FieldCampaign] = "Unknown Campaign"

		decider := &recordingDecider{decision: policy.Decision{Outcome: policy.OutcomeWarn, Reason: "pending"}}
		validate(t, decider, rec)

		require.Len(t, decider.calls, 2)
		assert.True(t, decider.calls[1].ParentValid)
	})
}

func TestValidator_Relationships(t *testing.T) {
	t.Run("range outside category is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCategory] = "Skin Care"
		rec.Fields[parser.FieldRange] = "Dry Comfort"
		// Campaign stays consistent with its range.

		issues := validate(t, rejectDecider, rec)
		rangeIssues := issuesFor(issues, "Range")
		require.Len(t, rangeIssues, 1)
		assert.Equal(t, SeverityCritical, rangeIssues[0].Severity)
		assert.Contains(t, rangeIssues[0].Message, "does not belong to Category")
	})

	t.Run("campaign under the wrong range is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldCategory] = "Skin Care"
		rec.Fields[parser.FieldRange] = "Soft"
		rec.Fields[parser.FieldCampaign] = "Summer Push"

		issues := validate(t, rejectDecider, rec)
		campaignIssues := issuesFor(issues, "Campaign")
		require.Len(t, campaignIssues, 1)
		assert.Contains(t, campaignIssues[0].Message, `belongs to Range "Dry Comfort"`)
	})

	t.Run("subtype under the wrong media type is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldMedia] = "TV"
		rec.Fields[parser.FieldMediaSubtype] = "PM Advanced"

		issues := validate(t, rejectDecider, rec)
		subtypeIssues := issuesFor(issues, "Media Subtype")
		require.Len(t, subtypeIssues, 1)
		assert.Contains(t, subtypeIssues[0].Message, `belongs to Media type "Digital"`)
	})

	t.Run("missing category skips the range relationship check", func(t *testing.T) {
		rec := validRecord()
		delete(rec.Fields, parser.FieldCategory)

		assert.Empty(t, validate(t, rejectDecider, rec))
	})
}

func TestValidator_Dates(t *testing.T) {
	t.Run("unparseable dates are critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldStartDate] = "not a date"
		rec.Fields[parser.FieldEndDate] = "also wrong"

		issues := validate(t, rejectDecider, rec)
		assert.Len(t, issuesFor(issues, "Start Date"), 1)
		assert.Len(t, issuesFor(issues, "End Date"), 1)
	})

	t.Run("start equal to end is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldStartDate] = "2025-03-01"
		rec.Fields[parser.FieldEndDate] = "2025-03-01"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0].Message, "strictly before")
	})

	t.Run("start after end is critical", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldStartDate] = "2025-07-01"
		rec.Fields[parser.FieldEndDate] = "2025-03-01"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityCritical, issues[0].Severity)
	})

	t.Run("ordering is not checked when a date failed to parse", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldStartDate] = "bogus"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0].Message, "invalid Start Date")
	})

	t.Run("accepts mixed date formats", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldStartDate] = "01/03/2025" // DD/MM/YYYY
		rec.Fields[parser.FieldEndDate] = "2025-06-30"

		assert.Empty(t, validate(t, rejectDecider, rec))
	})
}

func TestValidator_Numerics(t *testing.T) {
	t.Run("non-numeric budget warns", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldTotalBudget] = "a lot"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "Total Budget", issues[0].Column)
	})

	t.Run("comma separated thousands pass", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldTotalBudget] = "1,234,567.89"
		rec.Fields[parser.FieldQ1Budget] = "300,000"

		assert.Empty(t, validate(t, rejectDecider, rec))
	})

	t.Run("fractional reach passes and out-of-range warns", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldTotalR1Plus] = "0.45"
		rec.Fields[parser.FieldTotalR3Plus] = "150"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, "Total R3+", issues[0].Column)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
	})

	t.Run("percent sign is accepted", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldTotalR1Plus] = "45%"

		assert.Empty(t, validate(t, rejectDecider, rec))
	})

	t.Run("non-numeric year warns", func(t *testing.T) {
		rec := validRecord()
		rec.Fields[parser.FieldYear] = "next year"

		issues := validate(t, rejectDecider, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, "Year", issues[0].Column)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
	})
}

func TestValidator_AliasNotices(t *testing.T) {
	t.Run("one suggestion per aliased field per row", func(t *testing.T) {
		aliased := map[parser.Field]string{
			parser.FieldStartDate:   "Initial Date",
			parser.FieldTotalBudget: "Budget",
		}

		v := New(newTestSnapshot(t), rejectDecider, Config{})
		issues := v.Validate(&parser.Result{
			Records:        []parser.Record{validRecord()},
			AliasedHeaders: aliased,
		})

		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, SeveritySuggestion, issue.Severity)
			assert.Contains(t, issue.Message, "rename the header")
		}
	})

	t.Run("aliased input validates the same as canonical", func(t *testing.T) {
		v := New(newTestSnapshot(t), rejectDecider, Config{})

		canonical := v.Validate(&parser.Result{Records: []parser.Record{validRecord()}})
		aliasedRun := v.Validate(&parser.Result{
			Records:        []parser.Record{validRecord()},
			AliasedHeaders: map[parser.Field]string{parser.FieldStartDate: "Initial Date"},
		})

		// Identical except for exactly one extra suggestion.
		assert.Len(t, aliasedRun, len(canonical)+1)
		assert.Equal(t, SeveritySuggestion, aliasedRun[len(aliasedRun)-1].Severity)
	})
}

func TestValidator_MultipleRows(t *testing.T) {
	good := validRecord()

	bad := validRecord()
	bad.Index = 1
	bad.Fields[parser.FieldCountry] = "Atlantis"
	bad.Fields[parser.FieldTotalBudget] = "a lot"

	issues := validate(t, rejectDecider, good, bad)

	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, 1, issue.RowIndex)
	}

	summary := Aggregate(issues)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 1, summary.Warning)
	assert.Equal(t, 1, summary.UniqueRows)
	assert.False(t, summary.CanImport)
}
