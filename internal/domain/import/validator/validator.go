package validator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/campaignops/media-sufficiency/internal/domain/import/parser"
	"github.com/campaignops/media-sufficiency/internal/domain/import/policy"
	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
)

// AutoCreateDecider decides unknown Campaign/Range references.
type AutoCreateDecider interface {
	Evaluate(kind policy.EntityKind, name string, parentValid bool) policy.Decision
}

// Config tunes per-context validation behavior.
type Config struct {
	// RequiredExtras are context-dependent required fields on top of the
	// core set (Campaign, Range, Media Subtype, Start Date, End Date).
	RequiredExtras []parser.Field
}

// requiredCore is the fixed required-field set, checked in this order.
var requiredCore = []parser.Field{
	parser.FieldCampaign,
	parser.FieldRange,
	parser.FieldMediaSubtype,
	parser.FieldStartDate,
	parser.FieldEndDate,
}

// aliasNoticeOrder fixes the order alias notices are emitted in.
var aliasNoticeOrder = []parser.Field{
	parser.FieldYear,
	parser.FieldCountry,
	parser.FieldCategory,
	parser.FieldRange,
	parser.FieldCampaign,
	parser.FieldMedia,
	parser.FieldMediaSubtype,
	parser.FieldPMType,
	parser.FieldStartDate,
	parser.FieldEndDate,
	parser.FieldTotalBudget,
	parser.FieldQ1Budget,
	parser.FieldQ2Budget,
	parser.FieldQ3Budget,
	parser.FieldQ4Budget,
	parser.FieldTotalTRPs,
	parser.FieldTotalR1Plus,
	parser.FieldTotalR3Plus,
	parser.FieldBusinessUnit,
}

var budgetFields = []parser.Field{
	parser.FieldTotalBudget,
	parser.FieldQ1Budget,
	parser.FieldQ2Budget,
	parser.FieldQ3Budget,
	parser.FieldQ4Budget,
	parser.FieldTotalTRPs,
}

var percentageFields = []parser.Field{
	parser.FieldTotalR1Plus,
	parser.FieldTotalR3Plus,
}

// Validator runs the ordered per-row checks: required fields, referential
// integrity, relationships, dates, numerics. Issues are appended in check
// order and a row is never short-circuited.
type Validator struct {
	snapshot *masterdata.Snapshot
	decider  AutoCreateDecider
	cfg      Config
}

// New creates a validator bound to one master-data snapshot.
func New(snapshot *masterdata.Snapshot, decider AutoCreateDecider, cfg Config) *Validator {
	return &Validator{snapshot: snapshot, decider: decider, cfg: cfg}
}

// Validate checks every record and returns the full issue list. Row-level
// problems are collected, never returned as errors; the pipeline always
// finishes with a complete itemized list.
func (v *Validator) Validate(result *parser.Result) []Issue {
	var issues []Issue
	for i := range result.Records {
		issues = append(issues, v.validateRecord(&result.Records[i], result.AliasedHeaders)...)
	}
	return issues
}

func (v *Validator) validateRecord(rec *parser.Record, aliased map[parser.Field]string) []Issue {
	var issues []Issue

	add := func(column string, severity Severity, message, value string) {
		issues = append(issues, Issue{
			RowIndex:     rec.Index,
			Column:       column,
			Severity:     severity,
			Message:      message,
			CurrentValue: value,
		})
	}

	// 1. Required fields.
	required := append(append([]parser.Field{}, requiredCore...), v.cfg.RequiredExtras...)
	for _, field := range required {
		if rec.Get(field) == "" {
			add(string(field), SeverityCritical, fmt.Sprintf("%s is required", field), "")
		}
	}

	// Alias notices: the file addressed these fields through an alternate
	// spelling; surfaced so users can normalize their file.
	for _, field := range aliasNoticeOrder {
		if raw, ok := aliased[field]; ok {
			add(string(field), SeveritySuggestion,
				fmt.Sprintf("column %q was recognized as %q; rename the header to match", raw, field), "")
		}
	}

	country := rec.Get(parser.FieldCountry)
	category := rec.Get(parser.FieldCategory)
	rng := rec.Get(parser.FieldRange)
	campaign := rec.Get(parser.FieldCampaign)
	media := rec.Get(parser.FieldMedia)
	subType := rec.Get(parser.FieldMediaSubtype)

	// 2. Referential integrity. Unknown Campaign/Range defer to the
	// auto-create policy; everything else is critical outright.
	if country != "" && !v.snapshot.HasCountry(country) {
		add(string(parser.FieldCountry), SeverityCritical,
			fmt.Sprintf("Country %q does not exist (countries and sub-regions accepted)", country), country)
	}

	if category != "" && !v.snapshot.HasCategory(category) {
		add(string(parser.FieldCategory), SeverityCritical,
			fmt.Sprintf("Category %q does not exist", category), category)
	}

	rangeKnown := rng != "" && v.snapshot.HasRange(rng)
	rangeAccepted := rangeKnown
	if rng != "" && !rangeKnown {
		parentValid := category == "" || v.snapshot.HasCategory(category)
		decision := v.decider.Evaluate(policy.KindRange, rng, parentValid)
		switch decision.Outcome {
		case policy.OutcomeAccept:
			rangeAccepted = true
		case policy.OutcomeWarn:
			rangeAccepted = true
			add(string(parser.FieldRange), SeverityWarning, decision.Reason, rng)
		case policy.OutcomeReject:
			add(string(parser.FieldRange), SeverityCritical, decision.Reason, rng)
			if suggestion, ok := closestName(rng, v.snapshot.RangeNames()); ok {
				add(string(parser.FieldRange), SeveritySuggestion,
					fmt.Sprintf("did you mean %q?", suggestion), rng)
			}
		}
	}

	campaignKnown := campaign != "" && v.snapshot.HasCampaign(campaign)
	if campaign != "" && !campaignKnown {
		decision := v.decider.Evaluate(policy.KindCampaign, campaign, rangeAccepted)
		switch decision.Outcome {
		case policy.OutcomeAccept:
			// Already pending review from an earlier import.
		case policy.OutcomeWarn:
			add(string(parser.FieldCampaign), SeverityWarning, decision.Reason, campaign)
		case policy.OutcomeReject:
			add(string(parser.FieldCampaign), SeverityCritical, decision.Reason, campaign)
			if suggestion, ok := closestName(campaign, v.snapshot.CampaignNames()); ok {
				add(string(parser.FieldCampaign), SeveritySuggestion,
					fmt.Sprintf("did you mean %q?", suggestion), campaign)
			}
		}
	}

	if media != "" && !v.snapshot.HasMediaType(media) {
		add(string(parser.FieldMedia), SeverityCritical,
			fmt.Sprintf("Media type %q does not exist", media), media)
	}

	subTypeKnown := subType != "" && v.snapshot.HasMediaSubType(subType)
	if subType != "" && !subTypeKnown {
		add(string(parser.FieldMediaSubtype), SeverityCritical,
			fmt.Sprintf("Media Subtype %q does not exist", subType), subType)
		if suggestion, ok := closestName(subType, v.snapshot.MediaSubTypeNames()); ok {
			add(string(parser.FieldMediaSubtype), SeveritySuggestion,
				fmt.Sprintf("did you mean %q?", suggestion), subType)
		}
	}

	// 3. Relationship validation. A mismatch between two individually
	// valid names means a miskeyed row, not an unknown entity.
	if rangeKnown && category != "" && v.snapshot.HasCategory(category) &&
		!v.snapshot.RangeInCategory(rng, category) {
		add(string(parser.FieldRange), SeverityCritical,
			fmt.Sprintf("Range %q does not belong to Category %q", rng, category), rng)
	}

	if campaignKnown && rangeKnown {
		if owner, ok := v.snapshot.CampaignRange(campaign); ok && !strings.EqualFold(owner, rng) {
			add(string(parser.FieldCampaign), SeverityCritical,
				fmt.Sprintf("Campaign %q belongs to Range %q, not %q", campaign, owner, rng), campaign)
		}
	}

	if subTypeKnown && media != "" && v.snapshot.HasMediaType(media) {
		if parent, ok := v.snapshot.SubTypeParent(subType); ok && !strings.EqualFold(parent, media) {
			add(string(parser.FieldMediaSubtype), SeverityCritical,
				fmt.Sprintf("Media Subtype %q belongs to Media type %q, not %q", subType, parent, media), subType)
		}
	}

	// 4. Dates.
	startRaw := rec.Get(parser.FieldStartDate)
	endRaw := rec.Get(parser.FieldEndDate)

	start, startErr := ParseDate(startRaw)
	if startRaw != "" && startErr != nil {
		add(string(parser.FieldStartDate), SeverityCritical,
			fmt.Sprintf("invalid Start Date: %v", startErr), startRaw)
	}
	end, endErr := ParseDate(endRaw)
	if endRaw != "" && endErr != nil {
		add(string(parser.FieldEndDate), SeverityCritical,
			fmt.Sprintf("invalid End Date: %v", endErr), endRaw)
	}
	if startRaw != "" && endRaw != "" && startErr == nil && endErr == nil && !start.Before(end) {
		add(string(parser.FieldStartDate), SeverityCritical,
			"Start Date must be strictly before End Date", startRaw)
	}

	// 5. Numeric and percentage fields. These are often correctable
	// downstream, so they warn instead of blocking.
	for _, field := range budgetFields {
		raw := rec.Get(field)
		if raw == "" {
			continue
		}
		if _, err := ParseNumber(raw); err != nil {
			add(string(field), SeverityWarning,
				fmt.Sprintf("%s must be numeric", field), raw)
		}
	}

	for _, field := range percentageFields {
		raw := rec.Get(field)
		if raw == "" {
			continue
		}
		pct, err := ParsePercentage(raw)
		if err != nil {
			add(string(field), SeverityWarning,
				fmt.Sprintf("%s must be a percentage", field), raw)
			continue
		}
		if pct < 0 || pct > 100 {
			add(string(field), SeverityWarning,
				fmt.Sprintf("%s must be between 0 and 100", field), raw)
		}
	}

	if year := rec.Get(parser.FieldYear); year != "" {
		if _, err := ParseNumber(year); err != nil {
			add(string(parser.FieldYear), SeverityWarning, "Year must be numeric", year)
		}
	}

	return issues
}

// ParseNumber parses a numeric field, allowing commas as thousands
// separators.
func ParseNumber(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return decimal.NewFromString(cleaned)
}

// ParsePercentage parses a percentage given either as a 0-1 fraction or a
// 0-100 value, normalized to the 0-100 scale. A trailing percent sign is
// accepted.
func ParsePercentage(raw string) (float64, error) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	d, err := ParseNumber(cleaned)
	if err != nil {
		return 0, err
	}
	value, _ := d.Float64()
	if value > 0 && value <= 1 {
		value *= 100
	}
	return value, nil
}
