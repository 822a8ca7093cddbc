// Package policy decides whether an unknown Campaign or Range reference may
// be provisionally created (pending governance review) or must be rejected.
package policy

import (
	"strings"

	"github.com/campaignops/media-sufficiency/internal/domain/governance"
)

// EntityKind identifies an auto-createable reference type.
type EntityKind string

const (
	KindCampaign EntityKind = "Campaign"
	KindRange    EntityKind = "Range"
)

// Outcome of evaluating one unknown entity reference.
type Outcome string

const (
	// OutcomeAccept accepts silently; the name is already pending review
	// from an earlier import.
	OutcomeAccept Outcome = "accept"
	// OutcomeWarn accepts with a warning: the entity will be created in
	// pending_review status at commit time.
	OutcomeWarn Outcome = "warn"
	// OutcomeReject blocks the row with a critical issue.
	OutcomeReject Outcome = "reject"
)

// Decision is the evaluator's verdict for one reference.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Config parameterizes auto-creation. The open/closed state of a financial
// cycle is explicit configuration, not derived from cycle metadata.
type Config struct {
	Enabled    bool
	OpenCycles []string
}

// CycleOpen reports whether the named cycle accepts provisional entities.
func (c Config) CycleOpen(cycle string) bool {
	for _, open := range c.OpenCycles {
		if strings.EqualFold(strings.TrimSpace(open), strings.TrimSpace(cycle)) {
			return true
		}
	}
	return false
}

// Evaluator applies the auto-create rules for a single financial cycle.
// Prior governance decisions (archived/merged/pending names) are captured
// when the evaluator is built so evaluation itself never touches storage.
type Evaluator struct {
	cfg       Config
	cycle     string
	cycleOpen bool
	prior     map[string]governance.Status
}

// NewEvaluator builds an evaluator for one validation pass. prior maps
// folded entity names to their last governance status.
func NewEvaluator(cfg Config, cycle string, prior map[string]governance.Status) *Evaluator {
	if prior == nil {
		prior = map[string]governance.Status{}
	}
	return &Evaluator{
		cfg:       cfg,
		cycle:     cycle,
		cycleOpen: cfg.CycleOpen(cycle),
		prior:     prior,
	}
}

// Evaluate decides the fate of one unknown reference. parentValid reports
// whether the required parent context resolved (the Range for a new
// Campaign); a broken parent always rejects.
func (e *Evaluator) Evaluate(kind EntityKind, name string, parentValid bool) Decision {
	if !e.cfg.Enabled {
		return Decision{
			Outcome: OutcomeReject,
			Reason:  string(kind) + " does not exist and auto-creation is disabled",
		}
	}

	if !e.cycleOpen {
		return Decision{
			Outcome: OutcomeReject,
			Reason:  string(kind) + " does not exist and financial cycle " + e.cycle + " is closed to new entities",
		}
	}

	switch e.prior[foldName(name)] {
	case governance.StatusArchived:
		return Decision{
			Outcome: OutcomeReject,
			Reason:  string(kind) + " \"" + name + "\" was archived by a governance decision",
		}
	case governance.StatusMerged:
		return Decision{
			Outcome: OutcomeReject,
			Reason:  string(kind) + " \"" + name + "\" was merged into another entity",
		}
	case governance.StatusPendingReview:
		return Decision{Outcome: OutcomeAccept}
	}

	if !parentValid {
		return Decision{
			Outcome: OutcomeReject,
			Reason:  "cannot auto-create " + string(kind) + " \"" + name + "\": its parent reference is invalid",
		}
	}

	return Decision{
		Outcome: OutcomeWarn,
		Reason:  string(kind) + " \"" + name + "\" will be created pending review",
	}
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
