// Package gameplan stores the planned media-campaign line items that
// imports create and backups snapshot.
package gameplan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GamePlan is one planned media line: a campaign on a media subtype over a
// date range with budgets and reach metrics.
type GamePlan struct {
	ID               uuid.UUID  `json:"id"`
	CountryID        uuid.UUID  `json:"countryId"`
	FinancialCycleID uuid.UUID  `json:"financialCycleId"`
	BusinessUnitID   *uuid.UUID `json:"businessUnitId,omitempty"`
	CampaignID       uuid.UUID  `json:"campaignId"`
	MediaSubTypeID   uuid.UUID  `json:"mediaSubTypeId"`
	PMTypeID         *uuid.UUID `json:"pmTypeId,omitempty"`

	Year      *int      `json:"year,omitempty"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	TotalBudget float64  `json:"totalBudget"`
	Q1Budget    *float64 `json:"q1Budget,omitempty"`
	Q2Budget    *float64 `json:"q2Budget,omitempty"`
	Q3Budget    *float64 `json:"q3Budget,omitempty"`
	Q4Budget    *float64 `json:"q4Budget,omitempty"`
	TotalTRPs   *float64 `json:"totalTrps,omitempty"`
	TotalR1Plus *float64 `json:"totalR1Plus,omitempty"`
	TotalR3Plus *float64 `json:"totalR3Plus,omitempty"`

	CreatedBy *string   `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resolved is a game plan with its lookups embedded, used by the backup
// file format and exports so a dump stays meaningful if ids churn.
type Resolved struct {
	GamePlan
	CountryName        string `json:"countryName"`
	FinancialCycleName string `json:"financialCycleName"`
	BusinessUnitName   string `json:"businessUnitName,omitempty"`
	CampaignName       string `json:"campaignName"`
	RangeName          string `json:"rangeName"`
	// CategoryName is the range's first linked category by name; ranges
	// are many-to-many with categories, so one is chosen deterministically
	// for display and export.
	CategoryName     string `json:"categoryName,omitempty"`
	MediaTypeName    string `json:"mediaTypeName"`
	MediaSubTypeName string `json:"mediaSubTypeName"`
	PMTypeName       string `json:"pmTypeName,omitempty"`
}

// Scope selects the game plans one import or backup targets.
type Scope struct {
	CountryID        uuid.UUID
	FinancialCycleID uuid.UUID
	BusinessUnitID   *uuid.UUID

	CountryName        string
	FinancialCycleName string
	BusinessUnitName   string
}

// Repository persists game plans.
type Repository interface {
	// ListResolved returns all rows in scope with lookups embedded.
	ListResolved(ctx context.Context, scope Scope) ([]Resolved, error)
	// DeleteScope removes all rows in scope and reports how many went.
	DeleteScope(ctx context.Context, scope Scope) (int, error)
	// Insert stores one game plan.
	Insert(ctx context.Context, plan *GamePlan) error
	// CountScope reports how many rows the scope currently holds.
	CountScope(ctx context.Context, scope Scope) (int, error)
}
