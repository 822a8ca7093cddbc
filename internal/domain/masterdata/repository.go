// Package masterdata loads the relational reference graph (countries,
// categories, ranges, campaigns, media types, financial cycles) that import
// rows are validated against.
package masterdata

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by the Get*ByName lookups for unknown names.
var ErrNotFound = errors.New("master data entity not found")

// Country is a reporting market. SubRegion and Cluster are optional
// groupings; some source files report at sub-region granularity.
type Country struct {
	ID        uuid.UUID
	Name      string
	SubRegion *string
	Cluster   *string
}

type SubRegion struct {
	ID   uuid.UUID
	Name string
}

type Category struct {
	ID   uuid.UUID
	Name string
}

type Range struct {
	ID     uuid.UUID
	Name   string
	Status string
}

// CategoryRange is one link in the category<->range many-to-many relation.
type CategoryRange struct {
	CategoryID uuid.UUID
	RangeID    uuid.UUID
}

type Campaign struct {
	ID        uuid.UUID
	Name      string
	RangeID   uuid.UUID
	Status    string
	CreatedBy *string
	CreatedAt time.Time
}

type MediaType struct {
	ID   uuid.UUID
	Name string
}

type MediaSubType struct {
	ID          uuid.UUID
	Name        string
	MediaTypeID uuid.UUID
}

type BusinessUnit struct {
	ID   uuid.UUID
	Name string
}

type PMType struct {
	ID   uuid.UUID
	Name string
}

// FinancialCycle is a named reporting period ("Last Update") that scopes
// which game-plan rows an import or backup targets.
type FinancialCycle struct {
	ID   uuid.UUID
	Name string
}

// Repository reads the master-data reference tables.
type Repository interface {
	ListCountries(ctx context.Context) ([]Country, error)
	ListSubRegions(ctx context.Context) ([]SubRegion, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListRanges(ctx context.Context) ([]Range, error)
	ListCategoryRanges(ctx context.Context) ([]CategoryRange, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	ListMediaTypes(ctx context.Context) ([]MediaType, error)
	ListMediaSubTypes(ctx context.Context) ([]MediaSubType, error)
	ListBusinessUnits(ctx context.Context) ([]BusinessUnit, error)
	ListPMTypes(ctx context.Context) ([]PMType, error)
	ListFinancialCycles(ctx context.Context) ([]FinancialCycle, error)

	GetCountryByName(ctx context.Context, name string) (*Country, error)
	GetFinancialCycleByName(ctx context.Context, name string) (*FinancialCycle, error)
	GetBusinessUnitByName(ctx context.Context, name string) (*BusinessUnit, error)
}
