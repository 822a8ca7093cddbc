package masterdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Snapshot is the in-memory reference graph one validation pass runs
// against. It is built once per upload and never mutated; concurrent admin
// edits are picked up by the next upload's rebuild.
//
// All name lookups are case-insensitive (keys are folded with Key).
type Snapshot struct {
	Countries     map[string]Country
	SubRegions    map[string]SubRegion
	Categories    map[string]Category
	Ranges        map[string]Range
	Campaigns     map[string]Campaign
	MediaTypes    map[string]MediaType
	MediaSubTypes map[string]MediaSubType
	BusinessUnits map[string]BusinessUnit
	PMTypes       map[string]PMType
	Cycles        map[string]FinancialCycle

	// countryLookup merges country and sub-region names so a sub-region
	// (multi-country cluster) is an accepted Country column value.
	countryLookup map[string]struct{}

	// CategoryToRanges / RangeToCategories hold the many-to-many links,
	// keyed and valued by folded names.
	CategoryToRanges  map[string]map[string]struct{}
	RangeToCategories map[string]map[string]struct{}

	// CampaignToRange maps each campaign to its single owning range name
	// (canonical spelling). SubTypeToType does the same for media subtypes.
	CampaignToRange map[string]string
	SubTypeToType   map[string]string
}

// Counts summarizes snapshot sizes for the session/grid UI.
type Counts struct {
	Countries     int `json:"countries"`
	SubRegions    int `json:"subRegions"`
	Categories    int `json:"categories"`
	Ranges        int `json:"ranges"`
	Campaigns     int `json:"campaigns"`
	MediaTypes    int `json:"mediaTypes"`
	MediaSubTypes int `json:"mediaSubTypes"`
	BusinessUnits int `json:"businessUnits"`
	PMTypes       int `json:"pmTypes"`
	Cycles        int `json:"financialCycles"`
}

// Key folds a name for snapshot lookups.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Loader builds snapshots from a Repository.
type Loader struct {
	repo   Repository
	logger *slog.Logger
}

// NewLoader creates a snapshot loader.
func NewLoader(repo Repository, logger *slog.Logger) *Loader {
	return &Loader{repo: repo, logger: logger}
}

// Snapshot fetches every reference table concurrently and assembles the
// lookup graph. All tables must load; a partial snapshot would leave the
// cross-reference maps incomplete, so any failure aborts the whole load.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		countries  []Country
		subRegions []SubRegion
		categories []Category
		ranges     []Range
		links      []CategoryRange
		campaigns  []Campaign
		mediaTypes []MediaType
		subTypes   []MediaSubType
		units      []BusinessUnit
		pmTypes    []PMType
		cycles     []FinancialCycle
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { countries, err = l.repo.ListCountries(gctx); return })
	g.Go(func() (err error) { subRegions, err = l.repo.ListSubRegions(gctx); return })
	g.Go(func() (err error) { categories, err = l.repo.ListCategories(gctx); return })
	g.Go(func() (err error) { ranges, err = l.repo.ListRanges(gctx); return })
	g.Go(func() (err error) { links, err = l.repo.ListCategoryRanges(gctx); return })
	g.Go(func() (err error) { campaigns, err = l.repo.ListCampaigns(gctx); return })
	g.Go(func() (err error) { mediaTypes, err = l.repo.ListMediaTypes(gctx); return })
	g.Go(func() (err error) { subTypes, err = l.repo.ListMediaSubTypes(gctx); return })
	g.Go(func() (err error) { units, err = l.repo.ListBusinessUnits(gctx); return })
	g.Go(func() (err error) { pmTypes, err = l.repo.ListPMTypes(gctx); return })
	g.Go(func() (err error) { cycles, err = l.repo.ListFinancialCycles(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load master data: %w", err)
	}

	snapshot, err := Build(countries, subRegions, categories, ranges, links, campaigns,
		mediaTypes, subTypes, units, pmTypes, cycles)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("master data snapshot loaded",
		slog.Int("countries", len(snapshot.Countries)),
		slog.Int("campaigns", len(snapshot.Campaigns)),
		slog.Int("ranges", len(snapshot.Ranges)),
		slog.Int("media_sub_types", len(snapshot.MediaSubTypes)),
	)
	return snapshot, nil
}

// Build assembles a Snapshot from the raw table contents and verifies the
// referential invariants of the graph.
func Build(
	countries []Country,
	subRegions []SubRegion,
	categories []Category,
	ranges []Range,
	links []CategoryRange,
	campaigns []Campaign,
	mediaTypes []MediaType,
	subTypes []MediaSubType,
	units []BusinessUnit,
	pmTypes []PMType,
	cycles []FinancialCycle,
) (*Snapshot, error) {
	s := &Snapshot{
		Countries:         make(map[string]Country, len(countries)),
		SubRegions:        make(map[string]SubRegion, len(subRegions)),
		Categories:        make(map[string]Category, len(categories)),
		Ranges:            make(map[string]Range, len(ranges)),
		Campaigns:         make(map[string]Campaign, len(campaigns)),
		MediaTypes:        make(map[string]MediaType, len(mediaTypes)),
		MediaSubTypes:     make(map[string]MediaSubType, len(subTypes)),
		BusinessUnits:     make(map[string]BusinessUnit, len(units)),
		PMTypes:           make(map[string]PMType, len(pmTypes)),
		Cycles:            make(map[string]FinancialCycle, len(cycles)),
		countryLookup:     make(map[string]struct{}, len(countries)+len(subRegions)),
		CategoryToRanges:  make(map[string]map[string]struct{}),
		RangeToCategories: make(map[string]map[string]struct{}),
		CampaignToRange:   make(map[string]string, len(campaigns)),
		SubTypeToType:     make(map[string]string, len(subTypes)),
	}

	for _, c := range countries {
		s.Countries[Key(c.Name)] = c
		s.countryLookup[Key(c.Name)] = struct{}{}
	}
	for _, sr := range subRegions {
		s.SubRegions[Key(sr.Name)] = sr
		s.countryLookup[Key(sr.Name)] = struct{}{}
	}
	for _, c := range categories {
		s.Categories[Key(c.Name)] = c
	}

	rangeNameByID := make(map[string]string, len(ranges))
	for _, rg := range ranges {
		s.Ranges[Key(rg.Name)] = rg
		rangeNameByID[rg.ID.String()] = rg.Name
	}

	categoryNameByID := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNameByID[c.ID.String()] = c.Name
	}
	for _, link := range links {
		catName, okCat := categoryNameByID[link.CategoryID.String()]
		rngName, okRng := rangeNameByID[link.RangeID.String()]
		if !okCat || !okRng {
			return nil, fmt.Errorf("category-range link references unknown ids (category=%s range=%s)",
				link.CategoryID, link.RangeID)
		}
		catKey, rngKey := Key(catName), Key(rngName)
		if s.CategoryToRanges[catKey] == nil {
			s.CategoryToRanges[catKey] = make(map[string]struct{})
		}
		if s.RangeToCategories[rngKey] == nil {
			s.RangeToCategories[rngKey] = make(map[string]struct{})
		}
		s.CategoryToRanges[catKey][rngKey] = struct{}{}
		s.RangeToCategories[rngKey][catKey] = struct{}{}
	}

	for _, c := range campaigns {
		rngName, ok := rangeNameByID[c.RangeID.String()]
		if !ok {
			return nil, fmt.Errorf("campaign %q references unknown range id %s", c.Name, c.RangeID)
		}
		s.Campaigns[Key(c.Name)] = c
		s.CampaignToRange[Key(c.Name)] = rngName
	}

	typeNameByID := make(map[string]string, len(mediaTypes))
	for _, mt := range mediaTypes {
		s.MediaTypes[Key(mt.Name)] = mt
		typeNameByID[mt.ID.String()] = mt.Name
	}
	for _, st := range subTypes {
		typeName, ok := typeNameByID[st.MediaTypeID.String()]
		if !ok {
			return nil, fmt.Errorf("media subtype %q references unknown media type id %s", st.Name, st.MediaTypeID)
		}
		s.MediaSubTypes[Key(st.Name)] = st
		s.SubTypeToType[Key(st.Name)] = typeName
	}

	for _, bu := range units {
		s.BusinessUnits[Key(bu.Name)] = bu
	}
	for _, pt := range pmTypes {
		s.PMTypes[Key(pt.Name)] = pt
	}
	for _, fc := range cycles {
		s.Cycles[Key(fc.Name)] = fc
	}

	return s, nil
}

// HasCountry reports whether name is a known country or sub-region.
func (s *Snapshot) HasCountry(name string) bool {
	_, ok := s.countryLookup[Key(name)]
	return ok
}

func (s *Snapshot) HasCategory(name string) bool {
	_, ok := s.Categories[Key(name)]
	return ok
}

func (s *Snapshot) HasRange(name string) bool {
	_, ok := s.Ranges[Key(name)]
	return ok
}

func (s *Snapshot) HasCampaign(name string) bool {
	_, ok := s.Campaigns[Key(name)]
	return ok
}

func (s *Snapshot) HasMediaType(name string) bool {
	_, ok := s.MediaTypes[Key(name)]
	return ok
}

func (s *Snapshot) HasMediaSubType(name string) bool {
	_, ok := s.MediaSubTypes[Key(name)]
	return ok
}

// RangeInCategory reports whether rng is linked to category.
func (s *Snapshot) RangeInCategory(rng, category string) bool {
	ranges, ok := s.CategoryToRanges[Key(category)]
	if !ok {
		return false
	}
	_, ok = ranges[Key(rng)]
	return ok
}

// CampaignRange returns the canonical range name the campaign belongs to.
func (s *Snapshot) CampaignRange(campaign string) (string, bool) {
	name, ok := s.CampaignToRange[Key(campaign)]
	return name, ok
}

// SubTypeParent returns the canonical media type name the subtype belongs to.
func (s *Snapshot) SubTypeParent(subType string) (string, bool) {
	name, ok := s.SubTypeToType[Key(subType)]
	return name, ok
}

// CampaignNames returns the canonical campaign names, for fuzzy suggestions.
func (s *Snapshot) CampaignNames() []string {
	names := make([]string, 0, len(s.Campaigns))
	for _, c := range s.Campaigns {
		names = append(names, c.Name)
	}
	return names
}

// RangeNames returns the canonical range names, for fuzzy suggestions.
func (s *Snapshot) RangeNames() []string {
	names := make([]string, 0, len(s.Ranges))
	for _, rg := range s.Ranges {
		names = append(names, rg.Name)
	}
	return names
}

// MediaSubTypeNames returns the canonical subtype names, for fuzzy suggestions.
func (s *Snapshot) MediaSubTypeNames() []string {
	names := make([]string, 0, len(s.MediaSubTypes))
	for _, st := range s.MediaSubTypes {
		names = append(names, st.Name)
	}
	return names
}

// Stats returns per-table sizes.
func (s *Snapshot) Stats() Counts {
	return Counts{
		Countries:     len(s.Countries),
		SubRegions:    len(s.SubRegions),
		Categories:    len(s.Categories),
		Ranges:        len(s.Ranges),
		Campaigns:     len(s.Campaigns),
		MediaTypes:    len(s.MediaTypes),
		MediaSubTypes: len(s.MediaSubTypes),
		BusinessUnits: len(s.BusinessUnits),
		PMTypes:       len(s.PMTypes),
		Cycles:        len(s.Cycles),
	}
}
