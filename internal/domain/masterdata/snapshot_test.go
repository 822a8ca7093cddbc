package masterdata

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	deoID, skinID := uuid.New(), uuid.New()
	dryID, softID := uuid.New(), uuid.New()
	digitalID := uuid.New()

	s, err := Build(
		[]Country{{ID: uuid.New(), Name: "Germany"}},
		[]SubRegion{{ID: uuid.New(), Name: "DACH"}},
		[]Category{{ID: deoID, Name: "Deo"}, {ID: skinID, Name: "Skin Care"}},
		[]Range{{ID: dryID, Name: "Dry Comfort"}, {ID: softID, Name: "Soft"}},
		[]CategoryRange{
			{CategoryID: deoID, RangeID: dryID},
			{CategoryID: skinID, RangeID: softID},
			{CategoryID: skinID, RangeID: dryID}, // ranges can span categories
		},
		[]Campaign{{ID: uuid.New(), Name: "Summer Push", RangeID: dryID}},
		[]MediaType{{ID: digitalID, Name: "Digital"}},
		[]MediaSubType{{ID: uuid.New(), Name: "PM Advanced", MediaTypeID: digitalID}},
		[]BusinessUnit{{ID: uuid.New(), Name: "Personal Care"}},
		[]PMType{{ID: uuid.New(), Name: "Non-PM"}},
		[]FinancialCycle{{ID: uuid.New(), Name: "ABP 2025"}},
	)
	require.NoError(t, err)
	return s
}

func TestBuild_Lookups(t *testing.T) {
	s := buildTestSnapshot(t)

	t.Run("lookups are case-insensitive", func(t *testing.T) {
		assert.True(t, s.HasCountry("germany"))
		assert.True(t, s.HasCategory("DEO"))
		assert.True(t, s.HasRange(" dry comfort "))
		assert.True(t, s.HasCampaign("SUMMER PUSH"))
		assert.True(t, s.HasMediaSubType("pm advanced"))
	})

	t.Run("sub-regions count as countries", func(t *testing.T) {
		assert.True(t, s.HasCountry("DACH"))
		assert.False(t, s.HasCountry("Atlantis"))
	})

	t.Run("many-to-many category links", func(t *testing.T) {
		assert.True(t, s.RangeInCategory("Dry Comfort", "Deo"))
		assert.True(t, s.RangeInCategory("Dry Comfort", "Skin Care"))
		assert.True(t, s.RangeInCategory("Soft", "Skin Care"))
		assert.False(t, s.RangeInCategory("Soft", "Deo"))
	})

	t.Run("campaign and subtype parents resolve to canonical names", func(t *testing.T) {
		owner, ok := s.CampaignRange("summer push")
		require.True(t, ok)
		assert.Equal(t, "Dry Comfort", owner)

		parent, ok := s.SubTypeParent("PM ADVANCED")
		require.True(t, ok)
		assert.Equal(t, "Digital", parent)
	})

	t.Run("stats count every table", func(t *testing.T) {
		counts := s.Stats()
		assert.Equal(t, 1, counts.Countries)
		assert.Equal(t, 1, counts.SubRegions)
		assert.Equal(t, 2, counts.Categories)
		assert.Equal(t, 2, counts.Ranges)
		assert.Equal(t, 1, counts.Campaigns)
		assert.Equal(t, 1, counts.Cycles)
	})
}

func TestBuild_Invariants(t *testing.T) {
	t.Run("campaign with unknown range fails", func(t *testing.T) {
		_, err := Build(
			nil, nil, nil,
			[]Range{{ID: uuid.New(), Name: "Dry Comfort"}},
			nil,
			[]Campaign{{ID: uuid.New(), Name: "Orphan", RangeID: uuid.New()}},
			nil, nil, nil, nil, nil,
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown range")
	})

	t.Run("subtype with unknown media type fails", func(t *testing.T) {
		_, err := Build(
			nil, nil, nil, nil, nil, nil,
			[]MediaType{{ID: uuid.New(), Name: "Digital"}},
			[]MediaSubType{{ID: uuid.New(), Name: "Orphan", MediaTypeID: uuid.New()}},
			nil, nil, nil,
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown media type")
	})

	t.Run("link with unknown ids fails", func(t *testing.T) {
		_, err := Build(
			nil, nil,
			[]Category{{ID: uuid.New(), Name: "Deo"}},
			nil,
			[]CategoryRange{{CategoryID: uuid.New(), RangeID: uuid.New()}},
			nil, nil, nil, nil, nil, nil,
		)
		require.Error(t, err)
	})
}

func TestSnapshot_Names(t *testing.T) {
	s := buildTestSnapshot(t)

	assert.ElementsMatch(t, []string{"Summer Push"}, s.CampaignNames())
	assert.ElementsMatch(t, []string{"Dry Comfort", "Soft"}, s.RangeNames())
	assert.ElementsMatch(t, []string{"PM Advanced"}, s.MediaSubTypeNames())
}
