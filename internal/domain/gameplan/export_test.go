package gameplan

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubRepo struct {
	plans []Resolved
}

func (s *stubRepo) ListResolved(context.Context, Scope) ([]Resolved, error) { return s.plans, nil }
func (s *stubRepo) DeleteScope(context.Context, Scope) (int, error)        { return 0, nil }
func (s *stubRepo) Insert(context.Context, *GamePlan) error                { return nil }
func (s *stubRepo) CountScope(context.Context, Scope) (int, error)         { return 0, nil }

func exportFixture() []Resolved {
	year := 2025
	q1 := 300000.0
	r1 := 45.5
	return []Resolved{{
		GamePlan: GamePlan{
			ID:          uuid.New(),
			Year:        &year,
			StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
			TotalBudget: 1200000,
			Q1Budget:    &q1,
			TotalR1Plus: &r1,
		},
		CountryName:        "Germany",
		FinancialCycleName: "ABP 2025",
		CampaignName:       "Summer Push",
		RangeName:          "Dry Comfort",
		CategoryName:       "Deo",
		MediaTypeName:      "Digital",
		MediaSubTypeName:   "PM Advanced",
	}}
}

func TestExporter_ExportCSV(t *testing.T) {
	exporter := NewExporter(&stubRepo{plans: exportFixture()})

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportCSV(context.Background(), Scope{}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	// Header row uses the canonical import spellings.
	assert.Contains(t, lines[0], "Media Subtype")
	assert.Contains(t, lines[0], "Total R1+")
	assert.Contains(t, lines[0], "Start Date")

	assert.Contains(t, lines[1], "Germany")
	assert.Contains(t, lines[1], "Deo")
	assert.Contains(t, lines[1], "Summer Push")
	assert.Contains(t, lines[1], "2025-03-01")
	assert.Contains(t, lines[1], "1200000")
	assert.Contains(t, lines[1], "45.5")
}

func TestExporter_ExportCSV_Empty(t *testing.T) {
	exporter := NewExporter(&stubRepo{})

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportCSV(context.Background(), Scope{}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Campaign")
}

func TestExporter_ExportXLSX(t *testing.T) {
	exporter := NewExporter(&stubRepo{plans: exportFixture()})

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportXLSX(context.Background(), Scope{}, &buf))

	workbook, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer workbook.Close()

	assert.Equal(t, []string{"Game Plans"}, workbook.GetSheetList())

	rows, err := workbook.GetRows("Game Plans")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Year", rows[0][0])
	assert.Equal(t, "2025", rows[1][0])
	assert.Equal(t, "Deo", rows[1][2])
	assert.Equal(t, "Summer Push", rows[1][4])
	assert.Equal(t, "PM Advanced", rows[1][6])
}
