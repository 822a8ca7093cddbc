package gameplan

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// exportRow is the flat shape game plans are exported in. Column names
// match the canonical import headers so an export round-trips through the
// upload wizard.
type exportRow struct {
	Year         string `csv:"Year"`
	Country      string `csv:"Country"`
	Category     string `csv:"Category"`
	Range        string `csv:"Range"`
	Campaign     string `csv:"Campaign"`
	Media        string `csv:"Media"`
	MediaSubtype string `csv:"Media Subtype"`
	PMType       string `csv:"PM Type"`
	StartDate    string `csv:"Start Date"`
	EndDate      string `csv:"End Date"`
	TotalBudget  string `csv:"Total Budget"`
	Q1Budget     string `csv:"Q1 Budget"`
	Q2Budget     string `csv:"Q2 Budget"`
	Q3Budget     string `csv:"Q3 Budget"`
	Q4Budget     string `csv:"Q4 Budget"`
	TotalTRPs    string `csv:"Total TRPs"`
	TotalR1Plus  string `csv:"Total R1+"`
	TotalR3Plus  string `csv:"Total R3+"`
	BusinessUnit string `csv:"Business Unit"`
}

// Exporter renders game plans as CSV or XLSX.
type Exporter struct {
	repo Repository
}

func NewExporter(repo Repository) *Exporter {
	return &Exporter{repo: repo}
}

// ExportCSV writes all game plans in scope as CSV.
func (e *Exporter) ExportCSV(ctx context.Context, scope Scope, w io.Writer) error {
	plans, err := e.repo.ListResolved(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to load game plans for export: %w", err)
	}

	rows := make([]exportRow, 0, len(plans))
	for i := range plans {
		rows = append(rows, toExportRow(&plans[i]))
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

// ExportXLSX writes all game plans in scope as a single-sheet workbook.
func (e *Exporter) ExportXLSX(ctx context.Context, scope Scope, w io.Writer) error {
	plans, err := e.repo.ListResolved(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to load game plans for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Game Plans"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{
		"Year", "Country", "Category", "Range", "Campaign",
		"Media", "Media Subtype", "PM Type", "Start Date", "End Date",
		"Total Budget", "Q1 Budget", "Q2 Budget", "Q3 Budget", "Q4 Budget",
		"Total TRPs", "Total R1+", "Total R3+", "Business Unit",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for i := range plans {
		row := toExportRow(&plans[i])
		cells := []any{
			row.Year, row.Country, row.Category, row.Range, row.Campaign,
			row.Media, row.MediaSubtype, row.PMType, row.StartDate, row.EndDate,
			row.TotalBudget, row.Q1Budget, row.Q2Budget, row.Q3Budget, row.Q4Budget,
			row.TotalTRPs, row.TotalR1Plus, row.TotalR3Plus, row.BusinessUnit,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address export row: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func toExportRow(p *Resolved) exportRow {
	row := exportRow{
		Country:      p.CountryName,
		Category:     p.CategoryName,
		Range:        p.RangeName,
		Campaign:     p.CampaignName,
		Media:        p.MediaTypeName,
		MediaSubtype: p.MediaSubTypeName,
		PMType:       p.PMTypeName,
		StartDate:    p.StartDate.Format("2006-01-02"),
		EndDate:      p.EndDate.Format("2006-01-02"),
		TotalBudget:  formatFloat(p.TotalBudget),
		BusinessUnit: p.BusinessUnitName,
	}
	if p.Year != nil {
		row.Year = strconv.Itoa(*p.Year)
	}
	row.Q1Budget = formatOptional(p.Q1Budget)
	row.Q2Budget = formatOptional(p.Q2Budget)
	row.Q3Budget = formatOptional(p.Q3Budget)
	row.Q4Budget = formatOptional(p.Q4Budget)
	row.TotalTRPs = formatOptional(p.TotalTRPs)
	row.TotalR1Plus = formatOptional(p.TotalR1Plus)
	row.TotalR3Plus = formatOptional(p.TotalR3Plus)
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
