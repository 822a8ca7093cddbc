// Package parser ingests uploaded game-plan CSV files. It detects the
// delimiter, tolerates quoted fields, ragged rows and alternate header
// spellings, and produces records in one canonical shape so validation
// never has to probe multiple keys.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Field is a canonical logical column name.
type Field string

const (
	FieldYear         Field = "Year"
	FieldCountry      Field = "Country"
	FieldCategory     Field = "Category"
	FieldRange        Field = "Range"
	FieldCampaign     Field = "Campaign"
	FieldMedia        Field = "Media"
	FieldMediaSubtype Field = "Media Subtype"
	FieldPMType       Field = "PM Type"
	FieldStartDate    Field = "Start Date"
	FieldEndDate      Field = "End Date"
	FieldTotalBudget  Field = "Total Budget"
	FieldQ1Budget     Field = "Q1 Budget"
	FieldQ2Budget     Field = "Q2 Budget"
	FieldQ3Budget     Field = "Q3 Budget"
	FieldQ4Budget     Field = "Q4 Budget"
	FieldTotalTRPs    Field = "Total TRPs"
	FieldTotalR1Plus  Field = "Total R1+"
	FieldTotalR3Plus  Field = "Total R3+"
	FieldBusinessUnit Field = "Business Unit"
)

// fieldAliases maps folded header spellings to canonical fields. The
// canonical spelling itself always resolves; everything else listed here is
// a documented alias and gets flagged as a suggestion during validation.
var fieldAliases = map[string]Field{
	"year":         FieldYear,
	"country":      FieldCountry,
	"market":       FieldCountry,
	"category":     FieldCategory,
	"range":        FieldRange,
	"campaign":     FieldCampaign,
	"media":        FieldMedia,
	"mediatype":    FieldMedia,
	"mediasubtype": FieldMediaSubtype,
	"subtype":      FieldMediaSubtype,
	"pmtype":       FieldPMType,
	"startdate":    FieldStartDate,
	"initialdate":  FieldStartDate,
	"enddate":      FieldEndDate,
	"finaldate":    FieldEndDate,
	"totalbudget":  FieldTotalBudget,
	"budget":       FieldTotalBudget,
	"q1budget":     FieldQ1Budget,
	"q2budget":     FieldQ2Budget,
	"q3budget":     FieldQ3Budget,
	"q4budget":     FieldQ4Budget,
	"totaltrps":    FieldTotalTRPs,
	"trps":         FieldTotalTRPs,
	"totalr1":      FieldTotalR1Plus,
	"r1":           FieldTotalR1Plus,
	"totalr3":      FieldTotalR3Plus,
	"r3":           FieldTotalR3Plus,
	"businessunit": FieldBusinessUnit,
	"bu":           FieldBusinessUnit,
}

// ErrNoData is returned for an empty upload or a header-only file. It is
// distinct from a parse that yields zero validation issues.
var ErrNoData = errors.New("file contains no data rows")

// Record is one CSV data row in canonical shape.
type Record struct {
	// Index is the 0-based position in the uploaded record list.
	Index int `json:"index"`
	// Fields holds trimmed values keyed by canonical field name.
	Fields map[Field]string `json:"fields"`
	// Extra preserves unrecognized columns for display.
	Extra map[string]string `json:"extra,omitempty"`
}

// Get returns the trimmed value for a canonical field.
func (r *Record) Get(f Field) string {
	return r.Fields[f]
}

// Result is the outcome of parsing one upload.
type Result struct {
	Records []Record `json:"records"`
	Headers []string `json:"headers"`
	// AliasedHeaders maps each canonical field that was addressed through
	// an alternate spelling to the raw header actually used.
	AliasedHeaders map[Field]string `json:"aliasedHeaders,omitempty"`
}

// Parse reads the whole CSV upload. The first row is the header row. Ragged
// rows still become records; flagging their gaps is validation's job, not
// the parser's.
func Parse(data []byte) (*Result, error) {
	data = stripUTF8BOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty file: %w", ErrNoData)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns, aliased := resolveHeaders(headerRow)

	result := &Result{
		Headers:        headerRow,
		AliasedHeaders: aliased,
	}

	index := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep a placeholder record so row indices stay aligned with
			// the uploaded file; validation reports the gaps.
			result.Records = append(result.Records, Record{
				Index:  index,
				Fields: map[Field]string{},
			})
			index++
			continue
		}

		record := Record{
			Index:  index,
			Fields: make(map[Field]string, len(columns)),
		}
		for i, cell := range row {
			value := strings.TrimSpace(cell)
			if i >= len(columns) {
				continue
			}
			col := columns[i]
			if col.field != "" {
				if value != "" {
					record.Fields[col.field] = value
				}
				continue
			}
			if value != "" {
				if record.Extra == nil {
					record.Extra = make(map[string]string)
				}
				record.Extra[col.raw] = value
			}
		}
		result.Records = append(result.Records, record)
		index++
	}

	if len(result.Records) == 0 {
		return nil, fmt.Errorf("header row only: %w", ErrNoData)
	}

	return result, nil
}

type column struct {
	raw   string
	field Field // empty for unrecognized columns
}

// resolveHeaders maps raw headers to canonical fields and reports which
// fields were addressed through an alias rather than the canonical spelling.
func resolveHeaders(headers []string) ([]column, map[Field]string) {
	columns := make([]column, len(headers))
	aliased := make(map[Field]string)

	for i, raw := range headers {
		trimmed := strings.TrimSpace(raw)
		columns[i] = column{raw: trimmed}

		field, ok := fieldAliases[foldHeader(trimmed)]
		if !ok {
			continue
		}
		columns[i].field = field
		if !strings.EqualFold(trimmed, string(field)) {
			aliased[field] = trimmed
		}
	}

	if len(aliased) == 0 {
		return columns, nil
	}
	return columns, aliased
}

// foldHeader lowercases a header and strips separators and punctuation so
// "Media Sub Type", "media_subtype" and "MediaSubtype" fold identically.
func foldHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// detectDelimiter picks the column separator by counting candidates on the
// header line. Exported templates are comma-separated, but regional Excel
// installs save semicolon- or tab-delimited files.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	delimiter := ','
	best := bytes.Count(line, []byte{','})
	for _, d := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{d}); n > best {
			delimiter, best = rune(d), n
		}
	}
	return delimiter
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
