package masterdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SQLRepository implements Repository against the embedded sqlite database.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a new sqlite-backed master-data repository.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) ListCountries(ctx context.Context) ([]Country, error) {
	query := `
		SELECT c.id, c.name, sr.name, c.cluster
		FROM countries c
		LEFT JOIN sub_regions sr ON sr.id = c.sub_region_id
		ORDER BY c.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var countries []Country
	for rows.Next() {
		var c Country
		var id string
		if err := rows.Scan(&id, &c.Name, &c.SubRegion, &c.Cluster); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		if c.ID, err = parseID(id); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (r *SQLRepository) ListSubRegions(ctx context.Context) ([]SubRegion, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM sub_regions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-regions: %w", err)
	}
	defer rows.Close()

	var subRegions []SubRegion
	for rows.Next() {
		var sr SubRegion
		var id string
		if err := rows.Scan(&id, &sr.Name); err != nil {
			return nil, fmt.Errorf("failed to scan sub-region: %w", err)
		}
		if sr.ID, err = parseID(id); err != nil {
			return nil, err
		}
		subRegions = append(subRegions, sr)
	}
	return subRegions, rows.Err()
}

func (r *SQLRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var id string
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if c.ID, err = parseID(id); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLRepository) ListRanges(ctx context.Context) ([]Range, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, status FROM ranges ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranges: %w", err)
	}
	defer rows.Close()

	var ranges []Range
	for rows.Next() {
		var rg Range
		var id string
		if err := rows.Scan(&id, &rg.Name, &rg.Status); err != nil {
			return nil, fmt.Errorf("failed to scan range: %w", err)
		}
		if rg.ID, err = parseID(id); err != nil {
			return nil, err
		}
		ranges = append(ranges, rg)
	}
	return ranges, rows.Err()
}

func (r *SQLRepository) ListCategoryRanges(ctx context.Context) ([]CategoryRange, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, range_id FROM category_ranges`)
	if err != nil {
		return nil, fmt.Errorf("failed to list category-range links: %w", err)
	}
	defer rows.Close()

	var links []CategoryRange
	for rows.Next() {
		var categoryID, rangeID string
		if err := rows.Scan(&categoryID, &rangeID); err != nil {
			return nil, fmt.Errorf("failed to scan category-range link: %w", err)
		}
		var link CategoryRange
		if link.CategoryID, err = parseID(categoryID); err != nil {
			return nil, err
		}
		if link.RangeID, err = parseID(rangeID); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *SQLRepository) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	query := `SELECT id, name, range_id, status, created_by, created_at FROM campaigns ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		var id, rangeID string
		if err := rows.Scan(&id, &c.Name, &rangeID, &c.Status, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		if c.ID, err = parseID(id); err != nil {
			return nil, err
		}
		if c.RangeID, err = parseID(rangeID); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *SQLRepository) ListMediaTypes(ctx context.Context) ([]MediaType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM media_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media types: %w", err)
	}
	defer rows.Close()

	var types []MediaType
	for rows.Next() {
		var mt MediaType
		var id string
		if err := rows.Scan(&id, &mt.Name); err != nil {
			return nil, fmt.Errorf("failed to scan media type: %w", err)
		}
		if mt.ID, err = parseID(id); err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, rows.Err()
}

func (r *SQLRepository) ListMediaSubTypes(ctx context.Context) ([]MediaSubType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, media_type_id FROM media_sub_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media subtypes: %w", err)
	}
	defer rows.Close()

	var subTypes []MediaSubType
	for rows.Next() {
		var st MediaSubType
		var id, typeID string
		if err := rows.Scan(&id, &st.Name, &typeID); err != nil {
			return nil, fmt.Errorf("failed to scan media subtype: %w", err)
		}
		if st.ID, err = parseID(id); err != nil {
			return nil, err
		}
		if st.MediaTypeID, err = parseID(typeID); err != nil {
			return nil, err
		}
		subTypes = append(subTypes, st)
	}
	return subTypes, rows.Err()
}

func (r *SQLRepository) ListBusinessUnits(ctx context.Context) ([]BusinessUnit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM business_units ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list business units: %w", err)
	}
	defer rows.Close()

	var units []BusinessUnit
	for rows.Next() {
		var bu BusinessUnit
		var id string
		if err := rows.Scan(&id, &bu.Name); err != nil {
			return nil, fmt.Errorf("failed to scan business unit: %w", err)
		}
		if bu.ID, err = parseID(id); err != nil {
			return nil, err
		}
		units = append(units, bu)
	}
	return units, rows.Err()
}

func (r *SQLRepository) ListPMTypes(ctx context.Context) ([]PMType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM pm_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pm types: %w", err)
	}
	defer rows.Close()

	var types []PMType
	for rows.Next() {
		var pt PMType
		var id string
		if err := rows.Scan(&id, &pt.Name); err != nil {
			return nil, fmt.Errorf("failed to scan pm type: %w", err)
		}
		if pt.ID, err = parseID(id); err != nil {
			return nil, err
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}

func (r *SQLRepository) ListFinancialCycles(ctx context.Context) ([]FinancialCycle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM financial_cycles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial cycles: %w", err)
	}
	defer rows.Close()

	var cycles []FinancialCycle
	for rows.Next() {
		var fc FinancialCycle
		var id string
		if err := rows.Scan(&id, &fc.Name); err != nil {
			return nil, fmt.Errorf("failed to scan financial cycle: %w", err)
		}
		if fc.ID, err = parseID(id); err != nil {
			return nil, err
		}
		cycles = append(cycles, fc)
	}
	return cycles, rows.Err()
}

func (r *SQLRepository) GetCountryByName(ctx context.Context, name string) (*Country, error) {
	query := `
		SELECT c.id, c.name, sr.name, c.cluster
		FROM countries c
		LEFT JOIN sub_regions sr ON sr.id = c.sub_region_id
		WHERE c.name = ? COLLATE NOCASE`

	var c Country
	var id string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id, &c.Name, &c.SubRegion, &c.Cluster)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("country %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country %q: %w", name, err)
	}
	if c.ID, err = parseID(id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLRepository) GetFinancialCycleByName(ctx context.Context, name string) (*FinancialCycle, error) {
	var fc FinancialCycle
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM financial_cycles WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&id, &fc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("financial cycle %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get financial cycle %q: %w", name, err)
	}
	if fc.ID, err = parseID(id); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (r *SQLRepository) GetBusinessUnitByName(ctx context.Context, name string) (*BusinessUnit, error) {
	var bu BusinessUnit
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM business_units WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&id, &bu.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("business unit %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business unit %q: %w", name, err)
	}
	if bu.ID, err = parseID(id); err != nil {
		return nil, err
	}
	return &bu, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}
