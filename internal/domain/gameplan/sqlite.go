package gameplan

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SQLRepository implements Repository against the sqlite store.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const resolvedColumns = `
	gp.id, gp.country_id, gp.financial_cycle_id, gp.business_unit_id,
	gp.campaign_id, gp.media_sub_type_id, gp.pm_type_id,
	gp.year, gp.start_date, gp.end_date,
	gp.total_budget, gp.q1_budget, gp.q2_budget, gp.q3_budget, gp.q4_budget,
	gp.total_trps, gp.total_r1_plus, gp.total_r3_plus,
	gp.created_by, gp.created_at, gp.updated_at,
	co.name, fc.name, bu.name,
	ca.name, rg.name,
	(SELECT c.name FROM categories c
	 JOIN category_ranges cr ON cr.category_id = c.id
	 WHERE cr.range_id = rg.id ORDER BY c.name LIMIT 1),
	mt.name, mst.name, pt.name`

const resolvedJoins = `
	FROM game_plans gp
	JOIN countries co        ON co.id  = gp.country_id
	JOIN financial_cycles fc ON fc.id  = gp.financial_cycle_id
	LEFT JOIN business_units bu ON bu.id = gp.business_unit_id
	JOIN campaigns ca        ON ca.id  = gp.campaign_id
	JOIN ranges rg           ON rg.id  = ca.range_id
	JOIN media_sub_types mst ON mst.id = gp.media_sub_type_id
	JOIN media_types mt      ON mt.id  = mst.media_type_id
	LEFT JOIN pm_types pt    ON pt.id  = gp.pm_type_id`

func (r *SQLRepository) ListResolved(ctx context.Context, scope Scope) ([]Resolved, error) {
	query := "SELECT" + resolvedColumns + resolvedJoins + scopeClause(scope)
	args := scopeArgs(scope)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list game plans: %w", err)
	}
	defer rows.Close()

	var plans []Resolved
	for rows.Next() {
		var p Resolved
		var id, countryID, cycleID, campaignID, subTypeID string
		var businessUnitID, pmTypeID, businessUnitName, categoryName, pmTypeName sql.NullString
		if err := rows.Scan(
			&id, &countryID, &cycleID, &businessUnitID,
			&campaignID, &subTypeID, &pmTypeID,
			&p.Year, &p.StartDate, &p.EndDate,
			&p.TotalBudget, &p.Q1Budget, &p.Q2Budget, &p.Q3Budget, &p.Q4Budget,
			&p.TotalTRPs, &p.TotalR1Plus, &p.TotalR3Plus,
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
			&p.CountryName, &p.FinancialCycleName, &businessUnitName,
			&p.CampaignName, &p.RangeName, &categoryName,
			&p.MediaTypeName, &p.MediaSubTypeName, &pmTypeName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game plan: %w", err)
		}

		if p.ID, err = parseID(id); err != nil {
			return nil, err
		}
		if p.CountryID, err = parseID(countryID); err != nil {
			return nil, err
		}
		if p.FinancialCycleID, err = parseID(cycleID); err != nil {
			return nil, err
		}
		if p.CampaignID, err = parseID(campaignID); err != nil {
			return nil, err
		}
		if p.MediaSubTypeID, err = parseID(subTypeID); err != nil {
			return nil, err
		}
		if businessUnitID.Valid {
			v, err := parseID(businessUnitID.String)
			if err != nil {
				return nil, err
			}
			p.BusinessUnitID = &v
		}
		if pmTypeID.Valid {
			v, err := parseID(pmTypeID.String)
			if err != nil {
				return nil, err
			}
			p.PMTypeID = &v
		}
		p.BusinessUnitName = businessUnitName.String
		p.CategoryName = categoryName.String
		p.PMTypeName = pmTypeName.String

		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *SQLRepository) DeleteScope(ctx context.Context, scope Scope) (int, error) {
	query := "DELETE FROM game_plans WHERE country_id = ? AND financial_cycle_id = ?"
	args := []any{scope.CountryID.String(), scope.FinancialCycleID.String()}
	if scope.BusinessUnitID != nil {
		query += " AND business_unit_id = ?"
		args = append(args, scope.BusinessUnitID.String())
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete game plans in scope: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted game plans: %w", err)
	}
	return int(deleted), nil
}

func (r *SQLRepository) Insert(ctx context.Context, plan *GamePlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}

	query := `
		INSERT INTO game_plans (
			id, country_id, financial_cycle_id, business_unit_id,
			campaign_id, media_sub_type_id, pm_type_id,
			year, start_date, end_date,
			total_budget, q1_budget, q2_budget, q3_budget, q4_budget,
			total_trps, total_r1_plus, total_r3_plus, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID.String(),
		plan.CountryID.String(),
		plan.FinancialCycleID.String(),
		optionalID(plan.BusinessUnitID),
		plan.CampaignID.String(),
		plan.MediaSubTypeID.String(),
		optionalID(plan.PMTypeID),
		plan.Year,
		plan.StartDate,
		plan.EndDate,
		plan.TotalBudget,
		plan.Q1Budget, plan.Q2Budget, plan.Q3Budget, plan.Q4Budget,
		plan.TotalTRPs, plan.TotalR1Plus, plan.TotalR3Plus,
		plan.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game plan: %w", err)
	}
	return nil
}

func (r *SQLRepository) CountScope(ctx context.Context, scope Scope) (int, error) {
	query := "SELECT COUNT(*) FROM game_plans gp" + scopeClause(scope)
	var count int
	if err := r.db.QueryRowContext(ctx, query, scopeArgs(scope)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count game plans in scope: %w", err)
	}
	return count, nil
}

func scopeClause(scope Scope) string {
	clause := " WHERE gp.country_id = ? AND gp.financial_cycle_id = ?"
	if scope.BusinessUnitID != nil {
		clause += " AND gp.business_unit_id = ?"
	}
	return clause
}

func scopeArgs(scope Scope) []any {
	args := []any{scope.CountryID.String(), scope.FinancialCycleID.String()}
	if scope.BusinessUnitID != nil {
		args = append(args, scope.BusinessUnitID.String())
	}
	return args
}

func optionalID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}
