// Package governance models the review lifecycle of auto-created entities.
// The import pipeline only ever produces pending_review entries; approval,
// archival and merging happen in a separate admin workflow that consumes
// this state.
package governance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Status is the governance state of a Campaign or Range.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusActive        Status = "active"
	StatusArchived      Status = "archived"
	StatusMerged        Status = "merged"
)

// Repository reads prior governance decisions and records provisional
// entities created by imports.
type Repository interface {
	// PriorStatuses returns the governance status of every known campaign
	// and range, keyed by folded name. Feeds the auto-create policy.
	PriorStatuses(ctx context.Context) (map[string]Status, error)
	// EnsureRange returns the id of the named range, creating it in
	// pending_review status if it does not exist.
	EnsureRange(ctx context.Context, name, createdBy string) (uuid.UUID, error)
	// EnsureCampaign returns the id of the named campaign, creating it in
	// pending_review status under rangeID if it does not exist.
	EnsureCampaign(ctx context.Context, name string, rangeID uuid.UUID, createdBy string) (uuid.UUID, error)
}

// SQLRepository implements Repository against the sqlite store.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) PriorStatuses(ctx context.Context) (map[string]Status, error) {
	query := `
		SELECT name, status FROM campaigns
		UNION ALL
		SELECT name, status FROM ranges`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load governance statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]Status)
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, fmt.Errorf("failed to scan governance status: %w", err)
		}
		statuses[fold(name)] = Status(status)
	}
	return statuses, rows.Err()
}

func (r *SQLRepository) EnsureRange(ctx context.Context, name, createdBy string) (uuid.UUID, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM ranges WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&id)
	if err == nil {
		return uuid.Parse(id)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up range %q: %w", name, err)
	}

	newID := uuid.New()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ranges (id, name, status, created_by) VALUES (?, ?, ?, ?)`,
		newID.String(), name, string(StatusPendingReview), createdBy,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create pending range %q: %w", name, err)
	}
	return newID, nil
}

func (r *SQLRepository) EnsureCampaign(ctx context.Context, name string, rangeID uuid.UUID, createdBy string) (uuid.UUID, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM campaigns WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&id)
	if err == nil {
		return uuid.Parse(id)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up campaign %q: %w", name, err)
	}

	newID := uuid.New()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, range_id, status, created_by) VALUES (?, ?, ?, ?, ?)`,
		newID.String(), name, rangeID.String(), string(StatusPendingReview), createdBy,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create pending campaign %q: %w", name, err)
	}
	return newID, nil
}

func fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
