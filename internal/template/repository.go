package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devispro/devispro/internal/shared"
)

// Repository provides read access to quote templates. Operation trees are
// stored as a JSONB column; shape validation happens on load.
type Repository interface {
	Get(ctx context.Context, id string) (*Template, error)
	List(ctx context.Context) ([]Template, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed template repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const getTemplateQuery = `
SELECT id, name, description, status,
       finishing_level, covering_type, finishing_aspects, operations
FROM quote_templates
WHERE id = $1`

func (r *repository) Get(ctx context.Context, id string) (*Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, getTemplateQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("template: get %s: %w", id, err)
	}
	return t, nil
}

const listTemplatesQuery = `
SELECT id, name, description, status,
       finishing_level, covering_type, finishing_aspects, operations
FROM quote_templates
WHERE status = 'Active'
ORDER BY name`

func (r *repository) List(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, listTemplatesQuery)
	if err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("template: scan: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	var operations []byte
	if err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Status,
		&t.Criteria.FinishingLevel, &t.Criteria.CoveringType,
		&t.Criteria.FinishingAspects, &operations,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(operations, &t.Operations); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
