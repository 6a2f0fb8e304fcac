package chantier

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devispro/devispro/internal/shared"
)

// Repository provides persistence for chantiers.
type Repository interface {
	Get(ctx context.Context, id string) (*Chantier, error)
	List(ctx context.Context, query string) ([]Chantier, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed chantier repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectChantier = `
SELECT c.id, c.name, COALESCE(c.description, ''), c.address, c.status,
       p.id, p.name, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
       COALESCE(p.email, ''), COALESCE(p.phone, ''), COALESCE(p.address, ''), p.is_company
FROM chantiers c
JOIN partners p ON p.id = c.proprietaire_id`

func scanChantier(row pgx.Row) (*Chantier, error) {
	var c Chantier
	if err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Address, &c.Status,
		&c.Proprietaire.ID, &c.Proprietaire.Name, &c.Proprietaire.FirstName,
		&c.Proprietaire.LastName, &c.Proprietaire.Email, &c.Proprietaire.Phone,
		&c.Proprietaire.Address, &c.Proprietaire.IsCompany,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Chantier, error) {
	c, err := scanChantier(r.pool.QueryRow(ctx, selectChantier+" WHERE c.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("chantier: get %s: %w", id, err)
	}
	return c, nil
}

const listFilter = `
 WHERE c.status = 'ACTIVE'
   AND ($1 = '' OR c.name ILIKE '%' || $1 || '%'
        OR c.description ILIKE '%' || $1 || '%'
        OR c.address ILIKE '%' || $1 || '%'
        OR p.name ILIKE '%' || $1 || '%')
 ORDER BY c.name`

func (r *repository) List(ctx context.Context, query string) ([]Chantier, error) {
	rows, err := r.pool.Query(ctx, selectChantier+listFilter, query)
	if err != nil {
		return nil, fmt.Errorf("chantier: list: %w", err)
	}
	defer rows.Close()

	var chantiers []Chantier
	for rows.Next() {
		c, err := scanChantier(rows)
		if err != nil {
			return nil, fmt.Errorf("chantier: scan: %w", err)
		}
		chantiers = append(chantiers, *c)
	}
	return chantiers, rows.Err()
}
