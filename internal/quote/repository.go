package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devispro/devispro/internal/shared"
)

// Repository persists quotations. The tree travels as its snapshot; the
// columns beside it exist for listing and sweeping without decoding JSON.
type Repository interface {
	Save(ctx context.Context, q *Quotation) error
	Get(ctx context.Context, id string) (*Quotation, error)
	List(ctx context.Context, req ListRequest) ([]Summary, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	ListExpirable(ctx context.Context, before time.Time) ([]string, error)
}

// ListRequest filters quotation listings.
type ListRequest struct {
	Status     *Status
	ChantierID *string
	Limit      int
	Offset     int
}

// Summary is the listing projection of a quotation.
type Summary struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	ChantierID string    `json:"chantier_id"`
	Status     Status    `json:"status"`
	SubtotalHT float64   `json:"subtotal_ht"`
	FinalPrice float64   `json:"final_price"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed quotation repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const saveQuotationQuery = `
INSERT INTO quotations (id, reference, chantier_id, template_id, status,
                        subtotal_ht, final_price, expiration_date, snapshot,
                        created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    subtotal_ht = EXCLUDED.subtotal_ht,
    final_price = EXCLUDED.final_price,
    expiration_date = EXCLUDED.expiration_date,
    snapshot = EXCLUDED.snapshot,
    updated_at = EXCLUDED.updated_at`

func (r *repository) Save(ctx context.Context, q *Quotation) error {
	snapshot, err := Serialize(q)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, saveQuotationQuery,
		q.ID, q.Reference, q.ChantierID, q.TemplateID, q.Status,
		q.Financial.SubtotalHT, q.Financial.FinalPrice, q.ExpirationDate,
		snapshot, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("quote: save %s: %w", q.ID, err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Quotation, error) {
	var snapshot []byte
	err := r.pool.QueryRow(ctx, `SELECT snapshot FROM quotations WHERE id = $1`, id).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("quote: get %s: %w", id, err)
	}
	return Deserialize(snapshot)
}

const listQuotationsQuery = `
SELECT id, reference, chantier_id, status, subtotal_ht, final_price, updated_at,
       COUNT(*) OVER () AS total
FROM quotations
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR chantier_id = $2)
ORDER BY updated_at DESC
LIMIT $3 OFFSET $4`

func (r *repository) List(ctx context.Context, req ListRequest) ([]Summary, int, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, listQuotationsQuery, req.Status, req.ChantierID, limit, req.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("quote: list: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	var total int
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Reference, &s.ChantierID, &s.Status,
			&s.SubtotalHT, &s.FinalPrice, &s.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("quote: scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

const updateStatusQuery = `
UPDATE quotations
SET status = $2,
    snapshot = jsonb_set(snapshot, '{quotation,status}', to_jsonb($2::text)),
    updated_at = now()
WHERE id = $1`

func (r *repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx, updateStatusQuery, id, status)
	if err != nil {
		return fmt.Errorf("quote: update status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const listExpirableQuery = `
SELECT id FROM quotations
WHERE status = 'SENT' AND expiration_date IS NOT NULL AND expiration_date < $1`

func (r *repository) ListExpirable(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, listExpirableQuery, before)
	if err != nil {
		return nil, fmt.Errorf("quote: list expirable: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("quote: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
