package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/shared"
)

var ErrNotFound = errors.New("service item not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, code, name, description, base_price, estimated_hours, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (*ServiceItem, error) {
	var it ServiceItem
	var description pgtype.Text
	err := row.Scan(&it.ID, &it.Code, &it.Name, &description, &it.BasePrice, &it.EstimatedHours, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if description.Valid {
		it.Description = &description.String
	}
	return &it, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*ServiceItem, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM service_items WHERE id = $1`, id))
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*ServiceItem, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM service_items WHERE code = $1`, code))
}

func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]ServiceItem, int, error) {
	where := ""
	var args []interface{}
	argPos := 1
	if filters.Search != "" {
		where = fmt.Sprintf("WHERE (code ILIKE $%d OR name ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM service_items %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM service_items %s ORDER BY code LIMIT $%d OFFSET $%d`, columns, where, argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ServiceItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *it)
	}
	return out, total, rows.Err()
}

func (r *Repository) Create(ctx context.Context, it ServiceItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO service_items (id, code, name, description, base_price, estimated_hours, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		it.ID, it.Code, it.Name, it.Description, it.BasePrice, it.EstimatedHours, it.IsActive)
	return err
}

func (r *Repository) Update(ctx context.Context, it ServiceItem) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE service_items
		SET name = $2, description = $3, base_price = $4, estimated_hours = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1`,
		it.ID, it.Name, it.Description, it.BasePrice, it.EstimatedHours, it.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
