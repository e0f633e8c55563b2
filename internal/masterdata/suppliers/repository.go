package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/shared"
)

var ErrNotFound = errors.New("supplier not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, code, name, address, email, phone, is_active, created_at, updated_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.Email, &s.Phone, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM suppliers WHERE id = $1`, id))
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM suppliers WHERE code = $1`, code))
}

func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	where := ""
	var args []interface{}
	argPos := 1
	if filters.Search != "" {
		where = fmt.Sprintf("WHERE (code ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM suppliers %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM suppliers %s ORDER BY code LIMIT $%d OFFSET $%d`, columns, where, argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *Repository) Create(ctx context.Context, s Supplier) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO suppliers (id, code, name, address, email, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		s.ID, s.Code, s.Name, s.Address, s.Email, s.Phone, s.IsActive)
	return err
}

func (r *Repository) Update(ctx context.Context, s Supplier) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers
		SET name = $2, address = $3, email = $4, phone = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Address, s.Email, s.Phone, s.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
