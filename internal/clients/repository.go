package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Repository provides persistence for clients.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Client, error)
	GetByCode(ctx context.Context, code string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	GenerateCode(ctx context.Context) (string, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, code, name, email, phone, address, notes, is_active, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var email, phone, address, notes pgtype.Text
	err := row.Scan(&c.ID, &c.Code, &c.Name, &email, &phone, &address, &notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	if address.Valid {
		c.Address = &address.String
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM clients WHERE id = $1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM clients WHERE code = $1`, code))
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argPos, argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY code LIMIT $%d OFFSET $%d`, columns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, client Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, code, name, email, phone, address, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`,
		client.ID, client.Code, client.Name, client.Email, client.Phone, client.Address, client.Notes, client.IsActive)
	return err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"name", "email", "phone", "address", "notes", "is_active"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND is_active)`, id).Scan(&ok)
	return ok, err
}

func (r *repository) GenerateCode(ctx context.Context) (string, error) {
	// Best-effort suggestion used when the caller does not supply a code.
	// Uniqueness is still enforced by the column constraint.
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM clients`).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("CLI-%05d", count+1), nil
}
