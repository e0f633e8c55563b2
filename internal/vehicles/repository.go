package vehicles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrInUse         = errors.New("vehicle has work orders")
)

// Repository provides persistence for vehicles.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*Vehicle, error)
	List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error)
	Create(ctx context.Context, v Vehicle) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, client_id, license_plate, make, model, year, vin, color, mileage, notes, created_at, updated_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	var vin, color, notes pgtype.Text
	var mileage pgtype.Int4
	err := row.Scan(&v.ID, &v.ClientID, &v.LicensePlate, &v.Make, &v.Model, &v.Year, &vin, &color, &mileage, &notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if vin.Valid {
		v.VIN = &vin.String
	}
	if color.Valid {
		v.Color = &color.String
	}
	if mileage.Valid {
		m := int(mileage.Int32)
		v.Mileage = &m
	}
	if notes.Valid {
		v.Notes = &notes.String
	}
	return &v, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM vehicles WHERE id = $1`, id))
}

func (r *repository) GetByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM vehicles WHERE license_plate = $1`, plate))
}

func (r *repository) List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(license_plate ILIKE $%d OR make ILIKE $%d OR model ILIKE $%d OR vin ILIKE $%d)", argPos, argPos, argPos, argPos))
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM vehicles %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM vehicles %s ORDER BY license_plate LIMIT $%d OFFSET $%d`, columns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, v Vehicle) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vehicles (id, client_id, license_plate, make, model, year, vin, color, mileage, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		v.ID, v.ClientID, v.LicensePlate, v.Make, v.Model, v.Year, v.VIN, v.Color, v.Mileage, v.Notes)
	return err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	query := "UPDATE vehicles SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"license_plate", "make", "model", "year", "vin", "color", "mileage", "notes"} {
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

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, description, actual_cost, completed_at
		FROM work_orders
		WHERE vehicle_id = $1 AND status = 'COMPLETED'
		ORDER BY completed_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var completedAt pgtype.Timestamptz
		if err := rows.Scan(&e.WorkOrderID, &e.Number, &e.Description, &e.ActualCost, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			e.CompletedAt = &completedAt.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
