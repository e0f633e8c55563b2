package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
)

// TxRepository exposes the stock mutations that must run inside a transaction.
type TxRepository interface {
	GetPartForUpdate(ctx context.Context, id uuid.UUID) (*Part, error)
	SetStock(ctx context.Context, id uuid.UUID, newStock int) error
	SetCostPrice(ctx context.Context, id uuid.UUID, costPrice float64) error
	InsertMovement(ctx context.Context, m StockMovement) error
}

// Repository abstracts persistence for parts and stock movements.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Part, error)
	GetBySKU(ctx context.Context, sku string) (*Part, error)
	List(ctx context.Context, req ListPartsRequest) ([]Part, int, error)
	Create(ctx context.Context, p Part) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	ListMovements(ctx context.Context, partID uuid.UUID, limit, offset int) ([]StockMovement, int, error)
	LowStock(ctx context.Context) ([]Part, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const partColumns = `id, sku, name, description, category, unit_price, cost_price, current_stock, minimum_stock, supplier_id, is_active, created_at, updated_at`

func scanPart(row pgx.Row) (*Part, error) {
	var p Part
	var description, category pgtype.Text
	var supplierID pgtype.UUID
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &description, &category, &p.UnitPrice, &p.CostPrice, &p.CurrentStock, &p.MinimumStock, &supplierID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if category.Valid {
		p.Category = &category.String
	}
	if supplierID.Valid {
		id := uuid.UUID(supplierID.Bytes)
		p.SupplierID = &id
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Part, error) {
	return scanPart(r.pool.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1`, id))
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*Part, error) {
	return scanPart(r.pool.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE sku = $1`, sku))
}

func (r *repository) List(ctx context.Context, req ListPartsRequest) ([]Part, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Category != nil && *req.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, *req.Category)
		argPos++
	}
	if req.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argPos))
		args = append(args, *req.SupplierID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(sku ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, pattern)
		argPos++
	}
	if req.LowStock {
		conditions = append(conditions, "current_stock <= minimum_stock")
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM parts %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM parts %s ORDER BY sku LIMIT $%d OFFSET $%d`, partColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Part) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO parts (id, sku, name, description, category, unit_price, cost_price, current_stock, minimum_stock, supplier_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.UnitPrice, p.CostPrice, p.CurrentStock, p.MinimumStock, p.SupplierID, p.IsActive)
	return err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	query := "UPDATE parts SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"name", "description", "category", "unit_price", "cost_price", "minimum_stock", "supplier_id", "is_active"} {
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

const movementColumns = `id, part_id, type, quantity, previous_stock, current_stock, reason, reference, created_by, created_at`

func (r *repository) ListMovements(ctx context.Context, partID uuid.UUID, limit, offset int) ([]StockMovement, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE part_id = $1`, partID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+movementColumns+`
		FROM stock_movements
		WHERE part_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, partID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []StockMovement
	for rows.Next() {
		var m StockMovement
		var reference pgtype.Text
		if err := rows.Scan(&m.ID, &m.PartID, &m.Type, &m.Quantity, &m.PreviousStock, &m.CurrentStock, &m.Reason, &reference, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		if reference.Valid {
			m.Reference = reference.String
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) LowStock(ctx context.Context) ([]Part, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+partColumns+` FROM parts WHERE is_active AND current_stock <= minimum_stock ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (t *txRepository) GetPartForUpdate(ctx context.Context, id uuid.UUID) (*Part, error) {
	return scanPart(t.tx.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepository) SetStock(ctx context.Context, id uuid.UUID, newStock int) error {
	if newStock < 0 {
		return ErrInsufficientStock
	}
	tag, err := t.tx.Exec(ctx, `UPDATE parts SET current_stock = $2, updated_at = NOW() WHERE id = $1`, id, newStock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) SetCostPrice(ctx context.Context, id uuid.UUID, costPrice float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE parts SET cost_price = $2, updated_at = NOW() WHERE id = $1`, id, costPrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, m StockMovement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements (id, part_id, type, quantity, previous_stock, current_stock, reason, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.PartID, m.Type, m.Quantity, m.PreviousStock, m.CurrentStock, m.Reason, m.Reference, m.CreatedBy, m.CreatedAt)
	return err
}
