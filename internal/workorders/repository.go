package workorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
)

// TxRepository exposes the writes that must share one transaction. Stock
// mutations touch the parts and stock_movements tables directly so a line
// insert and its stock effect commit or roll back together.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	InsertServiceLine(ctx context.Context, line ServiceLine) error
	InsertPartLine(ctx context.Context, line PartLine) error
	GetServiceLine(ctx context.Context, workOrderID, lineID uuid.UUID) (*ServiceLine, error)
	GetPartLine(ctx context.Context, workOrderID, lineID uuid.UUID) (*PartLine, error)
	DeleteServiceLine(ctx context.Context, workOrderID, lineID uuid.UUID) error
	DeletePartLine(ctx context.Context, workOrderID, lineID uuid.UUID) error
	ServicePrice(ctx context.Context, serviceID uuid.UUID) (float64, string, error)
	ConsumeStock(ctx context.Context, partID uuid.UUID, quantity int, reference string, actorID uuid.UUID) (float64, error)
	RestoreStock(ctx context.Context, partID uuid.UUID, quantity int, reference string, actorID uuid.UUID) error
	LineTotals(ctx context.Context, workOrderID uuid.UUID) (float64, float64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

// Repository abstracts work-order persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error)
	Create(ctx context.Context, wo WorkOrder) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	NextNumber(ctx context.Context) (string, error)
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

const workOrderColumns = `id, number, client_id, vehicle_id, status, description, estimated_hours, actual_hours, labor_rate, estimated_cost, actual_cost, assigned_to, started_at, completed_at, notes, created_at, updated_at`

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var wo WorkOrder
	var assignedTo pgtype.UUID
	var startedAt, completedAt pgtype.Timestamptz
	var notes pgtype.Text
	err := row.Scan(&wo.ID, &wo.Number, &wo.ClientID, &wo.VehicleID, &wo.Status, &wo.Description,
		&wo.EstimatedHours, &wo.ActualHours, &wo.LaborRate, &wo.EstimatedCost, &wo.ActualCost,
		&assignedTo, &startedAt, &completedAt, &notes, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if assignedTo.Valid {
		id := uuid.UUID(assignedTo.Bytes)
		wo.AssignedTo = &id
	}
	if startedAt.Valid {
		wo.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		wo.CompletedAt = &completedAt.Time
	}
	if notes.Valid {
		wo.Notes = &notes.String
	}
	return &wo, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if wo.Services, err = r.serviceLines(ctx, id); err != nil {
		return nil, err
	}
	if wo.Parts, err = r.partLines(ctx, id); err != nil {
		return nil, err
	}
	return wo, nil
}

func (r *repository) serviceLines(ctx context.Context, workOrderID uuid.UUID) ([]ServiceLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, work_order_id, service_id, description, quantity, unit_price, discount, total, created_at
		FROM work_order_services WHERE work_order_id = $1 ORDER BY created_at`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceLine
	for rows.Next() {
		var l ServiceLine
		if err := rows.Scan(&l.ID, &l.WorkOrderID, &l.ServiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.Discount, &l.Total, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) partLines(ctx context.Context, workOrderID uuid.UUID) ([]PartLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, work_order_id, part_id, quantity, unit_price, discount, total, created_at
		FROM work_order_parts WHERE work_order_id = $1 ORDER BY created_at`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PartLine
	for rows.Next() {
		var l PartLine
		if err := rows.Scan(&l.ID, &l.WorkOrderID, &l.PartID, &l.Quantity, &l.UnitPrice, &l.Discount, &l.Total, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.VehicleID != nil {
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", argPos))
		args = append(args, *req.VehicleID)
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM work_orders %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM work_orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, workOrderColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *wo)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, wo WorkOrder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO work_orders (id, number, client_id, vehicle_id, status, description, estimated_hours, actual_hours, labor_rate, estimated_cost, actual_cost, assigned_to, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`,
		wo.ID, wo.Number, wo.ClientID, wo.VehicleID, wo.Status, wo.Description,
		wo.EstimatedHours, wo.ActualHours, wo.LaborRate, wo.EstimatedCost, wo.ActualCost,
		wo.AssignedTo, wo.Notes)
	return err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return execUpdate(ctx, r.pool, id, updates)
}

// NextNumber allocates the next WO-YYYY-NNNNN from the per-year sequence row.
func (r *repository) NextNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	var value int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO work_order_sequences (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = work_order_sequences.last_value + 1
		RETURNING last_value`, year).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("next work order number: %w", err)
	}
	return fmt.Sprintf("WO-%d-%05d", year, value), nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func execUpdate(ctx context.Context, ex execer, id uuid.UUID, updates map[string]interface{}) error {
	query := "UPDATE work_orders SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"status", "description", "estimated_hours", "actual_hours", "labor_rate", "estimated_cost", "actual_cost", "assigned_to", "started_at", "completed_at", "notes"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := ex.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	return scanWorkOrder(t.tx.QueryRow(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepository) InsertServiceLine(ctx context.Context, line ServiceLine) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO work_order_services (id, work_order_id, service_id, description, quantity, unit_price, discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		line.ID, line.WorkOrderID, line.ServiceID, line.Description, line.Quantity, line.UnitPrice, line.Discount, line.Total)
	return err
}

func (t *txRepository) InsertPartLine(ctx context.Context, line PartLine) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO work_order_parts (id, work_order_id, part_id, quantity, unit_price, discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		line.ID, line.WorkOrderID, line.PartID, line.Quantity, line.UnitPrice, line.Discount, line.Total)
	return err
}

func (t *txRepository) GetServiceLine(ctx context.Context, workOrderID, lineID uuid.UUID) (*ServiceLine, error) {
	var l ServiceLine
	err := t.tx.QueryRow(ctx, `
		SELECT id, work_order_id, service_id, description, quantity, unit_price, discount, total, created_at
		FROM work_order_services WHERE id = $1 AND work_order_id = $2`, lineID, workOrderID).
		Scan(&l.ID, &l.WorkOrderID, &l.ServiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.Discount, &l.Total, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (t *txRepository) GetPartLine(ctx context.Context, workOrderID, lineID uuid.UUID) (*PartLine, error) {
	var l PartLine
	err := t.tx.QueryRow(ctx, `
		SELECT id, work_order_id, part_id, quantity, unit_price, discount, total, created_at
		FROM work_order_parts WHERE id = $1 AND work_order_id = $2`, lineID, workOrderID).
		Scan(&l.ID, &l.WorkOrderID, &l.PartID, &l.Quantity, &l.UnitPrice, &l.Discount, &l.Total, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (t *txRepository) DeleteServiceLine(ctx context.Context, workOrderID, lineID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM work_order_services WHERE id = $1 AND work_order_id = $2`, lineID, workOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (t *txRepository) DeletePartLine(ctx context.Context, workOrderID, lineID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM work_order_parts WHERE id = $1 AND work_order_id = $2`, lineID, workOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (t *txRepository) ServicePrice(ctx context.Context, serviceID uuid.UUID) (float64, string, error) {
	var price float64
	var name string
	err := t.tx.QueryRow(ctx, `SELECT base_price, name FROM service_items WHERE id = $1 AND is_active`, serviceID).Scan(&price, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", ErrServiceNotFound
		}
		return 0, "", err
	}
	return price, name, nil
}

// ConsumeStock decrements a part's stock, guarded so it never goes negative,
// and writes the OUT movement with consistent snapshots. Returns the part's
// catalog unit price.
func (t *txRepository) ConsumeStock(ctx context.Context, partID uuid.UUID, quantity int, reference string, actorID uuid.UUID) (float64, error) {
	var unitPrice float64
	var newStock int
	err := t.tx.QueryRow(ctx, `
		UPDATE parts SET current_stock = current_stock - $2, updated_at = NOW()
		WHERE id = $1 AND current_stock >= $2
		RETURNING unit_price, current_stock`, partID, quantity).Scan(&unitPrice, &newStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM parts WHERE id = $1 AND is_active)`, partID).Scan(&exists); checkErr != nil {
				return 0, checkErr
			}
			if !exists {
				return 0, ErrPartNotFound
			}
			return 0, ErrInsufficientStock
		}
		return 0, err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO stock_movements (id, part_id, type, quantity, previous_stock, current_stock, reason, reference, created_by, created_at)
		VALUES ($1, $2, 'OUT', $3, $4, $5, 'work order consumption', $6, $7, NOW())`,
		uuid.New(), partID, quantity, newStock+quantity, newStock, reference, actorID)
	return unitPrice, err
}

// RestoreStock returns a removed line's quantity to stock with an IN movement.
func (t *txRepository) RestoreStock(ctx context.Context, partID uuid.UUID, quantity int, reference string, actorID uuid.UUID) error {
	var newStock int
	err := t.tx.QueryRow(ctx, `
		UPDATE parts SET current_stock = current_stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING current_stock`, partID, quantity).Scan(&newStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPartNotFound
		}
		return err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO stock_movements (id, part_id, type, quantity, previous_stock, current_stock, reason, reference, created_by, created_at)
		VALUES ($1, $2, 'IN', $3, $4, $5, 'work order line removed', $6, $7, NOW())`,
		uuid.New(), partID, quantity, newStock-quantity, newStock, reference, actorID)
	return err
}

func (t *txRepository) LineTotals(ctx context.Context, workOrderID uuid.UUID) (float64, float64, error) {
	var services, parts float64
	err := t.tx.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(total) FROM work_order_services WHERE work_order_id = $1), 0),
			COALESCE((SELECT SUM(total) FROM work_order_parts WHERE work_order_id = $1), 0)`, workOrderID).
		Scan(&services, &parts)
	return services, parts, err
}

func (t *txRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return execUpdate(ctx, t.tx, id, updates)
}
