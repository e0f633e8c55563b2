package billing

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

// WorkOrderSnapshot is the billing view of a work order: enough to turn its
// lines into invoice items.
type WorkOrderSnapshot struct {
	ID        uuid.UUID
	Number    string
	ClientID  uuid.UUID
	Status    string
	LaborCost float64
	Items     []InvoiceItemInput
}

// TxRepository exposes the writes that must share one transaction. Payment
// flows lock the invoice row so concurrent submissions serialize.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	InsertInvoice(ctx context.Context, inv Invoice) error
	NextInvoiceNumber(ctx context.Context) (string, error)
	NextPaymentNumber(ctx context.Context) (string, error)
	WorkOrderInvoiceExists(ctx context.Context, workOrderID uuid.UUID) (bool, error)
	WorkOrderSnapshot(ctx context.Context, workOrderID uuid.UUID) (*WorkOrderSnapshot, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	InsertPayment(ctx context.Context, p Payment) error
	UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeletePayment(ctx context.Context, id uuid.UUID) error
	SumPayments(ctx context.Context, invoiceID uuid.UUID) (float64, error)
	UpdateInvoiceFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

// Repository abstracts invoice and payment persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID, limit, offset int) ([]Payment, int, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
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

const invoiceColumns = `id, number, client_id, work_order_id, status, subtotal, tax_rate, tax_amount, discount, total, paid_amount, due_date, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var workOrderID pgtype.UUID
	var dueDate pgtype.Timestamptz
	var notes pgtype.Text
	err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &workOrderID, &inv.Status,
		&inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.Discount, &inv.Total, &inv.PaidAmount,
		&dueDate, &notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if workOrderID.Valid {
		id := uuid.UUID(workOrderID.Bytes)
		inv.WorkOrderID = &id
	}
	if dueDate.Valid {
		inv.DueDate = &dueDate.Time
	}
	if notes.Valid {
		inv.Notes = &notes.String
	}
	return &inv, nil
}

func (r *repository) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, rows.Err()
}

func (r *repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
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

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

const paymentColumns = `id, number, invoice_id, amount, method, reference, notes, paid_at, received_by, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var reference, notes pgtype.Text
	err := row.Scan(&p.ID, &p.Number, &p.InvoiceID, &p.Amount, &p.Method, &reference, &notes, &p.PaidAt, &p.ReceivedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if reference.Valid {
		p.Reference = &reference.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return &p, nil
}

func (r *repository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (r *repository) ListPayments(ctx context.Context, invoiceID uuid.UUID, limit, offset int) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE invoice_id = $1
		ORDER BY paid_at DESC LIMIT $2 OFFSET $3`, invoiceID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// MarkOverdue flips unpaid, past-due invoices to OVERDUE. Used by the
// scheduled scan.
func (r *repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = 'OVERDUE', updated_at = NOW()
		WHERE status IN ('SENT', 'PARTIALLY_PAID') AND due_date IS NOT NULL AND due_date < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepository) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO invoices (id, number, client_id, work_order_id, status, subtotal, tax_rate, tax_amount, discount, total, paid_amount, due_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`,
		inv.ID, inv.Number, inv.ClientID, inv.WorkOrderID, inv.Status,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Discount, inv.Total, inv.PaidAmount,
		inv.DueDate, inv.Notes)
	if err != nil {
		return err
	}
	for _, item := range inv.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, total, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total)
		if err != nil {
			return err
		}
	}
	return nil
}

// NextInvoiceNumber allocates the next INV-YYYY-NNNNN from the per-year
// sequence row, inside the surrounding transaction.
func (t *txRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	var value int
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoice_sequences (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`, year).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%d-%05d", year, value), nil
}

func (t *txRepository) NextPaymentNumber(ctx context.Context) (string, error) {
	var value int
	err := t.tx.QueryRow(ctx, `
		UPDATE payment_sequences SET last_value = last_value + 1 WHERE id = 1
		RETURNING last_value`).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("next payment number: %w", err)
	}
	return fmt.Sprintf("PAY-%05d", value), nil
}

func (t *txRepository) WorkOrderInvoiceExists(ctx context.Context, workOrderID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM invoices WHERE work_order_id = $1 AND status <> 'CANCELLED')`, workOrderID).Scan(&exists)
	return exists, err
}

// WorkOrderSnapshot reads a work order and flattens its lines into invoice
// item inputs. Line totals carry the discounts already applied.
func (t *txRepository) WorkOrderSnapshot(ctx context.Context, workOrderID uuid.UUID) (*WorkOrderSnapshot, error) {
	var snap WorkOrderSnapshot
	var estimatedHours, actualHours, laborRate float64
	err := t.tx.QueryRow(ctx, `
		SELECT id, number, client_id, status, estimated_hours, actual_hours, labor_rate
		FROM work_orders WHERE id = $1`, workOrderID).
		Scan(&snap.ID, &snap.Number, &snap.ClientID, &snap.Status, &estimatedHours, &actualHours, &laborRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, err
	}
	hours := estimatedHours
	if actualHours > 0 {
		hours = actualHours
	}
	snap.LaborCost = hours * laborRate

	rows, err := t.tx.Query(ctx, `
		SELECT description, quantity, total FROM work_order_services WHERE work_order_id = $1
		UNION ALL
		SELECT p.name, l.quantity, l.total
		FROM work_order_parts l JOIN parts p ON p.id = l.part_id
		WHERE l.work_order_id = $1`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var description string
		var quantity int
		var lineTotal float64
		if err := rows.Scan(&description, &quantity, &lineTotal); err != nil {
			return nil, err
		}
		unitPrice := lineTotal
		if quantity > 0 {
			unitPrice = lineTotal / float64(quantity)
		}
		snap.Items = append(snap.Items, InvoiceItemInput{
			Description: description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
		})
	}
	return &snap, rows.Err()
}

func (t *txRepository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(t.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (t *txRepository) InsertPayment(ctx context.Context, p Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments (id, number, invoice_id, amount, method, reference, notes, paid_at, received_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		p.ID, p.Number, p.InvoiceID, p.Amount, p.Method, p.Reference, p.Notes, p.PaidAt, p.ReceivedBy)
	return err
}

func (t *txRepository) UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	query := "UPDATE payments SET id = id"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"amount", "method", "reference", "notes", "paid_at"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *txRepository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *txRepository) SumPayments(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	return sum, err
}

func (t *txRepository) UpdateInvoiceFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	query := "UPDATE invoices SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"status", "paid_amount", "due_date", "notes"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
