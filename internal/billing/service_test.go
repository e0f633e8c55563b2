package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

type memoryBillingRepo struct {
	invoices   map[uuid.UUID]*Invoice
	payments   map[uuid.UUID]*Payment
	workOrders map[uuid.UUID]*WorkOrderSnapshot
	invoiceSeq int
	paymentSeq int
}

func newMemoryBillingRepo() *memoryBillingRepo {
	return &memoryBillingRepo{
		invoices:   make(map[uuid.UUID]*Invoice),
		payments:   make(map[uuid.UUID]*Payment),
		workOrders: make(map[uuid.UUID]*WorkOrderSnapshot),
	}
}

func (r *memoryBillingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryBillingRepo) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	out := *inv
	return &out, nil
}

func (r *memoryBillingRepo) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *memoryBillingRepo) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	out := *p
	return &out, nil
}

func (r *memoryBillingRepo) ListPayments(ctx context.Context, invoiceID uuid.UUID, limit, offset int) ([]Payment, int, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *memoryBillingRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, inv := range r.invoices {
		if (inv.Status == InvoiceSent || inv.Status == InvoicePartiallyPaid) && inv.DueDate != nil && inv.DueDate.Before(now) {
			inv.Status = InvoiceOverdue
			count++
		}
	}
	return count, nil
}

func (r *memoryBillingRepo) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.GetInvoice(ctx, id)
}

func (r *memoryBillingRepo) InsertInvoice(ctx context.Context, inv Invoice) error {
	stored := inv
	r.invoices[inv.ID] = &stored
	return nil
}

func (r *memoryBillingRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	r.invoiceSeq++
	return "INV-2026-" + pad5(r.invoiceSeq), nil
}

func (r *memoryBillingRepo) NextPaymentNumber(ctx context.Context) (string, error) {
	r.paymentSeq++
	return "PAY-" + pad5(r.paymentSeq), nil
}

func (r *memoryBillingRepo) WorkOrderInvoiceExists(ctx context.Context, workOrderID uuid.UUID) (bool, error) {
	for _, inv := range r.invoices {
		if inv.WorkOrderID != nil && *inv.WorkOrderID == workOrderID && inv.Status != InvoiceCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryBillingRepo) WorkOrderSnapshot(ctx context.Context, workOrderID uuid.UUID) (*WorkOrderSnapshot, error) {
	snap, ok := r.workOrders[workOrderID]
	if !ok {
		return nil, ErrWorkOrderNotFound
	}
	return snap, nil
}

func (r *memoryBillingRepo) InsertPayment(ctx context.Context, p Payment) error {
	stored := p
	r.payments[p.ID] = &stored
	return nil
}

func (r *memoryBillingRepo) UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	p, ok := r.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	if v, ok := updates["amount"]; ok {
		p.Amount = v.(float64)
	}
	if v, ok := updates["method"]; ok {
		p.Method = v.(PaymentMethod)
	}
	return nil
}

func (r *memoryBillingRepo) DeletePayment(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.payments[id]; !ok {
		return ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memoryBillingRepo) SumPayments(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var sum float64
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (r *memoryBillingRepo) UpdateInvoiceFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	if v, ok := updates["paid_amount"]; ok {
		inv.PaidAmount = v.(float64)
	}
	if v, ok := updates["status"]; ok {
		inv.Status = v.(InvoiceStatus)
	}
	return nil
}

func pad5(n int) string {
	digits := []byte{'0', '0', '0', '0', '0'}
	for i := 4; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}

type stubClients struct{ exists bool }

func (s stubClients) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.exists, nil
}

type stubIdempotency struct{ seen map[string]bool }

func (s *stubIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	s.seen[key] = true
	return nil
}

func newTestService(repo *memoryBillingRepo) *Service {
	return NewService(repo, stubClients{exists: true}, &stubIdempotency{}, nil)
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items: []InvoiceItemInput{
			{Description: "Brake service", Quantity: 1, UnitPrice: 100000},
		},
		TaxRate: 10,
	}, uuid.New())
	require.NoError(t, err)

	require.Equal(t, InvoiceDraft, inv.Status)
	require.Equal(t, 100000.0, inv.Subtotal)
	require.Equal(t, 10000.0, inv.TaxAmount)
	require.Equal(t, 110000.0, inv.Total)
	require.Equal(t, 0.0, inv.PaidAmount)
	require.Equal(t, "INV-2026-00001", inv.Number)
}

func TestCreateInvoiceAppliesDiscountBeforeTax(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items: []InvoiceItemInput{
			{Description: "Tune-up", Quantity: 2, UnitPrice: 60000},
		},
		TaxRate:  10,
		Discount: 20000,
	}, uuid.New())
	require.NoError(t, err)

	require.Equal(t, 120000.0, inv.Subtotal)
	require.Equal(t, 10000.0, inv.TaxAmount)
	require.Equal(t, 110000.0, inv.Total)
}

func TestCreateInvoiceFromWorkOrderOnlyOnce(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	woID := uuid.New()
	repo.workOrders[woID] = &WorkOrderSnapshot{
		ID:        woID,
		Number:    "WO-2026-00001",
		ClientID:  uuid.New(),
		Status:    "COMPLETED",
		LaborCost: 50000,
		Items: []InvoiceItemInput{
			{Description: "Oil change", Quantity: 1, UnitPrice: 150000},
		},
	}

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{WorkOrderID: &woID}, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 200000.0, inv.Subtotal)
	require.Len(t, inv.Items, 2)

	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceRequest{WorkOrderID: &woID}, uuid.New())
	require.ErrorIs(t, err, ErrAlreadyInvoiced)
}

func TestPaymentsDriveInvoiceStatus(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
		TaxRate:  10,
	}, actor)
	require.NoError(t, err)
	require.Equal(t, 110000.0, inv.Total)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 60000, Method: MethodCash,
	}, actor)
	require.NoError(t, err)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 60000.0, inv.PaidAmount)
	require.Equal(t, InvoicePartiallyPaid, inv.Status)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 50000, Method: MethodTransfer,
	}, actor)
	require.NoError(t, err)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 110000.0, inv.PaidAmount)
	require.Equal(t, InvoicePaid, inv.Status)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 1, Method: MethodCash,
	}, actor)
	require.ErrorIs(t, err, ErrExceedsBalance)
}

func TestPaymentExceedingBalanceRejected(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 50000}},
	}, actor)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 60000, Method: MethodCash,
	}, actor)
	require.ErrorIs(t, err, ErrExceedsBalance)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, inv.PaidAmount)
	require.Equal(t, InvoiceDraft, inv.Status)
}

func TestDeletePaymentRecomputesFromRemainingSet(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
	}, actor)
	require.NoError(t, err)

	first, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 40000, Method: MethodCash,
	}, actor)
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 60000, Method: MethodCard,
	}, actor)
	require.NoError(t, err)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, inv.Status)

	require.NoError(t, svc.DeletePayment(context.Background(), first.ID, actor))

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 60000.0, inv.PaidAmount)
	require.Equal(t, InvoicePartiallyPaid, inv.Status)
}

func TestUpdatePaymentRecomputesInvoice(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
	}, actor)
	require.NoError(t, err)

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 40000, Method: MethodCash,
	}, actor)
	require.NoError(t, err)

	amount := 100000.0
	updated, err := svc.UpdatePayment(context.Background(), payment.ID, UpdatePaymentRequest{Amount: &amount}, actor)
	require.NoError(t, err)
	require.Equal(t, 100000.0, updated.Amount)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 100000.0, inv.PaidAmount)
	require.Equal(t, InvoicePaid, inv.Status)

	// Amending downward drops the invoice back to partially paid.
	amount = 25000
	_, err = svc.UpdatePayment(context.Background(), payment.ID, UpdatePaymentRequest{Amount: &amount}, actor)
	require.NoError(t, err)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 25000.0, inv.PaidAmount)
	require.Equal(t, InvoicePartiallyPaid, inv.Status)
}

func TestUpdatePaymentExceedingTotalRejected(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
	}, actor)
	require.NoError(t, err)

	first, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 40000, Method: MethodCash,
	}, actor)
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 60000, Method: MethodTransfer,
	}, actor)
	require.NoError(t, err)

	amount := 50000.0
	_, err = svc.UpdatePayment(context.Background(), first.ID, UpdatePaymentRequest{Amount: &amount}, actor)
	require.ErrorIs(t, err, ErrExceedsBalance)

	// The rejected amendment must not touch the invoice figures.
	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 100000.0, inv.PaidAmount)
	require.Equal(t, InvoicePaid, inv.Status)
}

func TestDuplicateIdempotencyKeyRejected(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
	}, actor)
	require.NoError(t, err)

	key := "double-click"
	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 30000, Method: MethodCash, IdempotencyKey: &key,
	}, actor)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 30000, Method: MethodCash, IdempotencyKey: &key,
	}, actor)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, 30000.0, inv.PaidAmount)
}

func TestCancelInvoiceWithPaymentsRejected(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
	}, actor)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: inv.ID, Amount: 10000, Method: MethodCash,
	}, actor)
	require.NoError(t, err)

	_, err = svc.UpdateInvoiceStatus(context.Background(), inv.ID, InvoiceCancelled, actor)
	require.ErrorIs(t, err, ErrHasPayments)
}

func TestMarkOverdueFlipsPastDueInvoices(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)
	clientID := uuid.New()
	actor := uuid.New()

	due := time.Now().Add(-48 * time.Hour)
	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClientID: &clientID,
		Items:    []InvoiceItemInput{{Description: "Repair", Quantity: 1, UnitPrice: 100000}},
		DueDate:  &due,
	}, actor)
	require.NoError(t, err)

	_, err = svc.UpdateInvoiceStatus(context.Background(), inv.ID, InvoiceSent, actor)
	require.NoError(t, err)

	count, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	inv, err = svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceOverdue, inv.Status)
}
