package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryPartsRepo struct {
	parts     map[uuid.UUID]*Part
	movements []StockMovement
}

func newMemoryPartsRepo() *memoryPartsRepo {
	return &memoryPartsRepo{parts: make(map[uuid.UUID]*Part)}
}

func (r *memoryPartsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryPartsRepo) Get(ctx context.Context, id uuid.UUID) (*Part, error) {
	p, ok := r.parts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *memoryPartsRepo) GetBySKU(ctx context.Context, sku string) (*Part, error) {
	for _, p := range r.parts {
		if p.SKU == sku {
			out := *p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryPartsRepo) List(ctx context.Context, req ListPartsRequest) ([]Part, int, error) {
	var out []Part
	for _, p := range r.parts {
		if req.LowStock && p.CurrentStock > p.MinimumStock {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryPartsRepo) Create(ctx context.Context, p Part) error {
	stored := p
	r.parts[p.ID] = &stored
	return nil
}

func (r *memoryPartsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	p, ok := r.parts[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["unit_price"]; ok {
		p.UnitPrice = v.(float64)
	}
	if v, ok := updates["minimum_stock"]; ok {
		p.MinimumStock = v.(int)
	}
	if v, ok := updates["is_active"]; ok {
		p.IsActive = v.(bool)
	}
	return nil
}

func (r *memoryPartsRepo) ListMovements(ctx context.Context, partID uuid.UUID, limit, offset int) ([]StockMovement, int, error) {
	var out []StockMovement
	for _, m := range r.movements {
		if m.PartID == partID {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

func (r *memoryPartsRepo) LowStock(ctx context.Context) ([]Part, error) {
	var out []Part
	for _, p := range r.parts {
		if p.IsActive && p.CurrentStock <= p.MinimumStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryPartsRepo) GetPartForUpdate(ctx context.Context, id uuid.UUID) (*Part, error) {
	return r.Get(ctx, id)
}

func (r *memoryPartsRepo) SetStock(ctx context.Context, id uuid.UUID, newStock int) error {
	p, ok := r.parts[id]
	if !ok {
		return ErrNotFound
	}
	if newStock < 0 {
		return ErrInsufficientStock
	}
	p.CurrentStock = newStock
	return nil
}

func (r *memoryPartsRepo) SetCostPrice(ctx context.Context, id uuid.UUID, costPrice float64) error {
	p, ok := r.parts[id]
	if !ok {
		return ErrNotFound
	}
	p.CostPrice = costPrice
	return nil
}

func (r *memoryPartsRepo) InsertMovement(ctx context.Context, m StockMovement) error {
	r.movements = append(r.movements, m)
	return nil
}

func seedPart(repo *memoryPartsRepo, stock, minimum int) uuid.UUID {
	id := uuid.New()
	repo.parts[id] = &Part{
		ID:           id,
		SKU:          "PRT-FILTER-OIL",
		Name:         "Oil filter",
		UnitPrice:    45000,
		CostPrice:    28000,
		CurrentStock: stock,
		MinimumStock: minimum,
		IsActive:     true,
	}
	return id
}

func TestCreatePartRejectsDuplicateSKU(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	actor := uuid.New()

	_, err := svc.CreatePart(context.Background(), CreatePartRequest{
		SKU: "PRT-PLUG", Name: "Spark plug", UnitPrice: 38000, CurrentStock: 10,
	}, actor)
	require.NoError(t, err)

	_, err = svc.CreatePart(context.Background(), CreatePartRequest{
		SKU: "PRT-PLUG", Name: "Spark plug copy",
	}, actor)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRestockWritesConsistentSnapshots(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 8, 5)

	part, err := svc.Restock(context.Background(), partID, RestockInput{
		Quantity: 12, Reference: "PO-1042", ActorID: uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, 20, part.CurrentStock)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	require.Equal(t, MovementIn, m.Type)
	require.Equal(t, 12, m.Quantity)
	require.Equal(t, 8, m.PreviousStock)
	require.Equal(t, 20, m.CurrentStock)
	require.Equal(t, "PO-1042", m.Reference)
}

func TestRestockUpdatesCostPrice(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 8, 5)

	part, err := svc.Restock(context.Background(), partID, RestockInput{
		Quantity: 10, UnitCost: 31000, ActorID: uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, 31000.0, part.CostPrice)

	stored, err := svc.GetPart(context.Background(), partID)
	require.NoError(t, err)
	require.Equal(t, 31000.0, stored.CostPrice)
}

func TestRestockWithoutCostKeepsCostPrice(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 8, 5)

	part, err := svc.Restock(context.Background(), partID, RestockInput{
		Quantity: 10, ActorID: uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, 28000.0, part.CostPrice)
}

func TestRestockRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 8, 5)

	_, err := svc.Restock(context.Background(), partID, RestockInput{Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.Restock(context.Background(), partID, RestockInput{Quantity: -3})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.Empty(t, repo.movements)
}

func TestAdjustRecordsSignedCorrection(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 10, 5)

	part, err := svc.Adjust(context.Background(), partID, AdjustmentInput{
		Quantity: -4, Reason: "stocktake shrinkage", ActorID: uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, 6, part.CurrentStock)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	require.Equal(t, MovementAdjustment, m.Type)
	require.Equal(t, 4, m.Quantity)
	require.Equal(t, 10, m.PreviousStock)
	require.Equal(t, 6, m.CurrentStock)
	require.Equal(t, "stocktake shrinkage", m.Reason)
}

func TestAdjustBelowZeroRejectedWithoutMovement(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 3, 5)

	_, err := svc.Adjust(context.Background(), partID, AdjustmentInput{
		Quantity: -5, Reason: "damage", ActorID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	part, err := svc.GetPart(context.Background(), partID)
	require.NoError(t, err)
	require.Equal(t, 3, part.CurrentStock)
	require.Empty(t, repo.movements)
}

func TestLowStockListsPartsAtOrBelowMinimum(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	low := seedPart(repo, 2, 5)

	okID := uuid.New()
	repo.parts[okID] = &Part{ID: okID, SKU: "PRT-OIL-5W30", Name: "Engine oil", CurrentStock: 60, MinimumStock: 20, IsActive: true}

	parts, err := svc.LowStockParts(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, low, parts[0].ID)
}

func TestDeactivatePartKeepsMovementHistory(t *testing.T) {
	repo := newMemoryPartsRepo()
	svc := NewService(repo, nil)
	partID := seedPart(repo, 8, 5)

	_, err := svc.Restock(context.Background(), partID, RestockInput{Quantity: 2, ActorID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivatePart(context.Background(), partID, uuid.New()))

	part, err := svc.GetPart(context.Background(), partID)
	require.NoError(t, err)
	require.False(t, part.IsActive)

	movements, total, err := svc.ListMovements(context.Background(), partID, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, movements, 1)
}
