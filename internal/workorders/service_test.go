package workorders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryWORepo struct {
	orders   map[uuid.UUID]*WorkOrder
	services map[uuid.UUID]*ServiceLine
	parts    map[uuid.UUID]*PartLine
	catalog  map[uuid.UUID]struct {
		price float64
		name  string
	}
	stock     map[uuid.UUID]int
	partPrice map[uuid.UUID]float64
	seq       int
}

func newMemoryWORepo() *memoryWORepo {
	return &memoryWORepo{
		orders:   make(map[uuid.UUID]*WorkOrder),
		services: make(map[uuid.UUID]*ServiceLine),
		parts:    make(map[uuid.UUID]*PartLine),
		catalog: make(map[uuid.UUID]struct {
			price float64
			name  string
		}),
		stock:     make(map[uuid.UUID]int),
		partPrice: make(map[uuid.UUID]float64),
	}
}

func (r *memoryWORepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryWORepo) Get(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	wo, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *wo
	out.Services = nil
	out.Parts = nil
	for _, line := range r.services {
		if line.WorkOrderID == id {
			out.Services = append(out.Services, *line)
		}
	}
	for _, line := range r.parts {
		if line.WorkOrderID == id {
			out.Parts = append(out.Parts, *line)
		}
	}
	return &out, nil
}

func (r *memoryWORepo) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	var out []WorkOrder
	for _, wo := range r.orders {
		if req.Status != nil && wo.Status != *req.Status {
			continue
		}
		out = append(out, *wo)
	}
	return out, len(out), nil
}

func (r *memoryWORepo) Create(ctx context.Context, wo WorkOrder) error {
	stored := wo
	r.orders[wo.ID] = &stored
	return nil
}

func (r *memoryWORepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.UpdateFields(ctx, id, updates)
}

func (r *memoryWORepo) NextNumber(ctx context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("WO-2026-%05d", r.seq), nil
}

func (r *memoryWORepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	wo, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *wo
	return &out, nil
}

func (r *memoryWORepo) InsertServiceLine(ctx context.Context, line ServiceLine) error {
	stored := line
	r.services[line.ID] = &stored
	return nil
}

func (r *memoryWORepo) InsertPartLine(ctx context.Context, line PartLine) error {
	stored := line
	r.parts[line.ID] = &stored
	return nil
}

func (r *memoryWORepo) GetServiceLine(ctx context.Context, workOrderID, lineID uuid.UUID) (*ServiceLine, error) {
	line, ok := r.services[lineID]
	if !ok || line.WorkOrderID != workOrderID {
		return nil, ErrLineNotFound
	}
	out := *line
	return &out, nil
}

func (r *memoryWORepo) GetPartLine(ctx context.Context, workOrderID, lineID uuid.UUID) (*PartLine, error) {
	line, ok := r.parts[lineID]
	if !ok || line.WorkOrderID != workOrderID {
		return nil, ErrLineNotFound
	}
	out := *line
	return &out, nil
}

func (r *memoryWORepo) DeleteServiceLine(ctx context.Context, workOrderID, lineID uuid.UUID) error {
	line, ok := r.services[lineID]
	if !ok || line.WorkOrderID != workOrderID {
		return ErrLineNotFound
	}
	delete(r.services, lineID)
	return nil
}

func (r *memoryWORepo) DeletePartLine(ctx context.Context, workOrderID, lineID uuid.UUID) error {
	line, ok := r.parts[lineID]
	if !ok || line.WorkOrderID != workOrderID {
		return ErrLineNotFound
	}
	delete(r.parts, lineID)
	return nil
}

func (r *memoryWORepo) ServicePrice(ctx context.Context, serviceID uuid.UUID) (float64, string, error) {
	entry, ok := r.catalog[serviceID]
	if !ok {
		return 0, "", ErrServiceNotFound
	}
	return entry.price, entry.name, nil
}

func (r *memoryWORepo) ConsumeStock(ctx context.Context, partID uuid.UUID, quantity int, reference string, actorID uuid.UUID) (float64, error) {
	stock, ok := r.stock[partID]
	if !ok {
		return 0, ErrPartNotFound
	}
	if stock < quantity {
		return 0, ErrInsufficientStock
	}
	r.stock[partID] = stock - quantity
	return r.partPrice[partID], nil
}

func (r *memoryWORepo) RestoreStock(ctx context.Context, partID uuid.UUID, quantity int, reference string, actorID uuid.UUID) error {
	if _, ok := r.stock[partID]; !ok {
		return ErrPartNotFound
	}
	r.stock[partID] += quantity
	return nil
}

func (r *memoryWORepo) LineTotals(ctx context.Context, workOrderID uuid.UUID) (float64, float64, error) {
	var services, parts float64
	for _, line := range r.services {
		if line.WorkOrderID == workOrderID {
			services += line.Total
		}
	}
	for _, line := range r.parts {
		if line.WorkOrderID == workOrderID {
			parts += line.Total
		}
	}
	return services, parts, nil
}

func (r *memoryWORepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	wo, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	for field, value := range updates {
		switch field {
		case "status":
			wo.Status = value.(Status)
		case "description":
			wo.Description = value.(string)
		case "estimated_hours":
			wo.EstimatedHours = value.(float64)
		case "actual_hours":
			wo.ActualHours = value.(float64)
		case "labor_rate":
			wo.LaborRate = value.(float64)
		case "estimated_cost":
			wo.EstimatedCost = value.(float64)
		case "actual_cost":
			wo.ActualCost = value.(float64)
		case "started_at":
			ts := value.(time.Time)
			wo.StartedAt = &ts
		case "completed_at":
			ts := value.(time.Time)
			wo.CompletedAt = &ts
		}
	}
	return nil
}

type stubVehicles struct {
	owners map[uuid.UUID]uuid.UUID
}

func (s stubVehicles) Owner(ctx context.Context, vehicleID uuid.UUID) (uuid.UUID, error) {
	owner, ok := s.owners[vehicleID]
	if !ok {
		return uuid.Nil, fmt.Errorf("vehicle not found")
	}
	return owner, nil
}

type woFixture struct {
	repo      *memoryWORepo
	svc       *Service
	clientID  uuid.UUID
	vehicleID uuid.UUID
	actor     uuid.UUID
}

func newWOFixture(t *testing.T) *woFixture {
	t.Helper()
	repo := newMemoryWORepo()
	clientID := uuid.New()
	vehicleID := uuid.New()
	svc := NewService(repo, stubVehicles{owners: map[uuid.UUID]uuid.UUID{vehicleID: clientID}}, nil)
	return &woFixture{repo: repo, svc: svc, clientID: clientID, vehicleID: vehicleID, actor: uuid.New()}
}

func (f *woFixture) create(t *testing.T, hours, rate float64) *WorkOrder {
	t.Helper()
	wo, err := f.svc.Create(context.Background(), CreateWorkOrderRequest{
		ClientID:       f.clientID,
		VehicleID:      f.vehicleID,
		Description:    "Brake noise front left",
		EstimatedHours: hours,
		LaborRate:      rate,
	}, f.actor)
	require.NoError(t, err)
	return wo
}

func TestCreateWorkOrderEstimatesLabor(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 2, 100000)
	require.Equal(t, StatusDraft, wo.Status)
	require.Equal(t, 200000.0, wo.EstimatedCost)
	require.Equal(t, "WO-2026-00001", wo.Number)
}

func TestCreateWorkOrderRejectsForeignVehicle(t *testing.T) {
	f := newWOFixture(t)
	_, err := f.svc.Create(context.Background(), CreateWorkOrderRequest{
		ClientID:    uuid.New(),
		VehicleID:   f.vehicleID,
		Description: "Oil change",
	}, f.actor)
	require.ErrorIs(t, err, ErrVehicleMismatch)
}

func TestAddLinesRecomputeActualCost(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 2, 100000)

	serviceID := uuid.New()
	f.repo.catalog[serviceID] = struct {
		price float64
		name  string
	}{price: 150000, name: "Oil change"}

	partID := uuid.New()
	f.repo.stock[partID] = 10
	f.repo.partPrice[partID] = 45000

	wo, err := f.svc.AddService(context.Background(), wo.ID, AddServiceLineRequest{
		ServiceID: serviceID,
		Quantity:  1,
	}, f.actor)
	require.NoError(t, err)
	require.Len(t, wo.Services, 1)
	require.Equal(t, "Oil change", wo.Services[0].Description)
	require.Equal(t, 150000.0, wo.Services[0].Total)
	// 150000 services + 2h * 100000 labor
	require.Equal(t, 350000.0, wo.ActualCost)

	wo, err = f.svc.AddPart(context.Background(), wo.ID, AddPartLineRequest{
		PartID:   partID,
		Quantity: 2,
	}, f.actor)
	require.NoError(t, err)
	require.Len(t, wo.Parts, 1)
	require.Equal(t, 90000.0, wo.Parts[0].Total)
	require.Equal(t, 440000.0, wo.ActualCost)
	require.Equal(t, 8, f.repo.stock[partID])
}

func TestActualHoursOverrideEstimateInCost(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 2, 100000)

	actual := 3.0
	wo, err := f.svc.Update(context.Background(), wo.ID, UpdateWorkOrderRequest{
		ActualHours: &actual,
	}, f.actor)
	require.NoError(t, err)
	require.Equal(t, 300000.0, wo.ActualCost)
	require.Equal(t, 200000.0, wo.EstimatedCost)
}

func TestAddPartInsufficientStockLeavesStateUntouched(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 1, 100000)

	partID := uuid.New()
	f.repo.stock[partID] = 1
	f.repo.partPrice[partID] = 45000

	_, err := f.svc.AddPart(context.Background(), wo.ID, AddPartLineRequest{
		PartID:   partID,
		Quantity: 3,
	}, f.actor)
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.Equal(t, 1, f.repo.stock[partID])
	wo, err = f.svc.Get(context.Background(), wo.ID)
	require.NoError(t, err)
	require.Empty(t, wo.Parts)
	require.Equal(t, 0.0, wo.ActualCost)
}

func TestRemovePartRestoresStock(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 0, 0)

	partID := uuid.New()
	f.repo.stock[partID] = 5
	f.repo.partPrice[partID] = 38000

	wo, err := f.svc.AddPart(context.Background(), wo.ID, AddPartLineRequest{
		PartID:   partID,
		Quantity: 4,
	}, f.actor)
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.stock[partID])

	wo, err = f.svc.RemovePart(context.Background(), wo.ID, wo.Parts[0].ID, f.actor)
	require.NoError(t, err)
	require.Empty(t, wo.Parts)
	require.Equal(t, 5, f.repo.stock[partID])
	require.Equal(t, 0.0, wo.ActualCost)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusInProgress, false},
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusReady, true},
		{StatusInProgress, StatusCompleted, false},
		{StatusReady, StatusCompleted, true},
		{StatusReady, StatusInProgress, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s to %s", tc.from, tc.to)
	}
}

func TestUpdateStatusStampsTimestamps(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 1, 100000)

	for _, next := range []Status{StatusPending, StatusInProgress, StatusReady, StatusCompleted} {
		var err error
		wo, err = f.svc.UpdateStatus(context.Background(), wo.ID, next, f.actor)
		require.NoError(t, err)
		require.Equal(t, next, wo.Status)
	}
	require.NotNil(t, wo.StartedAt)
	require.NotNil(t, wo.CompletedAt)
}

func TestClosedWorkOrderRejectsLineMutations(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 1, 100000)

	_, err := f.svc.UpdateStatus(context.Background(), wo.ID, StatusCancelled, f.actor)
	require.NoError(t, err)

	partID := uuid.New()
	f.repo.stock[partID] = 5
	_, err = f.svc.AddPart(context.Background(), wo.ID, AddPartLineRequest{PartID: partID, Quantity: 1}, f.actor)
	require.ErrorIs(t, err, ErrClosed)
	require.Equal(t, 5, f.repo.stock[partID])
}

func TestInvalidTransitionRejected(t *testing.T) {
	f := newWOFixture(t)
	wo := f.create(t, 1, 100000)

	_, err := f.svc.UpdateStatus(context.Background(), wo.ID, StatusCompleted, f.actor)
	require.ErrorIs(t, err, ErrInvalidTransition)

	wo, err = f.svc.Get(context.Background(), wo.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, wo.Status)
}
