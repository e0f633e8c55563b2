package workorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// VehiclePort resolves a vehicle's owning client.
type VehiclePort interface {
	Owner(ctx context.Context, vehicleID uuid.UUID) (uuid.UUID, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the work-order lifecycle and keeps actual_cost consistent
// with the line items.
type Service struct {
	repo     Repository
	vehicles VehiclePort
	audit    AuditPort
}

// NewService builds Service instance.
func NewService(repo Repository, vehicles VehiclePort, audit AuditPort) *Service {
	return &Service{repo: repo, vehicles: vehicles, audit: audit}
}

// Create opens a new DRAFT work order.
func (s *Service) Create(ctx context.Context, req CreateWorkOrderRequest, actorID uuid.UUID) (*WorkOrder, error) {
	owner, err := s.vehicles.Owner(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if owner != req.ClientID {
		return nil, ErrVehicleMismatch
	}

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	wo := WorkOrder{
		ID:             uuid.New(),
		Number:         number,
		ClientID:       req.ClientID,
		VehicleID:      req.VehicleID,
		Status:         StatusDraft,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		LaborRate:      req.LaborRate,
		EstimatedCost:  req.EstimatedHours * req.LaborRate,
		AssignedTo:     req.AssignedTo,
		Notes:          req.Notes,
	}
	if err := s.repo.Create(ctx, wo); err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	s.recordAudit(ctx, actorID, "workorder:create", wo.ID, map[string]any{"number": wo.Number})
	return &wo, nil
}

// Get returns one work order with its lines.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns work orders with a total count.
func (s *Service) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	return s.repo.List(ctx, req)
}

// Update patches header fields. Hour or rate changes recompute both cost
// figures since the labor component shifts.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateWorkOrderRequest, actorID uuid.UUID) (*WorkOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if wo.Status.Closed() {
			return ErrClosed
		}

		updates := make(map[string]interface{})
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.EstimatedHours != nil {
			wo.EstimatedHours = *req.EstimatedHours
			updates["estimated_hours"] = *req.EstimatedHours
		}
		if req.ActualHours != nil {
			wo.ActualHours = *req.ActualHours
			updates["actual_hours"] = *req.ActualHours
		}
		if req.LaborRate != nil {
			wo.LaborRate = *req.LaborRate
			updates["labor_rate"] = *req.LaborRate
		}
		if req.AssignedTo != nil {
			updates["assigned_to"] = *req.AssignedTo
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if len(updates) == 0 {
			return nil
		}

		if req.EstimatedHours != nil || req.ActualHours != nil || req.LaborRate != nil {
			updates["estimated_cost"] = wo.EstimatedHours * wo.LaborRate
			services, parts, err := tx.LineTotals(ctx, id)
			if err != nil {
				return err
			}
			updates["actual_cost"] = services + parts + wo.LaborCost()
		}
		return tx.UpdateFields(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "workorder:update", id, nil)
	return s.repo.Get(ctx, id)
}

// AddService appends a service line and recomputes actual_cost.
func (s *Service) AddService(ctx context.Context, workOrderID uuid.UUID, req AddServiceLineRequest, actorID uuid.UUID) (*WorkOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, workOrderID)
		if err != nil {
			return err
		}
		if wo.Status.Closed() {
			return ErrClosed
		}

		basePrice, name, err := tx.ServicePrice(ctx, req.ServiceID)
		if err != nil {
			return err
		}
		unitPrice := basePrice
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}
		description := req.Description
		if description == "" {
			description = name
		}

		line := ServiceLine{
			ID:          uuid.New(),
			WorkOrderID: workOrderID,
			ServiceID:   req.ServiceID,
			Description: description,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			Discount:    req.Discount,
			Total:       LineTotal(req.Quantity, unitPrice, req.Discount),
		}
		if err := tx.InsertServiceLine(ctx, line); err != nil {
			return fmt.Errorf("insert service line: %w", err)
		}
		return s.recompute(ctx, tx, wo)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "workorder:add_service", workOrderID, map[string]any{"service_id": req.ServiceID.String()})
	return s.repo.Get(ctx, workOrderID)
}

// AddPart appends a part line. Stock is decremented in the same transaction,
// so an insufficient-stock rejection leaves both stock and cost untouched.
func (s *Service) AddPart(ctx context.Context, workOrderID uuid.UUID, req AddPartLineRequest, actorID uuid.UUID) (*WorkOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, workOrderID)
		if err != nil {
			return err
		}
		if wo.Status.Closed() {
			return ErrClosed
		}

		catalogPrice, err := tx.ConsumeStock(ctx, req.PartID, req.Quantity, wo.Number, actorID)
		if err != nil {
			return err
		}
		unitPrice := catalogPrice
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}

		line := PartLine{
			ID:          uuid.New(),
			WorkOrderID: workOrderID,
			PartID:      req.PartID,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			Discount:    req.Discount,
			Total:       LineTotal(req.Quantity, unitPrice, req.Discount),
		}
		if err := tx.InsertPartLine(ctx, line); err != nil {
			return fmt.Errorf("insert part line: %w", err)
		}
		return s.recompute(ctx, tx, wo)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "workorder:add_part", workOrderID, map[string]any{"part_id": req.PartID.String(), "quantity": req.Quantity})
	return s.repo.Get(ctx, workOrderID)
}

// RemoveService deletes a service line and recomputes actual_cost.
func (s *Service) RemoveService(ctx context.Context, workOrderID, lineID uuid.UUID, actorID uuid.UUID) (*WorkOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, workOrderID)
		if err != nil {
			return err
		}
		if wo.Status.Closed() {
			return ErrClosed
		}
		if err := tx.DeleteServiceLine(ctx, workOrderID, lineID); err != nil {
			return err
		}
		return s.recompute(ctx, tx, wo)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "workorder:remove_service", workOrderID, map[string]any{"line_id": lineID.String()})
	return s.repo.Get(ctx, workOrderID)
}

// RemovePart deletes a part line and returns its quantity to stock.
func (s *Service) RemovePart(ctx context.Context, workOrderID, lineID uuid.UUID, actorID uuid.UUID) (*WorkOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, workOrderID)
		if err != nil {
			return err
		}
		if wo.Status.Closed() {
			return ErrClosed
		}
		line, err := tx.GetPartLine(ctx, workOrderID, lineID)
		if err != nil {
			return err
		}
		if err := tx.DeletePartLine(ctx, workOrderID, lineID); err != nil {
			return err
		}
		if err := tx.RestoreStock(ctx, line.PartID, line.Quantity, wo.Number, actorID); err != nil {
			return err
		}
		return s.recompute(ctx, tx, wo)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "workorder:remove_part", workOrderID, map[string]any{"line_id": lineID.String()})
	return s.repo.Get(ctx, workOrderID)
}

// UpdateStatus applies a lifecycle transition. Timestamps are stamped on
// first entry into IN_PROGRESS and on completion.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status, actorID uuid.UUID) (*WorkOrder, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(wo.Status, next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, wo.Status, next)
		}

		updates := map[string]interface{}{"status": next}
		now := time.Now()
		if next == StatusInProgress && wo.StartedAt == nil {
			updates["started_at"] = now
		}
		if next == StatusCompleted {
			updates["completed_at"] = now
		}
		return tx.UpdateFields(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "workorder:status", id, map[string]any{"status": string(next)})
	return s.repo.Get(ctx, id)
}

func (s *Service) recompute(ctx context.Context, tx TxRepository, wo *WorkOrder) error {
	services, parts, err := tx.LineTotals(ctx, wo.ID)
	if err != nil {
		return err
	}
	return tx.UpdateFields(ctx, wo.ID, map[string]interface{}{
		"actual_cost": services + parts + wo.LaborCost(),
	})
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "work_order",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
