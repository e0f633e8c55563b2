package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles part catalog maintenance and stock mutations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreatePart registers a new part with its opening stock.
func (s *Service) CreatePart(ctx context.Context, req CreatePartRequest, actorID uuid.UUID) (*Part, error) {
	existing, err := s.repo.GetBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing sku: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	part := Part{
		ID:           uuid.New(),
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		CostPrice:    req.CostPrice,
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
		SupplierID:   req.SupplierID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	s.recordAudit(ctx, actorID, "part:create", part.ID, map[string]any{"sku": part.SKU})
	return &part, nil
}

// UpdatePart patches catalog fields. Stock is never updated here; movements own it.
func (s *Service) UpdatePart(ctx context.Context, id uuid.UUID, req UpdatePartRequest, actorID uuid.UUID) (*Part, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = *req.UnitPrice
	}
	if req.CostPrice != nil {
		updates["cost_price"] = *req.CostPrice
	}
	if req.MinimumStock != nil {
		updates["minimum_stock"] = *req.MinimumStock
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "part:update", id, map[string]any{"fields": len(updates)})
	return s.repo.Get(ctx, id)
}

// DeactivatePart soft-deletes a part so movement history stays intact.
func (s *Service) DeactivatePart(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "part:deactivate", id, nil)
	return nil
}

// GetPart returns one part.
func (s *Service) GetPart(ctx context.Context, id uuid.UUID) (*Part, error) {
	return s.repo.Get(ctx, id)
}

// ListParts returns parts with a total count.
func (s *Service) ListParts(ctx context.Context, req ListPartsRequest) ([]Part, int, error) {
	return s.repo.List(ctx, req)
}

// LowStockParts returns active parts at or below their minimum stock.
func (s *Service) LowStockParts(ctx context.Context) ([]Part, error) {
	return s.repo.LowStock(ctx)
}

// ListMovements returns the movement log for a part, newest first.
func (s *Service) ListMovements(ctx context.Context, partID uuid.UUID, limit, offset int) ([]StockMovement, int, error) {
	if _, err := s.repo.Get(ctx, partID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListMovements(ctx, partID, limit, offset)
}

// Restock receives stock from a supplier. The part row is locked so
// concurrent movements never skew the snapshots. A supplied unit cost
// becomes the part's new cost_price.
func (s *Service) Restock(ctx context.Context, partID uuid.UUID, in RestockInput) (*Part, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *Part
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.GetPartForUpdate(ctx, partID)
		if err != nil {
			return err
		}
		previous := part.CurrentStock
		part.CurrentStock = previous + in.Quantity
		if err := tx.SetStock(ctx, partID, part.CurrentStock); err != nil {
			return err
		}
		if in.UnitCost > 0 && in.UnitCost != part.CostPrice {
			if err := tx.SetCostPrice(ctx, partID, in.UnitCost); err != nil {
				return err
			}
			part.CostPrice = in.UnitCost
		}
		if err := tx.InsertMovement(ctx, StockMovement{
			ID:            uuid.New(),
			PartID:        partID,
			Type:          MovementIn,
			Quantity:      in.Quantity,
			PreviousStock: previous,
			CurrentStock:  part.CurrentStock,
			Reason:        "restock",
			Reference:     in.Reference,
			CreatedBy:     in.ActorID,
		}); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		updated = part
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, in.ActorID, "part:restock", partID, map[string]any{"quantity": in.Quantity})
	return updated, nil
}

// Adjust applies a signed manual correction. Adjustments that would drive
// stock negative are rejected and nothing is written.
func (s *Service) Adjust(ctx context.Context, partID uuid.UUID, in AdjustmentInput) (*Part, error) {
	if in.Quantity == 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *Part
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.GetPartForUpdate(ctx, partID)
		if err != nil {
			return err
		}
		previous := part.CurrentStock
		next := previous + in.Quantity
		if next < 0 {
			return ErrInsufficientStock
		}
		part.CurrentStock = next
		if err := tx.SetStock(ctx, partID, next); err != nil {
			return err
		}
		magnitude := in.Quantity
		if magnitude < 0 {
			magnitude = -magnitude
		}
		if err := tx.InsertMovement(ctx, StockMovement{
			ID:            uuid.New(),
			PartID:        partID,
			Type:          MovementAdjustment,
			Quantity:      magnitude,
			PreviousStock: previous,
			CurrentStock:  next,
			Reason:        in.Reason,
			CreatedBy:     in.ActorID,
		}); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		updated = part
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, in.ActorID, "part:adjust", partID, map[string]any{"quantity": in.Quantity, "reason": in.Reason})
	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "part",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
