package vehicles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// ClientPort verifies client existence without importing the clients package.
type ClientPort interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles vehicle business logic.
type Service struct {
	repo    Repository
	clients ClientPort
	audit   AuditPort
}

// NewService builds Service instance.
func NewService(repo Repository, clients ClientPort, audit AuditPort) *Service {
	return &Service{repo: repo, clients: clients, audit: audit}
}

// Create registers a vehicle under a client.
func (s *Service) Create(ctx context.Context, req CreateVehicleRequest, actorID uuid.UUID) (*Vehicle, error) {
	if s.clients != nil {
		ok, err := s.clients.Exists(ctx, req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("check client: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: client", ErrNotFound)
		}
	}

	existing, err := s.repo.GetByPlate(ctx, req.LicensePlate)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing vehicle: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: license plate already registered", ErrAlreadyExists)
	}

	v := Vehicle{
		ID:           uuid.New(),
		ClientID:     req.ClientID,
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		VIN:          req.VIN,
		Color:        req.Color,
		Mileage:      req.Mileage,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	s.recordAudit(ctx, actorID, "vehicle:create", v.ID, map[string]any{"plate": v.LicensePlate})
	return &v, nil
}

// Update patches an existing vehicle.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest, actorID uuid.UUID) (*Vehicle, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.LicensePlate != nil {
		updates["license_plate"] = *req.LicensePlate
	}
	if req.Make != nil {
		updates["make"] = *req.Make
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.VIN != nil {
		updates["vin"] = *req.VIN
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Mileage != nil {
		updates["mileage"] = *req.Mileage
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	s.recordAudit(ctx, actorID, "vehicle:update", id, map[string]any{"fields": len(updates)})
	return s.repo.Get(ctx, id)
}

// Delete removes a vehicle that has no work orders.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "vehicle:delete", id, nil)
	return nil
}

// Get returns one vehicle.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	return s.repo.Get(ctx, id)
}

// Owner resolves the owning client for a vehicle.
func (s *Service) Owner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return v.ClientID, nil
}

// List returns vehicles with a total count.
func (s *Service) List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error) {
	return s.repo.List(ctx, req)
}

// History returns completed work orders for a vehicle.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "vehicle",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
