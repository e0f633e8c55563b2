package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Entry is one audit log row as returned by the API.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Handler exposes the read side of the audit trail, admin only.
type Handler struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
	mw     auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, pool: pool, mw: mw}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Use(h.mw.RequireRole(auth.RoleAdmin))
		r.Get("/", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	q := r.URL.Query()

	entries, total, err := h.query(r.Context(), q.Get("entity"), q.Get("action"), limit, shared.Offset(page, limit))
	if err != nil {
		h.logger.Error("list audit logs failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OKList(w, entries, shared.NewPagination(page, limit, total))
}

func (h *Handler) query(ctx context.Context, entity, action string, limit, offset int) ([]Entry, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if entity != "" {
		conditions = append(conditions, fmt.Sprintf("entity = $%d", argPos))
		args = append(args, entity)
		argPos++
	}
	if action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argPos))
		args = append(args, action)
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
	if err := h.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, action, entity, entity_id, meta, occurred_at
		FROM audit_logs %s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &meta, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Meta)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
