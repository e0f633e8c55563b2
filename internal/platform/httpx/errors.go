package httpx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Sentinel errors the response mapper understands. Domain packages either use
// these directly or wrap them with context.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

const uniqueViolation = "23505"

// RespondError maps domain errors onto the error envelope with the HTTP status
// the API contract promises: 400 validation / business rule, 401, 403,
// 404, 409 duplicate, 500 fallback.
func RespondError(w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, shared.ErrIdempotencyConflict):
		Fail(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		Fail(w, http.StatusConflict, "conflict", "duplicate entry")
	default:
		Fail(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
