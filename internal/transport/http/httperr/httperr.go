package httperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront-labs/order-svc/internal/service/models/errs"
)

type response struct {
	Error string `json:"error"`
}

// Write maps a service-layer error onto its HTTP status and writes a JSON
// error body.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Error: err.Error()})
}

func statusOf(err error) int {
	var (
		validationErr  *errs.ValidationError
		unavailableErr *errs.ProductUnavailableError
		stockErr       *errs.InsufficientStockError
		conflictErr    *errs.ReservationConflictError
	)

	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrAlreadyPaid), errors.Is(err, errs.ErrInvalidState):
		return http.StatusConflict
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.As(err, &validationErr),
		errors.As(err, &unavailableErr),
		errors.As(err, &stockErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
