package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/stretchr/testify/require"
)

func TestWriteStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errs.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("product p1: %w", errs.ErrNotFound), http.StatusNotFound},
		{"forbidden", errs.ErrForbidden, http.StatusForbidden},
		{"already paid", errs.ErrAlreadyPaid, http.StatusConflict},
		{"invalid state", errs.ErrInvalidState, http.StatusConflict},
		{"reservation conflict", &errs.ReservationConflictError{ProductID: "p1"}, http.StatusConflict},
		{"validation", errs.NewValidationError("bad input"), http.StatusBadRequest},
		{"product unavailable", &errs.ProductUnavailableError{ProductID: "p1"}, http.StatusBadRequest},
		{"insufficient stock", &errs.InsufficientStockError{ProductID: "p1", Requested: 5, Available: 2}, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			Write(rec, req, tc.err)

			require.Equal(t, tc.want, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.err.Error(), body.Error)
		})
	}
}
