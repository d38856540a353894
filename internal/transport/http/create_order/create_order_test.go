package createorder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/services/ordersvc"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	gotActor actor.Actor
	gotModel ordersvc.CreateOrderModel
	result   *order.Order
	err      error
}

func (f *fakeService) CreateOrder(
	_ context.Context,
	act actor.Actor,
	model ordersvc.CreateOrderModel,
) (*order.Order, error) {
	f.gotActor = act
	f.gotModel = model

	if f.err != nil {
		return nil, f.err
	}

	return f.result, nil
}

const validBody = `{
	"items": [{"productId": "p1", "quantity": 2}],
	"email": "buyer@example.com",
	"shippingAddress": {"address": "1 Main St", "city": "Springfield"},
	"paymentMethod": "credit-card"
}`

func doRequest(t *testing.T, svc *fakeService, body string, act actor.Actor) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req = req.WithContext(actor.WithContext(req.Context(), act))
	rec := httptest.NewRecorder()

	CreateOrder(rec, req, svc)

	return rec
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	svc := &fakeService{result: &order.Order{ID: "order-1", Status: order.StatusPending}}
	act := actor.Actor{UserID: "user-1", Role: actor.RoleCustomer}

	rec := doRequest(t, svc, validBody, act)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, act, svc.gotActor)
	require.Len(t, svc.gotModel.Items, 1)
	require.Equal(t, "p1", svc.gotModel.Items[0].ProductID)
	require.Equal(t, 2, svc.gotModel.Items[0].Quantity)
	require.Equal(t, order.PaymentMethodCreditCard, svc.gotModel.PaymentMethod)

	var resp order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "order-1", resp.ID)
}

func TestCreateOrderRejectsMalformedBody(t *testing.T) {
	rec := doRequest(t, &fakeService{}, "{not json", actor.Actor{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderRejectsInvalidRequest(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty items", `{"items": [], "email": "a@b.com", "shippingAddress": {"address": "x", "city": "y"}, "paymentMethod": "stripe"}`},
		{"zero quantity", `{"items": [{"productId": "p1", "quantity": 0}], "email": "a@b.com", "shippingAddress": {"address": "x", "city": "y"}, "paymentMethod": "stripe"}`},
		{"bad email", `{"items": [{"productId": "p1", "quantity": 1}], "email": "nope", "shippingAddress": {"address": "x", "city": "y"}, "paymentMethod": "stripe"}`},
		{"unknown payment method", `{"items": [{"productId": "p1", "quantity": 1}], "email": "a@b.com", "shippingAddress": {"address": "x", "city": "y"}, "paymentMethod": "cash"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, &fakeService{}, tc.body, actor.Actor{})
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateOrderMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient stock", &errs.InsufficientStockError{ProductID: "p1", Requested: 5, Available: 1}, http.StatusBadRequest},
		{"reservation conflict", &errs.ReservationConflictError{ProductID: "p1"}, http.StatusConflict},
		{"product not found", errs.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, &fakeService{err: tc.err}, validBody, actor.Actor{})
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
