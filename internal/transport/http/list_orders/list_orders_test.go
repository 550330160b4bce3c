package listorders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlabs/order-svc/internal/service/models/order"
	"github.com/ecomlabs/order-svc/internal/service/models/orderitem"
)

type stubService struct {
	orders   []order.Order
	err      error
	gotModel orderitem.QueryOrderItemsModel
}

func (s *stubService) GetOrders(
	_ context.Context,
	model orderitem.QueryOrderItemsModel,
) ([]order.Order, error) {
	s.gotModel = model

	return s.orders, s.err
}

func TestListOrders(t *testing.T) {
	svc := &stubService{
		orders: []order.Order{{ID: 1, CustomerID: 2}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders?customerIds=2&limit=10", nil)
	rec := httptest.NewRecorder()
	ListOrders(rec, req, svc)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{2}, svc.gotModel.CustomerIds)
	assert.Equal(t, 10, svc.gotModel.Limit)

	var got []order.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestListOrders_ServiceError(t *testing.T) {
	svc := &stubService{err: assert.AnError}

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	ListOrders(rec, req, svc)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
