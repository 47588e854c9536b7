package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/tracking"
	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

const otherUserID = "0d9f3b7e-2c4a-4e1b-8f6d-5a4c3b2a1908"

func TestOrderHandler_ListDetailTracking(t *testing.T) {
	s := newTestServer(t)
	s.addItem(t, "magic-kingdom", "print", 1)
	placed := s.checkout(t, "pay_o_1")

	rec := s.do(t, http.MethodGet, "/orders", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[usecase.OrderListOutput](t, rec)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, placed.ID, list.Items[0].ID)

	rec = s.do(t, http.MethodGet, "/orders/"+placed.ID, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[usecase.OrderOutput](t, rec)
	assert.Equal(t, placed.OrderNumber, detail.OrderNumber)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Siva", detail.Items[0].CharacterName)

	// 3日後は発送済み
	s.clock.advance(72 * time.Hour)
	rec = s.do(t, http.MethodGet, "/orders/"+placed.ID+"/tracking", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tl := decode[tracking.Timeline](t, rec)
	assert.Equal(t, model.OrderStatusShipped, tl.Status)
	assert.Equal(t, 3, tl.DaysElapsed)
	assert.True(t, tl.ExpectedDelivery.Equal(placed.CreatedAt.Add(7*24*time.Hour)))
}

func TestOrderHandler_OtherUsersOrder(t *testing.T) {
	s := newTestServer(t)
	s.addItem(t, "magic-kingdom", "print", 1)
	placed := s.checkout(t, "pay_o_2")

	other := signToken(t, otherUserID)
	rec := s.doWithToken(t, http.MethodGet, "/orders/"+placed.ID, "", other)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.doWithToken(t, http.MethodGet, "/orders/"+placed.ID+"/tracking", "", other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.doWithToken(t, http.MethodGet, "/orders", "", other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[usecase.OrderListOutput](t, rec).Items)
}

func TestOrderHandler_InvalidPage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/orders?page=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
