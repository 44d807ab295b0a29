package services

import (
	"context"
	"testing"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/payments"
	"PokeShop/internal/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderVisibility(t *testing.T) {
	st := storetest.NewMemory()
	misty := st.AddUser("misty", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	gary := st.AddUser("gary", models.RoleBuyer)
	l := st.AddListing(misty, "Dratini", "20.00")
	gw := &fakeGateway{}
	ctx := context.Background()

	_, err := NewCheckoutService(st, gw, "http://localhost:5173").CreateSession(ctx, ash, l.ID)
	require.NoError(t, err)
	target, err := payments.DecodeTarget(gw.last().Metadata)
	require.NoError(t, err)
	orderID := target.(payments.SingleOrder).OrderID

	svc := NewOrderService(st)

	h, err := svc.History(ctx, ash)
	require.NoError(t, err)
	require.Len(t, h.Orders, 1)
	assert.NotNil(t, h.OrderGroups)

	sales, err := svc.Sales(ctx, misty)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = st.CompleteOrder(ctx, orderID, "pi_1", time.Now().UTC())
	require.NoError(t, err)
	sales, err = svc.Sales(ctx, misty)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, models.OrderCompleted, sales[0].Status)

	for _, u := range []*models.User{ash, misty} {
		o, err := svc.GetOrder(ctx, u, orderID)
		require.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
	}
	_, err = svc.GetOrder(ctx, gary, orderID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetOrder(ctx, ash, uuid.New())
	assert.EqualError(t, err, "Order not found")
}
