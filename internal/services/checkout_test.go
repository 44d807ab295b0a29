package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"PokeShop/internal/models"
	"PokeShop/internal/payments"
	"PokeShop/internal/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionRejectsBeforeWriting(t *testing.T) {
	st := storetest.NewMemory()
	misty := st.AddUser("misty", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	sold := st.AddListing(misty, "Togepi", "9.00")
	st.SetListingStatus(sold.ID, models.ListingSold)
	mine := st.AddListing(ash, "Pidgey", "1.00")
	gw := &fakeGateway{}
	svc := NewCheckoutService(st, gw, "http://localhost:5173/")
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, ash, sold.ID)
	assert.EqualError(t, err, "This listing is no longer available")
	_, err = svc.CreateSession(ctx, ash, mine.ID)
	assert.EqualError(t, err, "You cannot purchase your own listing")
	_, err = svc.CreateSession(ctx, ash, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, st.OrderCount())
	assert.Empty(t, gw.requests)
}

func TestCreateSessionSnapshotsPrice(t *testing.T) {
	st := storetest.NewMemory()
	misty := st.AddUser("misty", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	l := st.AddListing(misty, "Lapras", "45.99")
	gw := &fakeGateway{}
	svc := NewCheckoutService(st, gw, "http://localhost:5173/")
	ctx := context.Background()

	res, err := svc.CreateSession(ctx, ash, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_a", res.SessionID)

	req := gw.last()
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, int64(4599), req.LineItems[0].UnitAmount)
	assert.Equal(t, "Lapras", req.LineItems[0].Name)
	assert.Equal(t, "Base Set - Sold by misty", req.LineItems[0].Description)
	assert.Equal(t, "http://localhost:5173/checkout/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "http://localhost:5173/shop/misty", req.CancelURL)

	target, err := payments.DecodeTarget(req.Metadata)
	require.NoError(t, err)
	single, ok := target.(payments.SingleOrder)
	require.True(t, ok)
	assert.Equal(t, l.ID, single.ListingID)
	assert.Equal(t, ash.ID, single.BuyerID)
	assert.Equal(t, misty.ID, single.SellerID)

	view, err := svc.Session(ctx, ash, res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, view.Order)
	assert.Equal(t, single.OrderID, view.Order.ID)
	assert.Equal(t, models.OrderPending, view.Order.Status)
	assert.Equal(t, "45.99", view.Order.Amount.StringFixed(2))

	_, err = svc.Session(ctx, misty, res.SessionID)
	assert.EqualError(t, err, "You do not have access to this order")

	v, err := svc.Verify(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "misty", v.SellerUsername)
	assert.Equal(t, "Lapras", v.CardName)

	_, err = svc.Verify(ctx, "cs_missing")
	assert.EqualError(t, err, "Order not found")
}

func TestCreateSessionGatewayFailure(t *testing.T) {
	st := storetest.NewMemory()
	misty := st.AddUser("misty", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	l := st.AddListing(misty, "Jynx", "5.00")
	svc := NewCheckoutService(st, &fakeGateway{err: errors.New("stripe down")}, "http://localhost:5173")

	_, err := svc.CreateSession(context.Background(), ash, l.ID)
	require.ErrorIs(t, err, ErrSessionFailed)
	_, isUser := AsError(err)
	assert.False(t, isUser)
	assert.Equal(t, 1, st.OrderCount())
}

func TestCreateCartSession(t *testing.T) {
	st := storetest.NewMemory()
	misty := st.AddUser("misty", models.RoleSeller)
	brock := st.AddUser("brock", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	a := st.AddListing(misty, "Psyduck", "4.10")
	b := st.AddListing(brock, "Geodude", "2.25")
	gw := &fakeGateway{}
	svc := NewCheckoutService(st, gw, "http://localhost:5173")
	ctx := context.Background()

	_, err := svc.CreateCartSession(ctx, ash, nil)
	assert.EqualError(t, err, "At least one listing ID is required")
	_, err = svc.CreateCartSession(ctx, ash, []uuid.UUID{a.ID, uuid.New()})
	assert.EqualError(t, err, "One or more listings not found")

	st.SetListingStatus(b.ID, models.ListingSold)
	_, err = svc.CreateCartSession(ctx, ash, []uuid.UUID{a.ID, b.ID})
	assert.EqualError(t, err, `"Geodude" is no longer available`)
	assert.Zero(t, st.OrderCount())
	st.SetListingStatus(b.ID, models.ListingActive)

	_, err = svc.CreateCartSession(ctx, misty, []uuid.UUID{a.ID, b.ID})
	assert.EqualError(t, err, `Cannot purchase your own listing "Psyduck"`)

	res, err := svc.CreateCartSession(ctx, ash, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)

	req := gw.last()
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, int64(410), req.LineItems[0].UnitAmount)
	assert.Equal(t, int64(225), req.LineItems[1].UnitAmount)
	assert.Equal(t, "http://localhost:5173/cart", req.CancelURL)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(req.Metadata["listingIds"]), &ids))
	assert.Equal(t, []string{a.ID.String(), b.ID.String()}, ids)

	view, err := svc.Session(ctx, ash, res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, view.OrderGroup)
	assert.Equal(t, "6.35", view.OrderGroup.TotalAmount.StringFixed(2))
	assert.Len(t, view.OrderGroup.Items, 2)
}

func TestCreateCartSessionRejectsOversizedCart(t *testing.T) {
	st := storetest.NewMemory()
	misty := st.AddUser("misty", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	gw := &fakeGateway{}
	svc := NewCheckoutService(st, gw, "http://localhost:5173")
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 13; i++ {
		ids = append(ids, st.AddListing(misty, "Unown", "1.00").ID)
	}

	_, err := svc.CreateCartSession(ctx, ash, ids)
	assert.EqualError(t, err, "Too many items for one checkout (maximum 12)")
	assert.Zero(t, st.OrderCount())
	assert.Empty(t, gw.requests)

	res, err := svc.CreateCartSession(ctx, ash, ids[:payments.MaxGroupListings])
	require.NoError(t, err)
	req := gw.last()
	assert.NoError(t, payments.CheckMetadata(req.Metadata))
	assert.LessOrEqual(t, len(req.Metadata["listingIds"]), payments.MaxMetadataValue)
	assert.NotEmpty(t, res.SessionID)
}
