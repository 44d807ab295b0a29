package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/storage"
	"PokeShop/internal/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListingService(t *testing.T) (*ListingService, *storetest.Memory, string) {
	t.Helper()
	dir := t.TempDir()
	objects, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)
	st := storetest.NewMemory()
	svc := NewListingService(st, objects)
	svc.Now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return svc, st, dir
}

func TestCreateListingValidation(t *testing.T) {
	svc, st, _ := newListingService(t)
	misty := st.AddUser("misty", models.RoleSeller)
	ctx := context.Background()

	cases := []struct {
		in  ListingInput
		msg string
	}{
		{ListingInput{CardName: " ", SetName: "Base", Price: "1"}, "Card name is required"},
		{ListingInput{CardName: "Onix", SetName: "", Price: "1"}, "Set name is required"},
		{ListingInput{CardName: "Onix", SetName: "Base", Price: "abc"}, "Price must be a positive number"},
		{ListingInput{CardName: "Onix", SetName: "Base", Price: "0"}, "Price must be a positive number"},
		{ListingInput{CardName: "Onix", SetName: "Base", Price: "100000000"}, "Price exceeds maximum allowed value"},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, misty, tc.in, nil)
		require.ErrorIs(t, err, ErrInvalid)
		assert.EqualError(t, err, tc.msg)
	}

	_, err := svc.Create(ctx, misty, ListingInput{CardName: "Onix", SetName: "Base", Price: "1"}, &Image{ContentType: "image/gif", Data: []byte("x")})
	assert.EqualError(t, err, "Invalid file type. Only JPEG, PNG, and WebP are allowed.")
}

func TestListingLifecycle(t *testing.T) {
	svc, st, dir := newListingService(t)
	misty := st.AddUser("misty", models.RoleSeller)
	brock := st.AddUser("brock", models.RoleSeller)
	ctx := context.Background()

	l, err := svc.Create(ctx, misty, ListingInput{CardName: " Starmie ", SetName: "Base Set", Price: "12.345"},
		&Image{ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "Starmie", l.CardName)
	assert.Equal(t, "12.35", l.Price.StringFixed(2))
	require.NotNil(t, l.ImageURL)
	wantKey := "listings/" + misty.ID.String() + "/1700000000000.png"
	assert.Equal(t, "/uploads/"+wantKey, *l.ImageURL)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(wantKey)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, brock, l.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.EqualError(t, err, "You do not own this listing")
	_, err = svc.Get(ctx, misty, uuid.New())
	assert.EqualError(t, err, "Listing not found")

	_, err = svc.Update(ctx, misty, l.ID, ListingPatch{Status: strPtr("GONE")})
	assert.EqualError(t, err, "Invalid status")
	_, err = svc.Update(ctx, misty, l.ID, ListingPatch{CardName: strPtr("  ")})
	assert.EqualError(t, err, "Card name cannot be empty")

	up, err := svc.Update(ctx, misty, l.ID, ListingPatch{Price: strPtr("15"), Status: strPtr("CANCELLED")})
	require.NoError(t, err)
	assert.Equal(t, models.ListingCancelled, up.Status)
	assert.Equal(t, "15.00", up.Price.StringFixed(2))

	active, err := svc.List(ctx, misty, "ACTIVE")
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.List(ctx, misty, "whatever")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, misty, l.ID))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(wantKey)))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteListingWithOrders(t *testing.T) {
	svc, st, _ := newListingService(t)
	misty := st.AddUser("misty", models.RoleSeller)
	ash := st.AddUser("ash", models.RoleBuyer)
	l := st.AddListing(misty, "Psyduck", "4.00")
	ctx := context.Background()

	_, err := NewCheckoutService(st, &fakeGateway{}, "http://localhost:5173").CreateSession(ctx, ash, l.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, misty, l.ID)
	require.ErrorIs(t, err, ErrInvalid)
	assert.True(t, strings.Contains(err.Error(), "orders"))
}

func TestCheckImage(t *testing.T) {
	assert.NoError(t, CheckImage("image/webp", MaxImageBytes))
	assert.Error(t, CheckImage("image/webp", MaxImageBytes+1))
	assert.Error(t, CheckImage("application/pdf", 10))
}
