package store

import (
	"context"
	"testing"
	"time"

	"PokeShop/internal/db"
	"PokeShop/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pokeshop"),
		postgres.WithUsername("pokeshop"),
		postgres.WithPassword("pokeshop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(dsn))

	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool)
}

func seedUser(t *testing.T, st *Store, name string, role models.Role) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.New(),
		Subject:   "auth0|" + name,
		Username:  name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func seedListing(t *testing.T, st *Store, seller *models.User, name, price string) *models.Listing {
	t.Helper()
	now := time.Now().UTC()
	l := &models.Listing{
		ID:        uuid.New(),
		SellerID:  seller.ID,
		CardName:  name,
		SetName:   "Base Set",
		Price:     decimal.RequireFromString(price),
		Status:    models.ListingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateListing(context.Background(), l))
	return l
}

func seedOrder(t *testing.T, st *Store, buyer *models.User, l *models.Listing, session string) *models.Order {
	t.Helper()
	now := time.Now().UTC()
	o := &models.Order{
		ID:        uuid.New(),
		BuyerID:   buyer.ID,
		SellerID:  l.SellerID,
		ListingID: l.ID,
		Amount:    l.Price,
		Status:    models.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateOrder(context.Background(), o))
	require.NoError(t, st.SetOrderSession(context.Background(), o.ID, session))
	return o
}

func TestStoreIntegration(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seller := seedUser(t, st, "misty", models.RoleSeller)
	buyer := seedUser(t, st, "ash", models.RoleBuyer)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		now := time.Now().UTC()
		err := st.CreateUser(ctx, &models.User{
			ID: uuid.New(), Subject: "auth0|other", Username: "ash",
			Role: models.RoleBuyer, IsActive: true, CreatedAt: now, UpdatedAt: now,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("complete order marks listing sold once", func(t *testing.T) {
		l := seedListing(t, st, seller, "Charizard", "250.00")
		o := seedOrder(t, st, buyer, l, "cs_complete")
		paidAt := time.Now().UTC().Truncate(time.Microsecond)

		done, err := st.CompleteOrder(ctx, o.ID, "pi_1", paidAt)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCompleted, done.Status)
		require.NotNil(t, done.PaidAt)
		assert.True(t, paidAt.Equal(*done.PaidAt))
		assert.Equal(t, "pi_1", *done.PaymentIntentID)
		assert.Equal(t, models.ListingSold, done.Listing.Status)
		assert.True(t, done.Amount.Equal(decimal.RequireFromString("250")))

		_, err = st.CompleteOrder(ctx, o.ID, "pi_2", time.Now())
		assert.ErrorIs(t, err, ErrNotPending)

		_, err = st.CancelOrder(ctx, o.ID)
		assert.ErrorIs(t, err, ErrNotPending)

		got, err := st.GetOrderBySession(ctx, "cs_complete")
		require.NoError(t, err)
		assert.Equal(t, models.OrderCompleted, got.Status)
		assert.Equal(t, "pi_1", *got.PaymentIntentID)
	})

	t.Run("cancel leaves listing active", func(t *testing.T) {
		l := seedListing(t, st, seller, "Blastoise", "90.00")
		o := seedOrder(t, st, buyer, l, "cs_cancel")

		cancelled, err := st.CancelOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, cancelled.Status)
		assert.Equal(t, models.ListingActive, cancelled.Listing.Status)
		assert.Nil(t, cancelled.PaidAt)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		_, err := st.CompleteOrder(ctx, uuid.New(), "pi", time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("complete group sells listings and clears cart", func(t *testing.T) {
		a := seedListing(t, st, seller, "Pikachu", "10.00")
		b := seedListing(t, st, seller, "Eevee", "5.50")
		keep := seedListing(t, st, seller, "Snorlax", "7.00")
		for _, l := range []*models.Listing{a, b, keep} {
			require.NoError(t, st.AddCartItem(ctx, &models.CartItem{
				ID: uuid.New(), UserID: buyer.ID, ListingID: l.ID, AddedAt: time.Now().UTC(),
			}))
		}

		now := time.Now().UTC()
		g := &models.OrderGroup{
			ID: uuid.New(), BuyerID: buyer.ID, TotalAmount: decimal.RequireFromString("15.50"),
			Status: models.OrderPending, CreatedAt: now, UpdatedAt: now,
		}
		for _, l := range []*models.Listing{a, b} {
			g.Items = append(g.Items, &models.OrderItem{
				ID: uuid.New(), ListingID: l.ID, SellerID: l.SellerID, Amount: l.Price, CreatedAt: now,
			})
		}
		require.NoError(t, st.CreateOrderGroup(ctx, g))
		require.NoError(t, st.SetOrderGroupSession(ctx, g.ID, "cs_group"))

		stale, err := st.ListStaleCheckouts(ctx, time.Now().Add(time.Minute), 10)
		require.NoError(t, err)
		var found bool
		for _, pc := range stale {
			if pc.ID == g.ID {
				found = true
				assert.Equal(t, models.CheckoutOrderGroup, pc.Kind)
				assert.Equal(t, "cs_group", pc.SessionID)
			}
		}
		assert.True(t, found)

		done, err := st.CompleteOrderGroup(ctx, g.ID, "pi_g", time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, models.OrderCompleted, done.Status)
		require.Len(t, done.Items, 2)
		for _, it := range done.Items {
			assert.Equal(t, models.ListingSold, it.Listing.Status)
		}

		cart, err := st.ListCartItems(ctx, buyer.ID)
		require.NoError(t, err)
		require.Len(t, cart, 1)
		assert.Equal(t, keep.ID, cart[0].ListingID)

		_, err = st.CancelOrderGroup(ctx, g.ID)
		assert.ErrorIs(t, err, ErrNotPending)
	})

	t.Run("seller request resolves once", func(t *testing.T) {
		applicant := seedUser(t, st, "brock", models.RoleBuyer)
		admin := seedUser(t, st, "oak", models.RoleAdmin)
		now := time.Now().UTC()
		req := &models.SellerRequest{
			ID: uuid.New(), UserID: applicant.ID, Status: models.RequestPending, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, st.CreateSellerRequest(ctx, req))

		pending, err := st.GetPendingSellerRequest(ctx, applicant.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, pending.ID)

		approved, err := st.ApproveSellerRequest(ctx, req.ID, admin.ID, nil, now)
		require.NoError(t, err)
		assert.Equal(t, models.RequestApproved, approved.Status)
		require.NotNil(t, approved.ReviewedByID)
		assert.Equal(t, admin.ID, *approved.ReviewedByID)

		u, err := st.GetUser(ctx, applicant.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleSeller, u.Role)

		_, err = st.RejectSellerRequest(ctx, req.ID, admin.ID, "nope", now)
		assert.ErrorIs(t, err, ErrNotPending)

		_, err = st.GetPendingSellerRequest(ctx, applicant.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		status := models.RequestApproved
		list, err := st.ListSellerRequests(ctx, &status)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, "brock", list[0].User.Username)
	})

	t.Run("sellers directory counts active listings", func(t *testing.T) {
		sellers, err := st.ListSellers(ctx, nil)
		require.NoError(t, err)
		names := map[string]int{}
		for _, s := range sellers {
			names[s.Username] = s.ActiveListings
		}
		assert.Contains(t, names, "misty")
		assert.NotContains(t, names, "ash")

		excluded, err := st.ListSellers(ctx, &seller.ID)
		require.NoError(t, err)
		for _, s := range excluded {
			assert.NotEqual(t, seller.ID, s.ID)
		}
	})

	t.Run("listing filters and deletes", func(t *testing.T) {
		l := seedListing(t, st, seller, "Mew", "999.99")
		active := models.ListingActive
		listings, err := st.ListListingsBySeller(ctx, seller.ID, &active)
		require.NoError(t, err)
		for _, x := range listings {
			assert.Equal(t, models.ListingActive, x.Status)
		}

		require.NoError(t, st.DeleteListing(ctx, l.ID))
		_, err = st.GetListing(ctx, l.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
