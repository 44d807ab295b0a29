// Package storetest provides an in-memory stand-in for store.Store with the
// same error contract, for service and handler tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Memory struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	listings map[uuid.UUID]*models.Listing
	orders   map[uuid.UUID]*models.Order
	groups   map[uuid.UUID]*models.OrderGroup
	cart     map[uuid.UUID]*models.CartItem
	requests map[uuid.UUID]*models.SellerRequest

	// Err, when set, is returned by every call.
	Err error
	// CartDeletes counts DeleteCartItems calls that removed something.
	CartDeletes int
}

func NewMemory() *Memory {
	return &Memory{
		users:    map[uuid.UUID]*models.User{},
		listings: map[uuid.UUID]*models.Listing{},
		orders:   map[uuid.UUID]*models.Order{},
		groups:   map[uuid.UUID]*models.OrderGroup{},
		cart:     map[uuid.UUID]*models.CartItem{},
		requests: map[uuid.UUID]*models.SellerRequest{},
	}
}

func (m *Memory) lock() func() {
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memory) Ping(context.Context) error { return m.Err }

// AddUser seeds a user and returns it.
func (m *Memory) AddUser(username string, role models.Role) *models.User {
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.New(),
		Subject:   "auth0|" + username,
		Username:  username,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_ = m.CreateUser(context.Background(), u)
	return u
}

// AddListing seeds an ACTIVE listing and returns it.
func (m *Memory) AddListing(seller *models.User, cardName string, price string) *models.Listing {
	l := NewListing(seller, cardName, price)
	_ = m.CreateListing(context.Background(), l)
	return m.mustListing(l.ID)
}

func (m *Memory) mustListing(id uuid.UUID) *models.Listing {
	l, _ := m.GetListing(context.Background(), id)
	return l
}

// SetListingStatus changes a listing's status directly.
func (m *Memory) SetListingStatus(id uuid.UUID, st models.ListingStatus) {
	defer m.lock()()
	if l, ok := m.listings[id]; ok {
		l.Status = st
	}
}

// --- users

func (m *Memory) cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.cloneUser(u), nil
}

func (m *Memory) GetUserBySubject(_ context.Context, subject string) (*models.User, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Subject == subject {
			return m.cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Username == username {
			return m.cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	for _, x := range m.users {
		if x.ID == u.ID || x.Subject == u.Subject || x.Username == u.Username {
			return store.ErrConflict
		}
	}
	m.users[u.ID] = m.cloneUser(u)
	return nil
}

func (m *Memory) UpdateUserProfile(_ context.Context, u *models.User) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	cur, ok := m.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	for _, x := range m.users {
		if x.ID != u.ID && x.Username == u.Username {
			return store.ErrConflict
		}
	}
	cur.Username = u.Username
	cur.FavoritePokemon = u.FavoritePokemon
	cur.UpdatedAt = u.UpdatedAt
	return nil
}

func (m *Memory) SetUserActive(_ context.Context, id uuid.UUID, active bool) (*models.User, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return m.cloneUser(u), nil
}

func (m *Memory) SetUserRole(_ context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return m.cloneUser(u), nil
}

func (m *Memory) ListUsers(_ context.Context, f models.UserFilter) ([]*models.User, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.User
	for _, u := range m.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		out = append(out, m.cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListSellers(_ context.Context, exclude *uuid.UUID) ([]*models.SellerSummary, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.SellerSummary
	for _, u := range m.users {
		if !u.IsActive || !u.Role.Allows(models.RoleSeller) {
			continue
		}
		if exclude != nil && *exclude == u.ID {
			continue
		}
		sm := &models.SellerSummary{ID: u.ID, Username: u.Username, FavoritePokemon: u.FavoritePokemon, CreatedAt: u.CreatedAt}
		for _, l := range m.listings {
			if l.SellerID == u.ID && l.Status == models.ListingActive {
				sm.ActiveListings++
			}
		}
		out = append(out, sm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// --- listings

// NewListing builds an unsaved ACTIVE listing.
func NewListing(seller *models.User, cardName, price string) *models.Listing {
	now := time.Now().UTC()
	return &models.Listing{
		ID:        uuid.New(),
		SellerID:  seller.ID,
		CardName:  cardName,
		SetName:   "Base Set",
		Price:     mustDecimal(price),
		Status:    models.ListingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *Memory) cloneListing(l *models.Listing) *models.Listing {
	c := *l
	c.Seller = &models.UserRef{ID: l.SellerID}
	if u, ok := m.users[l.SellerID]; ok {
		c.Seller.Username = u.Username
	}
	return &c
}

func (m *Memory) CreateListing(_ context.Context, l *models.Listing) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.users[l.SellerID]; !ok {
		return store.ErrConflict
	}
	c := *l
	c.Seller = nil
	m.listings[l.ID] = &c
	return nil
}

func (m *Memory) GetListing(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	l, ok := m.listings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.cloneListing(l), nil
}

func (m *Memory) ListListingsBySeller(_ context.Context, sellerID uuid.UUID, status *models.ListingStatus) ([]*models.Listing, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.Listing
	for _, l := range m.listings {
		if l.SellerID != sellerID || (status != nil && l.Status != *status) {
			continue
		}
		out = append(out, m.cloneListing(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListListingsByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Listing, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.Listing
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if l, ok := m.listings[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, m.cloneListing(l))
		}
	}
	return out, nil
}

func (m *Memory) UpdateListing(_ context.Context, l *models.Listing) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	cur, ok := m.listings[l.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.CardName, cur.SetName, cur.Price = l.CardName, l.SetName, l.Price
	cur.ImageURL, cur.Status, cur.UpdatedAt = l.ImageURL, l.Status, l.UpdatedAt
	return nil
}

func (m *Memory) DeleteListing(_ context.Context, id uuid.UUID) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.listings[id]; !ok {
		return store.ErrNotFound
	}
	for _, o := range m.orders {
		if o.ListingID == id {
			return store.ErrConflict
		}
	}
	for _, g := range m.groups {
		for _, it := range g.Items {
			if it.ListingID == id {
				return store.ErrConflict
			}
		}
	}
	for cid, c := range m.cart {
		if c.ListingID == id {
			delete(m.cart, cid)
		}
	}
	delete(m.listings, id)
	return nil
}

// --- cart

func (m *Memory) ListCartItems(_ context.Context, userID uuid.UUID) ([]*models.CartItem, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.CartItem
	for _, c := range m.cart {
		if c.UserID != userID {
			continue
		}
		item := *c
		item.Listing = m.cloneListing(m.listings[c.ListingID])
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (m *Memory) DeleteCartItems(_ context.Context, ids []uuid.UUID) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	if len(ids) == 0 {
		return nil
	}
	m.CartDeletes++
	for _, id := range ids {
		delete(m.cart, id)
	}
	return nil
}

func (m *Memory) GetCartItem(_ context.Context, userID, listingID uuid.UUID) (*models.CartItem, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.cart {
		if c.UserID == userID && c.ListingID == listingID {
			item := *c
			return &item, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) AddCartItem(_ context.Context, item *models.CartItem) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.listings[item.ListingID]; !ok {
		return store.ErrConflict
	}
	for _, c := range m.cart {
		if c.UserID == item.UserID && c.ListingID == item.ListingID {
			return store.ErrConflict
		}
	}
	c := *item
	c.Listing = nil
	m.cart[item.ID] = &c
	return nil
}

func (m *Memory) RemoveCartItem(_ context.Context, userID, listingID uuid.UUID) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	for id, c := range m.cart {
		if c.UserID == userID && c.ListingID == listingID {
			delete(m.cart, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *Memory) ClearCart(_ context.Context, userID uuid.UUID) (int64, error) {
	defer m.lock()()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for id, c := range m.cart {
		if c.UserID == userID {
			delete(m.cart, id)
			n++
		}
	}
	return n, nil
}

// CartSize counts a user's cart rows without pruning.
func (m *Memory) CartSize(userID uuid.UUID) int {
	defer m.lock()()
	n := 0
	for _, c := range m.cart {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

// --- orders

func (m *Memory) cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Listing = m.cloneListing(m.listings[o.ListingID])
	c.Buyer = &models.UserRef{ID: o.BuyerID}
	if u, ok := m.users[o.BuyerID]; ok {
		c.Buyer.Username = u.Username
	}
	c.Seller = &models.UserRef{ID: o.SellerID, Username: c.Listing.Seller.Username}
	return &c
}

func (m *Memory) CreateOrder(_ context.Context, o *models.Order) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.listings[o.ListingID]; !ok {
		return store.ErrConflict
	}
	c := *o
	c.Listing, c.Buyer, c.Seller = nil, nil, nil
	m.orders[o.ID] = &c
	return nil
}

func (m *Memory) SetOrderSession(_ context.Context, id uuid.UUID, sessionID string) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.CheckoutSessionID = &sessionID
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.cloneOrder(o), nil
}

func (m *Memory) GetOrderBySession(_ context.Context, sessionID string) (*models.Order, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, o := range m.orders {
		if o.CheckoutSessionID != nil && *o.CheckoutSessionID == sessionID {
			return m.cloneOrder(o), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListOrdersByBuyer(_ context.Context, buyerID uuid.UUID) ([]*models.Order, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, m.cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListSalesBySeller(_ context.Context, sellerID uuid.UUID) ([]*models.Order, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.Order
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.Status == models.OrderCompleted {
			out = append(out, m.cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(*out[j].PaidAt) })
	return out, nil
}

// OrderCount reports how many orders exist.
func (m *Memory) OrderCount() int {
	defer m.lock()()
	return len(m.orders) + len(m.groups)
}

// --- order groups

func (m *Memory) cloneGroup(g *models.OrderGroup) *models.OrderGroup {
	c := *g
	c.Items = make([]*models.OrderItem, 0, len(g.Items))
	for _, it := range g.Items {
		ic := *it
		ic.Listing = m.cloneListing(m.listings[it.ListingID])
		ic.Seller = ic.Listing.Seller
		c.Items = append(c.Items, &ic)
	}
	return &c
}

func (m *Memory) CreateOrderGroup(_ context.Context, g *models.OrderGroup) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	c := *g
	c.Items = nil
	for _, it := range g.Items {
		if _, ok := m.listings[it.ListingID]; !ok {
			return store.ErrConflict
		}
		ic := *it
		ic.OrderGroupID = g.ID
		ic.Listing, ic.Seller = nil, nil
		c.Items = append(c.Items, &ic)
	}
	m.groups[g.ID] = &c
	return nil
}

func (m *Memory) SetOrderGroupSession(_ context.Context, id uuid.UUID, sessionID string) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	g, ok := m.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	g.CheckoutSessionID = &sessionID
	return nil
}

func (m *Memory) GetOrderGroup(_ context.Context, id uuid.UUID) (*models.OrderGroup, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.cloneGroup(g), nil
}

func (m *Memory) GetOrderGroupBySession(_ context.Context, sessionID string) (*models.OrderGroup, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, g := range m.groups {
		if g.CheckoutSessionID != nil && *g.CheckoutSessionID == sessionID {
			return m.cloneGroup(g), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListOrderGroupsByBuyer(_ context.Context, buyerID uuid.UUID) ([]*models.OrderGroup, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.OrderGroup
	for _, g := range m.groups {
		if g.BuyerID == buyerID {
			out = append(out, m.cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- reconciliation

func (m *Memory) CompleteOrder(_ context.Context, id uuid.UUID, paymentIntent string, paidAt time.Time) (*models.Order, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if o.Status != models.OrderPending {
		return nil, store.ErrNotPending
	}
	o.Status = models.OrderCompleted
	if paymentIntent != "" {
		o.PaymentIntentID = &paymentIntent
	}
	o.PaidAt = &paidAt
	o.UpdatedAt = paidAt
	if l, ok := m.listings[o.ListingID]; ok {
		l.Status = models.ListingSold
		l.UpdatedAt = paidAt
	}
	return m.cloneOrder(o), nil
}

func (m *Memory) CompleteOrderGroup(_ context.Context, id uuid.UUID, paymentIntent string, paidAt time.Time) (*models.OrderGroup, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if g.Status != models.OrderPending {
		return nil, store.ErrNotPending
	}
	g.Status = models.OrderCompleted
	if paymentIntent != "" {
		g.PaymentIntentID = &paymentIntent
	}
	g.PaidAt = &paidAt
	g.UpdatedAt = paidAt
	purchased := map[uuid.UUID]bool{}
	for _, it := range g.Items {
		purchased[it.ListingID] = true
		if l, ok := m.listings[it.ListingID]; ok {
			l.Status = models.ListingSold
			l.UpdatedAt = paidAt
		}
	}
	for cid, c := range m.cart {
		if c.UserID == g.BuyerID && purchased[c.ListingID] {
			delete(m.cart, cid)
		}
	}
	return m.cloneGroup(g), nil
}

func (m *Memory) CancelOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if o.Status != models.OrderPending {
		return nil, store.ErrNotPending
	}
	o.Status = models.OrderCancelled
	o.UpdatedAt = time.Now().UTC()
	return m.cloneOrder(o), nil
}

func (m *Memory) CancelOrderGroup(_ context.Context, id uuid.UUID) (*models.OrderGroup, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if g.Status != models.OrderPending {
		return nil, store.ErrNotPending
	}
	g.Status = models.OrderCancelled
	g.UpdatedAt = time.Now().UTC()
	return m.cloneGroup(g), nil
}

func (m *Memory) ListStaleCheckouts(_ context.Context, before time.Time, limit int) ([]models.PendingCheckout, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.PendingCheckout
	for _, o := range m.orders {
		if o.Status == models.OrderPending && o.CheckoutSessionID != nil && o.CreatedAt.Before(before) {
			out = append(out, models.PendingCheckout{Kind: models.CheckoutOrder, ID: o.ID, BuyerID: o.BuyerID, SessionID: *o.CheckoutSessionID, CreatedAt: o.CreatedAt})
		}
	}
	for _, g := range m.groups {
		if g.Status == models.OrderPending && g.CheckoutSessionID != nil && g.CreatedAt.Before(before) {
			out = append(out, models.PendingCheckout{Kind: models.CheckoutOrderGroup, ID: g.ID, BuyerID: g.BuyerID, SessionID: *g.CheckoutSessionID, CreatedAt: g.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- seller requests

func (m *Memory) cloneRequest(r *models.SellerRequest, withUser bool) *models.SellerRequest {
	c := *r
	c.User = nil
	if withUser {
		if u, ok := m.users[r.UserID]; ok {
			c.User = m.cloneUser(u)
		}
	}
	return &c
}

func (m *Memory) CreateSellerRequest(_ context.Context, r *models.SellerRequest) error {
	defer m.lock()()
	if m.Err != nil {
		return m.Err
	}
	c := *r
	m.requests[r.ID] = &c
	return nil
}

func (m *Memory) GetPendingSellerRequest(_ context.Context, userID uuid.UUID) (*models.SellerRequest, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.requests {
		if r.UserID == userID && r.Status == models.RequestPending {
			return m.cloneRequest(r, false), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListSellerRequestsByUser(_ context.Context, userID uuid.UUID) ([]*models.SellerRequest, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.SellerRequest
	for _, r := range m.requests {
		if r.UserID == userID {
			out = append(out, m.cloneRequest(r, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListSellerRequests(_ context.Context, status *models.SellerRequestStatus) ([]*models.SellerRequest, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*models.SellerRequest
	for _, r := range m.requests {
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, m.cloneRequest(r, true))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ApproveSellerRequest(_ context.Context, id, reviewerID uuid.UUID, note *string, at time.Time) (*models.SellerRequest, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if r.Status != models.RequestPending {
		return nil, store.ErrNotPending
	}
	r.Status = models.RequestApproved
	r.ReviewedByID = &reviewerID
	r.ReviewedAt = &at
	r.ReviewNote = note
	r.UpdatedAt = at
	if u, ok := m.users[r.UserID]; ok && u.Role != models.RoleAdmin {
		u.Role = models.RoleSeller
		u.UpdatedAt = at
	}
	return m.cloneRequest(r, false), nil
}

func (m *Memory) RejectSellerRequest(_ context.Context, id, reviewerID uuid.UUID, note string, at time.Time) (*models.SellerRequest, error) {
	defer m.lock()()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if r.Status != models.RequestPending {
		return nil, store.ErrNotPending
	}
	r.Status = models.RequestRejected
	r.ReviewedByID = &reviewerID
	r.ReviewedAt = &at
	r.ReviewNote = &note
	r.UpdatedAt = at
	return m.cloneRequest(r, false), nil
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
