package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/repository"
)

// memStore is an in-memory stand-in for PostgresStore. WithCheckoutTx restores
// the previous state when fn fails, mirroring a rolled back transaction.
type memStore struct {
	mu sync.Mutex

	addresses map[int64]*models.Address
	products  map[models.ProductRef]models.Product
	cart      map[int64]*models.CartLine
	orders    map[string]*models.Order
	items     []models.OrderItem
	payments  map[string]*models.Payment
	completed []repository.PaymentAmount

	nextID   int64
	orderSeq int

	failInsertPayment error
}

var (
	_ repository.CheckoutStore     = (*memStore)(nil)
	_ repository.CartRepository    = (*memStore)(nil)
	_ repository.AddressRepository = (*memStore)(nil)
	_ repository.OrderRepository   = (*memStore)(nil)
	_ repository.RevenueRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		addresses: make(map[int64]*models.Address),
		products:  make(map[models.ProductRef]models.Product),
		cart:      make(map[int64]*models.CartLine),
		orders:    make(map[string]*models.Order),
		payments:  make(map[string]*models.Payment),
		nextID:    100,
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addAddress(id, userID int64) {
	s.addresses[id] = &models.Address{ID: id, UserID: userID, Name: "Home", Pincode: 560001}
}

func (s *memStore) addProduct(p models.Product) {
	s.products[p.Ref()] = p
}

func (s *memStore) addCartLine(id, userID int64, p models.Product, qty int) {
	s.cart[id] = &models.CartLine{ID: id, UserID: userID, Product: p, Quantity: qty}
}

func (s *memStore) cartIDs(userID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0)
	for id, line := range s.cart {
		if line.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memStore) counts() (orders, items, payments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders), len(s.items), len(s.payments)
}

type memSnapshot struct {
	cart     map[int64]*models.CartLine
	orders   map[string]*models.Order
	items    []models.OrderItem
	payments map[string]*models.Payment
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		cart:     make(map[int64]*models.CartLine, len(s.cart)),
		orders:   make(map[string]*models.Order, len(s.orders)),
		items:    append([]models.OrderItem(nil), s.items...),
		payments: make(map[string]*models.Payment, len(s.payments)),
	}
	for k, v := range s.cart {
		snap.cart[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.cart = snap.cart
	s.orders = snap.orders
	s.items = snap.items
	s.payments = snap.payments
}

func (s *memStore) WithCheckoutTx(ctx context.Context, fn func(tx repository.CheckoutTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memTx struct {
	s *memStore
}

func (t *memTx) GetAddressForUser(ctx context.Context, userID, addressID int64) (*models.Address, error) {
	addr, ok := t.s.addresses[addressID]
	if !ok || addr.UserID != userID {
		return nil, apperrors.NotFoundf("address %d", addressID)
	}
	return addr, nil
}

func (t *memTx) LockCartLines(ctx context.Context, userID int64, ids []int64) ([]*models.CartLine, error) {
	lines := make([]*models.CartLine, 0)
	for _, id := range ids {
		if line, ok := t.s.cart[id]; ok && line.UserID == userID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *models.Order) error {
	t.s.orderSeq++
	order.ID = fmt.Sprintf("%08x", t.s.orderSeq)
	order.CreatedAt = time.Now()
	stored := *order
	t.s.orders[order.ID] = &stored
	return nil
}

func (t *memTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	if _, ok := t.s.orders[item.OrderID]; !ok {
		return fmt.Errorf("order %s missing", item.OrderID)
	}
	item.ID = t.s.id()
	t.s.items = append(t.s.items, *item)
	return nil
}

func (t *memTx) UpdateOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return apperrors.NotFoundf("order %s", orderID)
	}
	updated := *o
	updated.TotalPrice = total
	t.s.orders[orderID] = &updated
	return nil
}

func (t *memTx) InsertPayment(ctx context.Context, payment *models.Payment) error {
	if t.s.failInsertPayment != nil {
		return t.s.failInsertPayment
	}
	payment.ID = t.s.id()
	stored := *payment
	t.s.payments[payment.OrderID] = &stored
	return nil
}

func (t *memTx) DeleteCartLines(ctx context.Context, userID int64, ids []int64) error {
	for _, id := range ids {
		if line, ok := t.s.cart[id]; ok && line.UserID == userID {
			delete(t.s.cart, id)
		}
	}
	return nil
}

func (s *memStore) GetProduct(ctx context.Context, ref models.ProductRef) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[ref]
	if !ok {
		return nil, apperrors.NotFoundf("%s %d", ref.Kind, ref.ID)
	}
	return p, nil
}

func (s *memStore) GetCartLine(ctx context.Context, userID int64, ref models.ProductRef) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.cart {
		if line.UserID == userID && line.Product.Ref() == ref {
			return line, nil
		}
	}
	return nil, apperrors.NotFoundf("cart item %s %d", ref.Kind, ref.ID)
}

func (s *memStore) ListCartLines(ctx context.Context, userID int64) ([]*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]*models.CartLine, 0)
	for _, line := range s.cart {
		if line.UserID == userID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (s *memStore) AddToCart(ctx context.Context, userID int64, ref models.ProductRef, quantity int) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.cart {
		if line.UserID == userID && line.Product.Ref() == ref {
			if line.Quantity+quantity > models.MaxCartQuantity {
				return 0, false, apperrors.NewValidationError("quantity", "quantity limit exceeded")
			}
			line.Quantity += quantity
			return line.ID, false, nil
		}
	}

	id := s.id()
	s.cart[id] = &models.CartLine{ID: id, UserID: userID, Product: s.products[ref], Quantity: quantity}
	return id, true, nil
}

func (s *memStore) SetCartLineQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cart[lineID]
	if !ok || line.UserID != userID {
		return apperrors.NotFoundf("cart line %d", lineID)
	}
	line.Quantity = quantity
	return nil
}

func (s *memStore) DeleteCartLine(ctx context.Context, userID, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cart[lineID]
	if !ok || line.UserID != userID {
		return apperrors.NotFoundf("cart line %d", lineID)
	}
	delete(s.cart, lineID)
	return nil
}

func (s *memStore) CreateAddress(ctx context.Context, addr *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr.IsDefault {
		for _, a := range s.addresses {
			if a.UserID == addr.UserID {
				a.IsDefault = false
			}
		}
	}
	addr.ID = s.id()
	addr.CreatedAt = time.Now()
	stored := *addr
	s.addresses[addr.ID] = &stored
	return nil
}

func (s *memStore) ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Address, 0)
	for _, a := range s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetAddress(ctx context.Context, userID, addressID int64) (*models.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, apperrors.NotFoundf("address %d", addressID)
	}
	return a, nil
}

func (s *memStore) loadOrder(id string) *models.Order {
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	order := *o
	order.Items = []models.OrderItem{}
	for _, item := range s.items {
		if item.OrderID == id {
			order.Items = append(order.Items, item)
		}
	}
	if p, ok := s.payments[id]; ok {
		payment := *p
		order.Payment = &payment
	}
	return &order
}

func (s *memStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.loadOrder(orderID)
	if order == nil {
		return nil, apperrors.NotFoundf("order %s", orderID)
	}
	return order, nil
}

func (s *memStore) ListOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Order, 0)
	for id, o := range s.orders {
		if o.UserID == userID {
			out = append(out, s.loadOrder(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return apperrors.NotFoundf("order %s", orderID)
	}
	if o.Status != from {
		return fmt.Errorf("order %s is no longer %s: %w", orderID, from, apperrors.ErrConflict)
	}
	o.Status = to
	return nil
}

func (s *memStore) SettlePayment(ctx context.Context, orderID string, status models.PaymentStatus) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[orderID]
	if !ok {
		return nil, apperrors.NotFoundf("payment for order %s", orderID)
	}
	if p.Status != models.PaymentStatusPending {
		return p, fmt.Errorf("payment already %s: %w", p.Status, apperrors.ErrConflict)
	}
	p.Status = status
	return p, nil
}

func (s *memStore) SumCompletedPayments(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, p := range s.completed {
		if !p.CompletedAt.Before(from) && p.CompletedAt.Before(to) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *memStore) ListCompletedPayments(ctx context.Context, from, to time.Time) ([]repository.PaymentAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]repository.PaymentAmount, 0)
	for _, p := range s.completed {
		if !p.CompletedAt.Before(from) && p.CompletedAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

// memCache is an in-memory OrderCache.
type memCache struct {
	mu          sync.Mutex
	orders      map[string]*models.Order
	userOrders  map[int64][]*models.Order
	invalidated []int64
}

func newMemCache() *memCache {
	return &memCache{
		orders:     make(map[string]*models.Order),
		userOrders: make(map[int64][]*models.Order),
	}
}

func (c *memCache) Get(ctx context.Context, id string) (*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders[id], nil
}

func (c *memCache) Set(ctx context.Context, order *models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[order.ID] = order
	return nil
}

func (c *memCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
	return nil
}

func (c *memCache) GetByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userOrders[userID], nil
}

func (c *memCache) SetByUserID(ctx context.Context, userID int64, orders []*models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userOrders[userID] = orders
	return nil
}

func (c *memCache) InvalidateByUserID(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.userOrders, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

// memIdempotency is an in-memory IdempotencyStore.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]bool)}
}

func (m *memIdempotency) Acquire(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Features: config.FeatureFlags{
			EnableOrderCaching:   true,
			EnableOrderEvents:    true,
			EnablePaymentEvents:  true,
			EnableIdempotencyKey: true,
		},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
