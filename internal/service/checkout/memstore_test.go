package checkout

import (
	"context"
	"fmt"
	"sync"

	"bookstore/internal/domain"
	"bookstore/internal/outbox"
)

// memState is an in-memory database whose InTx applies writes only on success.
type memState struct {
	orders map[string]domain.Order
	items  map[string][]domain.OrderItem
	carts  map[string]domain.Cart
	events []outbox.Message
	nextID int
}

func (s *memState) clone() *memState {
	c := &memState{
		orders: make(map[string]domain.Order, len(s.orders)),
		items:  make(map[string][]domain.OrderItem, len(s.items)),
		carts:  make(map[string]domain.Cart, len(s.carts)),
		events: append([]outbox.Message(nil), s.events...),
		nextID: s.nextID,
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]domain.OrderItem(nil), v...)
	}
	for k, v := range s.carts {
		v.Items = append([]domain.CartItem(nil), v.Items...)
		c.carts[k] = v
	}
	return c
}

type memTransactor struct {
	mu          sync.Mutex
	state       *memState
	clearErr    error
	enqueueErr  error
	commitCalls int
}

func newMemTransactor() *memTransactor {
	return &memTransactor{state: &memState{
		orders: map[string]domain.Order{},
		items:  map[string][]domain.OrderItem{},
		carts:  map[string]domain.Cart{},
	}}
}

func (m *memTransactor) InTx(ctx context.Context, fn func(st Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	st := Store{
		Orders: &memOrders{s: work},
		Carts:  &memCarts{s: work, clearErr: m.clearErr},
		Events: &memEvents{s: work, err: m.enqueueErr},
	}
	if err := fn(st); err != nil {
		return err
	}
	m.state = work
	m.commitCalls++
	return nil
}

func (m *memTransactor) addCart(id, userID string, items ...domain.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.carts[id] = domain.Cart{ID: id, UserID: userID, Items: items}
}

func (m *memTransactor) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memOrders struct{ s *memState }

func (o *memOrders) GetBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	for _, ord := range o.s.orders {
		if ord.CheckoutSessionID == sessionID {
			ord.Items = o.s.items[ord.ID]
			return &ord, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (o *memOrders) Insert(_ context.Context, ord domain.Order) (*domain.Order, error) {
	for _, existing := range o.s.orders {
		if existing.CheckoutSessionID == ord.CheckoutSessionID || existing.ReferenceCode == ord.ReferenceCode {
			return nil, domain.ErrAlreadyExists
		}
	}
	o.s.nextID++
	ord.ID = fmt.Sprintf("order-%d", o.s.nextID)
	o.s.orders[ord.ID] = ord
	return &ord, nil
}

func (o *memOrders) InsertItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	for _, it := range items {
		it.OrderID = orderID
		o.s.items[orderID] = append(o.s.items[orderID], it)
	}
	return nil
}

type memCarts struct {
	s        *memState
	clearErr error
}

func (c *memCarts) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	cart, ok := c.s.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cart, nil
}

func (c *memCarts) ClearItems(_ context.Context, cartID string) (int64, error) {
	if c.clearErr != nil {
		return 0, c.clearErr
	}
	cart := c.s.carts[cartID]
	n := int64(len(cart.Items))
	cart.Items = nil
	c.s.carts[cartID] = cart
	return n, nil
}

type memEvents struct {
	s   *memState
	err error
}

func (e *memEvents) Enqueue(_ context.Context, m outbox.Message) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.s.events = append(e.s.events, m)
	return fmt.Sprintf("evt-%d", len(e.s.events)), nil
}

// seqCodes hands out the given codes in order, then BK-ZZZZZZ00, BK-ZZZZZZ01, ...
type seqCodes struct {
	mu    sync.Mutex
	codes []string
	n     int
}

func (c *seqCodes) New() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.n++ }()
	if c.n < len(c.codes) {
		return c.codes[c.n], nil
	}
	return fmt.Sprintf("BK-ZZZZZZ%02d", c.n), nil
}
