package handler_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

// =====================
// in-memory DB（HTTPからDBまで通すため）
// =====================

type memDB struct {
	mu         sync.Mutex
	orders     map[string]model.Order
	orderItems map[string][]model.OrderItem
	cart       []model.CartItem
	audit      []model.AuditLog
}

func newMemDB() *memDB {
	return &memDB{
		orders:     map[string]model.Order{},
		orderItems: map[string][]model.OrderItem{},
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(memRepos{db})
}

func (db *memDB) cartItems() repo.CartItemRepository { return memCart{db} }

type memRepos struct{ db *memDB }

func (r memRepos) Orders() repo.OrderRepository         { return memOrders{r.db} }
func (r memRepos) OrderItems() repo.OrderItemRepository { return memOrderItems{r.db} }
func (r memRepos) CartItems() repo.CartItemRepository   { return memCart{r.db} }
func (r memRepos) AuditLogs() repo.AuditLogRepository   { return memAudit{r.db} }

type memOrders struct{ db *memDB }

func (m memOrders) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) sorted(keep func(model.Order) bool) []model.Order {
	var out []model.Order
	for _, o := range m.db.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(orders []model.Order, p, limit int) []model.Order {
	start := (p - 1) * limit
	if start >= len(orders) {
		return []model.Order{}
	}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end]
}

func (m memOrders) ListByUserID(ctx context.Context, userID string, p int, limit int) ([]model.Order, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	all := m.sorted(func(o model.Order) bool { return o.UserID == userID })
	return page(all, p, limit), int64(len(all)), nil
}

func (m memOrders) Create(ctx context.Context, order model.Order) (model.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.orders {
		if o.PaymentID == order.PaymentID {
			return model.Order{}, errors.New("duplicate key value violates unique constraint")
		}
	}
	m.db.orders[order.ID] = order
	return order, nil
}

func (m memOrders) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	m.db.orders[orderID] = o
	return nil
}

func (m memOrders) FindByPaymentID(ctx context.Context, paymentID string) (model.Order, bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.orders {
		if o.PaymentID == paymentID {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (m memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	all := m.sorted(func(o model.Order) bool {
		if f.Status != "" && string(o.Status) != f.Status {
			return false
		}
		return f.UserID == nil || o.UserID == *f.UserID
	})
	return page(all, f.Page, f.Limit), int64(len(all)), nil
}

type memOrderItems struct{ db *memDB }

func (m memOrderItems) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i := range items {
		items[i].OrderID = orderID
	}
	m.db.orderItems[orderID] = append(m.db.orderItems[orderID], items...)
	return nil
}

func (m memOrderItems) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return append([]model.OrderItem{}, m.db.orderItems[orderID]...), nil
}

type memCart struct{ db *memDB }

func (m memCart) ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.CartItem{}
	for _, it := range m.db.cart {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m memCart) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	m.db.cart = append(m.db.cart, item)
	return item, nil
}

func (m memCart) UpdateQuantity(ctx context.Context, userID string, cartItemID string, qty int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i, it := range m.db.cart {
		if it.ID == cartItemID && it.UserID == userID {
			m.db.cart[i].Quantity = qty
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m memCart) DeleteByID(ctx context.Context, userID string, cartItemID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i, it := range m.db.cart {
		if it.ID == cartItemID && it.UserID == userID {
			m.db.cart = append(m.db.cart[:i], m.db.cart[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m memCart) DeleteAllByUserID(ctx context.Context, userID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	kept := m.db.cart[:0]
	for _, it := range m.db.cart {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	m.db.cart = kept
	return nil
}

type memAudit struct{ db *memDB }

func (m memAudit) Create(ctx context.Context, log model.AuditLog) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	log.ID = int64(len(m.db.audit) + 1)
	m.db.audit = append(m.db.audit, log)
	return nil
}

// 新しい順
func (m memAudit) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.AuditLog
	for i := len(m.db.audit) - 1; i >= 0; i-- {
		l := m.db.audit[i]
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
