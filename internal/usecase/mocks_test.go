package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	"github.com/Svamsi2006/balaveerulu/internal/infra/session"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

const (
	userA = "6f1c2a52-7a55-4a1f-9d0c-6a9b8f3f2b10"
	userB = "0b7e4d21-3c9a-4f55-8e1d-2a6c9b0f7e33"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByPaymentID(ctx context.Context, paymentID string) (model.Order, bool, error) {
	args := m.Called(ctx, paymentID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListActive(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Seed(ctx context.Context, products []model.Product) error {
	panic("not used in usecase tests")
}

// =====================
// Port mocks
// =====================

type PaymentGatewayMock struct{ mock.Mock }

func (m *PaymentGatewayMock) Prepare(ctx context.Context, req model.PaymentRequest) (model.PaymentOptions, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(model.PaymentRequest) model.PaymentOptions); ok {
		return fn(req), args.Error(1)
	}
	o, _ := args.Get(0).(model.PaymentOptions)
	return o, args.Error(1)
}

type PhotoUploaderMock struct{ mock.Mock }

func (m *PhotoUploaderMock) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, len(data), filename)
	return args.String(0), args.Error(1)
}

// 送ったメールを記録する
type captureNotifier struct {
	mu   sync.Mutex
	sent []model.EmailMessage
	err  error
}

func (n *captureNotifier) Send(_ context.Context, msg model.EmailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *captureNotifier) messages() []model.EmailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.EmailMessage(nil), n.sent...)
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

// 連番のuuid風ID
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("a%07x-0000-4000-8000-%012x", g.n, g.n)
}

// ロックだけ壊れたストア
type lockFailStore struct {
	*session.MemoryStore
}

func (s lockFailStore) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

// 1つのキーだけ読めないストア
type getFailStore struct {
	*session.MemoryStore
	key string
}

func (s *getFailStore) Get(ctx context.Context, key string, dst any) error {
	if key == s.key {
		return errors.New("redis: i/o timeout")
	}
	return s.MemoryStore.Get(ctx, key, dst)
}

// 削除だけ失敗するストア
type deleteFailStore struct {
	*session.MemoryStore
}

func (deleteFailStore) Delete(ctx context.Context, keys ...string) error {
	return errors.New("redis: connection reset")
}

// 読み書きが全部失敗するストア
type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string, dst any) error {
	return errors.New("redis down")
}
func (brokenStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return errors.New("redis down")
}
func (brokenStore) Delete(ctx context.Context, keys ...string) error { return errors.New("redis down") }
func (brokenStore) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (brokenStore) Unlock(ctx context.Context, key, token string) error {
	return errors.New("redis down")
}

// =====================
// in-memory DB（一連の流れを通すテスト用）
// =====================

type memDB struct {
	mu         sync.Mutex
	orders     map[string]model.Order
	orderItems map[string][]model.OrderItem
	cart       []model.CartItem
	audit      []model.AuditLog
	ids        *seqIDs

	// 設定すると注文の保存が失敗する
	failOrderCreate error
	// 設定するとカート明細の保存が失敗する
	failCartWrite error
}

func newMemDB() *memDB {
	return &memDB{
		orders:     map[string]model.Order{},
		orderItems: map[string][]model.OrderItem{},
		ids:        &seqIDs{},
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 失敗したら元に戻す
	db.mu.Lock()
	orders := make(map[string]model.Order, len(db.orders))
	for k, v := range db.orders {
		orders[k] = v
	}
	items := make(map[string][]model.OrderItem, len(db.orderItems))
	for k, v := range db.orderItems {
		items[k] = v
	}
	cart := append([]model.CartItem(nil), db.cart...)
	db.mu.Unlock()

	if err := fn(memRepos{db}); err != nil {
		db.mu.Lock()
		db.orders, db.orderItems, db.cart = orders, items, cart
		db.mu.Unlock()
		return err
	}
	return nil
}

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

func (m memOrders) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Order
	for _, o := range m.db.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m memOrders) Create(ctx context.Context, order model.Order) (model.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failOrderCreate != nil {
		return model.Order{}, m.db.failOrderCreate
	}
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
	panic("not used with memDB")
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
	if m.db.failCartWrite != nil {
		return model.CartItem{}, m.db.failCartWrite
	}
	if item.ID == "" {
		item.ID = m.db.ids.NewID()
	}
	m.db.cart = append(m.db.cart, item)
	return item, nil
}

func (m memCart) UpdateQuantity(ctx context.Context, userID string, cartItemID string, qty int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failCartWrite != nil {
		return m.db.failCartWrite
	}
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
	m.db.audit = append(m.db.audit, log)
	return nil
}

func (m memAudit) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used with memDB")
}

// =====================
// fixture
// =====================

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db       *memDB
	store    repo.SessionStore
	products *ProductRepoMock
	payments *PaymentGatewayMock
	photos   *PhotoUploaderMock
	mail     *captureNotifier
	clock    *fixedClock
	logs     *observer.ObservedLogs

	catalog *usecase.CatalogUsecase
	placer  *usecase.OrderPlacer
	cart    *usecase.CartUsecase
	wizard  *usecase.WizardUsecase
	orders  *usecase.OrderUsecase
}

func catalogProducts() []model.Product {
	return model.DefaultProducts()
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, session.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store repo.SessionStore) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	f := &fixture{
		db:       newMemDB(),
		store:    store,
		products: new(ProductRepoMock),
		payments: new(PaymentGatewayMock),
		photos:   new(PhotoUploaderMock),
		mail:     &captureNotifier{},
		clock:    &fixedClock{now: testNow},
		logs:     logs,
	}

	f.products.On("ListActive", mock.Anything).Return(catalogProducts(), nil).Maybe()
	for _, p := range catalogProducts() {
		f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil).Maybe()
	}
	f.products.On("FindByID", mock.Anything, mock.Anything).Return(model.Product{}, repo.ErrNotFound).Maybe()

	policy := pricing.DefaultPolicy()
	f.catalog = usecase.NewCatalogUsecase(f.products, store, pricing.DefaultPriceList(), log)
	f.placer = usecase.NewOrderPlacer(f.db, store, f.mail, f.clock, f.db.ids, "orders@balaveerulu.in", log)
	f.cart = usecase.NewCartUsecase(memCart{f.db}, store, f.catalog, policy, f.payments, f.placer, log)
	f.wizard = usecase.NewWizardUsecase(store, f.catalog, policy, f.payments, f.photos, f.placer, log)
	f.orders = usecase.NewOrderUsecase(f.db, f.clock)
	return f
}

// ウィジェットの設定をそのまま返す
func (f *fixture) paymentsOK() {
	f.payments.On("Prepare", mock.Anything, mock.Anything).Return(
		func(req model.PaymentRequest) model.PaymentOptions {
			return model.PaymentOptions{Key: "rzp_test_key", Amount: req.AmountMinor, Currency: req.Currency, Description: req.Description}
		},
		nil,
	)
}

func validShipping() model.ShippingAddress {
	return model.ShippingAddress{
		FullName:   "Harshi Reddy",
		Email:      "harshi@example.com",
		Phone:      "9876543210",
		Address:    "12 MG Road",
		City:       "Hyderabad",
		State:      "Telangana",
		PostalCode: "500001",
	}
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) *usecase.HTTPError {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !assert.True(t, ok, "want HTTPError, got %v", err) {
		return nil
	}
	assert.Equal(t, want, he.Status, "message=%q", he.Message)
	return he
}

func fieldNames(he *usecase.HTTPError) []string {
	if he == nil {
		return nil
	}
	out := make([]string, 0, len(he.Fields))
	for _, f := range he.Fields {
		out = append(out, f.Field)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
