// Package cart はログイン中ユーザーのカート（明細 + クーポン）を扱う。
// リクエストごとに Open で作り直すので、別のユーザーの状態が混ざることはない。
// 明細の変更は、保存に成功してから手元に反映する。
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	"github.com/Svamsi2006/balaveerulu/internal/repository"
)

var (
	ErrAuthRequired    = errors.New("sign in required")
	ErrItemPersistence = errors.New("cart item could not be saved")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidCoupon   = errors.New("invalid coupon code")
	ErrInvalidItem     = errors.New("invalid cart item")
)

// クーポンの保持期間（ログインセッションと同程度）
const CouponTTL = 7 * 24 * time.Hour

// Deps は Open に渡す依存
type Deps struct {
	Items    repository.CartItemRepository
	Sessions repository.SessionStore
	Policy   pricing.Policy
}

// Session は1ユーザー分のカート
type Session struct {
	deps   Deps
	userID string

	mu     sync.Mutex
	items  []model.CartItem
	coupon pricing.Coupon
}

// Open は保存済みの明細とクーポンを読み込む
func Open(ctx context.Context, userID string, deps Deps) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrAuthRequired
	}

	items, err := deps.Items.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load items: %v", ErrItemPersistence, err)
	}

	s := &Session{deps: deps, userID: userID, items: items}

	var code string
	err = deps.Sessions.Get(ctx, repository.CouponKey(userID), &code)
	switch {
	case err == nil:
		// 表から消えたコードは無効扱い
		if c, ok := deps.Policy.Coupons.Lookup(code); ok {
			s.coupon = c
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("load coupon: %w", err)
	}

	return s, nil
}

func (s *Session) UserID() string {
	return s.userID
}

// Items は明細のコピー
func (s *Session) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Session) Coupon() pricing.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon
}

func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// AddItem は明細を保存してから手元に追加する
func (s *Session) AddItem(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	if s.userID == "" {
		return model.CartItem{}, ErrAuthRequired
	}
	if err := validateItem(item); err != nil {
		return model.CartItem{}, err
	}

	item.ID = ""
	item.UserID = s.userID

	created, err := s.deps.Items.Create(ctx, item)
	if err != nil {
		return model.CartItem{}, fmt.Errorf("%w: %v", ErrItemPersistence, err)
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()
	return created, nil
}

// RemoveItem は自分の明細だけ削除できる
func (s *Session) RemoveItem(ctx context.Context, itemID string) error {
	if s.userID == "" {
		return ErrAuthRequired
	}
	if s.indexOf(itemID) < 0 {
		return ErrItemNotFound
	}

	if err := s.deps.Items.DeleteByID(ctx, s.userID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("%w: %v", ErrItemPersistence, err)
	}

	s.mu.Lock()
	if i := s.indexOfLocked(itemID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// SetQuantity は0以下なら削除になる
func (s *Session) SetQuantity(ctx context.Context, itemID string, qty int) error {
	if s.userID == "" {
		return ErrAuthRequired
	}
	if qty <= 0 {
		return s.RemoveItem(ctx, itemID)
	}
	if s.indexOf(itemID) < 0 {
		return ErrItemNotFound
	}

	if err := s.deps.Items.UpdateQuantity(ctx, s.userID, itemID, qty); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("%w: %v", ErrItemPersistence, err)
	}

	s.mu.Lock()
	if i := s.indexOfLocked(itemID); i >= 0 {
		s.items[i].Quantity = qty
	}
	s.mu.Unlock()
	return nil
}

// Clear は明細を全部消してクーポンも外す
func (s *Session) Clear(ctx context.Context) error {
	if s.userID == "" {
		return ErrAuthRequired
	}
	if err := s.deps.Items.DeleteAllByUserID(ctx, s.userID); err != nil {
		return fmt.Errorf("%w: %v", ErrItemPersistence, err)
	}

	s.mu.Lock()
	s.items = nil
	s.coupon = pricing.Coupon{}
	s.mu.Unlock()

	// 明細は消えている。クーポンだけ残ったら再実行で消せる
	if err := s.deps.Sessions.Delete(ctx, repository.CouponKey(s.userID)); err != nil {
		return fmt.Errorf("%w: clear coupon: %v", ErrItemPersistence, err)
	}
	return nil
}

// ApplyCoupon は有効なコードなら今のクーポンを置き換える。
// 無効なコードのときは何も変えない。
func (s *Session) ApplyCoupon(ctx context.Context, code string) (pricing.Coupon, error) {
	if s.userID == "" {
		return pricing.Coupon{}, ErrAuthRequired
	}
	c, ok := s.deps.Policy.Coupons.Lookup(code)
	if !ok {
		return pricing.Coupon{}, ErrInvalidCoupon
	}

	if err := s.deps.Sessions.Set(ctx, repository.CouponKey(s.userID), c.Code, CouponTTL); err != nil {
		return pricing.Coupon{}, fmt.Errorf("save coupon: %w", err)
	}

	s.mu.Lock()
	s.coupon = c
	s.mu.Unlock()
	return c, nil
}

// Reset はサインアウト時に手元の状態だけ捨てる（保存済みの明細は残る）
func (s *Session) Reset() {
	s.mu.Lock()
	s.items = nil
	s.coupon = pricing.Coupon{}
	s.userID = ""
	s.mu.Unlock()
}

func (s *Session) lines() []pricing.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.LinesFromCart(s.items)
}

func (s *Session) Subtotal() decimal.Decimal {
	return pricing.Subtotal(s.lines())
}

func (s *Session) FamilyPackDiscount() decimal.Decimal {
	return s.deps.Policy.FamilyPackDiscount(s.lines())
}

func (s *Session) Total() decimal.Decimal {
	return s.Quote().Total
}

func (s *Session) Quote() pricing.Quote {
	return s.deps.Policy.Quote(s.lines(), s.Coupon())
}

func (s *Session) indexOf(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(itemID)
}

func (s *Session) indexOfLocked(itemID string) int {
	for i, it := range s.items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func validateItem(item model.CartItem) error {
	switch {
	case strings.TrimSpace(item.ProductID) == "":
		return fmt.Errorf("%w: product_id is required", ErrInvalidItem)
	case !item.Format.Valid():
		return fmt.Errorf("%w: format %q", ErrInvalidItem, item.Format)
	case item.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	case item.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	return nil
}
