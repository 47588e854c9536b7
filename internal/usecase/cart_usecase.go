package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/cart"
	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	"github.com/Svamsi2006/balaveerulu/internal/domain/wizard"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

// 決済待ちの保持期間
const pendingCheckoutTTL = time.Hour

// CartUsecase は /cart の業務ロジックです。
// カートの状態は cart.Session がリクエストごとに持ちます。
type CartUsecase struct {
	items    repo.CartItemRepository
	sessions repo.SessionStore
	catalog  *CatalogUsecase
	policy   pricing.Policy
	payments PaymentGateway
	placer   *OrderPlacer
	log      *zap.Logger
}

func NewCartUsecase(
	items repo.CartItemRepository,
	sessions repo.SessionStore,
	catalog *CatalogUsecase,
	policy pricing.Policy,
	payments PaymentGateway,
	placer *OrderPlacer,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		items:    items,
		sessions: sessions,
		catalog:  catalog,
		policy:   policy,
		payments: payments,
		placer:   placer,
		log:      log,
	}
}

// CartView はカートの明細と金額の内訳
type CartView struct {
	Items []model.CartItem `json:"items"`
	Quote pricing.Quote    `json:"quote"`
}

type AddCartInput struct {
	ProductID     string
	Format        model.Format
	Quantity      int
	CharacterName string
	CustomMessage string
	CustomStory   string
	CustomTitle   string
	PhotoURL      string
}

// CheckoutOutput は決済ウィジェットを開くためのもの
type CheckoutOutput struct {
	Payment model.PaymentOptions `json:"payment"`
	Cart    CartView             `json:"cart"`
}

// 決済待ちの控え（セッションに保存）
type pendingCheckout struct {
	AmountMinor int64                 `json:"amount_minor"`
	Shipping    model.ShippingAddress `json:"shipping"`
	CouponCode  string                `json:"coupon_code"`
}

func (u *CartUsecase) open(ctx context.Context, userID string) (*cart.Session, error) {
	s, err := cart.Open(ctx, userID, cart.Deps{Items: u.items, Sessions: u.sessions, Policy: u.policy})
	if err != nil {
		if !errors.Is(err, cart.ErrAuthRequired) {
			u.log.Warn("cart load failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, fromDomainError(err)
	}
	return s, nil
}

func (u *CartUsecase) view(s *cart.Session) CartView {
	return CartView{Items: s.Items(), Quote: displayQuote(s.Quote())}
}

func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return u.view(s), nil
}

// AddToCart は絵本と形態から単価を決めて追加する（価格はこの時点で固定）
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	p, err := u.catalog.FindProduct(ctx, in.ProductID)
	if err != nil {
		return CartView{}, err
	}
	price, err := u.catalog.PriceOf(in.Format)
	if err != nil {
		return CartView{}, err
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	_, err = s.AddItem(ctx, model.CartItem{
		ProductID:     p.ID,
		ProductTitle:  p.Title,
		ProductImage:  p.Image,
		Format:        in.Format,
		Quantity:      qty,
		Price:         price,
		CharacterName: strings.TrimSpace(in.CharacterName),
		CustomMessage: in.CustomMessage,
		CustomStory:   in.CustomStory,
		CustomTitle:   in.CustomTitle,
		PhotoURL:      in.PhotoURL,
	})
	if err != nil {
		u.warnPersistence("cart add failed", userID, err)
		return CartView{}, fromDomainError(err)
	}
	return u.view(s), nil
}

// 数量変更（0以下なら削除）
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID string, itemID string, qty int) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.SetQuantity(ctx, itemID, qty); err != nil {
		u.warnPersistence("cart update failed", userID, err)
		return CartView{}, fromDomainError(err)
	}
	return u.view(s), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID string, itemID string) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.RemoveItem(ctx, itemID); err != nil {
		u.warnPersistence("cart remove failed", userID, err)
		return CartView{}, fromDomainError(err)
	}
	return u.view(s), nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID string) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.Clear(ctx); err != nil {
		u.warnPersistence("cart clear failed", userID, err)
		return CartView{}, fromDomainError(err)
	}
	return u.view(s), nil
}

func (u *CartUsecase) ApplyCoupon(ctx context.Context, userID string, code string) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	if _, err := s.ApplyCoupon(ctx, code); err != nil {
		return CartView{}, fromDomainError(err)
	}
	return u.view(s), nil
}

// BeginCheckout は配送先を検証して金額を確定し、決済ウィジェットの設定を返す
func (u *CartUsecase) BeginCheckout(ctx context.Context, userID string, shipping model.ShippingAddress) (CheckoutOutput, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if s.IsEmpty() {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if fields := wizard.ValidateShipping(shipping); len(fields) > 0 {
		return CheckoutOutput{}, newValidationError(fields)
	}

	quote := s.Quote()
	amount := pricing.MinorUnits(quote.Total)
	if amount <= 0 {
		return CheckoutOutput{}, newValidationError([]FieldError{{Field: "total", Message: "order total must be greater than zero"}})
	}

	opts, err := u.payments.Prepare(ctx, model.PaymentRequest{
		AmountMinor: amount,
		Currency:    model.CurrencyINR,
		Description: fmt.Sprintf("Comic books (%d)", quote.TotalQuantity),
		Name:        shipping.FullName,
		Email:       shipping.Email,
		Phone:       shipping.Phone,
		Notes:       map[string]string{"user_id": userID},
	})
	if err != nil {
		u.log.Warn("payment widget unavailable", zap.String("user_id", userID), zap.Error(err))
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, msgPaymentUnavailable)
	}

	pending := pendingCheckout{AmountMinor: amount, Shipping: shipping, CouponCode: quote.CouponCode}
	if err := u.sessions.Set(ctx, repo.PendingCheckoutKey(userID), pending, pendingCheckoutTTL); err != nil {
		u.log.Warn("pending checkout save failed", zap.String("user_id", userID), zap.Error(err))
		return CheckoutOutput{}, NewHTTPError(http.StatusServiceUnavailable, msgPersistence)
	}

	return CheckoutOutput{Payment: opts, Cart: u.view(s)}, nil
}

// CheckoutSucceeded は決済成功後に注文（pending）を作る
func (u *CartUsecase) CheckoutSucceeded(ctx context.Context, userID string, paymentID string) (OrderOutput, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return OrderOutput{}, err
	}

	var pending pendingCheckout
	err = u.sessions.Get(ctx, repo.PendingCheckoutKey(userID), &pending)
	hasPending := err == nil
	// 控えが読めないときは決済済みかもしれないので、普通の409にはしない
	unknown := err != nil && !errors.Is(err, repo.ErrNotFound)
	if unknown {
		u.log.Warn("pending checkout load failed", zap.String("user_id", userID), zap.Error(err))
	}

	in := PlaceOrderInput{
		UserID:    userID,
		PaymentID: paymentID,
		Status:    model.OrderStatusPending,
	}
	// 控えが無い場合は決済IDの再送（既存注文を返す）だけ受け付ける
	if hasPending {
		quote := s.Quote()
		if got := pricing.MinorUnits(quote.Total); got != pending.AmountMinor {
			u.log.Warn("cart changed during payment",
				zap.String("user_id", userID),
				zap.String("payment_id", paymentID),
				zap.Int64("charged", pending.AmountMinor),
				zap.Int64("cart", got),
			)
		}
		in.Items = orderItemsFromCart(s.Items())
		in.Quote = quote
		in.Shipping = pending.Shipping
	}

	res, err := u.placer.Place(ctx, in)
	if errors.Is(err, errNothingToPlace) {
		if hasPending || unknown {
			u.log.Error("order not recorded after payment",
				zap.String("user_id", userID),
				zap.String("payment_id", paymentID),
				zap.Bool("pending_found", hasPending),
			)
			return OrderOutput{}, newPostPaymentError(paymentID)
		}
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "no checkout in progress")
	}
	if err != nil {
		return OrderOutput{}, err
	}
	return res.Order, nil
}

// CheckoutDismissed はウィジェットを閉じた。カートはそのまま
func (u *CartUsecase) CheckoutDismissed(ctx context.Context, userID string) (CartView, error) {
	return u.abandonCheckout(ctx, userID, "dismissed", "")
}

// CheckoutFailed は決済が失敗した（ウィジェットの読み込み失敗を含む）
func (u *CartUsecase) CheckoutFailed(ctx context.Context, userID string, reason string) (CartView, error) {
	return u.abandonCheckout(ctx, userID, "failed", reason)
}

// 決済待ちの控えは消さない。閉じた後に成功通知が届いても注文にできる
func (u *CartUsecase) abandonCheckout(ctx context.Context, userID, outcome, reason string) (CartView, error) {
	s, err := u.open(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	u.log.Info("checkout "+outcome, zap.String("user_id", userID), zap.String("reason", reason))
	return u.view(s), nil
}

func (u *CartUsecase) warnPersistence(msg, userID string, err error) {
	if errors.Is(err, cart.ErrItemPersistence) {
		u.log.Warn(msg, zap.String("user_id", userID), zap.Error(err))
	}
}

// 表示用に小数2桁へ
func displayQuote(q pricing.Quote) pricing.Quote {
	q.Subtotal = pricing.Display(q.Subtotal)
	q.CouponDiscount = pricing.Display(q.CouponDiscount)
	q.FamilyPackDiscount = pricing.Display(q.FamilyPackDiscount)
	q.TotalDiscount = pricing.Display(q.TotalDiscount)
	q.Total = pricing.Display(q.Total)
	return q
}
