package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

// 決済IDの注文がまだ無く、明細も渡されなかった
var errNothingToPlace = NewHTTPError(http.StatusBadRequest, "cart empty")

// 二重送信防止ロックの期限（処理が落ちても自然に外れる）
const submitLockTTL = 30 * time.Second

// 配送先の国（国内のみ）
const defaultCountry = "India"

// OrderPlacer は決済成功後の注文確定（ウィザードとカートで共通）
type OrderPlacer struct {
	tx       repo.TransactionManager
	sessions repo.SessionStore
	notifier Notifier
	clock    Clock
	ids      IDGenerator
	notifyTo string
	log      *zap.Logger
}

func NewOrderPlacer(
	tx repo.TransactionManager,
	sessions repo.SessionStore,
	notifier Notifier,
	clock Clock,
	ids IDGenerator,
	notifyTo string,
	log *zap.Logger,
) *OrderPlacer {
	return &OrderPlacer{
		tx:       tx,
		sessions: sessions,
		notifier: notifier,
		clock:    clock,
		ids:      ids,
		notifyTo: notifyTo,
		log:      log,
	}
}

type PlaceOrderInput struct {
	UserID    string
	PaymentID string
	Status    model.OrderStatus
	Items     []model.OrderItem
	Quote     pricing.Quote
	Shipping  model.ShippingAddress
}

// 決済IDが同じなら同じ注文を返す（Created=false）
type PlaceOrderResult struct {
	Order   OrderOutput
	Created bool
}

// Place は注文と明細を1トランザクションで保存し、カートを空にする。
// 保存に失敗したら決済IDを参照番号にしたエラーを返す。
func (p *OrderPlacer) Place(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error) {
	if in.UserID == "" {
		return PlaceOrderResult{}, NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	}
	paymentID := strings.TrimSpace(in.PaymentID)
	if paymentID == "" || len(paymentID) > 255 {
		return PlaceOrderResult{}, newValidationError([]FieldError{{Field: "payment_id", Message: "payment_id is required"}})
	}

	// 同じユーザーの確定処理は1つずつ
	lockKey := repo.SubmitLockKey(in.UserID)
	lockToken := p.ids.NewID()
	locked, err := p.sessions.TryLock(ctx, lockKey, lockToken, submitLockTTL)
	if err != nil {
		p.log.Error("submit lock failed", zap.String("user_id", in.UserID), zap.String("payment_id", paymentID), zap.Error(err))
		return PlaceOrderResult{}, newPostPaymentError(paymentID)
	}
	if !locked {
		return PlaceOrderResult{}, NewHTTPError(http.StatusConflict, msgInFlight)
	}
	defer func() {
		// リクエストが切れてもロックは外す
		if err := p.sessions.Unlock(context.WithoutCancel(ctx), lockKey, lockToken); err != nil {
			p.log.Warn("submit unlock failed", zap.String("user_id", in.UserID), zap.Error(err))
		}
	}()

	var res PlaceOrderResult

	//注文処理はトランザクション
	err = p.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じ決済なら同じ結果
		existing, found, err := r.Orders().FindByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		if found {
			return p.reuse(ctx, r, existing, in.UserID, &res)
		}
		if len(in.Items) == 0 {
			return errNothingToPlace
		}

		now := p.clock.Now()
		order := p.newOrder(in, paymentID, now)

		created, err := r.Orders().Create(ctx, order)
		if err != nil {
			//競合（同時に同じ決済IDが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByPaymentID(ctx, paymentID)
			if err2 == nil && found2 {
				return p.reuse(ctx, r, ex2, in.UserID, &res)
			}
			return err
		}

		items := make([]model.OrderItem, len(in.Items))
		copy(items, in.Items)
		for i := range items {
			items[i].CreatedAt = now
		}
		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, created.ID, items); err != nil {
			return err
		}

		//カートを空にする（再注文防止）
		if err := r.CartItems().DeleteAllByUserID(ctx, in.UserID); err != nil {
			return err
		}

		res = PlaceOrderResult{Order: toOrderOutput(created, items), Created: true}
		return nil
	})

	if err != nil {
		if he, ok := AsHTTPError(err); ok {
			return PlaceOrderResult{}, he
		}
		p.log.Error("order not recorded after payment",
			zap.String("user_id", in.UserID),
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return PlaceOrderResult{}, newPostPaymentError(paymentID)
	}

	if res.Created {
		p.afterPlaced(ctx, in, res.Order)
	}
	return res, nil
}

func (p *OrderPlacer) reuse(ctx context.Context, r repo.TxRepos, o model.Order, userID string, res *PlaceOrderResult) error {
	if o.UserID != userID {
		return NewHTTPError(http.StatusConflict, "payment already used")
	}
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}
	*res = PlaceOrderResult{Order: toOrderOutput(o, items), Created: false}
	return nil
}

func (p *OrderPlacer) newOrder(in PlaceOrderInput, paymentID string, now time.Time) model.Order {
	shipping := in.Shipping
	if strings.TrimSpace(shipping.Country) == "" {
		shipping.Country = defaultCountry
	}

	var coupon *string
	if in.Quote.CouponCode != "" {
		code := in.Quote.CouponCode
		coupon = &code
	}

	return model.Order{
		ID:              p.ids.NewID(),
		UserID:          in.UserID,
		OrderNumber:     p.orderNumber(now),
		TotalAmount:     pricing.Display(in.Quote.Total),
		DiscountAmount:  pricing.Display(in.Quote.TotalDiscount),
		CouponCode:      coupon,
		Status:          in.Status,
		ShippingAddress: shipping,
		PaymentID:       paymentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ORD-<unix ms>-<4桁の16進>
func (p *OrderPlacer) orderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(p.ids.NewID(), "-", "")
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}

// 確定後の後片付け。失敗しても注文は成功のまま。
func (p *OrderPlacer) afterPlaced(ctx context.Context, in PlaceOrderInput, out OrderOutput) {
	if err := p.sessions.Delete(ctx, repo.CouponKey(in.UserID), repo.PendingCheckoutKey(in.UserID)); err != nil {
		p.log.Warn("clear cart session failed", zap.String("user_id", in.UserID), zap.Error(err))
	}

	if p.notifyTo == "" {
		return
	}
	if err := p.notifier.Send(ctx, orderNotification(p.notifyTo, out)); err != nil {
		p.log.Warn("order email failed", zap.String("order_number", out.OrderNumber), zap.Error(err))
	}
}

func orderNotification(to string, o OrderOutput) model.EmailMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Order Number: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status: %s\n", o.Status)
	fmt.Fprintf(&b, "Total Amount: ₹%s\n", o.TotalAmount.StringFixed(2))
	if o.DiscountAmount.IsPositive() {
		fmt.Fprintf(&b, "Discount: ₹%s\n", o.DiscountAmount.StringFixed(2))
	}
	if o.CouponCode != nil {
		fmt.Fprintf(&b, "Coupon: %s\n", *o.CouponCode)
	}
	b.WriteString("\nItems:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s (%s) x%d @ ₹%s", it.Title, it.Format, it.Quantity, it.UnitPrice.StringFixed(2))
		if it.CharacterName != "" {
			fmt.Fprintf(&b, " for %s", it.CharacterName)
		}
		b.WriteString("\n")
	}
	s := o.ShippingAddress
	fmt.Fprintf(&b, "\nShip to:\n%s\n%s\n%s, %s %s\n%s\nPhone: %s\n",
		s.FullName, s.Address, s.City, s.State, s.PostalCode, s.Country, s.Phone)

	return model.EmailMessage{
		TemplateID: model.EmailTemplateOrderNotification,
		To:         to,
		Vars: map[string]string{
			"name":    s.FullName,
			"email":   s.Email,
			"subject": "New Order: " + o.OrderNumber,
			"message": b.String(),
		},
	}
}
