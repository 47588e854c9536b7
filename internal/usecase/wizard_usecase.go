package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	"github.com/Svamsi2006/balaveerulu/internal/domain/wizard"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

// ウィザードの途中状態の保持期間
const wizardTTL = 24 * time.Hour

// WizardUsecase は /wizard（絵本作成の6ステップ）
// 状態はユーザーごとにセッションストアへ保存する。
type WizardUsecase struct {
	sessions repo.SessionStore
	catalog  *CatalogUsecase
	policy   pricing.Policy
	payments PaymentGateway
	photos   PhotoUploader // nil なら写真アップロード無効
	placer   *OrderPlacer
	log      *zap.Logger
}

func NewWizardUsecase(
	sessions repo.SessionStore,
	catalog *CatalogUsecase,
	policy pricing.Policy,
	payments PaymentGateway,
	photos PhotoUploader,
	placer *OrderPlacer,
	log *zap.Logger,
) *WizardUsecase {
	return &WizardUsecase{
		sessions: sessions,
		catalog:  catalog,
		policy:   policy,
		payments: payments,
		photos:   photos,
		placer:   placer,
		log:      log,
	}
}

// WizardPatch は入力の変更分（nilは変更なし）
type WizardPatch struct {
	ProductID     *string
	Format        *model.Format
	CharacterName *string
	CustomMessage *string
	CustomStory   *string
	CustomTitle   *string
	PhotoURL      *string
	Shipping      *model.ShippingAddress
}

type WizardView struct {
	Step        wizard.Step           `json:"step"`
	StepName    string                `json:"step_name"`
	Data        wizard.Data           `json:"data"`
	Notice      wizard.Notice         `json:"notice,omitempty"`
	Quote       *pricing.Quote        `json:"quote,omitempty"`
	Payment     *model.PaymentOptions `json:"payment,omitempty"`
	OrderNumber string                `json:"order_number,omitempty"`
	Order       *OrderOutput          `json:"order,omitempty"`
}

func (u *WizardUsecase) load(ctx context.Context, userID string) (*wizard.Wizard, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	}
	w := wizard.New()
	err := u.sessions.Get(ctx, repo.WizardKey(userID), w)
	if errors.Is(err, repo.ErrNotFound) {
		return wizard.New(), nil
	}
	if err != nil {
		u.log.Warn("wizard load failed", zap.String("user_id", userID), zap.Error(err))
		return nil, NewHTTPError(http.StatusServiceUnavailable, msgPersistence)
	}
	if !w.Step.Valid() {
		return wizard.New(), nil
	}
	return w, nil
}

func (u *WizardUsecase) save(ctx context.Context, userID string, w *wizard.Wizard) error {
	if err := u.sessions.Set(ctx, repo.WizardKey(userID), w, wizardTTL); err != nil {
		u.log.Warn("wizard save failed", zap.String("user_id", userID), zap.Error(err))
		return NewHTTPError(http.StatusServiceUnavailable, msgPersistence)
	}
	return nil
}

func (u *WizardUsecase) view(w *wizard.Wizard) WizardView {
	v := WizardView{
		Step:        w.Step,
		StepName:    w.Step.String(),
		Data:        w.Data,
		Notice:      w.Notice,
		OrderNumber: w.OrderNumber,
	}
	if q, err := u.quote(w.Data); err == nil {
		dq := displayQuote(q)
		v.Quote = &dq
	}
	return v
}

// 1冊分の金額（ウィザード自身のクーポンを使う）
func (u *WizardUsecase) quote(d wizard.Data) (pricing.Quote, error) {
	if !d.Format.Valid() {
		return pricing.Quote{}, fmt.Errorf("format not chosen")
	}
	price, err := u.catalog.PriceOf(d.Format)
	if err != nil {
		return pricing.Quote{}, err
	}
	coupon, _ := u.policy.Coupons.Lookup(d.CouponCode)
	return u.policy.Quote([]pricing.Line{{UnitPrice: price, Quantity: 1}}, coupon), nil
}

func (u *WizardUsecase) Get(ctx context.Context, userID string) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	return u.view(w), nil
}

// Update は今のステップの入力だけ変更できる
func (u *WizardUsecase) Update(ctx context.Context, userID string, p WizardPatch) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	if !w.Editable() {
		return WizardView{}, NewHTTPError(http.StatusConflict, "wizard cannot be edited at this step")
	}

	var fe []FieldError
	notHere := func(field string) {
		fe = append(fe, FieldError{Field: field, Message: "cannot be changed at step " + w.Step.String()})
	}

	if p.ProductID != nil {
		if w.Step != wizard.StepSelectProduct {
			notHere("product_id")
		} else if _, err := u.catalog.FindProduct(ctx, *p.ProductID); err != nil {
			fe = append(fe, FieldError{Field: "product_id", Message: "unknown book"})
		} else {
			w.Data.ProductID = strings.TrimSpace(*p.ProductID)
		}
	}
	if p.Format != nil {
		if w.Step != wizard.StepSelectFormat {
			notHere("format")
		} else if !p.Format.Valid() {
			fe = append(fe, FieldError{Field: "format", Message: "choose digital, print or combo"})
		} else {
			w.Data.Format = *p.Format
		}
	}

	personal := []struct {
		field string
		val   *string
		dst   *string
	}{
		{"character_name", p.CharacterName, &w.Data.CharacterName},
		{"custom_message", p.CustomMessage, &w.Data.CustomMessage},
		{"custom_story", p.CustomStory, &w.Data.CustomStory},
		{"custom_title", p.CustomTitle, &w.Data.CustomTitle},
		{"photo_url", p.PhotoURL, &w.Data.PhotoURL},
	}
	for _, f := range personal {
		if f.val == nil {
			continue
		}
		if w.Step != wizard.StepPersonalize {
			notHere(f.field)
			continue
		}
		*f.dst = *f.val
	}

	if p.Shipping != nil {
		if w.Step != wizard.StepShippingDetails {
			notHere("shipping")
		} else {
			w.Data.Shipping = *p.Shipping
		}
	}

	if len(fe) > 0 {
		return WizardView{}, newValidationError(fe)
	}
	if err := u.save(ctx, userID, w); err != nil {
		return WizardView{}, err
	}
	return u.view(w), nil
}

// Next は検証を通れば次のステップへ。
// 配送先から先へ進むときは金額を確定して決済ウィジェットの設定を返す。
func (u *WizardUsecase) Next(ctx context.Context, userID string) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	from := w.Step
	if err := w.Fire(wizard.EventNext); err != nil {
		return WizardView{}, fromDomainError(err)
	}

	var opts *model.PaymentOptions
	if from == wizard.StepShippingDetails {
		o, amount, err := u.preparePayment(ctx, userID, w.Data)
		if err != nil {
			// 保存しないので配送先のまま
			return WizardView{}, err
		}
		opts = &o
		w.Checkout = &wizard.Checkout{AmountMinor: amount, Currency: o.Currency}
	}

	if err := u.save(ctx, userID, w); err != nil {
		return WizardView{}, err
	}
	v := u.view(w)
	v.Payment = opts
	return v, nil
}

func (u *WizardUsecase) preparePayment(ctx context.Context, userID string, d wizard.Data) (model.PaymentOptions, int64, error) {
	p, err := u.catalog.FindProduct(ctx, d.ProductID)
	if err != nil {
		return model.PaymentOptions{}, 0, err
	}
	q, err := u.quote(d)
	if err != nil {
		return model.PaymentOptions{}, 0, err
	}
	amount := pricing.MinorUnits(q.Total)
	if amount <= 0 {
		return model.PaymentOptions{}, 0, newValidationError([]FieldError{{Field: "total", Message: "order total must be greater than zero"}})
	}

	opts, err := u.payments.Prepare(ctx, model.PaymentRequest{
		AmountMinor: amount,
		Currency:    model.CurrencyINR,
		Description: fmt.Sprintf("%s (%s)", p.Title, d.Format),
		Name:        d.Shipping.FullName,
		Email:       d.Shipping.Email,
		Phone:       d.Shipping.Phone,
		Notes: map[string]string{
			"user_id":        userID,
			"product_id":     d.ProductID,
			"character_name": d.CharacterName,
		},
	})
	if err != nil {
		u.log.Warn("payment widget unavailable", zap.String("user_id", userID), zap.Error(err))
		return model.PaymentOptions{}, 0, NewHTTPError(http.StatusBadGateway, msgPaymentUnavailable)
	}
	return opts, amount, nil
}

func (u *WizardUsecase) Back(ctx context.Context, userID string) (WizardView, error) {
	return u.fire(ctx, userID, wizard.EventBack)
}

func (u *WizardUsecase) PaymentDismissed(ctx context.Context, userID string) (WizardView, error) {
	return u.fire(ctx, userID, wizard.EventPaymentDismissed)
}

// PaymentFailed はウィジェットの読み込み失敗も含む
func (u *WizardUsecase) PaymentFailed(ctx context.Context, userID string, reason string) (WizardView, error) {
	u.log.Info("wizard payment failed", zap.String("user_id", userID), zap.String("reason", reason))
	return u.fire(ctx, userID, wizard.EventPaymentFailed)
}

func (u *WizardUsecase) fire(ctx context.Context, userID string, ev wizard.Event) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	if err := w.Fire(ev); err != nil {
		return WizardView{}, fromDomainError(err)
	}
	if err := u.save(ctx, userID, w); err != nil {
		return WizardView{}, err
	}
	return u.view(w), nil
}

// ApplyCoupon はウィザード専用のクーポン（カートのクーポンとは別）
func (u *WizardUsecase) ApplyCoupon(ctx context.Context, userID string, code string) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	if !w.Editable() {
		return WizardView{}, NewHTTPError(http.StatusConflict, "wizard cannot be edited at this step")
	}
	c, ok := u.policy.Coupons.Lookup(code)
	if !ok {
		return WizardView{}, NewHTTPError(http.StatusBadRequest, msgInvalidCoupon)
	}
	w.Data.CouponCode = c.Code
	if err := u.save(ctx, userID, w); err != nil {
		return WizardView{}, err
	}
	return u.view(w), nil
}

// UploadPhoto は写真を保存してパーソナライズに設定する
func (u *WizardUsecase) UploadPhoto(ctx context.Context, userID string, r io.Reader, filename string) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	if w.Step != wizard.StepPersonalize {
		return WizardView{}, NewHTTPError(http.StatusConflict, "photo can only be added while personalizing")
	}
	if u.photos == nil {
		return WizardView{}, NewHTTPError(http.StatusServiceUnavailable, "photo upload not configured")
	}

	photo, err := readPhoto(r)
	if err != nil {
		return WizardView{}, err
	}
	url, err := u.photos.Upload(ctx, photo, filename)
	if err != nil {
		u.log.Warn("photo upload failed", zap.String("user_id", userID), zap.Error(err))
		return WizardView{}, NewHTTPError(http.StatusBadGateway, "photo upload failed")
	}

	w.Data.PhotoURL = url
	if err := u.save(ctx, userID, w); err != nil {
		return WizardView{}, err
	}
	return u.view(w), nil
}

// PaymentSucceeded は決済成功を受けて注文（completed）を確定する
func (u *WizardUsecase) PaymentSucceeded(ctx context.Context, userID string, paymentID string) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	if w.Step != wizard.StepPayment && w.Step != wizard.StepConfirmed {
		// 支払い画面を離れた後に届いた成功通知。入力が変わっているかもしれないので注文は作らない
		if w.AwaitingPayment() {
			u.log.Error("order not recorded after payment",
				zap.String("user_id", userID),
				zap.String("payment_id", paymentID),
				zap.String("step", w.Step.String()),
				zap.Int64("charged", w.Checkout.AmountMinor),
			)
			return WizardView{}, newPostPaymentError(paymentID)
		}
		return WizardView{}, NewHTTPError(http.StatusConflict, "no payment in progress")
	}

	in := PlaceOrderInput{
		UserID:    userID,
		PaymentID: paymentID,
		Status:    model.OrderStatusCompleted,
	}
	// 確定済みなら決済IDの再送（既存注文を返す）だけ
	if w.Step == wizard.StepPayment {
		item, quote, err := u.orderLine(ctx, w.Data)
		if err != nil {
			u.log.Error("order not recorded after payment",
				zap.String("user_id", userID), zap.String("payment_id", paymentID), zap.Error(err))
			return WizardView{}, newPostPaymentError(paymentID)
		}
		if w.Checkout != nil && pricing.MinorUnits(quote.Total) != w.Checkout.AmountMinor {
			u.log.Warn("price changed during payment",
				zap.String("user_id", userID),
				zap.Int64("charged", w.Checkout.AmountMinor),
				zap.Int64("quoted", pricing.MinorUnits(quote.Total)),
			)
		}
		in.Items = []model.OrderItem{item}
		in.Quote = quote
		in.Shipping = w.Data.Shipping
	}

	res, err := u.placer.Place(ctx, in)
	if errors.Is(err, errNothingToPlace) {
		if w.AwaitingPayment() {
			u.log.Error("order not recorded after payment",
				zap.String("user_id", userID), zap.String("payment_id", paymentID))
			return WizardView{}, newPostPaymentError(paymentID)
		}
		return WizardView{}, NewHTTPError(http.StatusConflict, "no payment in progress")
	}
	if err != nil {
		// ステップは支払いのまま（再送できる）
		return WizardView{}, err
	}

	if w.Step == wizard.StepPayment {
		if err := w.Fire(wizard.EventPaymentSucceeded); err != nil {
			return WizardView{}, fromDomainError(err)
		}
		w.OrderNumber = res.Order.OrderNumber
		if err := u.save(ctx, userID, w); err != nil {
			// 注文は確定済み。画面は注文番号で確認できる
			u.log.Warn("wizard save after order failed", zap.String("order_number", res.Order.OrderNumber), zap.Error(err))
		}
	}

	v := u.view(w)
	v.Order = &res.Order
	return v, nil
}

func (u *WizardUsecase) orderLine(ctx context.Context, d wizard.Data) (model.OrderItem, pricing.Quote, error) {
	if err := wizard.ValidateAll(d); err != nil {
		return model.OrderItem{}, pricing.Quote{}, err
	}
	p, err := u.catalog.FindProduct(ctx, d.ProductID)
	if err != nil {
		return model.OrderItem{}, pricing.Quote{}, err
	}
	price, err := u.catalog.PriceOf(d.Format)
	if err != nil {
		return model.OrderItem{}, pricing.Quote{}, err
	}
	q, err := u.quote(d)
	if err != nil {
		return model.OrderItem{}, pricing.Quote{}, err
	}

	return model.OrderItem{
		ProductTitle:  p.Title,
		ProductImage:  p.Image,
		Format:        d.Format,
		Quantity:      1,
		UnitPrice:     price,
		CharacterName: strings.TrimSpace(d.CharacterName),
		CustomMessage: d.CustomMessage,
		CustomStory:   d.CustomStory,
		CustomTitle:   d.CustomTitle,
		PhotoURL:      d.PhotoURL,
	}, q, nil
}

// Reset は最初からやり直す。
// 支払い中は不可（先にウィジェットを閉じる）。閉じた後の支払いの控えは残す。
func (u *WizardUsecase) Reset(ctx context.Context, userID string) (WizardView, error) {
	w, err := u.load(ctx, userID)
	if err != nil {
		return WizardView{}, err
	}
	if w.Step == wizard.StepPayment {
		return WizardView{}, NewHTTPError(http.StatusConflict, "payment in progress")
	}

	fresh := w.Restart()
	if fresh.Checkout != nil {
		if err := u.save(ctx, userID, fresh); err != nil {
			return WizardView{}, err
		}
		return u.view(fresh), nil
	}
	if err := u.sessions.Delete(ctx, repo.WizardKey(userID)); err != nil {
		u.log.Warn("wizard reset failed", zap.String("user_id", userID), zap.Error(err))
		return WizardView{}, NewHTTPError(http.StatusServiceUnavailable, msgPersistence)
	}
	return u.view(fresh), nil
}
