package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/tracking"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewOrderUsecase(tx repo.TransactionManager, clock Clock) *OrderUsecase {
	return &OrderUsecase{tx: tx, clock: clock}
}

type OrderItemOutput struct {
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	Format        model.Format    `json:"format"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CharacterName string          `json:"character_name,omitempty"`
	CustomMessage string          `json:"custom_message,omitempty"`
	CustomStory   string          `json:"custom_story,omitempty"`
	CustomTitle   string          `json:"custom_title,omitempty"`
	PhotoURL      string          `json:"photo_url,omitempty"`
}

type OrderOutput struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	OrderNumber     string                `json:"order_number"`
	Status          model.OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	CouponCode      *string               `json:"coupon_code"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentID       string                `json:"payment_id"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page, limit int) (OrderListOutput, error) {
	if userID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	out := OrderListOutput{Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}

		out.Total = total
		out.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, msgDBError)
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOwned(ctx, r, userID, orderID)
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// Track は注文の配送状況（経過日数からのシミュレーション）
func (u *OrderUsecase) Track(ctx context.Context, userID string, orderID string) (tracking.Timeline, error) {
	if userID == "" {
		return tracking.Timeline{}, NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	}

	var out tracking.Timeline
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOwned(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		out = tracking.Track(o, u.clock.Now())
		return nil
	})
	if err != nil {
		return tracking.Timeline{}, err
	}
	return out, nil
}

func (u *OrderUsecase) findOwned(ctx context.Context, r repo.TxRepos, userID, orderID string) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, msgDBError)
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return model.Order{}, NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return o, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			Title:         it.ProductTitle,
			Image:         it.ProductImage,
			Format:        it.Format,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			CharacterName: it.CharacterName,
			CustomMessage: it.CustomMessage,
			CustomStory:   it.CustomStory,
			CustomTitle:   it.CustomTitle,
			PhotoURL:      it.PhotoURL,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		CouponCode:      o.CouponCode,
		ShippingAddress: o.ShippingAddress,
		PaymentID:       o.PaymentID,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

// カート明細から注文明細へ（価格は追加時点のまま）
func orderItemsFromCart(items []model.CartItem) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.OrderItem{
			ProductTitle:  it.ProductTitle,
			ProductImage:  it.ProductImage,
			Format:        it.Format,
			Quantity:      it.Quantity,
			UnitPrice:     it.Price,
			CharacterName: it.CharacterName,
			CustomMessage: it.CustomMessage,
			CustomStory:   it.CustomStory,
			CustomTitle:   it.CustomTitle,
			PhotoURL:      it.PhotoURL,
		})
	}
	return out
}
