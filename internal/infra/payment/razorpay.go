// Package payment は決済ウィジェット（Razorpay Checkout）の初期化パラメータを作る。
// 決済そのものはブラウザ側のウィジェットが行う。
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

var ErrUnavailable = errors.New("payment widget unavailable")

type RazorpayConfig struct {
	KeyID     string
	StoreName string
	LogoURL   string
	Color     string
}

type Razorpay struct {
	cfg RazorpayConfig
}

func NewRazorpay(cfg RazorpayConfig) *Razorpay {
	if cfg.Color == "" {
		cfg.Color = "#3B82F6"
	}
	return &Razorpay{cfg: cfg}
}

// Prepare は金額が正のときだけオプションを返す
func (r *Razorpay) Prepare(ctx context.Context, req model.PaymentRequest) (model.PaymentOptions, error) {
	if err := ctx.Err(); err != nil {
		return model.PaymentOptions{}, err
	}
	if r.cfg.KeyID == "" {
		return model.PaymentOptions{}, fmt.Errorf("%w: key id not configured", ErrUnavailable)
	}
	if req.AmountMinor <= 0 {
		return model.PaymentOptions{}, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}
	currency := req.Currency
	if currency == "" {
		currency = model.CurrencyINR
	}

	return model.PaymentOptions{
		Key:         r.cfg.KeyID,
		Amount:      req.AmountMinor,
		Currency:    currency,
		Name:        r.cfg.StoreName,
		Description: req.Description,
		Image:       r.cfg.LogoURL,
		Prefill: model.PaymentPrefill{
			Name:    req.Name,
			Email:   req.Email,
			Contact: req.Phone,
		},
		Notes: req.Notes,
		Theme: model.PaymentTheme{Color: r.cfg.Color},
	}, nil
}
