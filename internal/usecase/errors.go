package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Svamsi2006/balaveerulu/internal/cart"
	"github.com/Svamsi2006/balaveerulu/internal/domain/wizard"
)

// FieldError は入力欄ごとのエラー（400で返す）
type FieldError = wizard.FieldError

type HTTPError struct {
	Status    int
	Message   string
	Fields    []FieldError
	Reference string // 決済後の失敗で問い合わせに使う番号（決済ID）
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 画面に出すメッセージ
const (
	msgSignInRequired     = "sign in required"
	msgNotFound           = "not found"
	msgInvalidCoupon      = "invalid coupon code"
	msgPersistence        = "could not save, please retry"
	msgPaymentUnavailable = "payment unavailable"
	msgInFlight           = "another submission is in progress"
	msgPostPayment        = "payment received but order could not be recorded; contact support"
	msgDBError            = "db error"
)

func newValidationError(fields []FieldError) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

// 決済は済んでいるのに注文を保存できなかった
func newPostPaymentError(paymentID string) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: msgPostPayment, Reference: paymentID}
}

// fromDomainError はカートとウィザードのエラーをHTTPErrorに変換する
func fromDomainError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}

	var ve *wizard.ValidationError
	switch {
	case errors.As(err, &ve):
		return newValidationError(ve.Fields)
	case errors.Is(err, cart.ErrAuthRequired):
		return NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	case errors.Is(err, cart.ErrItemNotFound):
		return NewHTTPError(http.StatusNotFound, msgNotFound)
	case errors.Is(err, cart.ErrInvalidCoupon):
		return NewHTTPError(http.StatusBadRequest, msgInvalidCoupon)
	case errors.Is(err, cart.ErrInvalidItem):
		return newValidationError([]FieldError{{Field: "item", Message: err.Error()}})
	case errors.Is(err, cart.ErrItemPersistence):
		return NewHTTPError(http.StatusServiceUnavailable, msgPersistence)
	case errors.Is(err, wizard.ErrTransitionNotAllowed):
		return NewHTTPError(http.StatusConflict, "action not available at this step")
	}
	return NewHTTPError(http.StatusInternalServerError, msgDBError)
}
