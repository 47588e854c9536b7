package wizard

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

// FieldError は入力欄ごとのエラー
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError はステップの検証エラー（先へ進めない理由）
type ValidationError struct {
	Step   Step
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("step %s is incomplete: %s", e.Step, strings.Join(names, ", "))
}

type fieldErrors []FieldError

func (fe *fieldErrors) required(field, value, label string) {
	if strings.TrimSpace(value) == "" {
		*fe = append(*fe, FieldError{Field: field, Message: label + " is required"})
	}
}

func (fe fieldErrors) err(step Step) error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Step: step, Fields: fe}
}

// ValidateStep はそのステップの「次へ」条件
func ValidateStep(step Step, d Data) error {
	var fe fieldErrors

	switch step {
	case StepSelectProduct:
		fe.required("product_id", d.ProductID, "book")
	case StepSelectFormat:
		if !d.Format.Valid() {
			fe = append(fe, FieldError{Field: "format", Message: "choose digital, print or combo"})
		}
	case StepPersonalize:
		fe.required("character_name", d.CharacterName, "child name")
	case StepPreview:
		// 確認のみ
	case StepShippingDetails:
		fe = append(fe, ValidateShipping(d.Shipping)...)
	default:
		return &ValidationError{Step: step, Fields: []FieldError{{Field: "step", Message: "step cannot be advanced"}}}
	}

	return fe.err(step)
}

// ValidateAll は支払い前の全体チェック
func ValidateAll(d Data) error {
	var fe fieldErrors
	fe.required("product_id", d.ProductID, "book")
	if !d.Format.Valid() {
		fe = append(fe, FieldError{Field: "format", Message: "choose digital, print or combo"})
	}
	fe.required("character_name", d.CharacterName, "child name")
	fe = append(fe, ValidateShipping(d.Shipping)...)
	return fe.err(StepShippingDetails)
}

// ValidateShipping は配送先の必須項目とメール形式
func ValidateShipping(s model.ShippingAddress) []FieldError {
	var fe fieldErrors
	fe.required("full_name", s.FullName, "full name")
	fe.required("email", s.Email, "email")
	fe.required("phone", s.Phone, "phone")
	fe.required("address", s.Address, "address")
	fe.required("city", s.City, "city")
	fe.required("state", s.State, "state")
	fe.required("postal_code", s.PostalCode, "postal code")

	if email := strings.TrimSpace(s.Email); email != "" && !isEmailLike(email) {
		fe = append(fe, FieldError{Field: "email", Message: "email is malformed"})
	}
	return fe
}

func isEmailLike(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// "Name <a@b>" 形式は不可
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
