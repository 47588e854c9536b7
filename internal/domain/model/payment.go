package model

// 決済ウィジェットを開くための依頼
type PaymentRequest struct {
	AmountMinor int64 // パイサ
	Currency    string
	Description string
	Name        string
	Email       string
	Phone       string
	Notes       map[string]string
}

// 決済ウィジェットの初期化パラメータ（フロントにそのまま渡す）
type PaymentOptions struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Image       string            `json:"image,omitempty"`
	Prefill     PaymentPrefill    `json:"prefill"`
	Notes       map[string]string `json:"notes,omitempty"`
	Theme       PaymentTheme      `json:"theme"`
}

type PaymentPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type PaymentTheme struct {
	Color string `json:"color"`
}

// 通貨（INRのみ）
const CurrencyINR = "INR"
