package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CouponTable は固定のクーポンコード表（大文字キー → 割引率）
type CouponTable map[string]decimal.Decimal

// 有効なクーポン。ゼロ値は「クーポンなし」
type Coupon struct {
	Code     string          `json:"code"`
	Fraction decimal.Decimal `json:"fraction"`
}

func (c Coupon) Active() bool {
	return c.Code != ""
}

// DefaultCoupons は初期のコード表
func DefaultCoupons() CouponTable {
	return CouponTable{
		"HARSHI10": decimal.RequireFromString("0.10"),
		"SIVA100":  decimal.RequireFromString("0.98"),
		"GANESH95": decimal.RequireFromString("0.95"),
	}
}

// NewCouponTable は割引率が [0,1) に入っているか確認してから表を作る
func NewCouponTable(entries map[string]decimal.Decimal) (CouponTable, error) {
	t := make(CouponTable, len(entries))
	for code, f := range entries {
		key := normalizeCode(code)
		if key == "" {
			return nil, fmt.Errorf("coupon code is empty")
		}
		if f.IsNegative() || f.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("coupon %s: fraction must be in [0,1), got %s", key, f)
		}
		t[key] = f
	}
	return t, nil
}

// Lookup は大文字小文字を無視して検索する。
// 見つかった場合、Codeは入力されたままの文字列を返す。
func (t CouponTable) Lookup(code string) (Coupon, bool) {
	trimmed := strings.TrimSpace(code)
	f, ok := t[normalizeCode(trimmed)]
	if !ok {
		return Coupon{}, false
	}
	return Coupon{Code: trimmed, Fraction: f}, true
}

// Codes はヒント表示用
func (t CouponTable) Codes() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
