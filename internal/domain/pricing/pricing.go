// Package pricing は カート金額と割引の計算（副作用なし）。
//
// 合計 = max(0, 小計 − 小計×クーポン率 − ファミリーパック割引)
// クーポン率は割引前の小計に掛ける。ファミリーパックを引いた後の金額には掛けない。
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

// Line は計算に必要な最小限の明細
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Policy は割引ルール（設定から注入）
type Policy struct {
	Coupons             CouponTable
	FamilyPackThreshold int
	FamilyPackAmount    decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		Coupons:             DefaultCoupons(),
		FamilyPackThreshold: 2,
		FamilyPackAmount:    decimal.NewFromInt(200),
	}
}

// Quote は画面表示用の内訳
type Quote struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	CouponCode         string          `json:"coupon_code,omitempty"`
	CouponFraction     decimal.Decimal `json:"coupon_fraction"`
	CouponDiscount     decimal.Decimal `json:"coupon_discount"`
	FamilyPackDiscount decimal.Decimal `json:"family_pack_discount"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	Total              decimal.Decimal `json:"total"`
	TotalQuantity      int             `json:"total_quantity"`
}

// LinesFromCart はカート明細をLineに変換
func LinesFromCart(items []model.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{UnitPrice: it.Price, Quantity: it.Quantity})
	}
	return lines
}

// Subtotal = Σ 単価×数量
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func TotalQuantity(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// FamilyPackDiscount は合計数量がしきい値以上なら固定額、それ以外は0
func (p Policy) FamilyPackDiscount(lines []Line) decimal.Decimal {
	if p.FamilyPackThreshold > 0 && TotalQuantity(lines) >= p.FamilyPackThreshold {
		return p.FamilyPackAmount
	}
	return decimal.Zero
}

// Total は max(0, subtotal - subtotal*fraction - flat)
func (p Policy) Total(lines []Line, fraction decimal.Decimal) decimal.Decimal {
	subtotal := Subtotal(lines)
	total := subtotal.Sub(subtotal.Mul(fraction)).Sub(p.FamilyPackDiscount(lines))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Quote は内訳付きで計算する
func (p Policy) Quote(lines []Line, coupon Coupon) Quote {
	fraction := decimal.Zero
	if coupon.Active() {
		fraction = coupon.Fraction
	}

	subtotal := Subtotal(lines)
	couponDiscount := subtotal.Mul(fraction)
	familyPack := p.FamilyPackDiscount(lines)

	return Quote{
		Subtotal:           subtotal,
		CouponCode:         coupon.Code,
		CouponFraction:     fraction,
		CouponDiscount:     couponDiscount,
		FamilyPackDiscount: familyPack,
		TotalDiscount:      couponDiscount.Add(familyPack),
		Total:              p.Total(lines, fraction),
		TotalQuantity:      TotalQuantity(lines),
	}
}

// Display は通貨表示用に小数2桁へ丸める
func Display(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// MinorUnits は決済ウィジェット用の金額（パイサ）。
// 先に整数の通貨単位へ丸めてから100倍する。
func MinorUnits(total decimal.Decimal) int64 {
	return total.Round(0).Mul(decimal.NewFromInt(100)).IntPart()
}
