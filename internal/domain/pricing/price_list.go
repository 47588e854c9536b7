package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

// PriceList は形態ごとの単価
type PriceList map[model.Format]decimal.Decimal

func DefaultPriceList() PriceList {
	return PriceList{
		model.FormatDigital: decimal.NewFromInt(399),
		model.FormatPrint:   decimal.NewFromInt(799),
		model.FormatCombo:   decimal.NewFromInt(999),
	}
}

func (p PriceList) PriceOf(f model.Format) (decimal.Decimal, error) {
	price, ok := p[f]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for format %q", f)
	}
	return price, nil
}
