package model

// 納品形態（デジタル / 印刷 / セット）
type Format string

const (
	FormatDigital Format = "digital"
	FormatPrint   Format = "print"
	FormatCombo   Format = "combo"
)

// Formats は表示順に並べた全形態
var Formats = []Format{FormatDigital, FormatPrint, FormatCombo}

func (f Format) Valid() bool {
	switch f {
	case FormatDigital, FormatPrint, FormatCombo:
		return true
	}
	return false
}
