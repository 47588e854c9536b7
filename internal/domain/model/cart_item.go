package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// 追加時点の価格（Price）を必ず保存。あとから再計算しない。
type CartItem struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string          `gorm:"type:uuid;not null;index" json:"-"`
	ProductID    string          `gorm:"type:varchar(100);not null" json:"product_id"`
	ProductTitle string          `gorm:"column:product_title;type:varchar(255);not null" json:"title"`
	ProductImage string          `gorm:"column:product_image;type:text;not null" json:"image"`
	Format       Format          `gorm:"type:varchar(20);not null" json:"format"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`

	//パーソナライズ（任意）
	CharacterName string `gorm:"type:varchar(255)" json:"character_name,omitempty"`
	CustomMessage string `gorm:"type:text" json:"custom_message,omitempty"`
	CustomStory   string `gorm:"type:text" json:"custom_story,omitempty"`
	CustomTitle   string `gorm:"type:varchar(255)" json:"custom_title,omitempty"`
	PhotoURL      string `gorm:"type:text" json:"photo_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// LineTotal は単価×数量
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
