package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細（購入時点のスナップショット）
type OrderItem struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductTitle  string          `gorm:"type:varchar(255);not null" json:"title"`
	ProductImage  string          `gorm:"type:text;not null" json:"image"`
	Format        Format          `gorm:"type:varchar(20);not null" json:"format"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	CharacterName string          `gorm:"type:varchar(255)" json:"character_name,omitempty"`
	CustomMessage string          `gorm:"type:text" json:"custom_message,omitempty"`
	CustomStory   string          `gorm:"type:text" json:"custom_story,omitempty"`
	CustomTitle   string          `gorm:"type:varchar(255)" json:"custom_title,omitempty"`
	PhotoURL      string          `gorm:"type:text" json:"photo_url,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
