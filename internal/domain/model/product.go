package model

import "time"

// 絵本（カタログ）
// IDはURLで使うslug
type Product struct {
	ID          string    `gorm:"type:varchar(100);primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Image       string    `gorm:"type:text;not null" json:"image"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	SortOrder   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 初期データ
func DefaultProducts() []Product {
	return []Product{
		{
			ID:          "superhero-adventure",
			Title:       "Superhero Adventure",
			Image:       "/lovable-uploads/26aab459-6fcc-4964-a14d-07eba0bfa570.png",
			Description: "Join the ultimate superhero adventure and save the world!",
			IsActive:    true,
			SortOrder:   1,
		},
		{
			ID:          "magic-kingdom",
			Title:       "Magic Kingdom Quest",
			Image:       "/lovable-uploads/f9d4de95-28ea-4a11-a289-42765f7efcca.png",
			Description: "Embark on a magical journey through enchanted lands!",
			IsActive:    true,
			SortOrder:   2,
		},
		{
			ID:          "space-explorer",
			Title:       "Space Explorer",
			Image:       "/lovable-uploads/c005fccf-6243-4c21-9d0b-707d54196f0e.png",
			Description: "Explore the galaxy and discover new worlds!",
			IsActive:    true,
			SortOrder:   3,
		},
		{
			ID:          "princess-adventure",
			Title:       "Princess Adventure",
			Image:       "/lovable-uploads/8088ea2d-d3e8-42fd-a1f4-8074105b9842.png",
			Description: "A royal adventure filled with courage and friendship!",
			IsActive:    true,
			SortOrder:   4,
		},
	}
}
