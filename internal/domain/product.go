package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultImage is the sentinel stored in Product.Image when no custom image
// was ever uploaded. The column is never null; absence of an image is always
// represented by this value.
const DefaultImage = "product-placeholder.jpg"

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Description string          `gorm:"size:2000" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image       string          `gorm:"size:191;not null;default:'product-placeholder.jpg'" json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasCustomImage reports whether the product references a stored asset
// rather than the placeholder sentinel.
func (p *Product) HasCustomImage() bool {
	return p.Image != "" && p.Image != DefaultImage
}
