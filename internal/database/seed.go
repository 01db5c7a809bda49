package database

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/catalogops/priced-catalog-service/internal/domain"
)

// Seed inserts a small sample catalog for local development. Rows that
// already exist (by name) are left untouched.
func Seed(db *gorm.DB) error {
	samples := []domain.Product{
		{Name: "Walnut Desk Organizer", Description: "Five-compartment organizer in oiled walnut.", Price: decimal.NewFromFloat(34.90)},
		{Name: "Ceramic Pour-Over Set", Description: "Dripper, carafe and two cups in matte ceramic.", Price: decimal.NewFromFloat(58.00)},
		{Name: "Linen Throw Blanket", Description: "Stonewashed linen, 130x180cm.", Price: decimal.NewFromFloat(79.50)},
	}
	for i := range samples {
		samples[i].Image = domain.DefaultImage
		var existing domain.Product
		err := db.Where("name = ?", samples[i].Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&samples[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
