package database

import (
	"github.com/catalogops/priced-catalog-service/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Product{},
	)
}
