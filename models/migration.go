package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates or updates the schema for every model in dependency
// order.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Unit{},
		&Item{},
		&Party{},
		&User{},
		&Invoice{},
		&InvoiceLine{},
		&StockMovement{},
		&StockValPeriod{},
	)
}
