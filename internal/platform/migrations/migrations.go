package migrations

import (
	"strings"

	"gorm.io/gorm"

	orderspostgres "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/persistence/postgres"
)

// Run applies the orders schema to the given table. Safe to call on every start.
func Run(db *gorm.DB, ordersTable string) error {
	if db == nil {
		return nil
	}
	if strings.TrimSpace(ordersTable) == "" {
		ordersTable = orderspostgres.DefaultTable
	}
	return db.Table(ordersTable).AutoMigrate(&orderspostgres.OrderRecord{})
}
