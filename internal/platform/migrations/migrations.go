package migrations

import (
	"gorm.io/gorm"

	deliverypostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/adapters/persistence/postgres"
	fulfillmentpostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/persistence/postgres"
	inventorypostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/adapters/persistence/postgres"
	orderpostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/adapters/persistence/postgres"
	warehousepostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/adapters/persistence/postgres"
)

// Models collects the records owned by every Postgres adapter.
func Models() []any {
	var models []any
	models = append(models, orderpostgres.Models()...)
	models = append(models, inventorypostgres.Models()...)
	models = append(models, deliverypostgres.Models()...)
	models = append(models, warehousepostgres.Models()...)
	models = append(models, fulfillmentpostgres.Models()...)
	return models
}

// Run applies the schema for the bounded contexts.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(Models()...)
}
