package ports

import (
	deliveryports "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	inventoryports "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/ports"
	orderports "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/ports"
	warehouseports "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

// Stores groups the resource stores a fulfillment touches.
type Stores struct {
	Orders     orderports.Repository
	Inventory  inventoryports.Repository
	Deliveries deliveryports.Repository
	Tasks      warehouseports.TaskRepository
	Zones      warehouseports.ZoneRepository
}
