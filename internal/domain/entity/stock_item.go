package entity

import "time"

// StockItem cantidad de un material en una bodega. Hay uno por par (bodega, material)
// y Quantity nunca es negativa.
type StockItem struct {
	ID           string
	WarehouseID  string
	MaterialID   string
	MaterialName string
	Quantity     int64
	UpdatedAt    time.Time
}
