package dto

import "time"

// AddStockRequest body para POST /api/warehouses/:id/stock.
type AddStockRequest struct {
	MaterialID string `json:"material_id"`
	Quantity   int64  `json:"quantity"`
}

// TransferStockRequest body para POST /api/stock/transfers.
type TransferStockRequest struct {
	FromWarehouseID string `json:"from_warehouse_id"`
	ToWarehouseID   string `json:"to_warehouse_id"`
	MaterialID      string `json:"material_id"`
	Quantity        int64  `json:"quantity"`
}

// StockItemResponse cantidad de un material en una bodega.
type StockItemResponse struct {
	ID           string    `json:"id"`
	WarehouseID  string    `json:"warehouse_id"`
	MaterialID   string    `json:"material_id"`
	MaterialName string    `json:"material_name"`
	Quantity     int64     `json:"quantity"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransferStockResponse estado de origen y destino después del traslado.
type TransferStockResponse struct {
	From StockItemResponse `json:"from"`
	To   StockItemResponse `json:"to"`
}
