package entity

import (
	"slices"
	"time"
)

// DefaultMaxUsers capacidad de tripulación de un vehículo recién creado.
const DefaultMaxUsers = 6

// Vehicle vehículo de la flota con su tripulación y, opcionalmente, una bodega móvil asignada.
type Vehicle struct {
	ID                  string
	Plate               string
	Description         string
	UserIDs             []string
	MaxUsers            int
	AssignedWarehouseID *string
	CreatedAt           time.Time
}

// HasUser indica si userID forma parte de la tripulación.
func (v *Vehicle) HasUser(userID string) bool {
	return slices.Contains(v.UserIDs, userID)
}

// IsFull indica si la tripulación alcanzó MaxUsers.
func (v *Vehicle) IsFull() bool {
	return len(v.UserIDs) >= v.MaxUsers
}

// AddUser agrega userID a la tripulación. Devuelve false si no hay cupo.
// Agregar un usuario que ya está es idempotente.
func (v *Vehicle) AddUser(userID string) bool {
	if v.HasUser(userID) {
		return true
	}
	if v.IsFull() {
		return false
	}
	v.UserIDs = append(v.UserIDs, userID)
	return true
}

// RemoveUser quita userID de la tripulación si estaba.
func (v *Vehicle) RemoveUser(userID string) {
	v.UserIDs = slices.DeleteFunc(v.UserIDs, func(id string) bool { return id == userID })
}

// HasWarehouse indica si el vehículo tiene la bodega warehouseID asignada.
func (v *Vehicle) HasWarehouse(warehouseID string) bool {
	return v.AssignedWarehouseID != nil && *v.AssignedWarehouseID == warehouseID
}
