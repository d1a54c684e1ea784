package entity

import (
	"fmt"
	"time"
)

// WarehouseType distingue la bodega central (fija) de las bodegas móviles de los vehículos.
// El valor cero no es válido: un tipo desconocido nunca se interpreta como FIXED ni MOBILE.
type WarehouseType int

const (
	warehouseTypeUnknown WarehouseType = iota
	WarehouseFixed
	WarehouseMobile
)

var warehouseTypeNames = map[WarehouseType]string{
	WarehouseFixed:  "FIXED",
	WarehouseMobile: "MOBILE",
}

// String devuelve el nombre persistido del tipo.
func (t WarehouseType) String() string {
	if s, ok := warehouseTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("WarehouseType(%d)", int(t))
}

// Valid indica si el tipo es FIXED o MOBILE.
func (t WarehouseType) Valid() bool {
	_, ok := warehouseTypeNames[t]
	return ok
}

// ParseWarehouseType convierte el nombre persistido al tipo; error si no se reconoce.
func ParseWarehouseType(s string) (WarehouseType, error) {
	for t, name := range warehouseTypeNames {
		if name == s {
			return t, nil
		}
	}
	return warehouseTypeUnknown, fmt.Errorf("tipo de bodega desconocido: %q", s)
}

// MarshalText implementa encoding.TextMarshaler.
func (t WarehouseType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tipo de bodega inválido: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implementa encoding.TextUnmarshaler.
func (t *WarehouseType) UnmarshalText(b []byte) error {
	v, err := ParseWarehouseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Warehouse representa una bodega: la central (FIXED) o la bodega móvil de un vehículo (MOBILE).
type Warehouse struct {
	ID        string
	Name      string
	Type      WarehouseType
	CreatedAt time.Time
}

// IsMobile indica si la bodega puede asignarse a un vehículo.
func (w *Warehouse) IsMobile() bool {
	return w.Type == WarehouseMobile
}
