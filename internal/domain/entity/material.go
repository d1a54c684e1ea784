package entity

import "time"

// Material definición canónica del catálogo. Es la fuente de verdad del nombre;
// las copias en StockItem y RequestItem son caché y no se actualizan retroactivamente.
type Material struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
