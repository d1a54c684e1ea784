package ports

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// Repositories agrupa los repositorios de un mismo alcance: atados a una transacción
// (dentro de TxRunner.Run) o al store sin transacción (Store.Repos).
type Repositories struct {
	Materials  repository.MaterialRepository
	Warehouses repository.WarehouseRepository
	Stock      repository.StockRepository
	Vehicles   repository.VehicleRepository
	Users      repository.UserRepository
	Requests   repository.MaterialRequestRepository
}

// TxRunner ejecuta fn dentro de una transacción atómica del store, pasando repositorios atados a ella.
// Todas las lecturas deben hacerse con esos repositorios. Ante un conflicto de escritura el store
// vuelve a ejecutar fn, así que fn no debe tener efectos fuera de la transacción.
// Una vez enviada, la transacción confirma o falla completa.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// ChangeFeed notifica cambios confirmados por tópico. El canal recibe una señal (coalescida)
// por cada commit que afecta el tópico y se cierra cuando ctx termina.
type ChangeFeed interface {
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, error)
}

// Store adaptador de almacenamiento de documentos consumido por los casos de uso.
type Store interface {
	TxRunner
	ChangeFeed
	// Repos devuelve repositorios sin transacción para lecturas y escrituras simples.
	Repos() Repositories
	// MaxWritesPerTx techo de documentos escritos por transacción (0 = sin límite).
	MaxWritesPerTx() int
}

// Tópicos del ChangeFeed.
const (
	TopicMaterials  = "materials"
	TopicWarehouses = "warehouses"
	TopicVehicles   = "vehicles"
	TopicUsers      = "users"
	TopicRequests   = "material_requests"
)

// StockTopic tópico de cambios del stock de una bodega.
func StockTopic(warehouseID string) string {
	return "stock:" + warehouseID
}
