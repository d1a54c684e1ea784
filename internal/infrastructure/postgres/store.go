package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

var _ ports.Store = (*Store)(nil)

// Store adaptador de documentos sobre PostgreSQL: repositorios, transacciones y change feed.
type Store struct {
	*TxRunner
	pool *pgxpool.Pool
	feed ports.ChangeFeed
}

// StoreOptions límites transaccionales.
type StoreOptions struct {
	MaxAttempts int
	MaxWrites   int
}

// NewStore construye el store. feed normalmente es un *Listener sobre el mismo pool.
func NewStore(pool *pgxpool.Pool, feed ports.ChangeFeed, opts StoreOptions, log *logger.Logger) *Store {
	return &Store{
		TxRunner: NewTxRunner(pool, opts.MaxAttempts, opts.MaxWrites, log.Component("pg_store")),
		pool:     pool,
		feed:     feed,
	}
}

// Repos devuelve repositorios sobre el pool; cada sentencia es su propia transacción.
func (s *Store) Repos() ports.Repositories {
	return newRepositories(s.pool)
}

// Subscribe implementa ports.ChangeFeed.
func (s *Store) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	return s.feed.Subscribe(ctx, topic)
}

// MaxWritesPerTx implementa ports.Store.
func (s *Store) MaxWritesPerTx() int {
	return s.maxWrites
}

func newRepositories(q Querier) ports.Repositories {
	return ports.Repositories{
		Materials:  NewMaterialRepository(q),
		Warehouses: NewWarehouseRepository(q),
		Stock:      NewStockRepository(q),
		Vehicles:   NewVehicleRepository(q),
		Users:      NewUserRepository(q),
		Requests:   NewMaterialRequestRepository(q),
	}
}
