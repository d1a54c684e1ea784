// Package memory implementa el adaptador de store en memoria: transacciones optimistas con
// validación de lecturas al confirmar, reintento automático ante conflicto y change feed local.
// Se usa en tests y en modo STORE_DRIVER=memory.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/infrastructure/changefeed"
)

var _ ports.Store = (*Store)(nil)

type collection string

const (
	colMaterials  collection = "materials"
	colWarehouses collection = "warehouses"
	colStock      collection = "stock_items"
	colVehicles   collection = "vehicles"
	colUsers      collection = "users"
	colRequests   collection = "material_requests"
)

type docKey struct {
	coll collection
	id   string
}

// tombstone marca un documento borrado dentro de una transacción.
type tombstone struct{}

// ErrConflict indica que otra transacción confirmó cambios sobre lo leído.
var ErrConflict = errors.New("conflicto de escritura concurrente")

// Store documentos versionados en memoria.
type Store struct {
	mu           sync.RWMutex
	docs         map[docKey]any
	versions     map[docKey]uint64
	collVersions map[collection]uint64
	seq          uint64

	hub          *changefeed.Hub
	maxAttempts  int
	maxWrites    int
	beforeCommit func(attempt int)
}

// Option configura el Store.
type Option func(*Store)

// WithMaxAttempts reintentos ante conflicto (por defecto 5).
func WithMaxAttempts(n int) Option {
	return func(s *Store) { s.maxAttempts = n }
}

// WithMaxWrites techo de documentos escritos por transacción (0 = sin límite).
func WithMaxWrites(n int) Option {
	return func(s *Store) { s.maxWrites = n }
}

// WithBeforeCommit registra un hook que corre entre el cuerpo de la transacción y su commit.
// Permite a los tests provocar conflictos reales.
func WithBeforeCommit(fn func(attempt int)) Option {
	return func(s *Store) { s.beforeCommit = fn }
}

// New construye un store vacío.
func New(opts ...Option) *Store {
	s := &Store{
		docs:         make(map[docKey]any),
		versions:     make(map[docKey]uint64),
		collVersions: make(map[collection]uint64),
		hub:          changefeed.NewHub(),
		maxAttempts:  5,
		maxWrites:    500,
	}
	for _, o := range opts {
		o(s)
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}
	return s
}

// Subscribe implementa ports.ChangeFeed.
func (s *Store) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	return s.hub.Subscribe(ctx, topic)
}

// MaxWritesPerTx implementa ports.Store.
func (s *Store) MaxWritesPerTx() int {
	return s.maxWrites
}

// Repos devuelve repositorios en los que cada operación es su propia transacción.
func (s *Store) Repos() ports.Repositories {
	return s.repos(nil)
}

func (s *Store) repos(t *txn) ports.Repositories {
	return ports.Repositories{
		Materials:  &materialRepo{s: s, t: t},
		Warehouses: &warehouseRepo{s: s, t: t},
		Stock:      &stockRepo{s: s, t: t},
		Vehicles:   &vehicleRepo{s: s, t: t},
		Users:      &userRepo{s: s, t: t},
		Requests:   &requestRepo{s: s, t: t},
	}
}

// Run implementa ports.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	return s.run(ctx, func(ctx context.Context, t *txn) error {
		return fn(ctx, s.repos(t))
	})
}

func (s *Store) run(ctx context.Context, fn func(ctx context.Context, t *txn) error) error {
	if err := ctx.Err(); err != nil {
		return domain.Unavailable("iniciar transacción", err)
	}
	// Una vez enviada, la transacción no se cancela: confirma o falla completa.
	ctx = context.WithoutCancel(ctx)

	for attempt := 1; ; attempt++ {
		t := &txn{
			s:      s,
			reads:  make(map[docKey]uint64),
			scans:  make(map[collection]uint64),
			writes: make(map[docKey]any),
		}
		if err := fn(ctx, t); err != nil {
			// Un error de negocio calculado sobre lecturas ya obsoletas se vuelve a evaluar.
			if attempt < s.maxAttempts && s.stale(t) {
				continue
			}
			return err
		}
		if s.beforeCommit != nil {
			s.beforeCommit(attempt)
		}
		topics, err := s.commit(t)
		if errors.Is(err, ErrConflict) {
			if attempt < s.maxAttempts {
				continue
			}
			return domain.Unavailable(fmt.Sprintf("transacción tras %d intentos", attempt), err)
		}
		if err != nil {
			return err
		}
		for _, topic := range topics {
			s.hub.Publish(topic)
		}
		return nil
	}
}

// stale indica si alguna lectura de t ya no coincide con lo confirmado.
func (s *Store) stale(t *txn) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validate(t) != nil
}

func (s *Store) validate(t *txn) error {
	for k, ver := range t.reads {
		if s.versions[k] != ver {
			return ErrConflict
		}
	}
	for c, ver := range t.scans {
		if s.collVersions[c] != ver {
			return ErrConflict
		}
	}
	return nil
}

func (s *Store) commit(t *txn) ([]string, error) {
	if s.maxWrites > 0 && len(t.writes) > s.maxWrites {
		return nil, domain.Validation("la transacción escribe %d documentos (máximo %d)", len(t.writes), s.maxWrites)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(t); err != nil {
		return nil, err
	}
	if len(t.writes) == 0 {
		return nil, nil
	}
	if err := s.checkVehicleWarehouseUnique(t); err != nil {
		return nil, err
	}

	s.seq++
	topicSet := make(map[string]struct{})
	for k, v := range t.writes {
		if _, dead := v.(tombstone); dead {
			if old, ok := s.docs[k]; ok {
				topicSet[topicFor(k, old)] = struct{}{}
			}
			delete(s.docs, k)
		} else {
			s.docs[k] = v
			topicSet[topicFor(k, v)] = struct{}{}
		}
		s.versions[k] = s.seq
		s.collVersions[k.coll] = s.seq
	}

	topics := make([]string, 0, len(topicSet))
	for tp := range topicSet {
		topics = append(topics, tp)
	}
	sort.Strings(topics)
	return topics, nil
}

// checkVehicleWarehouseUnique equivale al índice único parcial de PostgreSQL sobre
// vehicles.assigned_warehouse_id. Se evalúa bajo el lock del commit.
func (s *Store) checkVehicleWarehouseUnique(t *txn) error {
	holders := make(map[string]string)
	check := func(id string, v entity.Vehicle) error {
		if v.AssignedWarehouseID == nil {
			return nil
		}
		wh := *v.AssignedWarehouseID
		if other, ok := holders[wh]; ok && other != id {
			return fmt.Errorf("%w: bodega %s", domain.ErrAlreadyAssigned, wh)
		}
		holders[wh] = id
		return nil
	}
	touched := false
	for k, v := range t.writes {
		if k.coll != colVehicles {
			continue
		}
		touched = true
		if veh, ok := v.(entity.Vehicle); ok {
			if err := check(k.id, veh); err != nil {
				return err
			}
		}
	}
	if !touched {
		return nil
	}
	for k, v := range s.docs {
		if k.coll != colVehicles {
			continue
		}
		if _, overwritten := t.writes[k]; overwritten {
			continue
		}
		if err := check(k.id, v.(entity.Vehicle)); err != nil {
			return err
		}
	}
	return nil
}

func topicFor(k docKey, v any) string {
	switch k.coll {
	case colMaterials:
		return ports.TopicMaterials
	case colWarehouses:
		return ports.TopicWarehouses
	case colStock:
		return ports.StockTopic(v.(entity.StockItem).WarehouseID)
	case colVehicles:
		return ports.TopicVehicles
	case colUsers:
		return ports.TopicUsers
	case colRequests:
		return ports.TopicRequests
	}
	return string(k.coll)
}

// txn conjunto de lecturas (con la versión vista) y escrituras pendientes.
type txn struct {
	s      *Store
	reads  map[docKey]uint64
	scans  map[collection]uint64
	writes map[docKey]any
}

func (t *txn) get(k docKey) (any, bool) {
	if v, ok := t.writes[k]; ok {
		if _, dead := v.(tombstone); dead {
			return nil, false
		}
		return v, true
	}
	t.s.mu.RLock()
	v, ok := t.s.docs[k]
	ver := t.s.versions[k]
	t.s.mu.RUnlock()
	if _, seen := t.reads[k]; !seen {
		t.reads[k] = ver
	}
	return v, ok
}

// scan devuelve los documentos de coll vistos por la transacción, ordenados por id.
func (t *txn) scan(coll collection) []any {
	t.s.mu.RLock()
	if _, seen := t.scans[coll]; !seen {
		t.scans[coll] = t.s.collVersions[coll]
	}
	merged := make(map[string]any)
	for k, v := range t.s.docs {
		if k.coll == coll {
			merged[k.id] = v
		}
	}
	t.s.mu.RUnlock()

	for k, v := range t.writes {
		if k.coll != coll {
			continue
		}
		if _, dead := v.(tombstone); dead {
			delete(merged, k.id)
		} else {
			merged[k.id] = v
		}
	}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, merged[id])
	}
	return out
}

func (t *txn) put(k docKey, v any) {
	t.writes[k] = v
}

func (t *txn) del(k docKey) {
	t.writes[k] = tombstone{}
}
