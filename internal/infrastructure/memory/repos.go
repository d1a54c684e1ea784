package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var (
	_ repository.MaterialRepository        = (*materialRepo)(nil)
	_ repository.WarehouseRepository       = (*warehouseRepo)(nil)
	_ repository.StockRepository           = (*stockRepo)(nil)
	_ repository.VehicleRepository         = (*vehicleRepo)(nil)
	_ repository.UserRepository            = (*userRepo)(nil)
	_ repository.MaterialRequestRepository = (*requestRepo)(nil)
)

// within ejecuta fn en la transacción del repo o, si no tiene, en una transacción propia.
func within(ctx context.Context, s *Store, t *txn, fn func(t *txn) error) error {
	if t != nil {
		return fn(t)
	}
	return s.run(ctx, func(_ context.Context, t *txn) error { return fn(t) })
}

func load[T any](t *txn, coll collection, id string, clone func(T) T) *T {
	v, ok := t.get(docKey{coll: coll, id: id})
	if !ok {
		return nil
	}
	c := clone(v.(T))
	return &c
}

func loadAll[T any](t *txn, coll collection, clone func(T) T) []*T {
	docs := t.scan(coll)
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		c := clone(d.(T))
		out = append(out, &c)
	}
	return out
}

func same[T any](v T) T { return v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneVehicle(v entity.Vehicle) entity.Vehicle {
	v.UserIDs = slices.Clone(v.UserIDs)
	v.AssignedWarehouseID = clonePtr(v.AssignedWarehouseID)
	return v
}

func cloneUser(u entity.User) entity.User {
	u.AssignedVehicleID = clonePtr(u.AssignedVehicleID)
	return u
}

func cloneRequest(r entity.MaterialRequest) entity.MaterialRequest {
	r.Items = slices.Clone(r.Items)
	r.Attachments = slices.Clone(r.Attachments)
	r.ApprovalDate = clonePtr(r.ApprovalDate)
	r.RejectionDate = clonePtr(r.RejectionDate)
	r.CancellationDate = clonePtr(r.CancellationDate)
	r.DeliveryDate = clonePtr(r.DeliveryDate)
	r.AdminNotes = clonePtr(r.AdminNotes)
	return r
}

// ─── Materiales ──────────────────────────────────────────────────────────────

type materialRepo struct {
	s *Store
	t *txn
}

func (r *materialRepo) Create(ctx context.Context, m *entity.Material) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colMaterials, m.ID, same[entity.Material]) != nil {
			return domain.Validation("material %s duplicado", m.ID)
		}
		t.put(docKey{colMaterials, m.ID}, *m)
		return nil
	})
}

func (r *materialRepo) GetByID(ctx context.Context, id string) (out *entity.Material, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = load(t, colMaterials, id, same[entity.Material])
		return nil
	})
	return out, err
}

func (r *materialRepo) List(ctx context.Context) (out []*entity.Material, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = loadAll(t, colMaterials, same[entity.Material])
		return nil
	})
	return out, err
}

// ─── Bodegas ─────────────────────────────────────────────────────────────────

type warehouseRepo struct {
	s *Store
	t *txn
}

func (r *warehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colWarehouses, w.ID, same[entity.Warehouse]) != nil {
			return domain.Validation("bodega %s duplicada", w.ID)
		}
		t.put(docKey{colWarehouses, w.ID}, *w)
		return nil
	})
}

func (r *warehouseRepo) GetByID(ctx context.Context, id string) (out *entity.Warehouse, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = load(t, colWarehouses, id, same[entity.Warehouse])
		return nil
	})
	return out, err
}

func (r *warehouseRepo) List(ctx context.Context) (out []*entity.Warehouse, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = loadAll(t, colWarehouses, same[entity.Warehouse])
		return nil
	})
	return out, err
}

// ─── Stock ───────────────────────────────────────────────────────────────────

type stockRepo struct {
	s *Store
	t *txn
}

func stockID(warehouseID, materialID string) string {
	return warehouseID + "|" + materialID
}

func (r *stockRepo) Get(ctx context.Context, warehouseID, materialID string) (out *entity.StockItem, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = load(t, colStock, stockID(warehouseID, materialID), same[entity.StockItem])
		return nil
	})
	return out, err
}

// GetForUpdate no bloquea: la validación optimista del commit cubre el caso.
func (r *stockRepo) GetForUpdate(ctx context.Context, warehouseID, materialID string) (*entity.StockItem, error) {
	return r.Get(ctx, warehouseID, materialID)
}

func (r *stockRepo) Upsert(ctx context.Context, item *entity.StockItem) error {
	if item.Quantity < 0 {
		return domain.Validation("cantidad negativa para %s en bodega %s", item.MaterialID, item.WarehouseID)
	}
	return within(ctx, r.s, r.t, func(t *txn) error {
		key := docKey{colStock, stockID(item.WarehouseID, item.MaterialID)}
		if prev := load(t, colStock, key.id, same[entity.StockItem]); prev != nil {
			item.ID = prev.ID
		} else if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = time.Now()
		}
		t.put(key, *item)
		return nil
	})
}

func (r *stockRepo) ListByWarehouse(ctx context.Context, warehouseID string) (out []*entity.StockItem, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = nil
		for _, it := range loadAll(t, colStock, same[entity.StockItem]) {
			if it.WarehouseID == warehouseID {
				out = append(out, it)
			}
		}
		slices.SortFunc(out, func(a, b *entity.StockItem) int {
			return cmp.Compare(a.MaterialName, b.MaterialName)
		})
		return nil
	})
	return out, err
}

// ─── Vehículos ───────────────────────────────────────────────────────────────

type vehicleRepo struct {
	s *Store
	t *txn
}

func (r *vehicleRepo) Create(ctx context.Context, v *entity.Vehicle) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colVehicles, v.ID, cloneVehicle) != nil {
			return domain.Validation("vehículo %s duplicado", v.ID)
		}
		t.put(docKey{colVehicles, v.ID}, cloneVehicle(*v))
		return nil
	})
}

func (r *vehicleRepo) GetByID(ctx context.Context, id string) (out *entity.Vehicle, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = load(t, colVehicles, id, cloneVehicle)
		return nil
	})
	return out, err
}

func (r *vehicleRepo) Update(ctx context.Context, v *entity.Vehicle) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colVehicles, v.ID, cloneVehicle) == nil {
			return domain.NotFound("vehículo", v.ID)
		}
		t.put(docKey{colVehicles, v.ID}, cloneVehicle(*v))
		return nil
	})
}

func (r *vehicleRepo) Delete(ctx context.Context, id string) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		t.del(docKey{colVehicles, id})
		return nil
	})
}

func (r *vehicleRepo) List(ctx context.Context) (out []*entity.Vehicle, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = loadAll(t, colVehicles, cloneVehicle)
		return nil
	})
	return out, err
}

func (r *vehicleRepo) FindByAssignedWarehouse(ctx context.Context, warehouseID string) (out *entity.Vehicle, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = nil
		for _, v := range loadAll(t, colVehicles, cloneVehicle) {
			if v.HasWarehouse(warehouseID) {
				out = v
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

type userRepo struct {
	s *Store
	t *txn
}

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colUsers, u.ID, cloneUser) != nil {
			return domain.Validation("usuario %s duplicado", u.ID)
		}
		t.put(docKey{colUsers, u.ID}, cloneUser(*u))
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (out *entity.User, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = load(t, colUsers, id, cloneUser)
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (out *entity.User, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = nil
		for _, u := range loadAll(t, colUsers, cloneUser) {
			if strings.EqualFold(u.Email, email) {
				out = u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) ListByRole(ctx context.Context, role string) (out []*entity.User, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = nil
		for _, u := range loadAll(t, colUsers, cloneUser) {
			if u.Role == role {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) SetAssignedVehicle(ctx context.Context, userID string, vehicleID *string) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		u := load(t, colUsers, userID, cloneUser)
		if u == nil {
			return domain.NotFound("usuario", userID)
		}
		u.AssignedVehicleID = clonePtr(vehicleID)
		t.put(docKey{colUsers, userID}, *u)
		return nil
	})
}

// ─── Solicitudes ─────────────────────────────────────────────────────────────

type requestRepo struct {
	s *Store
	t *txn
}

func (r *requestRepo) Create(ctx context.Context, req *entity.MaterialRequest) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colRequests, req.ID, cloneRequest) != nil {
			return domain.Validation("solicitud %s duplicada", req.ID)
		}
		t.put(docKey{colRequests, req.ID}, cloneRequest(*req))
		return nil
	})
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (out *entity.MaterialRequest, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = load(t, colRequests, id, cloneRequest)
		return nil
	})
	return out, err
}

func (r *requestRepo) Update(ctx context.Context, req *entity.MaterialRequest) error {
	return within(ctx, r.s, r.t, func(t *txn) error {
		if load(t, colRequests, req.ID, cloneRequest) == nil {
			return domain.NotFound("solicitud", req.ID)
		}
		t.put(docKey{colRequests, req.ID}, cloneRequest(*req))
		return nil
	})
}

func (r *requestRepo) List(ctx context.Context, q repository.RequestQuery) (out []*entity.MaterialRequest, err error) {
	err = within(ctx, r.s, r.t, func(t *txn) error {
		out = nil
		for _, req := range loadAll(t, colRequests, cloneRequest) {
			if q.WorkerID != "" && req.WorkerID != q.WorkerID {
				continue
			}
			if q.Status != nil && req.Status != *q.Status {
				continue
			}
			out = append(out, req)
		}
		SortRequests(out, q)
		return nil
	})
	return out, err
}

// SortRequests ordena como el ORDER BY de PostgreSQL: fechas nulas al final en ambos sentidos
// y desempate por id.
func SortRequests(list []*entity.MaterialRequest, q repository.RequestQuery) {
	dir := 1
	if q.Descending {
		dir = -1
	}
	byDate := func(a, b *time.Time) int {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 2 // nulos siempre al final, sin importar la dirección
		case b == nil:
			return -2
		}
		return dir * a.Compare(*b)
	}
	slices.SortStableFunc(list, func(a, b *entity.MaterialRequest) int {
		var c int
		switch q.OrderBy {
		case repository.OrderByApprovalDate:
			c = byDate(a.ApprovalDate, b.ApprovalDate)
		case repository.OrderByDeliveryDate:
			c = byDate(a.DeliveryDate, b.DeliveryDate)
		case repository.OrderByStatus:
			c = dir * cmp.Compare(a.Status.String(), b.Status.String())
		default:
			c = dir * a.RequestDate.Compare(b.RequestDate)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
