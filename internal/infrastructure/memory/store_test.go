package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

func addQty(ctx context.Context, repos ports.Repositories, wh, mat string, delta int64) error {
	it, err := repos.Stock.GetForUpdate(ctx, wh, mat)
	if err != nil {
		return err
	}
	if it == nil {
		it = &entity.StockItem{WarehouseID: wh, MaterialID: mat}
	}
	it.Quantity += delta
	return repos.Stock.Upsert(ctx, it)
}

func TestStore_ConflictoReintentaLaTransaccion(t *testing.T) {
	ctx := context.Background()
	var s *Store
	injected := false
	attempts := 0
	s = New(WithBeforeCommit(func(attempt int) {
		attempts = attempt
		if injected {
			return
		}
		injected = true
		// Otra transacción confirma sobre el mismo documento antes del commit.
		require.NoError(t, s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
			return addQty(ctx, repos, "w1", "m1", 10)
		}))
	}))

	calls := 0
	err := s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		calls++
		return addQty(ctx, repos, "w1", "m1", 5)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "el cuerpo se ejecuta de nuevo tras el conflicto")
	assert.Equal(t, 2, attempts)

	it, err := s.Repos().Stock.Get(ctx, "w1", "m1")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, int64(15), it.Quantity, "ninguna escritura se pierde")
}

func TestStore_ConflictoPersistenteAgotaIntentos(t *testing.T) {
	ctx := context.Background()
	var s *Store
	nested := false
	s = New(WithMaxAttempts(2), WithBeforeCommit(func(int) {
		if nested {
			return
		}
		nested = true
		defer func() { nested = false }()
		_ = s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
			return addQty(ctx, repos, "w1", "m1", 1)
		})
	}))

	err := s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return addQty(ctx, repos, "w1", "m1", 100)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	it, _ := s.Repos().Stock.Get(ctx, "w1", "m1")
	require.NotNil(t, it)
	assert.Equal(t, int64(2), it.Quantity, "sólo confirmaron las transacciones anidadas")
}

func TestStore_IncrementosConcurrentes(t *testing.T) {
	ctx := context.Background()
	s := New(WithMaxAttempts(100))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
				return addQty(ctx, repos, "w1", "m1", 1)
			}))
		}()
	}
	wg.Wait()
	it, err := s.Repos().Stock.Get(ctx, "w1", "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), it.Quantity)
}

func TestStore_ErrorDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := domain.Validation("boom")
	err := s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		require.NoError(t, repos.Materials.Create(ctx, &entity.Material{ID: "m1", Name: "Cable"}))
		return boom
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	m, err := s.Repos().Materials.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStore_TechoDeEscrituras(t *testing.T) {
	ctx := context.Background()
	s := New(WithMaxWrites(2))
	assert.Equal(t, 2, s.MaxWritesPerTx())
	err := s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		for _, id := range []string{"a", "b", "c"} {
			if err := repos.Materials.Create(ctx, &entity.Material{ID: id, Name: id}); err != nil {
				return err
			}
		}
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	list, err := s.Repos().Materials.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_ContextoCanceladoNoInicia(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().Run(ctx, func(context.Context, ports.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, called)
}

func TestStore_StockNegativoRechazado(t *testing.T) {
	err := New().Repos().Stock.Upsert(context.Background(), &entity.StockItem{WarehouseID: "w", MaterialID: "m", Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_BodegaAsignadaUnaSolaVez(t *testing.T) {
	ctx := context.Background()
	s := New()
	wh := "wm"
	require.NoError(t, s.Repos().Vehicles.Create(ctx, &entity.Vehicle{ID: "v1", MaxUsers: 6, AssignedWarehouseID: &wh}))

	err := s.Repos().Vehicles.Create(ctx, &entity.Vehicle{ID: "v2", MaxUsers: 6, AssignedWarehouseID: &wh})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	// Mover la bodega de v1 a v2 en la misma transacción sí es válido.
	require.NoError(t, s.Repos().Vehicles.Create(ctx, &entity.Vehicle{ID: "v2", MaxUsers: 6}))
	err = s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		v1, _ := repos.Vehicles.GetByID(ctx, "v1")
		v2, _ := repos.Vehicles.GetByID(ctx, "v2")
		v1.AssignedWarehouseID, v2.AssignedWarehouseID = nil, &wh
		if err := repos.Vehicles.Update(ctx, v1); err != nil {
			return err
		}
		return repos.Vehicles.Update(ctx, v2)
	})
	require.NoError(t, err)
	holder, err := s.Repos().Vehicles.FindByAssignedWarehouse(ctx, wh)
	require.NoError(t, err)
	assert.Equal(t, "v2", holder.ID)
}

func TestStore_SubscribeRecibeSoloCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New()
	ch, err := s.Subscribe(ctx, ports.StockTopic("w1"))
	require.NoError(t, err)
	other, err := s.Subscribe(ctx, ports.StockTopic("w2"))
	require.NoError(t, err)

	_ = s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := addQty(ctx, repos, "w1", "m1", 1); err != nil {
			return err
		}
		return errors.New("rollback")
	})
	select {
	case <-ch:
		t.Fatal("una transacción revertida no debe notificar")
	default:
	}

	require.NoError(t, s.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		return addQty(ctx, repos, "w1", "m1", 1)
	}))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("se esperaba una señal de cambio")
	}
	select {
	case <-other:
		t.Fatal("otra bodega no debe recibir señal")
	default:
	}
}

func TestSortRequests_NulosAlFinal(t *testing.T) {
	day := func(d int) *time.Time {
		v := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	list := []*entity.MaterialRequest{
		{ID: "a", ApprovalDate: nil},
		{ID: "b", ApprovalDate: day(2)},
		{ID: "c", ApprovalDate: day(1)},
		{ID: "d", ApprovalDate: nil},
	}
	ids := func() []string {
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	SortRequests(list, repository.RequestQuery{OrderBy: repository.OrderByApprovalDate})
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids())

	SortRequests(list, repository.RequestQuery{OrderBy: repository.OrderByApprovalDate, Descending: true})
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids())
}

func TestSortRequests_EmpatesPorID(t *testing.T) {
	same := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	list := []*entity.MaterialRequest{
		{ID: "c", RequestDate: same, Status: entity.StatusPendiente},
		{ID: "a", RequestDate: same, Status: entity.StatusPendiente},
		{ID: "b", RequestDate: same, Status: entity.StatusPendiente},
	}
	ids := func() []string {
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	SortRequests(list, repository.RequestQuery{OrderBy: repository.OrderByRequestDate, Descending: true})
	assert.Equal(t, []string{"a", "b", "c"}, ids(), "el desempate por id no depende de la dirección")

	SortRequests(list, repository.RequestQuery{OrderBy: repository.OrderByStatus})
	assert.Equal(t, []string{"a", "b", "c"}, ids())
}

func TestUserRepo_GetByEmailSinDistinguirMayusculas(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Repos().Users.Create(ctx, &entity.User{ID: "u1", Email: "Ana@Example.com", Role: entity.RoleWorker}))
	u, err := s.Repos().Users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)

	assert.ErrorIs(t, s.Repos().Users.SetAssignedVehicle(ctx, "nadie", nil), domain.ErrNotFound)
}
