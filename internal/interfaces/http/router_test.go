package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/fleet"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/requests"
	"github.com/jhoicas/materiales-api/internal/application/usecase"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
	"github.com/jhoicas/materiales-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/materiales-api/internal/interfaces/http"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

const (
	adminID  = "admin-1"
	workerID = "worker-1"
	otherID  = "worker-2"
)

type testAPI struct {
	t   *testing.T
	app *fiber.App
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	log := logger.Nop()
	ledger := inventory.NewStockLedgerUseCase(store, xlsx.NewStockReport(), log)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		MaterialUC:  usecase.NewMaterialUseCase(store),
		WarehouseUC: usecase.NewWarehouseUseCase(store),
		UserUC:      usecase.NewUserUseCase(store),
		Ledger:      ledger,
		VehicleUC:   fleet.NewVehicleUseCase(store, log),
		RequestUC:   requests.NewRequestUseCase(store, ledger, requests.Config{}, log),
		JWTSecret:   testJWTSecret,
		MaxUploadMB: 1,
	})
	return &testAPI{t: t, app: app}
}

// call ejecuta la petición con un token del usuario y rol dados y decodifica la respuesta en out.
func (a *testAPI) call(method, path, userID, role string, body any, out any) int {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenFor(a.t, userID, role))
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) seed() (centralID, mobileID, materialID string) {
	a.t.Helper()
	for _, u := range []dto.CreateUserRequest{
		{ID: adminID, Email: "admin@example.com", Name: "Admin", Role: "admin"},
		{ID: workerID, Email: "ana@example.com", Name: "Ana", Role: "worker"},
		{ID: otherID, Email: "luis@example.com", Name: "Luis", Role: "worker"},
	} {
		require.Equal(a.t, http.StatusCreated, a.call(http.MethodPost, "/api/users", adminID, "admin", u, nil))
	}
	var central, mobile dto.WarehouseResponse
	require.Equal(a.t, http.StatusCreated, a.call(http.MethodPost, "/api/warehouses", adminID, "admin",
		dto.CreateWarehouseRequest{Name: "Central", Type: "FIXED"}, &central))
	require.Equal(a.t, http.StatusCreated, a.call(http.MethodPost, "/api/warehouses", adminID, "admin",
		dto.CreateWarehouseRequest{Name: "Camión 1", Type: "MOBILE"}, &mobile))
	var mat dto.MaterialResponse
	require.Equal(a.t, http.StatusCreated, a.call(http.MethodPost, "/api/materials", adminID, "admin",
		dto.CreateMaterialRequest{Name: "Cable UTP"}, &mat))
	require.Equal(a.t, http.StatusCreated, a.call(http.MethodPost, "/api/warehouses/"+central.ID+"/stock", adminID, "admin",
		dto.AddStockRequest{MaterialID: mat.ID, Quantity: 100}, nil))
	return central.ID, mobile.ID, mat.ID
}

func TestRouter_FlujoCompletoDeSolicitud(t *testing.T) {
	api := newTestAPI(t)
	centralID, mobileID, materialID := api.seed()

	var created dto.MaterialRequestResponse
	status := api.call(http.MethodPost, "/api/material-requests", workerID, "worker", dto.CreateMaterialRequestRequest{
		WarehouseID: mobileID,
		Items:       []dto.RequestItemInput{{MaterialID: materialID, Quantity: 30}},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "PENDIENTE", created.Status)
	assert.Equal(t, "Ana", created.WorkerName)

	var approved dto.MaterialRequestResponse
	status = api.call(http.MethodPatch, "/api/material-requests/"+created.ID+"/status", adminID, "admin",
		dto.UpdateRequestStatusRequest{Status: "APROBADO"}, &approved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "APROBADO", approved.Status)
	assert.NotNil(t, approved.ApprovalDate)

	var delivered dto.MaterialRequestResponse
	status = api.call(http.MethodPost, "/api/material-requests/"+created.ID+"/deliver", adminID, "admin",
		dto.DeliverRequestRequest{CentralWarehouseID: centralID}, &delivered)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ENTREGADO", delivered.Status)

	var stock dto.ListResponse[dto.StockItemResponse]
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/warehouses/"+centralID+"/stock", adminID, "admin", nil, &stock))
	require.Len(t, stock.Items, 1)
	assert.Equal(t, int64(70), stock.Items[0].Quantity)

	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/warehouses/"+mobileID+"/stock", workerID, "worker", nil, &stock))
	require.Len(t, stock.Items, 1)
	assert.Equal(t, int64(30), stock.Items[0].Quantity)

	// Una segunda entrega no es una transición válida.
	var errResp dto.ErrorResponse
	status = api.call(http.MethodPost, "/api/material-requests/"+created.ID+"/deliver", adminID, "admin",
		dto.DeliverRequestRequest{CentralWarehouseID: centralID}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errResp.Code)
}

func TestRouter_StockInsuficienteRetorna409(t *testing.T) {
	api := newTestAPI(t)
	centralID, mobileID, materialID := api.seed()

	var errResp dto.ErrorResponse
	status := api.call(http.MethodPost, "/api/stock/transfers", adminID, "admin", dto.TransferStockRequest{
		FromWarehouseID: centralID, ToWarehouseID: mobileID, MaterialID: materialID, Quantity: 101,
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
}

func TestRouter_TrabajadorNoVeSolicitudAjena(t *testing.T) {
	api := newTestAPI(t)
	_, mobileID, materialID := api.seed()

	var created dto.MaterialRequestResponse
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/material-requests", workerID, "worker",
		dto.CreateMaterialRequestRequest{WarehouseID: mobileID, Items: []dto.RequestItemInput{{MaterialID: materialID, Quantity: 1}}}, &created))

	assert.Equal(t, http.StatusForbidden,
		api.call(http.MethodGet, "/api/material-requests/"+created.ID, otherID, "worker", nil, nil))
	assert.Equal(t, http.StatusForbidden,
		api.call(http.MethodPost, "/api/material-requests/"+created.ID+"/cancel", otherID, "worker", nil, nil))
	assert.Equal(t, http.StatusOK,
		api.call(http.MethodGet, "/api/material-requests/"+created.ID, adminID, "admin", nil, nil))

	var mine dto.ListResponse[dto.MaterialRequestResponse]
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/material-requests/mine", otherID, "worker", nil, &mine))
	assert.Empty(t, mine.Items)
}

func TestRouter_ListadoConOrdenInvalidoRetorna400(t *testing.T) {
	api := newTestAPI(t)
	var errResp dto.ErrorResponse
	status := api.call(http.MethodGet, "/api/material-requests?order_by=price", adminID, "admin", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errResp.Code)
}

func TestRouter_RutasDeAdminRechazanWorker(t *testing.T) {
	api := newTestAPI(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/materials"},
		{http.MethodGet, "/api/vehicles"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/material-requests"},
		{http.MethodPost, "/api/stock/transfers"},
	} {
		assert.Equal(t, http.StatusForbidden, api.call(tc.method, tc.path, workerID, "worker", nil, nil), tc.path)
	}
}

func TestRouter_VehiculoConBodegaMovil(t *testing.T) {
	api := newTestAPI(t)
	centralID, mobileID, _ := api.seed()

	var v1, v2 dto.VehicleResponse
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/vehicles", adminID, "admin", dto.CreateVehicleRequest{Plate: "abc123"}, &v1))
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/vehicles", adminID, "admin", dto.CreateVehicleRequest{Plate: "XYZ789"}, &v2))
	assert.Equal(t, "ABC123", v1.Plate)

	var out dto.VehicleResponse
	require.Equal(t, http.StatusOK, api.call(http.MethodPut, "/api/vehicles/"+v1.ID+"/warehouse", adminID, "admin",
		dto.AssignWarehouseRequest{WarehouseID: mobileID}, &out))
	require.NotNil(t, out.AssignedWarehouseID)
	assert.Equal(t, mobileID, *out.AssignedWarehouseID)

	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, api.call(http.MethodPut, "/api/vehicles/"+v2.ID+"/warehouse", adminID, "admin",
		dto.AssignWarehouseRequest{WarehouseID: mobileID}, &errResp))
	assert.Equal(t, "ALREADY_ASSIGNED", errResp.Code)

	assert.Equal(t, http.StatusBadRequest, api.call(http.MethodPut, "/api/vehicles/"+v2.ID+"/warehouse", adminID, "admin",
		dto.AssignWarehouseRequest{WarehouseID: centralID}, nil))

	require.Equal(t, http.StatusOK, api.call(http.MethodPost, "/api/vehicles/"+v1.ID+"/users", adminID, "admin",
		dto.AssignUserRequest{UserID: workerID}, &out))
	assert.Equal(t, []string{workerID}, out.UserIDs)

	var user dto.UserResponse
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/users/"+workerID, adminID, "admin", nil, &user))
	require.NotNil(t, user.AssignedVehicleID)
	assert.Equal(t, v1.ID, *user.AssignedVehicleID)

	assert.Equal(t, http.StatusNoContent, api.call(http.MethodDelete, "/api/vehicles/"+v1.ID, adminID, "admin", nil, nil))
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/users/by-email?email=ana@example.com", adminID, "admin", nil, &user))
	assert.Nil(t, user.AssignedVehicleID)
}

func TestRouter_ExportaStockComoExcel(t *testing.T) {
	api := newTestAPI(t)
	centralID, _, _ := api.seed()

	req := httptest.NewRequest(http.MethodGet, "/api/warehouses/"+centralID+"/stock/export", nil)
	req.Header.Set("Authorization", tokenFor(t, adminID, "admin"))
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "un xlsx es un zip")
}

func TestRouter_AdjuntoSinBlobStoreRetorna400(t *testing.T) {
	api := newTestAPI(t)
	_, mobileID, materialID := api.seed()

	var created dto.MaterialRequestResponse
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/material-requests", workerID, "worker",
		dto.CreateMaterialRequestRequest{WarehouseID: mobileID, Items: []dto.RequestItemInput{{MaterialID: materialID, Quantity: 1}}}, &created))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "foto.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpeg"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/material-requests/"+created.ID+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", tokenFor(t, workerID, "worker"))
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
