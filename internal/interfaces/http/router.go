package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/materiales-api/internal/application/fleet"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/requests"
	"github.com/jhoicas/materiales-api/internal/application/usecase"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MaterialUC  *usecase.MaterialUseCase
	WarehouseUC *usecase.WarehouseUseCase
	UserUC      *usecase.UserUseCase
	Ledger      *inventory.StockLedgerUseCase
	VehicleUC   *fleet.VehicleUseCase
	RequestUC   *requests.RequestUseCase
	JWTSecret   string
	MaxUploadMB int
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(entity.RoleAdmin)
	worker := RequireRole(entity.RoleWorker)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleWorker)

	// Materials
	materials := api.Group("/materials", anyRole)
	materialHandler := NewMaterialHandler(deps.MaterialUC)
	materials.Get("/", materialHandler.List)
	materials.Get("/stream", materialHandler.Stream)
	materials.Post("/", admin, materialHandler.Create)

	// Warehouses y stock
	warehouses := api.Group("/warehouses", anyRole)
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, deps.Ledger)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/stream", warehouseHandler.Stream)
	warehouses.Post("/", admin, warehouseHandler.Create)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Get("/:id/stock", warehouseHandler.GetStock)
	warehouses.Get("/:id/stock/stream", warehouseHandler.StreamStock)
	warehouses.Get("/:id/stock/export", warehouseHandler.ExportStock)
	warehouses.Post("/:id/stock", admin, warehouseHandler.AddStock)
	api.Post("/stock/transfers", admin, warehouseHandler.Transfer)

	// Vehicles (admin)
	vehicles := api.Group("/vehicles", admin)
	vehicleHandler := NewVehicleHandler(deps.VehicleUC)
	vehicles.Post("/", vehicleHandler.Create)
	vehicles.Get("/", vehicleHandler.List)
	vehicles.Get("/stream", vehicleHandler.Stream)
	vehicles.Get("/:id", vehicleHandler.GetByID)
	vehicles.Delete("/:id", vehicleHandler.Delete)
	vehicles.Post("/:id/users", vehicleHandler.AssignUser)
	vehicles.Delete("/:id/users/:userId", vehicleHandler.RemoveUser)
	vehicles.Put("/:id/warehouse", vehicleHandler.AssignWarehouse)
	vehicles.Delete("/:id/warehouse", vehicleHandler.RemoveWarehouse)

	// Users (admin)
	users := api.Group("/users", admin)
	userHandler := NewUserHandler(deps.UserUC)
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.ListByRole)
	users.Get("/by-email", userHandler.GetByEmail)
	users.Get("/:id", userHandler.GetByID)

	// Material requests
	reqs := api.Group("/material-requests", anyRole)
	requestHandler := NewMaterialRequestHandler(deps.RequestUC, deps.MaxUploadMB)
	reqs.Post("/", worker, requestHandler.Create)
	reqs.Get("/", admin, requestHandler.ListAll)
	reqs.Get("/stream", admin, requestHandler.StreamAll)
	reqs.Get("/mine", worker, requestHandler.ListMine)
	reqs.Get("/mine/stream", worker, requestHandler.StreamMine)
	reqs.Get("/:id", requestHandler.GetByID)
	reqs.Patch("/:id/status", admin, requestHandler.UpdateStatus)
	reqs.Post("/:id/deliver", admin, requestHandler.Deliver)
	reqs.Post("/:id/cancel", worker, requestHandler.Cancel)
	reqs.Post("/:id/attachments", requestHandler.Attach)
	reqs.Get("/:id/receipt", requestHandler.Receipt)
}
