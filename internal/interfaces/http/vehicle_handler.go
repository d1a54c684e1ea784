package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/fleet"
)

// VehicleHandler vehículos, su tripulación y su bodega móvil (sólo admin).
type VehicleHandler struct {
	uc *fleet.VehicleUseCase
}

// NewVehicleHandler construye el handler.
func NewVehicleHandler(uc *fleet.VehicleUseCase) *VehicleHandler {
	return &VehicleHandler{uc: uc}
}

// Create godoc
// @Summary      Crear vehículo
// @Tags         vehicles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateVehicleRequest  true  "Placa y descripción"
// @Success      201   {object}  dto.VehicleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/vehicles [post]
func (h *VehicleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateVehicleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateVehicle(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener vehículo
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del vehículo"
// @Success      200  {object}  dto.VehicleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id} [get]
func (h *VehicleHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetVehicle(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar vehículos
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.VehicleResponse]
// @Router       /api/vehicles [get]
func (h *VehicleHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListVehicles(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewListResponse(out))
}

func (h *VehicleHandler) Stream(c *fiber.Ctx) error {
	return streamSnapshots(c, h.uc.WatchVehicles)
}

// Delete godoc
// @Summary      Eliminar vehículo
// @Description  Desvincula a sus usuarios antes de eliminarlo.
// @Tags         vehicles
// @Security     Bearer
// @Param        id   path  string  true  "ID del vehículo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteVehicle(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignUser godoc
// @Summary      Asignar usuario al vehículo
// @Tags         vehicles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del vehículo"
// @Param        body  body  dto.AssignUserRequest  true  "Usuario"
// @Success      200   {object}  dto.VehicleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/users [post]
func (h *VehicleHandler) AssignUser(c *fiber.Ctx) error {
	var in dto.AssignUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AssignUserToVehicle(c.UserContext(), in.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RemoveUser godoc
// @Summary      Quitar usuario del vehículo
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID del vehículo"
// @Param        userId  path  string  true  "ID del usuario"
// @Success      200     {object}  dto.VehicleResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/users/{userId} [delete]
func (h *VehicleHandler) RemoveUser(c *fiber.Ctx) error {
	out, err := h.uc.RemoveUserFromVehicle(c.UserContext(), c.Params("userId"), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AssignWarehouse godoc
// @Summary      Asignar bodega móvil al vehículo
// @Tags         vehicles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del vehículo"
// @Param        body  body  dto.AssignWarehouseRequest  true  "Bodega MOBILE"
// @Success      200   {object}  dto.VehicleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/warehouse [put]
func (h *VehicleHandler) AssignWarehouse(c *fiber.Ctx) error {
	var in dto.AssignWarehouseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.TransferVehicleToWarehouse(c.UserContext(), c.Params("id"), in.WarehouseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RemoveWarehouse godoc
// @Summary      Desvincular la bodega del vehículo
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del vehículo"
// @Success      200  {object}  dto.VehicleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/warehouse [delete]
func (h *VehicleHandler) RemoveWarehouse(c *fiber.Ctx) error {
	out, err := h.uc.RemoveWarehouseFromVehicle(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
