package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/live"
	"github.com/jhoicas/materiales-api/internal/application/requests"
)

// MaterialRequestHandler flujo de solicitudes de materiales.
// Las rutas de trabajador usan el UserID del token como trabajador.
type MaterialRequestHandler struct {
	uc             *requests.RequestUseCase
	maxUploadBytes int64
}

// NewMaterialRequestHandler construye el handler. maxUploadMB <= 0 no limita el tamaño de adjuntos.
func NewMaterialRequestHandler(uc *requests.RequestUseCase, maxUploadMB int) *MaterialRequestHandler {
	return &MaterialRequestHandler{uc: uc, maxUploadBytes: int64(maxUploadMB) << 20}
}

func actorFrom(c *fiber.Ctx) requests.Actor {
	return requests.Actor{UserID: GetUserID(c), Admin: IsAdmin(c)}
}

func listQuery(c *fiber.Ctx) (dto.ListRequestsQuery, error) {
	var q dto.ListRequestsQuery
	if err := c.QueryParser(&q); err != nil {
		return q, err
	}
	// Los valores apuntan al buffer de la petición; los flujos SSE los usan después del handler.
	q.OrderBy = utils.CopyString(q.OrderBy)
	q.Direction = utils.CopyString(q.Direction)
	q.Status = utils.CopyString(q.Status)
	return q, nil
}

// Create godoc
// @Summary      Crear solicitud de materiales
// @Tags         material-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialRequestRequest  true  "Bodega destino e ítems"
// @Success      201   {object}  dto.MaterialRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/material-requests [post]
func (h *MaterialRequestHandler) Create(c *fiber.Ctx) error {
	workerID := GetUserID(c)
	if workerID == "" {
		return unauthorized(c)
	}
	var in dto.CreateMaterialRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateMaterialRequest(c.UserContext(), workerID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMine godoc
// @Summary      Mis solicitudes
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        order_by   query  string  false  "requestDate | approvalDate | deliveryDate | status"
// @Param        direction  query  string  false  "asc | desc"  default(desc)
// @Param        status     query  string  false  "Filtro de estado"
// @Success      200        {object}  dto.ListResponse[dto.MaterialRequestResponse]
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/material-requests/mine [get]
func (h *MaterialRequestHandler) ListMine(c *fiber.Ctx) error {
	q, err := listQuery(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListWorkerRequests(c.UserContext(), GetUserID(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewListResponse(out))
}

// StreamMine emite las solicitudes del trabajador en cada cambio (SSE).
func (h *MaterialRequestHandler) StreamMine(c *fiber.Ctx) error {
	q, err := listQuery(c)
	if err != nil {
		return badBody(c)
	}
	workerID := utils.CopyString(GetUserID(c))
	return streamSnapshots(c, func(ctx context.Context) (<-chan live.Snapshot[dto.MaterialRequestResponse], error) {
		return h.uc.WatchWorkerRequests(ctx, workerID, q)
	})
}

// ListAll godoc
// @Summary      Todas las solicitudes
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        order_by   query  string  false  "requestDate | approvalDate | deliveryDate | status"
// @Param        direction  query  string  false  "asc | desc"  default(desc)
// @Param        status     query  string  false  "Filtro de estado"
// @Success      200        {object}  dto.ListResponse[dto.MaterialRequestResponse]
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/material-requests [get]
func (h *MaterialRequestHandler) ListAll(c *fiber.Ctx) error {
	q, err := listQuery(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ListAllRequests(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewListResponse(out))
}

func (h *MaterialRequestHandler) StreamAll(c *fiber.Ctx) error {
	q, err := listQuery(c)
	if err != nil {
		return badBody(c)
	}
	return streamSnapshots(c, func(ctx context.Context) (<-chan live.Snapshot[dto.MaterialRequestResponse], error) {
		return h.uc.WatchAllRequests(ctx, q)
	})
}

// GetByID godoc
// @Summary      Obtener solicitud
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.MaterialRequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id} [get]
func (h *MaterialRequestHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetRequest(c.UserContext(), c.Params("id"), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Aprobar o rechazar solicitud
// @Tags         material-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la solicitud"
// @Param        body  body  dto.UpdateRequestStatusRequest  true  "APROBADO | RECHAZADO"
// @Success      200   {object}  dto.MaterialRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/status [patch]
func (h *MaterialRequestHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateRequestStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateRequestStatus(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Deliver godoc
// @Summary      Entregar solicitud aprobada
// @Description  Traslada cada ítem desde la bodega central a la bodega de la solicitud y la marca ENTREGADO.
// @Tags         material-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID de la solicitud"
// @Param        body  body  dto.DeliverRequestRequest  false  "Bodega central y notas"
// @Success      200   {object}  dto.MaterialRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/deliver [post]
func (h *MaterialRequestHandler) Deliver(c *fiber.Ctx) error {
	var in dto.DeliverRequestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.DeliverMaterialRequest(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar solicitud propia
// @Tags         material-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.MaterialRequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/cancel [post]
func (h *MaterialRequestHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.CancelRequest(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Attach godoc
// @Summary      Adjuntar archivo a la solicitud
// @Tags         material-requests
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "ID de la solicitud"
// @Param        file  formData  file    true  "Archivo"
// @Success      201   {object}  dto.MaterialRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      413   {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/attachments [post]
func (h *MaterialRequestHandler) Attach(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo file requerido"})
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("el archivo supera %d MB", h.maxUploadBytes>>20),
		})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: err.Error()})
	}
	defer f.Close()

	out, err := h.uc.AttachFile(c.UserContext(), c.Params("id"), actorFrom(c), requests.AttachmentUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Receipt godoc
// @Summary      Acta de entrega en PDF
// @Tags         material-requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/material-requests/{id}/receipt [get]
func (h *MaterialRequestHandler) Receipt(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.uc.DeliveryReceipt(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "acta-"+id+".pdf"))
	return c.Send(pdf)
}
