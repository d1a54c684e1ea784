// Package requests implementa el flujo de solicitudes de materiales: creación por el trabajador,
// aprobación o rechazo por el administrador y entrega desde la bodega central.
package requests

import (
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/live"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// Actor usuario autenticado que invoca la operación.
type Actor struct {
	UserID string
	Admin  bool
}

// AttachmentUpload archivo a adjuntar a una solicitud.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// RequestUseCase flujo de solicitudes de materiales.
type RequestUseCase struct {
	store     ports.Store
	ledger    *inventory.StockLedgerUseCase
	notifier  ports.Notifier
	blobs     ports.BlobStore
	receipts  ReceiptGenerator
	centralID string
	log       *logger.Logger
	now       func() time.Time
}

// Config dependencias opcionales del flujo. Notifier, Blobs y Receipts pueden ser nil.
type Config struct {
	Notifier           ports.Notifier
	Blobs              ports.BlobStore
	Receipts           ReceiptGenerator
	CentralWarehouseID string
}

// NewRequestUseCase construye el caso de uso.
func NewRequestUseCase(store ports.Store, ledger *inventory.StockLedgerUseCase, cfg Config, log *logger.Logger) *RequestUseCase {
	return &RequestUseCase{
		store:     store,
		ledger:    ledger,
		notifier:  cfg.Notifier,
		blobs:     cfg.Blobs,
		receipts:  cfg.Receipts,
		centralID: strings.TrimSpace(cfg.CentralWarehouseID),
		log:       log.Component("material_requests"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateMaterialRequest registra una solicitud PENDIENTE del trabajador. Las líneas repetidas del
// mismo material se suman en una sola.
func (uc *RequestUseCase) CreateMaterialRequest(ctx context.Context, workerID string, in dto.CreateMaterialRequestRequest) (*dto.MaterialRequestResponse, error) {
	warehouseID := strings.TrimSpace(in.WarehouseID)
	if warehouseID == "" {
		return nil, domain.Validation("warehouse_id es requerido")
	}
	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	req := &entity.MaterialRequest{
		ID:          uuid.New().String(),
		WorkerID:    workerID,
		WarehouseID: warehouseID,
		Status:      entity.StatusPendiente,
		RequestDate: uc.now(),
		Attachments: []entity.Attachment{},
	}
	err = uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		worker, err := repos.Users.GetByID(ctx, workerID)
		if err != nil {
			return err
		}
		if worker == nil {
			return domain.NotFound("usuario", workerID)
		}
		wh, err := repos.Warehouses.GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NotFound("bodega", warehouseID)
		}
		resolved := make([]entity.RequestItem, 0, len(items))
		for _, it := range items {
			m, err := repos.Materials.GetByID(ctx, it.MaterialID)
			if err != nil {
				return err
			}
			if m == nil {
				return domain.NotFound("material", it.MaterialID)
			}
			it.MaterialName = m.Name
			resolved = append(resolved, it)
		}
		req.WorkerName = worker.Name
		req.Items = resolved
		return repos.Requests.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("request_id", req.ID).
		Str("worker_id", workerID).
		Str("warehouse_id", warehouseID).
		Int("items", len(req.Items)).
		Msg("solicitud creada")
	return toRequestResponse(req), nil
}

func mergeItems(in []dto.RequestItemInput) ([]entity.RequestItem, error) {
	if len(in) == 0 {
		return nil, domain.Validation("la solicitud debe tener al menos un material")
	}
	out := make([]entity.RequestItem, 0, len(in))
	index := make(map[string]int, len(in))
	for i, it := range in {
		id := strings.TrimSpace(it.MaterialID)
		if id == "" {
			return nil, domain.Validation("items[%d]: material_id es requerido", i)
		}
		if it.Quantity <= 0 {
			return nil, domain.Validation("items[%d]: la cantidad debe ser mayor a cero (recibido %d)", i, it.Quantity)
		}
		if j, ok := index[id]; ok {
			if out[j].Quantity > math.MaxInt64-it.Quantity {
				return nil, domain.Validation("items[%d]: la cantidad total de %s excede el máximo", i, id)
			}
			out[j].Quantity += it.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, entity.RequestItem{MaterialID: id, Quantity: it.Quantity})
	}
	return out, nil
}

// UpdateRequestStatus aprueba o rechaza una solicitud PENDIENTE.
// Cualquier otro destino u origen responde ErrInvalidTransition.
func (uc *RequestUseCase) UpdateRequestStatus(ctx context.Context, requestID string, in dto.UpdateRequestStatusRequest) (*dto.MaterialRequestResponse, error) {
	next, err := entity.ParseRequestStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if err != nil {
		return nil, domain.Validation("%v", err)
	}
	if next != entity.StatusAprobado && next != entity.StatusRechazado {
		return nil, fmt.Errorf("%w: use deliver o cancel para pasar a %s", domain.ErrInvalidTransition, next)
	}

	now := uc.now()
	var result *entity.MaterialRequest
	err = uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		req, err := mustGetRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		if err := req.Transition(next, now, in.AdminNotes); err != nil {
			return err
		}
		result = req
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("request_id", requestID).Str("status", next.String()).Msg("estado de solicitud actualizado")
	uc.notify(ctx, result, now)
	return toRequestResponse(result), nil
}

// DeliverMaterialRequest traslada todas las líneas desde la bodega central a la bodega de la
// solicitud y la marca ENTREGADO, todo en una sola transacción. Si alguna línea no tiene stock
// suficiente la entrega falla completa con ErrInsufficientStock.
func (uc *RequestUseCase) DeliverMaterialRequest(ctx context.Context, requestID string, in dto.DeliverRequestRequest) (*dto.MaterialRequestResponse, error) {
	centralID := strings.TrimSpace(in.CentralWarehouseID)
	if centralID == "" {
		centralID = uc.centralID
	}
	if centralID == "" {
		return nil, domain.Validation("bodega central no indicada ni configurada")
	}

	// Chequeo previo del techo de escrituras sobre la lectura actual; se repite dentro de la transacción.
	current, err := uc.store.Repos().Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NotFound("solicitud", requestID)
	}
	if err := uc.checkWriteCeiling(current); err != nil {
		return nil, err
	}

	now := uc.now()
	var result *entity.MaterialRequest
	err = uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		req, err := mustGetRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		if req.Status != entity.StatusAprobado {
			return &entity.TransitionError{RequestID: req.ID, From: req.Status, To: entity.StatusEntregado}
		}
		if err := uc.checkWriteCeiling(req); err != nil {
			return err
		}
		if req.WarehouseID == centralID {
			return domain.Validation("la bodega de destino es la misma bodega central")
		}
		central, err := repos.Warehouses.GetByID(ctx, centralID)
		if err != nil {
			return err
		}
		if central == nil {
			return domain.NotFound("bodega", centralID)
		}
		for _, it := range req.Items {
			line := inventory.TransferLine{
				FromWarehouseID: centralID,
				ToWarehouseID:   req.WarehouseID,
				MaterialID:      it.MaterialID,
				MaterialName:    it.MaterialName,
				Quantity:        it.Quantity,
			}
			if _, _, err := uc.ledger.TransferInTx(ctx, repos, line, now); err != nil {
				return err
			}
		}
		if err := req.Transition(entity.StatusEntregado, now, in.AdminNotes); err != nil {
			return err
		}
		result = req
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("request_id", requestID).Str("central_id", centralID).Msg("entrega rechazada")
		return nil, err
	}

	uc.log.Info().
		Str("request_id", requestID).
		Str("central_id", centralID).
		Str("warehouse_id", result.WarehouseID).
		Int("items", len(result.Items)).
		Msg("solicitud entregada")
	uc.notify(ctx, result, now)
	return toRequestResponse(result), nil
}

// checkWriteCeiling cada línea escribe dos filas de stock y la solicitud una más.
func (uc *RequestUseCase) checkWriteCeiling(req *entity.MaterialRequest) error {
	limit := uc.store.MaxWritesPerTx()
	if limit <= 0 {
		return nil
	}
	if writes := 2*len(req.Items) + 1; writes > limit {
		return domain.Validation("la entrega escribe %d documentos y el máximo por transacción es %d; divida la solicitud", writes, limit)
	}
	return nil
}

// CancelRequest cancela una solicitud PENDIENTE. Sólo el trabajador que la creó puede hacerlo.
func (uc *RequestUseCase) CancelRequest(ctx context.Context, requestID, workerID string) (*dto.MaterialRequestResponse, error) {
	now := uc.now()
	var result *entity.MaterialRequest
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		req, err := mustGetRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		if req.WorkerID != workerID {
			return fmt.Errorf("%w: la solicitud %s pertenece a otro trabajador", domain.ErrForbidden, requestID)
		}
		if err := req.Transition(entity.StatusCancelado, now, nil); err != nil {
			return err
		}
		result = req
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("request_id", requestID).Str("worker_id", workerID).Msg("solicitud cancelada")
	uc.notify(ctx, result, now)
	return toRequestResponse(result), nil
}

// AttachFile sube el archivo al blob store y luego agrega sus metadatos a la solicitud.
// La subida queda fuera de la transacción; si la transacción falla el objeto queda huérfano.
func (uc *RequestUseCase) AttachFile(ctx context.Context, requestID string, actor Actor, up AttachmentUpload) (*dto.MaterialRequestResponse, error) {
	if uc.blobs == nil {
		return nil, domain.Validation("adjuntos no configurados")
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(up.FileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, domain.Validation("nombre de archivo requerido")
	}
	if up.Body == nil {
		return nil, domain.Validation("archivo vacío")
	}
	contentType := strings.TrimSpace(up.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := uc.GetRequest(ctx, requestID, actor); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("material-requests/%s/%s-%s", requestID, uuid.New().String(), name)
	url, err := uc.blobs.Put(ctx, key, contentType, up.Body, up.Size)
	if err != nil {
		return nil, domain.Unavailable("subir adjunto", err)
	}

	att := entity.Attachment{Key: key, URL: url, FileName: name, ContentType: contentType, UploadedAt: uc.now()}
	var result *entity.MaterialRequest
	err = uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		req, err := mustGetRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		req.Attachments = append(req.Attachments, att)
		result = req
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("request_id", requestID).Str("key", key).Msg("adjunto subido sin registrar")
		return nil, err
	}
	uc.log.Info().Str("request_id", requestID).Str("key", key).Int64("size", up.Size).Msg("adjunto agregado")
	return toRequestResponse(result), nil
}

// DeliveryReceipt genera el acta de entrega en PDF. Sólo existe para solicitudes ENTREGADO.
func (uc *RequestUseCase) DeliveryReceipt(ctx context.Context, requestID string, actor Actor) ([]byte, error) {
	if uc.receipts == nil {
		return nil, domain.Validation("actas de entrega no configuradas")
	}
	repos := uc.store.Repos()
	req, err := mustGetRequest(ctx, repos, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && req.WorkerID != actor.UserID {
		return nil, fmt.Errorf("%w: la solicitud %s pertenece a otro trabajador", domain.ErrForbidden, requestID)
	}
	if req.Status != entity.StatusEntregado {
		return nil, domain.Validation("la solicitud %s está %s; el acta sólo existe después de la entrega", requestID, req.Status)
	}
	wh, err := repos.Warehouses.GetByID(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	return uc.receipts.GenerateDeliveryReceipt(ctx, req, wh)
}

// GetRequest obtiene una solicitud. Un trabajador sólo puede ver las suyas.
func (uc *RequestUseCase) GetRequest(ctx context.Context, requestID string, actor Actor) (*dto.MaterialRequestResponse, error) {
	req, err := uc.store.Repos().Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.NotFound("solicitud", requestID)
	}
	if !actor.Admin && req.WorkerID != actor.UserID {
		return nil, fmt.Errorf("%w: la solicitud %s pertenece a otro trabajador", domain.ErrForbidden, requestID)
	}
	return toRequestResponse(req), nil
}

// ListWorkerRequests lista las solicitudes del trabajador.
func (uc *RequestUseCase) ListWorkerRequests(ctx context.Context, workerID string, in dto.ListRequestsQuery) ([]dto.MaterialRequestResponse, error) {
	q, err := ParseQuery(in)
	if err != nil {
		return nil, err
	}
	q.WorkerID = workerID
	return uc.loader(q)(ctx)
}

// ListAllRequests lista todas las solicitudes.
func (uc *RequestUseCase) ListAllRequests(ctx context.Context, in dto.ListRequestsQuery) ([]dto.MaterialRequestResponse, error) {
	q, err := ParseQuery(in)
	if err != nil {
		return nil, err
	}
	return uc.loader(q)(ctx)
}

// WatchWorkerRequests emite las solicitudes del trabajador en cada cambio.
func (uc *RequestUseCase) WatchWorkerRequests(ctx context.Context, workerID string, in dto.ListRequestsQuery) (<-chan live.Snapshot[dto.MaterialRequestResponse], error) {
	q, err := ParseQuery(in)
	if err != nil {
		return nil, err
	}
	q.WorkerID = workerID
	return live.Watch(ctx, uc.store, ports.TopicRequests, uc.loader(q))
}

// WatchAllRequests emite todas las solicitudes en cada cambio.
func (uc *RequestUseCase) WatchAllRequests(ctx context.Context, in dto.ListRequestsQuery) (<-chan live.Snapshot[dto.MaterialRequestResponse], error) {
	q, err := ParseQuery(in)
	if err != nil {
		return nil, err
	}
	return live.Watch(ctx, uc.store, ports.TopicRequests, uc.loader(q))
}

// ParseQuery valida los parámetros de listado. Por defecto ordena por requestDate descendente.
func ParseQuery(in dto.ListRequestsQuery) (repository.RequestQuery, error) {
	var q repository.RequestQuery
	field, err := repository.ParseRequestOrderField(strings.TrimSpace(in.OrderBy))
	if err != nil {
		return q, domain.Validation("%v", err)
	}
	q.OrderBy = field
	switch strings.ToLower(strings.TrimSpace(in.Direction)) {
	case "", "desc":
		q.Descending = true
	case "asc":
	default:
		return q, domain.Validation("dirección inválida: %q (asc|desc)", in.Direction)
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		st, err := entity.ParseRequestStatus(strings.ToUpper(s))
		if err != nil {
			return q, domain.Validation("%v", err)
		}
		q.Status = &st
	}
	return q, nil
}

func (uc *RequestUseCase) loader(q repository.RequestQuery) live.Loader[dto.MaterialRequestResponse] {
	return func(ctx context.Context) ([]dto.MaterialRequestResponse, error) {
		list, err := uc.store.Repos().Requests.List(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]dto.MaterialRequestResponse, 0, len(list))
		for _, r := range list {
			out = append(out, *toRequestResponse(r))
		}
		return out, nil
	}
}

// notify avisa al trabajador después del commit. Un fallo sólo se registra.
func (uc *RequestUseCase) notify(ctx context.Context, req *entity.MaterialRequest, at time.Time) {
	if uc.notifier == nil || req == nil {
		return
	}
	ev := ports.RequestStatusEvent{
		RequestID:   req.ID,
		WorkerID:    req.WorkerID,
		WarehouseID: req.WarehouseID,
		Status:      req.Status.String(),
		OccurredAt:  at,
	}
	if req.AdminNotes != nil {
		ev.AdminNotes = *req.AdminNotes
	}
	if err := uc.notifier.NotifyRequestStatus(context.WithoutCancel(ctx), ev); err != nil {
		uc.log.Warn().Err(err).Str("request_id", req.ID).Str("status", ev.Status).Msg("notificación no enviada")
	}
}

func mustGetRequest(ctx context.Context, repos ports.Repositories, id string) (*entity.MaterialRequest, error) {
	req, err := repos.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.NotFound("solicitud", id)
	}
	return req, nil
}

func toRequestResponse(r *entity.MaterialRequest) *dto.MaterialRequestResponse {
	if r == nil {
		return nil
	}
	items := make([]dto.RequestItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, dto.RequestItemResponse{MaterialID: it.MaterialID, MaterialName: it.MaterialName, Quantity: it.Quantity})
	}
	atts := make([]dto.AttachmentResponse, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		atts = append(atts, dto.AttachmentResponse{
			Key:         a.Key,
			URL:         a.URL,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			UploadedAt:  a.UploadedAt,
		})
	}
	return &dto.MaterialRequestResponse{
		ID:               r.ID,
		WorkerID:         r.WorkerID,
		WorkerName:       r.WorkerName,
		WarehouseID:      r.WarehouseID,
		Items:            items,
		Status:           r.Status.String(),
		RequestDate:      r.RequestDate,
		ApprovalDate:     r.ApprovalDate,
		RejectionDate:    r.RejectionDate,
		CancellationDate: r.CancellationDate,
		DeliveryDate:     r.DeliveryDate,
		AdminNotes:       r.AdminNotes,
		Attachments:      atts,
	}
}
