package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.MaterialRequestRepository = (*MaterialRequestRepo)(nil)

const requestColumns = `id, worker_id, worker_name, warehouse_id, items, status, request_date,
	approval_date, rejection_date, cancellation_date, delivery_date, admin_notes, attachments`

// orderColumns mapea los campos de orden permitidos a columnas; nunca se interpola otra cosa.
var orderColumns = map[repository.RequestOrderField]string{
	repository.OrderByRequestDate:  "request_date",
	repository.OrderByApprovalDate: "approval_date",
	repository.OrderByDeliveryDate: "delivery_date",
	repository.OrderByStatus:       `status COLLATE "C"`,
}

// MaterialRequestRepo solicitudes sobre PostgreSQL. Items y adjuntos se guardan como JSONB.
type MaterialRequestRepo struct {
	q Querier
}

// NewMaterialRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRequestRepository(q Querier) *MaterialRequestRepo {
	return &MaterialRequestRepo{q: q}
}

// Create persiste una solicitud nueva.
func (r *MaterialRequestRepo) Create(ctx context.Context, req *entity.MaterialRequest) error {
	status, err := req.Status.MarshalText()
	if err != nil {
		return domain.Validation("%v", err)
	}
	query := `INSERT INTO material_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		req.ID, req.WorkerID, req.WorkerName, req.WarehouseID, items(req), string(status), req.RequestDate,
		req.ApprovalDate, req.RejectionDate, req.CancellationDate, req.DeliveryDate, req.AdminNotes, attachments(req),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.Validation("solicitud %s duplicada", req.ID)
		case isForeignKeyViolation(err):
			return domain.NotFound("bodega", req.WarehouseID)
		}
		return domain.Unavailable("insert material request", err)
	}
	return nil
}

// GetByID obtiene una solicitud por ID.
func (r *MaterialRequestRepo) GetByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM material_requests WHERE id = $1`
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unavailable("get material request", err)
	}
	return req, nil
}

// Update reemplaza estado, fechas, notas y adjuntos. Trabajador, bodega e items no cambian.
func (r *MaterialRequestRepo) Update(ctx context.Context, req *entity.MaterialRequest) error {
	status, err := req.Status.MarshalText()
	if err != nil {
		return domain.Validation("%v", err)
	}
	query := `
		UPDATE material_requests
		SET status = $2, approval_date = $3, rejection_date = $4, cancellation_date = $5,
		    delivery_date = $6, admin_notes = $7, attachments = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		req.ID, string(status), req.ApprovalDate, req.RejectionDate, req.CancellationDate,
		req.DeliveryDate, req.AdminNotes, attachments(req),
	)
	if err != nil {
		return domain.Unavailable("update material request", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("solicitud", req.ID)
	}
	return nil
}

// List filtra por trabajador y estado y ordena con fechas nulas al final en ambos sentidos.
func (r *MaterialRequestRepo) List(ctx context.Context, q repository.RequestQuery) ([]*entity.MaterialRequest, error) {
	var (
		where []string
		args  []any
	)
	if q.WorkerID != "" {
		args = append(args, q.WorkerID)
		where = append(where, fmt.Sprintf("worker_id = $%d", len(args)))
	}
	if q.Status != nil {
		args = append(args, q.Status.String())
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	col, ok := orderColumns[q.OrderBy]
	if !ok {
		col = orderColumns[repository.OrderByRequestDate]
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + requestColumns + ` FROM material_requests`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, ` ORDER BY %s %s NULLS LAST, id COLLATE "C" ASC`, col, dir)

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.Unavailable("list material requests", err)
	}
	defer rows.Close()

	var list []*entity.MaterialRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, domain.Unavailable("scan material request", err)
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list material requests", err)
	}
	return list, nil
}

// scanRequest decodifica una fila; un estado desconocido es un error de decodificación.
func scanRequest(row pgx.Row) (*entity.MaterialRequest, error) {
	var (
		req    entity.MaterialRequest
		status string
	)
	err := row.Scan(
		&req.ID, &req.WorkerID, &req.WorkerName, &req.WarehouseID, &req.Items, &status, &req.RequestDate,
		&req.ApprovalDate, &req.RejectionDate, &req.CancellationDate, &req.DeliveryDate, &req.AdminNotes, &req.Attachments,
	)
	if err != nil {
		return nil, err
	}
	if err := req.Status.UnmarshalText([]byte(status)); err != nil {
		return nil, domain.Corrupt("solicitud", req.ID, err)
	}
	if req.Attachments == nil {
		req.Attachments = []entity.Attachment{}
	}
	return &req, nil
}

// items y attachments se codifican como JSONB por pgx; nunca se escribe null.
func items(req *entity.MaterialRequest) []entity.RequestItem {
	if req.Items == nil {
		return []entity.RequestItem{}
	}
	return req.Items
}

func attachments(req *entity.MaterialRequest) []entity.Attachment {
	if req.Attachments == nil {
		return []entity.Attachment{}
	}
	return req.Attachments
}
