package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain"
)

// RequestStatus estado de una solicitud de materiales.
// Se persiste por nombre (PENDIENTE, APROBADO, ...); el valor cero no es un estado válido.
type RequestStatus int

const (
	statusUnknown RequestStatus = iota
	StatusPendiente
	StatusAprobado
	StatusRechazado
	StatusEntregado
	StatusCancelado
)

var requestStatusNames = map[RequestStatus]string{
	StatusPendiente: "PENDIENTE",
	StatusAprobado:  "APROBADO",
	StatusRechazado: "RECHAZADO",
	StatusEntregado: "ENTREGADO",
	StatusCancelado: "CANCELADO",
}

// transiciones permitidas: PENDIENTE -> {APROBADO, RECHAZADO, CANCELADO}; APROBADO -> ENTREGADO.
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusPendiente: {StatusAprobado, StatusRechazado, StatusCancelado},
	StatusAprobado:  {StatusEntregado},
}

func (s RequestStatus) String() string {
	if n, ok := requestStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("RequestStatus(%d)", int(s))
}

// Valid indica si s es uno de los estados definidos.
func (s RequestStatus) Valid() bool {
	_, ok := requestStatusNames[s]
	return ok
}

// Terminal indica si ya no admite transiciones.
func (s RequestStatus) Terminal() bool {
	return s.Valid() && len(requestTransitions[s]) == 0
}

// CanTransitionTo indica si el paso s -> next está permitido.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ParseRequestStatus convierte el nombre persistido al estado; error si no se reconoce.
func ParseRequestStatus(s string) (RequestStatus, error) {
	for st, name := range requestStatusNames {
		if name == s {
			return st, nil
		}
	}
	return statusUnknown, fmt.Errorf("estado de solicitud desconocido: %q", s)
}

// MarshalText implementa encoding.TextMarshaler.
func (s RequestStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("estado de solicitud inválido: %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implementa encoding.TextUnmarshaler.
func (s *RequestStatus) UnmarshalText(b []byte) error {
	v, err := ParseRequestStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RequestItem línea de una solicitud. MaterialName es una copia del catálogo al momento de crearla.
type RequestItem struct {
	MaterialID   string `json:"material_id"`
	MaterialName string `json:"material_name"`
	Quantity     int64  `json:"quantity"`
}

// Attachment archivo subido al blob store y asociado a la solicitud.
type Attachment struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// MaterialRequest solicitud de materiales de un trabajador hacia la bodega móvil WarehouseID.
// Sólo cambia mediante las transiciones definidas y nunca se elimina.
type MaterialRequest struct {
	ID               string
	WorkerID         string
	WorkerName       string
	WarehouseID      string
	Items            []RequestItem
	Status           RequestStatus
	RequestDate      time.Time
	ApprovalDate     *time.Time
	RejectionDate    *time.Time
	CancellationDate *time.Time
	DeliveryDate     *time.Time
	AdminNotes       *string
	Attachments      []Attachment
}

// TransitionError detalle de una transición rechazada. errors.Is(err, domain.ErrInvalidTransition) es verdadero.
type TransitionError struct {
	RequestID string
	From      RequestStatus
	To        RequestStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: solicitud %s: %s -> %s", domain.ErrInvalidTransition, e.RequestID, e.From, e.To)
}

// Is permite errors.Is(err, domain.ErrInvalidTransition).
func (e *TransitionError) Is(target error) bool {
	return target == domain.ErrInvalidTransition
}

// Transition aplica el paso a next sellando la fecha correspondiente.
// notes, si no es nil, reemplaza las notas del administrador.
func (r *MaterialRequest) Transition(next RequestStatus, now time.Time, notes *string) error {
	if !r.Status.CanTransitionTo(next) {
		return &TransitionError{RequestID: r.ID, From: r.Status, To: next}
	}
	switch next {
	case StatusAprobado:
		r.ApprovalDate = &now
	case StatusRechazado:
		r.RejectionDate = &now
	case StatusCancelado:
		r.CancellationDate = &now
	case StatusEntregado:
		r.DeliveryDate = &now
	}
	r.Status = next
	if notes != nil {
		n := *notes
		r.AdminNotes = &n
	}
	return nil
}
