package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/domain"
)

func TestRequestStatus_TransicionesPermitidas(t *testing.T) {
	all := []RequestStatus{StatusPendiente, StatusAprobado, StatusRechazado, StatusEntregado, StatusCancelado}
	allowed := map[[2]RequestStatus]bool{
		{StatusPendiente, StatusAprobado}:  true,
		{StatusPendiente, StatusRechazado}: true,
		{StatusPendiente, StatusCancelado}: true,
		{StatusAprobado, StatusEntregado}:  true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]RequestStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	for _, s := range []RequestStatus{StatusRechazado, StatusEntregado, StatusCancelado} {
		assert.True(t, s.Terminal(), s.String())
	}
	assert.False(t, StatusPendiente.Terminal())
}

func TestMaterialRequest_TransitionSellaFechas(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	notes := "aprobado por bodega"
	r := &MaterialRequest{ID: "r1", Status: StatusPendiente}

	require.NoError(t, r.Transition(StatusAprobado, now, &notes))
	assert.Equal(t, StatusAprobado, r.Status)
	require.NotNil(t, r.ApprovalDate)
	assert.Equal(t, now, *r.ApprovalDate)
	require.NotNil(t, r.AdminNotes)
	assert.Equal(t, notes, *r.AdminNotes)

	later := now.Add(time.Hour)
	require.NoError(t, r.Transition(StatusEntregado, later, nil))
	require.NotNil(t, r.DeliveryDate)
	assert.Equal(t, later, *r.DeliveryDate)
	assert.Equal(t, notes, *r.AdminNotes, "notes nil conserva las notas")
	assert.Nil(t, r.RejectionDate)
	assert.Nil(t, r.CancellationDate)
}

func TestMaterialRequest_TransitionInvalida(t *testing.T) {
	r := &MaterialRequest{ID: "r1", Status: StatusRechazado}
	err := r.Transition(StatusAprobado, time.Now(), nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusRechazado, te.From)
	assert.Equal(t, StatusAprobado, te.To)
	assert.Equal(t, StatusRechazado, r.Status, "el estado no cambia")
	assert.Nil(t, r.ApprovalDate)
}

func TestRequestStatus_TextoPersistido(t *testing.T) {
	b, err := json.Marshal(StatusEntregado)
	require.NoError(t, err)
	assert.Equal(t, `"ENTREGADO"`, string(b))

	var s RequestStatus
	require.NoError(t, json.Unmarshal([]byte(`"CANCELADO"`), &s))
	assert.Equal(t, StatusCancelado, s)

	assert.Error(t, json.Unmarshal([]byte(`"BORRADOR"`), &s))
	_, err = json.Marshal(RequestStatus(0))
	assert.Error(t, err)
}
