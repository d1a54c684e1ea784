package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
)

// Los flujos SSE conservan la consulta después de que el handler volvió y fiber reutilizó
// el contexto para otra petición.
func TestListQuery_SobreviveAlHandler(t *testing.T) {
	var captured []dto.ListRequestsQuery
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		q, err := listQuery(c)
		if err != nil {
			return err
		}
		captured = append(captured, q)
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, target := range []string{
		"/?order_by=approvalDate&direction=asc&status=APROBADO",
		"/?order_by=deliveryDate&direction=des&status=ENTREGADO",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	require.Len(t, captured, 2)
	assert.Equal(t, dto.ListRequestsQuery{OrderBy: "approvalDate", Direction: "asc", Status: "APROBADO"}, captured[0])
	assert.Equal(t, dto.ListRequestsQuery{OrderBy: "deliveryDate", Direction: "des", Status: "ENTREGADO"}, captured[1])
}
