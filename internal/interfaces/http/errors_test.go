package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
)

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validación", domain.Validation("x"), fiber.StatusBadRequest, "VALIDATION"},
		{"stock", &domain.InsufficientStockError{WarehouseID: "c", MaterialID: "m"}, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		{"store caído", domain.Unavailable("get", errors.New("conn reset")), fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"dato corrupto", domain.Unavailable("get", domain.Corrupt("solicitud", "r1", errors.New("estado"))), fiber.StatusInternalServerError, "CORRUPT_DATA"},
		{"desconocido", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}
