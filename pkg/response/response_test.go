package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"estatelink_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, h fiber.Handler) (int, Envelope) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func TestEnvelopes(t *testing.T) {
	status, env := call(t, func(c *fiber.Ctx) error { return OK(c, fiber.Map{"id": 1}, "done") })
	assert.Equal(t, 200, status)
	assert.True(t, env.Success)
	assert.Equal(t, OutcomeOK, env.Outcome)

	status, env = call(t, func(c *fiber.Ctx) error { return Rejected(c, "already pending") })
	assert.Equal(t, 200, status)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Equal(t, OutcomeRejected, env.Outcome)
	assert.Equal(t, "already pending", env.Message)
}

func TestErrorHandler(t *testing.T) {
	status, env := call(t, func(c *fiber.Ctx) error {
		return NewError(fiber.StatusNotFound, "Plan not found", errors.New("record not found"))
	})
	assert.Equal(t, 404, status)
	assert.Equal(t, "Plan not found", env.Message)
	assert.Equal(t, OutcomeRejected, env.Outcome)

	status, env = call(t, func(c *fiber.Ctx) error { return errors.New("db down") })
	assert.Equal(t, 500, status)
	assert.Equal(t, OutcomeFailed, env.Outcome)
	assert.Equal(t, "Internal server error", env.Message)

	status, env = call(t, func(c *fiber.Ctx) error {
		return &validation.ValidationError{Errors: map[string]string{"duration": "This field is required"}}
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "This field is required", env.Errors["duration"])

	status, _ = call(t, func(c *fiber.Ctx) error { return fiber.ErrUnauthorized })
	assert.Equal(t, 401, status)
}
