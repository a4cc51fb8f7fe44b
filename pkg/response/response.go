package response

import (
	"errors"

	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
)

// Outcome tells clients whether a retry could help: "rejected" never will,
// "failed" may.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data"`
	Message string            `json:"message"`
	Outcome string            `json:"outcome"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// HTTPError carries a status code chosen by the handler.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewError(status int, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Message: message, Err: err}
}

func OK(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(Envelope{Success: true, Data: data, Message: message, Outcome: OutcomeOK})
}

func Created(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data, Message: message, Outcome: OutcomeOK})
}

// Rejected answers a business-rule refusal: HTTP 200 with a null payload.
func Rejected(c *fiber.Ctx, reason string) error {
	return c.JSON(Envelope{Success: false, Data: nil, Message: reason, Outcome: OutcomeRejected})
}

func Fail(c *fiber.Ctx, status int, message string) error {
	outcome := OutcomeRejected
	if status >= fiber.StatusInternalServerError {
		outcome = OutcomeFailed
	}
	return c.Status(status).JSON(Envelope{Success: false, Data: nil, Message: message, Outcome: outcome})
}

// ErrorHandler is the fiber error handler. It renders every error in the envelope shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Message: "Validation failed",
			Outcome: OutcomeRejected,
			Errors:  verr.Errors,
		})
	}

	var herr *HTTPError
	if errors.As(err, &herr) {
		if herr.Status >= fiber.StatusInternalServerError {
			logger.FromContext(c.UserContext()).Error("request failed",
				"error", err, "method", c.Method(), "path", c.Path())
		}
		return Fail(c, herr.Status, herr.Message)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return Fail(c, ferr.Code, ferr.Message)
	}

	logger.FromContext(c.UserContext()).Error("unhandled error",
		"error", err, "method", c.Method(), "path", c.Path())
	return Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
