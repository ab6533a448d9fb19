// Package response writes the JSON envelopes every ledger endpoint returns and
// maps ledger error kinds onto HTTP statuses.
package response

import (
	"errors"

	"fundledger-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SuccessBody wraps a successful result.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody wraps a failure.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func orEmpty(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

func success(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	return c.Status(code).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: orEmpty(metadata),
	})
}

// Success writes a 200 envelope.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated writes a 201 envelope.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusCreated, message, data, metadata)
}

// Error writes an error envelope with statusCode.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    orEmpty(details),
		},
	})
}

// Unauthorized is the 401 written when no session actor is present.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

var ledgerStatus = []struct {
	err  error
	code int
}{
	{domain.ErrInsufficientQuotas, fiber.StatusConflict},
	{domain.ErrValidationFailed, fiber.StatusUnprocessableEntity},
	{domain.ErrNotFound, fiber.StatusNotFound},
	{domain.ErrNotAuthorized, fiber.StatusForbidden},
	{domain.ErrConcurrentUpdate, fiber.StatusConflict},
}

// StatusFor maps a ledger error kind to its HTTP status; unknown errors are 500.
func StatusFor(err error) int {
	for _, m := range ledgerStatus {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return fiber.StatusInternalServerError
}

// LedgerError writes err with the status of its kind. Internal errors are
// logged and their message is not exposed.
func LedgerError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("ledger operation failed")
		return Error(c, "Internal Server Error", code, nil)
	}
	return Error(c, err.Error(), code, nil)
}
