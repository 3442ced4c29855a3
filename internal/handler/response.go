package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/service"
)

// errorBody is the JSON error envelope. Kind is omitted for errors outside the checkout taxonomy.
func errorBody(msg string, kind service.ErrorKind) fiber.Map {
	if kind == "" {
		return fiber.Map{"error": msg}
	}
	return fiber.Map{"error": msg, "kind": string(kind)}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody(msg, service.KindInvalidRequest))
}

func internalError(c *fiber.Ctx, err error, msg string) error {
	log.Error().
		Err(err).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody("internal server error", service.KindServerError))
}

// decodeStrict parses the body into dest, rejecting unknown fields and trailing data,
// then runs struct validation.
func decodeStrict(c *fiber.Ctx, v *validator.Validate, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %s", describeDecodeError(err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid request body: unexpected data after JSON object")
	}
	if err := v.Struct(dest); err != nil {
		return errors.New(formatValidationError(err))
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " has the wrong type"
	}
	if errors.Is(err, io.EOF) {
		return "body is empty"
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "malformed JSON"
	}
	// DisallowUnknownFields reports `json: unknown field "x"`.
	return err.Error()
}

// formatValidationError converts the first validator error to a client message.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum of " + fe.Param()
	case "gte", "min":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "gt":
		return "invalid request: " + field + " must be greater than " + fe.Param()
	case "lte":
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "ne":
		return "invalid request: " + field + " must not be " + fe.Param()
	case "oneof":
		return "invalid request: " + field + " must be one of: " + fe.Param()
	case "email":
		return "invalid request: " + field + " must be a valid email"
	case "uuid":
		return "invalid request: " + field + " must be a valid id"
	default:
		return "invalid request: " + field + " is invalid"
	}
}
