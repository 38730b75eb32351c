package handler

import "github.com/gofiber/fiber/v3"

// Error codes let clients branch without parsing messages.
const (
	codeInvalidRequest = "invalid_request"
	codeUnauthorized   = "unauthorized"
	codeNotFound       = "not_found"
	codeConflict       = "slot_unavailable"
	codeRejected       = "rejected"
	codeInternal       = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func fail(c fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(errorBody{Error: msg, Code: code})
}

func badRequest(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusBadRequest, codeInvalidRequest, msg)
}

func unauthorized(c fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, codeUnauthorized, "unauthorized")
}

func notFound(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusNotFound, codeNotFound, msg)
}

// conflict is only used for slots taken between quote and commit.
func conflict(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusConflict, codeConflict, msg)
}

func unprocessable(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusUnprocessableEntity, codeRejected, msg)
}

func internalError(c fiber.Ctx) error {
	return fail(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
}
