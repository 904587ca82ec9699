package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pintukerja/pintukerja_be/internal/middleware"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"code":    "VALIDATION_ERROR",
		"message": "Validation error",
		"errors":  errs,
	})
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"message": message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, "BAD_REQUEST", message)
}

func notFound(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, "NOT_FOUND", message)
}

func serverError(c *fiber.Ctx, log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.String("path", c.Path()), zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Terjadi kesalahan server")
}

// moderationFail renders an error returned by the moderation service.
func moderationFail(c *fiber.Ctx, log *zap.Logger, err error) error {
	var merr *moderation.Error
	if !errors.As(err, &merr) {
		return serverError(c, log, "moderation", err)
	}
	return fail(c, moderation.HTTPStatus(err), moderation.Code(err), merr.Message)
}

func respondOK(c *fiber.Ctx, message string, data interface{}) error {
	body := fiber.Map{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	return c.JSON(body)
}

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}
	return id, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
