package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
)

// AccountLoader reads the current account record.
type AccountLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

var denialMessages = map[string]string{
	moderation.CodeAccountBlocked:       "Akun Anda diblokir oleh admin",
	moderation.CodeVerificationPending:  "Akun Anda sedang menunggu verifikasi admin",
	moderation.CodeVerificationRejected: "Verifikasi akun Anda ditolak",
}

// DenialMessage is the human readable text for a gate outcome code.
func DenialMessage(code string) string {
	return denialMessages[code]
}

// Moderation evaluates the gate against a fresh read of the account, so an
// admin decision applies to the very next request. Must run after
// AttachJWTLocals.
func Moderation(loader AccountLoader, action moderation.Action) fiber.Handler {
	log := logger.WithModule("http")

	return func(c *fiber.Ctx) error {
		uid, ok := UserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		acc, err := loader.Get(c.UserContext(), uid)
		if errors.Is(err, moderation.ErrNotFound) {
			return fiber.ErrUnauthorized
		}
		if err != nil {
			log.Error("load account for gate", zap.String("user_id", uid.String()), zap.Error(err))
			return fiber.ErrInternalServerError
		}

		d := moderation.Decide(moderation.SnapshotOf(acc), action)
		if !d.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"code":    d.Code,
				"reason":  d.Reason,
				"message": DenialMessage(d.Code),
			})
		}

		c.Locals("account", acc)
		c.Locals("moderation", d)
		return c.Next()
	}
}

// Account returns the account loaded by the Moderation middleware.
func Account(c *fiber.Ctx) (*models.User, bool) {
	acc, ok := c.Locals("account").(*models.User)
	return acc, ok && acc != nil
}

// ModerationDecision returns the gate decision of the current request.
func ModerationDecision(c *fiber.Ctx) (moderation.Decision, bool) {
	d, ok := c.Locals("moderation").(moderation.Decision)
	return d, ok
}
