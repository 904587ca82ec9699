package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
)

type AdminModerationHandler struct {
	Svc *moderation.Service
	log *zap.Logger
}

func NewAdminModerationHandler(svc *moderation.Service) *AdminModerationHandler {
	return &AdminModerationHandler{Svc: svc, log: logger.WithModule("moderation")}
}

type moderationReq struct {
	Reason string `json:"reason"`
}

// accountAdminView is the account as an admin sees it, including the profile
// data reviewed for verification.
func accountAdminView(u *models.User) fiber.Map {
	v := userView(u)
	v["created_at"] = u.CreatedAt
	v["updated_at"] = u.UpdatedAt
	if u.EmployerProfile != nil {
		v["employer_profile"] = u.EmployerProfile
	}
	return v
}

func (h *AdminModerationHandler) List(c *fiber.Ctx) error {
	f := moderation.ListFilter{
		Role:   models.Role(c.Query("role")),
		Status: models.VerificationStatus(c.Query("status")),
		Query:  c.Query("q"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}
	if f.Role != "" && !f.Role.Valid() {
		return badRequest(c, "role tidak valid")
	}
	if f.Status != "" && !f.Status.Valid() {
		return badRequest(c, "status tidak valid")
	}
	if raw := c.Query("blocked"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "blocked harus true/false")
		}
		f.Blocked = &b
	}

	users, total, err := h.Svc.List(c.UserContext(), f)
	if err != nil {
		return serverError(c, h.log, "list accounts", err)
	}

	items := make([]fiber.Map, 0, len(users))
	for i := range users {
		items = append(items, accountAdminView(&users[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"meta": fiber.Map{
			"total": total,
			"page":  f.Page,
			"limit": f.Limit,
		},
	})
}

func (h *AdminModerationHandler) Get(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "ID akun tidak valid")
	}
	u, err := h.Svc.Detail(c.UserContext(), id)
	if err != nil {
		return moderationFail(c, h.log, err)
	}
	return respondOK(c, "", accountAdminView(u))
}

func (h *AdminModerationHandler) History(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "ID akun tidak valid")
	}
	events, err := h.Svc.History(c.UserContext(), id)
	if err != nil {
		return moderationFail(c, h.log, err)
	}
	return respondOK(c, "", events)
}

type transitionFunc func(ctx context.Context, accountID, actorID uuid.UUID, reason string) (*models.User, error)

func (h *AdminModerationHandler) transition(fn transitionFunc, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := getUserUUID(c)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		id, valid := paramUUID(c, "id")
		if !valid {
			return badRequest(c, "ID akun tidak valid")
		}

		var req moderationReq
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "Body tidak valid")
			}
		}

		u, err := fn(c.UserContext(), id, actorID, req.Reason)
		if err != nil {
			return moderationFail(c, h.log, err)
		}
		return respondOK(c, message, accountAdminView(u))
	}
}

func (h *AdminModerationHandler) Verify() fiber.Handler {
	return h.transition(func(ctx context.Context, accountID, actorID uuid.UUID, _ string) (*models.User, error) {
		return h.Svc.Verify(ctx, accountID, actorID)
	}, "Akun terverifikasi")
}

func (h *AdminModerationHandler) Reject() fiber.Handler {
	return h.transition(h.Svc.Reject, "Verifikasi ditolak")
}

func (h *AdminModerationHandler) Block() fiber.Handler {
	return h.transition(h.Svc.Block, "Akun diblokir")
}

func (h *AdminModerationHandler) Unblock() fiber.Handler {
	return h.transition(h.Svc.Unblock, "Blokir dibuka")
}

func (h *AdminModerationHandler) Reopen() fiber.Handler {
	return h.transition(h.Svc.Reopen, "Akun kembali ke antrean verifikasi")
}
