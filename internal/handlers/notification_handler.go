package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
)

type NotificationHandler struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db, log: logger.WithModule("notify")}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	limit := c.QueryInt("limit", 30)
	if limit < 1 || limit > 100 {
		limit = 30
	}

	q := h.DB.Where("user_id = ?", uid)
	if c.QueryBool("unread", false) {
		q = q.Where("is_read = ?", false)
	}

	var items []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return serverError(c, h.log, "list notifications", err)
	}
	return respondOK(c, "", items)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "ID notifikasi tidak valid")
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, uid).
		Update("is_read", true)
	if res.Error != nil {
		return serverError(c, h.log, "mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(c, "Notifikasi tidak ditemukan")
	}
	return c.JSON(fiber.Map{"success": true})
}
