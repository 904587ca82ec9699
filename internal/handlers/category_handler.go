package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
)

type CategoryHandler struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db, log: logger.WithModule("jobs")}
}

// GetCategories lists the categories that currently have public jobs.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories := []string{}

	err := publicJobs(h.DB).
		Where("jobs.category <> ''").
		Distinct("jobs.category").
		Order("jobs.category").
		Pluck("jobs.category", &categories).
		Error
	if err != nil {
		return serverError(c, h.log, "list categories", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}
