package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/middleware"
	"github.com/pintukerja/pintukerja_be/internal/models"
)

type DashboardHandler struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db, log: logger.WithModule("dashboard")}
}

// Me returns the caller's account with its current moderation state.
func (h *DashboardHandler) Me(c *fiber.Ctx) error {
	acc, ok := middleware.Account(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	v := userView(acc)
	v["moderation"] = noticeOf(c)
	return c.JSON(fiber.Map{"success": true, "data": v})
}

// Stats returns the role specific dashboard summary. Employers that are not
// verified get the pending or rejected notice alongside their numbers.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	acc, ok := middleware.Account(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	stats := fiber.Map{}
	switch acc.Role {
	case models.RoleEmployer:
		var openJobs, totalApps, newApps int64
		if err := h.DB.Model(&models.Job{}).
			Where("employer_id = ? AND status = ?", acc.ID, models.JobStatusOpen).
			Count(&openJobs).Error; err != nil {
			return serverError(c, h.log, "count open jobs", err)
		}
		base := h.DB.Model(&models.Application{}).
			Joins("JOIN jobs ON jobs.id = applications.job_id").
			Where("jobs.employer_id = ?", acc.ID)
		if err := base.Session(&gorm.Session{}).Count(&totalApps).Error; err != nil {
			return serverError(c, h.log, "count applications", err)
		}
		if err := base.Session(&gorm.Session{}).
			Where("applications.status = ?", models.ApplicationSubmitted).
			Count(&newApps).Error; err != nil {
			return serverError(c, h.log, "count new applications", err)
		}
		stats["open_jobs"] = openJobs
		stats["total_applications"] = totalApps
		stats["new_applications"] = newApps
		stats["can_post_job"] = acc.VerificationStatus == models.VerificationVerified

	case models.RoleJobSeeker:
		type statusCount struct {
			Status models.ApplicationStatus
			Total  int64
		}
		var rows []statusCount
		if err := h.DB.Model(&models.Application{}).
			Select("status, COUNT(*) AS total").
			Where("job_seeker_id = ?", acc.ID).
			Group("status").
			Scan(&rows).Error; err != nil {
			return serverError(c, h.log, "count applications by status", err)
		}
		byStatus := fiber.Map{}
		var total int64
		for _, r := range rows {
			byStatus[string(r.Status)] = r.Total
			total += r.Total
		}
		stats["applications"] = total
		stats["applications_by_status"] = byStatus
	}

	var unread int64
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", acc.ID, false).
		Count(&unread).Error; err != nil {
		return serverError(c, h.log, "count unread notifications", err)
	}
	stats["unread_notifications"] = unread

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"role":                acc.Role,
			"verification_status": acc.VerificationStatus,
			"stats":               stats,
			"moderation":          noticeOf(c),
		},
	})
}
