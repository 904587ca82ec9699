package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

// ApplicationNotifier is told about application events. Calls must not fail
// the request.
type ApplicationNotifier interface {
	ApplicationCreated(ctx context.Context, employerID uuid.UUID, job *models.Job, applicant *models.User)
	ApplicationStatusChanged(ctx context.Context, app *models.Application, jobTitle string)
}

type ApplicationHandler struct {
	DB       *gorm.DB
	Jobs     *JobHandler
	Notifier ApplicationNotifier
	log      *zap.Logger
}

func NewApplicationHandler(db *gorm.DB, jobs *JobHandler, n ApplicationNotifier) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Jobs: jobs, Notifier: n, log: logger.WithModule("applications")}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint")
}

type ApplyReq struct {
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
	ResumeURL   string `json:"resume_url" validate:"required,url"`
}

// Apply submits the caller's application to an open job.
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req ApplyReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	// closed jobs and jobs of hidden employers are not found
	job, err := h.Jobs.findPublicJob(c.Params("id"))
	if err != nil {
		return h.Jobs.jobLookupFail(c, err)
	}

	app := models.Application{
		JobID:       job.ID,
		JobSeekerID: uid,
		CoverLetter: strings.TrimSpace(req.CoverLetter),
		ResumeURL:   req.ResumeURL,
		Status:      models.ApplicationSubmitted,
	}
	if err := h.DB.Create(&app).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "ALREADY_APPLIED", "Anda sudah melamar lowongan ini")
		}
		return serverError(c, h.log, "create application", err)
	}

	var applicant models.User
	if err := h.DB.Select("id", "name").First(&applicant, "id = ?", uid).Error; err == nil && h.Notifier != nil {
		h.Notifier.ApplicationCreated(c.UserContext(), job.EmployerID, job, &applicant)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Lamaran terkirim",
		"data":    h.applicationView(&app, job),
	})
}

func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var apps []models.Application
	if err := h.DB.Preload("Job").
		Where("job_seeker_id = ?", uid).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return serverError(c, h.log, "list applications", err)
	}

	out := make([]fiber.Map, 0, len(apps))
	for i := range apps {
		out = append(out, h.applicationView(&apps[i], apps[i].Job))
	}
	return respondOK(c, "", out)
}

// ListForJob lists applicants of one of the caller's jobs.
func (h *ApplicationHandler) ListForJob(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	job, err := h.Jobs.ownedJob(c.Params("id"), uid)
	if err != nil {
		return h.Jobs.jobLookupFail(c, err)
	}

	var apps []models.Application
	if err := h.DB.Preload("JobSeeker").
		Where("job_id = ?", job.ID).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		return serverError(c, h.log, "list job applications", err)
	}

	out := make([]fiber.Map, 0, len(apps))
	for i := range apps {
		v := h.applicationView(&apps[i], job)
		if js := apps[i].JobSeeker; js != nil {
			v["job_seeker"] = fiber.Map{"id": js.ID, "name": js.Name, "email": js.Email, "phone": js.Phone}
		}
		out = append(out, v)
	}
	return respondOK(c, "", out)
}

var applicationTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationSubmitted: {models.ApplicationReviewed, models.ApplicationAccepted, models.ApplicationRejected},
	models.ApplicationReviewed:  {models.ApplicationAccepted, models.ApplicationRejected},
}

func canMoveApplication(from, to models.ApplicationStatus) bool {
	for _, s := range applicationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type UpdateApplicationStatusReq struct {
	Status string `json:"status" validate:"required,oneof=reviewed accepted rejected"`
}

func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	appID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "ID lamaran tidak valid")
	}

	var req UpdateApplicationStatusReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	to := models.ApplicationStatus(req.Status)

	var app models.Application
	err = h.DB.Preload("Job").First(&app, "id = ?", appID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && (app.Job == nil || app.Job.EmployerID != uid)) {
		return notFound(c, "Lamaran tidak ditemukan")
	}
	if err != nil {
		return serverError(c, h.log, "load application", err)
	}

	if !canMoveApplication(app.Status, to) {
		return fail(c, fiber.StatusConflict, "INVALID_STATE", "Status lamaran tidak dapat diubah ke "+req.Status)
	}

	res := h.DB.Model(&models.Application{}).
		Where("id = ? AND status = ?", app.ID, app.Status).
		Update("status", to)
	if res.Error != nil {
		return serverError(c, h.log, "update application status", res.Error)
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusConflict, "INVALID_STATE", "Lamaran baru saja diubah, muat ulang data")
	}
	app.Status = to

	if h.Notifier != nil {
		h.Notifier.ApplicationStatusChanged(c.UserContext(), &app, app.Job.Title)
	}

	return respondOK(c, "Status lamaran diperbarui", h.applicationView(&app, app.Job))
}

func (h *ApplicationHandler) applicationView(a *models.Application, job *models.Job) fiber.Map {
	v := fiber.Map{
		"id":           a.ID,
		"cover_letter": a.CoverLetter,
		"resume_url":   a.ResumeURL,
		"status":       a.Status,
		"created_at":   a.CreatedAt,
		"updated_at":   a.UpdatedAt,
	}
	if job != nil {
		v["job"] = fiber.Map{
			"id":     utils.PublicID(job.ID, h.Jobs.IDKey),
			"title":  job.Title,
			"status": job.Status,
		}
	}
	return v
}
