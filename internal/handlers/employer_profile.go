package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/middleware"
	"github.com/pintukerja/pintukerja_be/internal/models"
)

type EmployerProfileHandler struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewEmployerProfileHandler(db *gorm.DB) *EmployerProfileHandler {
	return &EmployerProfileHandler{DB: db, log: logger.WithModule("employer")}
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phone
}

func noticeOf(c *fiber.Ctx) interface{} {
	if d, ok := middleware.ModerationDecision(c); ok && d.Notice != nil {
		return d.Notice
	}
	return nil
}

func (h *EmployerProfileHandler) Get(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var profile models.EmployerProfile
	err = h.DB.Where("user_id = ?", uid).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c, "Profil perusahaan tidak ditemukan")
	}
	if err != nil {
		return serverError(c, h.log, "load employer profile", err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       profile,
		"moderation": noticeOf(c),
	})
}

type UpdateEmployerProfileReq struct {
	CompanyName  string `json:"company_name" validate:"required,min=2,max=150"`
	Industry     string `json:"industry" validate:"max=80"`
	CompanySize  string `json:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200 200+"`
	Website      string `json:"website" validate:"omitempty,url,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	LogoURL      string `json:"logo_url" validate:"omitempty,url"`
	NPWP         string `json:"npwp" validate:"npwp"`
	DocumentURL  string `json:"document_url" validate:"omitempty,url"`
	Address      string `json:"address" validate:"max=500"`
	City         string `json:"city" validate:"max=120"`
	Province     string `json:"province" validate:"max=120"`
	PostalCode   string `json:"postal_code" validate:"omitempty,numeric,len=5"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,min=8,max=20"`
}

// Update saves the company profile. Moderation state is left untouched: a
// rejected employer stays rejected until an admin reviews the account again.
func (h *EmployerProfileHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req UpdateEmployerProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Body tidak valid")
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.NPWP = strings.NewReplacer(".", "", "-", "", " ", "").Replace(req.NPWP)
	req.ContactPhone = normalizePhone(req.ContactPhone)

	if errs := validateStruct(&req); errs != nil {
		return validationFail(c, errs)
	}

	var profile models.EmployerProfile
	err = h.DB.Where("user_id = ?", uid).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return serverError(c, h.log, "load employer profile", err)
	}

	profile.UserID = uid
	profile.CompanyName = req.CompanyName
	profile.Industry = strings.TrimSpace(req.Industry)
	profile.CompanySize = models.CompanySize(req.CompanySize)
	profile.Website = strings.TrimSpace(req.Website)
	profile.Description = strings.TrimSpace(req.Description)
	profile.LogoURL = req.LogoURL
	profile.NPWP = req.NPWP
	profile.DocumentURL = req.DocumentURL
	profile.Address = strings.TrimSpace(req.Address)
	profile.City = strings.TrimSpace(req.City)
	profile.Province = strings.TrimSpace(req.Province)
	profile.PostalCode = req.PostalCode
	profile.ContactPhone = req.ContactPhone

	if err := h.DB.Save(&profile).Error; err != nil {
		return serverError(c, h.log, "save employer profile", err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Profil perusahaan disimpan",
		"data":       profile,
		"moderation": noticeOf(c),
	})
}
