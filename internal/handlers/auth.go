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
	"github.com/pintukerja/pintukerja_be/internal/moderation"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

type AuthHandler struct {
	DB           *gorm.DB
	JWTSecret    string
	Expires      int
	CookieSecure bool
	log          *zap.Logger
}

func NewAuthHandler(db *gorm.DB, secret string, expiresMin int, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		DB:           db,
		JWTSecret:    secret,
		Expires:      expiresMin,
		CookieSecure: cookieSecure,
		log:          logger.WithModule("auth"),
	}
}

type RegisterReq struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email,max=150"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Phone       string `json:"phone" validate:"omitempty,min=8,max=20"`
	Role        string `json:"role" validate:"required,oneof=job_seeker employer"` // admin never from public
	CompanyName string `json:"company_name" validate:"required_if=Role employer,max=150"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Body tidak valid")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	req.CompanyName = strings.TrimSpace(req.CompanyName)

	if errs := validateStruct(&req); errs != nil {
		return validationFail(c, errs)
	}

	// --- Cek email / phone sudah ada
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return serverError(c, h.log, "check email", err)
	}
	if count > 0 {
		errs := FieldErrors{}
		errs.Add("email", "Email sudah terdaftar")
		return validationFail(c, errs)
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
		if err := h.DB.Model(&models.User{}).Where("phone = ?", req.Phone).Count(&count).Error; err != nil {
			return serverError(c, h.log, "check phone", err)
		}
		if count > 0 {
			errs := FieldErrors{}
			errs.Add("phone", "No. HP sudah terdaftar")
			return validationFail(c, errs)
		}
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return serverError(c, h.log, "hash password", err)
	}

	role := models.Role(req.Role)
	u := models.User{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              phone,
		Password:           pw,
		Role:               role,
		VerificationStatus: models.InitialVerificationStatus(role),
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if role != models.RoleEmployer {
			return nil
		}
		profile := models.EmployerProfile{UserID: u.ID, CompanyName: req.CompanyName}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		u.EmployerProfile = &profile
		return nil
	})
	if isUniqueViolation(err) {
		// lost a race with a concurrent registration
		errs := FieldErrors{}
		if uniqueViolationField(err) == "phone" {
			errs.Add("phone", "No. HP sudah terdaftar")
		} else {
			errs.Add("email", "Email sudah terdaftar")
		}
		return validationFail(c, errs)
	}
	if err != nil {
		return serverError(c, h.log, "create account", err)
	}

	if err := h.issueSession(c, &u); err != nil {
		return serverError(c, h.log, "sign token", err)
	}

	h.log.Info("account registered", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Register berhasil",
		"data": fiber.Map{
			"user": userView(&u),
		},
	})
}

// uniqueViolationField names the users column a unique violation hit.
func uniqueViolationField(err error) string {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "users.phone") || strings.Contains(msg, "idx_users_phone") {
		return "phone"
	}
	return "email"
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Body tidak valid")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validateStruct(&req); errs != nil {
		return validationFail(c, errs)
	}

	var u models.User
	err := h.DB.Where("email = ?", req.Email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(u.Password, req.Password)) {
		return fail(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "Email atau password salah")
	}
	if err != nil {
		return serverError(c, h.log, "load account", err)
	}

	// blocked accounts get the reason instead of a session
	d := moderation.Decide(moderation.SnapshotOf(&u), moderation.ActionBrowse)
	if !d.Allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"code":    d.Code,
			"reason":  d.Reason,
			"message": middleware.DenialMessage(d.Code),
		})
	}

	if err := h.issueSession(c, &u); err != nil {
		return serverError(c, h.log, "sign token", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login berhasil",
		"data": fiber.Map{
			"user":       userView(&u),
			"moderation": d.Notice,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearCookie(c, utils.TokenCookieName, h.CookieSecure)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout berhasil",
	})
}

func (h *AuthHandler) issueSession(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return err
	}
	setSessionCookie(c, token, h.Expires, h.CookieSecure)
	return nil
}

func setSessionCookie(c *fiber.Ctx, token string, expiresMin int, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.TokenCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		MaxAge:   expiresMin * 60,
	})
}

func clearCookie(c *fiber.Ctx, name string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
}

// userView is the account as the owner sees it.
func userView(u *models.User) fiber.Map {
	return fiber.Map{
		"id":                  u.ID,
		"name":                u.Name,
		"email":               u.Email,
		"phone":               u.Phone,
		"role":                u.Role,
		"verification_status": u.VerificationStatus,
		"rejection_reason":    u.RejectionReason,
		"is_blocked":          u.IsBlocked,
		"block_reason":        u.BlockReason,
	}
}
