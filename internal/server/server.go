package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/config"
	"github.com/pintukerja/pintukerja_be/internal/handlers"
	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/middleware"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
	"github.com/pintukerja/pintukerja_be/internal/notify"
	"github.com/pintukerja/pintukerja_be/internal/realtime"
)

// Deps are the long lived collaborators the HTTP layer needs.
type Deps struct {
	Config     config.Config
	DB         *gorm.DB
	Hub        *realtime.Hub
	Moderation *moderation.Service
	Notifier   *notify.Dispatcher
}

var statusCodes = map[int]string{
	fiber.StatusBadRequest:            "BAD_REQUEST",
	fiber.StatusUnauthorized:          "UNAUTHORIZED",
	fiber.StatusForbidden:             "FORBIDDEN",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusConflict:              "CONFLICT",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUpgradeRequired:       "UPGRADE_REQUIRED",
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Terjadi kesalahan server"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		logger.WithModule("http").Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}

	code, ok := statusCodes[status]
	if !ok {
		code = "INTERNAL_ERROR"
	}
	if status == fiber.StatusUnauthorized {
		message = "Sesi tidak valid, silakan login kembali"
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"message": message,
	})
}

// New builds the fiber app with every route wired.
func New(d Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		AppName:      "pintukerja-api",
	})

	app.Use(recover.New())
	app.Use(middleware.AccessLog())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.ReplaceAll(cfg.CORSOrigins, " ", ""),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "database unavailable"})
		}
		return c.JSON(fiber.Map{"success": true, "message": "ok"})
	})

	authH := handlers.NewAuthHandler(d.DB, cfg.JWTSecret, cfg.JWTExpiresMin, cfg.CookieSecure)
	googleH := handlers.NewGoogleOAuthHandler(handlers.GoogleOAuthHandler{
		DB:              d.DB,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		CookieSecure:    cfg.CookieSecure,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})
	jobH := handlers.NewJobHandler(d.DB, cfg.IDEncryptKey)
	categoryH := handlers.NewCategoryHandler(d.DB)
	var appNotifier handlers.ApplicationNotifier
	if d.Notifier != nil {
		appNotifier = d.Notifier
	}
	applicationH := handlers.NewApplicationHandler(d.DB, jobH, appNotifier)
	profileH := handlers.NewEmployerProfileHandler(d.DB)
	dashboardH := handlers.NewDashboardHandler(d.DB)
	notificationH := handlers.NewNotificationHandler(d.DB)
	adminH := handlers.NewAdminModerationHandler(d.Moderation)

	authn := []fiber.Handler{middleware.JWTFromCookie(cfg.JWTSecret), middleware.AttachJWTLocals()}

	// gated builds the chain for an authenticated route: session, optional
	// role guard, then the moderation gate for action.
	gated := func(action moderation.Action, h fiber.Handler, roles ...string) []fiber.Handler {
		chain := append([]fiber.Handler{}, authn...)
		if len(roles) > 0 {
			chain = append(chain, middleware.RequireRoles(roles...))
		}
		return append(chain, middleware.Moderation(d.Moderation, action), h)
	}
	admin := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, authn...), middleware.RequireRoles(string(models.RoleAdmin)), h)
	}

	employer := string(models.RoleEmployer)
	jobSeeker := string(models.RoleJobSeeker)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/jobs", jobH.ListPublic)
	api.Get("/jobs/:id", jobH.GetDetail)

	// any authenticated account
	api.Get("/me", gated(moderation.ActionBrowse, dashboardH.Me)...)
	api.Get("/dashboard", gated(moderation.ActionBrowse, dashboardH.Stats)...)
	api.Get("/notifications", gated(moderation.ActionBrowse, notificationH.List)...)
	api.Patch("/notifications/:id/read", gated(moderation.ActionWrite, notificationH.MarkRead)...)

	// employer
	api.Get("/employer/profile", gated(moderation.ActionBrowse, profileH.Get, employer)...)
	api.Put("/employer/profile", gated(moderation.ActionWrite, profileH.Update, employer)...)
	api.Post("/employer/jobs", gated(moderation.ActionPostJob, jobH.Create, employer)...)
	api.Get("/employer/jobs", gated(moderation.ActionBrowse, jobH.ListMine, employer)...)
	api.Patch("/employer/jobs/:id/close", gated(moderation.ActionWrite, jobH.Close, employer)...)
	api.Get("/employer/jobs/:id/applications", gated(moderation.ActionBrowse, applicationH.ListForJob, employer)...)
	api.Patch("/employer/applications/:id/status", gated(moderation.ActionWrite, applicationH.UpdateStatus, employer)...)

	// job seeker
	api.Post("/jobs/:id/applications", gated(moderation.ActionSubmitApplication, applicationH.Apply, jobSeeker)...)
	api.Get("/job-seeker/applications", gated(moderation.ActionBrowse, applicationH.ListMine, jobSeeker)...)

	// admin
	api.Get("/admin/users", admin(adminH.List)...)
	api.Get("/admin/users/:id", admin(adminH.Get)...)
	api.Get("/admin/users/:id/history", admin(adminH.History)...)
	api.Post("/admin/users/:id/verify", admin(adminH.Verify())...)
	api.Post("/admin/users/:id/reject", admin(adminH.Reject())...)
	api.Post("/admin/users/:id/block", admin(adminH.Block())...)
	api.Post("/admin/users/:id/unblock", admin(adminH.Unblock())...)
	api.Post("/admin/users/:id/reopen", admin(adminH.Reopen())...)

	if d.Hub != nil {
		wsH := handlers.NewNotificationSocketHandler(d.Hub, d.Moderation, cfg.JWTSecret)
		app.Get("/ws/notifications", wsH.Upgrade, websocket.New(wsH.Serve))
	}

	return app
}
