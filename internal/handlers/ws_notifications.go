package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/middleware"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
	"github.com/pintukerja/pintukerja_be/internal/realtime"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

type NotificationSocketHandler struct {
	Hub       *realtime.Hub
	Accounts  middleware.AccountLoader
	JWTSecret string
	log       *zap.Logger
}

func NewNotificationSocketHandler(hub *realtime.Hub, accounts middleware.AccountLoader, secret string) *NotificationSocketHandler {
	return &NotificationSocketHandler{
		Hub:       hub,
		Accounts:  accounts,
		JWTSecret: secret,
		log:       logger.WithModule("realtime"),
	}
}

// Upgrade authenticates the handshake from the session cookie or a token
// query parameter and refuses accounts the gate would not let browse.
func (h *NotificationSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Cookies(utils.TokenCookieName)
	if token == "" {
		token = c.Query("token")
	}
	claims, err := utils.ParseJWT(h.JWTSecret, token)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	acc, err := h.Accounts.Get(c.UserContext(), uid)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	if d := moderation.Decide(moderation.SnapshotOf(acc), moderation.ActionBrowse); !d.Allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"code":    d.Code,
			"reason":  d.Reason,
			"message": middleware.DenialMessage(d.Code),
		})
	}

	c.Locals("wsUserId", uid)
	return c.Next()
}

func (h *NotificationSocketHandler) Serve(c *websocket.Conn) {
	uid, ok := c.Locals("wsUserId").(uuid.UUID)
	if !ok {
		_ = c.Close()
		return
	}

	client := realtime.NewClient(uid, realtime.NewWebSocketConn(c))
	h.Hub.RegisterClient(client)
	h.log.Debug("socket connected", zap.String("user_id", uid.String()))

	pumpDone := make(chan struct{})
	go func() {
		client.WritePump()
		close(pumpDone)
	}()

	// reads only detect disconnects; clients have nothing to send. The loop
	// also ends when the hub drops the user and the pump closes the socket.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}

	h.Hub.UnregisterClient(client)
	<-pumpDone
	h.log.Debug("socket disconnected", zap.String("user_id", uid.String()))
}
