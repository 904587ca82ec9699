package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	DB              *gorm.DB
	JWTSecret       string
	Expires         int
	CookieSecure    bool
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	log             *zap.Logger
}

func NewGoogleOAuthHandler(h GoogleOAuthHandler) *GoogleOAuthHandler {
	h.log = logger.WithModule("auth")
	return &h
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) tempCookie(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.CookieSecure,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})
}

// safeNext only allows relative paths on the frontend.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	if h.GoogleClientID == "" {
		return fail(c, fiber.StatusServiceUnavailable, "OAUTH_DISABLED", "Login Google belum dikonfigurasi")
	}

	st := randomState(32)
	h.tempCookie(c, "oauth_state", st)
	h.tempCookie(c, "oauth_next", safeNext(c.Query("next", "/")))

	return c.Redirect(h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *GoogleOAuthHandler) redirectErr(c *fiber.Ctx, msg string) error {
	return c.Redirect(h.FrontendBaseURL+"/auth/login?err="+url.QueryEscape(msg), http.StatusTemporaryRedirect)
}

// GoogleCallback signs in (or creates) a job seeker account. Employers need a
// company profile and register through the form.
func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return badRequest(c, "Missing code/state")
	}

	stCookie := c.Cookies("oauth_state")
	next := safeNext(c.Cookies("oauth_next"))
	if stCookie == "" || stCookie != state {
		return badRequest(c, "Invalid state")
	}

	tok, err := h.oauthCfg().Exchange(c.UserContext(), code)
	if err != nil {
		h.log.Warn("oauth exchange failed", zap.Error(err))
		return badRequest(c, "Failed to exchange code")
	}

	client := h.oauthCfg().Client(c.UserContext(), tok)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		h.log.Warn("fetch userinfo failed", zap.Error(err))
		return badRequest(c, "Failed to fetch userinfo")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return badRequest(c, "Failed to decode userinfo")
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	name := strings.TrimSpace(gu.Name)
	if email == "" || !gu.VerifiedEmail {
		return h.redirectErr(c, "Email Google belum terverifikasi")
	}

	u, err := h.findOrCreate(email, name)
	if err != nil {
		return serverError(c, h.log, "google account upsert", err)
	}

	if u.IsBlocked {
		return h.redirectErr(c, "Akun Anda diblokir")
	}

	jwtToken, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return serverError(c, h.log, "sign token", err)
	}
	setSessionCookie(c, jwtToken, h.Expires, h.CookieSecure)

	clearCookie(c, "oauth_state", h.CookieSecure)
	clearCookie(c, "oauth_next", h.CookieSecure)

	return c.Redirect(h.FrontendBaseURL+next, http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) findOrCreate(email, name string) (*models.User, error) {
	var u models.User
	err := h.DB.Where("email = ?", email).First(&u).Error
	if err == nil {
		if name != "" && u.Name != name {
			if err := h.DB.Model(&u).Update("name", name).Error; err != nil {
				h.log.Warn("update name from google", zap.Error(err))
			}
		}
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// password is never used for google accounts
	hashed, err := utils.HashPassword(randomState(24))
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	u = models.User{
		Name:               name,
		Email:              email,
		Password:           hashed,
		Role:               models.RoleJobSeeker,
		VerificationStatus: models.InitialVerificationStatus(models.RoleJobSeeker),
	}
	if err := h.DB.Create(&u).Error; err != nil {
		return nil, err
	}
	h.log.Info("account registered via google", zap.String("user_id", u.ID.String()))
	return &u, nil
}
