package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/config"
	"github.com/pintukerja/pintukerja_be/internal/db"
	"github.com/pintukerja/pintukerja_be/internal/db/testutil"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/moderation"
	"github.com/pintukerja/pintukerja_be/internal/notify"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

const (
	adminEmail    = "admin@pintukerja.id"
	adminPassword = "rahasia-admin"
)

type env struct {
	t     *testing.T
	db    *gorm.DB
	app   *fiber.App
	admin *http.Cookie
}

type result struct {
	Status int
	Body   map[string]interface{}
	Cookie *http.Cookie
}

func (r result) data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.MustOpenTestDB(t)

	_, err := db.SeedAdmin(gdb, adminEmail, adminPassword)
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(gdb, nil, nil)
	app := New(Deps{
		Config: config.Config{
			JWTSecret:     "test-secret",
			JWTExpiresMin: 60,
			CORSOrigins:   "http://localhost:3000",
			IDEncryptKey:  "0123456789abcdef",
		},
		DB:         gdb,
		Moderation: moderation.NewService(gdb, moderation.WithNotifier(dispatcher)),
		Notifier:   dispatcher,
	})

	e := &env{t: t, db: gdb, app: app}
	e.admin = e.login(adminEmail, adminPassword)
	return e
}

func (e *env) do(method, path string, body interface{}, cookie *http.Cookie) result {
	e.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	out := result{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	for _, c := range resp.Cookies() {
		if c.Name == utils.TokenCookieName && c.Value != "" {
			out.Cookie = &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	return out
}

func (e *env) login(email, password string) *http.Cookie {
	e.t.Helper()
	r := e.do(http.MethodPost, "/api/auth/login", fiber.Map{"email": email, "password": password}, nil)
	require.Equal(e.t, fiber.StatusOK, r.Status, r.Body)
	require.NotNil(e.t, r.Cookie)
	return r.Cookie
}

// register returns the new account id and its session cookie.
func (e *env) register(role, email string) (string, *http.Cookie) {
	e.t.Helper()
	body := fiber.Map{
		"name":     "Pengguna Uji",
		"email":    email,
		"password": "password123",
		"role":     role,
	}
	if role == string(models.RoleEmployer) {
		body["company_name"] = "PT Maju Jaya"
	}
	r := e.do(http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(e.t, fiber.StatusCreated, r.Status, r.Body)
	require.NotNil(e.t, r.Cookie)
	user := r.data()["user"].(map[string]interface{})
	return user["id"].(string), r.Cookie
}

func jobBody() fiber.Map {
	return fiber.Map{
		"title":           "Backend Engineer",
		"category":        "IT",
		"location":        "Jakarta",
		"employment_type": "full_time",
		"salary_min":      8000000,
		"salary_max":      12000000,
		"description":     "Membangun layanan backend untuk platform lowongan kerja.",
		"requirements":    []string{"Go", "PostgreSQL"},
	}
}

func TestPendingEmployerCanPostAfterVerify(t *testing.T) {
	e := newEnv(t)
	employerID, employer := e.register("employer", "hrd@majujaya.co.id")

	r := e.do(http.MethodGet, "/api/me", nil, employer)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Equal(t, "pending", r.data()["verification_status"])

	r = e.do(http.MethodPost, "/api/employer/jobs", jobBody(), employer)
	require.Equal(t, fiber.StatusForbidden, r.Status)
	require.Equal(t, moderation.CodeVerificationPending, r.Body["code"])

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/verify", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	require.Equal(t, "verified", r.data()["verification_status"])

	r = e.do(http.MethodPost, "/api/employer/jobs", jobBody(), employer)
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)

	r = e.do(http.MethodGet, "/api/jobs", nil, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	jobs := r.Body["data"].([]interface{})
	require.Len(t, jobs, 1)
	job := jobs[0].(map[string]interface{})
	require.Equal(t, "PT Maju Jaya", job["company"].(map[string]interface{})["name"])

	r = e.do(http.MethodGet, "/api/jobs/"+job["id"].(string), nil, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Equal(t, "Backend Engineer", r.data()["title"])
	require.Equal(t, []interface{}{"Go", "PostgreSQL"}, r.data()["requirements"])

	r = e.do(http.MethodGet, "/api/admin/users/"+employerID+"/history", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Len(t, r.Body["data"], 1)
}

func TestRejectedEmployerKeepsReasonAfterProfileEdit(t *testing.T) {
	e := newEnv(t)
	employerID, employer := e.register("employer", "hrd@majujaya.co.id")

	r := e.do(http.MethodPost, "/api/admin/users/"+employerID+"/reject", fiber.Map{"reason": ""}, e.admin)
	require.Equal(t, fiber.StatusBadRequest, r.Status)
	require.Equal(t, "VALIDATION_ERROR", r.Body["code"])

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/reject", fiber.Map{"reason": "Dokumen tidak lengkap"}, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)

	r = e.do(http.MethodGet, "/api/dashboard", nil, employer)
	require.Equal(t, fiber.StatusOK, r.Status)
	notice := r.data()["moderation"].(map[string]interface{})
	require.Equal(t, moderation.CodeVerificationRejected, notice["code"])
	require.Equal(t, "Dokumen tidak lengkap", notice["reason"])

	r = e.do(http.MethodPut, "/api/employer/profile", fiber.Map{
		"company_name": "PT Maju Jaya Sejahtera",
		"npwp":         "01.234.567.8-901.000",
		"document_url": "https://files.pintukerja.id/akta.pdf",
	}, employer)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	require.Equal(t, "PT Maju Jaya Sejahtera", r.data()["company_name"])

	r = e.do(http.MethodGet, "/api/me", nil, employer)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Equal(t, "rejected", r.data()["verification_status"])
	require.Equal(t, "Dokumen tidak lengkap", r.data()["rejection_reason"])

	r = e.do(http.MethodPost, "/api/employer/jobs", jobBody(), employer)
	require.Equal(t, fiber.StatusForbidden, r.Status)
	require.Equal(t, moderation.CodeVerificationRejected, r.Body["code"])
	require.Equal(t, "Dokumen tidak lengkap", r.Body["reason"])

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/reject", fiber.Map{"reason": "lagi"}, e.admin)
	require.Equal(t, fiber.StatusConflict, r.Status)
	require.Equal(t, "INVALID_STATE", r.Body["code"])
}

func TestBlockedJobSeekerIsStoppedUntilUnblocked(t *testing.T) {
	e := newEnv(t)
	seekerID, seeker := e.register("job_seeker", "budi@mail.com")

	r := e.do(http.MethodGet, "/api/me", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Equal(t, "verified", r.data()["verification_status"])

	r = e.do(http.MethodPost, "/api/admin/users/"+seekerID+"/block", fiber.Map{"reason": "Aktivitas mencurigakan"}, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)

	for _, path := range []string{"/api/me", "/api/dashboard", "/api/notifications", "/api/job-seeker/applications"} {
		r = e.do(http.MethodGet, path, nil, seeker)
		require.Equal(t, fiber.StatusForbidden, r.Status, path)
		require.Equal(t, moderation.CodeAccountBlocked, r.Body["code"], path)
		require.Equal(t, "Aktivitas mencurigakan", r.Body["reason"], path)
	}

	// public pages stay reachable
	r = e.do(http.MethodGet, "/api/jobs", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)

	r = e.do(http.MethodPost, "/api/auth/login", fiber.Map{"email": "budi@mail.com", "password": "password123"}, nil)
	require.Equal(t, fiber.StatusForbidden, r.Status)
	require.Equal(t, moderation.CodeAccountBlocked, r.Body["code"])
	require.Nil(t, r.Cookie)

	r = e.do(http.MethodPost, "/api/admin/users/"+seekerID+"/unblock", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)

	r = e.do(http.MethodGet, "/api/me", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Equal(t, false, r.data()["is_blocked"])
	require.Equal(t, "verified", r.data()["verification_status"])
	require.Nil(t, r.data()["moderation"])

	r = e.do(http.MethodGet, "/api/notifications", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Len(t, r.Body["data"], 2)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newEnv(t)
	seekerID, seeker := e.register("job_seeker", "budi@mail.com")

	r := e.do(http.MethodGet, "/api/admin/users", nil, seeker)
	require.Equal(t, fiber.StatusForbidden, r.Status)

	r = e.do(http.MethodPost, "/api/admin/users/"+seekerID+"/block", fiber.Map{"reason": "x"}, seeker)
	require.Equal(t, fiber.StatusForbidden, r.Status)

	r = e.do(http.MethodGet, "/api/admin/users", nil, nil)
	require.Equal(t, fiber.StatusUnauthorized, r.Status)
	require.Equal(t, "UNAUTHORIZED", r.Body["code"])

	r = e.do(http.MethodGet, "/api/admin/users?role=job_seeker", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Len(t, r.Body["data"], 1)

	r = e.do(http.MethodPost, "/api/admin/users/00000000-0000-0000-0000-000000000000/verify", nil, e.admin)
	require.Equal(t, fiber.StatusNotFound, r.Status)
	require.Equal(t, "NOT_FOUND", r.Body["code"])
}

func TestApplicationFlow(t *testing.T) {
	e := newEnv(t)
	employerID, employer := e.register("employer", "hrd@majujaya.co.id")
	_, seeker := e.register("job_seeker", "budi@mail.com")

	r := e.do(http.MethodPost, "/api/admin/users/"+employerID+"/verify", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status)

	r = e.do(http.MethodPost, "/api/employer/jobs", jobBody(), employer)
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	jobID := r.data()["id"].(string)

	apply := fiber.Map{"cover_letter": "Saya tertarik.", "resume_url": "https://files.pintukerja.id/cv-budi.pdf"}

	r = e.do(http.MethodPost, "/api/jobs/"+jobID+"/applications", apply, employer)
	require.Equal(t, fiber.StatusForbidden, r.Status, "employers cannot apply")

	r = e.do(http.MethodPost, "/api/jobs/"+jobID+"/applications", apply, seeker)
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	appID := r.data()["id"].(string)

	r = e.do(http.MethodPost, "/api/jobs/"+jobID+"/applications", apply, seeker)
	require.Equal(t, fiber.StatusConflict, r.Status)
	require.Equal(t, "ALREADY_APPLIED", r.Body["code"])

	r = e.do(http.MethodGet, "/api/employer/jobs/"+jobID+"/applications", nil, employer)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Len(t, r.Body["data"], 1)

	r = e.do(http.MethodPatch, "/api/employer/applications/"+appID+"/status", fiber.Map{"status": "accepted"}, employer)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)

	r = e.do(http.MethodPatch, "/api/employer/applications/"+appID+"/status", fiber.Map{"status": "reviewed"}, employer)
	require.Equal(t, fiber.StatusConflict, r.Status)

	r = e.do(http.MethodGet, "/api/job-seeker/applications", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)
	apps := r.Body["data"].([]interface{})
	require.Len(t, apps, 1)
	require.Equal(t, "accepted", apps[0].(map[string]interface{})["status"])

	r = e.do(http.MethodGet, "/api/notifications?unread=true", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)
	notes := r.Body["data"].([]interface{})
	require.Len(t, notes, 1)
	noteID := notes[0].(map[string]interface{})["id"].(string)

	r = e.do(http.MethodPatch, "/api/notifications/"+noteID+"/read", nil, seeker)
	require.Equal(t, fiber.StatusOK, r.Status)

	r = e.do(http.MethodGet, "/api/dashboard", nil, employer)
	require.Equal(t, fiber.StatusOK, r.Status)
	stats := r.data()["stats"].(map[string]interface{})
	require.EqualValues(t, 1, stats["open_jobs"])
	require.EqualValues(t, 1, stats["total_applications"])
	require.EqualValues(t, 0, stats["new_applications"])

	r = e.do(http.MethodPatch, "/api/employer/jobs/"+jobID+"/close", nil, employer)
	require.Equal(t, fiber.StatusOK, r.Status)

	r = e.do(http.MethodGet, "/api/jobs/"+jobID, nil, nil)
	require.Equal(t, fiber.StatusNotFound, r.Status)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	r := e.do(http.MethodPost, "/api/auth/register", fiber.Map{
		"name": "A", "email": "bukan-email", "password": "123", "role": "admin",
	}, nil)
	require.Equal(t, fiber.StatusBadRequest, r.Status)
	errs := r.Body["errors"].(map[string]interface{})
	for _, field := range []string{"name", "email", "password", "role"} {
		require.Contains(t, errs, field)
	}

	r = e.do(http.MethodPost, "/api/auth/register", fiber.Map{
		"name": "Budi", "email": "hrd@majujaya.co.id", "password": "password123", "role": "employer",
	}, nil)
	require.Equal(t, fiber.StatusBadRequest, r.Status)
	require.Contains(t, r.Body["errors"], "company_name")

	e.register("job_seeker", "budi@mail.com")
	r = e.do(http.MethodPost, "/api/auth/register", fiber.Map{
		"name": "Budi", "email": "BUDI@mail.com", "password": "password123", "role": "job_seeker",
	}, nil)
	require.Equal(t, fiber.StatusBadRequest, r.Status)
	require.Contains(t, r.Body["errors"], "email")
}

func TestHiddenEmployerJobsLeaveTheBoard(t *testing.T) {
	e := newEnv(t)
	employerID, employer := e.register("employer", "hrd@majujaya.co.id")
	_, seeker := e.register("job_seeker", "budi@mail.com")

	r := e.do(http.MethodPost, "/api/admin/users/"+employerID+"/verify", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	r = e.do(http.MethodPost, "/api/employer/jobs", jobBody(), employer)
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	jobID := r.data()["id"].(string)

	apply := fiber.Map{"cover_letter": "Saya tertarik.", "resume_url": "https://files.pintukerja.id/cv-budi.pdf"}
	requireHidden := func(stage string) {
		t.Helper()
		r := e.do(http.MethodGet, "/api/jobs", nil, nil)
		require.Equal(t, fiber.StatusOK, r.Status, stage)
		require.Empty(t, r.Body["data"], stage)

		r = e.do(http.MethodGet, "/api/jobs/"+jobID, nil, nil)
		require.Equal(t, fiber.StatusNotFound, r.Status, stage)

		r = e.do(http.MethodPost, "/api/jobs/"+jobID+"/applications", apply, seeker)
		require.Equal(t, fiber.StatusNotFound, r.Status, stage)
	}

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/block", fiber.Map{"reason": "Lowongan palsu"}, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	requireHidden("blocked")

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/unblock", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	r = e.do(http.MethodGet, "/api/jobs", nil, nil)
	require.Len(t, r.Body["data"], 1)

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/reopen", fiber.Map{"reason": "Perlu tinjau ulang dokumen"}, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	requireHidden("pending again")

	r = e.do(http.MethodPost, "/api/admin/users/"+employerID+"/verify", nil, e.admin)
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	r = e.do(http.MethodPost, "/api/jobs/"+jobID+"/applications", apply, seeker)
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
}

func TestRegisterRaceReportsDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	const email = "rebut@mail.com"

	// another registration for the same email commits between the
	// duplicate check and the insert
	fired := false
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("test:concurrent_register", func(tx *gorm.DB) {
		u, ok := tx.Statement.Dest.(*models.User)
		if fired || !ok || u.Email != email {
			return
		}
		fired = true
		other := &models.User{
			Name:               "Pendaftar Lain",
			Email:              email,
			Password:           "x",
			Role:               models.RoleJobSeeker,
			VerificationStatus: models.VerificationVerified,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(other).Error; err != nil {
			tx.AddError(err)
		}
	}))

	r := e.do(http.MethodPost, "/api/auth/register", fiber.Map{
		"name": "Rebut", "email": email, "password": "password123", "role": "job_seeker",
	}, nil)
	require.True(t, fired)
	require.Equal(t, fiber.StatusBadRequest, r.Status, r.Body)
	require.Equal(t, "VALIDATION_ERROR", r.Body["code"])
	require.Contains(t, r.Body["errors"], "email")
	require.Nil(t, r.Cookie)
}
