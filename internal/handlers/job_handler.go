package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pintukerja/pintukerja_be/internal/logger"
	"github.com/pintukerja/pintukerja_be/internal/models"
	"github.com/pintukerja/pintukerja_be/internal/utils"
)

type JobHandler struct {
	DB    *gorm.DB
	IDKey string
	log   *zap.Logger
}

func NewJobHandler(db *gorm.DB, idKey string) *JobHandler {
	return &JobHandler{DB: db, IDKey: idKey, log: logger.WithModule("jobs")}
}

type CreateJobReq struct {
	Title          string   `json:"title" validate:"required,min=3,max=150"`
	Category       string   `json:"category" validate:"required,max=80"`
	Location       string   `json:"location" validate:"required,max=120"`
	EmploymentType string   `json:"employment_type" validate:"required,oneof=full_time part_time contract internship"`
	SalaryMin      int64    `json:"salary_min" validate:"gte=0"`
	SalaryMax      int64    `json:"salary_max" validate:"gte=0,gtefield=SalaryMin"`
	Description    string   `json:"description" validate:"required,min=20"`
	Requirements   []string `json:"requirements" validate:"max=30,dive,required,max=300"`
}

// Create posts a job. Only reachable by employers the gate allows to post.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateJobReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Body tidak valid")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)
	reqs := make([]string, 0, len(req.Requirements))
	for _, r := range req.Requirements {
		if r = strings.TrimSpace(r); r != "" {
			reqs = append(reqs, r)
		}
	}
	req.Requirements = reqs

	if errs := validateStruct(&req); errs != nil {
		return validationFail(c, errs)
	}

	reqJSON, err := json.Marshal(req.Requirements)
	if err != nil {
		return serverError(c, h.log, "marshal requirements", err)
	}

	job := models.Job{
		EmployerID:     uid,
		Title:          req.Title,
		Category:       req.Category,
		Location:       req.Location,
		EmploymentType: models.EmploymentType(req.EmploymentType),
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		Description:    req.Description,
		Requirements:   datatypes.JSON(reqJSON),
		Status:         models.JobStatusOpen,
	}
	if err := h.DB.Create(&job).Error; err != nil {
		return serverError(c, h.log, "create job", err)
	}

	h.log.Info("job posted", zap.Uint("job_id", job.ID), zap.String("employer_id", uid.String()))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Lowongan berhasil dipasang",
		"data":    h.jobView(&job, nil),
	})
}

func (h *JobHandler) ListMine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	type row struct {
		models.Job
		ApplicationCount int64
	}
	var rows []row
	if err := h.DB.Model(&models.Job{}).
		Select("jobs.*, (SELECT COUNT(*) FROM applications a WHERE a.job_id = jobs.id) AS application_count").
		Where("jobs.employer_id = ?", uid).
		Order("jobs.created_at DESC").
		Scan(&rows).Error; err != nil {
		return serverError(c, h.log, "list employer jobs", err)
	}

	out := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		v := h.jobView(&rows[i].Job, nil)
		v["application_count"] = rows[i].ApplicationCount
		out = append(out, v)
	}
	return respondOK(c, "", out)
}

// Close stops a job from accepting applications.
func (h *JobHandler) Close(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	job, err := h.ownedJob(c.Params("id"), uid)
	if err != nil {
		return h.jobLookupFail(c, err)
	}
	if job.Status == models.JobStatusClosed {
		return fail(c, fiber.StatusConflict, "INVALID_STATE", "Lowongan sudah ditutup")
	}

	if err := h.DB.Model(job).Update("status", models.JobStatusClosed).Error; err != nil {
		return serverError(c, h.log, "close job", err)
	}
	job.Status = models.JobStatusClosed
	return respondOK(c, "Lowongan ditutup", h.jobView(job, nil))
}

var errJobNotFound = errors.New("job not found")

func (h *JobHandler) findJob(rawID string) (*models.Job, error) {
	id, err := utils.DecryptID(rawID, h.IDKey)
	if err != nil {
		return nil, errJobNotFound
	}
	var job models.Job
	err = h.DB.First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (h *JobHandler) findPublicJob(rawID string) (*models.Job, error) {
	id, err := utils.DecryptID(rawID, h.IDKey)
	if err != nil {
		return nil, errJobNotFound
	}
	var job models.Job
	res := publicJobs(h.DB).Select("jobs.*").Where("jobs.id = ?", id).Limit(1).Scan(&job)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errJobNotFound
	}
	return &job, nil
}

// ownedJob hides other employers' jobs behind not found.
func (h *JobHandler) ownedJob(rawID string, employerID uuid.UUID) (*models.Job, error) {
	job, err := h.findJob(rawID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employerID {
		return nil, errJobNotFound
	}
	return job, nil
}

func (h *JobHandler) jobLookupFail(c *fiber.Ctx, err error) error {
	if errors.Is(err, errJobNotFound) {
		return notFound(c, "Lowongan tidak ditemukan")
	}
	return serverError(c, h.log, "load job", err)
}

// publicJobs restricts to open jobs of employers that may currently be shown.
func publicJobs(db *gorm.DB) *gorm.DB {
	return db.Table("jobs").
		Joins("JOIN users u ON u.id = jobs.employer_id").
		Joins("LEFT JOIN employer_profiles ep ON ep.user_id = jobs.employer_id").
		Where("jobs.status = ?", models.JobStatusOpen).
		Where("u.verification_status = ? AND u.is_blocked = ?", models.VerificationVerified, false)
}

func (h *JobHandler) ListPublic(c *fiber.Ctx) error {
	qSearch := strings.ToLower(strings.TrimSpace(c.Query("q")))
	category := c.Query("cat")
	location := strings.ToLower(strings.TrimSpace(c.Query("loc")))
	empType := c.Query("type")
	minSalary := c.QueryInt("min_salary", 0)

	filter := func(db *gorm.DB) *gorm.DB {
		if qSearch != "" {
			db = db.Where("LOWER(jobs.title) LIKE ? OR LOWER(ep.company_name) LIKE ?", "%"+qSearch+"%", "%"+qSearch+"%")
		}
		if category != "" {
			db = db.Where("jobs.category = ?", category)
		}
		if location != "" {
			db = db.Where("LOWER(jobs.location) LIKE ?", "%"+location+"%")
		}
		if empType != "" {
			db = db.Where("jobs.employment_type = ?", empType)
		}
		if minSalary > 0 {
			db = db.Where("jobs.salary_max >= ?", minSalary)
		}
		return db
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var totalItems int64
	if err := filter(publicJobs(h.DB)).Count(&totalItems).Error; err != nil {
		return serverError(c, h.log, "count public jobs", err)
	}

	q := filter(publicJobs(h.DB)).Select("jobs.*, ep.company_name, ep.logo_url, ep.city AS company_city")
	switch c.Query("sort") {
	case "salary_high":
		q = q.Order("jobs.salary_max DESC")
	case "salary_low":
		q = q.Order("jobs.salary_min ASC")
	default:
		q = q.Order("jobs.created_at DESC")
	}

	type row struct {
		models.Job
		CompanyName string
		LogoURL     string
		CompanyCity string
	}
	var rows []row
	if err := q.Limit(limit).Offset((page - 1) * limit).Scan(&rows).Error; err != nil {
		return serverError(c, h.log, "list public jobs", err)
	}

	out := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		out = append(out, h.jobView(&rows[i].Job, fiber.Map{
			"name":     rows[i].CompanyName,
			"logo_url": rows[i].LogoURL,
			"city":     rows[i].CompanyCity,
		}))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": totalItems,
			"total_pages": int(math.Ceil(float64(totalItems) / float64(limit))),
		},
	})
}

func (h *JobHandler) GetDetail(c *fiber.Ctx) error {
	id, err := utils.DecryptID(c.Params("id"), h.IDKey)
	if err != nil {
		return notFound(c, "Lowongan tidak ditemukan")
	}

	type row struct {
		models.Job
		CompanyName string
		LogoURL     string
		Industry    string
		Website     string
		CompanyCity string
	}
	var r row
	res := publicJobs(h.DB).
		Select("jobs.*, ep.company_name, ep.logo_url, ep.industry, ep.website, ep.city AS company_city").
		Where("jobs.id = ?", id).
		Limit(1).
		Scan(&r)
	if res.Error != nil {
		return serverError(c, h.log, "load job detail", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(c, "Lowongan tidak ditemukan")
	}

	return respondOK(c, "", h.jobView(&r.Job, fiber.Map{
		"name":     r.CompanyName,
		"logo_url": r.LogoURL,
		"industry": r.Industry,
		"website":  r.Website,
		"city":     r.CompanyCity,
	}))
}

func (h *JobHandler) jobView(j *models.Job, company fiber.Map) fiber.Map {
	var reqs []string
	if len(j.Requirements) > 0 {
		if err := json.Unmarshal(j.Requirements, &reqs); err != nil {
			h.log.Warn("bad requirements json", zap.Uint("job_id", j.ID), zap.Error(err))
		}
	}
	if reqs == nil {
		reqs = []string{}
	}

	v := fiber.Map{
		"id":              utils.PublicID(j.ID, h.IDKey),
		"title":           j.Title,
		"category":        j.Category,
		"location":        j.Location,
		"employment_type": j.EmploymentType,
		"salary_min":      j.SalaryMin,
		"salary_max":      j.SalaryMax,
		"description":     j.Description,
		"requirements":    reqs,
		"status":          j.Status,
		"created_at":      j.CreatedAt,
		"updated_at":      j.UpdatedAt,
	}
	if company != nil {
		v["company"] = company
	}
	return v
}
