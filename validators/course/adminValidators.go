package courseValidator

import (
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateCourseRequest struct {
	Title        string          `json:"title" validate:"required,min=3,max=200"`
	Slug         string          `json:"slug" validate:"max=120"`
	Subtitle     string          `json:"subtitle" validate:"max=300"`
	Description  string          `json:"description" validate:"required,min=5"`
	Instructor   string          `json:"instructor" validate:"max=120"`
	Level        string          `json:"level"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
	ThumbnailURL string          `json:"thumbnail_url" validate:"omitempty,url"`
	Outcomes     []string        `json:"outcomes" validate:"max=20,dive,max=300"`
}

type UpdateCourseRequest struct {
	Title        *string          `json:"title" validate:"omitempty,min=3,max=200"`
	Slug         *string          `json:"slug" validate:"omitempty,max=120"`
	Subtitle     *string          `json:"subtitle" validate:"omitempty,max=300"`
	Description  *string          `json:"description" validate:"omitempty,min=5"`
	Instructor   *string          `json:"instructor" validate:"omitempty,max=120"`
	Level        *string          `json:"level"`
	Price        *decimal.Decimal `json:"price"`
	Currency     *string          `json:"currency" validate:"omitempty,len=3"`
	ThumbnailURL *string          `json:"thumbnail_url" validate:"omitempty,url"`
	Outcomes     []string         `json:"outcomes" validate:"max=20,dive,max=300"`
}

type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

type AdminCourseListQuery struct {
	Status string `query:"status"`
	Search string `query:"search"`
}

type CreateModuleRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description"`
	OrderIndex  *int   `json:"order_index" validate:"omitempty,gte=0"`
}

type UpdateModuleRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,gte=0"`
}

type ReorderModulesRequest struct {
	ModuleIDs []uint `json:"module_ids" validate:"required,min=1,dive,gt=0"`
}

type CreateLessonRequest struct {
	Title         string `json:"title" validate:"required,min=2,max=200"`
	Description   string `json:"description"`
	Body          string `json:"body"`
	OrderIndex    *int   `json:"order_index" validate:"omitempty,gte=0"`
	IsFreePreview bool   `json:"is_free_preview"`
}

type UpdateLessonRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description   *string `json:"description"`
	Body          *string `json:"body"`
	OrderIndex    *int    `json:"order_index" validate:"omitempty,gte=0"`
	IsFreePreview *bool   `json:"is_free_preview"`
}

type GrantEnrollmentRequest struct {
	UserID uint `json:"user_id" validate:"required,gt=0"`
}

type EnrollmentListQuery struct {
	Status string `query:"status"`
}

var enrollmentStatuses = []string{
	courseModels.EnrollmentEnrolled,
	courseModels.EnrollmentInProgress,
	courseModels.EnrollmentCompleted,
	courseModels.EnrollmentRevoked,
}

func checkLevel(level *string, errs map[string]string) {
	if level == nil {
		return
	}
	*level = strings.ToUpper(strings.TrimSpace(*level))
	if !validators.Contains(courseModels.Levels, *level) {
		errs["level"] = "Level must be one of BEGINNER, INTERMEDIATE, ADVANCED!"
	}
}

func checkSlug(slug *string, errs map[string]string) {
	if slug == nil || *slug == "" {
		return
	}
	normalized := utils.Slugify(*slug)
	if normalized == "" {
		errs["slug"] = "Slug must contain letters or digits!"
		return
	}
	*slug = normalized
}

func CreateCourse() fiber.Handler {
	return validators.Body("validatedCourse", func(req *CreateCourseRequest, errs map[string]string) {
		req.Title = strings.TrimSpace(req.Title)
		if req.Level == "" {
			req.Level = "BEGINNER"
		}
		checkLevel(&req.Level, errs)
		checkSlug(&req.Slug, errs)
		if req.Price.IsNegative() {
			errs["price"] = "Price cannot be negative!"
		}
		req.Currency = strings.ToLower(req.Currency)
	})
}

func UpdateCourse() fiber.Handler {
	return validators.Body("validatedCourse", func(req *UpdateCourseRequest, errs map[string]string) {
		checkLevel(req.Level, errs)
		checkSlug(req.Slug, errs)
		if req.Price != nil && req.Price.IsNegative() {
			errs["price"] = "Price cannot be negative!"
		}
		if req.Currency != nil {
			lower := strings.ToLower(*req.Currency)
			req.Currency = &lower
		}
	})
}

func Publish() fiber.Handler {
	return validators.Body[PublishRequest]("validatedPublish", nil)
}

func AdminCourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(AdminCourseListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}
		query.Status = strings.ToUpper(strings.TrimSpace(query.Status))
		statuses := []string{courseModels.StatusDraft, courseModels.StatusPublished, courseModels.StatusArchived}
		if query.Status != "" && !validators.Contains(statuses, query.Status) {
			return validators.Invalid(c, "status", "Status must be one of DRAFT, PUBLISHED, ARCHIVED!")
		}
		query.Search = strings.TrimSpace(query.Search)
		c.Locals("validatedList", query)
		return c.Next()
	}
}

func CreateModule() fiber.Handler {
	return validators.Body[CreateModuleRequest]("validatedModule", nil)
}

func UpdateModule() fiber.Handler {
	return validators.Body[UpdateModuleRequest]("validatedModule", nil)
}

func ReorderModules() fiber.Handler {
	return validators.Body("validatedReorder", func(req *ReorderModulesRequest, errs map[string]string) {
		seen := make(map[uint]bool, len(req.ModuleIDs))
		for _, id := range req.ModuleIDs {
			if seen[id] {
				errs["module_ids"] = "Module ids must be unique!"
				return
			}
			seen[id] = true
		}
	})
}

func CreateLesson() fiber.Handler {
	return validators.Body[CreateLessonRequest]("validatedLesson", nil)
}

func UpdateLesson() fiber.Handler {
	return validators.Body[UpdateLessonRequest]("validatedLesson", nil)
}

func GrantEnrollment() fiber.Handler {
	return validators.Body[GrantEnrollmentRequest]("validatedGrant", nil)
}

func EnrollmentList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(EnrollmentListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}
		query.Status = strings.ToUpper(strings.TrimSpace(query.Status))
		if query.Status != "" && !validators.Contains(enrollmentStatuses, query.Status) {
			return validators.Invalid(c, "status", "Invalid enrollment status!")
		}
		c.Locals("validatedList", query)
		return c.Next()
	}
}
