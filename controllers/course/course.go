package controllers

import (
	"academy/database"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	courseValidator "academy/validators/course"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var courseSortOrder = map[string]string{
	"newest":     "published_at desc, id desc",
	"popular":    "enrollment_count desc, id desc",
	"rating":     "rating desc, review_count desc, id desc",
	"price_asc":  "price asc, id asc",
	"price_desc": "price desc, id desc",
}

// GetAllCourses lists published courses for the catalog
func GetAllCourses(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*courseValidator.CourseListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	p := validators.PaginationFrom(c)

	db := database.Database.Db.Model(&courseModels.Course{}).
		Where("is_published = ? AND is_deleted = ?", true, false)

	if reqData.Search != "" {
		like := "%" + strings.ToLower(reqData.Search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(subtitle) LIKE ? OR LOWER(instructor) LIKE ?", like, like, like)
	}
	if reqData.Level != "" {
		db = db.Where("level = ?", reqData.Level)
	}
	switch reqData.Free {
	case "true":
		db = db.Where("price <= 0")
	case "false":
		db = db.Where("price > 0")
	}

	var total int64
	db.Count(&total)

	var courses []courseModels.Course
	if err := db.Order(courseSortOrder[reqData.Sort]).Scopes(utils.Paginate(p)).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!",
		utils.PaginatedResponse("courses", courses, total, p))
}

type lessonOutline struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	OrderIndex      int    `json:"order_index"`
	IsFreePreview   bool   `json:"is_free_preview"`
	DurationSeconds int    `json:"duration_seconds"`
	VideoStatus     string `json:"video_status"`
	PlaybackID      string `json:"playback_id,omitempty"`
	Completed       bool   `json:"completed"`
}

type moduleOutline struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OrderIndex  int             `json:"order_index"`
	Lessons     []lessonOutline `json:"lessons"`
}

// loadOutline returns the ordered modules with their published lessons
func loadOutline(db *gorm.DB, courseID uint, withPlayback bool, completed map[uint]bool) ([]moduleOutline, error) {
	var modules []courseModels.Module
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc, id asc").
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_published = ? AND is_deleted = ?", true, false).Order("order_index asc, id asc")
		}).
		Find(&modules).Error; err != nil {
		return nil, err
	}

	outline := make([]moduleOutline, 0, len(modules))
	for _, m := range modules {
		mo := moduleOutline{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			OrderIndex:  m.OrderIndex,
			Lessons:     make([]lessonOutline, 0, len(m.Lessons)),
		}
		for _, l := range m.Lessons {
			lo := lessonOutline{
				ID:              l.ID,
				Title:           l.Title,
				Description:     l.Description,
				OrderIndex:      l.OrderIndex,
				IsFreePreview:   l.IsFreePreview,
				DurationSeconds: l.DurationSeconds,
				VideoStatus:     l.VideoStatus,
				Completed:       completed[l.ID],
			}
			if withPlayback || l.IsFreePreview {
				lo.PlaybackID = l.MuxPlaybackID
			}
			mo.Lessons = append(mo.Lessons, lo)
		}
		outline = append(outline, mo)
	}
	return outline, nil
}

func completedLessonSet(db *gorm.DB, userID, courseID uint) map[uint]bool {
	set := make(map[uint]bool)
	if userID == 0 {
		return set
	}
	var ids []uint
	db.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Pluck("lesson_id", &ids)
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// GetCourseBySlug returns the public course page with its outline
func GetCourseBySlug(c *fiber.Ctx) error {
	slug := c.Locals("slug").(string)
	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("slug = ? AND is_published = ? AND is_deleted = ?", slug, true, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	userID, authenticated := middleware.CurrentUserID(c)
	hasAccess := false
	if authenticated {
		var err error
		if hasAccess, err = utils.HasCourseAccess(db, userID, course.ID); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
		}
	}

	outline, err := loadOutline(db, course.ID, hasAccess, completedLessonSet(db, userID, course.ID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course outline!", nil)
	}

	data := fiber.Map{
		"course":     course,
		"modules":    outline,
		"has_access": hasAccess,
	}
	if authenticated {
		enrollment, err := utils.FindEnrollment(db, userID, course.ID)
		enrolled := err == nil && enrollment.Active()
		data["is_enrolled"] = enrolled
		if enrolled {
			data["progress"] = enrollment.Progress
			data["enrollment_status"] = enrollment.Status
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", data)
}

// GetCourseReviews lists reviews for a published course
func GetCourseReviews(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)
	p := validators.PaginationFrom(c)
	db := database.Database.Db

	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		First(&courseModels.Course{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	type reviewRow struct {
		ID        uint      `json:"id"`
		UserID    uint      `json:"user_id"`
		UserName  string    `json:"user_name"`
		Rating    int       `json:"rating"`
		Comment   string    `json:"comment"`
		CreatedAt time.Time `json:"created_at"`
	}

	query := db.Table("reviews").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.course_id = ? AND reviews.is_deleted = ? AND reviews.deleted_at IS NULL", courseID, false)

	var total int64
	query.Count(&total)

	var rows []reviewRow
	if err := query.Select("reviews.id, reviews.user_id, users.name AS user_name, reviews.rating, reviews.comment, reviews.created_at").
		Order("reviews.created_at desc").
		Scopes(utils.Paginate(p)).
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews fetched successfully!",
		utils.PaginatedResponse("reviews", rows, total, p))
}

// loadUser fetches an active user or writes a 401
func loadUser(c *fiber.Ctx) (*models.User, error) {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	return &user, nil
}
