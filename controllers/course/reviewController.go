package controllers

import (
	"academy/database"
	"academy/logger"
	"academy/middleware"
	courseModels "academy/models/course"
	"academy/utils"
	courseValidator "academy/validators/course"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errReviewExists = errors.New("review already exists")

// CreateReview adds the caller's review. Only users with course access may review, once per course.
func CreateReview(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedReview").(*courseValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&courseModels.Course{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	allowed, err := utils.HasCourseAccess(db, user.ID, courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !allowed {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var review courseModels.Review
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND course_id = ?", user.ID, courseID).First(&review).Error
		switch {
		case err == nil && !review.IsDeleted:
			return errReviewExists
		case err == nil:
			// reviewing again after a delete revives the old row
			review.IsDeleted = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = courseModels.Review{UserID: user.ID, CourseID: courseID}
		default:
			return err
		}
		review.Rating = reqData.Rating
		review.Comment = reqData.Comment
		if err := tx.Save(&review).Error; err != nil {
			return err
		}
		return utils.RecomputeCourseRating(tx, courseID)
	})
	if err != nil {
		// the unique index catches a concurrent first review
		if errors.Is(err, errReviewExists) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already reviewed this course!", nil)
		}
		logger.Log.Error("creating review", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review submitted successfully!", review)
}

func findOwnReview(c *fiber.Ctx, userID, courseID uint) (*courseModels.Review, error) {
	var review courseModels.Review
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&review).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Review not found!", nil)
	}
	return &review, nil
}

func UpdateReview(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedReview").(*courseValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	review, err := findOwnReview(c, user.ID, courseID)
	if review == nil {
		return err
	}

	review.Rating = reqData.Rating
	review.Comment = reqData.Comment
	if err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(review).Error; err != nil {
			return err
		}
		return utils.RecomputeCourseRating(tx, courseID)
	}); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update review!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review updated successfully!", review)
}

func DeleteReview(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("id").(uint)

	review, err := findOwnReview(c, user.ID, courseID)
	if review == nil {
		return err
	}
	if err := softDeleteReview(review); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete review!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review deleted successfully!", nil)
}

func AdminDeleteReview(c *fiber.Ctx) error {
	reviewID := c.Locals("id").(uint)

	var review courseModels.Review
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reviewID, false).First(&review).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Review not found!", nil)
	}
	if err := softDeleteReview(&review); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete review!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review deleted successfully!", nil)
}

func softDeleteReview(review *courseModels.Review) error {
	return database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(review).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return utils.RecomputeCourseRating(tx, review.CourseID)
	})
}
