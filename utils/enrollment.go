package utils

import (
	"academy/models"
	courseModels "academy/models/course"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAlreadyEnrolled is returned by GrantEnrollment when an active enrollment exists
var ErrAlreadyEnrolled = errors.New("already enrolled")

// HasCourseAccess reports whether the user is an admin or holds an active enrollment
func HasCourseAccess(db *gorm.DB, userID, courseID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	var user models.User
	if err := db.Select("id", "role").Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.IsAdmin() {
		return true, nil
	}

	var count int64
	err := db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status <> ?",
			userID, courseID, false, courseModels.EnrollmentRevoked).
		Count(&count).Error
	return count > 0, err
}

// CanViewLesson allows free previews to anyone, everything else needs course access
func CanViewLesson(db *gorm.DB, userID uint, lesson courseModels.Lesson) (bool, error) {
	if lesson.IsFreePreview {
		return true, nil
	}
	return HasCourseAccess(db, userID, lesson.CourseID)
}

// FindEnrollment returns the user's enrollment row for a course, including revoked ones
func FindEnrollment(db *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GrantEnrollment creates an enrollment or reactivates a revoked one.
// It returns ErrAlreadyEnrolled when the user already has access.
func GrantEnrollment(tx *gorm.DB, userID, courseID uint, source string, orderID *uint) (*courseModels.Enrollment, error) {
	existing, err := FindEnrollment(tx, userID, courseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Active() {
			return existing, ErrAlreadyEnrolled
		}
		existing.Status = courseModels.EnrollmentEnrolled
		existing.Source = source
		existing.OrderID = orderID
		existing.RevokedAt = nil
		existing.IsDeleted = false
		if err := tx.Save(existing).Error; err != nil {
			return nil, err
		}
		if _, _, err := RecomputeEnrollment(tx, userID, courseID); err != nil {
			return nil, err
		}
		if err := RefreshEnrollmentCount(tx, courseID); err != nil {
			return nil, err
		}
		return FindEnrollment(tx, userID, courseID)
	}

	enrollment := courseModels.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   courseModels.EnrollmentEnrolled,
		Source:   source,
		OrderID:  orderID,
	}
	if err := tx.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	if _, _, err := RecomputeEnrollment(tx, userID, courseID); err != nil {
		return nil, err
	}
	if err := RefreshEnrollmentCount(tx, courseID); err != nil {
		return nil, err
	}
	return FindEnrollment(tx, userID, courseID)
}

// RevokeEnrollment marks the enrollment REVOKED. Missing enrollments are not an error.
func RevokeEnrollment(tx *gorm.DB, userID, courseID uint) error {
	now := time.Now()
	res := tx.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", userID, courseID, courseModels.EnrollmentRevoked).
		Updates(map[string]interface{}{
			"status":     courseModels.EnrollmentRevoked,
			"revoked_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	return RefreshEnrollmentCount(tx, courseID)
}

// RefreshEnrollmentCount stores the number of active enrollments on the course
func RefreshEnrollmentCount(tx *gorm.DB, courseID uint) error {
	var count int64
	if err := tx.Model(&courseModels.Enrollment{}).
		Where("course_id = ? AND is_deleted = ? AND status <> ?", courseID, false, courseModels.EnrollmentRevoked).
		Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&courseModels.Course{}).Where("id = ?", courseID).
		Update("enrollment_count", count).Error
}

// PublishedLessonIDs returns the ids of the course's published, non-deleted lessons
func PublishedLessonIDs(db *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		Pluck("id", &ids).Error
	return ids, err
}

// SyncCoursePublication runs after a lesson is published, unpublished or deleted.
// It refreshes the course duration, moves the course back to DRAFT when no published
// lesson is left and recomputes every enrollment against the new lesson set.
func SyncCoursePublication(tx *gorm.DB, courseID uint) error {
	if err := RefreshCourseDuration(tx, courseID); err != nil {
		return err
	}

	lessonIDs, err := PublishedLessonIDs(tx, courseID)
	if err != nil {
		return err
	}
	if len(lessonIDs) == 0 {
		if err := tx.Model(&courseModels.Course{}).
			Where("id = ? AND is_published = ?", courseID, true).
			Updates(map[string]interface{}{
				"is_published": false,
				"status":       courseModels.StatusDraft,
			}).Error; err != nil {
			return err
		}
	}

	var userIDs []uint
	if err := tx.Model(&courseModels.Enrollment{}).
		Where("course_id = ? AND is_deleted = ? AND status <> ?", courseID, false, courseModels.EnrollmentRevoked).
		Pluck("user_id", &userIDs).Error; err != nil {
		return err
	}
	for _, userID := range userIDs {
		enrollment, completed, err := RecomputeEnrollment(tx, userID, courseID)
		if err != nil {
			return err
		}
		if completed {
			if _, _, err := IssueCertificate(tx, enrollment); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecomputeEnrollment refreshes progress, counters and status from LessonProgress rows.
// newlyCompleted is true when this call moved the enrollment to COMPLETED.
func RecomputeEnrollment(tx *gorm.DB, userID, courseID uint) (enrollment *courseModels.Enrollment, newlyCompleted bool, err error) {
	enrollment, err = FindEnrollment(tx, userID, courseID)
	if err != nil {
		return nil, false, err
	}

	lessonIDs, err := PublishedLessonIDs(tx, courseID)
	if err != nil {
		return nil, false, err
	}

	var completed int64
	if len(lessonIDs) > 0 {
		if err := tx.Model(&courseModels.LessonProgress{}).
			Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
			Count(&completed).Error; err != nil {
			return nil, false, err
		}
	}

	total := len(lessonIDs)
	enrollment.TotalLessons = total
	enrollment.CompletedLessons = int(completed)
	enrollment.Progress = ProgressPercent(int(completed), total)

	if enrollment.Status != courseModels.EnrollmentRevoked {
		previous := enrollment.Status
		switch {
		case total > 0 && int(completed) >= total:
			enrollment.Status = courseModels.EnrollmentCompleted
			if enrollment.CompletedAt == nil {
				now := time.Now()
				enrollment.CompletedAt = &now
			}
			newlyCompleted = previous != courseModels.EnrollmentCompleted
		case completed > 0:
			enrollment.Status = courseModels.EnrollmentInProgress
		default:
			enrollment.Status = courseModels.EnrollmentEnrolled
		}
	}

	if err := tx.Save(enrollment).Error; err != nil {
		return nil, false, err
	}
	return enrollment, newlyCompleted, nil
}

// NewCertificateNumber returns CERT-<YYYYMMDD>-<8 hex>
func NewCertificateNumber(now time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CERT-%s-%s", now.Format("20060102"), strings.ToUpper(hex[:8]))
}

// IssueCertificate creates the certificate for a completed enrollment once.
// created is false when one already exists.
func IssueCertificate(tx *gorm.DB, enrollment *courseModels.Enrollment) (cert *courseModels.Certificate, created bool, err error) {
	var existing courseModels.Certificate
	err = tx.Where("user_id = ? AND course_id = ?", enrollment.UserID, enrollment.CourseID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now()
	cert = &courseModels.Certificate{
		UserID:            enrollment.UserID,
		CourseID:          enrollment.CourseID,
		EnrollmentID:      enrollment.ID,
		CertificateNumber: NewCertificateNumber(now),
		IssuedAt:          now,
	}
	if err := tx.Create(cert).Error; err != nil {
		return nil, false, err
	}
	return cert, true, nil
}

// RecomputeCourseRating stores the average rating and review count on the course
func RecomputeCourseRating(tx *gorm.DB, courseID uint) error {
	var agg struct {
		Avg   float64
		Count int64
	}
	if err := tx.Model(&courseModels.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Scan(&agg).Error; err != nil {
		return err
	}
	return tx.Model(&courseModels.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"rating":       RoundTo2(agg.Avg),
		"review_count": agg.Count,
	}).Error
}
