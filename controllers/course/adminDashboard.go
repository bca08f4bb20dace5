package controllers

import (
	"academy/database"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type topCourse struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	EnrollmentCount int     `json:"enrollment_count"`
	Rating          float64 `json:"rating"`
}

// paidRevenue sums PAID order amounts, optionally from a start time
func paidRevenue(db *gorm.DB, since *time.Time) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	q := db.Model(&models.Order{}).Where("status = ?", models.OrderPaid)
	if since != nil {
		q = q.Where("paid_at >= ?", *since)
	}
	if err := q.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

func AdminDashboardStats(c *fiber.Ctx) error {
	db := database.Database.Db
	monthStart := now.BeginningOfMonth()

	var totalUsers, publishedCourses, totalEnrollments, completedEnrollments, monthEnrollments int64
	var openTickets, newConsultations int64

	db.Model(&models.User{}).Where("is_deleted = ?", false).Count(&totalUsers)
	db.Model(&courseModels.Course{}).Where("is_deleted = ? AND is_published = ?", false, true).Count(&publishedCourses)
	db.Model(&courseModels.Enrollment{}).
		Where("is_deleted = ? AND status <> ?", false, courseModels.EnrollmentRevoked).Count(&totalEnrollments)
	db.Model(&courseModels.Enrollment{}).
		Where("is_deleted = ? AND status = ?", false, courseModels.EnrollmentCompleted).Count(&completedEnrollments)
	db.Model(&courseModels.Enrollment{}).
		Where("is_deleted = ? AND status <> ? AND created_at >= ?", false, courseModels.EnrollmentRevoked, monthStart).
		Count(&monthEnrollments)
	db.Model(&models.SupportTicket{}).
		Where("is_deleted = ? AND status <> ?", false, models.TicketClosed).Count(&openTickets)
	db.Model(&models.Consultation{}).
		Where("is_deleted = ? AND status = ?", false, models.ConsultationNew).Count(&newConsultations)

	revenue, err := paidRevenue(db, nil)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute revenue!", nil)
	}
	monthRevenue, err := paidRevenue(db, &monthStart)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute revenue!", nil)
	}

	var top []topCourse
	db.Model(&courseModels.Course{}).
		Select("id, title, slug, enrollment_count, rating").
		Where("is_deleted = ?", false).
		Order("enrollment_count desc, id asc").
		Limit(5).
		Scan(&top)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"total_users":            totalUsers,
		"published_courses":      publishedCourses,
		"total_enrollments":      totalEnrollments,
		"completed_enrollments":  completedEnrollments,
		"enrollments_this_month": monthEnrollments,
		"total_revenue":          revenue.StringFixed(2),
		"revenue_this_month":     monthRevenue.StringFixed(2),
		"open_tickets":           openTickets,
		"new_consultations":      newConsultations,
		"top_courses":            top,
		"month_start":            monthStart,
	})
}
