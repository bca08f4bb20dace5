package utils

import (
	"academy/config"
	"academy/logger"
	"academy/models"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConsultationFollowUpAfter is how long a NEW consultation may wait before it shows up in the digest
const ConsultationFollowUpAfter = 48 * time.Hour

// InitializeScheduler registers the hourly order expiry and the daily consultation digest.
// The caller owns the returned cron and must Stop it on shutdown.
func InitializeScheduler(db *gorm.DB, cfg *config.Config) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", func() {
		n, err := ExpireStaleOrders(db, time.Now(), cfg.OrderTTL)
		if err != nil {
			logger.Log.Error("[SCHEDULER] expiring orders failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Log.Info("[SCHEDULER] expired stale orders", zap.Int64("count", n))
		}
	}); err != nil {
		logger.Log.Error("[SCHEDULER] registering order expiry", zap.Error(err))
	}

	// 08:00 every day
	if _, err := c.AddFunc("0 8 * * *", func() {
		if _, err := SendConsultationDigest(db, time.Now()); err != nil {
			logger.Log.Error("[SCHEDULER] consultation digest failed", zap.Error(err))
		}
	}); err != nil {
		logger.Log.Error("[SCHEDULER] registering consultation digest", zap.Error(err))
	}

	c.Start()
	logger.Log.Info("[SCHEDULER] started")
	return c
}

// ExpireStaleOrders moves PENDING orders created before now-ttl to EXPIRED
func ExpireStaleOrders(db *gorm.DB, now time.Time, ttl time.Duration) (int64, error) {
	res := db.Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderPending, now.Add(-ttl)).
		Updates(map[string]interface{}{
			"status":         models.OrderExpired,
			"failure_reason": "checkout session expired",
		})
	return res.RowsAffected, res.Error
}

// SendConsultationDigest emails every admin the NEW consultations older than ConsultationFollowUpAfter.
// It returns the number of consultations listed.
func SendConsultationDigest(db *gorm.DB, now time.Time) (int, error) {
	var pending []models.Consultation
	if err := db.Where("status = ? AND is_deleted = ? AND created_at < ?",
		models.ConsultationNew, false, now.Add(-ConsultationFollowUpAfter)).
		Order("created_at asc").
		Find(&pending).Error; err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var admins []models.User
	if err := db.Where("role = ? AND is_deleted = ? AND is_blocked = ?", models.RoleAdmin, false, false).
		Find(&admins).Error; err != nil {
		return 0, err
	}

	lines := make([]DigestLine, 0, len(pending))
	for _, p := range pending {
		lines = append(lines, DigestLine{Name: p.Name, Email: p.Email, CreatedAt: p.CreatedAt})
	}
	for _, admin := range admins {
		SendConsultationDigestEmail(admin.Email, lines)
	}
	return len(pending), nil
}
