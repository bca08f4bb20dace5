// Package testutil wires an in-memory database, configuration and provider fakes for tests.
package testutil

import (
	"academy/cache"
	"academy/config"
	"academy/database"
	"academy/integrations/mux"
	"academy/integrations/payment"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	PaymentSecret = "whsec_test_payment"
	MuxSecret     = "whsec_test_mux"
	Password      = "password123"
)

// Env is the state one test runs against
type Env struct {
	DB      *gorm.DB
	Config  *config.Config
	Mailer  *utils.MemoryMailer
	Payment *FakePayment
	Mux     *FakeMux
}

// Setup opens a fresh in-memory SQLite database, migrates it and swaps every global for a test double
func Setup(t *testing.T) *Env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := config.FromEnv()
	cfg.AppEnv = "test"
	cfg.JWTKey = "test-secret"
	cfg.JWTTTL = time.Hour
	cfg.SaltRound = bcrypt.MinCost
	cfg.PaymentWebhookSecret = PaymentSecret
	cfg.MuxWebhookSecret = MuxSecret
	cfg.WebhookTolerance = 5 * time.Minute
	cfg.FrontendURL = "http://frontend.test"
	cfg.PaymentCurrency = "usd"

	env := &Env{
		DB:      db,
		Config:  cfg,
		Mailer:  &utils.MemoryMailer{},
		Payment: &FakePayment{},
		Mux:     &FakeMux{},
	}

	prevDB, prevCfg := database.Database, config.AppConfig
	prevMail, prevAsync := utils.Mail, utils.AsyncMail
	prevPay, prevVideo := payment.Provider, mux.Video
	prevStore, prevWorker := cache.WebhookEvents, utils.AssetWorker

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = cfg
	utils.Mail = env.Mailer
	utils.AsyncMail = false
	payment.Provider = env.Payment
	mux.Video = env.Mux
	cache.WebhookEvents = cache.NewInMemoryIdempotencyStore()
	utils.AssetWorker = nil

	t.Cleanup(func() {
		_ = sqlDB.Close()
		database.Database, config.AppConfig = prevDB, prevCfg
		utils.Mail, utils.AsyncMail = prevMail, prevAsync
		payment.Provider, mux.Video = prevPay, prevVideo
		cache.WebhookEvents, utils.AssetWorker = prevStore, prevWorker
	})
	return env
}

// CreateUser stores a user with Password and the role's default permissions
func (e *Env) CreateUser(t *testing.T, name, email, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Name: name, Email: strings.ToLower(email), Role: role, Password: string(hash)}
	require.NoError(t, e.DB.Create(&user).Error)
	require.NoError(t, database.SeedPermissions(e.DB, role, user.ID))
	return user
}

// Token issues a bearer token for user
func (e *Env) Token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return "Bearer " + token
}

// CourseFixture is a published course with one module and its lessons
type CourseFixture struct {
	Course  courseModels.Course
	Module  courseModels.Module
	Lessons []courseModels.Lesson
}

// CreateCourse creates a published course priced at price with n published lessons.
// The first lesson is a free preview.
func (e *Env) CreateCourse(t *testing.T, title string, price string, n int) CourseFixture {
	t.Helper()
	now := time.Now()
	course := courseModels.Course{
		Title:       title,
		Slug:        utils.Slugify(title),
		Description: "About " + title,
		Instructor:  "Ada",
		Level:       "BEGINNER",
		Price:       decimal.RequireFromString(price),
		Currency:    "usd",
		Status:      courseModels.StatusPublished,
		IsPublished: true,
		PublishedAt: &now,
	}
	require.NoError(t, e.DB.Create(&course).Error)

	module := courseModels.Module{CourseID: course.ID, Title: "Module 1", OrderIndex: 1}
	require.NoError(t, e.DB.Create(&module).Error)

	lessons := make([]courseModels.Lesson, 0, n)
	for i := 0; i < n; i++ {
		lesson := courseModels.Lesson{
			CourseID:        course.ID,
			ModuleID:        module.ID,
			Title:           fmt.Sprintf("Lesson %d", i+1),
			OrderIndex:      i + 1,
			IsFreePreview:   i == 0,
			IsPublished:     true,
			DurationSeconds: 60,
			VideoStatus:     courseModels.VideoReady,
			MuxPlaybackID:   fmt.Sprintf("pb_%d_%d", course.ID, i+1),
		}
		require.NoError(t, e.DB.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return CourseFixture{Course: course, Module: module, Lessons: lessons}
}

// Enroll grants user access to course
func (e *Env) Enroll(t *testing.T, userID, courseID uint) courseModels.Enrollment {
	t.Helper()
	enrollment, err := utils.GrantEnrollment(e.DB, userID, courseID, courseModels.SourceFree, nil)
	require.NoError(t, err)
	return *enrollment
}

// FakePayment records checkout and refund calls
type FakePayment struct {
	mu        sync.Mutex
	Sessions  []payment.CheckoutRequest
	Refunds   []string
	FailNext  error
	sessionNo int
}

func (f *FakePayment) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailNext; err != nil {
		f.FailNext = nil
		return nil, err
	}
	f.sessionNo++
	f.Sessions = append(f.Sessions, req)
	id := fmt.Sprintf("cs_test_%d", f.sessionNo)
	return &payment.CheckoutSession{ID: id, URL: "https://pay.test/" + id}, nil
}

func (f *FakePayment) Refund(ctx context.Context, paymentIntentID string) (*payment.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailNext; err != nil {
		f.FailNext = nil
		return nil, err
	}
	f.Refunds = append(f.Refunds, paymentIntentID)
	return &payment.Refund{ID: "re_" + paymentIntentID, Status: "pending"}, nil
}

// FakeMux records uploads and deleted assets
type FakeMux struct {
	mu      sync.Mutex
	Uploads []mux.UploadRequest
	Deleted []string
}

func (f *FakeMux) CreateDirectUpload(ctx context.Context, req mux.UploadRequest) (*mux.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, req)
	id := fmt.Sprintf("upload_%d", len(f.Uploads))
	return &mux.Upload{ID: id, URL: "https://storage.mux.test/" + id, Status: "waiting"}, nil
}

func (f *FakeMux) DeleteAsset(ctx context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, assetID)
	return nil
}
