package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderPending  = "PENDING"
	OrderPaid     = "PAID"
	OrderFailed   = "FAILED"
	OrderExpired  = "EXPIRED"
	OrderRefunded = "REFUNDED"
)

// Order is a single course purchase attempt through the payment provider
type Order struct {
	gorm.Model
	Reference         string          `json:"reference" gorm:"uniqueIndex;size:64;not null"`
	UserID            uint            `json:"user_id" gorm:"index;not null"`
	CourseID          uint            `json:"course_id" gorm:"index;not null"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status" gorm:"default:'PENDING';index"`
	ProviderSessionID string          `json:"provider_session_id" gorm:"index"`
	PaymentIntentID   string          `json:"payment_intent_id" gorm:"index"`
	CheckoutURL       string          `json:"checkout_url"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	PaidAt            *time.Time      `json:"paid_at"`
	RefundedAt        *time.Time      `json:"refunded_at"`
}
