package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	gorm.Model
	Name                string     `json:"name" gorm:"default:''"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:191;not null"`
	Mobile              string     `json:"mobile" gorm:"default:''"`
	AvatarURL           string     `json:"avatar_url" gorm:"default:''"`
	Role                string     `json:"role" gorm:"default:'USER'"` // USER, ADMIN
	Password            string     `json:"-" gorm:"not null"`
	LastLogin           *time.Time `json:"last_login"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"-"`
	IsBlocked           bool       `json:"is_blocked" gorm:"default:false"`
	BlockedUntil        *time.Time `json:"blocked_until,omitempty"`
	IsDeleted           bool       `json:"-" gorm:"default:false"`
}

// IsAdmin reports whether the user carries the ADMIN role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBlockedAt reports whether an admin block or a login lockout is in effect at t
func (u User) IsBlockedAt(t time.Time) bool {
	return u.IsBlocked && (u.BlockedUntil == nil || u.BlockedUntil.After(t))
}
