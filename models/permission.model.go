package models

import (
	"gorm.io/gorm"
)

type Permission struct {
	gorm.Model
	UserID     uint   `json:"user_id" gorm:"index;not null"`
	User       User   `json:"-" gorm:"foreignKey:UserID"`
	Role       string `json:"role"`
	Permission string `json:"permission" gorm:"type:varchar(255)"` // e.g., "manage-courses"
	IsDeleted  bool   `json:"-" gorm:"default:false"`
}

const (
	PermViewCourses   = "view-courses"
	PermCreateTicket  = "create-ticket"
	PermManageCourses = "manage-courses"
	PermManageSupport = "manage-support"
	PermManageCRM     = "manage-crm"
	PermManageOrders  = "manage-orders"
	PermManageUsers   = "manage-users"
	PermViewDashboard = "view-dashboard"
)

// DefaultPermissions returns the permission strings granted to a role
func DefaultPermissions(role string) []string {
	perms := []string{PermViewCourses, PermCreateTicket}
	if role == RoleAdmin {
		perms = append(perms,
			PermManageCourses,
			PermManageSupport,
			PermManageCRM,
			PermManageOrders,
			PermManageUsers,
			PermViewDashboard,
		)
	}
	return perms
}
