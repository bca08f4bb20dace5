package utils

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is a validated page/limit pair
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPagination clamps page and limit to sane values
func NewPagination(page, limit int) Pagination {
	if page <= 0 {
		page = 1
	}
	switch {
	case limit > MaxPageSize:
		limit = MaxPageSize
	case limit <= 0:
		limit = DefaultPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate is a GORM scope applying offset and limit
func Paginate(p Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// PaginatedResponse builds the {<key>: items, pagination: {...}} payload used by list endpoints
func PaginatedResponse(key string, items interface{}, total int64, p Pagination) fiber.Map {
	return fiber.Map{
		key: items,
		"pagination": fiber.Map{
			"total": total,
			"page":  p.Page,
			"limit": p.Limit,
		},
	}
}
