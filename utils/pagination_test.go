package utils

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: DefaultPageSize}, NewPagination(0, 0))
	assert.Equal(t, Pagination{Page: 3, Limit: MaxPageSize}, NewPagination(3, 1000))
	assert.Equal(t, 20, NewPagination(3, 10).Offset())
}

func TestPaginatedResponse(t *testing.T) {
	got := PaginatedResponse("courses", []string{"a", "b"}, 12, NewPagination(2, 5))

	assert.Equal(t, []string{"a", "b"}, got["courses"])
	assert.Equal(t, fiber.Map{"total": int64(12), "page": 2, "limit": 5}, got["pagination"])
}
