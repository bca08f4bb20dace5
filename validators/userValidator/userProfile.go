package userValidator

import (
	"academy/models"
	"academy/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=100"`
	Mobile    *string `json:"mobile" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type UserListQuery struct {
	Search string `query:"search"`
	Role   string `query:"role"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

type BlockUserRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

func UpdateProfile() fiber.Handler {
	return validators.Body("validatedProfile", func(req *UpdateProfileRequest, errs map[string]string) {
		if req.Name == nil && req.Mobile == nil && req.AvatarURL == nil {
			errs["request"] = "Nothing to update!"
		}
		if req.Name != nil {
			trimmed := strings.TrimSpace(*req.Name)
			req.Name = &trimmed
		}
	})
}

// UserList validates the admin user list query
func UserList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(UserListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}
		query.Role = strings.ToUpper(strings.TrimSpace(query.Role))
		if query.Role != "" && query.Role != models.RoleUser && query.Role != models.RoleAdmin {
			return validators.Invalid(c, "role", "Role must be USER or ADMIN!")
		}
		query.Search = strings.TrimSpace(query.Search)
		c.Locals("validatedList", query)
		return c.Next()
	}
}

func ChangeRole() fiber.Handler {
	return validators.Body[ChangeRoleRequest]("validatedRole", nil)
}

func BlockUser() fiber.Handler {
	return validators.Body[BlockUserRequest]("validatedBlock", nil)
}
