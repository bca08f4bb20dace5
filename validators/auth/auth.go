package authValidator

import (
	"academy/validators"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var mobileRe = regexp.MustCompile(`^\+?\d{7,15}$`)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Mobile   string `json:"mobile" validate:"max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return validators.Body("validatedUser", func(req *SignupRequest, errs map[string]string) {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Mobile = strings.TrimSpace(req.Mobile)
		if req.Mobile != "" && !mobileRe.MatchString(req.Mobile) {
			errs["mobile"] = "Invalid mobile number!"
		}
		if len(req.Name) < 2 && errs["name"] == "" {
			errs["name"] = "Name must be at least 2 characters long!"
		}
	})
}

// Login validator middleware
func Login() fiber.Handler {
	return validators.Body("validatedUser", func(req *LoginRequest, errs map[string]string) {
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	})
}

func ChangePassword() fiber.Handler {
	return validators.Body("validatedPassword", func(req *ChangePasswordRequest, errs map[string]string) {
		if req.OldPassword != "" && req.OldPassword == req.NewPassword {
			errs["new_password"] = "New password must differ from the old one!"
		}
	})
}
