// Package validators holds helpers shared by the per-area request validators.
package validators

import (
	"academy/middleware"
	"academy/utils"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate is the shared struct validator. Field names in errors are the json tag names.
var Validate = validator.New()

func init() {
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldErrors turns validator errors into a json-field -> message map
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["request"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return "Invalid email!"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long!", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s!", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s!", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s!", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]!", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL!", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid!", fe.Field())
	}
}

// Body parses the request body into a new T, runs tag validation and the optional extra check,
// then stores *T in Locals(local)
func Body[T any](local string, check func(req *T, errs map[string]string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errs := make(map[string]string)
		if err := Validate.Struct(req); err != nil {
			errs = FieldErrors(err)
		}
		if check != nil {
			check(req, errs)
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals(local, req)
		return c.Next()
	}
}

// ParamID reads a positive integer route parameter
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// Pagination reads page and limit from the query string and stores them in Locals("pagination")
func Pagination() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("pagination", utils.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", utils.DefaultPageSize)))
		return c.Next()
	}
}

// PaginationFrom returns the pagination stored by Pagination, or the defaults
func PaginationFrom(c *fiber.Ctx) utils.Pagination {
	if p, ok := c.Locals("pagination").(utils.Pagination); ok {
		return p
	}
	return utils.NewPagination(0, 0)
}

// IDParams validates that each named route parameter is a positive integer and stores it in Locals under the same name
func IDParams(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errs := make(map[string]string)
		for _, name := range names {
			id, ok := ParamID(c, name)
			if !ok {
				errs[name] = "Invalid " + strings.ReplaceAll(name, "_", " ") + "!"
				continue
			}
			c.Locals(name, id)
		}
		if len(errs) > 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request parameters!", errs)
		}
		return c.Next()
	}
}

// Contains reports whether v is one of list
func Contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// BadQuery rejects an unparsable query string
func BadQuery(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
}

// Invalid rejects a request with a single field error
func Invalid(c *fiber.Ctx, field, msg string) error {
	return middleware.ValidationErrorResponse(c, map[string]string{field: msg})
}

// Errors rejects a request with the collected field errors
func Errors(c *fiber.Ctx, errs map[string]string) error {
	return middleware.ValidationErrorResponse(c, errs)
}
