package courseValidator

import (
	courseModels "academy/models/course"
	"academy/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var courseSorts = []string{"newest", "popular", "rating", "price_asc", "price_desc"}

type CourseListQuery struct {
	Search string `query:"search"`
	Level  string `query:"level"`
	Free   string `query:"free"`
	Sort   string `query:"sort"`
}

type ProgressRequest struct {
	WatchedSeconds int   `json:"watched_seconds" validate:"gte=0,lte=86400"`
	Completed      *bool `json:"completed"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// CourseList validates the public catalog query
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(CourseListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}

		errors := make(map[string]string)
		query.Search = strings.TrimSpace(query.Search)
		query.Level = strings.ToUpper(strings.TrimSpace(query.Level))
		if query.Level != "" && !validators.Contains(courseModels.Levels, query.Level) {
			errors["level"] = "Level must be one of BEGINNER, INTERMEDIATE, ADVANCED!"
		}
		query.Free = strings.ToLower(strings.TrimSpace(query.Free))
		if query.Free != "" && query.Free != "true" && query.Free != "false" {
			errors["free"] = "Free must be true or false!"
		}
		query.Sort = strings.ToLower(strings.TrimSpace(query.Sort))
		if query.Sort == "" {
			query.Sort = "newest"
		} else if !validators.Contains(courseSorts, query.Sort) {
			errors["sort"] = "Sort must be one of " + strings.Join(courseSorts, ", ") + "!"
		}

		if len(errors) > 0 {
			return validators.Errors(c, errors)
		}
		c.Locals("validatedList", query)
		return c.Next()
	}
}

// CourseSlug validates the :slug parameter
func CourseSlug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := strings.ToLower(strings.TrimSpace(c.Params("slug")))
		if slug == "" || len(slug) > 191 {
			return validators.Invalid(c, "slug", "Invalid course slug!")
		}
		c.Locals("slug", slug)
		return c.Next()
	}
}

func UpdateProgress() fiber.Handler {
	return validators.Body[ProgressRequest]("validatedProgress", nil)
}

func Review() fiber.Handler {
	return validators.Body("validatedReview", func(req *ReviewRequest, errs map[string]string) {
		req.Comment = strings.TrimSpace(req.Comment)
	})
}
