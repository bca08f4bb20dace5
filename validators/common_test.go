package validators

import (
	"academy/utils"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=0,lte=130"`
}

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data"`
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func TestBody(t *testing.T) {
	app := fiber.New()
	app.Post("/", Body("validated", func(req *sampleRequest, errs map[string]string) {
		if req.Name == "admin" {
			errs["name"] = "reserved"
		}
	}), func(c *fiber.Ctx) error {
		req := c.Locals("validated").(*sampleRequest)
		return c.SendString(req.Name)
	})

	code, _ := do(t, app, "POST", "/", `{"name":"Ada","email":"ada@example.com","age":36}`)
	assert.Equal(t, fiber.StatusOK, code)

	code, env := do(t, app, "POST", "/", `{"name":"A","email":"nope","age":200}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.False(t, env.Status)
	assert.Contains(t, env.Data, "name")
	assert.Equal(t, "Invalid email!", env.Data["email"])
	assert.Contains(t, env.Data, "age")

	code, env = do(t, app, "POST", "/", `{"name":"admin","email":"ada@example.com"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "reserved", env.Data["name"])

	code, _ = do(t, app, "POST", "/", `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestIDParams(t *testing.T) {
	app := fiber.New()
	app.Get("/course/:course_id/lesson/:lesson_id", IDParams("course_id", "lesson_id"), func(c *fiber.Ctx) error {
		assert.Equal(t, uint(3), c.Locals("course_id"))
		assert.Equal(t, uint(9), c.Locals("lesson_id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	code, _ := do(t, app, "GET", "/course/3/lesson/9", "")
	assert.Equal(t, fiber.StatusNoContent, code)

	code, env := do(t, app, "GET", "/course/x/lesson/0", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, env.Data, "course_id")
	assert.Contains(t, env.Data, "lesson_id")
}

func TestPagination(t *testing.T) {
	var got utils.Pagination
	app := fiber.New()
	app.Get("/", Pagination(), func(c *fiber.Ctx) error {
		got = PaginationFrom(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	do(t, app, "GET", "/?page=2&limit=500", "")
	assert.Equal(t, utils.Pagination{Page: 2, Limit: utils.MaxPageSize}, got)

	do(t, app, "GET", "/", "")
	assert.Equal(t, utils.Pagination{Page: 1, Limit: utils.DefaultPageSize}, got)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"A", "B"}, "B"))
	assert.False(t, Contains([]string{"A", "B"}, "b"))
	assert.False(t, Contains(nil, ""))
}
