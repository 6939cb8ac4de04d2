package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"userdir/internal/dto"
	"userdir/internal/service"
)

// avatarURLExpiry bounds how long a presigned avatar download link stays
// valid.
const avatarURLExpiry = 15 * time.Minute

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, delegate to the service, translate outcomes.
func RegisterRoutes(app *fiber.App, db *sql.DB, userSvc service.UserService) {
	// Serve OpenAPI spec and a static Swagger UI page
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/users", ListUsers(userSvc))
	app.Post("/users", CreateUser(userSvc))
	app.Get("/users/:id", GetUser(userSvc))
	app.Patch("/users/:id", UpdateUser(userSvc))
	app.Delete("/users/:id", DeleteUser(userSvc))
	app.Put("/users/:id/avatar", UploadAvatar(userSvc))
	app.Get("/users/:id/avatar", GetAvatarURL(userSvc))
}

// HealthCheck verifies DB connectivity with a short timeout.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListUsers returns paginated user profiles with limit & offset.
func ListUsers(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := userSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeTypedError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateUser registers a new user from a JSON body and returns the stored
// record, including its assigned id.
func CreateUser(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.CreateUser
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		}

		u, err := userSvc.Register(c.UserContext(), in)
		if err != nil {
			return writeTypedError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// GetUser returns the transfer-object view of a user; the id is already in
// the URL and is not repeated in the body.
func GetUser(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := userSvc.Profile(c.UserContext(), id)
		if err != nil {
			return writeTypedError(c, err)
		}
		return c.JSON(p)
	}
}

// UpdateUser applies a partial update from a JSON body of optional fields.
func UpdateUser(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var upd dto.UpdateUser
		if err := c.BodyParser(&upd); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
		}

		u, err := userSvc.Update(c.UserContext(), id, upd)
		if err != nil {
			return writeTypedError(c, err)
		}
		return c.JSON(u)
	}
}

// DeleteUser removes a user by id.
func DeleteUser(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := userSvc.Remove(c.UserContext(), id); err != nil {
			return writeTypedError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadAvatar stores the avatar image (multipart/form-data, field name: file).
func UploadAvatar(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		u, err := userSvc.SetAvatar(c.UserContext(), id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeTypedError(c, err)
		}
		return c.JSON(u)
	}
}

// GetAvatarURL returns a time-limited download URL for the user's avatar.
func GetAvatarURL(userSvc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := userSvc.AvatarURL(c.UserContext(), id, avatarURLExpiry)
		if err != nil {
			return writeTypedError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}
