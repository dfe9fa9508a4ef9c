package middleware_test

import (
	"net/http/httptest"
	"testing"

	"ledger-recon/core/middleware/auth"
	"ledger-recon/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Use(auth.New(auth.Config{ApiKey: key}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(rayid.LocalsKey).(string))
	})
	return app
}

func TestRayID(t *testing.T) {
	app := newApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, resp.Header.Get(rayid.Header), 36)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(rayid.Header, "upstream-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-id", resp.Header.Get(rayid.Header))
}

func TestAuth(t *testing.T) {
	app := newApp("secret")

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"Missing Key", "", "", 401},
		{"Wrong Key", "nope", "", 401},
		{"Header Key", "secret", "", 200},
		{"Query Key", "", "?api_key=secret", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(auth.Header, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
