package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vharkusha/textract-bot/internal/session"
)

// New builds the operational HTTP surface. The bot itself talks to Telegram
// over long polling; this app only exposes liveness for process supervisors.
func New(store *session.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "textract-bot",
		DisableStartupMessage: true,
	})

	started := time.Now()
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"uptime":   time.Since(started).Round(time.Second).String(),
			"sessions": store.Len(),
		})
	})

	return app
}
