package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetSyncLog - Ingestion bookkeeping from the statistics backend: per-month
// line counts, collection runs and the sampled window, rendered on the
// landing page as sync logs.
func (h *Handler) GetSyncLog(c *fiber.Ctx) error {
	view, err := h.Board.SyncLog(c.Context())
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": "Failed to load sync log"})
	}
	return c.JSON(view)
}
