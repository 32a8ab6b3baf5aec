package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetSections - List the dashboard sections in sidebar order
func (h *Handler) GetSections(c *fiber.Ctx) error {
	return c.JSON(h.Board.Sections())
}

// GetSectionView - Return one section's adapter snapshot
func (h *Handler) GetSectionView(c *fiber.Ctx) error {
	section := c.Params("section")
	snap, ok := h.Board.Snapshot(section)
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "Unknown section: " + section})
	}
	if h.Board.Selection().IsZero() {
		return c.Status(409).JSON(fiber.Map{"error": "No client selected"})
	}
	return c.JSON(snap)
}

// GetAllViews - Return every section snapshot in one shot
func (h *Handler) GetAllViews(c *fiber.Ctx) error {
	if h.Board.Selection().IsZero() {
		return c.Status(409).JSON(fiber.Map{"error": "No client selected"})
	}
	return c.JSON(h.Board.Snapshots())
}
