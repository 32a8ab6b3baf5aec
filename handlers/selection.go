package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cdn-metrics-dashboard/services"
)

type selectionRequest struct {
	ClientName string `json:"client_name"`
	MonthRef   string `json:"month_ref"`
}

// GetSelection - Current client/month plus the selector options
func (h *Handler) GetSelection(c *fiber.Ctx) error {
	clients, err := h.Board.Clients(c.Context())
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": "Failed to load client list"})
	}

	sel := h.Board.Selection()
	return c.JSON(fiber.Map{
		"clients":  clients,
		"months":   h.Board.Months(),
		"selected": sel,
		"active":   !sel.IsZero(),
	})
}

// PutSelection - Switch the dashboard to another client/month
func (h *Handler) PutSelection(c *fiber.Ctx) error {
	var req selectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.ClientName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "client_name is required"})
	}

	if err := h.Board.SetSelection(c.Context(), req.ClientName, req.MonthRef); err != nil {
		if errors.Is(err, services.ErrBadMonthRef) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	AddEvent("info", "Selection changed to "+req.ClientName+" / "+req.MonthRef)
	return c.JSON(fiber.Map{"selected": h.Board.Selection()})
}
