package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RefreshCertificates - Trigger the backend's certificate expiry sweep
// for one account and relay the result.
func (h *Handler) RefreshCertificates(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	if accountID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "accountId is required"})
	}

	result, err := h.Upstream.RefreshCertExpirations(c.Context(), accountID)
	if err != nil {
		AddEvent("warning", "Certificate refresh failed for account "+accountID)
		return c.Status(502).JSON(fiber.Map{"error": "Certificate refresh failed: " + err.Error()})
	}

	AddEvent("success", "Certificate expirations refreshed for account "+accountID)
	return c.JSON(result)
}
