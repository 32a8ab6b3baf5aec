package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cdn-metrics-dashboard/metrics"
)

// reportRootID is the stable element id the PDF-export collaborator
// captures. Renaming it breaks exports silently, so it lives here and
// nowhere else.
const reportRootID = "report-root"

// GetExportRoot - Capture contract for the PDF exporter: the root
// element id, the section order and a suggested file name.
func (h *Handler) GetExportRoot(c *fiber.Ctx) error {
	sel := h.Board.Selection()
	if sel.IsZero() {
		return c.Status(409).JSON(fiber.Map{"error": "No client selected"})
	}

	filename := "report-" + sel.ClientName + "-" + sel.MonthRef + ".pdf"
	return c.JSON(fiber.Map{
		"root_id":  reportRootID,
		"sections": h.Board.Sections(),
		"filename": filename,
		"period":   metrics.FormatMonthLabel(sel.MonthRef),
	})
}
