package handlers

import (
	"optimile-backend-go/services"

	"github.com/gofiber/fiber/v2"
)

// AcceptAward records the awarded vendor's acceptance. Award terms are stable
// from this point and flow to the execution system.
func AcceptAward(c *fiber.Ctx) error {
	vendorID := c.Locals("userId").(string)
	award, err := services.GlobalAwardService.Accept(c.Context(), c.Params("id"), vendorID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Award accepted", "award": award})
}

type DeclineAwardRequest struct {
	Reason string `json:"reason"`
}

// DeclineAward records the decline and reports where the contract went next:
// the replacement award, or the spot re-auction escalation.
func DeclineAward(c *fiber.Ctx) error {
	var req DeclineAwardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	vendorID := c.Locals("userId").(string)
	next, err := services.GlobalAwardService.Decline(c.Context(), c.Params("id"), vendorID, req.Reason)
	if err != nil {
		return apiError(c, err)
	}

	if next == nil {
		return c.JSON(fiber.Map{
			"message":    "Award declined, no eligible alternate; spot re-auction triggered",
			"reassigned": false,
		})
	}
	return c.JSON(fiber.Map{
		"message":    "Award declined, lane reassigned",
		"reassigned": true,
		"next_award": next,
	})
}

// AwardChain returns a lane's full award history, oldest first.
func AwardChain(c *fiber.Ctx) error {
	chain, err := services.GlobalAwardService.Chain(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(chain)
}

// QueueStatus returns the lane's alternate queue snapshot.
func QueueStatus(c *fiber.Ctx) error {
	queue, err := services.GlobalAwardService.QueueStatus(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	if queue == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No reassignment queue for this lane"})
	}
	return c.JSON(queue)
}
