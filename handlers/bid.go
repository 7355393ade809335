package handlers

import (
	"optimile-backend-go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceBid submits a vendor bid against a lane. Rejections come back with the
// specific reason; the client decides whether to resubmit lower.
func PlaceBid(c *fiber.Ctx) error {
	var req PlaceBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	vendorID := c.Locals("userId").(string)
	bid, err := services.GlobalBidService.PlaceBid(c.Context(), c.Params("id"), vendorID, req.Amount)
	if err != nil {
		return apiError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Bid placed",
		"bid":     bid,
	})
}

// MyRank returns the caller's 1-based rank on the lane, or null when they
// have no valid bid. Hidden when the auction disables rank visibility.
func MyRank(c *fiber.Ctx) error {
	vendorID := c.Locals("userId").(string)
	rank, err := services.GlobalBidService.VendorRank(c.Context(), c.Params("id"), vendorID)
	if err != nil {
		return apiError(c, err)
	}

	if rank == 0 {
		return c.JSON(fiber.Map{"rank": nil})
	}
	return c.JSON(fiber.Map{"rank": rank})
}

// Leaderboard returns the ranked best-bid-per-vendor list for a lane.
func Leaderboard(c *fiber.Ctx) error {
	ranked, err := services.GlobalBidService.Leaderboard(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(ranked)
}

// MyBids returns the caller's bid history on a lane, newest first.
func MyBids(c *fiber.Ctx) error {
	vendorID := c.Locals("userId").(string)
	bids, err := services.GlobalBidService.VendorBids(c.Context(), c.Params("id"), vendorID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(bids)
}
