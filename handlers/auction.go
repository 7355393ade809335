package handlers

import (
	"context"
	"time"

	"optimile-backend-go/config"
	"optimile-backend-go/models"
	"optimile-backend-go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateAuctionRequest struct {
	Name    string                 `json:"name"`
	Ruleset services.RulesetInput  `json:"ruleset"`
	Lanes   []services.LaneInput   `json:"lanes"`
}

// CreateAuction is the client draft/create flow: ruleset + lanes in one shot.
func CreateAuction(c *fiber.Ctx) error {
	var req CreateAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Auction name is required"})
	}

	clientID := c.Locals("userId").(string)
	auction, lanes, err := services.GlobalAuctionService.CreateAuction(c.Context(), clientID, req.Name, req.Ruleset, req.Lanes)
	if err != nil {
		return apiError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"auction": auction,
		"lanes":   lanes,
	})
}

// ListAuctions returns auctions visible to the caller (own for clients, all
// for vendors browsing open work).
func ListAuctions(c *fiber.Ctx) error {
	role := c.Locals("role").(string)
	userID := c.Locals("userId").(string)

	query := `
		SELECT id, client_id, name, ruleset_id, is_spot, created_at
		FROM auctions ORDER BY created_at DESC LIMIT 200
	`
	args := []interface{}{}
	if role == "CLIENT" {
		query = `
			SELECT id, client_id, name, ruleset_id, is_spot, created_at
			FROM auctions WHERE client_id = $1 ORDER BY created_at DESC LIMIT 200
		`
		args = append(args, userID)
	}

	rows, err := config.DB.Query(context.Background(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	defer rows.Close()

	var auctions []models.Auction
	for rows.Next() {
		var a models.Auction
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Name, &a.RulesetID, &a.IsSpot, &a.CreatedAt); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		auctions = append(auctions, a)
	}
	return c.JSON(auctions)
}

// ListLanes returns an auction's lanes in sequence order.
func ListLanes(c *fiber.Ctx) error {
	lanes, err := services.GlobalLaneService.ListByAuction(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(lanes)
}

// GetLane returns lane detail with remaining timer.
func GetLane(c *fiber.Ctx) error {
	lane, err := services.GlobalLaneService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(lane)
}

type UpdateLaneRequest struct {
	BasePrice *decimal.Decimal `json:"base_price,omitempty"`
	LaneName  *string          `json:"lane_name,omitempty"`
}

// UpdateLane applies typed field updates to a PENDING lane. Each field is an
// enumerated command; there is no generic patch-by-name.
func UpdateLane(c *fiber.Ctx) error {
	var req UpdateLaneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	laneID := c.Params("id")
	var lane interface{}
	var err error

	switch {
	case req.BasePrice != nil:
		lane, err = services.GlobalLaneService.UpdateBasePrice(c.Context(), laneID, *req.BasePrice)
	case req.LaneName != nil:
		lane, err = services.GlobalLaneService.UpdateLaneName(c.Context(), laneID, *req.LaneName)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No updatable field supplied"})
	}
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Lane updated", "lane": lane, "updated_at": time.Now()})
}
