package handlers

import (
	"context"
	"time"

	"optimile-backend-go/config"
	"optimile-backend-go/services"

	"github.com/gofiber/fiber/v2"
)

// Lane lifecycle controls. Start/close are normally driven by the scheduler;
// these endpoints exist for manual intervention.

func StartLane(c *fiber.Ctx) error {
	lane, err := services.GlobalLaneService.Start(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lane started", "lane": lane})
}

func PauseLane(c *fiber.Ctx) error {
	lane, err := services.GlobalLaneService.Pause(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lane paused", "lane": lane})
}

func ResumeLane(c *fiber.Ctx) error {
	lane, err := services.GlobalLaneService.Resume(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lane resumed", "lane": lane})
}

func CloseLane(c *fiber.Ctx) error {
	lane, err := services.GlobalLaneService.Close(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lane closed", "lane": lane})
}

// ForceAward runs the award computation on a closed lane ahead of the sweep.
func ForceAward(c *fiber.Ctx) error {
	userID := c.Locals("userId").(string)
	award, err := services.GlobalAwardService.Award(c.Context(), c.Params("id"), userID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lane awarded", "award": award})
}

// TriggerSpot manually escalates a failed-queue lane to a spot re-auction.
func TriggerSpot(c *fiber.Ctx) error {
	lane, err := services.GlobalAuctionService.TriggerSpotReauction(c.Context(), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Spot re-auction started", "spot_lane": lane})
}

// HealthCheck reports dependency status.
func HealthCheck(c *fiber.Ctx) error {
	ctx := context.Background()
	dbStat := "ok"
	if err := config.DB.Ping(ctx); err != nil {
		dbStat = "error"
	}

	redisStat := "ok"
	if err := config.RedisMain.Ping(ctx).Err(); err != nil {
		redisStat = "error"
	}

	return c.JSON(fiber.Map{
		"status":         "healthy",
		"timestamp":      time.Now().UnixMilli(),
		"dbStatus":       dbStat,
		"redisConnected": redisStat == "ok",
	})
}
