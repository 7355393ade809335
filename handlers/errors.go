package handlers

import (
	"errors"

	"optimile-backend-go/core/engine"
	"optimile-backend-go/services"

	"github.com/gofiber/fiber/v2"
)

// apiError maps engine and service failure signals to JSON responses.
// Validation and state-consistency rejections are the caller's problem (4xx);
// anything unrecognized is a 500.
func apiError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrLaneNotOpen),
		errors.Is(err, engine.ErrLaneExpired),
		errors.Is(err, engine.ErrBidTooHigh),
		errors.Is(err, engine.ErrLaneNotClosed),
		errors.Is(err, engine.ErrNoValidBids),
		errors.Is(err, engine.ErrAwardNotPending),
		errors.Is(err, engine.ErrDeadlineNotReached),
		errors.Is(err, services.ErrNoLanes),
		errors.Is(err, services.ErrBadRuleset),
		errors.Is(err, services.ErrBadLane),
		errors.Is(err, services.ErrBadThreshold),
		errors.Is(err, services.ErrLaneNotEditable),
		errors.Is(err, services.ErrLaneNotAwarded),
		errors.Is(err, services.ErrRankHidden):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotAwardVendor):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
