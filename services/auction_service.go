package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"optimile-backend-go/config"
	"optimile-backend-go/core/engine"
	"optimile-backend-go/models"
	"optimile-backend-go/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuctionService struct {
	engine *engine.AuctionEngine
	store  *store.PGStore
	bus    *EventBus
}

// LaneInput is one lane row in a create-auction request.
type LaneInput struct {
	LaneName         string          `json:"lane_name"`
	SequenceOrder    int             `json:"sequence_order"`
	BasePrice        decimal.Decimal `json:"base_price"`
	TimerDurationSec int             `json:"timer_duration_seconds"`
}

// RulesetInput carries the bidding configuration for a new auction.
type RulesetInput struct {
	MinBidDecrement             decimal.Decimal `json:"min_bid_decrement"`
	TimerExtensionThresholdSecs int             `json:"timer_extension_threshold_seconds"`
	TimerExtensionSecs          int             `json:"timer_extension_seconds"`
	AllowRankVisibility         bool            `json:"allow_rank_visibility"`
	AwardGraceSecs              int             `json:"award_grace_seconds"`
	AcceptanceThresholdType     string          `json:"acceptance_threshold_type"`
	AcceptanceThresholdValue    decimal.Decimal `json:"acceptance_threshold_value"`
}

var (
	ErrNoLanes        = errors.New("auction needs at least one lane")
	ErrBadRuleset     = errors.New("ruleset values must be positive")
	ErrBadLane        = errors.New("lane base price and timer duration must be positive")
	ErrBadThreshold   = errors.New("acceptance threshold type must be PERCENTAGE or ABSOLUTE")
	ErrLaneNotAwarded = errors.New("spot re-auction requires a failed reassignment queue")
)

// CreateAuction persists a ruleset, an auction, and its PENDING lanes in one
// transaction. Lanes denormalize the decrement so the engine never needs the
// parent row on the bid path.
func (s *AuctionService) CreateAuction(ctx context.Context, clientID, name string, rules RulesetInput, lanes []LaneInput) (*models.Auction, []models.Lane, error) {
	if len(lanes) == 0 {
		return nil, nil, ErrNoLanes
	}
	if rules.MinBidDecrement.LessThanOrEqual(decimal.Zero) ||
		rules.TimerExtensionThresholdSecs <= 0 || rules.TimerExtensionSecs <= 0 ||
		rules.AwardGraceSecs <= 0 {
		return nil, nil, ErrBadRuleset
	}
	if rules.AcceptanceThresholdType != models.ThresholdPercentage &&
		rules.AcceptanceThresholdType != models.ThresholdAbsolute {
		return nil, nil, ErrBadThreshold
	}
	for _, l := range lanes {
		if l.BasePrice.LessThanOrEqual(decimal.Zero) || l.TimerDurationSec <= 0 {
			return nil, nil, ErrBadLane
		}
	}

	ruleset := &models.Ruleset{
		ID:                          uuid.NewString(),
		MinBidDecrement:             rules.MinBidDecrement,
		TimerExtensionThresholdSecs: rules.TimerExtensionThresholdSecs,
		TimerExtensionSecs:          rules.TimerExtensionSecs,
		AllowRankVisibility:         rules.AllowRankVisibility,
		AwardGraceSecs:              rules.AwardGraceSecs,
		AcceptanceThresholdType:     rules.AcceptanceThresholdType,
		AcceptanceThresholdValue:    rules.AcceptanceThresholdValue,
	}
	auction := &models.Auction{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Name:      name,
		RulesetID: ruleset.ID,
		CreatedAt: time.Now(),
	}

	tx, err := config.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.store.CreateRuleset(ctx, tx, ruleset); err != nil {
		return nil, nil, err
	}
	if err := s.store.CreateAuction(ctx, tx, auction); err != nil {
		return nil, nil, err
	}

	created := make([]models.Lane, 0, len(lanes))
	for i, l := range lanes {
		lane := models.Lane{
			ID:               uuid.NewString(),
			AuctionID:        auction.ID,
			LaneName:         l.LaneName,
			SequenceOrder:    l.SequenceOrder,
			Status:           models.LanePending,
			BasePrice:        l.BasePrice,
			MinBidDecrement:  rules.MinBidDecrement,
			TimerDurationSec: l.TimerDurationSec,
		}
		if lane.SequenceOrder == 0 {
			lane.SequenceOrder = i + 1
		}
		if err := s.store.CreateLane(ctx, tx, &lane); err != nil {
			return nil, nil, err
		}
		created = append(created, lane)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return auction, created, nil
}

// TriggerSpotReauction creates and immediately starts a short-timer spot lane
// for a lane whose alternate queue failed. The original client, route and
// base price carry over; the timer comes from SPOT_TIMER_SECONDS.
func (s *AuctionService) TriggerSpotReauction(ctx context.Context, laneID string) (*models.Lane, error) {
	queue, err := s.engine.Queue(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if queue == nil || queue.QueueStatus != models.QueueFailed {
		return nil, ErrLaneNotAwarded
	}

	var laneName string
	var basePrice decimal.Decimal
	var clientID, rulesetID string
	err = config.DB.QueryRow(ctx, `
		SELECT l.lane_name, l.base_price, a.client_id, a.ruleset_id
		FROM lanes l JOIN auctions a ON l.auction_id = a.id
		WHERE l.id = $1
	`, laneID).Scan(&laneName, &basePrice, &clientID, &rulesetID)
	if err != nil {
		return nil, err
	}

	spotTimer, _ := strconv.Atoi(config.GetEnv("SPOT_TIMER_SECONDS", "900"))

	auctionID := uuid.NewString()
	tx, err := config.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// The spot lane reuses the original ruleset's decrement.
	var decrement decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT min_bid_decrement FROM rulesets WHERE id = $1`, rulesetID).Scan(&decrement); err != nil {
		return nil, err
	}

	spotAuction := &models.Auction{
		ID:        auctionID,
		ClientID:  clientID,
		Name:      fmt.Sprintf("Spot re-auction %s", laneName),
		RulesetID: rulesetID,
		IsSpot:    true,
	}
	if err := s.store.CreateAuction(ctx, tx, spotAuction); err != nil {
		return nil, err
	}

	spotLane := models.Lane{
		ID:               uuid.NewString(),
		AuctionID:        auctionID,
		LaneName:         laneName + " (spot)",
		SequenceOrder:    1,
		Status:           models.LanePending,
		BasePrice:        basePrice,
		MinBidDecrement:  decrement,
		TimerDurationSec: spotTimer,
	}
	if err := s.store.CreateLane(ctx, tx, &spotLane); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	started, err := s.engine.StartLane(ctx, spotLane.ID)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Emit(models.Event{
			Type:      models.EventSpotTriggered,
			LaneID:    laneID,
			Timestamp: time.Now(),
			Payload:   map[string]interface{}{"spot_lane_id": started.ID, "end_time": started.EndTime},
		})
	}
	log.Printf("⚡ Spot re-auction started for lane %s (spot lane %s)", laneID, started.ID)
	return started, nil
}
