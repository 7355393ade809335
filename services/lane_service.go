package services

import (
	"context"
	"errors"
	"time"

	"optimile-backend-go/config"
	"optimile-backend-go/core/engine"
	"optimile-backend-go/models"
	"optimile-backend-go/store"

	"github.com/shopspring/decimal"
)

type LaneService struct {
	engine *engine.AuctionEngine
	store  *store.PGStore
	bus    *EventBus
}

var ErrLaneNotEditable = errors.New("only PENDING lanes can be edited")

// Lifecycle operations delegate to the engine, which owns the per-lane
// serialized scope.

func (s *LaneService) Start(ctx context.Context, laneID string) (*models.Lane, error) {
	return s.engine.StartLane(ctx, laneID)
}

func (s *LaneService) Pause(ctx context.Context, laneID string) (*models.Lane, error) {
	return s.engine.PauseLane(ctx, laneID)
}

func (s *LaneService) Resume(ctx context.Context, laneID string) (*models.Lane, error) {
	return s.engine.ResumeLane(ctx, laneID)
}

func (s *LaneService) Close(ctx context.Context, laneID string) (*models.Lane, error) {
	return s.engine.CloseLane(ctx, laneID)
}

// LaneView is the lane detail payload with derived timer info.
type LaneView struct {
	models.Lane
	TimeRemainingMs int64 `json:"time_remaining_ms"`
}

func (s *LaneService) Get(ctx context.Context, laneID string) (*LaneView, error) {
	lane, err := s.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	remaining, err := s.engine.TimeRemaining(ctx, laneID)
	if err != nil {
		return nil, err
	}
	return &LaneView{Lane: *lane, TimeRemainingMs: remaining.Milliseconds()}, nil
}

// ListByAuction returns an auction's lanes in sequence order.
func (s *LaneService) ListByAuction(ctx context.Context, auctionID string) ([]models.Lane, error) {
	rows, err := config.DB.Query(ctx, `
		SELECT id, auction_id, lane_name, sequence_order, status, base_price,
		       current_lowest_bid, min_bid_decrement, timer_duration_seconds,
		       start_time, end_time, paused_remaining_ms
		FROM lanes WHERE auction_id = $1 ORDER BY sequence_order ASC
	`, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lanes []models.Lane
	for rows.Next() {
		var l models.Lane
		if err := rows.Scan(&l.ID, &l.AuctionID, &l.LaneName, &l.SequenceOrder, &l.Status,
			&l.BasePrice, &l.CurrentLowestBid, &l.MinBidDecrement, &l.TimerDurationSec,
			&l.StartTime, &l.EndTime, &l.PausedRemainingMs); err != nil {
			return nil, err
		}
		lanes = append(lanes, l)
	}
	return lanes, rows.Err()
}

// Typed field updates for draft lanes. Arbitrary field patching by name is
// deliberately not supported.

func (s *LaneService) UpdateBasePrice(ctx context.Context, laneID string, price decimal.Decimal) (*models.Lane, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBadLane
	}
	return s.updatePending(ctx, laneID, func(lane *models.Lane) {
		lane.BasePrice = price
	})
}

func (s *LaneService) UpdateLaneName(ctx context.Context, laneID, name string) (*models.Lane, error) {
	if name == "" {
		return nil, ErrBadLane
	}
	return s.updatePending(ctx, laneID, func(lane *models.Lane) {
		lane.LaneName = name
	})
}

func (s *LaneService) updatePending(ctx context.Context, laneID string, apply func(*models.Lane)) (*models.Lane, error) {
	lane, err := s.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LanePending {
		return nil, ErrLaneNotEditable
	}
	apply(lane)
	if err := s.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}
	return lane, nil
}

// DueRunningLanes lists RUNNING lanes whose timer has run out, for the
// scheduler sweep.
func DueRunningLanes(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := config.DB.Query(ctx, `
		SELECT id FROM lanes WHERE status = $1 AND end_time <= $2
	`, models.LaneRunning, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OverduePendingAwards lists PENDING awards past their acceptance deadline.
func OverduePendingAwards(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := config.DB.Query(ctx, `
		SELECT id FROM awards WHERE status = $1 AND acceptance_deadline <= $2
	`, models.AwardPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
