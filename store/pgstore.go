package store

import (
	"context"
	"encoding/json"
	"errors"

	"optimile-backend-go/core/engine"
	"optimile-backend-go/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists engine state in Postgres. The engine serializes writers
// per lane, so statements here run without row locks of their own.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const laneColumns = `id, auction_id, lane_name, sequence_order, status, base_price,
	current_lowest_bid, min_bid_decrement, timer_duration_seconds,
	start_time, end_time, paused_remaining_ms`

func scanLane(row pgx.Row) (*models.Lane, error) {
	var lane models.Lane
	err := row.Scan(
		&lane.ID, &lane.AuctionID, &lane.LaneName, &lane.SequenceOrder, &lane.Status,
		&lane.BasePrice, &lane.CurrentLowestBid, &lane.MinBidDecrement,
		&lane.TimerDurationSec, &lane.StartTime, &lane.EndTime, &lane.PausedRemainingMs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lane, nil
}

func (s *PGStore) Lane(ctx context.Context, id string) (*models.Lane, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+laneColumns+` FROM lanes WHERE id = $1`, id)
	return scanLane(row)
}

func (s *PGStore) SaveLane(ctx context.Context, lane *models.Lane) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE lanes
		SET status = $2, current_lowest_bid = $3, start_time = $4, end_time = $5,
		    paused_remaining_ms = $6, lane_name = $7, base_price = $8, updated_at = NOW()
		WHERE id = $1
	`, lane.ID, lane.Status, lane.CurrentLowestBid, lane.StartTime, lane.EndTime,
		lane.PausedRemainingMs, lane.LaneName, lane.BasePrice)
	return err
}

func (s *PGStore) RulesetForLane(ctx context.Context, laneID string) (*models.Ruleset, error) {
	var r models.Ruleset
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.min_bid_decrement, r.timer_extension_threshold_seconds,
		       r.timer_extension_seconds, r.allow_rank_visibility, r.award_grace_seconds,
		       r.acceptance_threshold_type, r.acceptance_threshold_value
		FROM rulesets r
		JOIN auctions a ON a.ruleset_id = r.id
		JOIN lanes l ON l.auction_id = a.id
		WHERE l.id = $1
	`, laneID).Scan(
		&r.ID, &r.MinBidDecrement, &r.TimerExtensionThresholdSecs, &r.TimerExtensionSecs,
		&r.AllowRankVisibility, &r.AwardGraceSecs,
		&r.AcceptanceThresholdType, &r.AcceptanceThresholdValue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PGStore) AppendBid(ctx context.Context, bid *models.Bid) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bids (id, lane_id, vendor_id, bid_amount, bid_timestamp, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, bid.ID, bid.LaneID, bid.VendorID, bid.BidAmount, bid.BidTimestamp, bid.IsValid)
	return err
}

func (s *PGStore) BidsForLane(ctx context.Context, laneID string) ([]models.Bid, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lane_id, vendor_id, bid_amount, bid_timestamp, is_valid
		FROM bids WHERE lane_id = $1 ORDER BY bid_timestamp ASC
	`, laneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.LaneID, &b.VendorID, &b.BidAmount, &b.BidTimestamp, &b.IsValid); err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

const awardColumns = `id, lane_id, vendor_id, price, rank, awarded_at, awarded_by, status,
	acceptance_deadline, accepted_at, declined_at, decline_reason,
	reawarded_from_award_id, reawarded_to_award_id`

func scanAward(row pgx.Row) (*models.Award, error) {
	var a models.Award
	err := row.Scan(
		&a.ID, &a.LaneID, &a.VendorID, &a.Price, &a.Rank, &a.AwardedAt, &a.AwardedBy,
		&a.Status, &a.AcceptanceDeadline, &a.AcceptedAt, &a.DeclinedAt, &a.DeclineReason,
		&a.ReawardedFromAwardID, &a.ReawardedToAwardID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PGStore) Award(ctx context.Context, id string) (*models.Award, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+awardColumns+` FROM awards WHERE id = $1`, id)
	return scanAward(row)
}

func (s *PGStore) SaveAward(ctx context.Context, award *models.Award) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO awards (id, lane_id, vendor_id, price, rank, awarded_at, awarded_by,
			status, acceptance_deadline, accepted_at, declined_at, decline_reason,
			reawarded_from_award_id, reawarded_to_award_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			accepted_at = EXCLUDED.accepted_at,
			declined_at = EXCLUDED.declined_at,
			decline_reason = EXCLUDED.decline_reason,
			reawarded_to_award_id = EXCLUDED.reawarded_to_award_id
	`, award.ID, award.LaneID, award.VendorID, award.Price, award.Rank, award.AwardedAt,
		award.AwardedBy, award.Status, award.AcceptanceDeadline, award.AcceptedAt,
		award.DeclinedAt, award.DeclineReason, award.ReawardedFromAwardID, award.ReawardedToAwardID)
	return err
}

func (s *PGStore) AwardsForLane(ctx context.Context, laneID string) ([]models.Award, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+awardColumns+` FROM awards WHERE lane_id = $1 ORDER BY awarded_at ASC`, laneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var awards []models.Award
	for rows.Next() {
		a, err := scanAward(rows)
		if err != nil {
			return nil, err
		}
		awards = append(awards, *a)
	}
	return awards, rows.Err()
}

func (s *PGStore) QueueForLane(ctx context.Context, laneID string) (*models.LaneAlternateQueue, error) {
	var q models.LaneAlternateQueue
	var entries, history []byte
	err := s.pool.QueryRow(ctx, `
		SELECT lane_id, winner_bid, calculated_max_bid, queue_status, failure_reason,
		       entries, decline_history, updated_at
		FROM lane_alternate_queues WHERE lane_id = $1
	`, laneID).Scan(&q.LaneID, &q.WinnerBid, &q.CalculatedMaxBid, &q.QueueStatus,
		&q.FailureReason, &entries, &history, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entries, &q.Entries); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &q.DeclineHistory); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *PGStore) SaveQueue(ctx context.Context, queue *models.LaneAlternateQueue) error {
	entries, err := json.Marshal(queue.Entries)
	if err != nil {
		return err
	}
	history, err := json.Marshal(queue.DeclineHistory)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO lane_alternate_queues (lane_id, winner_bid, calculated_max_bid,
			queue_status, failure_reason, entries, decline_history, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (lane_id) DO UPDATE SET
			queue_status = EXCLUDED.queue_status,
			failure_reason = EXCLUDED.failure_reason,
			entries = EXCLUDED.entries,
			decline_history = EXCLUDED.decline_history,
			updated_at = EXCLUDED.updated_at
	`, queue.LaneID, queue.WinnerBid, queue.CalculatedMaxBid, queue.QueueStatus,
		queue.FailureReason, entries, history, queue.UpdatedAt)
	return err
}

// CreateRuleset / CreateAuction / CreateLane back the client create flow; the
// engine itself never creates these rows.

func (s *PGStore) CreateRuleset(ctx context.Context, tx pgx.Tx, r *models.Ruleset) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO rulesets (id, min_bid_decrement, timer_extension_threshold_seconds,
			timer_extension_seconds, allow_rank_visibility, award_grace_seconds,
			acceptance_threshold_type, acceptance_threshold_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.MinBidDecrement, r.TimerExtensionThresholdSecs, r.TimerExtensionSecs,
		r.AllowRankVisibility, r.AwardGraceSecs, r.AcceptanceThresholdType, r.AcceptanceThresholdValue)
	return err
}

func (s *PGStore) CreateAuction(ctx context.Context, tx pgx.Tx, a *models.Auction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO auctions (id, client_id, name, ruleset_id, is_spot)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.ClientID, a.Name, a.RulesetID, a.IsSpot)
	return err
}

func (s *PGStore) CreateLane(ctx context.Context, tx pgx.Tx, lane *models.Lane) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lanes (id, auction_id, lane_name, sequence_order, status, base_price,
			min_bid_decrement, timer_duration_seconds, paused_remaining_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
	`, lane.ID, lane.AuctionID, lane.LaneName, lane.SequenceOrder, lane.Status,
		lane.BasePrice, lane.MinBidDecrement, lane.TimerDurationSec)
	return err
}
