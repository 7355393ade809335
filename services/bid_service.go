package services

import (
	"context"
	"errors"
	"log"

	"optimile-backend-go/config"
	"optimile-backend-go/core/engine"
	"optimile-backend-go/models"
	"optimile-backend-go/store"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type BidService struct {
	engine *engine.AuctionEngine
	store  *store.PGStore
}

var ErrRankHidden = errors.New("rank visibility is disabled for this auction")

// PlaceBid runs the bid through the engine, then mirrors the leaderboard into
// Redis after the authoritative state has moved. The mirror is a read cache;
// losing it never loses a bid.
func (s *BidService) PlaceBid(ctx context.Context, laneID, vendorID string, amount decimal.Decimal) (*models.Bid, error) {
	bid, err := s.engine.PlaceBid(ctx, laneID, vendorID, amount)
	if err != nil {
		return nil, err
	}

	score, _ := amount.Float64()
	if err := config.RedisMain.ZAdd(ctx, leaderboardKey(laneID), redis.Z{
		Score:  score,
		Member: vendorID,
	}).Err(); err != nil {
		log.Printf("leaderboard cache update failed for lane %s: %v", laneID, err)
	}

	return bid, nil
}

// VendorRank returns the vendor's 1-based rank, honoring the ruleset's rank
// visibility flag. Rank 0 means no valid bid.
func (s *BidService) VendorRank(ctx context.Context, laneID, vendorID string) (int, error) {
	rules, err := s.store.RulesetForLane(ctx, laneID)
	if err != nil {
		return 0, err
	}
	if !rules.AllowRankVisibility {
		return 0, ErrRankHidden
	}
	return s.engine.VendorRank(ctx, laneID, vendorID)
}

// Leaderboard returns the exact ranked list from the ledger. The Redis sorted
// set is only a broadcast cache; reads that matter come from here.
func (s *BidService) Leaderboard(ctx context.Context, laneID string) ([]models.RankedBid, error) {
	return s.engine.Leaderboard(ctx, laneID)
}

// VendorBids returns a vendor's bid history on a lane, newest first.
func (s *BidService) VendorBids(ctx context.Context, laneID, vendorID string) ([]models.Bid, error) {
	rows, err := config.DB.Query(ctx, `
		SELECT id, lane_id, vendor_id, bid_amount, bid_timestamp, is_valid
		FROM bids WHERE lane_id = $1 AND vendor_id = $2
		ORDER BY bid_timestamp DESC
	`, laneID, vendorID)
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

func leaderboardKey(laneID string) string {
	return "lanebids:" + laneID
}
