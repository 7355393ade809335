package engine

import (
	"context"
	"sort"
	"time"

	"optimile-backend-go/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceBid validates and records a vendor bid against a RUNNING lane.
// Admission check, decrement check, ledger append, lowest-bid update and the
// extension decision all happen under the lane lock with one captured
// timestamp, so no partial update is ever visible to concurrent bidders.
func (e *AuctionEngine) PlaceBid(ctx context.Context, laneID, vendorID string, amount decimal.Decimal) (*models.Bid, error) {
	lock := e.laneLock(laneID)
	lock.Lock()
	defer lock.Unlock()

	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LaneRunning {
		return nil, ErrLaneNotOpen
	}

	now := e.now()
	if !now.Before(*lane.EndTime) {
		return nil, ErrLaneExpired
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBidTooHigh
	}
	currentBest := lane.BasePrice
	if lane.CurrentLowestBid != nil {
		currentBest = *lane.CurrentLowestBid
	}
	if amount.GreaterThan(currentBest.Sub(lane.MinBidDecrement)) {
		return nil, ErrBidTooHigh
	}

	rules, err := e.store.RulesetForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}

	bid := &models.Bid{
		ID:           uuid.NewString(),
		LaneID:       laneID,
		VendorID:     vendorID,
		BidAmount:    amount,
		BidTimestamp: now,
		IsValid:      true,
	}
	if err := e.store.AppendBid(ctx, bid); err != nil {
		return nil, err
	}

	lowest := amount
	lane.CurrentLowestBid = &lowest

	newEnd, extended := maybeExtend(*lane.EndTime, rules, now)
	if extended {
		lane.EndTime = &newEnd
	}

	if err := e.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}

	e.publish(models.Event{
		Type:      models.EventBidPlaced,
		LaneID:    laneID,
		VendorID:  vendorID,
		Timestamp: now,
		Payload:   map[string]interface{}{"bid_id": bid.ID, "amount": amount},
	})
	if extended {
		e.publish(models.Event{
			Type:      models.EventTimerExtended,
			LaneID:    laneID,
			Timestamp: now,
			Payload:   map[string]interface{}{"end_time": newEnd},
		})
	}

	return bid, nil
}

// VendorRank returns the 1-based rank of the vendor's best valid bid among
// all vendors' best bids, or 0 if the vendor has no valid bid on the lane.
func (e *AuctionEngine) VendorRank(ctx context.Context, laneID, vendorID string) (int, error) {
	ranked, err := e.Leaderboard(ctx, laneID)
	if err != nil {
		return 0, err
	}
	for _, r := range ranked {
		if r.VendorID == vendorID {
			return r.Rank, nil
		}
	}
	return 0, nil
}

// Leaderboard returns the full ranked list of best valid bids per vendor.
func (e *AuctionEngine) Leaderboard(ctx context.Context, laneID string) ([]models.RankedBid, error) {
	bids, err := e.store.BidsForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	return rankValidBids(bids, nil), nil
}

// rankValidBids reduces a bid ledger to each vendor's best valid bid and
// ranks ascending by amount, ties broken by earliest timestamp. Vendors in
// the exclude set are dropped before ranking (used by the reassignment walk).
func rankValidBids(bids []models.Bid, exclude map[string]bool) []models.RankedBid {
	best := make(map[string]models.Bid)
	for _, b := range bids {
		if !b.IsValid || exclude[b.VendorID] {
			continue
		}
		cur, ok := best[b.VendorID]
		if !ok || betterBid(b, cur) {
			best[b.VendorID] = b
		}
	}

	ranked := make([]models.RankedBid, 0, len(best))
	for _, b := range best {
		ranked = append(ranked, models.RankedBid{
			VendorID:     b.VendorID,
			BidID:        b.ID,
			BidAmount:    b.BidAmount,
			BidTimestamp: b.BidTimestamp,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].BidAmount.Equal(ranked[j].BidAmount) {
			return ranked[i].BidAmount.LessThan(ranked[j].BidAmount)
		}
		if !ranked[i].BidTimestamp.Equal(ranked[j].BidTimestamp) {
			return ranked[i].BidTimestamp.Before(ranked[j].BidTimestamp)
		}
		return ranked[i].BidID < ranked[j].BidID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func betterBid(a, b models.Bid) bool {
	if !a.BidAmount.Equal(b.BidAmount) {
		return a.BidAmount.LessThan(b.BidAmount)
	}
	return a.BidTimestamp.Before(b.BidTimestamp)
}

// laneTimeRemaining is a read helper for API responses.
func laneTimeRemaining(lane *models.Lane, now time.Time) time.Duration {
	switch lane.Status {
	case models.LanePaused:
		return time.Duration(lane.PausedRemainingMs) * time.Millisecond
	case models.LaneRunning:
		if lane.EndTime == nil {
			return 0
		}
		if rem := lane.EndTime.Sub(now); rem > 0 {
			return rem
		}
	}
	return 0
}

// TimeRemaining reports how much bidding time a lane has left.
func (e *AuctionEngine) TimeRemaining(ctx context.Context, laneID string) (time.Duration, error) {
	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return 0, err
	}
	return laneTimeRemaining(lane, e.now()), nil
}
