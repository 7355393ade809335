package engine

import (
	"context"
	"time"

	"optimile-backend-go/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeclineAward records a vendor's decline of a pending award and immediately
// walks the alternate queue. It returns the replacement award, or nil with
// ErrQueueExhausted when no remaining candidate clears the acceptance
// threshold (the queue snapshot is persisted FAILED and QUEUE_FAILED is
// emitted so the caller can trigger a spot re-auction).
func (e *AuctionEngine) DeclineAward(ctx context.Context, awardID, reason string) (*models.Award, error) {
	return e.supersedeAward(ctx, awardID, models.AwardDeclined, reason)
}

// ExpireAward is the explicit time-driven transition for an award whose
// acceptance deadline passed without a response. The scheduler feeds it in;
// the engine owns no timer thread.
func (e *AuctionEngine) ExpireAward(ctx context.Context, awardID string) (*models.Award, error) {
	return e.supersedeAward(ctx, awardID, models.AwardExpired, "acceptance deadline passed")
}

func (e *AuctionEngine) supersedeAward(ctx context.Context, awardID, terminalStatus, reason string) (*models.Award, error) {
	award, err := e.store.Award(ctx, awardID)
	if err != nil {
		return nil, err
	}

	lock := e.laneLock(award.LaneID)
	lock.Lock()
	defer lock.Unlock()

	award, err = e.store.Award(ctx, awardID)
	if err != nil {
		return nil, err
	}
	if award.Status != models.AwardPending {
		return nil, ErrAwardNotPending
	}

	now := e.now()
	if terminalStatus == models.AwardExpired && now.Before(award.AcceptanceDeadline) {
		return nil, ErrDeadlineNotReached
	}

	award.Status = terminalStatus
	award.DeclinedAt = &now
	award.DeclineReason = reason
	if err := e.store.SaveAward(ctx, award); err != nil {
		return nil, err
	}

	eventType := models.EventAwardDeclined
	if terminalStatus == models.AwardExpired {
		eventType = models.EventAwardExpired
	}
	e.publish(models.Event{
		Type:      eventType,
		LaneID:    award.LaneID,
		VendorID:  award.VendorID,
		Timestamp: now,
		Payload:   map[string]interface{}{"award_id": award.ID, "reason": reason},
	})

	return e.reassign(ctx, award, now)
}

// reassign rebuilds the ranked candidate list from the ledger, excluding
// every vendor already tried for this lane, and walks it in rank order.
// Candidates over the acceptance threshold are recorded OUT_OF_THRESHOLD and
// skipped, never awarded. Runs under the lane lock held by the caller.
func (e *AuctionEngine) reassign(ctx context.Context, prior *models.Award, now time.Time) (*models.Award, error) {
	laneID := prior.LaneID

	rules, err := e.store.RulesetForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	awards, err := e.store.AwardsForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	bids, err := e.store.BidsForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}

	// The threshold anchors on the original winning bid, not the price of
	// whichever reaward just fell through.
	winnerBid := prior.Price
	for i := range awards {
		if awards[i].ReawardedFromAwardID == nil {
			winnerBid = awards[i].Price
			break
		}
	}
	maxBid := calculatedMaxBid(rules, winnerBid)

	queue, err := e.store.QueueForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		queue = &models.LaneAlternateQueue{
			LaneID:           laneID,
			WinnerBid:        winnerBid,
			CalculatedMaxBid: maxBid,
			QueueStatus:      models.QueueActive,
		}
	}
	queue.DeclineHistory = append(queue.DeclineHistory, models.DeclineRecord{
		VendorID:    prior.VendorID,
		AwardID:     prior.ID,
		Disposition: prior.Status,
		Reason:      prior.DeclineReason,
		RecordedAt:  now,
	})

	// Vendors already tried: every superseded award holder plus every vendor
	// with a recorded disposition in this queue's history.
	exclude := make(map[string]bool)
	for i := range awards {
		if awards[i].Status == models.AwardDeclined || awards[i].Status == models.AwardExpired {
			exclude[awards[i].VendorID] = true
		}
	}
	for _, rec := range queue.DeclineHistory {
		exclude[rec.VendorID] = true
	}

	ranked := rankValidBids(bids, exclude)
	entries := make([]models.AlternateQueueEntry, len(ranked))
	for i, r := range ranked {
		diff := r.BidAmount.Sub(winnerBid)
		entries[i] = models.AlternateQueueEntry{
			Rank:            r.Rank,
			VendorID:        r.VendorID,
			BidID:           r.BidID,
			BidAmount:       r.BidAmount,
			PriceDifference: diff,
			WithinThreshold: r.BidAmount.LessThanOrEqual(maxBid),
			Disposition:     models.QueueEntryPending,
		}
	}
	queue.Entries = entries
	queue.UpdatedAt = now

	for i := range queue.Entries {
		entry := &queue.Entries[i]
		if !entry.WithinThreshold {
			entry.Disposition = models.QueueEntryOutOfThreshold
			queue.DeclineHistory = append(queue.DeclineHistory, models.DeclineRecord{
				VendorID:    entry.VendorID,
				Disposition: models.QueueEntryOutOfThreshold,
				RecordedAt:  now,
			})
			continue
		}

		reaward := &models.Award{
			ID:                   uuid.NewString(),
			LaneID:               laneID,
			VendorID:             entry.VendorID,
			Price:                entry.BidAmount,
			Rank:                 entry.Rank,
			AwardedAt:            now,
			AwardedBy:            "reassignment",
			Status:               models.AwardPending,
			AcceptanceDeadline:   now.Add(time.Duration(rules.AwardGraceSecs) * time.Second),
			ReawardedFromAwardID: &prior.ID,
		}
		if err := e.store.SaveAward(ctx, reaward); err != nil {
			return nil, err
		}
		prior.ReawardedToAwardID = &reaward.ID
		if err := e.store.SaveAward(ctx, prior); err != nil {
			return nil, err
		}

		entry.Disposition = models.QueueEntryAwarded
		queue.QueueStatus = models.QueueActive
		if err := e.store.SaveQueue(ctx, queue); err != nil {
			return nil, err
		}

		e.publish(models.Event{
			Type:      models.EventAwardReassigned,
			LaneID:    laneID,
			VendorID:  reaward.VendorID,
			Timestamp: now,
			Payload: map[string]interface{}{
				"award_id":      reaward.ID,
				"from_award_id": prior.ID,
				"price":         reaward.Price,
				"deadline":      reaward.AcceptanceDeadline,
			},
		})
		return reaward, nil
	}

	queue.QueueStatus = models.QueueFailed
	queue.FailureReason = "no remaining candidate within acceptance threshold"
	if err := e.store.SaveQueue(ctx, queue); err != nil {
		return nil, err
	}

	e.publish(models.Event{
		Type:      models.EventQueueFailed,
		LaneID:    laneID,
		Timestamp: now,
		Payload:   map[string]interface{}{"reason": queue.FailureReason},
	})
	return nil, ErrQueueExhausted
}

// calculatedMaxBid derives the highest acceptable reassignment price from the
// ruleset threshold and the original winning bid.
func calculatedMaxBid(rules *models.Ruleset, winnerBid decimal.Decimal) decimal.Decimal {
	switch rules.AcceptanceThresholdType {
	case models.ThresholdAbsolute:
		return winnerBid.Add(rules.AcceptanceThresholdValue)
	default: // PERCENTAGE
		factor := decimal.NewFromInt(1).Add(rules.AcceptanceThresholdValue.Div(decimal.NewFromInt(100)))
		return winnerBid.Mul(factor)
	}
}

// Queue exposes the lane's alternate queue snapshot for reads; nil when no
// reassignment has run.
func (e *AuctionEngine) Queue(ctx context.Context, laneID string) (*models.LaneAlternateQueue, error) {
	return e.store.QueueForLane(ctx, laneID)
}
