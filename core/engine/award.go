package engine

import (
	"context"
	"time"

	"optimile-backend-go/models"

	"github.com/google/uuid"
)

// AwardLane ranks the closed lane's valid bids and offers the contract to the
// rank-1 vendor with an acceptance deadline from the ruleset grace window.
// The lane moves to AWARDED in the same serialized scope.
func (e *AuctionEngine) AwardLane(ctx context.Context, laneID, awardedBy string) (*models.Award, error) {
	lock := e.laneLock(laneID)
	lock.Lock()
	defer lock.Unlock()

	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LaneClosed {
		return nil, ErrLaneNotClosed
	}

	bids, err := e.store.BidsForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	ranked := rankValidBids(bids, nil)
	if len(ranked) == 0 {
		// The caller decides what to do with a bid-less lane (re-open,
		// cancel, negotiate); the engine only reports the condition.
		return nil, ErrNoValidBids
	}

	rules, err := e.store.RulesetForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	winner := ranked[0]
	award := &models.Award{
		ID:                 uuid.NewString(),
		LaneID:             laneID,
		VendorID:           winner.VendorID,
		Price:              winner.BidAmount,
		Rank:               winner.Rank,
		AwardedAt:          now,
		AwardedBy:          awardedBy,
		Status:             models.AwardPending,
		AcceptanceDeadline: now.Add(time.Duration(rules.AwardGraceSecs) * time.Second),
	}
	if err := e.store.SaveAward(ctx, award); err != nil {
		return nil, err
	}

	lane.Status = models.LaneAwarded
	if err := e.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}

	e.publish(models.Event{
		Type:      models.EventLaneAwarded,
		LaneID:    laneID,
		VendorID:  winner.VendorID,
		Timestamp: now,
		Payload: map[string]interface{}{
			"award_id": award.ID,
			"price":    award.Price,
			"deadline": award.AcceptanceDeadline,
		},
	})
	return award, nil
}

// AcceptAward records the vendor's acceptance of a pending award. Terminal
// fields are stable from this point; any active alternate queue completes.
func (e *AuctionEngine) AcceptAward(ctx context.Context, awardID string) (*models.Award, error) {
	award, err := e.store.Award(ctx, awardID)
	if err != nil {
		return nil, err
	}

	lock := e.laneLock(award.LaneID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent expiry sweep may have moved it.
	award, err = e.store.Award(ctx, awardID)
	if err != nil {
		return nil, err
	}
	if award.Status != models.AwardPending {
		return nil, ErrAwardNotPending
	}

	now := e.now()
	if now.After(award.AcceptanceDeadline) {
		return nil, ErrAwardNotPending
	}

	award.Status = models.AwardAccepted
	award.AcceptedAt = &now
	if err := e.store.SaveAward(ctx, award); err != nil {
		return nil, err
	}

	queue, err := e.store.QueueForLane(ctx, award.LaneID)
	if err != nil {
		return nil, err
	}
	if queue != nil && queue.QueueStatus == models.QueueActive {
		queue.QueueStatus = models.QueueCompleted
		queue.UpdatedAt = now
		for i := range queue.Entries {
			if queue.Entries[i].VendorID == award.VendorID {
				queue.Entries[i].Disposition = models.QueueEntryAwarded
			}
		}
		if err := e.store.SaveQueue(ctx, queue); err != nil {
			return nil, err
		}
	}

	e.publish(models.Event{
		Type:      models.EventAwardAccepted,
		LaneID:    award.LaneID,
		VendorID:  award.VendorID,
		Timestamp: now,
		Payload:   map[string]interface{}{"award_id": award.ID, "price": award.Price},
	})
	return award, nil
}

// AwardChain returns the lane's awards oldest-first following the reaward
// links, for audit reads.
func (e *AuctionEngine) AwardChain(ctx context.Context, laneID string) ([]models.Award, error) {
	awards, err := e.store.AwardsForLane(ctx, laneID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Award, len(awards))
	var root *models.Award
	for i := range awards {
		byID[awards[i].ID] = awards[i]
		if awards[i].ReawardedFromAwardID == nil {
			root = &awards[i]
		}
	}
	if root == nil {
		return awards, nil
	}

	chain := make([]models.Award, 0, len(awards))
	cur := root
	for cur != nil {
		chain = append(chain, *cur)
		if cur.ReawardedToAwardID == nil {
			break
		}
		next, ok := byID[*cur.ReawardedToAwardID]
		if !ok {
			break
		}
		cur = &next
	}
	return chain, nil
}
