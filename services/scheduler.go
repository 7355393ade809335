package services

import (
	"context"
	"errors"
	"log"
	"time"

	"optimile-backend-go/core/engine"
)

// Scheduler is the external clock of the engine: it compares wall time to
// lane end times and award deadlines and feeds the resulting transitions in
// as explicit calls. Wired to cron in main.
type Scheduler struct {
	engine *engine.AuctionEngine
	awards *AwardService
}

// Sweep closes due lanes (auto-awarding them) and expires overdue awards.
func (s *Scheduler) Sweep() {
	ctx := context.Background()
	now := time.Now()
	s.sweepDueLanes(ctx, now)
	s.sweepOverdueAwards(ctx, now)
}

func (s *Scheduler) sweepDueLanes(ctx context.Context, now time.Time) {
	laneIDs, err := DueRunningLanes(ctx, now)
	if err != nil {
		log.Printf("❌ Due-lane sweep query failed: %v", err)
		return
	}

	for _, laneID := range laneIDs {
		if _, err := s.engine.CloseLane(ctx, laneID); err != nil {
			// A concurrent admin close or a late extension can race the
			// sweep; both leave the lane in a consistent state.
			if !errors.Is(err, engine.ErrInvalidTransition) {
				log.Printf("❌ Lane %s close failed: %v", laneID, err)
			}
			continue
		}

		if _, err := s.engine.AwardLane(ctx, laneID, "scheduler"); err != nil {
			if errors.Is(err, engine.ErrNoValidBids) {
				// Escalation for bid-less lanes is a client decision
				// (re-open, cancel, negotiate); the lane stays CLOSED.
				log.Printf("⚠️ Lane %s closed with no valid bids", laneID)
				continue
			}
			log.Printf("❌ Lane %s award failed: %v", laneID, err)
		}
	}
}

func (s *Scheduler) sweepOverdueAwards(ctx context.Context, now time.Time) {
	awardIDs, err := OverduePendingAwards(ctx, now)
	if err != nil {
		log.Printf("❌ Overdue-award sweep query failed: %v", err)
		return
	}

	for _, awardID := range awardIDs {
		if err := s.awards.Expire(ctx, awardID); err != nil {
			if errors.Is(err, engine.ErrAwardNotPending) {
				// Vendor accepted or declined between query and expiry.
				continue
			}
			log.Printf("❌ Award %s expiry failed: %v", awardID, err)
		}
	}
}
