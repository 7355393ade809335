package services

import (
	"context"
	"errors"
	"log"

	"optimile-backend-go/core/engine"
	"optimile-backend-go/models"
	"optimile-backend-go/store"
)

type AwardService struct {
	engine   *engine.AuctionEngine
	store    *store.PGStore
	auctions *AuctionService
}

var ErrNotAwardVendor = errors.New("award belongs to another vendor")

// Award runs the award computation for a closed lane.
func (s *AwardService) Award(ctx context.Context, laneID, awardedBy string) (*models.Award, error) {
	return s.engine.AwardLane(ctx, laneID, awardedBy)
}

// Accept records the vendor's acceptance. Only the awarded vendor may accept.
func (s *AwardService) Accept(ctx context.Context, awardID, vendorID string) (*models.Award, error) {
	award, err := s.store.Award(ctx, awardID)
	if err != nil {
		return nil, err
	}
	if award.VendorID != vendorID {
		return nil, ErrNotAwardVendor
	}
	return s.engine.AcceptAward(ctx, awardID)
}

// Decline records the vendor's decline and lets the reassignment walk run.
// Queue exhaustion triggers a spot re-auction and is not an error to the
// declining vendor.
func (s *AwardService) Decline(ctx context.Context, awardID, vendorID, reason string) (*models.Award, error) {
	award, err := s.store.Award(ctx, awardID)
	if err != nil {
		return nil, err
	}
	if award.VendorID != vendorID {
		return nil, ErrNotAwardVendor
	}

	next, err := s.engine.DeclineAward(ctx, awardID, reason)
	if errors.Is(err, engine.ErrQueueExhausted) {
		s.escalate(ctx, award.LaneID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Expire feeds the deadline-passed transition in; called by the scheduler.
func (s *AwardService) Expire(ctx context.Context, awardID string) error {
	award, err := s.store.Award(ctx, awardID)
	if err != nil {
		return err
	}

	_, err = s.engine.ExpireAward(ctx, awardID)
	if errors.Is(err, engine.ErrQueueExhausted) {
		s.escalate(ctx, award.LaneID)
		return nil
	}
	return err
}

func (s *AwardService) escalate(ctx context.Context, laneID string) {
	if _, err := s.auctions.TriggerSpotReauction(ctx, laneID); err != nil {
		log.Printf("❌ Spot re-auction trigger failed for lane %s: %v", laneID, err)
	}
}

// Chain returns the lane's award history following the reaward links.
func (s *AwardService) Chain(ctx context.Context, laneID string) ([]models.Award, error) {
	return s.engine.AwardChain(ctx, laneID)
}

// QueueStatus exposes the alternate queue snapshot for a lane.
func (s *AwardService) QueueStatus(ctx context.Context, laneID string) (*models.LaneAlternateQueue, error) {
	return s.engine.Queue(ctx, laneID)
}
