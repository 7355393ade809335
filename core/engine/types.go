package engine

import (
	"context"
	"errors"

	"optimile-backend-go/models"
)

// Failure signals returned by engine operations. Callers branch with
// errors.Is; handlers map them to 4xx responses.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidTransition  = errors.New("invalid lane state transition")
	ErrLaneNotOpen        = errors.New("lane is not open for bidding")
	ErrLaneExpired        = errors.New("lane bidding window has expired")
	ErrBidTooHigh         = errors.New("bid does not beat current best by the minimum decrement")
	ErrLaneNotClosed      = errors.New("lane must be closed before awarding")
	ErrNoValidBids        = errors.New("lane has no valid bids")
	ErrAwardNotPending    = errors.New("award is not pending")
	ErrDeadlineNotReached = errors.New("acceptance deadline has not passed")
	ErrQueueExhausted     = errors.New("alternate queue exhausted with no awardable candidate")
)

// Store is the persistence boundary of the engine. Implementations do not
// need to serialize access: the engine holds a per-lane lock around every
// read-validate-write cycle.
type Store interface {
	Lane(ctx context.Context, id string) (*models.Lane, error)
	SaveLane(ctx context.Context, lane *models.Lane) error

	// RulesetForLane resolves the ruleset of the lane's auction.
	RulesetForLane(ctx context.Context, laneID string) (*models.Ruleset, error)

	AppendBid(ctx context.Context, bid *models.Bid) error
	BidsForLane(ctx context.Context, laneID string) ([]models.Bid, error)

	Award(ctx context.Context, id string) (*models.Award, error)
	SaveAward(ctx context.Context, award *models.Award) error
	AwardsForLane(ctx context.Context, laneID string) ([]models.Award, error)

	// QueueForLane returns (nil, nil) when no queue snapshot exists yet.
	QueueForLane(ctx context.Context, laneID string) (*models.LaneAlternateQueue, error)
	SaveQueue(ctx context.Context, queue *models.LaneAlternateQueue) error
}

// Emitter receives structured events on every engine mutation. Delivery and
// rendering are the dispatch layer's problem.
type Emitter interface {
	Emit(event models.Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event models.Event)

func (f EmitterFunc) Emit(event models.Event) { f(event) }
