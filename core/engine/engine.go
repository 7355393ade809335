package engine

import (
	"context"
	"sync"
	"time"

	"optimile-backend-go/models"
)

// AuctionEngine owns lane lifecycle, bid acceptance, awarding and
// reassignment. All mutating operations on one lane are serialized behind a
// per-lane mutex; different lanes proceed in parallel.
//
// The engine keeps no timers of its own. Clock-driven transitions (lane close
// at end time, award expiry) are fed in by the scheduler as explicit calls.
type AuctionEngine struct {
	store Store
	emit  Emitter

	// Mutex per lane (map[string]*sync.Mutex)
	laneLocks sync.Map

	// Clock hook, swapped for a fixed clock in tests.
	now func() time.Time
}

func NewEngine(store Store, emitter Emitter) *AuctionEngine {
	return &AuctionEngine{
		store: store,
		emit:  emitter,
		now:   time.Now,
	}
}

func (e *AuctionEngine) laneLock(laneID string) *sync.Mutex {
	lock, _ := e.laneLocks.LoadOrStore(laneID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (e *AuctionEngine) publish(ev models.Event) {
	if e.emit != nil {
		e.emit.Emit(ev)
	}
}

// StartLane moves a PENDING lane to RUNNING and arms its timer.
func (e *AuctionEngine) StartLane(ctx context.Context, laneID string) (*models.Lane, error) {
	lock := e.laneLock(laneID)
	lock.Lock()
	defer lock.Unlock()

	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LanePending {
		return nil, ErrInvalidTransition
	}

	now := e.now()
	end := now.Add(time.Duration(lane.TimerDurationSec) * time.Second)
	lane.Status = models.LaneRunning
	lane.StartTime = &now
	lane.EndTime = &end

	if err := e.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}

	e.publish(models.Event{
		Type:      models.EventLaneStarted,
		LaneID:    lane.ID,
		Timestamp: now,
		Payload:   map[string]interface{}{"end_time": end},
	})
	return lane, nil
}

// PauseLane freezes a RUNNING lane, capturing the remaining duration.
func (e *AuctionEngine) PauseLane(ctx context.Context, laneID string) (*models.Lane, error) {
	lock := e.laneLock(laneID)
	lock.Lock()
	defer lock.Unlock()

	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LaneRunning {
		return nil, ErrInvalidTransition
	}

	now := e.now()
	remaining := lane.EndTime.Sub(now)
	if remaining <= 0 {
		// Timer already ran out; the lane should be closed, not paused.
		return nil, ErrLaneExpired
	}

	lane.Status = models.LanePaused
	lane.PausedRemainingMs = remaining.Milliseconds()

	if err := e.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}

	e.publish(models.Event{Type: models.EventLanePaused, LaneID: lane.ID, Timestamp: now})
	return lane, nil
}

// ResumeLane restarts a PAUSED lane, recomputing the end time so the
// remaining duration captured at pause is preserved.
func (e *AuctionEngine) ResumeLane(ctx context.Context, laneID string) (*models.Lane, error) {
	lock := e.laneLock(laneID)
	lock.Lock()
	defer lock.Unlock()

	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LanePaused {
		return nil, ErrInvalidTransition
	}

	now := e.now()
	end := now.Add(time.Duration(lane.PausedRemainingMs) * time.Millisecond)
	lane.Status = models.LaneRunning
	lane.EndTime = &end
	lane.PausedRemainingMs = 0

	if err := e.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}

	e.publish(models.Event{
		Type:      models.EventLaneResumed,
		LaneID:    lane.ID,
		Timestamp: now,
		Payload:   map[string]interface{}{"end_time": end},
	})
	return lane, nil
}

// CloseLane ends bidding on a RUNNING lane. Called by the scheduler when the
// clock passes the lane end time, or by an admin explicitly.
func (e *AuctionEngine) CloseLane(ctx context.Context, laneID string) (*models.Lane, error) {
	lock := e.laneLock(laneID)
	lock.Lock()
	defer lock.Unlock()

	lane, err := e.store.Lane(ctx, laneID)
	if err != nil {
		return nil, err
	}
	if lane.Status != models.LaneRunning {
		return nil, ErrInvalidTransition
	}

	now := e.now()
	lane.Status = models.LaneClosed

	if err := e.store.SaveLane(ctx, lane); err != nil {
		return nil, err
	}

	e.publish(models.Event{Type: models.EventLaneClosed, LaneID: lane.ID, Timestamp: now})
	return lane, nil
}
