package engine

import (
	"context"
	"testing"
	"time"

	"optimile-backend-go/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestStartLane_ArmsTimer(t *testing.T) {
	eng, store, _, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 600})

	started, err := eng.StartLane(context.Background(), lane.ID)
	assert.NoError(t, err)

	check.Equal(t, models.LaneRunning, started.Status)
	check.Equal(t, testBase, *started.StartTime)
	check.Equal(t, testBase.Add(600*time.Second), *started.EndTime)
	check.True(t, rec.has(models.EventLaneStarted))
}

func TestStartLane_OnlyFromPending(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	_, err = eng.StartLane(ctx, lane.ID)
	check.Error(t, err)
	check.True(t, err == ErrInvalidTransition)
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	eng, store, clk, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 120})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	clk.Advance(40 * time.Second)
	paused, err := eng.PauseLane(ctx, lane.ID)
	assert.NoError(t, err)
	check.Equal(t, models.LanePaused, paused.Status)
	check.Equal(t, int64(80_000), paused.PausedRemainingMs)

	// A long pause must not eat into the remaining window.
	clk.Advance(2 * time.Hour)
	resumed, err := eng.ResumeLane(ctx, lane.ID)
	assert.NoError(t, err)
	check.Equal(t, models.LaneRunning, resumed.Status)
	check.Equal(t, clk.Now().Add(80*time.Second), *resumed.EndTime)
	check.Equal(t, int64(0), resumed.PausedRemainingMs)
	check.True(t, rec.has(models.EventLanePaused))
	check.True(t, rec.has(models.EventLaneResumed))
}

func TestPauseLane_AfterExpiryRejected(t *testing.T) {
	eng, store, clk, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 60})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	clk.Advance(61 * time.Second)
	_, err = eng.PauseLane(ctx, lane.ID)
	check.True(t, err == ErrLaneExpired)
}

func TestCloseLane_OnlyFromRunning(t *testing.T) {
	eng, store, _, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	ctx := context.Background()

	_, err := eng.CloseLane(ctx, lane.ID)
	check.True(t, err == ErrInvalidTransition)

	_, err = eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	closed, err := eng.CloseLane(ctx, lane.ID)
	assert.NoError(t, err)
	check.Equal(t, models.LaneClosed, closed.Status)
	check.True(t, rec.has(models.EventLaneClosed))

	// No second close, no reopening.
	_, err = eng.CloseLane(ctx, lane.ID)
	check.True(t, err == ErrInvalidTransition)
	_, err = eng.StartLane(ctx, lane.ID)
	check.True(t, err == ErrInvalidTransition)
}

func TestPlaceBid_TerminalStatesRejected(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	closed := seedLane(t, store, laneOpts{})
	closeSeededLane(t, store, closed.ID)
	_, err := eng.PlaceBid(ctx, closed.ID, "vendor-a", dec(500))
	check.True(t, err == ErrLaneNotOpen)

	awarded := seedLane(t, store, laneOpts{})
	lane, _ := store.Lane(ctx, awarded.ID)
	lane.Status = models.LaneAwarded
	assert.NoError(t, store.SaveLane(ctx, lane))
	_, err = eng.PlaceBid(ctx, awarded.ID, "vendor-a", dec(500))
	check.True(t, err == ErrLaneNotOpen)
}
