package engine

import (
	"context"
	"testing"
	"time"

	"optimile-backend-go/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestAwardLane_RequiresClosedLane(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	ctx := context.Background()

	_, err := eng.AwardLane(ctx, lane.ID, "scheduler")
	check.True(t, err == ErrLaneNotClosed)

	_, err = eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)
	_, err = eng.AwardLane(ctx, lane.ID, "scheduler")
	check.True(t, err == ErrLaneNotClosed)
}

func TestAwardLane_NoValidBids(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	closeSeededLane(t, store, lane.ID)
	ctx := context.Background()

	_, err := eng.AwardLane(ctx, lane.ID, "scheduler")
	check.True(t, err == ErrNoValidBids)

	// The lane stays CLOSED for the operator to decide what happens next.
	got, _ := store.Lane(ctx, lane.ID)
	check.Equal(t, models.LaneClosed, got.Status)
}

func TestAwardLane_OffersToLowestBidder(t *testing.T) {
	eng, store, clk, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	seedBid(t, store, lane.ID, "vendor-a", dec(1000), testBase.Add(1*time.Second))
	seedBid(t, store, lane.ID, "vendor-b", dec(950), testBase.Add(2*time.Second))
	seedBid(t, store, lane.ID, "vendor-c", dec(980), testBase.Add(3*time.Second))
	closeSeededLane(t, store, lane.ID)
	ctx := context.Background()

	clk.Advance(10 * time.Minute)
	award, err := eng.AwardLane(ctx, lane.ID, "scheduler")
	assert.NoError(t, err)
	check.Equal(t, "vendor-b", award.VendorID)
	check.Equal(t, dec(950), award.Price)
	check.Equal(t, 1, award.Rank)
	check.Equal(t, models.AwardPending, award.Status)
	check.Equal(t, clk.Now().Add(3600*time.Second), award.AcceptanceDeadline)

	got, _ := store.Lane(ctx, lane.ID)
	check.Equal(t, models.LaneAwarded, got.Status)
	check.True(t, rec.has(models.EventLaneAwarded))

	// An AWARDED lane cannot be awarded a second time.
	_, err = eng.AwardLane(ctx, lane.ID, "scheduler")
	check.True(t, err == ErrLaneNotClosed)
}

func TestAcceptAward(t *testing.T) {
	eng, store, clk, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	seedBid(t, store, lane.ID, "vendor-a", dec(900), testBase.Add(1*time.Second))
	closeSeededLane(t, store, lane.ID)
	ctx := context.Background()

	award, err := eng.AwardLane(ctx, lane.ID, "scheduler")
	assert.NoError(t, err)

	clk.Advance(5 * time.Minute)
	accepted, err := eng.AcceptAward(ctx, award.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AwardAccepted, accepted.Status)
	assert.True(t, accepted.AcceptedAt != nil)
	check.Equal(t, clk.Now(), *accepted.AcceptedAt)
	check.True(t, rec.has(models.EventAwardAccepted))

	// Acceptance is terminal.
	_, err = eng.AcceptAward(ctx, award.ID)
	check.True(t, err == ErrAwardNotPending)
	_, err = eng.DeclineAward(ctx, award.ID, "changed my mind")
	check.True(t, err == ErrAwardNotPending)
}

func TestAcceptAward_AfterDeadlineRejected(t *testing.T) {
	eng, store, clk, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	seedBid(t, store, lane.ID, "vendor-a", dec(900), testBase.Add(1*time.Second))
	closeSeededLane(t, store, lane.ID)
	ctx := context.Background()

	award, err := eng.AwardLane(ctx, lane.ID, "scheduler")
	assert.NoError(t, err)

	// Grace window is 3600s; one second past it is too late.
	clk.Advance(3601 * time.Second)
	_, err = eng.AcceptAward(ctx, award.ID)
	check.True(t, err == ErrAwardNotPending)
}

func TestAwardChain_FollowsReawardLinks(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	seedBid(t, store, lane.ID, "vendor-a", dec(900), testBase.Add(1*time.Second))
	seedBid(t, store, lane.ID, "vendor-b", dec(910), testBase.Add(2*time.Second))
	seedBid(t, store, lane.ID, "vendor-c", dec(920), testBase.Add(3*time.Second))
	closeSeededLane(t, store, lane.ID)
	ctx := context.Background()

	first, err := eng.AwardLane(ctx, lane.ID, "scheduler")
	assert.NoError(t, err)
	second, err := eng.DeclineAward(ctx, first.ID, "truck unavailable")
	assert.NoError(t, err)
	third, err := eng.DeclineAward(ctx, second.ID, "rate too low")
	assert.NoError(t, err)

	chain, err := eng.AwardChain(ctx, lane.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(chain))
	check.Equal(t, first.ID, chain[0].ID)
	check.Equal(t, second.ID, chain[1].ID)
	check.Equal(t, third.ID, chain[2].ID)
	check.Equal(t, "vendor-a", chain[0].VendorID)
	check.Equal(t, "vendor-b", chain[1].VendorID)
	check.Equal(t, "vendor-c", chain[2].VendorID)
}
