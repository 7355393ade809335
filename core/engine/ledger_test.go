package engine

import (
	"context"
	"testing"
	"time"

	"optimile-backend-go/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestPlaceBid_FirstBidAgainstBasePrice(t *testing.T) {
	eng, store, _, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{basePrice: dec(1000), decrement: dec(10)})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	// Must undercut base by the decrement: 990 is the highest acceptable.
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(991))
	check.True(t, err == ErrBidTooHigh)

	bid, err := eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(990))
	assert.NoError(t, err)
	check.Equal(t, dec(990), bid.BidAmount)
	check.True(t, bid.IsValid)

	got, _ := store.Lane(ctx, lane.ID)
	check.Equal(t, dec(990), *got.CurrentLowestBid)
	check.True(t, rec.has(models.EventBidPlaced))
}

func TestPlaceBid_DecrementInvariantNoMutationOnReject(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{basePrice: dec(1000), decrement: dec(10)})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(990))
	assert.NoError(t, err)

	// 985 does not clear 990 - 10.
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-b", dec(985))
	check.True(t, err == ErrBidTooHigh)

	got, _ := store.Lane(ctx, lane.ID)
	check.Equal(t, dec(990), *got.CurrentLowestBid)
	bids, _ := store.BidsForLane(ctx, lane.ID)
	check.Equal(t, 1, len(bids))
}

func TestPlaceBid_MonotonicLowest(t *testing.T) {
	eng, store, clk, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{basePrice: dec(1000), decrement: dec(10)})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	amounts := []float64{990, 975, 950, 940}
	prev := dec(1001)
	for _, a := range amounts {
		clk.Advance(time.Second)
		_, err := eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(a))
		assert.NoError(t, err)

		got, _ := store.Lane(ctx, lane.ID)
		check.True(t, got.CurrentLowestBid.LessThan(prev))
		prev = *got.CurrentLowestBid
	}
}

func TestPlaceBid_ZeroOrNegativeRejected(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(0))
	check.True(t, err == ErrBidTooHigh)
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(-50))
	check.True(t, err == ErrBidTooHigh)
}

func TestPlaceBid_ExpiredAtSubmission(t *testing.T) {
	eng, store, clk, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 60})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	// Exactly at end time counts as expired; admission and the extension
	// decision share this one timestamp.
	clk.Advance(60 * time.Second)
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(900))
	check.True(t, err == ErrLaneExpired)

	bids, _ := store.BidsForLane(ctx, lane.ID)
	check.Equal(t, 0, len(bids))
}

func TestPlaceBid_DuplicateSubmissionRejected(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{basePrice: dec(1000), decrement: dec(10)})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(950))
	assert.NoError(t, err)

	// Rapid resubmission of the same amount: the first already moved the
	// best price, so the second cannot clear the decrement.
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(950))
	check.True(t, err == ErrBidTooHigh)

	bids, _ := store.BidsForLane(ctx, lane.ID)
	check.Equal(t, 1, len(bids))
}

func TestVendorRank_TieBreakByTimestamp(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	ctx := context.Background()

	// A=100, B=95 (earlier), C=95, D=90 → D:1, B:2, C:3, A:4
	seedBid(t, store, lane.ID, "vendor-a", dec(100), testBase.Add(1*time.Second))
	seedBid(t, store, lane.ID, "vendor-b", dec(95), testBase.Add(2*time.Second))
	seedBid(t, store, lane.ID, "vendor-c", dec(95), testBase.Add(3*time.Second))
	seedBid(t, store, lane.ID, "vendor-d", dec(90), testBase.Add(4*time.Second))

	for vendor, want := range map[string]int{
		"vendor-d": 1,
		"vendor-b": 2,
		"vendor-c": 3,
		"vendor-a": 4,
	} {
		rank, err := eng.VendorRank(ctx, lane.ID, vendor)
		assert.NoError(t, err)
		check.Equal(t, want, rank)
	}

	// No valid bid → rank 0.
	rank, err := eng.VendorRank(ctx, lane.ID, "vendor-x")
	assert.NoError(t, err)
	check.Equal(t, 0, rank)
}

func TestLeaderboard_BestBidPerVendorExcludingInvalid(t *testing.T) {
	eng, store, _, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{})
	ctx := context.Background()

	seedBid(t, store, lane.ID, "vendor-a", dec(500), testBase.Add(1*time.Second))
	seedBid(t, store, lane.ID, "vendor-a", dec(450), testBase.Add(2*time.Second))
	invalid := seedBid(t, store, lane.ID, "vendor-b", dec(100), testBase.Add(3*time.Second))
	seedBid(t, store, lane.ID, "vendor-b", dec(480), testBase.Add(4*time.Second))

	// Retract the 100 bid from ranking; it stays in the ledger for audit.
	bids, _ := store.BidsForLane(ctx, lane.ID)
	for i := range bids {
		if bids[i].ID == invalid.ID {
			bids[i].IsValid = false
		}
	}
	store.bids[lane.ID] = bids

	ranked, err := eng.Leaderboard(ctx, lane.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(ranked))
	check.Equal(t, "vendor-a", ranked[0].VendorID)
	check.Equal(t, dec(450), ranked[0].BidAmount)
	check.Equal(t, 1, ranked[0].Rank)
	check.Equal(t, "vendor-b", ranked[1].VendorID)
	check.Equal(t, dec(480), ranked[1].BidAmount)
	check.Equal(t, 2, ranked[1].Rank)
}
