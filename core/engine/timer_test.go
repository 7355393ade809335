package engine

import (
	"context"
	"testing"
	"time"

	"optimile-backend-go/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestMaybeExtend(t *testing.T) {
	rules := defaultRules() // threshold 10s, extension 120s
	end := testBase.Add(600 * time.Second)

	// Bid well before the window: end time untouched.
	got, extended := maybeExtend(end, rules, end.Add(-15*time.Second))
	check.False(t, extended)
	check.Equal(t, end, got)

	// Bid inside the window: timer restarts from the bid timestamp.
	bidAt := end.Add(-5 * time.Second)
	got, extended = maybeExtend(end, rules, bidAt)
	check.True(t, extended)
	check.Equal(t, bidAt.Add(120*time.Second), got)

	// Exactly on the threshold boundary still extends.
	bidAt = end.Add(-10 * time.Second)
	got, extended = maybeExtend(end, rules, bidAt)
	check.True(t, extended)
	check.Equal(t, bidAt.Add(120*time.Second), got)
}

func TestPlaceBid_ExtendsNearClose(t *testing.T) {
	eng, store, clk, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 600})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	// 595s in, 5s left: inside the 10s threshold.
	clk.Advance(595 * time.Second)
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(900))
	assert.NoError(t, err)

	got, _ := store.Lane(ctx, lane.ID)
	check.Equal(t, clk.Now().Add(120*time.Second), *got.EndTime)
	check.True(t, rec.has(models.EventTimerExtended))

	// The lane accepts bids again well past the original end time.
	clk.Advance(60 * time.Second)
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-b", dec(880))
	assert.NoError(t, err)
}

func TestPlaceBid_NoExtensionOutsideWindow(t *testing.T) {
	eng, store, clk, rec := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 600})
	ctx := context.Background()

	started, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)
	originalEnd := *started.EndTime

	clk.Advance(100 * time.Second)
	_, err = eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(900))
	assert.NoError(t, err)

	got, _ := store.Lane(ctx, lane.ID)
	check.Equal(t, originalEnd, *got.EndTime)
	check.False(t, rec.has(models.EventTimerExtended))
}

func TestPlaceBid_RepeatedExtensionsUnbounded(t *testing.T) {
	eng, store, clk, _ := newTestEngine(t)
	lane := seedLane(t, store, laneOpts{durationSec: 600})
	ctx := context.Background()

	_, err := eng.StartLane(ctx, lane.ID)
	assert.NoError(t, err)

	// A bidding war inside the closing window keeps pushing the end out.
	clk.Advance(595 * time.Second)
	price := 900.0
	for i := 0; i < 5; i++ {
		_, err := eng.PlaceBid(ctx, lane.ID, "vendor-a", dec(price))
		assert.NoError(t, err)

		got, _ := store.Lane(ctx, lane.ID)
		check.Equal(t, clk.Now().Add(120*time.Second), *got.EndTime)

		// Jump back into the next window.
		clk.Advance(115 * time.Second)
		price -= 20
	}
}
