package engine

import (
	"context"
	"testing"
	"time"

	"optimile-backend-go/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testBase = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock injected into the engine.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *testClock) Set(t time.Time) { c.t = t }

// eventRecorder captures emitted events for assertions.
type eventRecorder struct {
	events []models.Event
}

func (r *eventRecorder) Emit(ev models.Event) { r.events = append(r.events, ev) }

func (r *eventRecorder) types() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *eventRecorder) has(eventType string) bool {
	for _, ev := range r.events {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

func newTestEngine(t *testing.T) (*AuctionEngine, *MemoryStore, *testClock, *eventRecorder) {
	t.Helper()
	store := NewMemoryStore()
	rec := &eventRecorder{}
	clk := &testClock{t: testBase}
	eng := NewEngine(store, rec)
	eng.now = clk.Now
	return eng, store, clk, rec
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

type laneOpts struct {
	basePrice   decimal.Decimal
	decrement   decimal.Decimal
	durationSec int
	rules       *models.Ruleset
}

func defaultRules() *models.Ruleset {
	return &models.Ruleset{
		ID:                          uuid.NewString(),
		MinBidDecrement:             dec(10),
		TimerExtensionThresholdSecs: 10,
		TimerExtensionSecs:          120,
		AllowRankVisibility:         true,
		AwardGraceSecs:              3600,
		AcceptanceThresholdType:     models.ThresholdPercentage,
		AcceptanceThresholdValue:    dec(5),
	}
}

func seedLane(t *testing.T, store *MemoryStore, opts laneOpts) *models.Lane {
	t.Helper()
	if opts.basePrice.IsZero() {
		opts.basePrice = dec(1000)
	}
	if opts.decrement.IsZero() {
		opts.decrement = dec(10)
	}
	if opts.durationSec == 0 {
		opts.durationSec = 600
	}
	if opts.rules == nil {
		opts.rules = defaultRules()
	}
	lane := &models.Lane{
		ID:               uuid.NewString(),
		AuctionID:        uuid.NewString(),
		LaneName:         "BLR-DEL FTL 32ft",
		SequenceOrder:    1,
		Status:           models.LanePending,
		BasePrice:        opts.basePrice,
		MinBidDecrement:  opts.decrement,
		TimerDurationSec: opts.durationSec,
	}
	store.PutLane(lane, opts.rules)
	return lane
}

// seedBid appends a ledger record directly, bypassing admission checks, for
// ranking and reassignment scenarios that need fixed amounts and timestamps.
func seedBid(t *testing.T, store *MemoryStore, laneID, vendorID string, amount decimal.Decimal, ts time.Time) *models.Bid {
	t.Helper()
	bid := &models.Bid{
		ID:           uuid.NewString(),
		LaneID:       laneID,
		VendorID:     vendorID,
		BidAmount:    amount,
		BidTimestamp: ts,
		IsValid:      true,
	}
	if err := store.AppendBid(context.Background(), bid); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	return bid
}

// closeSeededLane force-marks a lane CLOSED for award-stage tests.
func closeSeededLane(t *testing.T, store *MemoryStore, laneID string) {
	t.Helper()
	ctx := context.Background()
	lane, err := store.Lane(ctx, laneID)
	if err != nil {
		t.Fatalf("load lane: %v", err)
	}
	lane.Status = models.LaneClosed
	if err := store.SaveLane(ctx, lane); err != nil {
		t.Fatalf("save lane: %v", err)
	}
}
