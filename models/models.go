package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Models matching the DB schema (db/schema.sql)

// User represents the users table. Role is CLIENT, VENDOR or ADMIN.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Ruleset is the immutable bidding configuration attached to an auction.
// Once referenced by an auction it is never mutated, only replaced.
type Ruleset struct {
	ID                          string          `json:"id" db:"id"`
	MinBidDecrement             decimal.Decimal `json:"min_bid_decrement" db:"min_bid_decrement"`
	TimerExtensionThresholdSecs int             `json:"timer_extension_threshold_seconds" db:"timer_extension_threshold_seconds"`
	TimerExtensionSecs          int             `json:"timer_extension_seconds" db:"timer_extension_seconds"`
	AllowRankVisibility         bool            `json:"allow_rank_visibility" db:"allow_rank_visibility"`
	AwardGraceSecs              int             `json:"award_grace_seconds" db:"award_grace_seconds"`
	AcceptanceThresholdType     string          `json:"acceptance_threshold_type" db:"acceptance_threshold_type"` // PERCENTAGE | ABSOLUTE
	AcceptanceThresholdValue    decimal.Decimal `json:"acceptance_threshold_value" db:"acceptance_threshold_value"`
}

// Auction groups lanes posted together by a client under one ruleset.
type Auction struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	Name      string    `json:"name" db:"name"`
	RulesetID string    `json:"ruleset_id" db:"ruleset_id"`
	IsSpot    bool      `json:"is_spot" db:"is_spot"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Lane lifecycle states.
const (
	LanePending = "PENDING"
	LaneRunning = "RUNNING"
	LanePaused  = "PAUSED"
	LaneClosed  = "CLOSED"
	LaneAwarded = "AWARDED"
)

// Lane represents one origin-destination route under auction.
// Decrement and timer duration are denormalized from the create request so a
// running lane never depends on a mutable parent row.
type Lane struct {
	ID               string           `json:"id" db:"id"`
	AuctionID        string           `json:"auction_id" db:"auction_id"`
	LaneName         string           `json:"lane_name" db:"lane_name"`
	SequenceOrder    int              `json:"sequence_order" db:"sequence_order"`
	Status           string           `json:"status" db:"status"`
	BasePrice        decimal.Decimal  `json:"base_price" db:"base_price"`
	CurrentLowestBid *decimal.Decimal `json:"current_lowest_bid,omitempty" db:"current_lowest_bid"`
	MinBidDecrement  decimal.Decimal  `json:"min_bid_decrement" db:"min_bid_decrement"`
	TimerDurationSec int              `json:"timer_duration_seconds" db:"timer_duration_seconds"`
	StartTime        *time.Time       `json:"start_time,omitempty" db:"start_time"`
	EndTime          *time.Time       `json:"end_time,omitempty" db:"end_time"`
	// Remaining milliseconds captured on pause, consumed on resume.
	PausedRemainingMs int64 `json:"-" db:"paused_remaining_ms"`
}

// Bid is an append-only ledger record. Invalid bids are kept for audit and
// excluded from ranking.
type Bid struct {
	ID           string          `json:"id" db:"id"`
	LaneID       string          `json:"lane_id" db:"lane_id"`
	VendorID     string          `json:"vendor_id" db:"vendor_id"`
	BidAmount    decimal.Decimal `json:"bid_amount" db:"bid_amount"`
	BidTimestamp time.Time       `json:"bid_timestamp" db:"bid_timestamp"`
	IsValid      bool            `json:"is_valid" db:"is_valid"`
}

// Award acceptance states.
const (
	AwardPending  = "PENDING"
	AwardAccepted = "ACCEPTED"
	AwardDeclined = "DECLINED"
	AwardExpired  = "EXPIRED"
)

// Award is the offer of a lane contract to a ranked vendor. At most one award
// per lane is PENDING at any instant; superseded awards stay linked through
// the reaward chain.
type Award struct {
	ID                   string          `json:"id" db:"id"`
	LaneID               string          `json:"lane_id" db:"lane_id"`
	VendorID             string          `json:"vendor_id" db:"vendor_id"`
	Price                decimal.Decimal `json:"price" db:"price"`
	Rank                 int             `json:"rank" db:"rank"`
	AwardedAt            time.Time       `json:"awarded_at" db:"awarded_at"`
	AwardedBy            string          `json:"awarded_by" db:"awarded_by"`
	Status               string          `json:"status" db:"status"`
	AcceptanceDeadline   time.Time       `json:"acceptance_deadline" db:"acceptance_deadline"`
	AcceptedAt           *time.Time      `json:"accepted_at,omitempty" db:"accepted_at"`
	DeclinedAt           *time.Time      `json:"declined_at,omitempty" db:"declined_at"`
	DeclineReason        string          `json:"decline_reason,omitempty" db:"decline_reason"`
	ReawardedFromAwardID *string         `json:"reawarded_from_award_id,omitempty" db:"reawarded_from_award_id"`
	ReawardedToAwardID   *string         `json:"reawarded_to_award_id,omitempty" db:"reawarded_to_award_id"`
}

// Alternate queue entry dispositions.
const (
	QueueEntryPending        = "PENDING"
	QueueEntryAwarded        = "AWARDED"
	QueueEntryDeclined       = "DECLINED"
	QueueEntryOutOfThreshold = "OUT_OF_THRESHOLD"
	QueueEntrySkipped        = "SKIPPED"
)

// Alternate queue states.
const (
	QueueActive    = "ACTIVE"
	QueueCompleted = "COMPLETED"
	QueueFailed    = "FAILED"
)

// Acceptance threshold types for reassignment.
const (
	ThresholdPercentage = "PERCENTAGE"
	ThresholdAbsolute   = "ABSOLUTE"
)

// AlternateQueueEntry is one ranked fallback candidate. WithinThreshold is a
// pure function of the acceptance threshold and the price difference from the
// original winning bid.
type AlternateQueueEntry struct {
	Rank            int             `json:"rank"`
	VendorID        string          `json:"vendor_id"`
	BidID           string          `json:"bid_id"`
	BidAmount       decimal.Decimal `json:"bid_amount"`
	PriceDifference decimal.Decimal `json:"price_difference"`
	WithinThreshold bool            `json:"within_threshold"`
	Disposition     string          `json:"disposition"`
}

// DeclineRecord is one audit entry in a queue's decline history.
type DeclineRecord struct {
	VendorID    string    `json:"vendor_id"`
	AwardID     string    `json:"award_id,omitempty"`
	Disposition string    `json:"disposition"`
	Reason      string    `json:"reason,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// LaneAlternateQueue is the reassignment state for one lane. Entries are
// sorted ascending by bid amount; the queue is recomputed from the ledger
// plus award history and persisted as a snapshot once terminal.
type LaneAlternateQueue struct {
	LaneID           string                `json:"lane_id"`
	WinnerBid        decimal.Decimal       `json:"winner_bid"`
	CalculatedMaxBid decimal.Decimal       `json:"calculated_max_bid"`
	QueueStatus      string                `json:"queue_status"`
	FailureReason    string                `json:"failure_reason,omitempty"`
	Entries          []AlternateQueueEntry `json:"entries"`
	DeclineHistory   []DeclineRecord       `json:"decline_history"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// RankedBid is one row of a lane leaderboard: each vendor's best valid bid,
// ascending by amount, ties broken by earliest timestamp.
type RankedBid struct {
	Rank         int             `json:"rank"`
	VendorID     string          `json:"vendor_id"`
	BidID        string          `json:"bid_id"`
	BidAmount    decimal.Decimal `json:"bid_amount"`
	BidTimestamp time.Time       `json:"bid_timestamp"`
}
