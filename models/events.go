package models

import "time"

// Event types emitted by the auction engine. The dispatch layer renders and
// delivers them; the engine only triggers.
const (
	EventLaneStarted     = "LANE_STARTED"
	EventLanePaused      = "LANE_PAUSED"
	EventLaneResumed     = "LANE_RESUMED"
	EventLaneClosed      = "LANE_CLOSED"
	EventBidPlaced       = "BID_PLACED"
	EventTimerExtended   = "TIMER_EXTENDED"
	EventLaneAwarded     = "LANE_AWARDED"
	EventAwardAccepted   = "AWARD_ACCEPTED"
	EventAwardDeclined   = "AWARD_DECLINED"
	EventAwardExpired    = "AWARD_EXPIRED"
	EventAwardReassigned = "AWARD_REASSIGNED"
	EventQueueFailed     = "QUEUE_FAILED"
	EventSpotTriggered   = "SPOT_TRIGGERED"
)

// Event is the structured notification payload published on every engine
// mutation. VendorID is set when the event targets a specific vendor.
type Event struct {
	Type      string                 `json:"type"`
	LaneID    string                 `json:"lane_id"`
	VendorID  string                 `json:"vendor_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}
