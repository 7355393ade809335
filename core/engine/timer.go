package engine

import (
	"time"

	"optimile-backend-go/models"
)

// maybeExtend applies the anti-sniping rule: when a bid lands within the
// extension threshold of the lane end time, the timer restarts from the bid
// timestamp. The timestamp must be the same one used to admit the bid; a
// second clock read here would race the admission check.
//
// Extensions are unbounded per lane.
func maybeExtend(endTime time.Time, rules *models.Ruleset, bidTime time.Time) (time.Time, bool) {
	threshold := time.Duration(rules.TimerExtensionThresholdSecs) * time.Second
	if endTime.Sub(bidTime) <= threshold {
		return bidTime.Add(time.Duration(rules.TimerExtensionSecs) * time.Second), true
	}
	return endTime, false
}
