package services

import (
	"optimile-backend-go/core/engine"
	"optimile-backend-go/store"
)

var (
	GlobalAuctionService *AuctionService
	GlobalLaneService    *LaneService
	GlobalBidService     *BidService
	GlobalAwardService   *AwardService
	GlobalScheduler      *Scheduler
)

// Init wires the service singletons. The engine and store are injected here
// once at startup; nothing below holds its own ambient auction state.
func Init(eng *engine.AuctionEngine, st *store.PGStore, bus *EventBus) {
	GlobalAuctionService = &AuctionService{engine: eng, store: st, bus: bus}
	GlobalLaneService = &LaneService{engine: eng, store: st, bus: bus}
	GlobalBidService = &BidService{engine: eng, store: st}
	GlobalAwardService = &AwardService{engine: eng, store: st, auctions: GlobalAuctionService}
	GlobalScheduler = &Scheduler{engine: eng, awards: GlobalAwardService}
}
