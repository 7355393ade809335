package engine

import (
	"context"
	"sync"

	"optimile-backend-go/models"
)

// MemoryStore is a map-backed Store used by tests and by spot-auction dry
// runs. Values are copied on the way in and out so callers never alias the
// stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	lanes    map[string]models.Lane
	rulesets map[string]models.Ruleset // keyed by lane id
	bids     map[string][]models.Bid   // keyed by lane id
	awards   map[string]models.Award
	byLane   map[string][]string // lane id -> award ids in creation order
	queues   map[string]models.LaneAlternateQueue
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lanes:    make(map[string]models.Lane),
		rulesets: make(map[string]models.Ruleset),
		bids:     make(map[string][]models.Bid),
		awards:   make(map[string]models.Award),
		byLane:   make(map[string][]string),
		queues:   make(map[string]models.LaneAlternateQueue),
	}
}

// PutLane seeds a lane and its ruleset.
func (s *MemoryStore) PutLane(lane *models.Lane, rules *models.Ruleset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lanes[lane.ID] = *lane
	s.rulesets[lane.ID] = *rules
}

func (s *MemoryStore) Lane(_ context.Context, id string) (*models.Lane, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lane, ok := s.lanes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := lane
	return &out, nil
}

func (s *MemoryStore) SaveLane(_ context.Context, lane *models.Lane) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lanes[lane.ID] = *lane
	return nil
}

func (s *MemoryStore) RulesetForLane(_ context.Context, laneID string) (*models.Ruleset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules, ok := s.rulesets[laneID]
	if !ok {
		return nil, ErrNotFound
	}
	out := rules
	return &out, nil
}

func (s *MemoryStore) AppendBid(_ context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[bid.LaneID] = append(s.bids[bid.LaneID], *bid)
	return nil
}

func (s *MemoryStore) BidsForLane(_ context.Context, laneID string) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Bid, len(s.bids[laneID]))
	copy(out, s.bids[laneID])
	return out, nil
}

func (s *MemoryStore) Award(_ context.Context, id string) (*models.Award, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	award, ok := s.awards[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := award
	return &out, nil
}

func (s *MemoryStore) SaveAward(_ context.Context, award *models.Award) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.awards[award.ID]; !exists {
		s.byLane[award.LaneID] = append(s.byLane[award.LaneID], award.ID)
	}
	s.awards[award.ID] = *award
	return nil
}

func (s *MemoryStore) AwardsForLane(_ context.Context, laneID string) ([]models.Award, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byLane[laneID]
	out := make([]models.Award, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.awards[id])
	}
	return out, nil
}

func (s *MemoryStore) QueueForLane(_ context.Context, laneID string) (*models.LaneAlternateQueue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queue, ok := s.queues[laneID]
	if !ok {
		return nil, nil
	}
	out := queue
	out.Entries = append([]models.AlternateQueueEntry(nil), queue.Entries...)
	out.DeclineHistory = append([]models.DeclineRecord(nil), queue.DeclineHistory...)
	return &out, nil
}

func (s *MemoryStore) SaveQueue(_ context.Context, queue *models.LaneAlternateQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *queue
	stored.Entries = append([]models.AlternateQueueEntry(nil), queue.Entries...)
	stored.DeclineHistory = append([]models.DeclineRecord(nil), queue.DeclineHistory...)
	s.queues[queue.LaneID] = stored
	return nil
}
