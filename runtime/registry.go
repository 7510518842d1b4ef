package runtime

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

type Set map[string]struct{}

// Registry keeps the broadcast groups of this process.
// Groups are created on first join and kept for the process lifetime, even when empty.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	Sessions map[string]contract.Sink // map connection -> Sink
	Groups   map[domain.GroupName]Set // map group to connections
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		Sessions: make(map[string]contract.Sink),
		Groups:   make(map[domain.GroupName]Set),
	}
}

// Join registers the sink and adds it to the group. Joining twice is a no-op.
func (r *Registry) Join(group domain.GroupName, sink contract.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[sink.ID()] = sink
	if _, ok := r.Groups[group]; !ok {
		r.Groups[group] = make(Set)
	}
	r.Groups[group][sink.ID()] = struct{}{}
}

// Leave removes one membership. The session entry goes away with its last group.
func (r *Registry) Leave(group domain.GroupName, sinkID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.Groups[group]; ok {
		delete(members, sinkID)
	}
	if !r.isMemberLocked(sinkID) {
		delete(r.Sessions, sinkID)
	}
}

// LeaveAll drops every membership held by the sink.
func (r *Registry) LeaveAll(sinkID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, members := range r.Groups {
		delete(members, sinkID)
	}
	delete(r.Sessions, sinkID)
}

// GetSinks returns a snapshot of the group members.
func (r *Registry) GetSinks(group domain.GroupName) []contract.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.Groups[group]
	if !ok {
		return nil
	}
	var sinks []contract.Sink
	for id := range members {
		if sink, exists := r.Sessions[id]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Publish delivers the payload to a snapshot of the group taken under the read lock.
// Delivery happens outside the lock; a failing member is logged and skipped.
// Returns the number of members that accepted the payload.
func (r *Registry) Publish(ctx context.Context, group domain.GroupName, payload []byte) int {
	delivered := 0
	for _, sink := range r.GetSinks(group) {
		if err := sink.Consume(ctx, payload); err != nil {
			r.log.Warn("Delivery failed", "group", group, "sink_id", sink.ID(), "error", err)
			continue
		}
		delivered++
	}
	r.log.Debug("Published", "group", group, "delivered", delivered)
	return delivered
}

func (r *Registry) Stats() map[domain.GroupName]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapValues(r.Groups, func(members Set, _ domain.GroupName) int {
		return len(members)
	})
}

func (r *Registry) isMemberLocked(sinkID string) bool {
	return lo.SomeBy(lo.Values(r.Groups), func(members Set) bool {
		_, ok := members[sinkID]
		return ok
	})
}
