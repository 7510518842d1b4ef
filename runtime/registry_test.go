package runtime

import (
	"context"
	"crm-realtime/domain"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	id  string
	err error

	mu       sync.Mutex
	received [][]byte
}

func newSink(err error) *Sink {
	return &Sink{id: uuid.NewString(), err: err}
}

func (s *Sink) ID() string { return s.id }

func (s *Sink) Consume(_ context.Context, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, payload)
	return nil
}

func (s *Sink) Received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	sink := newSink(nil)

	// Given no connection
	req.Empty(registry.Sessions)
	req.Empty(registry.Groups)

	// When the same sink joins twice
	registry.Join(domain.CommentsGroup, sink)
	registry.Join(domain.CommentsGroup, sink)

	// Then it is a single member
	req.Len(registry.Sessions, 1)
	req.Len(registry.Groups[domain.CommentsGroup], 1)
	req.Equal(1, registry.Stats()[domain.CommentsGroup])

	// And a publish reaches it once
	req.Equal(1, registry.Publish(context.Background(), domain.CommentsGroup, []byte("x")))
	req.Len(sink.Received(), 1)
}

func TestRegistry_Leave_Keeps_Empty_Group(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	sink := newSink(nil)

	// Given a sink member of two groups
	registry.Join(domain.NotificationsGroup, sink)
	registry.Join(domain.MessagesGroup, sink)

	// When it leaves one group, twice
	registry.Leave(domain.NotificationsGroup, sink.ID())
	registry.Leave(domain.NotificationsGroup, sink.ID())

	// Then the other membership stays
	req.Contains(registry.Sessions, sink.ID())
	req.Contains(registry.Groups[domain.MessagesGroup], sink.ID())

	// And the empty group still exists
	req.Contains(registry.Groups, domain.NotificationsGroup)
	req.Empty(registry.Groups[domain.NotificationsGroup])

	// When it leaves the last group
	registry.Leave(domain.MessagesGroup, sink.ID())

	// Then the session is gone
	req.NotContains(registry.Sessions, sink.ID())

	// And leaving an unknown group is a no-op
	registry.Leave("unknown_room", sink.ID())
}

func TestRegistry_LeaveAll(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	sink := newSink(nil)
	other := newSink(nil)

	for _, group := range domain.Groups() {
		registry.Join(group, sink)
	}
	registry.Join(domain.CommentsGroup, other)

	// When the connection goes away
	registry.LeaveAll(sink.ID())

	// Then it holds no membership
	req.NotContains(registry.Sessions, sink.ID())
	for _, group := range domain.Groups() {
		req.NotContains(registry.Groups[group], sink.ID())
	}

	// And others are untouched
	req.Equal(1, registry.Publish(context.Background(), domain.CommentsGroup, []byte("x")))
	req.Len(other.Received(), 1)
	req.Empty(sink.Received())
}

func TestRegistry_Publish_Isolates_Failing_Member(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	first := newSink(nil)
	failing := newSink(errors.New("send buffer full"))
	last := newSink(nil)

	// Given three members, one of them failing
	registry.Join(domain.MessagesGroup, first)
	registry.Join(domain.MessagesGroup, failing)
	registry.Join(domain.MessagesGroup, last)

	// When a payload is published
	delivered := registry.Publish(context.Background(), domain.MessagesGroup, []byte(`{"type":"send_message"}`))

	// Then the healthy members received it
	req.Equal(2, delivered)
	req.Len(first.Received(), 1)
	req.Len(last.Received(), 1)
	req.JSONEq(`{"type":"send_message"}`, string(first.Received()[0]))
}

func TestRegistry_Publish_Empty_Group(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	req.Zero(registry.Publish(context.Background(), domain.CommentsGroup, []byte("x")))
}

func TestRegistry_Concurrent_Join_Publish(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	var wg sync.WaitGroup
	sinks := make([]*Sink, 50)
	for i := range sinks {
		sinks[i] = newSink(nil)
		wg.Add(2)
		go func(s *Sink) {
			defer wg.Done()
			registry.Join(domain.CommentsGroup, s)
		}(sinks[i])
		go func() {
			defer wg.Done()
			registry.Publish(context.Background(), domain.CommentsGroup, []byte("x"))
		}()
	}
	wg.Wait()

	req.Equal(50, registry.Stats()[domain.CommentsGroup])
}

func TestChannel_RoundTrip(t *testing.T) {
	req := require.New(t)

	req.Equal("crm-realtime:group:messages_room", Channel(domain.MessagesGroup))

	group, ok := GroupFromChannel(Channel(domain.NotificationsGroup))
	req.True(ok)
	req.Equal(domain.NotificationsGroup, group)

	_, ok = GroupFromChannel("other:messages_room")
	req.False(ok)
}
