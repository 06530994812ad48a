package ws

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"sjavs/internal/ports"
)

type recordSink struct {
	mu       sync.Mutex
	payloads [][]byte
	closed   bool
	full     bool
}

func (s *recordSink) Send(p []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.payloads = append(s.payloads, p)
	return true
}

func (s *recordSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func TestRegistryAttachReplacesPrior(t *testing.T) {
	r := NewRegistry()
	first := &recordSink{}
	second := &recordSink{}

	r.Attach("alice", first)
	r.Attach("alice", second)

	if !first.closed {
		t.Fatal("replaced sink was not closed")
	}
	if !r.Send("alice", []byte("hi")) {
		t.Fatal("send to current sink failed")
	}
	if first.count() != 0 || second.count() != 1 {
		t.Fatalf("payload routed to wrong sink: first=%d second=%d", first.count(), second.count())
	}

	// Detach of the stale sink must not evict the replacement.
	r.Detach("alice", first)
	if !r.Send("alice", []byte("again")) {
		t.Fatal("stale detach evicted the live sink")
	}

	r.Detach("alice", second)
	if r.Send("alice", []byte("gone")) {
		t.Fatal("send succeeded after detach")
	}
}

func TestRegistryJoinLeaveCounting(t *testing.T) {
	r := NewRegistry()

	if first := r.Join("m1", "alice"); !first {
		t.Fatal("first watcher not reported as first")
	}
	if first := r.Join("m1", "bob"); first {
		t.Fatal("second watcher reported as first")
	}

	members := r.Members("m1")
	sort.Strings(members)
	if len(members) != 2 || members[0] != "alice" || members[1] != "bob" {
		t.Fatalf("unexpected members %v", members)
	}

	if last := r.Leave("m1", "alice"); last {
		t.Fatal("leave with a watcher remaining reported last")
	}
	if last := r.Leave("m1", "bob"); !last {
		t.Fatal("final leave not reported as last")
	}
	if got := r.Members("m1"); got != nil {
		t.Fatalf("members after final leave: %v", got)
	}
	if last := r.Leave("m1", "carol"); last {
		t.Fatal("leave of unknown match reported last")
	}
}

type fakeBus struct {
	mu     sync.Mutex
	subs   map[string]int
	stream chan busMessage
}

type busMessage = ports.BusMessage

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string]int), stream: make(chan busMessage, 16)}
}

func (b *fakeBus) Publish(_ context.Context, matchID string, payload []byte) error {
	b.stream <- busMessage{MatchID: matchID, Payload: payload}
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, matchID string) error {
	b.mu.Lock()
	b.subs[matchID]++
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) Unsubscribe(_ context.Context, matchID string) error {
	b.mu.Lock()
	b.subs[matchID]--
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) Messages() <-chan busMessage { return b.stream }

func (b *fakeBus) Close() error {
	close(b.stream)
	return nil
}

func (b *fakeBus) subCount(matchID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[matchID]
}

func TestHubSubscribesOncePerMatch(t *testing.T) {
	bus := newFakeBus()
	reg := NewRegistry()
	h := NewHub(bus, reg, nil)
	ctx := context.Background()

	if err := h.JoinMatch(ctx, "m1", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := h.JoinMatch(ctx, "m1", "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := bus.subCount("m1"); got != 1 {
		t.Fatalf("subscription count = %d, want 1", got)
	}

	h.LeaveMatch(ctx, "m1", "alice")
	if got := bus.subCount("m1"); got != 1 {
		t.Fatalf("unsubscribed while a watcher remained: count %d", got)
	}
	h.LeaveMatch(ctx, "m1", "bob")
	if got := bus.subCount("m1"); got != 0 {
		t.Fatalf("subscription count after last leave = %d, want 0", got)
	}
}

func TestHubDispatchHonorsOnlyFor(t *testing.T) {
	bus := newFakeBus()
	reg := NewRegistry()
	h := NewHub(bus, reg, nil)

	alice := &recordSink{}
	bob := &recordSink{}
	reg.Attach("alice", alice)
	reg.Attach("bob", bob)
	reg.Join("m1", "alice")
	reg.Join("m1", "bob")

	broadcast, _ := json.Marshal(map[string]any{"event": "card_played"})
	private, _ := json.Marshal(map[string]any{"event": "hand_updated", "only_for": []string{"alice"}})

	h.dispatch(busMessage{MatchID: "m1", Payload: broadcast})
	h.dispatch(busMessage{MatchID: "m1", Payload: private})

	if alice.count() != 2 {
		t.Fatalf("alice received %d payloads, want 2", alice.count())
	}
	if bob.count() != 1 {
		t.Fatalf("bob received %d payloads, want 1", bob.count())
	}
}

func TestHubDispatchSkipsDisconnected(t *testing.T) {
	bus := newFakeBus()
	reg := NewRegistry()
	h := NewHub(bus, reg, nil)

	carol := &recordSink{full: true}
	reg.Attach("carol", carol)
	reg.Join("m2", "carol")

	payload, _ := json.Marshal(map[string]any{"event": "bid_made"})

	// Full buffer and absent user both drop without panicking.
	h.dispatch(busMessage{MatchID: "m2", Payload: payload})
	h.dispatch(busMessage{MatchID: "nowhere", Payload: payload})

	if carol.count() != 0 {
		t.Fatalf("full sink accepted %d payloads", carol.count())
	}
}
