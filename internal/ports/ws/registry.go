package ws

import (
	"hash/fnv"
	"sync"
)

const numShards = 16

// Sink is one user's outbound delivery endpoint. Send must not block;
// it reports false when the payload was dropped.
type Sink interface {
	Send(payload []byte) bool
	Close()
}

// Registry tracks which users are connected locally and which match each
// of them is watching. Both maps are sharded so a busy match does not
// serialize every connection on one lock.
type Registry struct {
	users   [numShards]userShard
	matches [numShards]matchShard
}

type userShard struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

type matchShard struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.users {
		r.users[i].sinks = make(map[string]Sink)
	}
	for i := range r.matches {
		r.matches[i].members = make(map[string]map[string]struct{})
	}
	return r
}

func shardIndex(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

// Attach registers the user's sink. A second connection for the same
// user replaces the first; the prior sink is closed so the stale socket
// tears down.
func (r *Registry) Attach(userID string, s Sink) {
	sh := &r.users[shardIndex(userID)]
	sh.mu.Lock()
	prev := sh.sinks[userID]
	sh.sinks[userID] = s
	sh.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// Detach removes the user's sink, but only if it is still the current
// one: a replaced connection must not evict its replacement.
func (r *Registry) Detach(userID string, s Sink) {
	sh := &r.users[shardIndex(userID)]
	sh.mu.Lock()
	if sh.sinks[userID] == s {
		delete(sh.sinks, userID)
	}
	sh.mu.Unlock()
}

// Send delivers one payload to a locally connected user. Returns false
// when the user is not connected here or their buffer is full.
func (r *Registry) Send(userID string, payload []byte) bool {
	sh := &r.users[shardIndex(userID)]
	sh.mu.RLock()
	s := sh.sinks[userID]
	sh.mu.RUnlock()
	if s == nil {
		return false
	}
	return s.Send(payload)
}

// Join adds the user to the match's local member set and reports
// whether they are the first local watcher.
func (r *Registry) Join(matchID, userID string) (first bool) {
	sh := &r.matches[shardIndex(matchID)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.members[matchID]
	if !ok {
		set = make(map[string]struct{})
		sh.members[matchID] = set
	}
	set[userID] = struct{}{}
	return !ok
}

// Leave removes the user and reports whether the match now has no local
// watchers left.
func (r *Registry) Leave(matchID, userID string) (last bool) {
	sh := &r.matches[shardIndex(matchID)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.members[matchID]
	if !ok {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(sh.members, matchID)
		return true
	}
	return false
}

// Members snapshots the local watcher set for a match.
func (r *Registry) Members(matchID string) []string {
	sh := &r.matches[shardIndex(matchID)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	set := sh.members[matchID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
