package session

import (
	"context"
	"hash/fnv"
	"sync"
)

const shardCount = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string][]*Session
}

// MemoryRegistry is a process local registry sharded by customer id
type MemoryRegistry struct {
	shards [shardCount]*shard
}

func NewMemoryRegistry() *MemoryRegistry {
	r := &MemoryRegistry{}
	for i := range r.shards {
		r.shards[i] = &shard{sessions: make(map[string][]*Session)}
	}
	return r
}

func (r *MemoryRegistry) shardFor(customerID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(customerID))
	return r.shards[h.Sum32()%shardCount]
}

func (r *MemoryRegistry) Count(_ context.Context, customerID string) (int, error) {
	sh := r.shardFor(customerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.sessions[customerID]), nil
}

func (r *MemoryRegistry) List(_ context.Context, customerID string) ([]*Session, error) {
	sh := r.shardFor(customerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	out := make([]*Session, 0, len(sh.sessions[customerID]))
	for _, s := range sh.sessions[customerID] {
		out = append(out, cloneSession(s))
	}
	sortByLoginTime(out)
	return out, nil
}

func (r *MemoryRegistry) TryAdd(_ context.Context, s *Session, limit int) (bool, int, error) {
	sh := r.shardFor(s.CustomerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	current := sh.sessions[s.CustomerID]
	if idx := indexOfDevice(current, s.DeviceID); idx >= 0 {
		current[idx] = cloneSession(s)
		return true, len(current), nil
	}
	if limit > 0 && len(current) >= limit {
		return false, len(current), nil
	}

	sh.sessions[s.CustomerID] = append(current, cloneSession(s))
	return true, len(current) + 1, nil
}

func (r *MemoryRegistry) Add(ctx context.Context, s *Session) error {
	_, _, err := r.TryAdd(ctx, s, 0)
	return err
}

func (r *MemoryRegistry) Remove(_ context.Context, customerID, deviceID string) (bool, error) {
	sh := r.shardFor(customerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	current := sh.sessions[customerID]
	idx := indexOfDevice(current, deviceID)
	if idx < 0 {
		return false, nil
	}

	current = append(current[:idx], current[idx+1:]...)
	if len(current) == 0 {
		delete(sh.sessions, customerID)
	} else {
		sh.sessions[customerID] = current
	}
	return true, nil
}

func indexOfDevice(sessions []*Session, deviceID string) int {
	for i, s := range sessions {
		if s.DeviceID == deviceID {
			return i
		}
	}
	return -1
}
