package web

import (
	"sync"

	"gnssfeed/internal/feed"
)

// LiveBroadcaster fans out position snapshots to any listeners (e.g. the
// /api/live WebSocket). It keeps the most recent value so new subscribers
// get an immediate sample.
type LiveBroadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan feed.Snapshot
	nextID   int
	last     feed.Snapshot
	haveLast bool
}

func NewLiveBroadcaster() *LiveBroadcaster {
	return &LiveBroadcaster{
		subs: make(map[int]chan feed.Snapshot),
	}
}

func (b *LiveBroadcaster) Subscribe(buffer int) (int, <-chan feed.Snapshot) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan feed.Snapshot, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last := b.last
	have := b.haveLast
	b.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

func (b *LiveBroadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers snap to all subscribers without blocking. Slow
// subscribers drop samples rather than stall the producer.
func (b *LiveBroadcaster) Publish(snap feed.Snapshot) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]chan feed.Snapshot, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
	b.mu.Lock()
	b.last = snap
	b.haveLast = true
	b.mu.Unlock()
}
