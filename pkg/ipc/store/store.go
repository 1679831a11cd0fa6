// Package store implements the large-message store (SPEC_FULL.md
// §4.B): a short-lived, globally-shared holding area for payloads
// that exceed the streaming transport's frame-size budget.
package store

import (
	"container/heap"
	"sync"
	"time"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// SlotTTL is how long a slot survives if it is never retrieved.
const SlotTTL = 60 * time.Second

type slotEntry struct {
	id        string
	payload   []byte
	expiresAt time.Time
	index     int // heap.Interface bookkeeping
}

// expiryQueue is a min-heap on expiresAt, per the single-timer
// re-architecture hint in spec.md §9 (one priority queue beats a
// timer per slot under load).
type expiryQueue []*slotEntry

func (q expiryQueue) Len() int            { return len(q) }
func (q expiryQueue) Less(i, j int) bool  { return q[i].expiresAt.Before(q[j].expiresAt) }
func (q expiryQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *expiryQueue) Push(x interface{}) {
	e := x.(*slotEntry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *expiryQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Store holds oversized payloads spilled by the router, keyed by an
// opaque slot id. It is shared across every group: slot ids are
// globally unique (SPEC_FULL.md §5).
type Store struct {
	log types.Logger

	mu      sync.Mutex
	slots   map[string]*slotEntry
	queue   expiryQueue
	wake    chan struct{}
	closeCh chan struct{}
	closed  bool
	now     func() time.Time
}

// New builds a Store and starts its background sweep goroutine.
func New(log types.Logger) *Store {
	s := &Store{
		log:     log,
		slots:   make(map[string]*slotEntry),
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		now:     time.Now,
	}
	go s.sweep()
	return s
}

// Put stores payload and returns its slot id. The slot expires after
// SlotTTL or on first successful Take, whichever comes first.
func (s *Store) Put(payload []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := nextSlotID(now)
	e := &slotEntry{id: id, payload: payload, expiresAt: now.Add(SlotTTL)}
	s.slots[id] = e
	heap.Push(&s.queue, e)
	s.nudge()
	return id
}

// Take atomically removes and returns the payload for id, or reports
// not-found when the slot is absent, expired, or already taken.
// Concurrent Take calls for the same id: exactly one wins.
func (s *Store) Take(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.slots[id]
	if !ok {
		return nil, false
	}
	delete(s.slots, id)
	// The entry stays in the heap until the sweep goroutine pops it;
	// it is recognized as stale there because it is no longer in the
	// slots map, so no heap index bookkeeping is needed here.
	return e.payload, true
}

// Close stops the background sweep goroutine.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.closeCh)
}

func (s *Store) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// sweep is the single goroutine responsible for expiring slots. It
// wakes on whichever comes first: the next scheduled expiry, or a
// nudge from Put installing an earlier one.
func (s *Store) sweep() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		var d time.Duration
		for s.queue.Len() > 0 {
			next := s.queue[0]
			if _, live := s.slots[next.id]; !live {
				heap.Pop(&s.queue)
				continue
			}
			d = next.expiresAt.Sub(s.now())
			break
		}
		if s.queue.Len() == 0 {
			d = time.Hour
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)

		select {
		case <-s.closeCh:
			return
		case <-s.wake:
			continue
		case <-timer.C:
			s.expireDue()
		}
	}
}

func (s *Store) expireDue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for s.queue.Len() > 0 && !s.queue[0].expiresAt.After(now) {
		e := heap.Pop(&s.queue).(*slotEntry)
		if _, live := s.slots[e.id]; live {
			delete(s.slots, e.id)
			s.log.Debugf("expired large-message slot %s", e.id)
		}
	}
}
