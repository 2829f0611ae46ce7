// Package events fans collection changes out to in-process subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Op names the mutation that produced a change
type Op string

const (
	OpAdd     Op = "add"
	OpUpdate  Op = "update"
	OpReplace Op = "replace"
	OpSeed    Op = "seed"
)

// Change describes one mutation of a collection
type Change struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	ID         string    `json:"id,omitempty"`
	At         time.Time `json:"at"`
}

// Broker delivers every published change to all current subscribers.
// A subscriber whose buffer is full misses the change.
type Broker struct {
	mu      sync.RWMutex
	subs    map[int]chan Change
	nextID  int
	buffer  int
	dropped atomic.Int64
}

// NewBroker creates a broker whose subscriptions buffer up to buffer changes
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{subs: map[int]chan Change{}, buffer: buffer}
}

// Publish sends c to every subscriber without blocking
func (b *Broker) Publish(c Change) {
	if b == nil {
		return
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel of changes and a function that ends the
// subscription and closes the channel.
func (b *Broker) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}
