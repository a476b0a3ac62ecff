// Package notify implements in-process fan-out of values to subscribers.
// Publishing never blocks: with Publish a subscriber whose buffer is full
// misses the value, with PublishEvict it loses its oldest buffered value.
package notify

import "sync"

const defaultBuffer = 16

type Broadcaster[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the
// channel; calling it more than once is safe.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan T, defaultBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish returns the number of subscribers that received v.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// PublishEvict delivers v to every subscriber. A full subscriber loses its
// oldest buffered value to make room, so v itself is never dropped.
func (b *Broadcaster[T]) PublishEvict(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- v:
			delivered++
			continue
		default:
		}
		// Only publishers write to ch and they hold b.mu, so one receive
		// frees a slot for the send below.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Hub keys broadcasters, typically by user id.
type Hub[T any] struct {
	mu     sync.Mutex
	topics map[string]*Broadcaster[T]
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{topics: make(map[string]*Broadcaster[T])}
}

func (h *Hub[T]) Subscribe(key string) (<-chan T, func()) {
	h.mu.Lock()
	b, ok := h.topics[key]
	if !ok {
		b = NewBroadcaster[T]()
		h.topics[key] = b
	}
	h.mu.Unlock()

	ch, cancel := b.Subscribe()
	return ch, func() {
		cancel()
		h.mu.Lock()
		defer h.mu.Unlock()
		if current, ok := h.topics[key]; ok && current == b && b.Len() == 0 {
			delete(h.topics, key)
		}
	}
}

func (h *Hub[T]) Publish(key string, v T) int {
	h.mu.Lock()
	b, ok := h.topics[key]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	return b.Publish(v)
}
