// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"
)

// =============================================================================
// ACTIVITY SIGNALS
// =============================================================================

// Kind identifies the input event behind an activity signal. Every kind
// counts the same; it is kept only for logging.
type Kind int

const (
	KindPointerDown Kind = iota
	KindPointerMove
	KindKeyPress
	KindScroll
	KindTouchStart
	KindClick
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindPointerDown:
		return "pointer_down"
	case KindPointerMove:
		return "pointer_move"
	case KindKeyPress:
		return "key_press"
	case KindScroll:
		return "scroll"
	case KindTouchStart:
		return "touch_start"
	case KindClick:
		return "click"
	default:
		return "unknown"
	}
}

// Activity is a single "the user did something" signal.
type Activity struct {
	Kind Kind
	At   time.Time
}

// ActivitySource delivers activity signals to subscribers. The returned
// function detaches the subscriber and is safe to call more than once.
type ActivitySource interface {
	Subscribe(fn func(Activity)) (unsubscribe func())
}

// =============================================================================
// BUS
// =============================================================================

// Bus is an in-process ActivitySource. Hosts publish their input events to
// it and the controller subscribes.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(Activity)
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Activity))}
}

// Subscribe registers fn for every subsequent Publish.
func (b *Bus) Subscribe(fn func(Activity)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers a to every current subscriber. Subscribers run on the
// caller's goroutine, outside the bus lock.
func (b *Bus) Publish(a Activity) {
	b.mu.RLock()
	fns := make([]func(Activity), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(a)
	}
}

// Subscribers returns the number of attached subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
