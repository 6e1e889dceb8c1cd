// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package service

import (
	"sync"

	"github.com/enotebook/eln-sync/internal/logger"
)

type eventBus struct {
	logger *logger.Logger

	mu       sync.RWMutex
	nextID   int
	handlers map[Event]map[int]Handler
}

// NewEventBus constructs an empty [EventBus].
func NewEventBus(logger *logger.Logger) EventBus {
	return &eventBus{
		logger:   logger,
		handlers: make(map[Event]map[int]Handler),
	}
}

func (b *eventBus) On(event Event, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[int]Handler)
	}
	b.handlers[event][b.nextID] = h

	return b.nextID
}

func (b *eventBus) Off(event Event, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers[event], id)
}

func (b *eventBus) Emit(event Event, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(event, h, payload)
	}
}

// dispatch runs one handler with panic isolation so a faulty observer cannot
// take down a sync cycle or starve the remaining handlers.
func (b *eventBus) dispatch(event Event, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event", string(event)).
				Any("panic", r).
				Msg("event handler panicked")
		}
	}()

	h(payload)
}
