package localization

import (
	"context"
	"sync"
)

// EventName identifies a runtime signal.
type EventName string

const (
	// EventLoaded is emitted after lazily loaded resources were merged, prompting re-renders.
	EventLoaded EventName = "loaded"
	// EventLanguageChanged is emitted after the active language changes.
	EventLanguageChanged EventName = "languageChanged"
	// EventAdded is emitted when a bundle receives new keys.
	EventAdded EventName = "added"
)

// Event is a runtime signal, Language and Namespace are set when they apply.
type Event struct {
	Name      EventName `json:"name"`
	Language  string    `json:"language,omitempty"`
	Namespace string    `json:"namespace,omitempty"`
}

// Listener receives runtime events synchronously on the emitting goroutine.
type Listener func(ctx context.Context, event Event)

type listeners struct {
	mu    sync.RWMutex
	next  uint64
	items map[uint64]Listener
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.items == nil {
		l.items = map[uint64]Listener{}
	}
	id := l.next
	l.next++
	l.items[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.items, id)
		})
	}
}

func (l *listeners) emit(ctx context.Context, event Event) {
	l.mu.RLock()
	snapshot := make([]Listener, 0, len(l.items))
	for id := range l.next {
		if fn, ok := l.items[id]; ok {
			snapshot = append(snapshot, fn)
		}
	}
	l.mu.RUnlock()

	for _, fn := range snapshot {
		fn(ctx, event)
	}
}
