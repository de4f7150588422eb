package client

import "sync"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier receives transient toast messages. The host UI decides how
// to render them.
type Notifier interface {
	Notify(level Level, message string)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Navigator performs page-level navigation.
type Navigator interface {
	Navigate(url string)
}

// Store is page-scoped key/value storage for derived session data. The
// server session stays authoritative.
type Store interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (m *MemoryStore) Get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MemoryStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Loading is the global overlay with counted show/hide, so overlapping
// operations cannot dismiss each other's overlay early.
type Loading struct {
	mu       sync.Mutex
	count    int
	message  string
	onChange func(active bool, message string)
}

func NewLoading(onChange func(active bool, message string)) *Loading {
	return &Loading{onChange: onChange}
}

func (l *Loading) Show(message string) {
	l.mu.Lock()
	l.count++
	l.message = message
	active, msg := l.count > 0, l.message
	l.mu.Unlock()
	if l.onChange != nil {
		l.onChange(active, msg)
	}
}

func (l *Loading) Hide() {
	l.mu.Lock()
	if l.count > 0 {
		l.count--
	}
	active, msg := l.count > 0, l.message
	l.mu.Unlock()
	if l.onChange != nil {
		l.onChange(active, msg)
	}
}

func (l *Loading) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}
