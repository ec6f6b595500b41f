package popup

import "sync"

// Region is the results display surface. Only the handler that owns it
// writes to it.
type Region interface {
	SetContent(fragment string)
}

// Buffer is an in-memory Region. It is safe for concurrent readers.
type Buffer struct {
	mu      sync.RWMutex
	content string
	writes  int
	// OnWrite, when set, is called with every new fragment after it is stored.
	OnWrite func(fragment string)
}

func (b *Buffer) SetContent(fragment string) {
	b.mu.Lock()
	b.content = fragment
	b.writes++
	hook := b.OnWrite
	b.mu.Unlock()
	if hook != nil {
		hook(fragment)
	}
}

// Content returns the current fragment.
func (b *Buffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content
}

// Writes returns how many times the region has been replaced.
func (b *Buffer) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}
