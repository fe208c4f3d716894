package progress

import (
	"fmt"
	"sync"
)

type MemoryLog struct {
	mu   sync.RWMutex
	days [][]Entry
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Commit(b *Batch) error {
	entries := b.Entries()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := checkCommit(len(l.days), b); err != nil {
		return err
	}
	l.days = append(l.days, entries)
	return nil
}

func (l *MemoryLog) Days() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.days)
}

func (l *MemoryLog) Day(day int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if day < 1 || day > len(l.days) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDay, day)
	}
	return append([]Entry(nil), l.days[day-1]...), nil
}

func (l *MemoryLog) Entries() ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, d := range l.days {
		n += len(d)
	}
	out := make([]Entry, 0, n)
	for _, d := range l.days {
		out = append(out, d...)
	}
	return out, nil
}
