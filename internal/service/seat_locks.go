package service

import (
	"sort"
	"sync"
)

// seatLocks serialises check-then-write sequences per seat.
type seatLocks struct {
	mu    sync.Mutex
	seats map[int]*sync.Mutex
}

func newSeatLocks() *seatLocks {
	return &seatLocks{seats: make(map[int]*sync.Mutex)}
}

func (l *seatLocks) get(seat int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.seats[seat]
	if !ok {
		m = &sync.Mutex{}
		l.seats[seat] = m
	}
	return m
}

// lock acquires every distinct seat in ascending order and returns the release func.
func (l *seatLocks) lock(seats ...int) func() {
	ordered := make([]int, 0, len(seats))
	seen := make(map[int]struct{}, len(seats))
	for _, seat := range seats {
		if _, ok := seen[seat]; ok {
			continue
		}
		seen[seat] = struct{}{}
		ordered = append(ordered, seat)
	}
	sort.Ints(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, seat := range ordered {
		m := l.get(seat)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
