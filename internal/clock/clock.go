// Package clock provides the scheduling primitives used for countdowns, ticks, and grace timers.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer cancels one scheduled callback. Stop is idempotent.
type Timer interface {
	Stop()
}

// Scheduler runs callbacks after a delay or on a fixed interval.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Real schedules callbacks on wall-clock time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) After(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

func (Real) Every(d time.Duration, fn func()) Timer {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	return &tickerTimer{ticker: ticker, done: done}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Stop() { r.t.Stop() }

type tickerTimer struct {
	once   sync.Once
	ticker *time.Ticker
	done   chan struct{}
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// Manual is a virtual clock that only moves when Advance is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	nextSeq int
	entries []*manualEntry
}

type manualEntry struct {
	owner    *Manual
	seq      int
	due      time.Time
	interval time.Duration
	fn       func()
	stopped  bool
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) After(d time.Duration, fn func()) Timer {
	return m.schedule(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.schedule(d, d, fn)
}

func (m *Manual) schedule(d, interval time.Duration, fn func()) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	entry := &manualEntry{owner: m, seq: m.nextSeq, due: m.now.Add(d), interval: interval, fn: fn}
	m.entries = append(m.entries, entry)
	return entry
}

func (e *manualEntry) Stop() {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.stopped = true
}

// Pending returns how many timers are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.entries {
		if !e.stopped {
			count++
		}
	}
	return count
}

// Advance moves virtual time forward by d, firing due callbacks in due-time
// order and then registration order. Callbacks run without the clock lock held,
// so they may schedule or stop timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		entry, ok := m.popDue(target)
		if !ok {
			break
		}
		entry.fn()
	}

	m.mu.Lock()
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
}

// popDue selects the earliest due entry, advancing virtual time to its due time.
func (m *Manual) popDue(target time.Time) (*manualEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.entries[:0]
	for _, e := range m.entries {
		if !e.stopped {
			live = append(live, e)
		}
	}
	m.entries = live

	sort.SliceStable(m.entries, func(i, j int) bool {
		if !m.entries[i].due.Equal(m.entries[j].due) {
			return m.entries[i].due.Before(m.entries[j].due)
		}
		return m.entries[i].seq < m.entries[j].seq
	})
	if len(m.entries) == 0 || m.entries[0].due.After(target) {
		return nil, false
	}

	entry := m.entries[0]
	m.now = entry.due
	if entry.interval > 0 {
		entry.due = entry.due.Add(entry.interval)
	} else {
		entry.stopped = true
	}
	return entry, true
}
