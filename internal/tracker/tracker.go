// Package tracker records how a learner moves through a quiz: time spent
// on each question and how often they changed their answer.
package tracker

import (
	"sync"
	"time"
)

// Tracker accumulates per-question timing and answer changes for one
// quiz attempt. It is safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	start   time.Time
	anchors []time.Time
	seconds []int
	changes []int
	touched []bool
}

// New creates a Tracker for a quiz with n questions, anchored at start.
func New(n int, start time.Time) *Tracker {
	return &Tracker{
		start:   start,
		anchors: make([]time.Time, n),
		seconds: make([]int, n),
		changes: make([]int, n),
		touched: make([]bool, n),
	}
}

// Start returns the quiz start time.
func (t *Tracker) Start() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start
}

// RecordSelection notes that option was selected for question at now.
// The first selection on a question anchors its clock; every call
// recomputes the elapsed time from that anchor, and every call after the
// first counts as a change. Out-of-range questions are ignored.
func (t *Tracker) RecordSelection(question, option int, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if question < 0 || question >= len(t.anchors) {
		return
	}
	if !t.touched[question] {
		t.touched[question] = true
		t.anchors[question] = now
	} else {
		t.changes[question]++
	}
	t.seconds[question] = wholeSeconds(now.Sub(t.anchors[question]))
}

// Snapshot is the immutable behavior captured at submission. The slices
// are index-aligned with the question list.
type Snapshot struct {
	Start              time.Time
	End                time.Time
	PerQuestionSeconds []int
	AnswerChanges      []int
}

// Snapshot freezes the current counters with end as the submission time.
func (t *Tracker) Snapshot(end time.Time) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Start:              t.start,
		End:                end,
		PerQuestionSeconds: append([]int(nil), t.seconds...),
		AnswerChanges:      append([]int(nil), t.changes...),
	}
}

// ElapsedSeconds is End minus Start in whole seconds.
func (s Snapshot) ElapsedSeconds() int {
	return wholeSeconds(s.End.Sub(s.Start))
}

// wholeSeconds rounds down. Clock steps backwards count as zero.
func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
