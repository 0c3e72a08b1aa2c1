// Package detect collects in-flight N+1 detections ahead of a batched
// reconciliation against the persisted TODO store.
package detect

import (
	"sync"

	"github.com/colonyops/nplusone/internal/core/fingerprint"
)

// Observation is one pending occurrence of a query: the call stack that
// produced it and the test that was running at the time, if known.
type Observation struct {
	CallStack    []string
	TestLocation string
}

// Buffer accumulates pending detections and the set of tests that actually
// executed this cycle. One mutex guards both containers; no operation does
// I/O while holding it. All methods are safe for concurrent callers.
//
// The executed-test set exists because "no pending detections from test X"
// is ambiguous between "X was not run" and "X ran clean" — only the latter
// may prune X's prior entries.
type Buffer struct {
	mu       sync.Mutex
	pending  map[string][]Observation
	executed map[string]struct{}
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		pending:  make(map[string][]Observation),
		executed: make(map[string]struct{}),
	}
}

// AddPending appends one observation per call stack under the raw query key,
// creating the key if absent. Within one key, observation order matches call
// order.
func (b *Buffer) AddPending(query string, callStacks [][]string, testLocation string) {
	obs := make([]Observation, 0, len(callStacks))
	for _, stack := range callStacks {
		obs = append(obs, Observation{
			CallStack:    copyFrames(stack),
			TestLocation: testLocation,
		})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[query] = append(b.pending[query], obs...)
}

// PendingNotifications returns a deep copy of the pending map. Mutating the
// result never affects the buffer.
func (b *Buffer) PendingNotifications() map[string][]Observation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyPending(b.pending)
}

// ClearPending atomically empties the pending map.
func (b *Buffer) ClearPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = make(map[string][]Observation)
}

// RegisterExecutedTest records that a test ran this cycle, whether or not it
// produced detections. The location is normalized (line number stripped);
// empty input is a no-op.
func (b *Buffer) RegisterExecutedTest(testLocation string) {
	normalized := fingerprint.NormalizeTestLocation(testLocation)
	if normalized == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.executed[normalized] = struct{}{}
}

// ExecutedTestLocations returns a copy of the executed-test set.
func (b *Buffer) ExecutedTestLocations() map[string]struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copySet(b.executed)
}

// ClearExecutedTestLocations atomically empties the executed-test set.
func (b *Buffer) ClearExecutedTestLocations() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.executed = make(map[string]struct{})
}

// Swap atomically replaces both containers with fresh empty ones and returns
// the previous contents. Detections arriving after the swap land in the new
// containers and belong to the next flush.
func (b *Buffer) Swap() (map[string][]Observation, map[string]struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending, executed := b.pending, b.executed
	b.pending = make(map[string][]Observation)
	b.executed = make(map[string]struct{})
	return pending, executed
}

// MergeBack appends a previously swapped-out snapshot into the live buffer.
// Used to roll back a failed flush; appends rather than overwrites so
// detections recorded since the swap are preserved.
func (b *Buffer) MergeBack(pending map[string][]Observation, executed map[string]struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for query, obs := range pending {
		b.pending[query] = append(b.pending[query], obs...)
	}
	for loc := range executed {
		b.executed[loc] = struct{}{}
	}
}

func copyFrames(frames []string) []string {
	if frames == nil {
		return nil
	}
	out := make([]string, len(frames))
	copy(out, frames)
	return out
}

func copyPending(pending map[string][]Observation) map[string][]Observation {
	out := make(map[string][]Observation, len(pending))
	for query, obs := range pending {
		cp := make([]Observation, len(obs))
		for i, o := range obs {
			cp[i] = Observation{
				CallStack:    copyFrames(o.CallStack),
				TestLocation: o.TestLocation,
			}
		}
		out[query] = cp
	}
	return out
}

func copySet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
