// Package nplusone orchestrates reconciliation between the in-memory
// detection buffer and the persisted TODO store.
package nplusone

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/colonyops/nplusone/internal/core/detect"
	"github.com/colonyops/nplusone/internal/core/fingerprint"
	"github.com/colonyops/nplusone/internal/core/sqlnorm"
	"github.com/colonyops/nplusone/internal/store/yamlfile"
)

// FlushError wraps any store failure surfaced by a flush. By the time the
// caller sees it, the swapped-out detections have been merged back into the
// buffer, so retrying the flush reproduces the same pending work.
type FlushError struct {
	Err error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush todo store: %v", e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// Result reports what one reconciliation changed.
type Result struct {
	Added   int
	Removed int
}

// Changed reports whether the reconciliation altered the store.
func (r Result) Changed() bool {
	return r.Added > 0 || r.Removed > 0
}

// Summary returns the one-line human-readable report for a reconciliation.
func (r Result) Summary() string {
	return fmt.Sprintf("nplusone: %d added, %d removed", r.Added, r.Removed)
}

// Service drives reconciliation cycles. Flushes must not run concurrently
// with each other; the embedding application calls them from a single
// end-of-run hook. Detection producers may keep running concurrently — the
// buffer swap is the only step needing exclusivity, and detections arriving
// after it are captured by the next flush.
type Service struct {
	coord  *detect.Coordinator
	hasher *fingerprint.Hasher
	path   string
	log    zerolog.Logger
}

// NewService creates a reconciliation service writing to the store at path.
func NewService(coord *detect.Coordinator, hasher *fingerprint.Hasher, path string, log zerolog.Logger) *Service {
	return &Service{
		coord:  coord,
		hasher: hasher,
		path:   path,
		log:    log,
	}
}

// flushOptions selects which reconciliation steps run.
type flushOptions struct {
	reset bool // discard all existing entries first
	prune bool // remove entries resolved by tests that ran clean
	add   bool // insert pending detections
}

// Flush merges pending detections into the store. When clean is true,
// entries whose owning test ran without re-detecting them are pruned first.
func (s *Service) Flush(ctx context.Context, clean bool) (Result, error) {
	return s.reconcile(ctx, flushOptions{prune: clean, add: true})
}

// Generate rebuilds the store from scratch out of the current pending
// detections, discarding every existing entry.
func (s *Service) Generate(ctx context.Context) (Result, error) {
	return s.reconcile(ctx, flushOptions{reset: true, add: true})
}

// CleanOnly prunes resolved entries without adding anything new.
func (s *Service) CleanOnly(ctx context.Context) (Result, error) {
	return s.reconcile(ctx, flushOptions{prune: true})
}

// reconcile runs one atomic flush cycle. The buffer swap is the only step
// under the buffer lock; all store I/O happens after it. Any failure merges
// the swapped-out snapshot back so no detection is lost.
func (s *Service) reconcile(_ context.Context, opts flushOptions) (Result, error) {
	pending, executed := s.coord.Buffer().Swap()

	store := yamlfile.New(s.path)

	var res Result
	err := func() error {
		if opts.reset {
			store.Clear()
		}

		if opts.prune {
			removed, err := store.FilterByTestLocations(s.detectedLocations(pending), executed)
			if err != nil {
				return err
			}
			res.Removed = removed
		}

		if opts.add {
			added, err := s.addPending(store, pending)
			if err != nil {
				return err
			}
			res.Added = added
		}

		return store.Save()
	}()
	if err != nil {
		s.coord.Buffer().MergeBack(pending, executed)
		return Result{}, &FlushError{Err: err}
	}

	s.log.Debug().
		Int("added", res.Added).
		Int("removed", res.Removed).
		Str("path", s.path).
		Msg("reconciled todo store")

	return res, nil
}

// addPending inserts every pending observation and returns the entry-count
// delta. Queries are visited in sorted order so the persisted file stays
// stable across runs.
func (s *Service) addPending(store *yamlfile.TodoStore, pending map[string][]detect.Observation) (int, error) {
	before, err := store.Len()
	if err != nil {
		return 0, err
	}

	for _, query := range sortedKeys(pending) {
		for _, obs := range pending[query] {
			fp := s.hasher.Fingerprint(query, obs.CallStack, obs.TestLocation)
			err := store.AddEntry(
				fp,
				sqlnorm.Normalize(query),
				s.hasher.Location(obs.CallStack),
				fingerprint.NormalizeTestLocation(obs.TestLocation),
			)
			if err != nil {
				return 0, err
			}
		}
	}

	after, err := store.Len()
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

// detectedLocations derives the set of (fingerprint, location) pairs implied
// by the pending snapshot. Prune keeps any persisted record re-detected here.
func (s *Service) detectedLocations(pending map[string][]detect.Observation) map[yamlfile.DetectedKey]struct{} {
	detected := make(map[yamlfile.DetectedKey]struct{})
	for query, observations := range pending {
		for _, obs := range observations {
			detected[yamlfile.DetectedKey{
				Fingerprint: s.hasher.Fingerprint(query, obs.CallStack, obs.TestLocation),
				Location:    s.hasher.Location(obs.CallStack),
			}] = struct{}{}
		}
	}
	return detected
}

func sortedKeys(m map[string][]detect.Observation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
