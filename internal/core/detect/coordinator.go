package detect

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/nplusone/internal/core/fingerprint"
	"github.com/colonyops/nplusone/internal/store/yamlfile"
)

// Notification is a detector report normalized to a single shape. The
// upstream detector emits two forms: a grouped form (a list of structurally
// similar raw queries sharing one call stack) and a per-location form (one
// raw query with one call stack per occurrence). Both map onto this struct;
// the first query stands for the group.
type Notification struct {
	Queries    []string
	CallStacks [][]string
}

// Query returns the representative raw query for the notification.
func (n Notification) Query() string {
	if len(n.Queries) == 0 {
		return ""
	}
	return n.Queries[0]
}

// Coordinator owns the process-wide accumulation buffer and executed-test
// registry. The embedding application constructs one instance for the process
// lifetime, registers OnDetection with the upstream detector, and hands the
// coordinator to the flush entrypoint.
type Coordinator struct {
	buf    *Buffer
	hasher *fingerprint.Hasher
	store  *yamlfile.TodoStore
	log    zerolog.Logger

	mu          sync.RWMutex
	currentTest string
}

// NewCoordinator creates a coordinator over the given store and hasher.
func NewCoordinator(hasher *fingerprint.Hasher, store *yamlfile.TodoStore, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		buf:    NewBuffer(),
		hasher: hasher,
		store:  store,
		log:    log,
	}
}

// Buffer exposes the accumulation buffer for the reconciliation driver.
func (c *Coordinator) Buffer() *Buffer {
	return c.buf
}

// SetCurrentTest records the test identity the host is about to run.
// Observations recorded without an explicit test location inherit it.
// The test-framework adapter calls this before each test.
func (c *Coordinator) SetCurrentTest(testLocation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTest = fingerprint.NormalizeTestLocation(testLocation)
}

// ClearCurrentTest clears the current test identity.
func (c *Coordinator) ClearCurrentTest() {
	c.SetCurrentTest("")
}

// CurrentTest returns the current test identity, or empty when unknown.
func (c *Coordinator) CurrentTest() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTest
}

// RegisterExecutedTest marks a test as having run this cycle so that a clean
// run of that test can prune its persisted entries.
func (c *Coordinator) RegisterExecutedTest(testLocation string) {
	c.buf.RegisterExecutedTest(testLocation)
}

// Record buffers one detection without consulting the store. Used for
// occurrences whose suppression decision was already made.
func (c *Coordinator) Record(query string, callStacks [][]string, testLocation string) {
	if testLocation == "" {
		testLocation = c.CurrentTest()
	}
	c.buf.AddPending(query, callStacks, testLocation)
}

// OnDetection buffers every detected occurrence and returns only those not
// suppressed by the persisted store. Known occurrences are still buffered:
// reconciliation needs them as re-detection evidence, or pruning would drop
// entries that still reproduce. A malformed store file fails the whole call.
func (c *Coordinator) OnDetection(notifications []Notification) ([]Notification, error) {
	testLocation := c.CurrentTest()

	var forwarded []Notification
	for _, n := range notifications {
		query := n.Query()
		if query == "" {
			continue
		}

		c.buf.AddPending(query, n.CallStacks, testLocation)

		var kept [][]string
		for _, stack := range n.CallStacks {
			fp := c.hasher.Fingerprint(query, stack, testLocation)

			ignored, err := c.store.Ignored(fp)
			if err != nil {
				return nil, fmt.Errorf("check fingerprint %s: %w", fp, err)
			}
			if ignored {
				c.log.Debug().Str("fingerprint", fp).Msg("suppressed known occurrence")
				continue
			}

			kept = append(kept, stack)
		}

		if len(kept) == 0 {
			continue
		}

		forwarded = append(forwarded, Notification{
			Queries:    n.Queries,
			CallStacks: kept,
		})
	}

	return forwarded, nil
}
