package detect

// ReportLine is one record of a detections report: JSON lines written by a
// host adapter during a test run and replayed by the one-shot CLI. A line is
// either an executed-test marker or a detection. Detections carry either the
// grouped shape (queries + one call_stack) or the per-location shape (query +
// call_stacks); both are accepted.
type ReportLine struct {
	ExecutedTest string `json:"executed_test,omitempty"`

	Query      string     `json:"query,omitempty"`
	Queries    []string   `json:"queries,omitempty"`
	CallStack  []string   `json:"call_stack,omitempty"`
	CallStacks [][]string `json:"call_stacks,omitempty"`

	TestLocation string `json:"test_location,omitempty"`
}

// notification converts a detection line to the normalized shape.
func (l ReportLine) notification() Notification {
	queries := l.Queries
	if len(queries) == 0 && l.Query != "" {
		queries = []string{l.Query}
	}

	stacks := l.CallStacks
	if len(stacks) == 0 && l.CallStack != nil {
		stacks = [][]string{l.CallStack}
	}

	return Notification{Queries: queries, CallStacks: stacks}
}

// IngestReport replays a detections report into the buffer: executed-test
// markers feed the registry, detection lines are recorded unfiltered so
// reconciliation sees the full evidence.
func (c *Coordinator) IngestReport(lines []ReportLine) {
	for _, line := range lines {
		if line.ExecutedTest != "" {
			c.RegisterExecutedTest(line.ExecutedTest)
			continue
		}

		n := line.notification()
		if n.Query() == "" {
			continue
		}

		c.Record(n.Query(), n.CallStacks, line.TestLocation)
	}
}
