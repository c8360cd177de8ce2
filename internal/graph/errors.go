package graph

import "errors"

// ErrNotEmpty is returned when Phase 1 conflict resolution fails to reach
// the empty clause — an unsound trace.
var ErrNotEmpty = errors.New("graph: conflict resolution did not reach the empty clause")

// ErrRegularityMismatch is returned by VerifyRegularity when the
// independent DFS tally disagrees with the incrementally-computed totals
// carried on the clause itself.
var ErrRegularityMismatch = errors.New("graph: regularity verifier disagrees with incremental totals")
