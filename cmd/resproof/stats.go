package main

import (
	"encoding/json"
	"io"

	"github.com/johanlindblad/resolution-graph-tool/internal/graph"
)

// printStatisticsJSON writes stats as a single-line JSON object followed by
// a newline, matching the original tool's one-line statistics output.
func printStatisticsJSON(w io.Writer, stats *graph.Statistics) error {
	return json.NewEncoder(w).Encode(stats)
}
