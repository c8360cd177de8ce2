// Command resproof reads a SAT solver's execution trace and reconstructs
// the resolution refutation it implies, reporting either summary
// statistics or a DOT rendering of the proof DAG.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("resproof failed")
		os.Exit(1)
	}
}
