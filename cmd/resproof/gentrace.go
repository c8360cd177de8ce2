package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/johanlindblad/resolution-graph-tool/internal/shadow"
	"github.com/johanlindblad/resolution-graph-tool/internal/solving"
)

type gentraceOptions struct {
	outputFile       string
	ignoreMode       int
	restartInterval  int64
	reduceDBInterval int64
	maxConflicts     int64
	debug            bool
	instanceFile     string
}

func newGentraceCmd() *cobra.Command {
	o := gentraceOptions{}

	cmd := &cobra.Command{
		Use:          "gentrace <instance.cnf>",
		Short:        "Run a CDCL solver over a DIMACS instance and emit its execution trace",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.instanceFile = args[0]
			return o.run()
		},
	}

	cmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "file to write the trace to (default: stdout)")
	cmd.Flags().IntVar(&o.ignoreMode, "ignore-mode", 1,
		"ignore mode the emitted trace assumes on replay: 0=none, 1=learn, 2=resolve-unit")
	cmd.Flags().Int64Var(&o.restartInterval, "restart-interval", 100, "conflicts between restarts; <= 0 disables restarts")
	cmd.Flags().Int64Var(&o.reduceDBInterval, "reduce-interval", 512, "conflicts between learnt clause database cleanups; <= 0 disables cleanup")
	cmd.Flags().Int64Var(&o.maxConflicts, "max-conflicts", -1, "abort the search after this many conflicts; <= 0 means unlimited")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "use debug log level")

	return cmd
}

func (o *gentraceOptions) mode() (shadow.Mode, error) {
	switch o.ignoreMode {
	case 0:
		return shadow.ModeNone, nil
	case 1:
		return shadow.ModeLearn, nil
	case 2:
		return shadow.ModeResolveUnit, nil
	default:
		return 0, fmt.Errorf("--ignore-mode must be 0, 1, or 2")
	}
}

func (o *gentraceOptions) run() error {
	if o.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	mode, err := o.mode()
	if err != nil {
		return err
	}

	numVars, clauses, err := loadDIMACS(o.instanceFile)
	if err != nil {
		return err
	}

	w := os.Stdout
	if o.outputFile != "" {
		f, err := os.Create(o.outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	opts := solving.DefaultOptions
	opts.Mode = mode
	opts.RestartInterval = o.restartInterval
	opts.ReduceDBInterval = o.reduceDBInterval
	opts.MaxConflicts = o.maxConflicts

	logrus.WithFields(logrus.Fields{
		"instance": o.instanceFile,
		"num_vars": numVars,
		"clauses":  len(clauses),
	}).Debug("starting search")

	s := solving.New(numVars, opts, w)
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			return fmt.Errorf("adding clause: %w", err)
		}
	}

	unsat, err := s.Solve()
	if err != nil {
		return fmt.Errorf("solving: %w", err)
	}

	logrus.WithField("unsat", unsat).Debug("search finished")
	return nil
}
