package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/johanlindblad/resolution-graph-tool/internal/shadow"
	"github.com/johanlindblad/resolution-graph-tool/internal/trace"
)

type rootOptions struct {
	ignoreMode    int
	printGraph    bool
	includeUnused bool
	dumpTrail     bool
	debug         bool
	traceFile     string
}

func newRootCmd() *cobra.Command {
	o := rootOptions{}

	cmd := &cobra.Command{
		Use:          "resproof [trace-file]",
		Short:        "Reconstruct a SAT refutation proof from a solver execution trace",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.traceFile = args[0]
			}
			return o.run()
		},
	}

	cmd.PersistentFlags().IntVar(&o.ignoreMode, "ignore-mode", 0,
		"how to treat literals the trace marks as skipped during conflict analysis: 0=none, 1=learn, 2=resolve-unit")
	cmd.PersistentFlags().BoolVar(&o.printGraph, "print-graph", false, "emit a DOT rendering of the refutation instead of statistics")
	cmd.PersistentFlags().BoolVar(&o.includeUnused, "include-unused", false, "keep unused learned clauses in the DOT output")
	cmd.PersistentFlags().BoolVar(&o.dumpTrail, "dump-trail", false, "print the solver shadow's assignment trail to stderr before building the graph")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "use debug log level")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("resproof")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = viper.BindPFlag("ignore-mode", cmd.PersistentFlags().Lookup("ignore-mode"))

	cmd.AddCommand(newGentraceCmd())
	return cmd
}

func (o *rootOptions) mode() (shadow.Mode, error) {
	switch viper.GetInt("ignore-mode") {
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

func (o *rootOptions) run() error {
	logger := logrus.New()
	if o.debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	mode, err := o.mode()
	if err != nil {
		return err
	}

	r := os.Stdin
	if o.traceFile != "" {
		f, err := os.Open(o.traceFile)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer f.Close()
		r = f
	}

	logger.WithFields(logrus.Fields{
		"ignore_mode":    mode,
		"print_graph":    o.printGraph,
		"include_unused": o.includeUnused,
	}).Debug("starting trace dispatch")

	cfg := trace.Config{
		Mode:          mode,
		PrintGraph:    o.printGraph,
		IncludeUnused: o.includeUnused,
	}
	if o.dumpTrail {
		cfg.DumpTrailTo = os.Stderr
	}

	result, err := trace.Run(r, cfg)
	if err != nil {
		return fmt.Errorf("processing trace: %w", err)
	}

	if o.printGraph {
		fmt.Println(result.DOT)
		return nil
	}
	return printStatisticsJSON(os.Stdout, result.Statistics)
}
