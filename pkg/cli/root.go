// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package cli builds the cobra command a benchmark binary's func main
// runs in Host mode (§6). It is grounded on the teacher's
// GetRootCommand/getBenchCommand shape, collapsed from a
// multi-subcommand (test/bench/simulate) surface to the single-purpose
// run command this harness needs: there is exactly one thing to do in
// Host mode, discover, schedule, report.
package cli

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/onosproject/yab/internal/config"
	"github.com/onosproject/yab/pkg/baseline"
	"github.com/onosproject/yab/pkg/stats"
	"github.com/onosproject/yab/pkg/yab"
)

// errRunFailed signals a non-zero run outcome (failed units, denied
// regressions) that carried no underlying Go error to report; cobra
// still needs a non-nil error to set a non-zero exit status.
var errRunFailed = errors.New("yab: run did not complete cleanly")

// NewRootCommand returns the cobra command a benchmark binary's func
// main runs: it parses flags, merges them with .yab.yaml, and hands the
// resolved yab.Options to yab.Run with register as the benchmark
// binary's declaration function.
func NewRootCommand(register yab.RegisterFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "yab [flags] [filter]",
		Short:        "Run cachegrind-measured micro-benchmarks",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := optionsFromFlags(cmd, args)
			if err != nil {
				return err
			}
			code, err := yab.Run(register, opts)
			if err != nil {
				return err
			}
			if code != 0 {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "maximum number of concurrent cachegrind children")
	cmd.Flags().Bool("regex", false, "treat [filter] as a regular expression instead of a substring")
	cmd.Flags().Bool("list", false, "list discovered benchmark units without running them")
	cmd.Flags().Bool("json", false, "emit newline-delimited JSON records instead of colored text")
	cmd.Flags().Bool("print", false, "show the most recently stored baseline vs. its prior run, without running anything")
	cmd.Flags().String("save-baseline", "", "additionally freeze this run's measurements under NAME, independent of the rolling base baseline")
	cmd.Flags().String("baseline", baseline.DefaultName, "baseline name to compare against; a run writes only the rolling base baseline (and --save-baseline)")
	cmd.Flags().Int64("warm-up-instructions", 0, "unmeasured warm-up budget before the measured pass runs")
	cmd.Flags().String("cachegrind", "valgrind", "path to the cachegrind/valgrind executable")
	cmd.Flags().Float64("regression-threshold", stats.DefaultRegressionThreshold, "fractional change classified as a regression")
	cmd.Flags().Bool("deny-regressions", false, "exit nonzero if any measured unit regresses past the threshold")
	cmd.Flags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.Flags().BoolP("quiet", "q", false, "suppress all but warnings and errors")
	cmd.Flags().String("config", "", "path to a .yab.yaml config file (default: search the working directory)")
	cmd.Flags().String("target-dir", "", "directory baselines are stored under (default: alongside the binary)")

	cmd.AddCommand(newDocsCommand(cmd))
	return cmd
}

// optionsFromFlags resolves yab.Options from cobra flags layered over
// .yab.yaml: an explicitly-set flag always wins; otherwise a value
// present in the config file is used; otherwise the flag's own default
// stands.
func optionsFromFlags(cmd *cobra.Command, args []string) (yab.Options, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return yab.Options{}, err
	}

	jobs, _ := flags.GetInt("jobs")
	if !flags.Changed("jobs") && cfg.Jobs > 0 {
		jobs = cfg.Jobs
	}
	baselineName, _ := flags.GetString("baseline")
	if !flags.Changed("baseline") && cfg.BaselineName != "" {
		baselineName = cfg.BaselineName
	}
	threshold, _ := flags.GetFloat64("regression-threshold")
	if !flags.Changed("regression-threshold") && cfg.RegressionThreshold > 0 {
		threshold = cfg.RegressionThreshold
	}
	warmUp, _ := flags.GetInt64("warm-up-instructions")
	if !flags.Changed("warm-up-instructions") && cfg.WarmUpInstructions > 0 {
		warmUp = cfg.WarmUpInstructions
	}
	cachegrindPath, _ := flags.GetString("cachegrind")
	if !flags.Changed("cachegrind") && cfg.CachegrindPath != "" {
		cachegrindPath = cfg.CachegrindPath
	}
	denyRegressions, _ := flags.GetBool("deny-regressions")
	if !flags.Changed("deny-regressions") && cfg.DenyRegressions {
		denyRegressions = true
	}

	asRegex, _ := flags.GetBool("regex")
	list, _ := flags.GetBool("list")
	asJSON, _ := flags.GetBool("json")
	printOnly, _ := flags.GetBool("print")
	saveBaselineName, _ := flags.GetString("save-baseline")
	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")
	targetDir, _ := flags.GetString("target-dir")

	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}

	return yab.Options{
		Filter:              filter,
		AsRegex:             asRegex,
		Jobs:                jobs,
		List:                list,
		JSON:                asJSON,
		Print:               printOnly,
		SaveBaselineName:    saveBaselineName,
		BaselineName:        baselineName,
		WarmUpInstructions:  warmUp,
		CachegrindPath:      cachegrindPath,
		RegressionThreshold: threshold,
		DenyRegressions:     denyRegressions,
		Verbose:             verbose,
		Quiet:               quiet,
		TargetDir:           targetDir,
	}, nil
}

// newDocsCommand returns a hidden command that renders root's usage as
// markdown, for the harness's own documentation build.
func newDocsCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "docs <dir>",
		Short:  "Generate markdown documentation for this command",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doc.GenMarkdownTree(root, args[0])
		},
	}
}
