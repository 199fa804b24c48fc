// Package main is the db-CBS command line planner.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/dbcbs/config"
	"go.viam.com/dbcbs/logging"
	"go.viam.com/dbcbs/primitives"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/scenario"
)

const (
	// Flags.
	flagInput            = "input"
	flagMotions          = "motions"
	flagOutput           = "output"
	flagConfig           = "config"
	flagDebug            = "debug"
	flagDelta            = "delta"
	flagEpsilon          = "epsilon"
	flagAlpha            = "alpha"
	flagFilterDuplicates = "filter-duplicates"
	flagMaxCost          = "max-cost"
	flagTimeout          = "timeout"
	flagSeed             = "rseed"
	flagFocalWeight      = "focal-weight"
	flagParallelReplan   = "parallel-replan"
	flagPlot             = "plot"
	flagSummary          = "summary"
)

// overrides maps flags onto the configuration keys they set.
var overrides = map[string]string{
	flagDelta:            "delta",
	flagEpsilon:          "epsilon",
	flagAlpha:            "alpha",
	flagFilterDuplicates: "filter_duplicates",
	flagMaxCost:          "max_cost",
	flagTimeout:          "timeout",
	flagSeed:             "rseed",
	flagFocalWeight:      "focal_weight",
	flagParallelReplan:   "parallel_replan",
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dbcbs",
		Usage: "plan collision free trajectories for several robots with motion primitives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagInput,
				Aliases: []string{"i"},
				Usage:   "scenario `FILE` describing the environment and the robots",
			},
			&cli.StringSliceFlag{
				Name:    flagMotions,
				Aliases: []string{"m"},
				Usage:   "motion primitives per robot type, as `TYPE=FILE`",
			},
			&cli.StringFlag{
				Name:    flagOutput,
				Aliases: []string{"o"},
				Usage:   "write the result to `FILE` instead of stdout",
			},
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load planner configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.Float64Flag{
				Name:  flagDelta,
				Usage: "discontinuity bound; a negative value calibrates it from that many neighbors",
			},
			&cli.Float64Flag{Name: flagEpsilon, Usage: "heuristic inflation, at least 1"},
			&cli.Float64Flag{Name: flagAlpha, Usage: "share of delta used to select motions"},
			&cli.BoolFlag{Name: flagFilterDuplicates, Usage: "disable redundant motions"},
			&cli.Float64Flag{Name: flagMaxCost, Usage: "upper bound on the cost of one robot plan"},
			&cli.Float64Flag{Name: flagTimeout, Usage: "seconds allowed per search"},
			&cli.IntFlag{Name: flagSeed, Usage: "random seed for shuffling and calibration"},
			&cli.Float64Flag{Name: flagFocalWeight, Usage: "focal weight of the high level search"},
			&cli.BoolFlag{Name: flagParallelReplan, Usage: "replan sibling nodes concurrently"},
			&cli.StringFlag{Name: flagPlot, Usage: "draw the planned paths to an image `FILE`"},
			&cli.BoolFlag{Name: flagSummary, Usage: "print a per robot summary to stderr"},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "print the JSON schema of scenario files",
				Action: func(c *cli.Context) error {
					data, err := json.MarshalIndent(scenario.Schema(), "", "  ")
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, string(data))
					return err
				},
			},
		},
	}
}

func run(c *cli.Context) error {
	logger := logging.NewWriterLogger("dbcbs", c.App.ErrWriter)
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}

	if c.String(flagInput) == "" || len(c.StringSlice(flagMotions)) == 0 {
		return errors.Errorf("both --%s and --%s are required", flagInput, flagMotions)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := scenario.Load(c.String(flagInput))
	if err != nil {
		return err
	}
	prims, err := loadMotions(c.StringSlice(flagMotions))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	if c.Bool(flagDebug) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	res, err := scenario.Solve(ctx, s, prims, cfg, logger)
	if err != nil {
		return err
	}
	logger.Infow("solved", "cost", res.Cost, "high_level_expanded", res.Stats.Expanded)
	if c.Bool(flagSummary) {
		fmt.Fprintln(c.App.ErrWriter, res.Summary())
	}
	if path := c.String(flagPlot); path != "" {
		if err := scenario.Plot(s, res, path); err != nil {
			return err
		}
	}

	if out := c.String(flagOutput); out != "" {
		return scenario.WriteResultFile(out, res)
	}
	return scenario.WriteResult(c.App.Writer, res)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.FromFile(path); err != nil {
			return nil, err
		}
	}
	extra := map[string]interface{}{}
	for flag, key := range overrides {
		if c.IsSet(flag) {
			extra[key] = c.Value(flag)
		}
	}
	if err := cfg.Update(extra); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadMotions(specs []string) (map[robots.Kind][]primitives.Primitive, error) {
	prims := map[robots.Kind][]primitives.Primitive{}
	for _, spec := range specs {
		kind, path, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.Errorf("motions must be given as TYPE=FILE, got %q", spec)
		}
		p, err := scenario.LoadPrimitives(path)
		if err != nil {
			return nil, err
		}
		prims[robots.Kind(kind)] = p
	}
	return prims, nil
}
