// Package config holds the tunable parameters of the planners, their defaults and their
// validation.
package config

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/dbcbs/utils"
)

// default values for planner configuration.
const (
	// Maximum discontinuity allowed between two consecutive motions.
	defaultDelta = 0.3

	// Weight of the heuristic; 1 keeps the search optimal with respect to the primitives.
	defaultEpsilon = 1.0

	// Share of delta spent when choosing applicable motions; the remainder is the merge radius.
	defaultAlpha = 0.5

	// Solutions costing more than this are never returned.
	defaultMaxCost = 1e6

	// default number of seconds to try to solve in total before returning.
	defaultTimeout = 300.

	// random seed.
	defaultRandomSeed = 0

	// Weight bounding the focal list; 1 turns focal selection off.
	defaultFocalWeight = 1.0
)

// Config is the full set of planner parameters.
type Config struct {
	// Maximum discontinuity between consecutive motions. A negative value asks for calibration
	// from the primitives, using -Delta nearest neighbors.
	Delta float64 `json:"delta"`

	// Inflation of the heuristic. Solutions cost at most Epsilon times the best one reachable
	// with the primitives.
	Epsilon float64 `json:"epsilon"`

	// Motions are applicable within Delta*Alpha of a state; states closer than Delta*(1-Alpha)
	// are merged.
	Alpha float64 `json:"alpha"`

	// Disable motions made redundant by another motion before planning.
	FilterDuplicates bool `json:"filter_duplicates"`

	// Shuffle the primitives with the random seed before indexing them.
	ShufflePrimitives bool `json:"shuffle_primitives"`

	// Upper bound on the cost of a single robot plan.
	MaxCost float64 `json:"max_cost"`

	// Random states drawn when calibrating delta; zero means min(1000, number of motions).
	CalibrationSamples int `json:"calibration_samples"`

	// Node expansions allowed per low level search; zero means unlimited.
	MaxExpansions int `json:"max_expansions"`

	// Number of seconds before terminating a search; zero means unlimited.
	Timeout float64 `json:"timeout"`

	// The random seed used for shuffling and calibration. This parameter guarantees deterministic
	// outputs for a given set of identical inputs.
	RandomSeed int `json:"rseed"`

	// Two times closer than this are considered the same when checking constraints; zero means
	// half a time step.
	TimeTolerance float64 `json:"time_tolerance"`

	// A state within this distance of a constrained state violates the constraint; zero means
	// Delta.
	ConstraintRadius float64 `json:"constraint_radius"`

	// Focal weight of the high level search. Values above 1 enable bounded suboptimal node
	// selection by number of conflicts.
	FocalWeight float64 `json:"focal_weight"`

	// Replan the two children of a high level node concurrently.
	ParallelReplan bool `json:"parallel_replan"`

	// High level node expansions allowed; zero means unlimited.
	MaxHighLevelExpansions int `json:"max_high_level_expansions"`
}

// Default returns a configuration with every value set to its default.
func Default() *Config {
	return &Config{
		Delta:             defaultDelta,
		Epsilon:           defaultEpsilon,
		Alpha:             defaultAlpha,
		FilterDuplicates:  true,
		ShufflePrimitives: true,
		MaxCost:           defaultMaxCost,
		Timeout:           defaultTimeout,
		RandomSeed:        defaultRandomSeed,
		FocalWeight:       defaultFocalWeight,
	}
}

// Validate returns every problem found in the configuration.
func (c *Config) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = multierr.Append(errs, utils.NewConfigurationError(format, args...))
		}
	}
	check(c.Delta != 0 && !math.IsNaN(c.Delta), "delta must be non-zero, got %v", c.Delta)
	check(c.Delta > 0 || c.Delta == math.Trunc(c.Delta), "a negative delta must be a whole neighbor count, got %v", c.Delta)
	check(c.Epsilon >= 1, "epsilon must be at least 1, got %v", c.Epsilon)
	check(c.Alpha > 0 && c.Alpha < 1, "alpha must lie in (0, 1), got %v", c.Alpha)
	check(c.MaxCost > 0, "max_cost must be positive, got %v", c.MaxCost)
	check(c.CalibrationSamples >= 0, "calibration_samples can't be negative")
	check(c.MaxExpansions >= 0, "max_expansions can't be negative")
	check(c.Timeout >= 0, "timeout can't be negative")
	check(c.TimeTolerance >= 0, "time_tolerance can't be negative")
	check(c.ConstraintRadius >= 0, "constraint_radius can't be negative")
	check(c.FocalWeight >= 1, "focal_weight must be at least 1, got %v", c.FocalWeight)
	check(c.MaxHighLevelExpansions >= 0, "max_high_level_expansions can't be negative")
	return errs
}

// CalibrationNeighbors returns the neighbor count to calibrate delta with, and whether
// calibration was requested at all.
func (c *Config) CalibrationNeighbors() (int, bool) {
	if c.Delta >= 0 {
		return 0, false
	}
	return int(-c.Delta), true
}

// TimeoutDuration converts the timeout to a duration; zero means no limit.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// FromExtra returns default settings updated by the overridden parameters found in extra, keyed
// by their json names.
func FromExtra(extra map[string]interface{}) (*Config, error) {
	cfg := Default()
	if err := cfg.Update(extra); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Update overrides the parameters found in extra, keyed by their json names, and validates the
// result.
func (c *Config) Update(extra map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(extra); err != nil {
		return errors.Wrap(utils.ErrConfiguration, err.Error())
	}
	return c.Validate()
}

// FromFile reads a json configuration file on top of the defaults.
func FromFile(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(utils.ErrConfiguration, "parsing config %q: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
