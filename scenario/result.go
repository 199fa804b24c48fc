package scenario

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/dbcbs/cbs"
	"go.viam.com/dbcbs/robots"
)

// RobotResult is the plan of one robot as written out.
type RobotResult struct {
	Kind        robots.Kind      `json:"type"`
	Cost        float64          `json:"cost"`
	Expansions  int              `json:"expansions"`
	States      [][]float64      `json:"states"`
	Actions     [][]float64      `json:"actions"`
	Splits      []int            `json:"splits"`
	MotionStats map[int]int      `json:"motion_stats"`
	Constraints []cbs.Constraint `json:"constraints"`
}

// Result is a multi robot solution as written out.
type Result struct {
	Cost    float64       `json:"cost"`
	Delta   float64       `json:"delta"`
	Epsilon float64       `json:"epsilon"`
	Stats   cbs.Stats     `json:"stats"`
	Robots  []RobotResult `json:"result"`
}

// NewResult pairs the solution with the robots of the scenario it solves.
func NewResult(s *Scenario, sol *cbs.Solution) *Result {
	res := &Result{Cost: sol.Cost, Stats: sol.Stats}
	for i, r := range sol.Results {
		res.Delta = r.Delta
		res.Epsilon = r.Epsilon
		res.Robots = append(res.Robots, RobotResult{
			Kind:        s.Robots[i].Kind,
			Cost:        r.Cost,
			Expansions:  r.Expansions,
			States:      r.States,
			Actions:     r.Actions,
			Splits:      r.Splits,
			MotionStats: r.MotionStats,
			Constraints: sol.Constraints[i],
		})
	}
	return res
}

// WriteResult encodes the result as indented JSON.
func WriteResult(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(res), "writing result")
}

// WriteResultFile writes the result to path, replacing any existing file.
func WriteResultFile(path string, res *Result) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return WriteResult(f, res)
}
