// Package cbs implements db-CBS, a conflict-based search that coordinates several robots, each
// planned by db-A*, by branching on space-time constraints between them.
package cbs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/config"
	"go.viam.com/dbcbs/logging"
	"go.viam.com/dbcbs/motionplan"
	"go.viam.com/dbcbs/pqueue"
	"go.viam.com/dbcbs/primitives"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/utils"
)

// ErrReplanFailure is returned when a robot cannot be planned under the constraints of a high
// level node. The branch is dropped and the search goes on.
var ErrReplanFailure = errors.New("robot could not be replanned under its constraints")

// Options control the high level search.
type Options struct {
	// Low level options, shared by every robot.
	Planner motionplan.Options

	// Constraint matching tolerances; zero means half the robot's time step and Planner.Delta.
	TimeTolerance    float64
	ConstraintRadius float64

	// Above 1, nodes are picked by fewest conflicts among those within FocalWeight of the
	// cheapest one.
	FocalWeight float64

	// Replan both children of a node concurrently.
	ParallelReplan bool

	// Zero means unlimited.
	MaxHighLevelExpansions int
	Timeout                time.Duration
}

// NewOptions takes the search options from a configuration, with delta possibly calibrated.
func NewOptions(cfg *config.Config, delta float64) Options {
	return Options{
		Planner:                motionplan.NewOptions(cfg, delta),
		TimeTolerance:          cfg.TimeTolerance,
		ConstraintRadius:       cfg.ConstraintRadius,
		FocalWeight:            cfg.FocalWeight,
		ParallelReplan:         cfg.ParallelReplan,
		MaxHighLevelExpansions: cfg.MaxHighLevelExpansions,
		Timeout:                cfg.TimeoutDuration(),
	}
}

// Robot is one planning query of a multi robot problem.
type Robot struct {
	Start   []float64
	Goal    []float64
	Library *primitives.Library
}

// HighLevelNode is a node of the constraint tree. Nodes are never modified once generated;
// children copy what they change.
type HighLevelNode struct {
	ID             int
	Solution       []*motionplan.Result
	Constraints    [][]Constraint
	Cost           float64
	FocalHeuristic int
}

func lessCost(a, b *HighLevelNode) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.ID < b.ID
}

func lessFocal(a, b *HighLevelNode) bool {
	if a.FocalHeuristic != b.FocalHeuristic {
		return a.FocalHeuristic < b.FocalHeuristic
	}
	return lessCost(a, b)
}

// Stats describes the work of one Solve call.
type Stats struct {
	Expanded           int `json:"high_level_expanded"`
	Generated          int `json:"high_level_generated"`
	ReplanFailures     int `json:"replan_failures"`
	LowLevelExpansions int `json:"low_level_expansions"`
}

// Solution is a conflict free set of robot trajectories.
type Solution struct {
	Results     []*motionplan.Result
	Constraints [][]Constraint
	Cost        float64
	Stats       Stats
}

// Solver runs db-CBS searches.
type Solver struct {
	opts   Options
	logger logging.Logger
	clock  clock.Clock
}

// NewSolver returns a solver with validated options. A nil clock means the wall clock.
func NewSolver(opts Options, logger logging.Logger, clk clock.Clock) (*Solver, error) {
	var errs error
	if _, err := motionplan.NewPlanner(opts.Planner, logger, clk); err != nil {
		errs = multierr.Append(errs, err)
	}
	if opts.TimeTolerance < 0 || opts.ConstraintRadius < 0 {
		errs = multierr.Append(errs, utils.NewConfigurationError("constraint tolerances can't be negative"))
	}
	if !(opts.FocalWeight >= 1) {
		errs = multierr.Append(errs, utils.NewConfigurationError("focal weight must be at least 1, got %v", opts.FocalWeight))
	}
	if opts.MaxHighLevelExpansions < 0 || opts.Timeout < 0 {
		errs = multierr.Append(errs, utils.NewConfigurationError("budgets can't be negative"))
	}
	if errs != nil {
		return nil, errs
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Solver{opts: opts, logger: logger, clock: clk}, nil
}

// highLevel is the state of one Solve call.
type highLevel struct {
	*Solver
	ctx    context.Context
	world  *collision.World
	robots []Robot
	models []robots.Model

	open  *pqueue.Queue[*HighLevelNode]
	focal *pqueue.Queue[*HighLevelNode]
	stats Stats
	// sibling replans may run concurrently
	lowLevelExpansions atomic.Int64
}

// Solve plans every robot from its start to its goal so that no two robots collide. It fails
// with motionplan.ErrNoSolution when some robot has no exact plan on its own or the constraint
// tree runs out of nodes, and with motionplan.ErrBudgetExceeded when a budget runs out or ctx is
// done. Every robot must share the same time step.
func (s *Solver) Solve(ctx context.Context, world *collision.World, queries []Robot) (*Solution, error) {
	ctx, span := trace.StartSpan(ctx, "cbs.Solve")
	defer span.End()

	if len(queries) == 0 {
		return nil, utils.NewInputError("no robots to plan")
	}
	h := &highLevel{
		Solver: s,
		ctx:    ctx,
		world:  world,
		robots: queries,
		models: make([]robots.Model, len(queries)),
		open:   pqueue.New(lessCost),
	}
	for i, r := range queries {
		if r.Library == nil {
			return nil, utils.NewConfigurationError("robot %d has no motion library", i)
		}
		h.models[i] = r.Library.Model()
		// conflict times are shared step counts, so every robot must step alike
		if dt := h.models[i].Dt(); dt != h.models[0].Dt() {
			return nil, utils.NewConfigurationError("robot %d steps every %vs but robot 0 every %vs", i, dt, h.models[0].Dt())
		}
	}
	if s.opts.FocalWeight > 1 {
		h.focal = pqueue.New(lessFocal)
	}

	if err := h.planRoot(); err != nil {
		return nil, err
	}
	return h.run()
}

func (h *highLevel) planRoot() error {
	ctx, span := trace.StartSpan(h.ctx, "cbs.planRoot")
	defer span.End()

	root := &HighLevelNode{
		Solution:    make([]*motionplan.Result, len(h.robots)),
		Constraints: make([][]Constraint, len(h.robots)),
	}
	for i := range h.robots {
		res, err := h.planRobot(ctx, i, nil)
		if errors.Is(err, motionplan.ErrBudgetExceeded) {
			return errors.Wrapf(err, "planning robot %d on its own", i)
		}
		if err != nil {
			return errors.Wrapf(motionplan.ErrNoSolution, "robot %d on its own: %v", i, err)
		}
		root.Solution[i] = res
		root.Cost += res.Cost
	}
	if err := h.push(root); err != nil {
		return err
	}
	h.logger.CDebugf(h.ctx, "db-CBS root planned with cost %.3f", root.Cost)
	return nil
}

// planRobot runs db-A* for one robot under the given constraints. Anything short of an exact
// plan is a failure.
func (h *highLevel) planRobot(ctx context.Context, robot int, constraints []Constraint) (*motionplan.Result, error) {
	planner, err := motionplan.NewPlanner(h.opts.Planner, h.logger, h.clock)
	if err != nil {
		return nil, err
	}
	model := h.models[robot]
	tolerance := h.opts.TimeTolerance
	if tolerance == 0 {
		tolerance = 0.5 * model.Dt()
	}
	radius := h.opts.ConstraintRadius
	if radius == 0 {
		radius = h.opts.Planner.Delta
	}
	res, err := planner.Plan(ctx, &motionplan.Problem{
		Start:   h.robots[robot].Start,
		Goal:    h.robots[robot].Goal,
		Library: h.robots[robot].Library,
		World:   h.world,
		Checker: NewConstraintSet(model, constraints, radius, tolerance),
	})
	if res != nil {
		h.lowLevelExpansions.Add(int64(res.Expansions))
	}
	if err != nil {
		return nil, err
	}
	if !res.Exact() {
		return nil, errors.Wrapf(motionplan.ErrNoSolution, "closest state is %.3f from the goal", res.GoalDistance)
	}
	return res, nil
}

func (h *highLevel) trajectories(n *HighLevelNode) [][][]float64 {
	trajs := make([][][]float64, len(n.Solution))
	for i, res := range n.Solution {
		trajs[i] = res.States
	}
	return trajs
}

// push assigns the node an id and queues it.
func (h *highLevel) push(n *HighLevelNode) error {
	if h.focal != nil {
		m, err := ConflictMatrix(h.trajectories(n), h.models)
		if err != nil {
			return err
		}
		n.FocalHeuristic = countConflicts(m)
	}
	n.ID = h.stats.Generated
	h.stats.Generated++
	h.open.Push(n.ID, n)
	return nil
}

// pop returns the cheapest open node, or with focal search the open node with fewest conflicts
// among those costing at most FocalWeight times the cheapest.
func (h *highLevel) pop() *HighLevelNode {
	if h.focal == nil {
		_, n, _ := h.open.Pop()
		return n
	}
	_, best, _ := h.open.Peek()
	bound := h.opts.FocalWeight * best.Cost
	for _, n := range h.focal.Items() {
		if n.Cost > bound {
			h.focal.Remove(n.ID)
		}
	}
	for _, n := range h.open.Items() {
		if n.Cost <= bound && !h.focal.Contains(n.ID) {
			h.focal.Push(n.ID, n)
		}
	}
	_, n, _ := h.focal.Pop()
	h.open.Remove(n.ID)
	return n
}

func (h *highLevel) checkBudget(start time.Time) error {
	if err := h.ctx.Err(); err != nil {
		return errors.Wrapf(motionplan.ErrBudgetExceeded, "after %d high level expansions: %v", h.stats.Expanded, err)
	}
	if h.opts.MaxHighLevelExpansions > 0 && h.stats.Expanded >= h.opts.MaxHighLevelExpansions {
		return errors.Wrapf(motionplan.ErrBudgetExceeded, "reached %d high level expansions", h.stats.Expanded)
	}
	if h.opts.Timeout > 0 && h.clock.Since(start) > h.opts.Timeout {
		return errors.Wrapf(motionplan.ErrBudgetExceeded, "timed out after %v", h.opts.Timeout)
	}
	return nil
}

func (h *highLevel) run() (*Solution, error) {
	start := h.clock.Now()
	for h.open.Len() > 0 {
		if err := h.checkBudget(start); err != nil {
			return nil, err
		}
		node := h.pop()
		h.stats.Expanded++

		conflict, err := EarliestConflict(h.trajectories(node), h.models)
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			h.stats.LowLevelExpansions = int(h.lowLevelExpansions.Load())
			h.logger.Infof("db-CBS solved with cost %.3f after %d high level expansions", node.Cost, h.stats.Expanded)
			return &Solution{
				Results:     node.Solution,
				Constraints: node.Constraints,
				Cost:        node.Cost,
				Stats:       h.stats,
			}, nil
		}
		h.logger.CDebugw(h.ctx, "conflict",
			"node", node.ID, "time", conflict.Time, "robot_i", conflict.RobotI, "robot_j", conflict.RobotJ)

		children, err := h.branch(node, conflict)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := h.push(child); err != nil {
				return nil, err
			}
		}
	}
	h.logger.Infof("db-CBS exhausted after %d high level expansions", h.stats.Expanded)
	return nil, motionplan.ErrNoSolution
}

// branch replans each robot of the conflict under one more constraint. Children whose robot
// could not be replanned are nil. A search cancelled during the replans fails as a whole.
func (h *highLevel) branch(parent *HighLevelNode, conflict *Conflict) ([]*HighLevelNode, error) {
	branches := []struct {
		robot      int
		constraint Constraint
	}{
		{conflict.RobotI, Constraint{Time: conflict.Time, State: conflict.StateI}},
		{conflict.RobotJ, Constraint{Time: conflict.Time, State: conflict.StateJ}},
	}
	children := make([]*HighLevelNode, len(branches))
	errs := make([]error, len(branches))
	replan := func(k int) {
		children[k], errs[k] = h.child(parent, branches[k].robot, branches[k].constraint)
	}

	if h.opts.ParallelReplan {
		var wg sync.WaitGroup
		wg.Add(len(branches))
		for k := range branches {
			k := k
			goutils.PanicCapturingGo(func() {
				defer wg.Done()
				replan(k)
			})
		}
		wg.Wait()
	} else {
		for k := range branches {
			replan(k)
		}
	}

	if err := h.ctx.Err(); err != nil {
		return nil, errors.Wrapf(motionplan.ErrBudgetExceeded, "replanning node %d: %v", parent.ID, err)
	}
	for k, child := range children {
		if child != nil {
			continue
		}
		// a replan that panicked leaves no error behind
		h.stats.ReplanFailures++
		h.logger.CDebugw(h.ctx, "dropping branch", "node", parent.ID, "robot", branches[k].robot, "error", errs[k])
	}
	return children, nil
}

func (h *highLevel) child(parent *HighLevelNode, robot int, c Constraint) (*HighLevelNode, error) {
	ctx, span := trace.StartSpan(h.ctx, "cbs.replan")
	defer span.End()

	constraints := make([][]Constraint, len(parent.Constraints))
	copy(constraints, parent.Constraints)
	constraints[robot] = append(append([]Constraint(nil), parent.Constraints[robot]...), c)

	res, err := h.planRobot(ctx, robot, constraints[robot])
	if err != nil {
		return nil, errors.Wrapf(ErrReplanFailure, "robot %d with %d constraints: %v", robot, len(constraints[robot]), err)
	}
	solution := make([]*motionplan.Result, len(parent.Solution))
	copy(solution, parent.Solution)
	solution[robot] = res

	n := &HighLevelNode{Solution: solution, Constraints: constraints}
	for _, r := range solution {
		n.Cost += r.Cost
	}
	return n, nil
}
