// Package motionplan implements db-A*, a discontinuity-bounded A* search that plans a single
// robot trajectory by chaining motion primitives.
package motionplan

import (
	"context"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.opencensus.io/trace"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/logging"
	"go.viam.com/dbcbs/nearest"
	"go.viam.com/dbcbs/pqueue"
	"go.viam.com/dbcbs/primitives"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/utils"
)

// Log search progress every this many expansions.
const progressLogInterval = 1000

// Problem is a single robot planning query.
type Problem struct {
	Start   []float64
	Goal    []float64
	Library *primitives.Library

	// World holds the static obstacles; nil means free space.
	World *collision.World

	// Checker adds time dependent validity on top of the world; nil accepts every state.
	Checker StateChecker
}

// Planner runs db-A* searches. A Planner holds no per search state and may run several
// searches at once.
type Planner struct {
	opts   Options
	logger logging.Logger
	clock  clock.Clock
}

// NewPlanner returns a planner with validated options. A nil clock means the wall clock.
func NewPlanner(opts Options, logger logging.Logger, clk clock.Clock) (*Planner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Planner{opts: opts, logger: logger, clock: clk}, nil
}

// Options returns the options the planner searches with.
func (p *Planner) Options() Options {
	return p.opts
}

type aStarNode struct {
	id     int
	state  []float64
	gScore float64
	fScore float64
	// parent is -1 for the start node.
	parent int
	// motion is the id of the motion leading here, -1 for the start node.
	motion int
	offset r3.Vector
	inOpen bool
}

func lessNode(a, b *aStarNode) bool {
	if a.fScore != b.fScore {
		return a.fScore < b.fScore
	}
	if a.gScore != b.gScore {
		return a.gScore > b.gScore
	}
	return a.id < b.id
}

// search is the state of one Plan call.
type search struct {
	*Planner
	ctx     context.Context
	model   robots.Model
	problem *Problem
	goal    []float64

	nodes    []*aStarNode
	open     *pqueue.Queue[*aStarNode]
	explored nearest.Index

	timeTolerance float64
	timed         bool

	// closest node to the goal that was reached through at least one motion
	best     int
	bestDist float64
}

// Plan searches for a trajectory from the problem start to within delta of its goal. When the
// open set runs dry it returns the explored state closest to the goal with StatusApproximate,
// or ErrNoSolution if no motion could be applied at all.
func (p *Planner) Plan(ctx context.Context, problem *Problem) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "dbastar.Plan")
	defer span.End()

	if problem == nil || problem.Library == nil {
		return nil, utils.NewConfigurationError("a planning problem needs a motion library")
	}
	model := problem.Library.Model()
	if len(problem.Start) != model.StateDim() || len(problem.Goal) != model.StateDim() {
		return nil, utils.NewInputError("start and goal must have dimension %d, got %d and %d",
			model.StateDim(), len(problem.Start), len(problem.Goal))
	}
	if !utils.IsFinite(problem.Start) || !utils.IsFinite(problem.Goal) {
		return nil, utils.NewInputError("start and goal must be finite")
	}

	s := &search{
		Planner:  p,
		ctx:      ctx,
		model:    model,
		problem:  problem,
		goal:     problem.Goal,
		open:     pqueue.New(lessNode),
		explored: nearest.New(model.Distance, model.Euclidean()),
		best:     -1,
		bestDist: math.Inf(1),
	}
	if tc, ok := problem.Checker.(TimedChecker); ok {
		s.timeTolerance, s.timed = tc.TimeTolerance()
	}
	return s.run()
}

func (s *search) heuristic(state []float64) float64 {
	return s.model.Position(state).Sub(s.model.Position(s.goal)).Norm() / s.model.MaxSpeed()
}

func (s *search) addNode(state []float64, gScore float64, parent, motion int, offset r3.Vector) *aStarNode {
	n := &aStarNode{
		id:     len(s.nodes),
		state:  state,
		gScore: gScore,
		fScore: gScore + s.opts.Epsilon*s.heuristic(state),
		parent: parent,
		motion: motion,
		offset: offset,
		inOpen: true,
	}
	s.nodes = append(s.nodes, n)
	s.open.Push(n.id, n)
	s.explored.Add(n.id, state)
	if motion >= 0 {
		s.trackProgress(n)
	}
	return n
}

func (s *search) trackProgress(n *aStarNode) {
	if d := s.model.Distance(n.state, s.goal); d < s.bestDist {
		s.best = n.id
		s.bestDist = d
	}
}

func (s *search) run() (*Result, error) {
	start := s.clock.Now()
	s.addNode(append([]float64(nil), s.problem.Start...), 0, -1, -1, r3.Vector{})

	expansions := 0
	for s.open.Len() > 0 {
		if err := s.ctx.Err(); err != nil {
			return nil, newBudgetExceededError("after %d expansions: %v", expansions, err)
		}
		if s.opts.MaxExpansions > 0 && expansions >= s.opts.MaxExpansions {
			return nil, newBudgetExceededError("reached %d expansions", expansions)
		}
		if s.opts.Timeout > 0 && s.clock.Since(start) > s.opts.Timeout {
			return nil, newBudgetExceededError("timed out after %v and %d expansions", s.opts.Timeout, expansions)
		}

		_, current, _ := s.open.Pop()
		current.inOpen = false
		expansions++
		if expansions%progressLogInterval == 0 {
			s.logger.CDebugw(s.ctx, "db-A* progress",
				"expansions", expansions, "open", s.open.Len(), "nodes", len(s.nodes), "g", current.gScore, "f", current.fScore)
		}

		if s.model.Distance(current.state, s.goal) <= s.opts.Delta && s.goalValid(current) {
			s.logger.CDebugf(s.ctx, "db-A* reached goal with cost %.3f after %d expansions", current.gScore, expansions)
			return s.reconstruct(current, StatusExact, expansions), nil
		}
		if err := s.expand(current); err != nil {
			s.logger.Warnw("collision query failed, node expansion aborted", "node", current.id, "error", err)
		}
	}

	if s.best < 0 {
		s.logger.CDebugf(s.ctx, "db-A* exhausted after %d expansions without progress", expansions)
		return nil, ErrNoSolution
	}
	s.logger.CDebugf(s.ctx, "db-A* exhausted after %d expansions, closest state is %.3f from the goal", expansions, s.bestDist)
	return s.reconstruct(s.nodes[s.best], StatusApproximate, expansions), nil
}

func (s *search) goalValid(n *aStarNode) bool {
	if gc, ok := s.problem.Checker.(GoalChecker); ok {
		return gc.GoalValid(n.state, n.gScore)
	}
	return true
}

func (s *search) satisfiesBounds(state []float64) bool {
	if !s.model.SatisfiesBounds(state) {
		return false
	}
	return s.problem.Checker == nil || s.problem.Checker.SatisfiesBounds(state)
}

// shifted returns the motion state moved from the origin to shift.
func (s *search) shifted(state []float64, shift r3.Vector) []float64 {
	return s.model.WithPosition(state, s.model.Position(state).Add(shift))
}

// feasible checks every state of the motion once shifted: bounds, static obstacles and the
// checker at the time the state is reached.
func (s *search) feasible(current *aStarNode, m *primitives.Motion, shift r3.Vector) (bool, error) {
	dt := s.model.Dt()
	for k, state := range m.States {
		moved := s.shifted(state, shift)
		if !s.satisfiesBounds(moved) {
			return false, nil
		}
		if s.problem.World != nil {
			hit, err := s.problem.World.Collides(collision.TranslateAll(m.Shapes[k], shift))
			if err != nil {
				return false, err
			}
			if hit {
				return false, nil
			}
		}
		if s.problem.Checker != nil && !s.problem.Checker.IsValid(moved, current.gScore+float64(k)*dt) {
			return false, nil
		}
	}
	return true, nil
}

// expand applies every motion close enough to the current state, then either adds the end state
// as a new node or uses it to improve the explored nodes it lands next to.
func (s *search) expand(current *aStarNode) error {
	alphaRadius := s.opts.Delta * s.opts.Alpha
	mergeRadius := s.opts.Delta * (1 - s.opts.Alpha)
	pos := s.model.Position(current.state)

	for _, m := range s.problem.Library.Applicable(current.state, alphaRadius) {
		var offset r3.Vector
		shift := pos.Add(offset)
		end := s.shifted(m.End(), shift)
		tentativeG := current.gScore + m.Cost
		if tentativeG+s.opts.Epsilon*s.heuristic(end) > s.opts.MaxCost {
			continue
		}
		if !s.satisfiesBounds(end) {
			continue
		}
		ok, err := s.feasible(current, m, shift)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		neighbors := s.explored.NearestR(end, mergeRadius)
		if s.timed {
			sameTime := neighbors[:0]
			for _, n := range neighbors {
				if math.Abs(s.nodes[n.ID].gScore-tentativeG) <= s.timeTolerance {
					sameTime = append(sameTime, n)
				}
			}
			neighbors = sameTime
		}
		if len(neighbors) == 0 {
			s.addNode(end, tentativeG, current.id, m.ID, offset)
			continue
		}
		for _, n := range neighbors {
			node := s.nodes[n.ID]
			if tentativeG >= node.gScore {
				continue
			}
			node.gScore = tentativeG
			node.fScore = tentativeG + s.opts.Epsilon*s.heuristic(node.state)
			node.parent = current.id
			node.motion = m.ID
			node.offset = offset
			// Push restores the heap for queued nodes and re-inserts closed ones.
			node.inOpen = true
			s.open.Push(node.id, node)
			s.trackProgress(node)
		}
	}
	return nil
}

// reconstruct walks the parents back to the start and concatenates the motions along the way.
// The cost is that of the motions used, which is below the node's g score when an ancestor was
// improved after the node was generated.
func (s *search) reconstruct(last *aStarNode, status Status, expansions int) *Result {
	var chain []*aStarNode
	for n := last; ; n = s.nodes[n.parent] {
		chain = append(chain, n)
		if n.parent < 0 {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	res := &Result{
		Status:       status,
		Expansions:   expansions,
		MotionStats:  map[int]int{},
		Delta:        s.opts.Delta,
		Epsilon:      s.opts.Epsilon,
		GoalDistance: s.model.Distance(last.state, s.goal),
	}
	for i := 1; i < len(chain); i++ {
		child := chain[i]
		m := s.problem.Library.Motion(child.motion)
		shift := s.model.Position(chain[i-1].state).Add(child.offset)
		for _, state := range m.States[:len(m.States)-1] {
			res.States = append(res.States, s.shifted(state, shift))
		}
		res.Actions = append(res.Actions, m.Actions...)
		res.Cost += m.Cost
		res.MotionStats[m.ID]++
		res.Splits = append(res.Splits, len(m.States)-1)
	}
	res.States = append(res.States, append([]float64(nil), last.state...))
	return res
}
