package scenario

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/dbcbs/cbs"
	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/motionplan"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/spatialmath"
	"go.viam.com/dbcbs/utils"
)

const twoRobots = `{
  "environment": {
    "min": [0, 0],
    "max": [5, 4],
    "obstacles": [
      {"type": "box", "center": [2.5, 2], "size": [1, 1]},
      {"type": "sphere", "center": [4, 3], "radius": 0.25}
    ]
  },
  "robots": [
    {"type": "unicycle1", "start": [0.5, 0.5, 0], "goal": [4.5, 0.5, 0]},
    {"type": "single_integrator_2d", "radius": 0.2, "start": [0.5, 3.5], "goal": [4.5, 3.5], "min": [-1, -1], "max": [6, 5]}
  ]
}`

func sphereAt(t *testing.T, x, y float64) collision.Geometry {
	t.Helper()
	s, err := collision.NewSphere(spatialmath.NewPoseFromPoint(r3.Vector{X: x, Y: y}), 0.1, "probe")
	test.That(t, err, test.ShouldBeNil)
	return s
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(twoRobots))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(s.Robots), test.ShouldEqual, 2)
	test.That(t, s.Kinds(), test.ShouldResemble, []robots.Kind{robots.Unicycle, robots.SingleIntegrator2D})

	cfg := s.RobotConfig(0)
	test.That(t, cfg.Min, test.ShouldResemble, []float64{0, 0})
	test.That(t, cfg.Max, test.ShouldResemble, []float64{5, 4})
	cfg = s.RobotConfig(1)
	test.That(t, cfg.Radius, test.ShouldEqual, 0.2)
	test.That(t, cfg.Min, test.ShouldResemble, []float64{-1, -1})

	model, err := robots.New(s.RobotConfig(0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model.SatisfiesBounds(s.Robots[0].Start), test.ShouldBeTrue)
	test.That(t, model.SatisfiesBounds([]float64{5.5, 0.5, 0}), test.ShouldBeFalse)

	world, err := s.World()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(world.Obstacles()), test.ShouldEqual, 2)
	for _, tc := range []struct {
		x, y float64
		hit  bool
	}{
		{2.5, 2, true},
		{4, 3, true},
		{1, 1, false},
		{4, 2.5, false},
	} {
		hit, err := world.Collides([]collision.Geometry{sphereAt(t, tc.x, tc.y)})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit, test.ShouldEqual, tc.hit)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"not json", `{"environment": `},
		{"no robots", `{"environment": {"min": [0, 0], "max": [1, 1]}, "robots": []}`},
		{"bad bounds", `{"environment": {"min": [0], "max": [1, 1]}, "robots": [{"type": "unicycle1", "start": [0, 0, 0], "goal": [1, 1, 0]}]}`},
		{"missing goal", `{"environment": {"min": [0, 0], "max": [1, 1]}, "robots": [{"type": "unicycle1", "start": [0, 0, 0]}]}`},
		{"short size", `{"environment": {"min": [0, 0], "max": [1, 1]},
			"robots": [{"type": "unicycle1", "size": [0.5], "start": [0, 0, 0], "goal": [1, 1, 0]}]}`},
		{"short trailer", `{"environment": {"min": [0, 0], "max": [1, 1]},
			"robots": [{"type": "car_first_order_with_1_trailers", "trailer_size": [0.3], "start": [0, 0, 0, 0], "goal": [1, 1, 0, 0]}]}`},
		{"unknown obstacle", `{"environment": {"min": [0, 0], "max": [1, 1], "obstacles": [{"type": "cone", "center": [0, 0]}]},
			"robots": [{"type": "unicycle1", "start": [0, 0, 0], "goal": [1, 1, 0]}]}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			test.That(t, errors.Is(err, utils.ErrInput), test.ShouldBeTrue)
		})
	}
}

func TestLoadPrimitives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motions.json")
	data := `[{"states": [[0, 0], [0.1, 0]], "actions": [[1, 0]]}, {"states": [[0, 0]], "actions": []}]`
	test.That(t, os.WriteFile(path, []byte(data), 0o600), test.ShouldBeNil)

	prims, err := LoadPrimitives(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(prims), test.ShouldEqual, 2)
	test.That(t, prims[0].States, test.ShouldResemble, [][]float64{{0, 0}, {0.1, 0}})
	test.That(t, prims[1].Actions, test.ShouldBeEmpty)

	_, err = LoadPrimitives(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, os.WriteFile(path, []byte(`{"states": []}`), 0o600), test.ShouldBeNil)
	_, err = LoadPrimitives(path)
	test.That(t, errors.Is(err, utils.ErrInput), test.ShouldBeTrue)
}

func TestWriteResult(t *testing.T) {
	s, err := Parse([]byte(twoRobots))
	test.That(t, err, test.ShouldBeNil)
	sol := &cbs.Solution{
		Results: []*motionplan.Result{
			{
				States: [][]float64{{0.5, 0.5, 0}, {0.55, 0.5, 0}}, Actions: [][]float64{{0.5, 0}},
				Cost: 0.1, Splits: []int{1}, MotionStats: map[int]int{3: 1}, Delta: 0.3, Epsilon: 1,
			},
			{States: [][]float64{{4.5, 3.5}}, MotionStats: map[int]int{}, Delta: 0.3, Epsilon: 1},
		},
		Constraints: [][]cbs.Constraint{nil, {{Time: 0.2, State: []float64{1, 1}}}},
		Cost:        0.1,
		Stats:       cbs.Stats{Expanded: 2, Generated: 3},
	}
	res := NewResult(s, sol)
	test.That(t, res.Delta, test.ShouldEqual, 0.3)
	test.That(t, res.Robots[1].Kind, test.ShouldEqual, robots.SingleIntegrator2D)

	var buf bytes.Buffer
	test.That(t, WriteResult(&buf, res), test.ShouldBeNil)
	var decoded map[string]interface{}
	test.That(t, json.Unmarshal(buf.Bytes(), &decoded), test.ShouldBeNil)
	test.That(t, decoded["cost"], test.ShouldEqual, 0.1)
	stats := decoded["stats"].(map[string]interface{})
	test.That(t, stats["high_level_generated"], test.ShouldEqual, 3.)
	robotResults := decoded["result"].([]interface{})
	test.That(t, len(robotResults), test.ShouldEqual, 2)
	first := robotResults[0].(map[string]interface{})
	test.That(t, first["type"], test.ShouldEqual, "unicycle1")
	test.That(t, first["motion_stats"], test.ShouldResemble, map[string]interface{}{"3": 1.})
	second := robotResults[1].(map[string]interface{})
	test.That(t, len(second["constraints"].([]interface{})), test.ShouldEqual, 1)

	path := filepath.Join(t.TempDir(), "result.json")
	test.That(t, WriteResultFile(path, res), test.ShouldBeNil)
	written, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, written, test.ShouldResemble, buf.Bytes())
}
