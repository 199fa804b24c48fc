package scenario

import (
	"fmt"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// points used to draw spherical obstacles.
const circleSegments = 32

var obstacleColor = color.Gray{Y: 170}

// obstacleOutline returns the footprint of an obstacle in the plane.
func obstacleOutline(o Obstacle) plotter.XYs {
	cx, cy := o.Center[0], o.Center[1]
	if o.Type == SphereObstacle {
		xys := make(plotter.XYs, circleSegments)
		for i := range xys {
			a := 2 * math.Pi * float64(i) / circleSegments
			xys[i] = plotter.XY{X: cx + o.Radius*math.Cos(a), Y: cy + o.Radius*math.Sin(a)}
		}
		return xys
	}
	hx, hy := o.Size[0]/2, o.Size[1]/2
	c, s := math.Cos(o.Yaw), math.Sin(o.Yaw)
	xys := make(plotter.XYs, 0, 4)
	for _, corner := range [][2]float64{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}} {
		xys = append(xys, plotter.XY{
			X: cx + c*corner[0] - s*corner[1],
			Y: cy + s*corner[0] + c*corner[1],
		})
	}
	return xys
}

// Plot draws the obstacles and the robot paths, projected on the plane, into an image file.
// The format follows the file extension.
func Plot(s *Scenario, res *Result, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("cost %.2f", res.Cost)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.X.Min, p.X.Max = s.Environment.Min[0], s.Environment.Max[0]
	p.Y.Min, p.Y.Max = s.Environment.Min[1], s.Environment.Max[1]

	for i, o := range s.Environment.Obstacles {
		poly, err := plotter.NewPolygon(obstacleOutline(o))
		if err != nil {
			return errors.Wrapf(err, "drawing obstacle %d", i)
		}
		poly.Color = obstacleColor
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
	for i, r := range res.Robots {
		xys := make(plotter.XYs, len(r.States))
		for k, state := range r.States {
			xys[k] = plotter.XY{X: state[0], Y: state[1]}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "drawing robot %d", i)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%d %s", i, r.Kind), line)
	}
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
