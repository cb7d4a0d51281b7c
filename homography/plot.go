package homography

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	truthColor     = color.RGBA{G: 160, A: 255}
	projectedColor = color.RGBA{R: 220, A: 255}
	errorColor     = color.RGBA{R: 140, G: 140, B: 140, A: 255}
)

// SaveAccuracyPlot writes a chart of the calibration world points beside
// the transformed image points, joined by their error segments.  The image
// format follows the file extension of path.
func (c *Calculator) SaveAccuracyPlot(path string) error {

	sol := c.sol.Load()

	if sol == nil {
		return ErrNotCalibrated
	}

	truth := make(plotter.XYs, len(sol.Points))
	projected := make(plotter.XYs, len(sol.Points))
	labels := make([]string, len(sol.Points))

	for i, p := range sol.Points {
		w := sol.Matrix.Apply(p.Pixel)
		truth[i].X, truth[i].Y = p.World.X, p.World.Y
		projected[i].X, projected[i].Y = w.X, w.Y
		labels[i] = fmt.Sprintf("%d", i+1)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Homography accuracy, mean error %.3f", mean(sol.Errors))
	p.X.Label.Text = "World X"
	p.Y.Label.Text = "World Y"
	p.Add(plotter.NewGrid())

	for i := range truth {
		seg, err := plotter.NewLine(plotter.XYs{truth[i], projected[i]})
		if err != nil {
			return fmt.Errorf("error creating error segment: %w", err)
		}
		seg.LineStyle.Color = errorColor
		seg.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(seg)
	}

	ts, err := plotter.NewScatter(truth)
	if err != nil {
		return fmt.Errorf("error creating ground truth series: %w", err)
	}
	ts.GlyphStyle.Color = truthColor
	ts.GlyphStyle.Shape = draw.CircleGlyph{}
	ts.GlyphStyle.Radius = vg.Points(4)

	ps, err := plotter.NewScatter(projected)
	if err != nil {
		return fmt.Errorf("error creating transformed series: %w", err)
	}
	ps.GlyphStyle.Color = projectedColor
	ps.GlyphStyle.Shape = draw.CrossGlyph{}
	ps.GlyphStyle.Radius = vg.Points(4)

	lb, err := plotter.NewLabels(plotter.XYLabels{XYs: truth, Labels: labels})
	if err != nil {
		return fmt.Errorf("error creating point labels: %w", err)
	}

	p.Add(ts, ps, lb)
	p.Legend.Add("Ground truth", ts)
	p.Legend.Add("Transformed", ps)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving accuracy plot: %w", err)
	}

	return nil
}
