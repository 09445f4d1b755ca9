package tracker

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot draws data, indexed by episode, as a line and saves the figure
// to filename. The image format is determined by the file extension,
// e.g. ".png" or ".svg".
func Plot(data []float64, title, yLabel, filename string) error {
	if len(data) == 0 {
		return fmt.Errorf("plot: no data to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = yLabel

	points := make(plotter.XYs, len(data))
	for i, y := range data {
		points[i].X = float64(i)
		points[i].Y = y
	}

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("plot: could not create line: %v", err)
	}
	p.Add(line, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("plot: could not save figure: %v", err)
	}
	return nil
}
