package magstripe

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

/*------------------------------------------------------------------
 *
 * Name:        PlotSwipe
 *
 * Purpose:     Draw a captured swipe with the detected reversals
 *		marked, for recalibrating against a new reader.
 *
 * Inputs:	path	- Output file.  The extension picks the format
 *			  (.png, .svg, .pdf, ...).
 *
 *		title	- e.g. the decode result.
 *
 *----------------------------------------------------------------*/

func PlotSwipe(path string, title string, w Waveform, cfg DetectorConfig) error {
	var p = plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Amplitude"

	var trace = make(plotter.XYs, len(w))
	for i, s := range w {
		trace[i].X = float64(i)
		trace[i].Y = float64(s)
	}

	var line, lineErr = plotter.NewLine(trace)
	if lineErr != nil {
		return fmt.Errorf("plotting waveform: %w", lineErr)
	}
	line.Color = color.Gray{Y: 96}

	var marks plotter.XYs
	for at := range Reversals(w, cfg) {
		// The index is one past the end of the pulse.
		var i = min(at, len(w)) - 1
		marks = append(marks, plotter.XY{X: float64(i), Y: float64(w[i])})
	}

	p.Add(plotter.NewGrid(), line)

	if len(marks) > 0 {
		var scatter, scatterErr = plotter.NewScatter(marks)
		if scatterErr != nil {
			return fmt.Errorf("plotting reversals: %w", scatterErr)
		}
		scatter.GlyphStyle = draw.GlyphStyle{
			Color:  color.RGBA{R: 192, G: 32, B: 32, A: 255},
			Radius: vg.Points(2),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(scatter)
	}

	if err := p.Save(16*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}

	return nil
}
