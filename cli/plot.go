package cli

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/meshbvh/bvh"
)

const (
	outFlag   = "out"
	depthFlag = "max-depth"
)

// leafOutline is the xy rectangle of a leaf box as a closed polyline.
func leafOutline(leaf bvh.Leaf) plotter.XYs {
	lo, hi := leaf.Bounds.Min, leaf.Bounds.Max
	return plotter.XYs{
		{X: lo.X, Y: lo.Y},
		{X: hi.X, Y: lo.Y},
		{X: hi.X, Y: hi.Y},
		{X: lo.X, Y: hi.Y},
		{X: lo.X, Y: lo.Y},
	}
}

// PlotAction is the corresponding Action for 'plot'. It draws the xy footprint of every leaf no
// deeper than --max-depth, shading deeper leaves darker.
func PlotAction(c *cli.Context) error {
	path := c.Path(outFlag)
	if path == "" {
		return errors.New("--out is required")
	}
	s, err := setupCommand(c)
	if err != nil {
		return err
	}
	if !s.h.HasGeometry() {
		return errors.New("mesh has no faces to plot")
	}

	maxDepth := c.Int(depthFlag)
	deepest := s.h.BuildStats().MaxDepth
	p := plot.New()
	p.Title.Text = c.String(meshFlag) + " leaves"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	drawn := 0
	for _, leaf := range s.h.Leaves() {
		if maxDepth > 0 && leaf.Depth > maxDepth {
			continue
		}
		line, err := plotter.NewLine(leafOutline(leaf))
		if err != nil {
			return err
		}
		shade := uint8(200)
		if deepest > 0 {
			shade = uint8(200 - 200*leaf.Depth/deepest)
		}
		line.Color = color.RGBA{R: shade, G: shade, B: 255, A: 255}
		p.Add(line)
		drawn++
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "cannot save plot to %q", path)
	}
	s.logger.Debugw("saved leaf plot", "path", path, "leaves", drawn)
	printf(c.App.Writer, "plotted %d leaves to %s", drawn, path)
	return nil
}
