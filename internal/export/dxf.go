package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/table"
)

// DXF layer names.
const (
	LayerPanel   = "PANEL"
	LayerHoles   = "HOLES"
	LayerCenters = "CENTERS"
)

// SaveDXF writes the layout as a DXF drawing: the panel outline, one
// circle per hole and a cross on every centre. The y axis is flipped so
// the drawing has the CAD origin at the bottom-left corner.
func SaveDXF(path string, s Sheet) error {
	in := s.Request.Inputs
	flip := func(y float64) float64 { return in.Height - y }

	d := dxf.NewDrawing()

	if _, err := d.AddLayer(LayerPanel, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add panel layer: %w", err)
	}
	corners := [][2]float64{{0, 0}, {in.Width, 0}, {in.Width, in.Height}, {0, in.Height}}
	for i, a := range corners {
		b := corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return fmt.Errorf("draw panel edge: %w", err)
		}
	}

	if _, err := d.AddLayer(LayerHoles, color.Cyan, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("add holes layer: %w", err)
	}
	r := in.Diameter / 2
	for _, c := range s.Result.Circles {
		if _, err := d.Circle(c.X, flip(c.Y), 0, r); err != nil {
			return fmt.Errorf("draw circle: %w", err)
		}
	}

	if _, err := d.AddLayer(LayerCenters, color.Red, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("add centers layer: %w", err)
	}
	mark := r / 4
	for _, c := range s.Result.Circles {
		x, y := c.X, flip(c.Y)
		if _, err := d.Line(x-mark, y, 0, x+mark, y, 0); err != nil {
			return fmt.Errorf("draw center mark: %w", err)
		}
		if _, err := d.Line(x, y-mark, 0, x, y+mark, 0); err != nil {
			return fmt.Errorf("draw center mark: %w", err)
		}
	}

	return d.SaveAs(path)
}

// DXF streams the drawing produced by SaveDXF. The dxf package only writes
// to named files, so the drawing goes through a temporary directory.
func DXF(w io.Writer, s Sheet) error {
	dir, err := os.MkdirTemp("", "circle-packer-dxf")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "layout.dxf")
	if err := SaveDXF(path, s); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open DXF: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy DXF: %w", err)
	}
	return nil
}
