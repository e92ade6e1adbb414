package export

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// svgScale converts layout units to integer SVG user units (hundredths).
const svgScale = 100

const (
	panelStyle    = "fill:#fafafa;stroke:#e5e7eb"
	boundsStyle   = "fill:none;stroke:#3b82f6;stroke-dasharray:%d,%d"
	circleStyle   = "fill:#93c5fd;fill-opacity:0.15;stroke:#3b82f6"
	centerStyle   = "fill:#3b82f6"
	dimLineStyle  = "stroke:#94a3b8"
	dimTextStyle  = "text-anchor:middle;fill:#64748b;font-family:sans-serif"
	boxTextStyle  = "text-anchor:middle;fill:#3b82f6;font-family:sans-serif"
	svgPixelWidth = 800
)

// SVGOption configures the SVG renderer.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	centers    bool
	dimensions bool
}

// WithoutCenters hides the centre dots.
func WithoutCenters() SVGOption { return func(r *svgRenderer) { r.centers = false } }

// WithoutDimensions hides dimension lines and labels.
func WithoutDimensions() SVGOption { return func(r *svgRenderer) { r.dimensions = false } }

// svgMetrics mirrors the proportions of the interactive preview: padding,
// font and stroke grow with the panel so labels stay readable.
type svgMetrics struct {
	padX, padY   int
	fontSize     int
	stroke       int
	dimOffset    int
	textOffset   int
	centerRadius int
}

func newSVGMetrics(width, height float64) svgMetrics {
	f := math.Max(width, height) / 400
	return svgMetrics{
		padX:         scaled(40 * f),
		padY:         scaled(30 * f),
		fontSize:     max(1, scaled(12*f)),
		stroke:       max(1, scaled(0.5*f)),
		dimOffset:    scaled(15 * f),
		textOffset:   scaled(30 * f),
		centerRadius: max(1, scaled(1.5*f)),
	}
}

func scaled(v float64) int {
	return int(math.Round(v * svgScale))
}

// SVG draws the panel, the bounding box of the layout and every circle,
// annotated with panel and bounding box dimensions.
func SVG(w io.Writer, s Sheet, opts ...SVGOption) error {
	r := svgRenderer{centers: true, dimensions: true}
	for _, opt := range opts {
		opt(&r)
	}

	in := s.Request.Inputs
	res := s.Result
	m := newSVGMetrics(in.Width, in.Height)

	panelW, panelH := scaled(in.Width), scaled(in.Height)
	viewW, viewH := panelW+2*m.padX, panelH+2*m.padY
	pixelH := int(math.Round(float64(svgPixelWidth) * float64(viewH) / float64(viewW)))

	cw := &errWriter{w: w}
	canvas := svg.New(cw)
	canvas.Startview(svgPixelWidth, pixelH, -m.padX, -m.padY, viewW, viewH)
	canvas.Title(s.title())

	stroke := fmt.Sprintf(";stroke-width:%d", m.stroke)
	canvas.Rect(0, 0, panelW, panelH, panelStyle+stroke)
	canvas.Rect(0, 0, scaled(res.ActualWidth), scaled(res.ActualHeight),
		fmt.Sprintf(boundsStyle, 5*m.stroke, 5*m.stroke)+stroke)

	radius := scaled(in.Diameter / 2)
	canvas.Gid("circles")
	for _, c := range res.Circles {
		canvas.Circle(scaled(c.X), scaled(c.Y), radius, circleStyle+stroke)
	}
	canvas.Gend()

	if r.centers {
		canvas.Gid("centers")
		for _, c := range res.Circles {
			canvas.Circle(scaled(c.X), scaled(c.Y), m.centerRadius, centerStyle)
		}
		canvas.Gend()
	}

	if r.dimensions {
		drawSVGDimensions(canvas, s, m)
	}

	canvas.End()
	return cw.err
}

func drawSVGDimensions(canvas *svg.SVG, s Sheet, m svgMetrics) {
	in := s.Request.Inputs
	res := s.Result
	unit := s.unit()
	panelW, panelH := scaled(in.Width), scaled(in.Height)
	font := fmt.Sprintf(";font-size:%d", m.fontSize)
	line := fmt.Sprintf("%s;stroke-width:%d", dimLineStyle, m.stroke)

	y := panelH + m.dimOffset
	canvas.Line(0, y, panelW, y, line)
	canvas.Text(panelW/2, panelH+m.textOffset, fmt.Sprintf("%g %s", in.Width, unit), dimTextStyle+font)

	x := panelW + m.dimOffset
	canvas.Line(x, 0, x, panelH, line)
	tx := panelW + m.textOffset
	canvas.Gtransform(fmt.Sprintf("rotate(-90 %d %d)", tx, panelH/2))
	canvas.Text(tx, panelH/2, fmt.Sprintf("%g %s", in.Height, unit), dimTextStyle+font)
	canvas.Gend()

	// Tight layouts get their own, smaller bounding box annotated above and left.
	if res.Spread || res.ActualWidth == in.Width {
		return
	}
	boxW, boxH := scaled(res.ActualWidth), scaled(res.ActualHeight)
	dashed := fmt.Sprintf("stroke:#3b82f6;stroke-width:%d;stroke-dasharray:%d,%d", m.stroke, 5*m.stroke, 5*m.stroke)

	canvas.Line(0, -m.dimOffset, boxW, -m.dimOffset, dashed)
	canvas.Text(boxW/2, -m.textOffset, fmt.Sprintf("%.1f %s", res.ActualWidth, unit), boxTextStyle+font)

	canvas.Line(-m.dimOffset, 0, -m.dimOffset, boxH, dashed)
	canvas.Gtransform(fmt.Sprintf("rotate(-90 %d %d)", -m.textOffset, boxH/2))
	canvas.Text(-m.textOffset, boxH/2, fmt.Sprintf("%.1f %s", res.ActualHeight, unit), boxTextStyle+font)
	canvas.Gend()
}

// errWriter remembers the first write error; svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
