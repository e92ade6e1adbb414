package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsWidth   = 75.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	qrSize       = 35.0
)

// qrPayload is the JSON encoded into the sheet's QR code so a printed
// sheet can be reproduced.
type qrPayload struct {
	Diameter  float64 `json:"d"`
	Clearance float64 `json:"c"`
	Width     float64 `json:"w"`
	Height    float64 `json:"h"`
	Pattern   string  `json:"pattern"`
	Mode      string  `json:"mode"`
	Angle     *float64 `json:"angle,omitempty"`
	Optimize  bool    `json:"optimize,omitempty"`
	Count     int     `json:"count"`
}

// PDF renders a single A4 landscape page: the scaled layout on the left,
// the results panel and a QR code of the request on the right.
func PDF(w io.Writer, s Sheet) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(s.title(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, s.title(), "", 0, "L", false, 0, "")

	drawLayout(pdf, s)

	statsX := pageWidth - marginRight - statsWidth
	y := drawStats(pdf, s, statsX, drawAreaTop)

	if err := drawRequestQR(pdf, s, statsX, y+5); err != nil {
		return err
	}

	return pdf.Output(w)
}

func drawLayout(pdf *fpdf.Fpdf, s Sheet) {
	in := s.Request.Inputs
	res := s.Result

	drawWidth := pageWidth - marginLeft - marginRight - statsWidth - 10
	drawHeight := pageHeight - drawAreaTop - marginBottom - 10
	scale := math.Min(drawWidth/in.Width, drawHeight/in.Height)

	offsetX := marginLeft
	offsetY := drawAreaTop

	// Panel
	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.4)
	pdf.Rect(offsetX, offsetY, in.Width*scale, in.Height*scale, "FD")

	// Bounding box of the layout
	pdf.SetDrawColor(59, 130, 246)
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1.5, 1.5}, 0)
	pdf.Rect(offsetX, offsetY, res.ActualWidth*scale, res.ActualHeight*scale, "D")
	pdf.SetDashPattern([]float64{}, 0)

	r := in.Diameter / 2 * scale
	pdf.SetFillColor(219, 234, 254)
	for _, c := range res.Circles {
		pdf.Circle(offsetX+c.X*scale, offsetY+c.Y*scale, r, "FD")
	}

	// Dimension labels
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	widthLabel := fmt.Sprintf("%g %s", in.Width, s.unit())
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(in.Width*scale-wLabelW)/2, offsetY+in.Height*scale+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%g %s", in.Height, s.unit())
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+in.Height*scale/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+in.Height*scale/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()
	pdf.SetTextColor(0, 0, 0)
}

// drawStats writes the results panel and returns the y position below it.
func drawStats(pdf *fpdf.Fpdf, s Sheet, x, y float64) float64 {
	in := s.Request.Inputs

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(x, y)
	pdf.CellFormat(statsWidth, 7, "Inputs", "", 0, "L", false, 0, "")
	y += 7

	inputs := []Metric{
		{"Circle diameter", fmt.Sprintf("%g %s", in.Diameter, s.unit())},
		{"Minimum clearance", fmt.Sprintf("%g %s", in.Clearance, s.unit())},
		{"Panel", fmt.Sprintf("%g x %g %s", in.Width, in.Height, s.unit())},
	}
	y = drawMetrics(pdf, inputs, x, y)

	y += 3
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(x, y)
	pdf.CellFormat(statsWidth, 7, "Results", "", 0, "L", false, 0, "")
	y += 7

	return drawMetrics(pdf, Summarize(s), x, y)
}

func drawMetrics(pdf *fpdf.Fpdf, metrics []Metric, x, y float64) float64 {
	pdf.SetFont("Helvetica", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, m := range metrics {
		pdf.SetXY(x, y)
		pdf.CellFormat(32, 5, m.Label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(statsWidth-32, 5, tr(m.Value), "", 0, "L", false, 0, "")
		y += 5
	}
	return y
}

func drawRequestQR(pdf *fpdf.Fpdf, s Sheet, x, y float64) error {
	req := s.Request
	data, err := json.Marshal(qrPayload{
		Diameter:  req.Inputs.Diameter,
		Clearance: req.Inputs.Clearance,
		Width:     req.Inputs.Width,
		Height:    req.Inputs.Height,
		Pattern:   string(req.Pattern),
		Mode:      string(req.Mode),
		Angle:     req.Angle,
		Optimize:  req.Optimize,
		Count:     s.Result.Count,
	})
	if err != nil {
		return fmt.Errorf("marshal QR payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("request-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("request-qr", x, y, qrSize, qrSize, false, opts, 0, "")
	return pdf.Error()
}
