// Package export renders computed circle layouts to files: SVG and PNG
// previews, a printable PDF sheet, a DXF drawing for CAD/CAM and an XLSX
// coordinate table. Exporters only read a packing.Result; they never
// change the geometry.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eugenenazirov/circle-packer/internal/packing"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported format names.
var ErrUnknownFormat = errors.New("unknown export format")

// Format identifies an output file type.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
	FormatDXF  Format = "dxf"
	FormatXLSX Format = "xlsx"
	FormatPNG  Format = "png"
)

var contentTypes = map[Format]string{
	FormatSVG:  "image/svg+xml",
	FormatPDF:  "application/pdf",
	FormatDXF:  "application/dxf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPNG:  "image/png",
}

// ParseFormat converts a case-insensitive format name into a Format.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
	return f, nil
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	return contentTypes[f]
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Sheet is a computed layout together with the request that produced it.
type Sheet struct {
	Name    string
	Unit    string
	Request packing.Request
	Result  packing.Result
}

func (s Sheet) unit() string {
	if s.Unit == "" {
		return "mm"
	}
	return s.Unit
}

func (s Sheet) title() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s packing, %d circles", s.Result.Pattern, s.Result.Count)
}

// Write renders the sheet in the given format.
func Write(w io.Writer, f Format, s Sheet) error {
	switch f {
	case FormatSVG:
		return SVG(w, s)
	case FormatPDF:
		return PDF(w, s)
	case FormatDXF:
		return DXF(w, s)
	case FormatXLSX:
		return XLSX(w, s)
	case FormatPNG:
		return PNG(w, s, defaultPreviewSize)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
