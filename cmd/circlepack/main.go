package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/circle-packer/internal/export"
	"github.com/eugenenazirov/circle-packer/internal/logging"
	"github.com/eugenenazirov/circle-packer/internal/packing"
	"github.com/eugenenazirov/circle-packer/internal/storage"
)

const formatJSON = "json"

type packOptions struct {
	inputs      packing.Inputs
	preset      string
	pattern     string
	mode        string
	angle       float64
	optimize    bool
	format      string
	output      string
	name        string
	previewSize int
}

type packOutput struct {
	Request packing.Request `json:"request"`
	Result  packing.Result  `json:"result"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "circlepack: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	app := kingpin.New("circlepack", "Circle Packer - compute circle layouts on a rectangular panel and export them")
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").Default("info").String()

	var opts packOptions
	panel := storage.DefaultPanel()
	packCmd := app.Command("pack", "Compute a layout").Default()
	packCmd.Flag("diameter", "Circle diameter").Short('d').Default(formatFloat(panel.Diameter)).Float64Var(&opts.inputs.Diameter)
	packCmd.Flag("clearance", "Minimum gap between circles").Short('c').Default(formatFloat(panel.Clearance)).Float64Var(&opts.inputs.Clearance)
	packCmd.Flag("width", "Panel width").Short('W').Default(formatFloat(panel.Width)).Float64Var(&opts.inputs.Width)
	packCmd.Flag("height", "Panel height").Short('H').Default(formatFloat(panel.Height)).Float64Var(&opts.inputs.Height)
	packCmd.Flag("preset", "Stock layout (overrides pattern, mode and optimize)").StringVar(&opts.preset)
	packCmd.Flag("pattern", "Lattice pattern").Default(string(packing.PatternTriangular)).
		EnumVar(&opts.pattern, string(packing.PatternRectangular), string(packing.PatternTriangular))
	packCmd.Flag("mode", "tight keeps minimum spacing, spread stretches to the panel edges (default tight, spread with --optimize)").
		EnumVar(&opts.mode, string(packing.ModeTight), string(packing.ModeSpread), "full")
	packCmd.Flag("angle", "Triangular lattice angle in degrees, clamped to 30..60").Default("60").Float64Var(&opts.angle)
	packCmd.Flag("optimize", "Search row counts for the angle that fits the most circles").BoolVar(&opts.optimize)
	packCmd.Flag("format", "Output format (json, svg, pdf, dxf, xlsx, png); inferred from --output when omitted").StringVar(&opts.format)
	packCmd.Flag("output", "Output file, - for stdout").Short('o').Default("-").StringVar(&opts.output)
	packCmd.Flag("name", "Drawing title").StringVar(&opts.name)
	packCmd.Flag("preview-size", "Longer side of PNG previews in pixels").Default("1024").IntVar(&opts.previewSize)

	presetsCmd := app.Command("presets", "List stock layouts")

	cmd, err := app.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch cmd {
	case presetsCmd.FullCommand():
		for _, p := range packing.Presets() {
			req := p.Request(panel)
			fmt.Fprintf(stdout, "%-12s %s %s optimize=%t\n", p, req.Pattern, req.Mode, req.Optimize)
		}
		return nil
	default:
		return runPack(opts, stdout, logger)
	}
}

func runPack(opts packOptions, stdout io.Writer, logger *zap.Logger) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := packing.New().Pack(req)
	if err != nil {
		return err
	}
	logger.Info("layout computed",
		zap.String("pattern", string(result.Pattern)),
		zap.Bool("spread", result.Spread),
		zap.Int("count", result.Count),
		zap.Int("rows", result.NumRows),
		zap.Duration("duration", time.Since(start)),
	)

	format := opts.resolveFormat()
	toStdout := opts.output == "" || opts.output == "-"

	if format == formatJSON {
		w := stdout
		if !toStdout {
			f, err := os.Create(opts.output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(packOutput{Request: req, Result: result})
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	sheet := export.Sheet{Name: opts.name, Request: req, Result: result}

	if toStdout {
		return writeSheet(stdout, f, sheet, opts.previewSize)
	}

	if f == export.FormatDXF {
		if err := export.SaveDXF(opts.output, sheet); err != nil {
			return err
		}
	} else {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		if err := writeSheet(file, f, sheet, opts.previewSize); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}

	logger.Info("layout exported", zap.String("format", string(f)), zap.String("path", opts.output))
	return nil
}

func writeSheet(w io.Writer, f export.Format, sheet export.Sheet, previewSize int) error {
	if f == export.FormatPNG {
		return export.PNG(w, sheet, previewSize)
	}
	return export.Write(w, f, sheet)
}

func (o packOptions) request() (packing.Request, error) {
	if o.preset != "" {
		preset, err := packing.ParsePreset(o.preset)
		if err != nil {
			return packing.Request{}, err
		}
		return preset.Request(o.inputs), nil
	}

	pattern, err := packing.ParsePattern(o.pattern)
	if err != nil {
		return packing.Request{}, err
	}
	mode := packing.ModeTight
	if o.optimize {
		mode = packing.ModeSpread
	}
	if o.mode != "" {
		if mode, err = packing.ParseMode(o.mode); err != nil {
			return packing.Request{}, err
		}
	}
	angle := o.angle
	return packing.Request{
		Inputs:   o.inputs,
		Pattern:  pattern,
		Mode:     mode,
		Angle:    &angle,
		Optimize: o.optimize,
	}, nil
}

func (o packOptions) resolveFormat() string {
	if o.format != "" {
		return strings.ToLower(o.format)
	}
	if o.output != "" && o.output != "-" {
		if ext := strings.TrimPrefix(filepath.Ext(o.output), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}
	return formatJSON
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
