package packing

type latticeEngine struct{}

// New creates an Engine that validates inputs before computing closed-form
// lattice layouts. The package-level Pack* functions skip validation.
func New() Engine {
	return &latticeEngine{}
}

func (e *latticeEngine) Rectangular(in Inputs, spread bool) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	return PackRectangular(in, spread), nil
}

func (e *latticeEngine) Triangular(in Inputs, angle float64, spread bool, forcedRows int) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	return PackTriangular(in, angle, spread, forcedRows), nil
}

func (e *latticeEngine) OptimalAngle(in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	return OptimizeAngle(in), nil
}

func (e *latticeEngine) Pack(req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	mode, _ := ParseMode(string(req.Mode))
	spread := mode == ModeSpread
	switch {
	case req.Pattern == PatternRectangular:
		return PackRectangular(req.Inputs, spread), nil
	case req.Optimize:
		return OptimizeAngle(req.Inputs), nil
	default:
		return PackTriangular(req.Inputs, req.LatticeAngle(), spread, 0), nil
	}
}
