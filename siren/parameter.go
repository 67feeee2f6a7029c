package siren

import (
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Curve selects how a normalized reading is spread over a parameter range.
type Curve int

const (
	Linear Curve = iota
	Logarithmic
)

func (c Curve) String() string {
	switch c {
	case Linear:
		return "linear"
	case Logarithmic:
		return "logarithmic"
	default:
		return fmt.Sprintf("Curve(%d)", int(c))
	}
}

// Parameter maps a normalized control reading onto [Min, Max].
type Parameter struct {
	Min   float64
	Max   float64
	Curve Curve
}

// Validate reports configurations that Process cannot honour.
func (p Parameter) Validate() error {
	if math.IsNaN(p.Min) || math.IsNaN(p.Max) || math.IsInf(p.Min, 0) || math.IsInf(p.Max, 0) {
		return fmt.Errorf("range must be finite: [%g, %g]", p.Min, p.Max)
	}
	if p.Max < p.Min {
		return fmt.Errorf("max %g below min %g", p.Max, p.Min)
	}
	switch p.Curve {
	case Linear:
	case Logarithmic:
		if p.Min <= 0 {
			return fmt.Errorf("logarithmic curve needs min > 0, got %g", p.Min)
		}
	default:
		return fmt.Errorf("unknown curve %v", p.Curve)
	}
	return nil
}

// Process maps raw (clamped to [0,1]) onto the range.
func (p Parameter) Process(raw float64) float64 {
	raw = dspcore.Clamp(raw, 0, 1)
	var v float64
	switch p.Curve {
	case Logarithmic:
		switch raw {
		case 0:
			return p.Min
		case 1:
			return p.Max
		}
		v = p.Min * math.Pow(p.Max/p.Min, raw)
	default:
		v = p.Min + raw*(p.Max-p.Min)
	}
	return dspcore.Clamp(v, p.Min, p.Max)
}
