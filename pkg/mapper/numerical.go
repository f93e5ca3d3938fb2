package mapper

import (
	"fmt"
	"math"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// NumericalConfig places three anchor values on the input axis. The points
// must be strictly monotone in either direction; a descending axis means
// "lower is better".
type NumericalConfig struct {
	FalsityPoint       float64 `json:"falsity_point" yaml:"falsity_point"`
	IndeterminacyPoint float64 `json:"indeterminacy_point" yaml:"indeterminacy_point"`
	TruthPoint         float64 `json:"truth_point" yaml:"truth_point"`
	ClampToRange       bool    `json:"clamp_to_range" yaml:"clamp_to_range"`
}

// Numerical interpolates linearly between the anchors:
// F=1 at the falsity point, I=1 at the indeterminacy point, T=1 at the truth
// point. Every output has T+I+F = 1.
type Numerical struct {
	base
	cfg NumericalConfig
}

// NewNumerical builds and validates a numerical mapper.
func NewNumerical(id string, cfg NumericalConfig, opts ...Option) (*Numerical, error) {
	m := &Numerical{base: newBase(id, opts), cfg: cfg}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Numerical) Type() Type { return TypeNumerical }

// Config returns the mapper's parameters.
func (m *Numerical) Config() NumericalConfig { return m.cfg }

func (m *Numerical) Validate() error {
	if m.id == "" {
		return configErr("<numerical>", "id is required")
	}
	c := m.cfg
	for _, p := range []float64{c.FalsityPoint, c.IndeterminacyPoint, c.TruthPoint} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return configErr(m.id, "anchor points must be finite")
		}
	}
	ascending := c.FalsityPoint < c.IndeterminacyPoint && c.IndeterminacyPoint < c.TruthPoint
	descending := c.FalsityPoint > c.IndeterminacyPoint && c.IndeterminacyPoint > c.TruthPoint
	if !ascending && !descending {
		return configErr(m.id, "anchor points must be strictly monotone (falsity, indeterminacy, truth)")
	}
	return nil
}

// Apply accepts any Go integer or float type.
func (m *Numerical) Apply(raw any) (*judgment.Judgment, error) {
	v, ok := toFloat(raw)
	if !ok {
		return nil, inputErr(m.id, "expected a number, got %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, inputErr(m.id, "value must be finite, got %v", v)
	}

	c := m.cfg
	lo, hi := math.Min(c.FalsityPoint, c.TruthPoint), math.Max(c.FalsityPoint, c.TruthPoint)
	mapped := v
	if v < lo || v > hi {
		if !c.ClampToRange {
			return nil, inputErr(m.id, "value %v outside [%v, %v]", v, lo, hi)
		}
		mapped = math.Min(hi, math.Max(lo, v))
	}

	tr := m.interpolate(mapped)
	return m.emit(TypeNumerical, tr, fmt.Sprintf("Numerical mapping of %v", v), v)
}

func (m *Numerical) interpolate(v float64) Triple {
	c := m.cfg
	// Distances are signed along the configured direction so one formula
	// serves both ascending and descending axes.
	toInd := (v - c.FalsityPoint) / (c.IndeterminacyPoint - c.FalsityPoint)
	if toInd <= 1 {
		p := math.Min(1, math.Max(0, toInd))
		return Triple{T: 0, I: p, F: 1 - p}
	}
	p := math.Min(1, math.Max(0, (v-c.IndeterminacyPoint)/(c.TruthPoint-c.IndeterminacyPoint)))
	return Triple{T: p, I: 1 - p, F: 0}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
