package mapper

import (
	"fmt"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// BooleanConfig gives the triple for each truth value.
type BooleanConfig struct {
	TrueMap  Triple `json:"true_map" yaml:"true_map"`
	FalseMap Triple `json:"false_map" yaml:"false_map"`
}

// Boolean maps Go bool values only; 0/1 and "true"/"false" are rejected.
type Boolean struct {
	base
	cfg BooleanConfig
}

// NewBoolean builds and validates a boolean mapper.
func NewBoolean(id string, cfg BooleanConfig, opts ...Option) (*Boolean, error) {
	m := &Boolean{base: newBase(id, opts), cfg: cfg}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Boolean) Type() Type { return TypeBoolean }

func (m *Boolean) Validate() error {
	if m.id == "" {
		return configErr("<boolean>", "id is required")
	}
	if err := m.cfg.TrueMap.validate(); err != nil {
		return configErr(m.id, "true_map: %v", err)
	}
	if err := m.cfg.FalseMap.validate(); err != nil {
		return configErr(m.id, "false_map: %v", err)
	}
	return nil
}

func (m *Boolean) Apply(raw any) (*judgment.Judgment, error) {
	v, ok := raw.(bool)
	if !ok {
		return nil, inputErr(m.id, "expected a bool, got %T", raw)
	}
	tr := m.cfg.FalseMap
	if v {
		tr = m.cfg.TrueMap
	}
	return m.emit(TypeBoolean, tr, fmt.Sprintf("Boolean mapping of %t", v), v)
}
