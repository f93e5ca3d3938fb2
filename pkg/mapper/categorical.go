package mapper

import (
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// CategoricalConfig assigns a triple to each known label.
type CategoricalConfig struct {
	Mappings        map[string]Triple `json:"mappings" yaml:"mappings"`
	DefaultJudgment *Triple           `json:"default_judgment,omitempty" yaml:"default_judgment,omitempty"`
}

// Categorical maps string labels. Labels are compared in Unicode NFC so that
// composed and decomposed spellings of the same label match.
type Categorical struct {
	base
	mappings map[string]Triple
	fallback *Triple
}

// NewCategorical builds and validates a categorical mapper.
func NewCategorical(id string, cfg CategoricalConfig, opts ...Option) (*Categorical, error) {
	m := &Categorical{
		base:     newBase(id, opts),
		mappings: make(map[string]Triple, len(cfg.Mappings)),
	}
	for label, tr := range cfg.Mappings {
		key := norm.NFC.String(label)
		if _, dup := m.mappings[key]; dup {
			return nil, configErr(id, "labels %q collide after NFC normalisation", label)
		}
		m.mappings[key] = tr
	}
	if cfg.DefaultJudgment != nil {
		d := *cfg.DefaultJudgment
		m.fallback = &d
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Categorical) Type() Type { return TypeCategorical }

// Labels returns the known labels in sorted order.
func (m *Categorical) Labels() []string {
	out := make([]string, 0, len(m.mappings))
	for k := range m.mappings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Categorical) Validate() error {
	if m.id == "" {
		return configErr("<categorical>", "id is required")
	}
	if len(m.mappings) == 0 {
		return configErr(m.id, "at least one mapping is required")
	}
	for _, label := range m.Labels() {
		if label == "" {
			return configErr(m.id, "empty label")
		}
		if err := m.mappings[label].validate(); err != nil {
			return configErr(m.id, "label %q: %v", label, err)
		}
	}
	if m.fallback != nil {
		if err := m.fallback.validate(); err != nil {
			return configErr(m.id, "default judgment: %v", err)
		}
	}
	return nil
}

// Apply accepts a string label. Unknown labels use the default judgment when
// one is configured.
func (m *Categorical) Apply(raw any) (*judgment.Judgment, error) {
	label, ok := raw.(string)
	if !ok {
		return nil, inputErr(m.id, "expected a string category, got %T", raw)
	}
	key := norm.NFC.String(label)

	tr, known := m.mappings[key]
	desc := fmt.Sprintf("Categorical mapping of %q", key)
	if !known {
		if m.fallback == nil {
			return nil, inputErr(m.id, "unknown category %q", label)
		}
		tr = *m.fallback
		desc = fmt.Sprintf("Categorical default for unknown %q", key)
	}
	return m.emit(TypeCategorical, tr, desc, key)
}
