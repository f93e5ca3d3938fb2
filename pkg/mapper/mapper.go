// Package mapper turns raw numeric, categorical and boolean observations into
// judgments. Inputs are never coerced: a value of the wrong type or shape is
// an *InputError.
package mapper

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// Type names a mapper family.
type Type string

const (
	TypeNumerical   Type = "numerical"
	TypeCategorical Type = "categorical"
	TypeBoolean     Type = "boolean"
)

// Mapper converts one raw value into a judgment.
type Mapper interface {
	ID() string
	Type() Type
	// Apply maps raw to a judgment whose single provenance entry names the mapper.
	Apply(raw any) (*judgment.Judgment, error)
	// Validate checks the mapper's own configuration.
	Validate() error
}

var (
	// ErrInput is matched by every *InputError.
	ErrInput = errors.New("mapper input rejected")
	// ErrConfig reports an invalid mapper configuration.
	ErrConfig = errors.New("invalid mapper configuration")
)

// InputError reports a raw value a mapper refuses to map.
type InputError struct {
	MapperID string
	Reason   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("mapper %s: input: %s", e.MapperID, e.Reason)
}

// Is reports ErrInput as a match.
func (e *InputError) Is(target error) bool { return target == ErrInput }

func inputErr(id, format string, args ...any) error {
	return &InputError{MapperID: id, Reason: fmt.Sprintf(format, args...)}
}

func configErr(id, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, id, fmt.Sprintf(format, args...))
}

// Triple is a bare (T, I, F) assignment used in mapper configuration.
type Triple struct {
	T float64 `json:"T" yaml:"T"`
	I float64 `json:"I" yaml:"I"`
	F float64 `json:"F" yaml:"F"`
}

func (t Triple) validate() error {
	for _, d := range []float64{t.T, t.I, t.F} {
		if math.IsNaN(d) || d < 0 || d > 1 {
			return fmt.Errorf("degrees must be within [0, 1]: %+v", t)
		}
	}
	if t.T+t.I+t.F > 1.0+judgment.Tolerance {
		return fmt.Errorf("conservation constraint violated: %+v", t)
	}
	return nil
}

// base carries what every mapper shares.
type base struct {
	id    string
	clock func() time.Time
}

func (b base) ID() string { return b.id }

func (b base) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now()
}

// emit builds the output judgment with one provenance entry for this mapping.
func (b base) emit(typ Type, tr Triple, description string, input any) (*judgment.Judgment, error) {
	return judgment.New(tr.T, tr.I, tr.F, []judgment.ProvenanceEntry{{
		SourceID:    b.id,
		Timestamp:   judgment.Timestamp(b.now()),
		Description: description,
		Metadata: map[string]any{
			"mapper_type": string(typ),
			"input":       input,
		},
	}})
}

// Option configures a mapper.
type Option func(*base)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(b *base) { b.clock = clock }
}

func newBase(id string, opts []Option) base {
	b := base{id: id}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
