package fusion

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// ErrUnknownOperator is returned by Lookup for ids no operator answers to.
var ErrUnknownOperator = errors.New("unknown fusion operator")

// Operator is a fusion algorithm addressable by its id.
type Operator interface {
	// ID is the versioned id written into provenance, e.g. "otp-cawa-v1.1".
	ID() string
	// Weighted reports whether Fuse consumes caller weights.
	Weighted() bool
	// SealWeights returns the weights the operator seals n inputs with.
	SealWeights(n int, weights []float64) []float64
	// Fuse runs the algorithm. Unweighted operators ignore weights.
	Fuse(judgments []*judgment.Judgment, weights []float64) (*judgment.Judgment, error)
}

var operatorIDPattern = regexp.MustCompile(`^(otp-[a-z][a-z0-9-]*?)-v(\d+(?:\.\d+){0,2})$`)

// ParseOperatorID splits an id such as "otp-cawa-v1.1" into its name and version.
func ParseOperatorID(id string) (string, *semver.Version, error) {
	m := operatorIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", nil, fmt.Errorf("%w: malformed operator id %q", ErrUnknownOperator, id)
	}
	v, err := semver.NewVersion(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: operator %q version: %v", ErrUnknownOperator, id, err)
	}
	return m[1], v, nil
}

type operator struct {
	id       string
	weighted bool
	fuse     func(js []*judgment.Judgment, ws []float64) (*judgment.Judgment, error)
}

func (o operator) ID() string     { return o.id }
func (o operator) Weighted() bool { return o.weighted }

func (o operator) SealWeights(n int, weights []float64) []float64 {
	if o.weighted {
		return weights
	}
	return unitWeights(n)
}

func (o operator) Fuse(js []*judgment.Judgment, ws []float64) (*judgment.Judgment, error) {
	return o.fuse(js, ws)
}

// Operators lists the engine's operators ordered by id.
func (e *Engine) Operators() []Operator {
	ops := []Operator{
		operator{id: OperatorConflictAware, weighted: true, fuse: e.ConflictAwareWeightedAverage},
		operator{id: OperatorOptimistic, fuse: func(js []*judgment.Judgment, _ []float64) (*judgment.Judgment, error) {
			return e.OptimisticFusion(js)
		}},
		operator{id: OperatorPessimistic, fuse: func(js []*judgment.Judgment, _ []float64) (*judgment.Judgment, error) {
			return e.PessimisticFusion(js)
		}},
	}
	sort.Slice(ops, func(a, b int) bool { return ops[a].ID() < ops[b].ID() })
	return ops
}

// Lookup resolves an operator id. Any version within the same major version of
// a known operator resolves to the current implementation; the returned
// operator always reports the current id.
func (e *Engine) Lookup(id string) (Operator, error) {
	name, version, err := ParseOperatorID(id)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Operators() {
		opName, opVersion, err := ParseOperatorID(op.ID())
		if err != nil {
			return nil, err
		}
		if opName != name {
			continue
		}
		constraint, err := semver.NewConstraint(fmt.Sprintf("^%d", opVersion.Major()))
		if err != nil {
			return nil, err
		}
		if !constraint.Check(version) {
			return nil, fmt.Errorf("%w: %s is not compatible with %s", ErrUnknownOperator, id, op.ID())
		}
		return op, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, id)
}

// Lookup resolves id against the default engine.
func Lookup(id string) (Operator, error) {
	return defaultEngine.Lookup(id)
}

// Operators lists the default engine's operators.
func Operators() []Operator {
	return defaultEngine.Operators()
}
