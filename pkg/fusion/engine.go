// Package fusion combines neutrosophic judgments into a single judgment.
//
// Every operator is a pure function of its inputs plus the wall clock used for
// the trailing provenance entry. Outputs carry the concatenated input chains,
// one fusion entry stamped with a conformance seal, and an identity entry.
package fusion

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/draxork/opentrustprotocol-go/pkg/conform"
	"github.com/draxork/opentrustprotocol-go/pkg/identity"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// sealFunc matches conform.Generate.
type sealFunc func(judgments []*judgment.Judgment, weights []float64, operatorID string) (string, error)

// Engine runs fusion operators. The zero value is not usable; use NewEngine.
// An Engine holds no per-call state and is safe for concurrent use.
type Engine struct {
	clock  func() time.Time
	logger *slog.Logger
	seal   sealFunc
}

// NewEngine returns an engine using the wall clock and slog.Default.
func NewEngine() *Engine {
	return &Engine{
		clock: time.Now,
		seal:  conform.Generate,
	}
}

// WithClock overrides the clock for deterministic testing.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// WithLogger sets the logger used for non-fatal seal failures.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default().With("component", "fusion")
}

var defaultEngine = NewEngine()

// ConflictAwareWeightedAverage runs the default engine's operator.
func ConflictAwareWeightedAverage(judgments []*judgment.Judgment, weights []float64) (*judgment.Judgment, error) {
	return defaultEngine.ConflictAwareWeightedAverage(judgments, weights)
}

// OptimisticFusion runs the default engine's operator.
func OptimisticFusion(judgments []*judgment.Judgment) (*judgment.Judgment, error) {
	return defaultEngine.OptimisticFusion(judgments)
}

// PessimisticFusion runs the default engine's operator.
func PessimisticFusion(judgments []*judgment.Judgment) (*judgment.Judgment, error) {
	return defaultEngine.PessimisticFusion(judgments)
}

func validateJudgments(judgments []*judgment.Judgment) error {
	if len(judgments) == 0 {
		return judgment.Invalid("judgments", "must not be empty")
	}
	for idx, j := range judgments {
		if j == nil {
			return judgment.Invalid("judgments", "element %d is not a judgment", idx)
		}
	}
	return nil
}

func validateWeights(weights []float64, n int) error {
	if len(weights) != n {
		return judgment.Invalid("weights", "length %d does not match %d judgments", len(weights), n)
	}
	for idx, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return judgment.Invalid("weights", "element %d is not a finite number", idx)
		}
		if w < 0 {
			return judgment.Invalid("weights", "element %d is negative (%g)", idx, w)
		}
	}
	return nil
}

// unitWeights is the seal weighting of the unweighted operators.
func unitWeights(n int) []float64 {
	w := make([]float64, n)
	for idx := range w {
		w[idx] = 1.0
	}
	return w
}

// result is a fused triple before provenance is attached.
type result struct {
	t, i, f  float64
	metadata map[string]any
}

// finish builds the output chain, seals it with conform.Attach and assigns the
// id. A failed seal is logged and replaced by conform.SealUnavailable; it never
// fails the fusion.
func (e *Engine) finish(operatorID, description string, inputs []*judgment.Judgment, sealWeights []float64, r result) (*judgment.Judgment, error) {
	now := e.clock()

	size := 1
	for _, in := range inputs {
		size += in.Len()
	}
	chain := make([]judgment.ProvenanceEntry, 0, size)
	for _, in := range inputs {
		chain = append(chain, in.Provenance()...)
	}

	seal, err := e.seal(inputs, sealWeights, operatorID)
	if err == nil && seal == "" {
		err = errors.New("empty seal")
	}
	if err != nil {
		e.log().Warn("conformance seal generation failed, continuing with sentinel seal",
			"operator", operatorID,
			"inputs", len(inputs),
			"error", err,
		)
		seal = conform.SealUnavailable
	}

	chain = append(chain, judgment.ProvenanceEntry{
		SourceID:    operatorID,
		Timestamp:   judgment.Timestamp(now),
		Description: description,
		Metadata:    r.metadata,
	})

	fused, err := judgment.New(clamp01(r.t), clamp01(r.i), clamp01(r.f), chain)
	if err != nil {
		return nil, err
	}
	sealed, err := conform.Attach(fused, seal)
	if err != nil {
		return nil, err
	}
	return identity.EnsureIDAt(sealed, now)
}

// clamp01 removes float drift from convex combinations and rescaling.
func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
