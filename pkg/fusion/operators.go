package fusion

import (
	"fmt"

	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// Operator ids are written into the fusion provenance entry and hashed into seals.
const (
	OperatorConflictAware = "otp-cawa-v1.1"
	OperatorOptimistic    = "otp-optimistic-v1.1"
	OperatorPessimistic   = "otp-pessimistic-v1.1"
)

// ConflictAwareWeightedAverage fuses judgments with a weighted mean whose
// weights are discounted by each input's internal conflict T*F.
//
// If every adjusted weight is zero the unweighted mean is used instead. The
// output is a convex combination of the inputs, so it conserves T+I+F <= 1.
func (e *Engine) ConflictAwareWeightedAverage(judgments []*judgment.Judgment, weights []float64) (*judgment.Judgment, error) {
	if err := validateJudgments(judgments); err != nil {
		return nil, err
	}
	if err := validateWeights(weights, len(judgments)); err != nil {
		return nil, err
	}

	adjusted := make([]float64, len(judgments))
	conflicts := make([]float64, len(judgments))
	var total float64
	for idx, j := range judgments {
		conflicts[idx] = j.T() * j.F()
		adjusted[idx] = weights[idx] * (1 - conflicts[idx])
		total += adjusted[idx]
	}

	var r result
	fallback := total == 0
	if fallback {
		r.t, r.i, r.f = mean(judgments)
	} else {
		for idx, j := range judgments {
			r.t += j.T() * adjusted[idx]
			r.i += j.I() * adjusted[idx]
			r.f += j.F() * adjusted[idx]
		}
		r.t /= total
		r.i /= total
		r.f /= total
	}

	r.metadata = map[string]any{
		"operator":         "conflict_aware_weighted_average",
		"input_count":      len(judgments),
		"weights":          weights,
		"conflict_scores":  conflicts,
		"adjusted_weights": adjusted,
		"unweighted_mean":  fallback,
	}

	desc := fmt.Sprintf("Conflict-aware weighted average of %d judgments", len(judgments))
	return e.finish(OperatorConflictAware, desc, judgments, weights, r)
}

// OptimisticFusion takes the highest truth, the lowest falsity and the mean
// indeterminacy, rescaling proportionally when the sum exceeds 1.
func (e *Engine) OptimisticFusion(judgments []*judgment.Judgment) (*judgment.Judgment, error) {
	if err := validateJudgments(judgments); err != nil {
		return nil, err
	}

	r := result{t: judgments[0].T(), f: judgments[0].F()}
	for _, j := range judgments[1:] {
		r.t = max(r.t, j.T())
		r.f = min(r.f, j.F())
	}
	_, r.i, _ = mean(judgments)
	rescaled := rescale(&r)

	r.metadata = map[string]any{
		"operator":    "optimistic_fusion",
		"input_count": len(judgments),
		"rescaled":    rescaled,
	}

	desc := fmt.Sprintf("Optimistic fusion of %d judgments", len(judgments))
	return e.finish(OperatorOptimistic, desc, judgments, unitWeights(len(judgments)), r)
}

// PessimisticFusion takes the lowest truth, the highest falsity and the mean
// indeterminacy, rescaling proportionally when the sum exceeds 1.
func (e *Engine) PessimisticFusion(judgments []*judgment.Judgment) (*judgment.Judgment, error) {
	if err := validateJudgments(judgments); err != nil {
		return nil, err
	}

	r := result{t: judgments[0].T(), f: judgments[0].F()}
	for _, j := range judgments[1:] {
		r.t = min(r.t, j.T())
		r.f = max(r.f, j.F())
	}
	_, r.i, _ = mean(judgments)
	rescaled := rescale(&r)

	r.metadata = map[string]any{
		"operator":    "pessimistic_fusion",
		"input_count": len(judgments),
		"rescaled":    rescaled,
	}

	desc := fmt.Sprintf("Pessimistic fusion of %d judgments", len(judgments))
	return e.finish(OperatorPessimistic, desc, judgments, unitWeights(len(judgments)), r)
}

func mean(judgments []*judgment.Judgment) (t, i, f float64) {
	for _, j := range judgments {
		t += j.T()
		i += j.I()
		f += j.F()
	}
	n := float64(len(judgments))
	return t / n, i / n, f / n
}

// rescale divides all three degrees by their sum when it exceeds 1, keeping
// their ratios.
func rescale(r *result) bool {
	sum := r.t + r.i + r.f
	if sum <= 1.0 {
		return false
	}
	r.t /= sum
	r.i /= sum
	r.f /= sum
	return true
}
