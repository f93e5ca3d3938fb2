// Package store archives judgments and outcome judgments by their content id.
package store

import (
	"context"
	"errors"

	"github.com/draxork/opentrustprotocol-go/pkg/identity"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("store: not found")

// Archive persists judgments keyed by judgment id, and the outcomes that
// link back to them.
type Archive interface {
	// PutJudgment stores j and returns the id it is filed under. Storing the
	// same judgment twice is a no-op.
	PutJudgment(ctx context.Context, j *judgment.Judgment) (string, error)
	GetJudgment(ctx context.Context, id string) (*judgment.Judgment, error)
	PutOutcome(ctx context.Context, o *identity.OutcomeJudgment) error
	// OutcomesFor lists outcomes linked to judgmentID, oldest first.
	OutcomesFor(ctx context.Context, judgmentID string) ([]*identity.OutcomeJudgment, error)
	Close() error
}

// KeyFor returns the id a judgment is archived under: the id recorded on its
// final entry when present, otherwise its computed content id.
func KeyFor(j *judgment.Judgment) (string, error) {
	if id, ok := identity.FindID(j); ok {
		return id, nil
	}
	return identity.GenerateID(j)
}
