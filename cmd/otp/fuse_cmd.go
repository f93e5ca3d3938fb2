package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/draxork/opentrustprotocol-go/pkg/conform"
	"github.com/draxork/opentrustprotocol-go/pkg/fusion"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
	"github.com/draxork/opentrustprotocol-go/pkg/observability"
)

// runFuseCmd implements `otp fuse`.
//
// Reads a JSON array of judgments, fuses them and prints the sealed result.
func runFuseCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("fuse", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		inPath     string
		operatorID string
		weightsArg string
	)
	cmd.StringVar(&inPath, "in", "", "Path to a JSON array of judgments (REQUIRED)")
	cmd.StringVar(&operatorID, "operator", fusion.OperatorConflictAware, "Fusion operator id")
	cmd.StringVar(&weightsArg, "weights", "", "Comma separated weights, one per input (weighted operators)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --in is required")
		return 2
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "fuse", stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer rt.close(ctx)

	engine := fusion.NewEngine().WithLogger(rt.logger.With("component", "fusion"))
	op, err := engine.Lookup(operatorID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	inputs, err := readJudgments(inPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot read inputs: %v\n", err)
		return 2
	}
	weights, err := parseWeights(weightsArg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if op.Weighted() && weights == nil {
		weights = equalWeights(len(inputs))
	}

	ctx, finish := rt.track(ctx,
		observability.AttrOperatorID.String(op.ID()),
		observability.AttrInputCount.Int(len(inputs)),
	)
	fused, err := op.Fuse(inputs, weights)
	finish(err)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: fusion failed: %v\n", err)
		if errors.Is(err, judgment.ErrValidation) {
			return 1
		}
		return 2
	}

	sealed := true
	if e, err := conform.SealedEntry(fused); err != nil || e.ConformanceSeal == conform.SealUnavailable {
		sealed = false
		rt.logger.Warn("fused judgment carries no usable seal", "operator", op.ID())
	}
	rt.obs.RecordJudgment(ctx, observability.FusionOperation(op.ID(), len(inputs), sealed)...)

	if err := rt.archiveJudgment(ctx, fused); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: archive: %v\n", err)
		return 2
	}
	if err := writeJSON(stdout, fused); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
