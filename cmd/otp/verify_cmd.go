package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/draxork/opentrustprotocol-go/pkg/conform"
	"github.com/draxork/opentrustprotocol-go/pkg/fusion"
	"github.com/draxork/opentrustprotocol-go/pkg/observability"
)

type verifyReport struct {
	Valid    bool   `json:"valid"`
	Operator string `json:"operator"`
	Seal     string `json:"seal"`
	Inputs   int    `json:"inputs"`
}

// runVerifyCmd implements `otp verify`.
//
// Regenerates the seal of a fused judgment from its inputs and weights.
//
// Exit codes:
//
//	0 = seal matches
//	1 = seal does not match
//	2 = runtime error
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		fusedPath  string
		inputsPath string
		weightsArg string
		jsonOutput bool
	)
	cmd.StringVar(&fusedPath, "fused", "", "Path to the fused judgment (REQUIRED)")
	cmd.StringVar(&inputsPath, "inputs", "", "Path to the JSON array of input judgments (REQUIRED)")
	cmd.StringVar(&weightsArg, "weights", "", "Comma separated weights used for weighted operators")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if fusedPath == "" || inputsPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --fused and --inputs are required")
		return 2
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "verify", stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer rt.close(ctx)

	fused, err := readJudgment(fusedPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot read fused judgment: %v\n", err)
		return 2
	}
	inputs, err := readJudgments(inputsPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot read inputs: %v\n", err)
		return 2
	}
	entry, err := conform.SealedEntry(fused)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	weights, err := parseWeights(weightsArg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	// Unweighted operators seal with unit weights whatever the caller passes.
	if op, err := fusion.Lookup(entry.SourceID); err == nil {
		switch {
		case !op.Weighted():
			weights = op.SealWeights(len(inputs), nil)
		case weights == nil:
			weights = equalWeights(len(inputs))
		}
	}

	ctx, finish := rt.track(ctx, observability.AttrOperatorID.String(entry.SourceID))
	valid, err := conform.VerifyWithInputs(fused, inputs, weights)
	finish(err)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	observability.AddSpanEvent(ctx, "seal.verified", observability.VerifyOperation(entry.SourceID, valid)...)
	rt.logger.Info("seal verified", "operator", entry.SourceID, "valid", valid)

	report := verifyReport{Valid: valid, Operator: entry.SourceID, Seal: entry.ConformanceSeal, Inputs: len(inputs)}
	if jsonOutput {
		if err := writeJSON(stdout, report); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	} else if valid {
		_, _ = fmt.Fprintf(stdout, "VALID seal %s (%s, %d inputs)\n", report.Seal, report.Operator, report.Inputs)
	} else {
		_, _ = fmt.Fprintf(stdout, "INVALID seal %s (%s, %d inputs)\n", report.Seal, report.Operator, report.Inputs)
	}
	if !valid {
		return 1
	}
	return 0
}
