package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/draxork/opentrustprotocol-go/pkg/identity"
	"github.com/draxork/opentrustprotocol-go/pkg/observability"
)

// runOutcomeCmd implements `otp outcome`.
//
// With --links-to it records an outcome judgment; with --for it lists the
// archived outcomes of a judgment.
func runOutcomeCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("outcome", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		linksTo     string
		listFor     string
		t, i, f     float64
		outcomeType string
		oracle      string
	)
	cmd.StringVar(&linksTo, "links-to", "", "Judgment id the outcome refers to")
	cmd.StringVar(&listFor, "for", "", "List archived outcomes for this judgment id")
	cmd.Float64Var(&t, "t", 0, "Truth degree")
	cmd.Float64Var(&i, "i", 0, "Indeterminacy degree")
	cmd.Float64Var(&f, "f", 0, "Falsity degree")
	cmd.StringVar(&outcomeType, "type", string(identity.OutcomeSuccess), "success, failure or partial")
	cmd.StringVar(&oracle, "oracle", "", "Oracle source id")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if (linksTo == "") == (listFor == "") {
		_, _ = fmt.Fprintln(stderr, "Error: exactly one of --links-to or --for is required")
		return 2
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "outcome", stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer rt.close(ctx)

	if listFor != "" {
		if rt.archive == nil {
			_, _ = fmt.Fprintln(stderr, "Error: listing outcomes requires OTP_ARCHIVE_DSN")
			return 2
		}
		outs, err := rt.archive.OutcomesFor(ctx, listFor)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		if outs == nil {
			outs = []*identity.OutcomeJudgment{}
		}
		if err := writeJSON(stdout, outs); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		return 0
	}

	attrs := observability.OutcomeOperation(linksTo, outcomeType)
	ctx, finish := rt.track(ctx, attrs...)
	o, err := identity.CreateOutcomeJudgment(linksTo, t, i, f, identity.OutcomeType(outcomeType), oracle)
	finish(err)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, identity.ErrInvalidOutcome) {
			return 1
		}
		return 2
	}
	rt.obs.RecordJudgment(ctx, attrs...)

	if rt.archive != nil {
		if err := rt.archive.PutOutcome(ctx, o); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: archive: %v\n", err)
			return 2
		}
		rt.logger.Info("outcome archived", "judgment_id", o.JudgmentID(), "links_to", linksTo)
	}
	if err := writeJSON(stdout, o); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
