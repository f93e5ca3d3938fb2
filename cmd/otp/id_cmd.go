package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/draxork/opentrustprotocol-go/pkg/identity"
)

// runIDCmd implements `otp id`: prints the content id of a judgment, or with
// --assign prints the judgment with an id entry appended.
func runIDCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("id", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		inPath string
		assign bool
	)
	cmd.StringVar(&inPath, "in", "", "Path to a judgment (REQUIRED)")
	cmd.BoolVar(&assign, "assign", false, "Print the judgment with its id entry instead of the bare id")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --in is required")
		return 2
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "id", stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer rt.close(ctx)

	j, err := readJudgment(inPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: cannot read judgment: %v\n", err)
		return 2
	}

	ctx, finish := rt.track(ctx)
	if !assign {
		id, err := identity.GenerateID(j)
		finish(err)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		_, _ = fmt.Fprintln(stdout, id)
		return 0
	}

	withID, err := identity.EnsureID(j)
	finish(err)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if err := rt.archiveJudgment(ctx, withID); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: archive: %v\n", err)
		return 2
	}
	if err := writeJSON(stdout, withID); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
