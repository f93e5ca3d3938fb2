package main

import (
	"fmt"
	"io"
	"os"
)

const version = "1.1.0"

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
//
// Exit codes:
//
//	0 = success
//	1 = the operation ran and the answer is negative (invalid seal, rejected input)
//	2 = usage or runtime error
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "fuse":
		return runFuseCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "id":
		return runIDCmd(args[2:], stdout, stderr)
	case "map":
		return runMapCmd(args[2:], stdout, stderr)
	case "outcome":
		return runOutcomeCmd(args[2:], stdout, stderr)
	case "operators":
		return runOperatorsCmd(stdout)
	case "version", "--version":
		_, _ = fmt.Fprintf(stdout, "otp %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "otp %s: neutrosophic judgments with conformance seals\n\n", version)
	_, _ = fmt.Fprintln(w, "USAGE:")
	_, _ = fmt.Fprintln(w, "  otp <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "COMMANDS:")
	printCommand(w, "fuse", "Fuse judgments (--in, --operator, --weights)")
	printCommand(w, "verify", "Verify a conformance seal (--fused, --inputs, --weights)")
	printCommand(w, "id", "Compute or assign a judgment id (--in, --assign)")
	printCommand(w, "map", "Map a raw value with a configured mapper (--mapper, --value)")
	printCommand(w, "outcome", "Record or list outcome judgments (--links-to, --for)")
	printCommand(w, "operators", "List fusion operators")
	printCommand(w, "version", "Show version information")
	printCommand(w, "help", "Show this help")
}

func printCommand(w io.Writer, name, desc string) {
	_, _ = fmt.Fprintf(w, "  %-10s %s\n", name, desc)
}
