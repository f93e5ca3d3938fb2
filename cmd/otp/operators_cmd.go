package main

import (
	"fmt"
	"io"

	"github.com/draxork/opentrustprotocol-go/pkg/fusion"
)

func runOperatorsCmd(stdout io.Writer) int {
	for _, op := range fusion.Operators() {
		kind := "unweighted"
		if op.Weighted() {
			kind = "weighted"
		}
		_, _ = fmt.Fprintf(stdout, "%s\t%s\n", op.ID(), kind)
	}
	return 0
}
