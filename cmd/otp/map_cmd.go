package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/draxork/opentrustprotocol-go/pkg/mapper"
	"github.com/draxork/opentrustprotocol-go/pkg/observability"
)

// runMapCmd implements `otp map`.
//
// Loads mapper definitions (--mappers or OTP_MAPPERS_FILE) and maps one raw
// value. The value is read as JSON when it parses, otherwise as a string, so
// --value 42, --value true and --value VERIFIED all work.
func runMapCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("map", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		mappersPath string
		mapperID    string
		rawValue    string
		list        bool
	)
	cmd.StringVar(&mappersPath, "mappers", "", "Path to the mapper definitions YAML (default $OTP_MAPPERS_FILE)")
	cmd.StringVar(&mapperID, "mapper", "", "Mapper id")
	cmd.StringVar(&rawValue, "value", "", "Raw value to map")
	cmd.BoolVar(&list, "list", false, "List configured mapper ids")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "map", stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer rt.close(ctx)

	if mappersPath == "" {
		mappersPath = rt.cfg.MappersFile
	}
	if mappersPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --mappers or OTP_MAPPERS_FILE is required")
		return 2
	}
	reg, err := mapper.LoadRegistry(mappersPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if list {
		for _, id := range reg.List() {
			m, _ := reg.Get(id)
			_, _ = fmt.Fprintf(stdout, "%s\t%s\n", id, m.Type())
		}
		return 0
	}
	if mapperID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --mapper is required")
		return 2
	}
	m, ok := reg.Get(mapperID)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Error: %v: %s\n", mapper.ErrMapperNotFound, mapperID)
		return 2
	}

	attrs := observability.MapperOperation(m.ID(), string(m.Type()))
	ctx, finish := rt.track(ctx, attrs...)
	j, err := m.Apply(parseRawValue(rawValue))
	finish(err)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, mapper.ErrInput) {
			return 1
		}
		return 2
	}
	rt.obs.RecordJudgment(ctx, attrs...)

	if err := rt.archiveJudgment(ctx, j); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: archive: %v\n", err)
		return 2
	}
	if err := writeJSON(stdout, j); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func parseRawValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
