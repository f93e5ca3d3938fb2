package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/draxork/opentrustprotocol-go/pkg/config"
	"github.com/draxork/opentrustprotocol-go/pkg/judgment"
	"github.com/draxork/opentrustprotocol-go/pkg/observability"
	"github.com/draxork/opentrustprotocol-go/pkg/store"
)

// runtime is the per-invocation environment shared by every command.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	obs     *observability.Provider
	archive store.Archive
	runID   string
	command string
}

func newRuntime(ctx context.Context, command string, stderr io.Writer) (*runtime, error) {
	cfg := config.Load()
	runID := uuid.NewString()
	logger := cfg.NewLogger(stderr).With("component", "cli", "command", command, "run_id", runID)
	slog.SetDefault(logger)

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "otp",
		ServiceVersion: version,
		Environment:    "cli",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MetricInterval: 15 * time.Second,
		Enabled:        cfg.OTelEnabled,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, obs: obs, runID: runID, command: command}
	if cfg.ArchiveEnabled() {
		a, err := store.Open(ctx, cfg.ArchiveDriver, cfg.ArchiveDSN)
		if err != nil {
			_ = obs.Shutdown(ctx)
			return nil, err
		}
		rt.archive = a
		logger.Debug("archive enabled", "driver", cfg.ArchiveDriver)
	}
	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if rt.archive != nil {
		if err := rt.archive.Close(); err != nil {
			rt.logger.Warn("archive close failed", "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = rt.obs.Shutdown(shutdownCtx)
}

// track wraps the command in a span with the run's identifying attributes.
func (rt *runtime) track(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	all := append(observability.CommandOperation(rt.command, rt.runID), attrs...)
	return rt.obs.TrackOperation(ctx, "otp."+rt.command, all...)
}

// archiveJudgment files j when an archive is configured.
func (rt *runtime) archiveJudgment(ctx context.Context, j *judgment.Judgment) error {
	if rt.archive == nil {
		return nil
	}
	id, err := rt.archive.PutJudgment(ctx, j)
	if err != nil {
		return err
	}
	rt.logger.Info("judgment archived", "judgment_id", id)
	return nil
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return os.ReadFile(filepath.Clean(path))
}

func readJudgment(path string) (*judgment.Judgment, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return judgment.Parse(data)
}

func readJudgments(path string) ([]*judgment.Judgment, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return judgment.ParseList(data)
}

// parseWeights reads a comma separated list such as "0.6,0.4".
func parseWeights(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		out = append(out, w)
	}
	return out, nil
}

// equalWeights is the weighting used when a weighted operator is given none.
func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0
	}
	return w
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
