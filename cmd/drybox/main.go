package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/capture"
	"github.com/Icing-Project/DryBox/engine"
	"github.com/Icing-Project/DryBox/metrics"
	"github.com/Icing-Project/DryBox/registry"
	"github.com/Icing-Project/DryBox/scenario"

	_ "github.com/Icing-Project/DryBox/adapters/loopback"
)

func main() {
	scenarioPath := pflag.String("scenario", "", "path to the scenario YAML file (required)")
	leftSpec := pflag.String("left", "entrypoint:loopback", "left adapter spec")
	rightSpec := pflag.String("right", "entrypoint:loopback", "right adapter spec")
	outDir := pflag.String("out", "./run", "output directory for run artifacts")
	tickMs := pflag.Int64("tick-ms", 10, "tick granularity in milliseconds")
	seedOverride := pflag.Uint64("seed", 0, "override the scenario's seed (0 = use scenario value)")
	adaptersDir := pflag.String("adapters-dir", "./adapters", "directory searched for bare-filename adapter specs")
	ui := pflag.Bool("ui", false, "enable the interactive UI (unsupported in this build)")
	dryRun := pflag.Bool("dry-run", false, "resolve and validate the scenario, then exit without running")
	pflag.Bool("no-ui", true, "disable the interactive UI (default)")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *scenarioPath == "" {
		logger.Error("missing required flag", "flag", "--scenario")
		os.Exit(drybox.ExitScenarioInvalid)
	}
	if *ui {
		logger.Warn("--ui requested but this build has no interactive front-end; continuing headless")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Error("scenario load failed", "error", err)
		os.Exit(drybox.ExitCodeFor(err))
	}
	if *seedOverride != 0 {
		sc.Seed = *seedOverride
	}

	for _, exp := range sc.ExpandSweep() {
		runDir := *outDir
		if exp.Suffix != "" {
			runDir = filepath.Join(*outDir, exp.Suffix)
		}
		if err := runOne(ctx, exp.Scenario, *leftSpec, *rightSpec, runDir, exp.Suffix, *tickMs, *adaptersDir, *dryRun, logger); err != nil {
			logger.Error("run failed", "suffix", exp.Suffix, "error", err)
			os.Exit(drybox.ExitCodeFor(err))
		}
	}
}

func runOne(ctx context.Context, sc scenario.Scenario, leftSpec, rightSpec, runDir, sweepSuffix string, tickMs int64, adaptersDir string, dryRun bool, logger *slog.Logger) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return &drybox.IoFailureError{Artifact: runDir, Err: err}
	}

	left, leftInfo, err := registry.Resolve(leftSpec, adaptersDir)
	if err != nil {
		return err
	}
	right, rightInfo, err := registry.Resolve(rightSpec, adaptersDir)
	if err != nil {
		return err
	}

	if dryRun {
		logger.Info("dry run: scenario and adapters resolved", "left", leftInfo.DisplayName, "right", rightInfo.DisplayName)
		return writeResolvedScenario(runDir, sc)
	}

	capFile, err := os.Create(filepath.Join(runDir, "capture.dbxcap"))
	if err != nil {
		return &drybox.IoFailureError{Artifact: "capture.dbxcap", Err: err}
	}
	defer capFile.Close()
	capW, err := capture.NewWriter(capFile)
	if err != nil {
		return &drybox.IoFailureError{Artifact: "capture.dbxcap", Err: err}
	}

	metricsFile, err := os.Create(filepath.Join(runDir, "metrics.csv"))
	if err != nil {
		return &drybox.IoFailureError{Artifact: "metrics.csv", Err: err}
	}
	defer metricsFile.Close()
	eventsFile, err := os.Create(filepath.Join(runDir, "events.jsonl"))
	if err != nil {
		return &drybox.IoFailureError{Artifact: "events.jsonl", Err: err}
	}
	defer eventsFile.Close()
	metW, err := metrics.NewWriter(metricsFile, eventsFile)
	if err != nil {
		return &drybox.IoFailureError{Artifact: "metrics.csv", Err: err}
	}
	metW.OnDemod(func(tMs uint64, totalBytesProcessed float64) {
		logger.Debug("demod progress", "t_ms", tMs, "total_bytes_processed", totalBytesProcessed)
	})

	e, err := engine.New(sc, engine.Adapters{
		Left: left, LeftInfo: leftInfo, LeftSpec: leftSpec,
		Right: right, RightInfo: rightInfo, RightSpec: rightSpec,
	}, capW, metW, tickMs)
	if err != nil {
		return err
	}

	if err := e.WritePubKeys(filepath.Join(runDir, "pubkeys.txt"), leftSpec, rightSpec); err != nil {
		return err
	}
	if err := writeResolvedScenario(runDir, sc); err != nil {
		return err
	}

	logger.Info("run starting", "duration_ms", sc.DurationMs, "mode", sc.Mode, "out", runDir)
	startedAt := time.Now()
	runErr := e.RunWithContext(ctx)
	endedAt := time.Now()
	if err := engine.WriteManifest(filepath.Join(runDir, "manifest.json"), e.Manifest(startedAt, endedAt, sweepSuffix)); err != nil {
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("run complete", "out", runDir)
	return nil
}

func writeResolvedScenario(runDir string, sc scenario.Scenario) error {
	redacted := sc.Redacted()
	path := filepath.Join(runDir, "scenario.resolved.yaml")
	data, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("marshal resolved scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &drybox.IoFailureError{Artifact: path, Err: err}
	}

	jsonPath := filepath.Join(runDir, "scenario.resolved.json")
	jsonData, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resolved scenario json: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return &drybox.IoFailureError{Artifact: jsonPath, Err: err}
	}
	return nil
}
