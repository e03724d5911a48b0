// Command tenaciousc drives one plan -> execute -> audit -> gap-close run
// of an external AI coding engine. Flag parsing stays deliberately thin
// (§1 Non-goals): this entrypoint only resolves the effective config,
// wires the dependency ports, and hands control to the Orchestrator; the
// actual plan/execute/audit prompting loop lives with whatever caller
// drives the Orchestrator's event methods (a future interactive CLI, a
// CI wrapper, or a test harness).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	"github.com/bsladewski/Tenacious-C-sub001/internal/clock"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	"github.com/bsladewski/Tenacious-C-sub001/internal/engine"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/logging"
	"github.com/bsladewski/Tenacious-C-sub001/internal/orchestrator"
	"github.com/bsladewski/Tenacious-C-sub001/internal/persistence"
	"github.com/bsladewski/Tenacious-C-sub001/internal/processrunner"
	"github.com/bsladewski/Tenacious-C-sub001/internal/prompter"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("tenaciousc", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "path to a JSON config file")
	resume := fs.Bool("resume", false, "resume the most recent non-terminal run")
	requirements := fs.String("requirements", "", "requirements text for a new run")
	if err := fs.Parse(args); err != nil {
		return reachc.CodeInvalidArgument.ExitCode()
	}

	raw, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, reachc.Classify(err).SafeError())
		return reachc.CodeConfigInvalid.ExitCode()
	}
	raw.RunMode.Resume = *resume

	clk := clock.NewSystem()
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return reachc.CodeInternal.ExitCode()
	}
	cfg := config.Resolve(raw, *requirements, wd, clk)
	if result := cfg.Validate(); !result.Valid() {
		fmt.Fprintln(errOut, result.Error())
		return reachc.CodeInvalidArgument.ExitCode()
	}

	localFS := fsport.NewLocal()
	log := logging.New(errOut, logging.Level(cfg.Verbosity.Level))

	registry, regErr := persistence.OpenRegistry(localFS.Join(cfg.Paths.ArtifactBaseDir, "registry.db"))
	if regErr != nil {
		log.Warn("run registry unavailable, falling back to directory scan", logging.F("error", regErr.Error()))
		registry = nil
	}
	if registry != nil {
		defer registry.Close()
	}

	var prompt prompter.Prompter = prompter.NonInteractive{}
	if cfg.Interactivity.Interactive {
		prompt = prompter.NewTTY(os.Stdin, out)
	}

	orch := orchestrator.New(cfg, localFS, prompt, clk, log, registry)

	// The engine adapter is constructed here so a prompting loop driving
	// orch's event methods has everything it needs; invoking it per phase
	// is the prompting loop's job, not this entrypoint's (§1 Non-goals).
	adapter := engine.NewAdapter(engine.DefaultRunners(cfg, processrunner.NewScripted()), clk, log)
	_ = adapter

	if cfg.RunMode.Resume {
		return resumeRun(orch, localFS, cfg, registry, log, errOut)
	}
	return startRun(orch, *requirements, errOut)
}

func newStateStore(fs fsport.FileSystem, cfg config.EffectiveConfig) *persistence.Store {
	return persistence.NewStore(artifact.NewStore(fs, cfg.Paths.ArtifactBaseDir))
}

func startRun(orch *orchestrator.Orchestrator, requirements string, errOut io.Writer) int {
	if requirements == "" {
		fmt.Fprintln(errOut, "requirements text is required to start a new run (--requirements)")
		return reachc.CodeInvalidArgument.ExitCode()
	}
	result, err := orch.Start(requirements)
	if err != nil {
		fmt.Fprintln(errOut, result.Error.SafeError())
	}
	return result.ExitCode
}

func resumeRun(orch *orchestrator.Orchestrator, fs fsport.FileSystem, cfg config.EffectiveConfig, registry *persistence.Registry, log logging.Logger, errOut io.Writer) int {
	store := newStateStore(fs, cfg)

	found, err := persistence.FindLatestResumableRun(fs, store, cfg.Paths.ArtifactBaseDir, registry, log)
	if err != nil {
		fmt.Fprintln(errOut, reachc.Classify(err).SafeError())
		return reachc.CodePersistenceNoRun.ExitCode()
	}
	result, err := orch.Resume(found.State)
	if err != nil {
		fmt.Fprintln(errOut, result.Error.SafeError())
	}
	return result.ExitCode
}
