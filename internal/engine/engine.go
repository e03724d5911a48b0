// Package engine is the engine-invocation abstraction (§1.4, §9): the
// contract between the orchestrator and the subprocess runner. Per the
// "polymorphism over engine adapters" redesign flag, engines are not
// modelled as an interface hierarchy one type per tool; instead this
// package exposes a small set of functions plus a registry keyed by the
// tagged ToolName variant, and dispatch happens here, once, rather than
// via runtime dynamic dispatch inside the orchestration core.
package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/bsladewski/Tenacious-C-sub001/internal/clock"
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/logging"
	"github.com/bsladewski/Tenacious-C-sub001/internal/processrunner"
)

// Phase identifies which leg of the plan/execute/audit loop an
// invocation belongs to, selecting the configured tool and model (§3
// Tools, Models).
type Phase string

const (
	PhasePlan    Phase = "plan"
	PhaseExecute Phase = "execute"
	PhaseAudit   Phase = "audit"
)

// InvokeParams describes a single logical engine call. Building the
// actual prompt text and engine-specific command-line flags is out of
// scope for the core (§1); callers pass a fully-rendered Prompt.
type InvokeParams struct {
	Phase     Phase
	Tool      config.ToolName
	Model     string
	Prompt    string
	Cwd       string
	Env       []string
	TimeoutMs int

	// TranscriptDir and TranscriptPrefix route to ProcessRunner.Spawn
	// unchanged; RunID/Iteration are carried only for log fields.
	TranscriptDir    string
	TranscriptPrefix string
	RunID            string
	Iteration        int

	OnStdout func(line string)
	OnStderr func(line string)
}

// Result is the adapter-level outcome of Invoke: a SpawnResult plus the
// bookkeeping needed to report which tool (after how many fallbacks)
// actually produced it.
type Result struct {
	Tool        config.ToolName
	Attempts    int
	FellBackTo  []config.ToolName
	processrunner.SpawnResult
}

// Adapter dispatches engine invocations by ToolName to a concrete
// ProcessRunner transport (Exec for line-oriented CLIs, MCP for
// stdio-server engines, Scripted for mock mode and tests). It is the
// "adapter layer" the §9 redesign flag calls for: one small struct, one
// Invoke function, a map instead of a class hierarchy.
type Adapter struct {
	runners map[config.ToolName]processrunner.ProcessRunner
	clk     clock.Clock
	log     logging.Logger
}

func NewAdapter(runners map[config.ToolName]processrunner.ProcessRunner, clk clock.Clock, log logging.Logger) *Adapter {
	return &Adapter{runners: runners, clk: clk, log: log}
}

// Commands is the closed table of argv[0] for each known tool. Engine
// specific flag construction beyond this is out of scope (§1); Invoke
// only ever appends --model when one is configured.
var commands = map[config.ToolName]string{
	config.ToolCodex:   "codex",
	config.ToolCopilot: "copilot",
	config.ToolCursor:  "cursor-agent",
	config.ToolClaude:  "claude",
	config.ToolMock:    "mock-engine",
}

func commandFor(tool config.ToolName) (string, error) {
	cmd, ok := commands[tool]
	if !ok {
		return "", reachc.New(reachc.CodeInvalidArgument, "unknown tool name").WithContext("tool", string(tool))
	}
	return cmd, nil
}

func buildArgs(prompt, model string) []string {
	args := []string{"--prompt", prompt}
	if model != "" {
		args = append(args, "--model", model)
	}
	return args
}

// Invoke spawns the configured tool for p.Tool, falling back through
// cfg.Fallback.FallbackTools (up to cfg.Fallback.MaxRetries additional
// attempts, each preceded by cfg.Fallback.RetryDelayMs) when the primary
// tool's invocation fails (§7 EngineInvocationError). It never retries
// a FileSystemError or ValidationError — only engine invocations are
// retried (§7, "Propagation policy").
func (a *Adapter) Invoke(ctx context.Context, cfg config.EffectiveConfig, p InvokeParams) (Result, error) {
	candidates := append([]config.ToolName{p.Tool}, cfg.Fallback.FallbackTools...)

	var lastErr error
	var fellBackTo []config.ToolName
	attempts := 0

	for i, tool := range candidates {
		if i > 0 {
			if attempts > cfg.Fallback.MaxRetries {
				break
			}
			fellBackTo = append(fellBackTo, tool)
			if cfg.Fallback.RetryDelayMs > 0 {
				a.clk.Delay(ctx, time.Duration(cfg.Fallback.RetryDelayMs)*time.Millisecond)
			}
		}

		runner, ok := a.runners[tool]
		if !ok {
			lastErr = reachc.New(reachc.CodeInvalidArgument, "no runner registered for tool").
				WithContext("tool", string(tool))
			continue
		}
		command, err := commandFor(tool)
		if err != nil {
			lastErr = err
			continue
		}

		attempts++
		runLog := a.log.With(p.RunID, string(p.Phase), p.Iteration, string(tool))
		runLog.Event(logging.EventEngineInvocationStarted, "engine invocation started",
			logging.F("tool", string(tool)), logging.F("command", command))

		spawnRes, spawnErr := runner.Spawn(ctx, command, processrunner.SpawnOptions{
			Args:               buildArgs(p.Prompt, p.Model),
			Cwd:                p.Cwd,
			Env:                p.Env,
			TimeoutMs:          p.TimeoutMs,
			TranscriptDir:      p.TranscriptDir,
			TranscriptPrefix:   p.TranscriptPrefix,
			CaptureTranscripts: p.TranscriptDir != "",
			TailLines:          50,
			OnStdout:           p.OnStdout,
			OnStderr:           p.OnStderr,
		})

		result := Result{Tool: tool, Attempts: attempts, FellBackTo: fellBackTo, SpawnResult: spawnRes}

		if spawnErr == nil {
			runLog.Event(logging.EventEngineInvocationCompleted, "engine invocation completed",
				logging.F("tool", string(tool)), logging.F("exitCode", strconv.Itoa(spawnRes.ExitCode)))
			return result, nil
		}

		runLog.Event(logging.EventEngineInvocationFailed, "engine invocation failed",
			logging.F("tool", string(tool)), logging.F("error", spawnErr.Error()))
		lastErr = spawnErr
	}

	return Result{Tool: p.Tool, Attempts: attempts, FellBackTo: fellBackTo},
		reachc.New(reachc.CodeEngineRetriesDone, "engine invocation failed after exhausting fallbacks").
			WithCause(lastErr).WithContext("tool", string(p.Tool))
}

// ToolFor resolves which configured tool a phase uses (§3 Tools).
func ToolFor(cfg config.EffectiveConfig, phase Phase) config.ToolName {
	switch phase {
	case PhasePlan:
		return cfg.Tools.Plan
	case PhaseExecute:
		return cfg.Tools.Execute
	case PhaseAudit:
		return cfg.Tools.Audit
	default:
		return cfg.Tools.Execute
	}
}

// ModelFor resolves which configured model a phase uses (§3 Models).
func ModelFor(cfg config.EffectiveConfig, phase Phase) string {
	switch phase {
	case PhasePlan:
		return cfg.Models.Plan
	case PhaseExecute:
		return cfg.Models.Execute
	case PhaseAudit:
		return cfg.Models.Audit
	default:
		return cfg.Models.Execute
	}
}
