package processrunner

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// MCP is an alternate ProcessRunner transport for engines that expose
// themselves as an MCP server over stdio rather than a line-oriented CLI
// (SPEC_FULL.md DOMAIN STACK). It satisfies the same ProcessRunner
// contract so the orchestrator never needs to know which transport a
// given ToolName uses — selection happens once, in the engine registry.
//
// Spawn maps {command, opts.Args} onto an MCP client connected over a
// command transport, and issues a single "run_prompt" tool call whose
// text result becomes the synthetic stdout tail.
type MCP struct {
	clientName    string
	clientVersion string
}

func NewMCP(clientName, clientVersion string) *MCP {
	return &MCP{clientName: clientName, clientVersion: clientVersion}
}

func (m *MCP) Spawn(ctx context.Context, command string, opts SpawnOptions) (SpawnResult, error) {
	start := time.Now()

	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	client := mcp.NewClient(&mcp.Implementation{Name: m.clientName, Version: m.clientVersion}, nil)
	transport := &mcp.CommandTransport{Command: command, Args: opts.Args, Dir: opts.Cwd, Env: opts.Env}

	session, err := client.Connect(ctx, transport)
	if err != nil {
		return SpawnResult{}, reachc.New(reachc.CodeEngineNonZeroExit, "mcp connect failed").
			WithContext("command", command).WithCause(err)
	}
	defer session.Close()

	prompt := strings.Join(opts.Args, " ")
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "run_prompt",
		Arguments: map[string]any{"prompt": prompt},
	})
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return SpawnResult{DurationMs: duration.Milliseconds(), TimedOut: true, ExitCode: -1},
				reachc.New(reachc.CodeEngineTimeout, "mcp tool call timed out")
		}
		return SpawnResult{DurationMs: duration.Milliseconds()},
			reachc.New(reachc.CodeEngineNonZeroExit, "mcp tool call failed").WithCause(err)
	}

	var lines []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			for _, l := range strings.Split(tc.Text, "\n") {
				lines = append(lines, l)
				if opts.OnStdout != nil {
					opts.OnStdout(l)
				}
			}
		}
	}

	exitCode := 0
	if res.IsError {
		exitCode = 1
	}
	tailLines := opts.TailLines
	if tailLines <= 0 {
		tailLines = 50
	}
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}

	result := SpawnResult{ExitCode: exitCode, DurationMs: duration.Milliseconds(), StdoutTail: lines}
	if res.IsError {
		return result, reachc.New(reachc.CodeEngineNonZeroExit, "engine reported a tool error")
	}
	return result, nil
}

// KillAll is a no-op for the MCP transport: each Spawn call owns a single
// short-lived client session torn down by its own context.
func (m *MCP) KillAll(signal string) {}
