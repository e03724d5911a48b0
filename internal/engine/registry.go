package engine

import (
	"github.com/bsladewski/Tenacious-C-sub001/internal/config"
	"github.com/bsladewski/Tenacious-C-sub001/internal/processrunner"
)

// mcpTools is the set of engines SPEC_FULL.md wires through the MCP
// transport (processrunner.MCP) rather than a line-oriented CLI. Cursor
// is the example pack's stdio-server-style engine; everything else uses
// the plain Exec transport.
var mcpTools = map[config.ToolName]bool{
	config.ToolCursor: true,
}

// DefaultRunners builds the ToolName -> ProcessRunner map a real run
// wires into NewAdapter. In runMode.mockMode every tool is routed to the
// single Scripted fake so the orchestration core can be exercised
// without any real engine on PATH.
func DefaultRunners(cfg config.EffectiveConfig, mock *processrunner.Scripted) map[config.ToolName]processrunner.ProcessRunner {
	runners := make(map[config.ToolName]processrunner.ProcessRunner, len(commands))

	if cfg.RunMode.MockMode {
		for tool := range commands {
			runners[tool] = mock
		}
		return runners
	}

	exec := processrunner.NewExec()
	mcp := processrunner.NewMCP("tenacious-c", "1.0.0")
	for tool := range commands {
		if mcpTools[tool] {
			runners[tool] = mcp
			continue
		}
		runners[tool] = exec
	}
	runners[config.ToolMock] = mock
	return runners
}
