package config

import (
	"github.com/bsladewski/Tenacious-C-sub001/internal/clock"
)

// Resolve builds the immutable EffectiveConfig for a new run from a Raw
// configuration, the original requirements input, a working directory, and
// a Clock (used to derive the run id per §4.1's naming rule).
func Resolve(raw *Raw, input, workingDirectory string, c clock.Clock) EffectiveConfig {
	runID := c.Timestamp()
	artifactBase := raw.Paths.ArtifactBaseDir
	if artifactBase == "" {
		artifactBase = ".tenacious-c"
	}
	runDir := raw.Paths.RunDirectory
	if runDir == "" {
		runDir = artifactBase + "/" + runID
	}
	return EffectiveConfig{
		Input:      input,
		RunID:      runID,
		ResolvedAt: c.ISO(c.Now()),
		Paths: Paths{
			WorkingDirectory: workingDirectory,
			ArtifactBaseDir:  artifactBase,
			RunDirectory:     runDir,
		},
		Limits:        raw.Limits,
		Thresholds:    raw.Thresholds,
		Tools:         raw.Tools,
		Models:        raw.Models,
		Fallback:      raw.Fallback,
		RunMode:       raw.RunMode,
		Interactivity: raw.Interactivity,
		Verbosity:     raw.Verbosity,
		ToolCuration:  raw.ToolCuration,
	}
}
