package orchestrator

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/bsladewski/Tenacious-C-sub001/internal/artifact"
	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
	"github.com/bsladewski/Tenacious-C-sub001/internal/policy"
)

// RenderSummary builds the human-readable run-summary.md content for the
// current context (§4.1 FileRunSummary). It is rendered from in-memory
// state only — OnGenerateSummary's caller writes it via o.artifacts
// before firing SUMMARY_COMPLETE, matching the same "build the text,
// then let the Artifact Store write it" split the plan/execute/audit
// summaries use.
func (o *Orchestrator) RenderSummary() string {
	o.mu.Lock()
	ctx := o.ctx
	o.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "# Run Summary\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", o.cfg.RunID)
	fmt.Fprintf(&b, "- Final state: %s\n", ctx.CurrentState)
	fmt.Fprintf(&b, "- Started: %s\n", ctx.StartedAt)
	fmt.Fprintf(&b, "- Last transition: %s\n\n", ctx.LastTransitionAt)

	fmt.Fprintf(&b, "## Plan\n\n")
	fmt.Fprintf(&b, "- Revisions: %s\n", policy.PlanRevisionProgress(o.cfg, ctx.PlanRevisionCount).Display)
	fmt.Fprintf(&b, "- Last confidence: %d\n\n", ctx.LastConfidence)

	fmt.Fprintf(&b, "## Execution\n\n")
	fmt.Fprintf(&b, "- Iterations: %s\n", policy.ExecutionProgress(o.cfg, ctx.ExecIterationCount).Display)
	fmt.Fprintf(&b, "- Follow-ups in current iteration: %s\n", policy.FollowUpProgress(o.cfg, ctx.FollowUpIterationCount).Display)

	if ctx.LastError != nil {
		fmt.Fprintf(&b, "\n## Last Error\n\n")
		fmt.Fprintf(&b, "- Code: %s\n", ctx.LastError.Code)
		fmt.Fprintf(&b, "- Message: %s\n", ctx.LastError.Message)
		fmt.Fprintf(&b, "- At: %s\n", ctx.LastError.At)
	}

	return b.String()
}

// WriteSummary renders and persists run-summary.md under the run
// directory. Callers invoke this before OnGenerateSummary's
// GENERATE_SUMMARY transition commits the run to SUMMARY_GENERATION.
func (o *Orchestrator) WriteSummary() error {
	path := o.artifacts.Join(o.RunDir(), artifact.FileRunSummary)
	return o.artifacts.WriteText(path, o.RenderSummary())
}

// ExportDebugBundle zips every file under the run directory plus a
// synthetic manifest.json describing the in-memory context, producing
// artifact.DebugBundleZip(ts) at destDir. Grounded on the teacher's
// bugreport command: a flat zip.Writer over a manifest plus whatever
// diagnostic files are on disk, with secrets already redacted upstream
// (effective-config.json is written pre-redacted by writeEffectiveConfig,
// and every *-metadata.json is free of secrets by construction).
func (o *Orchestrator) ExportDebugBundle(fs fsport.FileSystem, destDir, ts string) (string, error) {
	destPath := fs.Join(destDir, artifact.DebugBundleZip(ts))
	if err := fs.Mkdir(destDir); err != nil {
		return "", reachc.Classify(err)
	}

	manifest, err := o.cfg.RedactedJSON()
	if err != nil {
		return "", reachc.New(reachc.CodeInternal, "failed to render debug bundle manifest").WithCause(err)
	}

	var buf strings.Builder
	zw := zip.NewWriter(&buf)
	if err := writeZipEntry(zw, "effective-config.json", manifest); err != nil {
		_ = zw.Close()
		return "", err
	}

	entries, err := o.artifacts.List(o.RunDir(), fsport.ListOptions{Recursive: true})
	if err != nil {
		_ = zw.Close()
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		content, err := o.artifacts.ReadText(o.artifacts.Join(o.RunDir(), entry.Name))
		if err != nil {
			continue
		}
		if err := writeZipEntry(zw, entry.Name, []byte(content)); err != nil {
			_ = zw.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", reachc.New(reachc.CodeInternal, "failed to finalize debug bundle").WithCause(err)
	}

	if err := fs.Write(destPath, []byte(buf.String()), fsport.DefaultWriteOptions()); err != nil {
		return "", reachc.Classify(err)
	}
	return destPath, nil
}

func writeZipEntry(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return reachc.New(reachc.CodeInternal, "failed to create debug bundle entry").WithContext("name", name).WithCause(err)
	}
	if _, err := w.Write(content); err != nil {
		return reachc.New(reachc.CodeInternal, "failed to write debug bundle entry").WithContext("name", name).WithCause(err)
	}
	return nil
}
