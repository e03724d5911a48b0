package artifact

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
	"github.com/bsladewski/Tenacious-C-sub001/internal/fsport"
)

// requireFile fails with ARTIFACT_INCOMPLETE naming the missing file,
// rather than surfacing a raw ARTIFACT_NOT_FOUND for what is actually a
// completeness check over a whole directory (§4.1 edge case: "a
// completed stage directory missing one of its required files").
func requireFile(s *Store, dir, name string) error {
	p := s.Join(dir, name)
	if !s.Exists(p) {
		return reachc.New(reachc.CodeArtifactIncomplete, "required artifact missing").
			WithContext("file", name).WithContext("dir", dir)
	}
	return nil
}

// ValidatePlanArtifacts checks that a plan directory is complete
// (plan.md present and non-empty, plan-metadata.json present and
// schema-valid) and returns the parsed metadata.
func ValidatePlanArtifacts(s *Store, planDir string) (PlanMetadata, error) {
	var zero PlanMetadata
	if err := requireFile(s, planDir, FilePlanMD); err != nil {
		return zero, err
	}
	md, err := s.ReadText(s.Join(planDir, FilePlanMD))
	if err != nil {
		return zero, err
	}
	if strings.TrimSpace(md) == "" {
		return zero, reachc.New(reachc.CodeArtifactIncomplete, "plan.md is empty").WithContext("dir", planDir)
	}
	if err := requireFile(s, planDir, FilePlanMetadata); err != nil {
		return zero, err
	}
	return ReadJSON[PlanMetadata](s, s.Join(planDir, FilePlanMetadata))
}

// ValidateExecutionArtifacts checks that an execute (or gap-plan
// execution) directory is complete: execute-metadata.json present and
// schema-valid, and at least one execution summary file present for
// iteration.
func ValidateExecutionArtifacts(s *Store, executeDir string, iteration int) (ExecuteMetadata, error) {
	var zero ExecuteMetadata
	if err := requireFile(s, executeDir, FileExecuteMetadata); err != nil {
		return zero, err
	}
	meta, err := ReadJSON[ExecuteMetadata](s, s.Join(executeDir, FileExecuteMetadata))
	if err != nil {
		return zero, err
	}
	if err := requireFile(s, executeDir, ExecutionSummaryMD(iteration)); err != nil {
		return zero, err
	}
	return meta, nil
}

// ValidateGapAuditArtifacts checks that a gap-audit directory is
// complete (gap-audit-metadata.json present and schema-valid, and its
// summary file present) and returns the parsed metadata.
func ValidateGapAuditArtifacts(s *Store, gapAuditDir string, iteration int) (GapAuditMetadata, error) {
	var zero GapAuditMetadata
	if err := requireFile(s, gapAuditDir, FileGapAuditMetadata); err != nil {
		return zero, err
	}
	meta, err := ReadJSON[GapAuditMetadata](s, s.Join(gapAuditDir, FileGapAuditMetadata))
	if err != nil {
		return zero, err
	}
	if err := requireFile(s, gapAuditDir, GapAuditSummaryMD(iteration)); err != nil {
		return zero, err
	}
	return meta, nil
}

// ExecutionProgress is the reconstructed progress of one execution
// iteration, derived entirely from which execution-summary files exist
// on disk — used to reconcile in-memory counters after a crash (§4.5
// resume re-scan algorithm: "the on-disk summary files are the
// truth").
type ExecutionProgress struct {
	InitialDone           bool
	HasDoneIteration0     bool
	LastFollowUpIteration int // -1 when no follow-up summary exists yet
	AllFollowUpIterations []int
}

var followUpSummaryPattern = regexp.MustCompile(`^execution-summary-(\d+)-followup-(\d+)\.md$`)

// GetExecutionArtifacts scans execDir for
// execution-summary-{iteration}.md and
// execution-summary-{iteration}-followup-{k}.md to reconstruct how far
// a given execution iteration actually got, independent of whatever
// counters the in-memory context remembers.
func GetExecutionArtifacts(s *Store, execDir string, iteration int) (ExecutionProgress, error) {
	progress := ExecutionProgress{LastFollowUpIteration: -1}

	infos, err := s.List(execDir, fsport.ListOptions{Pattern: "execution-summary-*"})
	if err != nil {
		return progress, err
	}

	progress.InitialDone = s.Exists(s.Join(execDir, ExecutionSummaryMD(iteration)))

	var followUps []int
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		m := followUpSummaryPattern.FindStringSubmatch(info.Name)
		if m == nil {
			continue
		}
		gotIteration, err := strconv.Atoi(m[1])
		if err != nil || gotIteration != iteration {
			continue
		}
		k, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		followUps = append(followUps, k)
	}
	sort.Ints(followUps)
	progress.AllFollowUpIterations = followUps

	for _, k := range followUps {
		if k == 0 {
			progress.HasDoneIteration0 = true
		}
		if k > progress.LastFollowUpIteration {
			progress.LastFollowUpIteration = k
		}
	}
	if len(followUps) == 0 {
		progress.LastFollowUpIteration = -1
	}
	return progress, nil
}
