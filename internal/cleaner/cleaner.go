// Package cleaner validates and applies removal plans one item at a time
package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/progress"
	"github.com/fenilsonani/homesweep/internal/security"
	"github.com/fenilsonani/homesweep/internal/trash"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

// Status is the terminal state of one plan item
type Status string

const (
	StatusDryPreviewed Status = "DRY_PREVIEWED"
	StatusTrashed      Status = "TRASHED"
	StatusDeleted      Status = "DELETED"
	StatusMissing      Status = "MISSING"
	StatusOutOfScope   Status = "OUT_OF_SCOPE"
	StatusDenyListed   Status = "DENY_LISTED"
	StatusError        Status = "ERROR"
)

// Counted reports whether items with this status add to the summary
func (s Status) Counted() bool {
	return s == StatusDryPreviewed || s == StatusTrashed || s == StatusDeleted
}

// Detail is the outcome of one plan item
type Detail struct {
	Path        string `json:"path" yaml:"path"`
	Status      Status `json:"status" yaml:"status"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Bytes       int64  `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	TrashID     string `json:"trashId,omitempty" yaml:"trashId,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary aggregates the counted items of one apply
type Summary struct {
	Count             int    `json:"count" yaml:"count"`
	Bytes             int64  `json:"bytes" yaml:"bytes"`
	HumanReadableSize string `json:"humanReadableSize" yaml:"humanReadableSize"`
	Mode              Mode   `json:"mode" yaml:"mode"`
	DryRun            bool   `json:"dryRun" yaml:"dryRun"`
}

// ApplyResult is returned by Apply
type ApplyResult struct {
	ID      string           `json:"id" yaml:"id"`
	OK      bool             `json:"ok" yaml:"ok"`
	Summary Summary          `json:"summary" yaml:"summary"`
	Details []Detail         `json:"details" yaml:"details"`
	Errors  []*DeletionError `json:"-" yaml:"-"`
}

// StatusCounts tallies details by status
func (r *ApplyResult) StatusCounts() map[Status]int {
	counts := make(map[Status]int)
	for _, d := range r.Details {
		counts[d.Status]++
	}
	return counts
}

// Options are the per-call apply parameters
type Options struct {
	DryRun   bool
	Mode     Mode   // Overrides the plan's applyMode when set
	TrashDir string // Required for trash mode
}

// Executor applies plans under the safety policy
type Executor struct {
	home             string
	policy           *security.Policy
	mover            *trash.Mover
	progressReporter *progress.Reporter
	log              *logger.Logger
}

// NewExecutor creates an Executor for one home directory
func NewExecutor(home string, policy *security.Policy, mover *trash.Mover, log *logger.Logger) *Executor {
	return &Executor{
		home:   home,
		policy: policy,
		mover:  mover,
		log:    log,
	}
}

// SetProgressReporter sets a custom progress reporter
func (e *Executor) SetProgressReporter(pr *progress.Reporter) {
	e.progressReporter = pr
}

// Apply validates every item against the live filesystem and the policy,
// then previews, trashes or deletes it. Items are independent: one item's
// failure never stops the others, and nothing is retried or rolled back.
// An error is returned only when the call itself is invalid.
func (e *Executor) Apply(plan *Plan, opts Options) (*ApplyResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan", ErrInvalidPlan)
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = plan.ApplyMode
	}
	if mode == "" {
		mode = ModeTrash
	}
	if mode == ModeTrash && !opts.DryRun && opts.TrashDir == "" {
		return nil, fmt.Errorf("%w: trash mode needs a trash directory", ErrInvalidPlan)
	}

	result := &ApplyResult{
		ID:      uuid.NewString(),
		Summary: Summary{Mode: mode, DryRun: opts.DryRun},
		Details: make([]Detail, 0, len(plan.Items)),
	}
	start := time.Now()
	e.log.Info("apply %s: %d items, mode=%s dryRun=%v", result.ID, len(plan.Items), mode, opts.DryRun)

	for i, item := range plan.Items {
		e.reportProgress(progress.PhaseApplying, item.Path, i, len(plan.Items), result, opts.DryRun, start)

		detail, delErr := e.applyItem(item, mode, opts)
		if delErr != nil {
			result.Errors = append(result.Errors, delErr)
			e.log.Warn("apply %s: %s", result.ID, delErr.Error())
		}
		if detail.Status.Counted() {
			result.Summary.Count++
			result.Summary.Bytes += detail.Bytes
		}
		result.Details = append(result.Details, detail)
	}

	result.OK = len(result.Errors) == 0
	result.Summary.HumanReadableSize = utils.FormatBytes(result.Summary.Bytes)
	e.reportProgress(progress.PhaseComplete, "", len(plan.Items), len(plan.Items), result, opts.DryRun, start)
	e.log.Info("apply %s finished: %d items, %s, %d errors",
		result.ID, result.Summary.Count, result.Summary.HumanReadableSize, len(result.Errors))

	return result, nil
}

// applyItem runs the per-item state machine
func (e *Executor) applyItem(item PlanItem, mode Mode, opts Options) (Detail, *DeletionError) {
	detail := Detail{Path: item.Path, Category: item.Category}
	path := item.Path

	if !filepath.IsAbs(path) {
		detail.Status = StatusOutOfScope
		return detail, nil
	}
	path = filepath.Clean(path)
	detail.Path = path

	if !e.policy.IsInHomeScope(path, e.home) {
		detail.Status = StatusOutOfScope
		return detail, nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		// A file standing where a parent directory should be means the
		// path cannot exist.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, unix.ENOTDIR) {
			detail.Status = StatusMissing
			return detail, nil
		}
		return e.fail(detail, CategorizeError(path, err))
	}

	decision := e.policy.Evaluate(path, e.home)
	switch {
	case !decision.InScope:
		detail.Status = StatusOutOfScope
		return detail, nil
	case decision.DenyListed:
		detail.Status = StatusDenyListed
		return detail, nil
	case decision.Symlink:
		detail.Status = StatusOutOfScope
		return detail, nil
	}

	if info.IsDir() {
		protected, err := e.policy.ContainsDenyListed(path, e.home)
		if err != nil {
			return e.fail(detail, CategorizeError(path, err))
		}
		if protected {
			detail.Status = StatusDenyListed
			return detail, nil
		}
	}

	if kind := specialFileKind(info.Mode()); kind != "" {
		return e.fail(detail, invalidPath(path, "refusing to remove a "+kind))
	}
	if mode == ModeTrash && opts.TrashDir != "" && overlaps(path, opts.TrashDir) {
		return e.fail(detail, invalidPath(path, "path overlaps the trash directory"))
	}
	if err := checkRemovable(path); err != nil {
		return e.fail(detail, CategorizeError(path, err))
	}

	detail.Bytes = sizeOf(path, info)

	if opts.DryRun {
		detail.Status = StatusDryPreviewed
		return detail, nil
	}

	switch mode {
	case ModeTrash:
		rec, err := e.mover.Move(path, opts.TrashDir, trash.Meta{Category: item.Category, Bytes: detail.Bytes})
		if err != nil {
			return e.fail(detail, CategorizeError(path, err))
		}
		detail.Status = StatusTrashed
		detail.Destination = rec.TrashPath
		detail.TrashID = rec.ID
	default:
		if err := os.RemoveAll(path); err != nil {
			return e.fail(detail, CategorizeError(path, err))
		}
		detail.Status = StatusDeleted
	}

	e.log.Debug("%s %s (%s)", detail.Status, path, utils.FormatBytes(detail.Bytes))
	return detail, nil
}

func (e *Executor) fail(detail Detail, delErr *DeletionError) (Detail, *DeletionError) {
	detail.Status = StatusError
	detail.Error = delErr.UserMessage()
	return detail, delErr
}

func (e *Executor) reportProgress(phase progress.Phase, currentPath string, processed, total int, result *ApplyResult, dryRun bool, start time.Time) {
	if e.progressReporter == nil {
		return
	}
	e.progressReporter.UpdateApplyProgress(&progress.ApplyProgress{
		Phase:       phase,
		CurrentPath: currentPath,
		Processed:   processed,
		TotalItems:  total,
		Reclaimed:   result.Summary.Bytes,
		Failed:      len(result.Errors),
		DryRun:      dryRun,
		StartTime:   start,
	})
}
