package updates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Step is the wizard's position in its linear four-step flow.
type Step int

const (
	StepTaskChecklist Step = iota + 1
	StepMediaUpload
	StepReport
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepTaskChecklist:
		return "task_checklist"
	case StepMediaUpload:
		return "media_upload"
	case StepReport:
		return "report"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// MinReportLength is the enforced minimum for the progress report text,
// counted after trimming whitespace.
const MinReportLength = 100

var (
	ErrAlreadySubmitted = errors.New("update already submitted")
	// ErrDiscardRequiresConfirm guards against silent data loss when a
	// wizard with entered state is closed.
	ErrDiscardRequiresConfirm = errors.New("closing discards entered data; confirmation required")
)

// StepGateError reports why the current step's gate refused to advance or
// submit. It is a recoverable validation failure for the UI to present.
type StepGateError struct {
	Step   Step
	Reason string
}

func (e *StepGateError) Error() string {
	return fmt.Sprintf("step %s: %s", e.Step, e.Reason)
}

// Wizard composes one project update across four gated steps:
// task checklist, media upload, report, review. Transitions are synchronous
// and single-threaded; Next is permitted only when the current step's gate
// passes, Back never re-validates.
type Wizard struct {
	ID        uuid.UUID
	ProjectID uuid.UUID

	step      Step
	tasks     []*ProjectTask
	taskByID  map[uuid.UUID]*ProjectTask
	completed map[uuid.UUID]bool
	media     []*MediaItem

	reportText         string
	beneficiariesCount *int
	challenges         string
	immediateOutcomes  string

	confirmed bool
	submitted bool
}

// NewWizard starts a wizard over the project's current task list. The tasks
// are copied; mutations stay inside the wizard until submission persists
// them.
func NewWizard(projectID uuid.UUID, tasks []ProjectTask) *Wizard {
	w := &Wizard{
		ID:        uuid.New(),
		ProjectID: projectID,
		step:      StepTaskChecklist,
		taskByID:  make(map[uuid.UUID]*ProjectTask, len(tasks)),
		completed: make(map[uuid.UUID]bool),
	}
	for i := range tasks {
		task := tasks[i]
		w.tasks = append(w.tasks, &task)
		w.taskByID[task.ID] = &task
		if task.Status == TaskCompleted {
			w.completed[task.ID] = true
		}
	}
	return w
}

func (w *Wizard) Step() Step {
	return w.step
}

func (w *Wizard) Tasks() []ProjectTask {
	out := make([]ProjectTask, 0, len(w.tasks))
	for _, task := range w.tasks {
		out = append(out, *task)
	}
	return out
}

func (w *Wizard) Media() []MediaItem {
	out := make([]MediaItem, 0, len(w.media))
	for _, m := range w.media {
		out = append(out, *m)
	}
	return out
}

func (w *Wizard) ReportText() string {
	return w.reportText
}

func (w *Wizard) Confirmed() bool {
	return w.confirmed
}

func (w *Wizard) Submitted() bool {
	return w.submitted
}

// canAdvance is the gate predicate for the current step.
func (w *Wizard) canAdvance() error {
	switch w.step {
	case StepTaskChecklist:
		if len(w.completed) == 0 {
			return &StepGateError{Step: w.step, Reason: "at least one task must be marked completed"}
		}
	case StepMediaUpload:
		// Media is optional; MediaReminder covers the zero-media nudge.
	case StepReport:
		if len(strings.TrimSpace(w.reportText)) < MinReportLength {
			return &StepGateError{
				Step:   w.step,
				Reason: fmt.Sprintf("report must be at least %d characters", MinReportLength),
			}
		}
	case StepReview:
		return &StepGateError{Step: w.step, Reason: "already at the final step"}
	}
	return nil
}

// Next advances one step when the current step's gate passes.
func (w *Wizard) Next() error {
	if w.submitted {
		return ErrAlreadySubmitted
	}
	if err := w.canAdvance(); err != nil {
		return err
	}
	w.step++
	return nil
}

// Back moves one step back. It is a no-op at the first step and never
// re-validates forward gates.
func (w *Wizard) Back() {
	if w.step > StepTaskChecklist {
		w.step--
	}
}

// MediaReminder reports whether the step-2 "no media attached" reminder
// should show. It never blocks advancing.
func (w *Wizard) MediaReminder() bool {
	return w.step == StepMediaUpload && len(w.media) == 0
}

// ToggleTask flips a task's completion. Unchecking does not remove already
// attached media links or lower evidence counts; nothing entered is lost.
func (w *Wizard) ToggleTask(taskID uuid.UUID) (bool, error) {
	task, ok := w.taskByID[taskID]
	if !ok {
		return false, fmt.Errorf("task %s not part of this project", taskID)
	}
	if task.Status == TaskBlocked {
		return false, fmt.Errorf("task %q is blocked", task.Title)
	}

	if w.completed[taskID] {
		delete(w.completed, taskID)
		task.Status = TaskPending
		return false, nil
	}
	w.completed[taskID] = true
	task.Status = TaskCompleted
	return true, nil
}

// AttachMedia records a completed upload. Linking to a task is optional and
// may happen later.
func (w *Wizard) AttachMedia(url, fileName string, taskID *uuid.UUID) (*MediaItem, error) {
	if taskID != nil {
		task, ok := w.taskByID[*taskID]
		if !ok {
			return nil, fmt.Errorf("task %s not part of this project", *taskID)
		}
		task.EvidenceCount++
	}

	item := &MediaItem{
		ID:         uuid.New(),
		URL:        url,
		FileName:   fileName,
		TaskID:     taskID,
		UploadedAt: time.Now(),
	}
	w.media = append(w.media, item)
	return item, nil
}

// LinkMedia associates a media item with a task. A media item links to at
// most one task; relinking replaces the previous association and moves the
// evidence count with it.
func (w *Wizard) LinkMedia(mediaID, taskID uuid.UUID) error {
	item := w.findMedia(mediaID)
	if item == nil {
		return fmt.Errorf("media item %s not found", mediaID)
	}
	task, ok := w.taskByID[taskID]
	if !ok {
		return fmt.Errorf("task %s not part of this project", taskID)
	}
	if item.TaskID != nil {
		if *item.TaskID == taskID {
			return nil
		}
		if prev, ok := w.taskByID[*item.TaskID]; ok && prev.EvidenceCount > 0 {
			prev.EvidenceCount--
		}
	}
	item.TaskID = &taskID
	task.EvidenceCount++
	return nil
}

// UnlinkMedia detaches a media item from its task, keeping the item.
func (w *Wizard) UnlinkMedia(mediaID uuid.UUID) error {
	item := w.findMedia(mediaID)
	if item == nil {
		return fmt.Errorf("media item %s not found", mediaID)
	}
	if item.TaskID != nil {
		if prev, ok := w.taskByID[*item.TaskID]; ok && prev.EvidenceCount > 0 {
			prev.EvidenceCount--
		}
		item.TaskID = nil
	}
	return nil
}

func (w *Wizard) findMedia(mediaID uuid.UUID) *MediaItem {
	for _, m := range w.media {
		if m.ID == mediaID {
			return m
		}
	}
	return nil
}

func (w *Wizard) SetReport(text string) {
	w.reportText = text
}

func (w *Wizard) SetNarrative(beneficiaries *int, challenges, outcomes string) {
	w.beneficiariesCount = beneficiaries
	w.challenges = challenges
	w.immediateOutcomes = outcomes
}

// SetConfirmed records the explicit user attestation required before the
// final submit is enabled.
func (w *Wizard) SetConfirmed(confirmed bool) {
	w.confirmed = confirmed
}

// Dirty reports whether any step 1-3 state has been entered. A dirty wizard
// must not be discarded without confirmation.
func (w *Wizard) Dirty() bool {
	return len(w.completed) > 0 ||
		len(w.media) > 0 ||
		strings.TrimSpace(w.reportText) != "" ||
		strings.TrimSpace(w.challenges) != "" ||
		strings.TrimSpace(w.immediateOutcomes) != "" ||
		w.beneficiariesCount != nil
}

// Close checks whether the wizard may be discarded. Abandoning a flow has no
// side effects; the guard only prevents silent data loss.
func (w *Wizard) Close(force bool) error {
	if w.submitted || force {
		return nil
	}
	if w.Dirty() {
		return ErrDiscardRequiresConfirm
	}
	return nil
}

// Submit assembles the ProjectUpdate and invokes persist exactly once. On
// persist failure the wizard stays at the review step with all collected
// state intact so the user can retry without re-entering data.
func (w *Wizard) Submit(ctx context.Context, persist func(context.Context, *ProjectUpdate) error) (*ProjectUpdate, error) {
	if w.submitted {
		return nil, ErrAlreadySubmitted
	}
	if w.step != StepReview {
		return nil, &StepGateError{Step: w.step, Reason: "submission is only available at the review step"}
	}
	if !w.confirmed {
		return nil, &StepGateError{Step: StepReview, Reason: "confirmation is required before submitting"}
	}

	update := &ProjectUpdate{
		ID:                 uuid.New(),
		ProjectID:          w.ProjectID,
		MediaItems:         w.Media(),
		ReportText:         w.reportText,
		BeneficiariesCount: w.beneficiariesCount,
		Challenges:         w.challenges,
		ImmediateOutcomes:  w.immediateOutcomes,
		Confirmed:          true,
		SubmittedAt:        time.Now(),
	}
	// Completed tasks in checklist order.
	for _, task := range w.tasks {
		if w.completed[task.ID] {
			update.TasksCompleted = append(update.TasksCompleted, task.ID)
		}
	}

	if err := persist(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to persist project update: %w", err)
	}

	w.submitted = true
	return update, nil
}
