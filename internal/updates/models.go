package updates

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskBlocked   TaskStatus = "blocked"
)

// ProjectTask is one deliverable tracked for a project. The wizard marks
// tasks complete; media uploads raise EvidenceCount.
type ProjectTask struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	ProjectID        uuid.UUID  `json:"project_id" db:"project_id"`
	Title            string     `json:"title" db:"title"`
	Status           TaskStatus `json:"status" db:"status"`
	EvidenceRequired bool       `json:"evidence_required" db:"evidence_required"`
	EvidenceCount    int        `json:"evidence_count" db:"evidence_count"`
}

// MediaItem is one completed upload attached to an update in progress. It
// starts unlinked and can later be associated to at most one task;
// reassignment replaces the link.
type MediaItem struct {
	ID         uuid.UUID  `json:"id"`
	URL        string     `json:"url"`
	FileName   string     `json:"file_name"`
	TaskID     *uuid.UUID `json:"task_id,omitempty"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

// ProjectUpdate is the record assembled at final wizard submission. It is
// created once, atomically; a later update is a new record, not an edit.
type ProjectUpdate struct {
	ID                 uuid.UUID   `json:"id"`
	ProjectID          uuid.UUID   `json:"project_id"`
	TasksCompleted     []uuid.UUID `json:"tasks_completed"`
	MediaItems         []MediaItem `json:"media_items"`
	ReportText         string      `json:"report_text"`
	BeneficiariesCount *int        `json:"beneficiaries_count,omitempty"`
	Challenges         string      `json:"challenges,omitempty"`
	ImmediateOutcomes  string      `json:"immediate_outcomes,omitempty"`
	Confirmed          bool        `json:"confirmed"`
	SubmittedAt        time.Time   `json:"submitted_at"`
}
