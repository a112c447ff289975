package updates

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/pkg/sanitize"
)

// Service manages wizard sessions and persists their output. Sessions live
// in memory; a wizard abandoned before submit leaves no trace anywhere else.
type Service struct {
	repo      Repository
	sanitizer sanitize.Sanitizer
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Wizard
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitize.NewPassthrough(),
		logger:    logger,
		sessions:  make(map[uuid.UUID]*Wizard),
	}
}

// WithSanitizer swaps in a real HTML sanitizer. Rich-text fields pass
// through it before they reach a wizard session.
func (s *Service) WithSanitizer(sz sanitize.Sanitizer) *Service {
	s.sanitizer = sz
	return s
}

// SetReport stores the sanitized narrative fields on a wizard session.
func (s *Service) SetReport(w *Wizard, reportHTML string, beneficiaries *int, challenges, outcomes string) {
	w.SetReport(s.sanitizer.Sanitize(reportHTML, sanitize.ProfileRelaxed))
	w.SetNarrative(beneficiaries,
		s.sanitizer.Sanitize(challenges, sanitize.ProfileModerate),
		s.sanitizer.Sanitize(outcomes, sanitize.ProfileModerate))
}

// ListTasks returns the project's current task list.
func (s *Service) ListTasks(ctx context.Context, projectID uuid.UUID) ([]ProjectTask, error) {
	return s.repo.ListTasks(ctx, projectID)
}

// ListUpdates returns previously submitted updates for a project.
func (s *Service) ListUpdates(ctx context.Context, projectID uuid.UUID) ([]ProjectUpdate, error) {
	return s.repo.ListUpdates(ctx, projectID)
}

// StartWizard opens a new wizard session over the project's task list.
func (s *Service) StartWizard(ctx context.Context, projectID uuid.UUID) (*Wizard, error) {
	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project tasks: %w", err)
	}

	wizard := NewWizard(projectID, tasks)

	s.mu.Lock()
	s.sessions[wizard.ID] = wizard
	s.mu.Unlock()

	s.logger.Info("Update wizard started",
		zap.String("wizard_id", wizard.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int("tasks", len(tasks)))

	return wizard, nil
}

// Wizard looks up an open session.
func (s *Service) Wizard(id uuid.UUID) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wizard, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("wizard session %s not found", id)
	}
	return wizard, nil
}

// Submit finalizes a wizard session: the update record and the task
// mutations land in one transaction, invoked at most once per call. On
// failure the session stays open at the review step for a retry.
func (s *Service) Submit(ctx context.Context, wizardID uuid.UUID) (*ProjectUpdate, error) {
	wizard, err := s.Wizard(wizardID)
	if err != nil {
		return nil, err
	}

	update, err := wizard.Submit(ctx, func(ctx context.Context, update *ProjectUpdate) error {
		return s.repo.SaveUpdate(ctx, update, wizard.Tasks())
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, wizardID)
	s.mu.Unlock()

	s.logger.Info("Project update submitted",
		zap.String("update_id", update.ID.String()),
		zap.String("project_id", update.ProjectID.String()),
		zap.Int("tasks_completed", len(update.TasksCompleted)),
		zap.Int("media_items", len(update.MediaItems)))

	return update, nil
}

// Close discards a wizard session. Without force, a session holding entered
// data is kept and ErrDiscardRequiresConfirm returned so the caller can ask
// the user first.
func (s *Service) Close(wizardID uuid.UUID, force bool) error {
	wizard, err := s.Wizard(wizardID)
	if err != nil {
		return err
	}
	if err := wizard.Close(force); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, wizardID)
	s.mu.Unlock()
	return nil
}
