package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

// Notifier pushes verification status changes to connected clients.
type Notifier interface {
	NotifyStatusChange(orgID, requestID uuid.UUID, status RequestStatus, action Action)
}

// NopNotifier discards notifications; used where no hub is wired.
type NopNotifier struct{}

func (NopNotifier) NotifyStatusChange(orgID, requestID uuid.UUID, status RequestStatus, action Action) {
}

// Service drives the verification workflow: checklist derivation, submission
// gating, request lifecycle and the audit timeline.
type Service struct {
	repo     Repository
	docs     documents.Repository
	timeline *Timeline
	notifier Notifier
	defs     []ChecklistDefinition
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, docs documents.Repository, notifier Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		docs:     docs,
		timeline: NewTimeline(repo),
		notifier: notifier,
		defs:     DefaultChecklist(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin expiry
// derivation and event timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Timeline exposes the audit timeline component.
func (s *Service) Timeline() *Timeline {
	return s.timeline
}

// Checklist derives the organization's document readiness from its current
// document set.
func (s *Service) Checklist(ctx context.Context, orgID uuid.UUID) ([]ChecklistItem, error) {
	docs, err := s.docs.ListDocuments(ctx, orgID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return DeriveChecklist(s.defs, docs, s.now()), nil
}

// Eligibility reports whether the organization may submit a verification
// request and what blocks it.
func (s *Service) Eligibility(ctx context.Context, orgID uuid.UUID) (GateResult, error) {
	items, err := s.Checklist(ctx, orgID)
	if err != nil {
		return GateResult{}, err
	}
	return EvaluateGate(items), nil
}

// Status returns the organization's verification status. Organizations with
// no request yet are unverified.
func (s *Service) Status(ctx context.Context, orgID uuid.UUID) (RequestStatus, *Request, error) {
	req, err := s.repo.GetActiveRequest(ctx, orgID)
	if err != nil {
		return "", nil, err
	}
	if req == nil {
		return StatusUnverified, nil, nil
	}
	return req.Status, req, nil
}

// Submit creates or resubmits a verification request. When the gate
// disallows it, no request is created, no status changes and no audit event
// is appended; the returned *GateBlockedError carries the blocking items.
func (s *Service) Submit(ctx context.Context, orgID uuid.UUID, notes string) (*Request, error) {
	gate, err := s.Eligibility(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !gate.Allowed {
		return nil, newGateBlockedError(gate)
	}

	current, err := s.repo.GetActiveRequest(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if current == nil {
		req := &Request{
			ID:        uuid.New(),
			OrgID:     orgID,
			Status:    StatusPending,
			Notes:     notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		event := s.newEvent(req.ID, ActionSubmit, RoleOrgAdmin, notes, now)
		if err := s.repo.CreateRequestWithEvent(ctx, req, event); err != nil {
			return nil, fmt.Errorf("failed to create verification request: %w", err)
		}

		s.logger.Info("Verification request submitted",
			zap.String("request_id", req.ID.String()),
			zap.String("org_id", orgID.String()))
		s.notifier.NotifyStatusChange(orgID, req.ID, req.Status, ActionSubmit)
		return req, nil
	}

	// A rejected request may be resubmitted once documents are in order.
	next, err := statusAfter(current.Status, ActionSubmit)
	if err != nil {
		return nil, fmt.Errorf("organization already has an active request: %w", err)
	}

	current.Status = next
	current.Notes = notes
	current.UpdatedAt = now
	event := s.newEvent(current.ID, ActionSubmit, RoleOrgAdmin, notes, now)
	if err := s.repo.UpdateRequestWithEvent(ctx, current, event); err != nil {
		return nil, fmt.Errorf("failed to resubmit verification request: %w", err)
	}

	s.logger.Info("Verification request resubmitted",
		zap.String("request_id", current.ID.String()),
		zap.String("org_id", orgID.String()))
	s.notifier.NotifyStatusChange(orgID, current.ID, current.Status, ActionSubmit)
	return current, nil
}

// OpsAction applies an operator action to a request: comments and site
// visits move a pending request into progress, approve and reject settle it.
// The status change and its audit event land atomically.
func (s *Service) OpsAction(ctx context.Context, requestID uuid.UUID, action Action, note string) (*Request, error) {
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("verification request not found")
	}

	next, err := statusAfter(req.Status, action)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req.Status = next
	req.UpdatedAt = now
	event := s.newEvent(req.ID, action, RoleOps, note, now)
	if err := s.repo.UpdateRequestWithEvent(ctx, req, event); err != nil {
		return nil, fmt.Errorf("failed to apply ops action: %w", err)
	}

	s.logger.Info("Ops action applied",
		zap.String("request_id", req.ID.String()),
		zap.String("action", string(action)),
		zap.String("status", string(req.Status)))
	s.notifier.NotifyStatusChange(req.OrgID, req.ID, req.Status, action)
	return req, nil
}

// Events lists the audit timeline of a request.
func (s *Service) Events(ctx context.Context, requestID uuid.UUID, order EventOrder) ([]AuditEvent, error) {
	return s.timeline.List(ctx, requestID, order)
}

// Progress returns the stepper position of a request.
func (s *Service) Progress(ctx context.Context, requestID uuid.UUID) (int, error) {
	return s.timeline.Progress(ctx, requestID)
}

func (s *Service) newEvent(requestID uuid.UUID, action Action, role ActorRole, note string, at time.Time) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New(),
		RequestID: requestID,
		Action:    action,
		ActorRole: role,
		Note:      note,
		CreatedAt: at,
	}
}
