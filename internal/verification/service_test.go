package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateRequestWithEvent(ctx context.Context, req *Request, event *AuditEvent) error {
	args := m.Called(ctx, req, event)
	return args.Error(0)
}

func (m *MockRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Request), args.Error(1)
}

func (m *MockRepository) GetActiveRequest(ctx context.Context, orgID uuid.UUID) (*Request, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Request), args.Error(1)
}

func (m *MockRepository) UpdateRequestWithEvent(ctx context.Context, req *Request, event *AuditEvent) error {
	args := m.Called(ctx, req, event)
	return args.Error(0)
}

func (m *MockRepository) LastEvent(ctx context.Context, requestID uuid.UUID) (*AuditEvent, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AuditEvent), args.Error(1)
}

func (m *MockRepository) InsertEvent(ctx context.Context, event *AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) ListEvents(ctx context.Context, requestID uuid.UUID, order EventOrder) ([]AuditEvent, error) {
	args := m.Called(ctx, requestID, order)
	return args.Get(0).([]AuditEvent), args.Error(1)
}

// mockDocuments is a mock implementation of documents.Repository
type mockDocuments struct {
	mock.Mock
}

func (m *mockDocuments) CreateDocument(ctx context.Context, doc *documents.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDocuments) GetDocumentByID(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documents.Document), args.Error(1)
}

func (m *mockDocuments) ListDocuments(ctx context.Context, orgID uuid.UUID, docType *documents.DocumentType) ([]documents.Document, error) {
	args := m.Called(ctx, orgID, docType)
	return args.Get(0).([]documents.Document), args.Error(1)
}

func (m *mockDocuments) UpdateDocument(ctx context.Context, doc *documents.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDocuments) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDocuments) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func requiredDocs(orgID uuid.UUID, status documents.DocumentStatus, types ...documents.DocumentType) []documents.Document {
	var docs []documents.Document
	for _, docType := range types {
		docs = append(docs, documents.Document{
			ID:         uuid.New(),
			OrgID:      orgID,
			Type:       docType,
			Status:     status,
			UploadedAt: testNow.Add(-time.Hour),
		})
	}
	return docs
}

func allRequiredTypes() []documents.DocumentType {
	return []documents.DocumentType{
		documents.TypeRegistrationCertificate,
		documents.TypeTaxExemption,
		documents.TypeAuditedFinancials,
		documents.TypeBoardResolution,
		documents.TypeBankStatement,
	}
}

func newTestService(repo Repository, docs documents.Repository) *Service {
	svc := NewService(repo, docs, nil, zap.NewNop())
	return svc.WithClock(func() time.Time { return testNow })
}

func TestSubmitBlockedLeavesStateUntouched(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	orgID := uuid.New()

	// Four of five required types accepted, bank statement missing.
	docs := requiredDocs(orgID, documents.StatusAccepted,
		documents.TypeRegistrationCertificate,
		documents.TypeTaxExemption,
		documents.TypeAuditedFinancials,
		documents.TypeBoardResolution,
	)
	mockDocs.On("ListDocuments", ctx, orgID, (*documents.DocumentType)(nil)).Return(docs, nil)

	req, err := service.Submit(ctx, orgID, "please verify us")

	require.Error(t, err)
	assert.Nil(t, req)

	var blocked *GateBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []string{"Bank Statement"}, blocked.Missing)
	assert.Empty(t, blocked.Expired)

	// No request created, no event appended.
	mockRepo.AssertNotCalled(t, "CreateRequestWithEvent", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateRequestWithEvent", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything)
}

func TestSubmitAppendsExactlyOneSubmitEvent(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	orgID := uuid.New()

	docs := requiredDocs(orgID, documents.StatusAccepted, allRequiredTypes()...)
	mockDocs.On("ListDocuments", ctx, orgID, (*documents.DocumentType)(nil)).Return(docs, nil)
	mockRepo.On("GetActiveRequest", ctx, orgID).Return(nil, nil)

	var capturedEvent *AuditEvent
	mockRepo.On("CreateRequestWithEvent", ctx, mock.AnythingOfType("*verification.Request"), mock.AnythingOfType("*verification.AuditEvent")).
		Run(func(args mock.Arguments) {
			capturedEvent = args.Get(2).(*AuditEvent)
		}).
		Return(nil).Once()

	req, err := service.Submit(ctx, orgID, "ready for vetting")

	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, StatusPending, req.Status)

	require.NotNil(t, capturedEvent)
	assert.Equal(t, ActionSubmit, capturedEvent.Action)
	assert.Equal(t, RoleOrgAdmin, capturedEvent.ActorRole)
	assert.Equal(t, req.ID, capturedEvent.RequestID)

	mockRepo.AssertExpectations(t)
}

func TestSubmitEligibilityFlipsAfterFifthDocument(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	orgID := uuid.New()

	fourOfFive := requiredDocs(orgID, documents.StatusAccepted,
		documents.TypeRegistrationCertificate,
		documents.TypeTaxExemption,
		documents.TypeAuditedFinancials,
		documents.TypeBoardResolution,
	)
	mockDocs.On("ListDocuments", ctx, orgID, (*documents.DocumentType)(nil)).Return(fourOfFive, nil).Once()

	gate, err := service.Eligibility(ctx, orgID)
	require.NoError(t, err)
	assert.False(t, gate.Allowed)
	require.Len(t, gate.Missing, 1)
	assert.Equal(t, documents.TypeBankStatement, gate.Missing[0].DocType)

	// The fifth document arrives with plain uploaded status.
	withFifth := append(fourOfFive, documents.Document{
		ID:         uuid.New(),
		OrgID:      orgID,
		Type:       documents.TypeBankStatement,
		Status:     documents.StatusUploaded,
		UploadedAt: testNow.Add(-time.Minute),
	})
	mockDocs.On("ListDocuments", ctx, orgID, (*documents.DocumentType)(nil)).Return(withFifth, nil).Once()

	gate, err = service.Eligibility(ctx, orgID)
	require.NoError(t, err)
	assert.True(t, gate.Allowed)
}

func TestResubmitAfterRejection(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	orgID := uuid.New()
	rejected := &Request{
		ID:        uuid.New(),
		OrgID:     orgID,
		Status:    StatusRejected,
		CreatedAt: testNow.Add(-72 * time.Hour),
	}

	docs := requiredDocs(orgID, documents.StatusAccepted, allRequiredTypes()...)
	mockDocs.On("ListDocuments", ctx, orgID, (*documents.DocumentType)(nil)).Return(docs, nil)
	mockRepo.On("GetActiveRequest", ctx, orgID).Return(rejected, nil)
	mockRepo.On("UpdateRequestWithEvent", ctx, mock.AnythingOfType("*verification.Request"), mock.AnythingOfType("*verification.AuditEvent")).Return(nil).Once()

	req, err := service.Submit(ctx, orgID, "documents fixed")

	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, rejected.ID, req.ID)

	mockRepo.AssertExpectations(t)
}

func TestSubmitWhileActiveRequestFails(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	orgID := uuid.New()
	pending := &Request{ID: uuid.New(), OrgID: orgID, Status: StatusPending}

	docs := requiredDocs(orgID, documents.StatusAccepted, allRequiredTypes()...)
	mockDocs.On("ListDocuments", ctx, orgID, (*documents.DocumentType)(nil)).Return(docs, nil)
	mockRepo.On("GetActiveRequest", ctx, orgID).Return(pending, nil)

	_, err := service.Submit(ctx, orgID, "")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpdateRequestWithEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpsCommentMovesPendingIntoProgress(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	reqID := uuid.New()
	pending := &Request{ID: reqID, OrgID: uuid.New(), Status: StatusPending}

	mockRepo.On("GetRequestByID", ctx, reqID).Return(pending, nil)

	var capturedEvent *AuditEvent
	mockRepo.On("UpdateRequestWithEvent", ctx, mock.AnythingOfType("*verification.Request"), mock.AnythingOfType("*verification.AuditEvent")).
		Run(func(args mock.Arguments) {
			capturedEvent = args.Get(2).(*AuditEvent)
		}).
		Return(nil).Once()

	req, err := service.OpsAction(ctx, reqID, ActionComment, "reviewing documents")

	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, req.Status)
	require.NotNil(t, capturedEvent)
	assert.Equal(t, ActionComment, capturedEvent.Action)
	assert.Equal(t, RoleOps, capturedEvent.ActorRole)
}

func TestOpsApproveRequiresInProgress(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDocs := new(mockDocuments)
	service := newTestService(mockRepo, mockDocs)

	ctx := context.Background()
	reqID := uuid.New()
	pending := &Request{ID: reqID, OrgID: uuid.New(), Status: StatusPending}

	mockRepo.On("GetRequestByID", ctx, reqID).Return(pending, nil)

	_, err := service.OpsAction(ctx, reqID, ActionApprove, "")

	var invalid *ErrInvalidTransition
	assert.ErrorAs(t, err, &invalid)
	mockRepo.AssertNotCalled(t, "UpdateRequestWithEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestTimelineAppendRejectsOutOfOrder(t *testing.T) {
	mockRepo := new(MockRepository)
	timeline := NewTimeline(mockRepo)

	ctx := context.Background()
	reqID := uuid.New()
	last := &AuditEvent{ID: uuid.New(), RequestID: reqID, Action: ActionSubmit, CreatedAt: testNow}

	mockRepo.On("LastEvent", ctx, reqID).Return(last, nil)

	err := timeline.Append(ctx, &AuditEvent{
		ID:        uuid.New(),
		RequestID: reqID,
		Action:    ActionComment,
		CreatedAt: testNow.Add(-time.Minute),
	})

	assert.ErrorIs(t, err, ErrOutOfOrder)
	mockRepo.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything)
}
