package updates

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/pkg/sanitize"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]ProjectTask, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]ProjectTask), args.Error(1)
}

func (m *MockRepository) GetTaskByID(ctx context.Context, id uuid.UUID) (*ProjectTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProjectTask), args.Error(1)
}

func (m *MockRepository) SaveUpdate(ctx context.Context, update *ProjectUpdate, tasks []ProjectTask) error {
	args := m.Called(ctx, update, tasks)
	return args.Error(0)
}

func (m *MockRepository) ListUpdates(ctx context.Context, projectID uuid.UUID) ([]ProjectUpdate, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]ProjectUpdate), args.Error(1)
}

func startReadyWizard(t *testing.T, service *Service, repo *MockRepository) *Wizard {
	t.Helper()
	ctx := context.Background()
	projectID := uuid.New()
	tasks := testTasks(projectID, 2)
	repo.On("ListTasks", ctx, projectID).Return(tasks, nil)

	wizard, err := service.StartWizard(ctx, projectID)
	require.NoError(t, err)

	_, err = wizard.ToggleTask(tasks[0].ID)
	require.NoError(t, err)
	require.NoError(t, wizard.Next())
	require.NoError(t, wizard.Next())
	wizard.SetReport(strings.Repeat("x", MinReportLength))
	require.NoError(t, wizard.Next())
	wizard.SetConfirmed(true)
	return wizard
}

func TestServiceSubmitClosesSession(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())
	wizard := startReadyWizard(t, service, repo)

	repo.On("SaveUpdate", mock.Anything, mock.AnythingOfType("*updates.ProjectUpdate"), mock.AnythingOfType("[]updates.ProjectTask")).Return(nil).Once()

	update, err := service.Submit(context.Background(), wizard.ID)

	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Len(t, update.TasksCompleted, 1)

	// The session is gone once the update is persisted.
	_, err = service.Wizard(wizard.ID)
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestServiceSubmitFailureKeepsSession(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())
	wizard := startReadyWizard(t, service, repo)

	repo.On("SaveUpdate", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	_, err := service.Submit(context.Background(), wizard.ID)
	require.Error(t, err)

	// Session and its state survive for a retry.
	kept, err := service.Wizard(wizard.ID)
	require.NoError(t, err)
	assert.Equal(t, StepReview, kept.Step())
	assert.True(t, kept.Confirmed())

	repo.On("SaveUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	_, err = service.Submit(context.Background(), wizard.ID)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

type upperSanitizer struct{}

func (upperSanitizer) Sanitize(html string, profile sanitize.Profile) string {
	return strings.ToUpper(html)
}

func TestServiceSetReportSanitizesInput(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop()).WithSanitizer(upperSanitizer{})

	ctx := context.Background()
	projectID := uuid.New()
	tasks := testTasks(projectID, 1)
	repo.On("ListTasks", ctx, projectID).Return(tasks, nil)

	wizard, err := service.StartWizard(ctx, projectID)
	require.NoError(t, err)

	service.SetReport(wizard, "progress report", nil, "drought", "wells dug")

	assert.Equal(t, "PROGRESS REPORT", wizard.ReportText())
}

func TestServiceCloseDirtyWizard(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())

	ctx := context.Background()
	projectID := uuid.New()
	tasks := testTasks(projectID, 1)
	repo.On("ListTasks", ctx, projectID).Return(tasks, nil)

	wizard, err := service.StartWizard(ctx, projectID)
	require.NoError(t, err)

	_, err = wizard.ToggleTask(tasks[0].ID)
	require.NoError(t, err)

	err = service.Close(wizard.ID, false)
	assert.ErrorIs(t, err, ErrDiscardRequiresConfirm)

	// Still open until the user confirms the discard.
	_, err = service.Wizard(wizard.ID)
	require.NoError(t, err)

	require.NoError(t, service.Close(wizard.ID, true))
	_, err = service.Wizard(wizard.ID)
	assert.Error(t, err)
}
