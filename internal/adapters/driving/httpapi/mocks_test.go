package httpapi

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// mockUploadService is a mock implementation of driving.UploadService.
type mockUploadService struct {
	session *domain.ChatSession
	err     error

	gotRole  domain.Role
	gotFiles []domain.UploadFile
}

func (m *mockUploadService) Upload(_ context.Context, role domain.Role, files []domain.UploadFile) (*domain.ChatSession, error) {
	m.gotRole = role
	m.gotFiles = files
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *domain.Answer
	err    error

	gotSessionID string
	gotQuestion  string
}

func (m *mockAskService) Ask(_ context.Context, sessionID, question string) (*domain.Answer, error) {
	m.gotSessionID = sessionID
	m.gotQuestion = question
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	sessions   []domain.ChatSession
	messages   []domain.Message
	listErr    error
	historyErr error
	deleteErr  error

	deletedID string
}

func (m *mockSessionService) List(_ context.Context) ([]domain.ChatSession, error) {
	return m.sessions, m.listErr
}

func (m *mockSessionService) History(_ context.Context, _ string) ([]domain.Message, error) {
	return m.messages, m.historyErr
}

func (m *mockSessionService) Delete(_ context.Context, sessionID string) error {
	m.deletedID = sessionID
	return m.deleteErr
}

func (m *mockSessionService) Reconcile(_ context.Context) (int, error) {
	return 0, nil
}
