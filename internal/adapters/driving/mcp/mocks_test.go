package mcp

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer       *domain.Answer
	err          error
	gotSessionID string
	gotQuestion  string
}

func (m *mockAskService) Ask(_ context.Context, sessionID, question string) (*domain.Answer, error) {
	m.gotSessionID = sessionID
	m.gotQuestion = question
	return m.answer, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	sessions   []domain.ChatSession
	messages   []domain.Message
	listErr    error
	historyErr error
	deleteErr  error
}

func (m *mockSessionService) List(_ context.Context) ([]domain.ChatSession, error) {
	return m.sessions, m.listErr
}

func (m *mockSessionService) History(_ context.Context, _ string) ([]domain.Message, error) {
	return m.messages, m.historyErr
}

func (m *mockSessionService) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}

func (m *mockSessionService) Reconcile(_ context.Context) (int, error) {
	return 0, nil
}
