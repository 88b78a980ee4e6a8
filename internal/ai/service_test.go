package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

type stubSender struct {
	text    string
	err     error
	prompts []string
}

func (s *stubSender) send(_ context.Context, _ string, _ int64, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func TestGeneratePlanDecodesResponse(t *testing.T) {
	sender := &stubSender{text: `{
		"projectName": "Launch",
		"projectDescription": "Get v1 out the door",
		"tasks": [
			{"title": "Write docs", "priority": "MEDIUM", "type": "TASK", "subtasks": ["outline", "draft"]}
		]
	}`}
	svc := newService(sender, Config{})

	plan, err := svc.GeneratePlan(context.Background(), "launch v1", "small team")
	require.NoError(t, err)
	require.Equal(t, "Launch", plan.ProjectName)
	require.Len(t, plan.Tasks, 1)
	require.Equal(t, []string{"outline", "draft"}, plan.Tasks[0].Subtasks)

	require.Len(t, sender.prompts, 1)
	require.Contains(t, sender.prompts[0], "launch v1")
	require.Contains(t, sender.prompts[0], "small team")
}

func TestRefineTaskRequiresTitle(t *testing.T) {
	svc := newService(&stubSender{}, Config{})

	_, err := svc.RefineTask(context.Background(), "   ", "whatever")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.StatusCode)
}

func TestInvokeTransportError(t *testing.T) {
	svc := newService(&stubSender{err: errors.New("connection reset")}, Config{})

	_, err := svc.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "")
	require.ErrorIs(t, err, apperrors.ErrInternalServer)
}

func TestInvokeUnparseableResponse(t *testing.T) {
	svc := newService(&stubSender{text: "I am unable to comply with the format."}, Config{})

	_, err := svc.AnalyzeProject(context.Background(), ProjectSnapshot{Name: "P"})
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestChatRequiresMessages(t *testing.T) {
	svc := newService(&stubSender{}, Config{})

	_, err := svc.Chat(context.Background(), nil, "context")
	require.Error(t, err)
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	_, err := NewService(Config{})
	require.Error(t, err)

	svc, err := NewService(Config{APIKey: "test-key"})
	require.NoError(t, err)
	require.Equal(t, defaultModel, svc.model)
	require.Equal(t, int64(defaultMaxTokens), svc.maxTokens)
}
