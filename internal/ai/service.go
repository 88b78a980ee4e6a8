package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/logger"
	"github.com/taskrythm/taskrythm/pkg/metrics"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second
)

var (
	// ErrDisabled is returned when AI features are turned off in configuration.
	ErrDisabled = apperrors.New("AI_DISABLED", "AI features are not enabled", http.StatusServiceUnavailable)
	// ErrInvalidResponse signals that the model produced undecodable output.
	ErrInvalidResponse = apperrors.New("AI_INVALID_RESPONSE", "AI returned invalid data format", http.StatusInternalServerError)
)

// Config carries the settings needed to reach the model provider.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// messageSender abstracts the single outbound call so tests can stub the provider.
type messageSender interface {
	send(ctx context.Context, model string, maxTokens int64, prompt string) (string, error)
}

type anthropicSender struct {
	client anthropic.Client
}

func (s *anthropicSender) send(ctx context.Context, model string, maxTokens int64, prompt string) (string, error) {
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// Service wraps the model provider behind typed planning, refinement,
// analysis, reporting, and chat operations. One outbound call per request,
// no retries.
type Service struct {
	sender    messageSender
	model     string
	maxTokens int64
	timeout   time.Duration
	log       *zap.Logger
}

// NewService constructs a Service talking to the hosted model API.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai service: api key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return newService(&anthropicSender{client: client}, cfg), nil
}

func newService(sender messageSender, cfg Config) *Service {
	svc := &Service{
		sender:    sender,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		log:       logger.WithModule("ai"),
	}
	if svc.model == "" {
		svc.model = defaultModel
	}
	if svc.maxTokens <= 0 {
		svc.maxTokens = defaultMaxTokens
	}
	if svc.timeout <= 0 {
		svc.timeout = defaultTimeout
	}
	return svc
}

// GeneratePlan turns a free-form goal into a structured project plan.
func (s *Service) GeneratePlan(ctx context.Context, goal, planContext string) (*PlanResult, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, apperrors.NewBadRequest("goal is required")
	}
	return invoke[PlanResult](s, ctx, "generate_plan", buildPlanPrompt(goal, planContext))
}

// RefineTask expands a rough task title into a fleshed-out work item.
func (s *Service) RefineTask(ctx context.Context, title, description string) (*RefineResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.NewBadRequest("task title is required")
	}
	return invoke[RefineResult](s, ctx, "refine_task", buildRefinePrompt(title, description))
}

// AnalyzeProject scores the health of a project from its task snapshot.
func (s *Service) AnalyzeProject(ctx context.Context, snapshot ProjectSnapshot) (*AnalysisResult, error) {
	return invoke[AnalysisResult](s, ctx, "analyze_project", buildAnalysisPrompt(snapshot))
}

// WriteReport produces a status report for the given audience.
func (s *Service) WriteReport(ctx context.Context, snapshot ProjectSnapshot, audience string) (*ReportResult, error) {
	return invoke[ReportResult](s, ctx, "write_report", buildReportPrompt(snapshot, audience))
}

// Chat answers a conversational message grounded in workspace context.
func (s *Service) Chat(ctx context.Context, messages []ChatMessage, workspaceContext string) (*ChatResult, error) {
	if len(messages) == 0 {
		return nil, apperrors.NewBadRequest("at least one message is required")
	}
	return invoke[ChatResult](s, ctx, "chat", buildChatPrompt(messages, workspaceContext))
}

// invoke performs the outbound call and decodes the response. Transport and
// parse failures both surface as opaque 500s; details stay in the logs.
func invoke[T any](s *Service, ctx context.Context, feature, prompt string) (*T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.sender.send(ctx, s.model, s.maxTokens, prompt)
	if err != nil {
		metrics.AICalls.WithLabelValues(feature, "transport_error").Inc()
		s.log.Error("model call failed", zap.String("feature", feature), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	result, err := parsePayload[T](text)
	if err != nil {
		metrics.AICalls.WithLabelValues(feature, "parse_error").Inc()
		s.log.Error("model response unparseable",
			zap.String("feature", feature),
			zap.String("preview", preview(text, 200)),
			zap.Error(err))
		return nil, ErrInvalidResponse
	}

	metrics.AICalls.WithLabelValues(feature, "success").Inc()
	return &result, nil
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
