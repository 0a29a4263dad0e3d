package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdesk/account-assistant/internal/llm"
	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/tool"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
	"github.com/ledgerdesk/account-assistant/pkg/metrics"
)

// ErrUpstream marks a model service that is unreachable or returned a
// malformed response after the retry budget was spent.
var ErrUpstream = errors.New("model service unavailable")

// personaPrompt fixes the assistant's role and constraints for every request.
const personaPrompt = "You are a support agent for a small business. " +
	"You can CHECK account balances, CREATE support tickets and REGISTER payments using the available tools. " +
	"If you are missing data (customer ID, amount, ticket subject), ask the user for it instead of guessing."

// maxToolCallsPerTurn caps how many calls from a single model turn are
// executed. Calls past the cap get a structured error result instead of
// running.
const maxToolCallsPerTurn = 16

// AssistantConfig holds tunables for the orchestration loop.
type AssistantConfig struct {
	Model        string
	MaxTokens    int
	Timeout      time.Duration
	RetryBackoff time.Duration
}

// AssistantService drives the two-turn tool-calling protocol: the first model
// turn may request tool calls, the loop executes them sequentially against
// the domain operations, and a second turn composes a final answer grounded
// in the real results.
type AssistantService struct {
	llm      llm.Client
	registry *tool.Registry
	cfg      AssistantConfig
	logger   *logger.Logger
}

// NewAssistantService creates a new assistant service. The model client is
// injected so tests can substitute a fake.
func NewAssistantService(client llm.Client, registry *tool.Registry, cfg AssistantConfig, log *logger.Logger) *AssistantService {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	return &AssistantService{
		llm:      client,
		registry: registry,
		cfg:      cfg,
		logger:   log,
	}
}

// Ask turns free-text user input into zero or more dispatched domain
// operations and a final natural-language answer.
func (s *AssistantService) Ask(ctx context.Context, text string) (*model.AssistantResponse, error) {
	if strings.TrimSpace(text) == "" {
		metrics.AssistantRequestsTotal.WithLabelValues("validation_error").Inc()
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	conversation := []llm.Message{
		{Role: llm.RoleSystem, Content: personaPrompt},
		{Role: llm.RoleUser, Content: text},
	}

	first, err := s.complete(ctx, &llm.CompletionRequest{
		Model:      s.cfg.Model,
		Messages:   conversation,
		Tools:      s.registry.Definitions(),
		ToolChoice: llm.ToolChoiceAuto,
		MaxTokens:  s.cfg.MaxTokens,
	})
	if err != nil {
		metrics.AssistantRequestsTotal.WithLabelValues("upstream_error").Inc()
		return nil, err
	}

	// The model answered directly; nothing to execute.
	if len(first.ToolCalls) == 0 {
		metrics.AssistantRequestsTotal.WithLabelValues("answered").Inc()
		return &model.AssistantResponse{Answer: first.Content}, nil
	}

	calls := first.ToolCalls
	executed := len(calls)
	if executed > maxToolCallsPerTurn {
		s.logger.Warn("model requested too many tool calls",
			zap.Int("requested", len(calls)),
			zap.Int("limit", maxToolCallsPerTurn),
		)
		executed = maxToolCallsPerTurn
	}

	conversation = append(conversation, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   first.Content,
		ToolCalls: calls,
	})

	// Execute every requested call sequentially, in the order the model
	// asked for them. A failing call becomes a structured error entry that
	// both the model and the caller can see; it never aborts the loop. Calls
	// past the per-turn cap are not executed; they get the same structured
	// error treatment so the drop is visible instead of silent.
	results := make([]any, 0, len(calls))
	for i, call := range calls {
		var result any
		status := "success"
		if i >= executed {
			status = "skipped"
			result = map[string]string{"error": "tool call limit exceeded, call not executed"}
		} else if r, err := s.registry.Dispatch(ctx, call.Name, call.Arguments); err != nil {
			status = "error"
			s.logger.Warn("tool call failed",
				zap.String("tool", call.Name),
				zap.String("call_id", call.ID),
				zap.Error(err),
			)
			result = map[string]string{"error": err.Error()}
		} else {
			result = r
		}
		metrics.RecordToolExecution(call.Name, status)
		results = append(results, result)

		payload, err := json.Marshal(result)
		if err != nil {
			payload = []byte(`{"error":"tool result could not be encoded"}`)
		}
		conversation = append(conversation, llm.Message{
			Role:       llm.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
		})
	}

	// Second turn, no tools attached: the model composes the final answer
	// from the concrete results.
	final, err := s.complete(ctx, &llm.CompletionRequest{
		Model:     s.cfg.Model,
		Messages:  conversation,
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		metrics.AssistantRequestsTotal.WithLabelValues("upstream_error").Inc()
		return nil, err
	}

	metrics.AssistantRequestsTotal.WithLabelValues("answered_with_tools").Inc()
	return &model.AssistantResponse{
		Answer:      final.Content,
		ToolResults: results,
	}, nil
}

// complete performs one model turn with a bounded timeout and a single
// backoff retry for transient failures. Exhaustion surfaces as ErrUpstream.
func (s *AssistantService) complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := s.completeOnce(ctx, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, llm.ErrToolsUnsupported) || ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.logger.Warn("model call failed, retrying once", zap.Error(err))
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
	case <-time.After(s.cfg.RetryBackoff):
	}

	resp, err = s.completeOnce(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return resp, nil
}

func (s *AssistantService) completeOnce(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Complete(callCtx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMCall(s.llm.Name(), status, time.Since(start).Seconds())
	return resp, err
}
