// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"

	"github.com/ledgerdesk/account-assistant/internal/tool"
)

// Message roles threaded through one conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoiceAuto lets the model decide whether and which tools to call.
const ToolChoiceAuto = "auto"

// ErrToolsUnsupported is returned by providers that cannot accept a tool
// catalog on a completion request.
var ErrToolsUnsupported = errors.New("provider does not support tool calling")

// Message is one role-tagged entry in a conversation.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []tool.Call

	// ToolCallID correlates a role=tool message with the call it answers.
	ToolCallID string
}

// CompletionRequest represents one model turn. Tools and ToolChoice are
// optional; a request without them forces a plain text answer.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Tools       []tool.Definition
	ToolChoice  string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the model's reply: either plain content, or one or
// more requested tool calls.
type CompletionResponse struct {
	Content   string
	ToolCalls []tool.Call

	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options carries provider construction settings.
type Options struct {
	APIKey  string
	BaseURL string
}

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey)
	case ProviderOpenAI:
		return NewOpenAIClient(opts.APIKey, opts.BaseURL)
	default:
		return NewOpenAIClient(opts.APIKey, opts.BaseURL)
	}
}
