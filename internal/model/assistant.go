package model

// AssistantRequest is the free-text request to the assistant endpoint.
type AssistantRequest struct {
	Text string `json:"text"`
}

// AssistantResponse carries the model's final answer plus the raw result of
// every executed tool call, in execution order, for auditability.
type AssistantResponse struct {
	Answer      string `json:"answer"`
	ToolResults []any  `json:"tool_results,omitempty"`
}
