package models

// Message roles used in gateway conversations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single conversation message sent to or received from
// the model gateway. Content may be empty when the message carries tool calls.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a pending tool invocation requested by an assistant message.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its raw JSON arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a callable tool advertised to the model.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the schema portion of a Tool definition.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// DebateRound is one completed round of a multi-round debate: the prompt that
// was asked and each model's full answer. Immutable once the round completes.
type DebateRound struct {
	Prompt    string            `json:"prompt"`
	Responses map[string]string `json:"responses"`
}

// ModelDescriptor identifies one debate participant. Key is the short internal
// id ("claude"); ProviderModelID is what the gateway is invoked with.
type ModelDescriptor struct {
	Key             string `json:"key" yaml:"key"`
	ProviderModelID string `json:"model" yaml:"model"`
	DisplayName     string `json:"name" yaml:"name"`
	Color           string `json:"color" yaml:"color"`
}
