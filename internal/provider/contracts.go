package provider

import "context"

// Name identifies a concrete extraction backend. Adding a provider means
// adding a constant here, an adapter package, and a Registry case.
type Name string

const (
	Gemini Name = "gemini"
	OpenAI Name = "openai"
)

// ParseName maps a config string to a provider Name.
func ParseName(s string) (Name, bool) {
	switch Name(s) {
	case Gemini:
		return Gemini, true
	case OpenAI:
		return OpenAI, true
	default:
		return "", false
	}
}

// Content part types for multi-part messages.
const (
	PartText     = "text"
	PartImageURL = "image_url"
	PartFileURL  = "file_url"
)

// Part is one element of a multi-part message content. Text parts carry Text;
// image parts carry a data: or https URL; file parts carry the raw payload
// base64-encoded plus its media type.
type Part struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	FileData  string `json:"file_data,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// Message is a single chat turn. Content is used for plain-text messages;
// Parts takes precedence when non-empty.
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
}

// Tool describes a callable function exposed to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest is the unified request shape every adapter translates into its
// provider's wire format.
type ChatRequest struct {
	Model          string    `json:"model,omitempty"`
	Messages       []Message `json:"messages"`
	Tools          []Tool    `json:"tools,omitempty"`
	ToolChoice     string    `json:"tool_choice,omitempty"`
	MaxTokens      int       `json:"max_tokens,omitempty"`
	Temperature    *float32  `json:"temperature,omitempty"`
	ResponseFormat string    `json:"response_format,omitempty"` // "json" for JSON-only output
}

type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the unified response shape.
type ChatResponse struct {
	ID      string   `json:"id"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Content returns the text of the first choice, or "" when there is none.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Adapter translates the unified contract to one provider's wire shape and
// back. Adapters do not retry; recovery is the Router's job.
type Adapter interface {
	Name() Name
	Invoke(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
