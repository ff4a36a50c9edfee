package gateway

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// ResponseFormatJSONSchema is the only response format type the gateway accepts
// for structured output.
const ResponseFormatJSONSchema = "json_schema"

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// SystemMessage returns a message with the system role.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a message with the user role.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns a message with the assistant role.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// CompletionRequest is a chat completion request as sent on the wire.
// Optional fields are pointers so that unset values are omitted from the
// JSON body instead of being sent as zero values.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "openai/gpt-4o", "google/gemma-3-27b-it:free")
	Model string `json:"model"`

	// Messages is the conversation history
	Messages []Message `json:"messages"`

	// ResponseFormat constrains the output to a JSON schema
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0)
	TopP *float64 `json:"top_p,omitempty"`

	// FrequencyPenalty reduces repetition based on frequency (-2.0 to 2.0)
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// PresencePenalty reduces repetition (-2.0 to 2.0)
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// Stream indicates whether to stream the response
	Stream *bool `json:"stream,omitempty"`

	// Route selects the gateway routing strategy (e.g., "fallback")
	Route string `json:"route,omitempty"`
}

// streaming returns a shallow copy of the request with the stream flag set.
func (r *CompletionRequest) streaming() *CompletionRequest {
	cp := *r
	cp.Stream = Ptr(true)
	return &cp
}

// ResponseFormat requests structured output conforming to a JSON schema.
type ResponseFormat struct {
	// Type must be "json_schema"
	Type string `json:"type"`

	// JSONSchema is the schema definition
	JSONSchema *JSONSchemaDefinition `json:"json_schema"`
}

// NewJSONSchemaFormat builds a strict json_schema response format.
func NewJSONSchemaFormat(name string, schema *SchemaObject) *ResponseFormat {
	return &ResponseFormat{
		Type: ResponseFormatJSONSchema,
		JSONSchema: &JSONSchemaDefinition{
			Name:   name,
			Strict: true,
			Schema: schema,
		},
	}
}

// JSONSchemaDefinition names a schema and sets its strictness.
type JSONSchemaDefinition struct {
	Name   string        `json:"name"`
	Strict bool          `json:"strict"`
	Schema *SchemaObject `json:"schema"`
}

// SchemaObject is the root of a JSON-Schema-like object tree.
type SchemaObject struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties *bool                     `json:"additionalProperties,omitempty"`
	Items                *SchemaProperty           `json:"items,omitempty"`
	Description          string                    `json:"description,omitempty"`
}

// SchemaProperty describes a single property within a schema.
type SchemaProperty struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Items       *SchemaProperty `json:"items,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Minimum     *int            `json:"minimum,omitempty"`
	Maximum     *int            `json:"maximum,omitempty"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion)
	TotalTokens int `json:"total_tokens"`
}

// Choice is a single completion alternative.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message"`
	FinishReason string   `json:"finish_reason"`
}

// CompletionResponse is a complete, non-streamed chat completion.
type CompletionResponse struct {
	// ID is the unique response identifier
	ID string `json:"id"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`

	// Choices holds the completion alternatives, normally exactly one
	Choices []Choice `json:"choices"`

	// Usage contains token consumption information when the gateway reports it
	Usage *Usage `json:"usage,omitempty"`
}

// Content returns the first choice's message content, or "" when there is none.
func (r *CompletionResponse) Content() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Delta is the incremental part of a streamed message.
// Role is only present on the first chunk of a stream.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice is the per-choice payload of a streamed chunk.
type StreamChoice struct {
	Index        int    `json:"index"`
	Delta        *Delta `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// CompletionChunk is one incremental fragment of a streamed completion.
type CompletionChunk struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Created int64          `json:"created"`
	Choices []StreamChoice `json:"choices"`
}

// Content returns the first choice's delta content, or "" when there is none.
func (c *CompletionChunk) Content() string {
	if c == nil || len(c.Choices) == 0 || c.Choices[0].Delta == nil {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// ModelInfo describes a model offered by the gateway.
type ModelInfo struct {
	ID            string        `json:"id"`
	Name          string        `json:"name,omitempty"`
	Description   string        `json:"description,omitempty"`
	ContextLength *int          `json:"context_length,omitempty"`
	Pricing       *ModelPricing `json:"pricing,omitempty"`
	TopProvider   *TopProvider  `json:"top_provider,omitempty"`
}

// ModelPricing holds per-token prices as decimal strings.
type ModelPricing struct {
	Prompt     string `json:"prompt,omitempty"`
	Completion string `json:"completion,omitempty"`
}

// TopProvider describes the limits of the model's primary upstream.
type TopProvider struct {
	MaxCompletionTokens *int  `json:"max_completion_tokens,omitempty"`
	IsModerated         *bool `json:"is_moderated,omitempty"`
}

type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// Ptr returns a pointer to v. It is a convenience for filling optional
// request fields.
func Ptr[T any](v T) *T {
	return &v
}
