package gateway

import (
	"regexp"
	"strings"
)

var schemaNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateRequest checks a completion request without performing any I/O.
// It returns a *ValidationError describing the first violation found.
func ValidateRequest(req *CompletionRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "request is required"}
	}

	if strings.TrimSpace(req.Model) == "" {
		return &ValidationError{Field: "model", Message: "model name is required"}
	}

	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "at least one message is required"}
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return &ValidationError{Field: "messages.role", Message: "invalid message role: " + msg.Role}
		}
		if strings.TrimSpace(msg.Content) == "" {
			return &ValidationError{Field: "messages.content", Message: "message content cannot be empty"}
		}
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return &ValidationError{Field: "temperature", Message: "temperature must be between 0 and 2"}
	}

	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		return &ValidationError{Field: "max_tokens", Message: "max tokens must be positive"}
	}

	if req.TopP != nil && (*req.TopP < 0 || *req.TopP > 1) {
		return &ValidationError{Field: "top_p", Message: "top p must be between 0 and 1"}
	}

	if req.FrequencyPenalty != nil && (*req.FrequencyPenalty < -2 || *req.FrequencyPenalty > 2) {
		return &ValidationError{Field: "frequency_penalty", Message: "frequency penalty must be between -2 and 2"}
	}

	if req.PresencePenalty != nil && (*req.PresencePenalty < -2 || *req.PresencePenalty > 2) {
		return &ValidationError{Field: "presence_penalty", Message: "presence penalty must be between -2 and 2"}
	}

	if req.ResponseFormat != nil {
		return validateResponseFormat(req.ResponseFormat)
	}

	return nil
}

func validateResponseFormat(rf *ResponseFormat) error {
	if rf.Type != ResponseFormatJSONSchema {
		return &ValidationError{Field: "response_format.type", Message: "response format type must be 'json_schema'"}
	}

	if rf.JSONSchema == nil {
		return &ValidationError{Field: "response_format.json_schema", Message: "json schema definition is required"}
	}

	if strings.TrimSpace(rf.JSONSchema.Name) == "" {
		return &ValidationError{Field: "response_format.json_schema.name", Message: "schema name is required"}
	}

	if !schemaNamePattern.MatchString(rf.JSONSchema.Name) {
		return &ValidationError{
			Field:   "response_format.json_schema.name",
			Message: "schema name must contain only letters, numbers, underscores, and dashes",
		}
	}

	if rf.JSONSchema.Schema == nil {
		return &ValidationError{Field: "response_format.json_schema.schema", Message: "schema object is required"}
	}

	if rf.JSONSchema.Schema.Type != "object" {
		return &ValidationError{Field: "response_format.json_schema.schema.type", Message: "root schema type must be 'object'"}
	}

	return nil
}
