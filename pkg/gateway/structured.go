package gateway

import (
	"context"
	"encoding/json"
	"strings"
)

// SendStructured sends a completion that must answer with JSON matching
// req.ResponseFormat and decodes the first choice's content into T.
//
// The request must carry a json_schema response format. Decoding failures
// return a ResponseValidationError holding both the expected schema and the
// raw content, so the caller can log or display the mismatch.
func SendStructured[T any](ctx context.Context, c *Client, req *CompletionRequest) (T, error) {
	var zero T

	if req == nil || req.ResponseFormat == nil {
		return zero, &ValidationError{
			Field:   "response_format",
			Message: "structured output requires a response format with a json schema",
		}
	}

	ctx, _ = c.requestScope(ctx)
	resp, err := c.SendCompletion(ctx, req)
	if err != nil {
		return zero, err
	}

	content := resp.Content()
	if strings.TrimSpace(content) == "" {
		return zero, &ResponseValidationError{Message: "response content is empty"}
	}

	expected := schemaJSON(req.ResponseFormat)

	if strings.TrimSpace(content) == "null" {
		return zero, &ResponseValidationError{
			Message:        "failed to deserialize response to requested type",
			ExpectedSchema: expected,
			ActualResponse: content,
		}
	}

	var out T
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		c.logger.ErrorContext(ctx, "structured response does not match schema",
			"model", req.Model,
			"error", err,
			"content", truncate(content, maxLoggedBody),
		)
		return zero, &ResponseValidationError{
			Message:        "response does not match the requested schema",
			ExpectedSchema: expected,
			ActualResponse: content,
			Cause:          err,
		}
	}

	return out, nil
}

func schemaJSON(format *ResponseFormat) string {
	if format == nil || format.JSONSchema == nil {
		return ""
	}
	raw, err := json.Marshal(format.JSONSchema.Schema)
	if err != nil {
		return ""
	}
	return string(raw)
}
