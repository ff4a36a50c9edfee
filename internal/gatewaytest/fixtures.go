package gatewaytest

import (
	"encoding/json"
	"time"
)

// CompletionBody returns a chat completion response body with one choice.
func CompletionBody(content, model string) map[string]any {
	return map[string]any{
		"id":      "gen-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// ChunkLine returns an SSE data line carrying one content delta. The role is
// set only when first is true.
func ChunkLine(delta string, first bool) string {
	d := map[string]any{"content": delta}
	if first {
		d["role"] = "assistant"
	}
	chunk := map[string]any{
		"id":      "gen-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "test/model",
		"choices": []map[string]any{
			{"index": 0, "delta": d},
		},
	}
	b, _ := json.Marshal(chunk)
	return "data: " + string(b)
}

// DoneLine is the stream terminator.
const DoneLine = "data: [DONE]"

// ModelsBody returns a model list response body.
func ModelsBody(ids ...string) map[string]any {
	data := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]any{
			"id":             id,
			"name":           id,
			"context_length": 8192,
			"pricing":        map[string]any{"prompt": "0", "completion": "0"},
		})
	}
	return map[string]any{"data": data}
}

// ErrorBody returns a gateway error body.
func ErrorBody(code int, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
