// Package gateway implements a client for an OpenAI-compatible LLM gateway
// such as OpenRouter.
//
// # Overview
//
// The client sends chat completion requests, either directly to the provider
// with an API key or through a trusted proxy that holds the key. It validates
// requests locally, paces admissions, retries transient failures and maps
// every failure onto a small error taxonomy (see Kind).
//
// # Addressing Modes
//
//   - ModeDirect posts to {BaseURL}/chat/completions with the API key as a
//     bearer token. Empty and placeholder keys are never sent.
//   - ModeProxy posts to {ProxyURL}/ with the proxy token as a bearer token.
//
// Both modes send the HTTP-Referer and X-Title identification headers.
//
// # Basic Usage
//
//	cfg := gateway.DefaultConfig()
//	cfg.APIKey = os.Getenv("MOTONOMAD_GATEWAY_API_KEY")
//
//	client, err := gateway.New(cfg, gateway.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.SendCompletion(ctx, &gateway.CompletionRequest{
//	    Model:    "google/gemma-3-27b-it:free",
//	    Messages: []gateway.Message{gateway.UserMessage("Hello!")},
//	})
//
// # Structured Output
//
// SendStructured decodes the reply into a Go type. The request must carry a
// json_schema response format built with NewJSONSchemaFormat.
//
// # Pacing and Retries
//
// Every call, including each stream, first passes the pacer: at most
// MaxConcurrentRequests calls are admitted at once, and admissions start at
// least MinRequestDelay apart. Non-streaming calls retry ServerError and
// TransportError with delays of 2s, 4s, 8s and so on, up to MaxRetries
// attempts. Rate limits are returned immediately with the Retry-After hint.
//
// # Error Handling
//
// Use errors.As with the concrete types, or KindOf for a coarse switch:
//
//	switch gateway.KindOf(err) {
//	case gateway.KindAuth:
//	    // reconfigure
//	case gateway.KindRateLimit:
//	    var rl *gateway.RateLimitError
//	    errors.As(err, &rl)
//	    // back off for rl.RetryAfter
//	}
package gateway
