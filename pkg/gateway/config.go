package gateway

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Mode selects how the client addresses the gateway.
type Mode string

const (
	// ModeDirect talks straight to the provider using the configured API key.
	ModeDirect Mode = "direct"

	// ModeProxy talks to a trusted intermediary that holds the provider key.
	ModeProxy Mode = "proxy"
)

// Default values used when a Config field is left at its zero value.
const (
	DefaultBaseURL               = "https://openrouter.ai/api/v1"
	DefaultHTTPReferer           = "https://github.com/domadev0101/10xMotoNomad"
	DefaultAppTitle              = "MotoNomad - Travel Planning App"
	DefaultTimeout               = 60 * time.Second
	DefaultMaxRetries            = 3
	DefaultMaxConcurrentRequests = 5
	DefaultMinRequestDelay       = 100 * time.Millisecond
	DefaultProbeModel            = "openai/gpt-3.5-turbo"
	DefaultProbeTimeout          = 10 * time.Second
)

// placeholderAPIKey is the value shipped in sample configuration files.
const placeholderAPIKey = "your-api-key-here"

// Config is the gateway client configuration. It is passed by value to New
// and never modified afterwards.
type Config struct {
	// Mode is the addressing mode (direct or proxy). Empty means direct.
	Mode Mode

	// APIKey is the provider credential used in direct mode
	APIKey string

	// BaseURL is the provider API base URL used in direct mode and for key probes
	BaseURL string

	// ProxyURL is the intermediary endpoint used in proxy mode
	ProxyURL string

	// ProxyToken is the bearer credential presented to the intermediary
	ProxyToken string

	// HTTPReferer is sent as the HTTP-Referer identification header
	HTTPReferer string

	// AppTitle is sent as the X-Title identification header
	AppTitle string

	// Timeout is the per-attempt HTTP timeout
	Timeout time.Duration

	// MaxRetries caps the number of attempts for retryable failures
	MaxRetries int

	// MaxConcurrentRequests bounds how many calls may be admitted at once
	MaxConcurrentRequests int

	// MinRequestDelay is the minimum start-to-start spacing between requests
	MinRequestDelay time.Duration

	// ProbeModel is the model used by ValidateAPIKey
	ProbeModel string

	// ProbeTimeout is the timeout of the isolated ValidateAPIKey transport
	ProbeTimeout time.Duration
}

// DefaultConfig returns a direct-mode configuration with all defaults set and
// no API key.
func DefaultConfig() Config {
	return Config{
		Mode:                  ModeDirect,
		BaseURL:               DefaultBaseURL,
		HTTPReferer:           DefaultHTTPReferer,
		AppTitle:              DefaultAppTitle,
		Timeout:               DefaultTimeout,
		MaxRetries:            DefaultMaxRetries,
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		MinRequestDelay:       DefaultMinRequestDelay,
		ProbeModel:            DefaultProbeModel,
		ProbeTimeout:          DefaultProbeTimeout,
	}
}

// withDefaults fills zero-valued fields. MaxRetries and MinRequestDelay keep
// zero as a meaningful value (single attempt, no pacing).
func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeDirect
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.HTTPReferer == "" {
		c.HTTPReferer = DefaultHTTPReferer
	}
	if c.AppTitle == "" {
		c.AppTitle = DefaultAppTitle
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if c.MinRequestDelay < 0 {
		c.MinRequestDelay = 0
	}
	if c.ProbeModel == "" {
		c.ProbeModel = DefaultProbeModel
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	return c
}

// validate rejects structurally unusable values. A missing credential or
// proxy URL is not an error here; it is reported per call by checkUsable.
func (c Config) validate() error {
	switch c.Mode {
	case ModeDirect, ModeProxy:
	default:
		return fmt.Errorf("unknown gateway mode %q (expected %q or %q)", c.Mode, ModeDirect, ModeProxy)
	}

	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}
	if c.ProxyURL != "" {
		if _, err := url.ParseRequestURI(c.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy url %q: %w", c.ProxyURL, err)
		}
	}
	return nil
}

// HasAPIKey reports whether APIKey holds a real credential rather than an
// empty value or a sample-config placeholder.
func (c Config) HasAPIKey() bool {
	key := strings.TrimSpace(c.APIKey)
	if key == "" || key == placeholderAPIKey || strings.HasPrefix(key, "your-") {
		return false
	}
	return true
}

// checkUsable verifies the active mode has what it needs to issue a call.
func (c Config) checkUsable() error {
	if c.Mode == ModeProxy {
		if strings.TrimSpace(c.ProxyURL) == "" {
			return &AuthError{Message: "proxy url is not configured; set gateway.proxy_url"}
		}
		return nil
	}

	if !c.HasAPIKey() {
		return &AuthError{Message: "api key is not configured; set gateway.api_key (get one at https://openrouter.ai/keys)"}
	}
	return nil
}

// completionsURL returns the chat completion endpoint for the active mode.
// Proxy mode posts to the proxy root.
func (c Config) completionsURL() string {
	if c.Mode == ModeProxy {
		return strings.TrimRight(c.ProxyURL, "/") + "/"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
}

// modelsURL returns the model listing endpoint relative to the active base.
func (c Config) modelsURL() string {
	if c.Mode == ModeProxy {
		return strings.TrimRight(c.ProxyURL, "/") + "/models"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/models"
}

// modeLabel is a human-readable label for logs.
func (c Config) modeLabel() string {
	if c.Mode == ModeProxy {
		return "proxy"
	}
	return "direct"
}
