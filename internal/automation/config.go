package automation

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Config defaults
const (
	DefaultBaseURL      = "https://www.example.com"
	DefaultPlatform     = "generic"
	DefaultImplicitWait = 10 * time.Second
)

// Config describes one session's launch profile. Immutable for the
// session's lifetime; supplied with the start request.
type Config struct {
	Headless         bool          `json:"headless"`
	MobileUserAgents []string      `json:"mobile_user_agents,omitempty"`
	ImplicitWait     time.Duration `json:"implicit_wait"`
	BaseURL          string        `json:"base_url"`
	Platform         string        `json:"platform"`
}

// ParseConfig builds a Config from the loosely typed configuration
// mapping of a start request. Every field is optional; values that do
// not parse fall back to their defaults rather than failing the start.
func ParseConfig(raw map[string]any) Config {
	cfg := Config{
		Headless:     true,
		ImplicitWait: DefaultImplicitWait,
		BaseURL:      DefaultBaseURL,
		Platform:     DefaultPlatform,
	}
	if raw == nil {
		return cfg
	}

	// Headless unless explicitly "false"/false.
	switch v := raw["headless"].(type) {
	case string:
		cfg.Headless = strings.ToLower(v) != "false"
	case bool:
		cfg.Headless = v
	}

	cfg.MobileUserAgents = parseUserAgents(raw["mobile_user_agents"])

	switch v := raw["implicit_wait"].(type) {
	case float64:
		cfg.ImplicitWait = time.Duration(v) * time.Second
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.ImplicitWait = time.Duration(n) * time.Second
		}
	}
	if cfg.ImplicitWait <= 0 {
		cfg.ImplicitWait = DefaultImplicitWait
	}

	if v, ok := raw["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := raw["platform"].(string); ok && v != "" {
		cfg.Platform = v
	}
	return cfg
}

// parseUserAgents accepts either a native list or a serialized JSON
// array. Malformed input yields nil so the built-in fallback agents
// apply.
func parseUserAgents(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		agents := make([]string, 0, len(val))
		for _, a := range val {
			if s, ok := a.(string); ok && s != "" {
				agents = append(agents, s)
			}
		}
		if len(agents) == 0 {
			return nil
		}
		return agents
	case string:
		var agents []string
		if err := json.Unmarshal([]byte(val), &agents); err != nil {
			return nil
		}
		if len(agents) == 0 {
			return nil
		}
		return agents
	default:
		return nil
	}
}
