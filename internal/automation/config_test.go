package automation

import (
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}} {
		cfg := ParseConfig(raw)
		if !cfg.Headless {
			t.Error("Headless default = false, want true")
		}
		if cfg.MobileUserAgents != nil {
			t.Errorf("MobileUserAgents default = %v, want nil", cfg.MobileUserAgents)
		}
		if cfg.ImplicitWait != 10*time.Second {
			t.Errorf("ImplicitWait default = %v, want 10s", cfg.ImplicitWait)
		}
		if cfg.BaseURL != DefaultBaseURL {
			t.Errorf("BaseURL default = %q", cfg.BaseURL)
		}
		if cfg.Platform != DefaultPlatform {
			t.Errorf("Platform default = %q", cfg.Platform)
		}
	}
}

func TestParseConfigHeadless(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"string false", "false", false},
		{"string FALSE", "FALSE", false},
		{"string true", "true", true},
		{"arbitrary string", "yes", true},
		{"native false", false, false},
		{"native true", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ParseConfig(map[string]any{"headless": tt.value})
			if cfg.Headless != tt.want {
				t.Errorf("Headless = %v, want %v", cfg.Headless, tt.want)
			}
		})
	}
}

func TestParseConfigUserAgents(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int // expected agent count, 0 means nil
	}{
		{"serialized list", `["UA one","UA two"]`, 2},
		{"malformed json", `["UA one`, 0},
		{"not a list", `"just a string"`, 0},
		{"native list", []any{"UA one", "UA two", "UA three"}, 3},
		{"empty list", []any{}, 0},
		{"absent", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{}
			if tt.value != nil {
				raw["mobile_user_agents"] = tt.value
			}
			cfg := ParseConfig(raw)
			if tt.want == 0 {
				if cfg.MobileUserAgents != nil {
					t.Errorf("MobileUserAgents = %v, want nil", cfg.MobileUserAgents)
				}
				return
			}
			if len(cfg.MobileUserAgents) != tt.want {
				t.Errorf("got %d agents, want %d", len(cfg.MobileUserAgents), tt.want)
			}
		})
	}
}

func TestParseConfigImplicitWait(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"number", float64(5), 5 * time.Second},
		{"numeric string", "7", 7 * time.Second},
		{"garbage string", "soon", 10 * time.Second},
		{"zero", float64(0), 10 * time.Second},
		{"negative", float64(-3), 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ParseConfig(map[string]any{"implicit_wait": tt.value})
			if cfg.ImplicitWait != tt.want {
				t.Errorf("ImplicitWait = %v, want %v", cfg.ImplicitWait, tt.want)
			}
		})
	}
}
