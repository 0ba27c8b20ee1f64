package providers

import "strings"

// ConfigString returns the trimmed string value for key from provider.Config or a fallback.
func ConfigString(cfg Provider, key, fallback string) string {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigBool returns the boolean value for key from provider.Config or a fallback.
func ConfigBool(cfg Provider, key string, fallback bool) bool {
	if cfg.Config == nil {
		return fallback
	}
	switch v := cfg.Config[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey   = "user_agent"
	ConfigAcceptKey      = "accept"
	ConfigMailtoKey      = "mailto"
	ConfigEmailKey       = "email"
	ConfigStripMarkupKey = "strip_markup"
)

const defaultAccept = "application/json"

// Headers builds request headers from a provider config. Explicit headers entries win
// over the config-derived ones; empty values are skipped.
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, 2+len(cfg.Headers))

	headers["Accept"] = ConfigString(cfg, ConfigAcceptKey, defaultAccept)
	if v := ConfigString(cfg, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	for k, v := range cfg.Headers {
		if strings.TrimSpace(v) == "" {
			continue
		}
		headers[k] = v
	}

	return headers
}
