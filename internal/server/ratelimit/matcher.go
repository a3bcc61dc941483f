package ratelimit

import (
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Patterns ending with "/" match by prefix (e.g., "/render-jobs/" matches
// "/render-jobs/{id}/cancel"); patterns starting with "*" match by suffix
// (e.g., "*/resumes" matches "/users/{id}/resumes"). Configs are checked in
// order, so more specific entries should come first.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Special case: health check endpoint is unlimited
	if path == "/health" && method == "GET" {
		return &EndpointConfig{
			Limit:  0, // Unlimited
			Window: 0,
			Burst:  0,
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		switch {
		case config.Path == path:
			return config
		case strings.HasPrefix(config.Path, "*") && strings.HasSuffix(path, config.Path[1:]):
			return config
		case strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path):
			return config
		}
	}

	// No match found
	return nil
}
