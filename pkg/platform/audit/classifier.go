package audit

import "strings"

// DefaultSensitivePrefixes are the endpoint groups whose authenticated
// traffic is recorded.
var DefaultSensitivePrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/profile",
	"/api/v1/health/records",
	"/api/v1/analytics",
}

// Classifier decides per request path whether the recorder runs.
type Classifier struct {
	prefixes []string
}

// NewClassifier returns a classifier over prefixes, or over
// DefaultSensitivePrefixes when none are given.
func NewClassifier(prefixes ...string) Classifier {
	if len(prefixes) == 0 {
		prefixes = DefaultSensitivePrefixes
	}
	return Classifier{prefixes: append([]string(nil), prefixes...)}
}

// IsSensitive reports whether path starts with any configured prefix.
func (c Classifier) IsSensitive(path string) bool {
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
