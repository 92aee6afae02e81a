// Package safety provides filtering, confirmation, and audit logging for
// issue tracker operations exposed over MCP.
package safety

import (
	"path/filepath"

	"github.com/jamesprial/issue-mcp/internal/config"
)

// Filter decides which values (issue owners, statuses) are visible using an
// allowlist and a denylist of filepath.Match glob patterns.
//
// Rules:
//   - If both lists are empty, every value is allowed.
//   - The denylist is checked first and always wins.
//   - A non-empty allowlist admits only values matching one of its patterns.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided pattern slices. Either may
// be nil.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// FilterFromConfig builds a Filter from a config.ResourceFilter.
func FilterFromConfig(rf config.ResourceFilter) *Filter {
	return NewFilter(rf.Allowlist, rf.Denylist)
}

// IsAllowed reports whether value passes the filter. A nil Filter allows
// everything.
func (f *Filter) IsAllowed(value string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.denylist {
		if matchGlob(pattern, value) {
			return false
		}
	}
	if len(f.allowlist) == 0 {
		return true
	}
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, value) {
			return true
		}
	}
	return false
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, value string) bool {
	matched, err := filepath.Match(pattern, value)
	return err == nil && matched
}
