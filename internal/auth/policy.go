package auth

import (
	"net/http"
	"strings"
)

const apiPrefix = "/api/v1/"

// ownerRule reserves a command for the owner. An empty path matches every
// path under prefix; writesOnly leaves reads to viewers.
type ownerRule struct {
	path       string
	prefix     string
	writesOnly bool
}

var ownerRules = []ownerRule{
	{prefix: apiPrefix + "exports/"},
	{path: apiPrefix + "tax-schedules/generate"},
	{path: apiPrefix + "months/close"},
	{path: apiPrefix + "settings", writesOnly: true},
}

// Policy maps requests to the role they require.
type Policy struct {
	exemptPaths    map[string]struct{}
	exemptPrefixes []string
}

// NewDefaultPolicy builds the API policy. Requests matching exemptPaths or
// exemptPrefixes skip authentication.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{exemptPaths: set, exemptPrefixes: exemptPrefixes}
}

// IsExempt reports whether r skips authentication.
func (p Policy) IsExempt(r *http.Request) bool {
	if _, ok := p.exemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.exemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the role r needs. ok is false outside the API.
func (p Policy) RequiredRole(r *http.Request) (role Role, ok bool) {
	path := r.URL.Path
	if !strings.HasPrefix(path, apiPrefix) {
		return "", false
	}
	read := isRead(r.Method)
	for _, rule := range ownerRules {
		if rule.writesOnly && read {
			continue
		}
		if path == rule.path || (rule.prefix != "" && strings.HasPrefix(path, rule.prefix)) {
			return RoleOwner, true
		}
	}
	if read {
		return RoleViewer, true
	}
	return RoleAccountant, true
}

func isRead(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
