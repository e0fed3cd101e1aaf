package apihttp

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"freelance-tax/internal/audit"
	"freelance-tax/internal/auth"
)

// Auditor records mutating commands.
type Auditor struct {
	logger audit.Logger
	log    zerolog.Logger
}

// NewAuditor wraps an audit logger; a nil logger disables auditing.
func NewAuditor(logger audit.Logger, log zerolog.Logger) *Auditor {
	return &Auditor{logger: logger, log: log}
}

// Record writes one audit entry for the request's identity.
func (a *Auditor) Record(r *http.Request, action, resourceType, resourceID string, meta map[string]any) {
	if a == nil || a.logger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	err := a.logger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           clientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		a.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(forwarded) != "" {
		return strings.TrimSpace(forwarded)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
