package auth

import (
	"fmt"
	"net/http"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/model"
)

// Requirement is the capability a route demands.
type Requirement int

const (
	// Public routes are reachable by anyone, principal or not.
	Public Requirement = iota
	// Authenticated routes need any verified non-guest principal.
	Authenticated
	// UserOnly routes need exactly the USER role.
	UserOnly
	// AdminOnly routes need exactly the ADMIN role.
	AdminOnly
)

// Rule maps (method, path pattern) to a requirement. Method "" matches any
// method. Patterns use '/'-separated globs: '*' matches one segment, '**'
// matches any number of segments.
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

type compiledRule struct {
	method  string
	matcher glob.Glob
	require Requirement
}

// Policy is an ordered rule table evaluated top to bottom, first match wins.
// Specific overrides (exact public GETs) are listed before catch-alls; a
// request matching nothing at all defaults to Authenticated. The table is
// immutable after construction and safe for concurrent use.
type Policy struct {
	rules []compiledRule
}

func NewPolicy(rules []Rule) (*Policy, error) {
	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		m, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("policy pattern %q: %w", r.Pattern, err)
		}
		p.rules = append(p.rules, compiledRule{method: r.Method, matcher: m, require: r.Require})
	}
	return p, nil
}

// Evaluate returns the requirement for a request line.
func (p *Policy) Evaluate(method, path string) Requirement {
	for _, r := range p.rules {
		if r.method != "" && r.method != method {
			continue
		}
		if r.matcher.Match(path) {
			return r.require
		}
	}
	return Authenticated
}

// Middleware enforces the policy against the principal the gate attached.
// Anonymous requests on protected routes get 401; authenticated principals
// with the wrong role get 403. Ownership checks ("only edit your own
// article") are not enforced here, they belong to the handler.
func (p *Policy) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require := p.Evaluate(r.Method, r.URL.Path)
			if require == Public {
				next.ServeHTTP(w, r)
				return
			}

			pr := FromContext(r.Context())
			if !pr.Authenticated() {
				unauthorized(w, "authentication required")
				return
			}

			switch require {
			case Authenticated:
				if pr.Role == model.RoleGuest {
					logger.Info("insufficient role",
						zap.String("path", r.URL.Path),
						zap.Stringer("role", pr.Role))
					forbidden(w)
					return
				}
			case UserOnly:
				if pr.Role != model.RoleUser {
					logger.Info("insufficient role",
						zap.String("path", r.URL.Path),
						zap.Stringer("role", pr.Role),
						zap.Stringer("required", model.RoleUser))
					forbidden(w)
					return
				}
			case AdminOnly:
				if pr.Role != model.RoleAdmin {
					logger.Info("insufficient role",
						zap.String("path", r.URL.Path),
						zap.Stringer("role", pr.Role),
						zap.Stringer("required", model.RoleAdmin))
					forbidden(w)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultRules is the route table for the API surface. Layering matters:
// public reads and the login flow come first, then role-specific writes, and
// anything unlisted falls through to the authenticated default.
func DefaultRules() []Rule {
	return []Rule{
		// Health and metrics.
		{Method: http.MethodGet, Pattern: "/healthz", Require: Public},
		{Method: http.MethodGet, Pattern: "/metrics", Require: Public},

		// Login flow.
		{Method: http.MethodPost, Pattern: "/api/users/login", Require: Public},
		{Method: http.MethodPost, Pattern: "/api/users/register", Require: Public},

		// Admin article management, before the USER article rules.
		{Pattern: "/api/articles/admin/**", Require: AdminOnly},

		// USER writes on articles.
		{Method: http.MethodPost, Pattern: "/api/articles/publish", Require: UserOnly},
		{Method: http.MethodPut, Pattern: "/api/articles/edit/**", Require: UserOnly},
		{Method: http.MethodDelete, Pattern: "/api/articles/delete/**", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/articles/*/like", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/articles/*/unlike", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/articles/*/favorite", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/articles/*/unfavorite", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/comments", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/comments/*/like", Require: UserOnly},
		{Method: http.MethodPost, Pattern: "/api/comments/*/unlike", Require: UserOnly},

		// Public article reads, after the write rules above.
		{Method: http.MethodGet, Pattern: "/api/articles", Require: Public},
		{Method: http.MethodGet, Pattern: "/api/articles/**", Require: Public},

		// Status reads answer OFF for anonymous callers.
		{Method: http.MethodGet, Pattern: "/api/users/*/follow/status", Require: Public},
		{Method: http.MethodGet, Pattern: "/api/comments/*/like/status", Require: Public},

		// User management.
		{Method: http.MethodGet, Pattern: "/api/users/list", Require: AdminOnly},
		{Method: http.MethodPut, Pattern: "/api/users/*/role", Require: AdminOnly},
		{Method: http.MethodDelete, Pattern: "/api/users/*", Require: AdminOnly},
		{Pattern: "/api/users/profile/**", Require: UserOnly},

		// Everything else needs a login.
	}
}
