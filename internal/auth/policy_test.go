package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/model"
)

func defaultPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(DefaultRules())
	require.NoError(t, err)
	return p
}

func policyProbe(t *testing.T, p *Policy, method, path string, principal *Principal) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(method, path, nil)
	if principal != nil {
		req = req.WithContext(WithPrincipal(req.Context(), *principal))
	} else {
		req = req.WithContext(WithPrincipal(req.Context(), Anonymous()))
	}
	rec := httptest.NewRecorder()
	p.Middleware(zap.NewNop())(next).ServeHTTP(rec, req)
	return rec, handlerRan
}

func TestPolicyPublicRoutes(t *testing.T) {
	p := defaultPolicy(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/articles"},
		{http.MethodGet, "/api/articles/7"},
		{http.MethodGet, "/api/articles/7/like/status"},
		{http.MethodGet, "/api/users/7/follow/status"},
		{http.MethodGet, "/api/comments/7/like/status"},
		{http.MethodPost, "/api/users/login"},
		{http.MethodPost, "/api/users/register"},
		{http.MethodGet, "/healthz"},
	} {
		rec, ran := policyProbe(t, p, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", tc.method, tc.path)
		assert.True(t, ran, "%s %s", tc.method, tc.path)
	}
}

func TestPolicyAnonymousOnProtectedRoute(t *testing.T) {
	p := defaultPolicy(t)
	rec, ran := policyProbe(t, p, http.MethodPost, "/api/articles/publish", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
}

func TestPolicyUserRoutes(t *testing.T) {
	p := defaultPolicy(t)
	user := &Principal{UserID: 42, Role: model.RoleUser}

	rec, ran := policyProbe(t, p, http.MethodPost, "/api/articles/publish", user)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)

	rec, ran = policyProbe(t, p, http.MethodPost, "/api/articles/7/like", user)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}

func TestPolicyGuestRoleTokenForbidden(t *testing.T) {
	p := defaultPolicy(t)
	guest := &Principal{UserID: 42, Role: model.RoleGuest}
	rec, ran := policyProbe(t, p, http.MethodPost, "/api/articles/publish", guest)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)
}

func TestPolicyNoRoleHierarchy(t *testing.T) {
	p := defaultPolicy(t)
	admin := &Principal{UserID: 1, Role: model.RoleAdmin}
	user := &Principal{UserID: 42, Role: model.RoleUser}

	// Admin does not satisfy a USER-only rule.
	rec, ran := policyProbe(t, p, http.MethodPost, "/api/articles/publish", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)

	// User does not satisfy an ADMIN-only rule.
	rec, ran = policyProbe(t, p, http.MethodGet, "/api/users/list", user)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)

	rec, ran = policyProbe(t, p, http.MethodGet, "/api/users/list", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}

func TestPolicyFirstMatchWins(t *testing.T) {
	p, err := NewPolicy([]Rule{
		{Method: http.MethodGet, Pattern: "/api/things/special", Require: Public},
		{Pattern: "/api/things/**", Require: AdminOnly},
	})
	require.NoError(t, err)

	rec, ran := policyProbe(t, p, http.MethodGet, "/api/things/special", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)

	rec, ran = policyProbe(t, p, http.MethodGet, "/api/things/other", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)
}

func TestPolicyDefaultIsAuthenticated(t *testing.T) {
	p := defaultPolicy(t)

	// Unlisted route, anonymous: 401.
	rec, ran := policyProbe(t, p, http.MethodGet, "/api/unlisted", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ran)

	// Unlisted route, any non-guest principal: allowed.
	user := &Principal{UserID: 42, Role: model.RoleUser}
	rec, ran = policyProbe(t, p, http.MethodGet, "/api/unlisted", user)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}

func TestPolicyAdminArticleRuleBeforeUserRules(t *testing.T) {
	p := defaultPolicy(t)
	user := &Principal{UserID: 42, Role: model.RoleUser}
	admin := &Principal{UserID: 1, Role: model.RoleAdmin}

	rec, _ := policyProbe(t, p, http.MethodDelete, "/api/articles/admin/delete/7", user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, ran := policyProbe(t, p, http.MethodDelete, "/api/articles/admin/delete/7", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}
