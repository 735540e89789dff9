package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientNew(t *testing.T) {
	c := New("https://example.com")

	if c.BaseURL != "https://example.com" {
		t.Errorf("expected base URL 'https://example.com', got '%s'", c.BaseURL)
	}

	if c.HTTPClient == nil {
		t.Error("expected non-nil HTTP client")
	}

	if c.IsAuthenticated() {
		t.Error("expected new client to not be authenticated")
	}
}

func TestLoginStoresToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":      "abc.def.ghi",
			"token_type": "Bearer",
			"expires_in": 3600,
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	if err := c.Login("user", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if c.Token != "abc.def.ghi" {
		t.Errorf("expected token stored, got %q", c.Token)
	}
	if !c.IsAuthenticated() {
		t.Error("expected client to be authenticated")
	}
	if c.TokenExp.Before(time.Now()) {
		t.Error("expected future expiry")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	if err := c.Login("user", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestDoRequestAttachesBearer(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "username": "u"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.Token = "tok"
	c.TokenExp = time.Now().Add(time.Hour)
	if _, err := c.Me(); err != nil {
		t.Fatalf("me: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestRegisterConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "duplicate username"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	if _, err := c.Register("taken", "secret-password", "Taken"); err != ErrAlreadyRegistered {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}
