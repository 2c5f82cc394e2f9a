package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"mercator-hq/prgate/pkg/config"
	"mercator-hq/prgate/pkg/server/middleware"
)

func TestAPIKeyValidator_Validate(t *testing.T) {
	v := NewAPIKeyValidator(map[string]*KeyInfo{
		"pg-valid":    {Client: "ci", Enabled: true},
		"pg-disabled": {Client: "old-bot", Enabled: false},
	})

	tests := []struct {
		name       string
		key        string
		wantErr    error
		wantClient string
	}{
		{name: "valid enabled key", key: "pg-valid", wantClient: "ci"},
		{name: "disabled key", key: "pg-disabled", wantErr: ErrKeyDisabled},
		{name: "unknown key", key: "pg-other", wantErr: ErrInvalidKey},
		{name: "empty key", key: "", wantErr: ErrMissingKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := v.Validate(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && info.Client != tt.wantClient {
				t.Errorf("Validate() client = %q, want %q", info.Client, tt.wantClient)
			}
		})
	}
}

func TestAPIKeyValidator_AddRemove(t *testing.T) {
	v := NewAPIKeyValidator(nil)
	v.Add("pg-new", &KeyInfo{Client: "new", Enabled: true})
	if _, err := v.Validate("pg-new"); err != nil {
		t.Fatalf("Validate() after Add error = %v", err)
	}
	if got := v.Clients(); !reflect.DeepEqual(got, []string{"new"}) {
		t.Errorf("Clients() = %v, want [new]", got)
	}

	v.Remove("pg-new")
	if _, err := v.Validate("pg-new"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Validate() after Remove error = %v, want ErrInvalidKey", err)
	}
}

func TestFromConfig(t *testing.T) {
	env := map[string]string{"CI_KEY": "pg-from-env"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	v, err := FromConfig(config.AuthConfig{Keys: []config.APIKeyConfig{
		{Client: "ci", KeyEnv: "CI_KEY"},
		{Client: "bot", Key: "pg-literal"},
		{Client: "retired", Key: "pg-retired", Disabled: true},
	}}, lookup)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if info, err := v.Validate("pg-from-env"); err != nil || info.Client != "ci" {
		t.Errorf("Validate(env key) = %v, %v", info, err)
	}
	if _, err := v.Validate("pg-retired"); !errors.Is(err, ErrKeyDisabled) {
		t.Errorf("Validate(disabled) error = %v, want ErrKeyDisabled", err)
	}
	if got := v.Clients(); !reflect.DeepEqual(got, []string{"bot", "ci", "retired"}) {
		t.Errorf("Clients() = %v", got)
	}

	if _, err := FromConfig(config.AuthConfig{Keys: []config.APIKeyConfig{
		{Client: "ci", KeyEnv: "UNSET"},
	}}, lookup); err == nil {
		t.Error("FromConfig() with unset variable succeeded")
	}
	if _, err := FromConfig(config.AuthConfig{Keys: []config.APIKeyConfig{
		{Client: "a", Key: "same"},
		{Client: "b", Key: "same"},
	}}, lookup); err == nil {
		t.Error("FromConfig() with duplicate keys succeeded")
	}
}

func TestMiddleware(t *testing.T) {
	store := NewAPIKeyValidator(map[string]*KeyInfo{
		"pg-valid":    {Client: "ci", Enabled: true},
		"pg-disabled": {Client: "old", Enabled: false},
	})

	tests := []struct {
		name       string
		header     string
		setHeader  string
		value      string
		wantStatus int
		wantMsg    string
	}{
		{name: "bearer token", header: "Authorization", setHeader: "Authorization", value: "Bearer pg-valid", wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "Authorization", setHeader: "Authorization", value: "bearer pg-valid", wantStatus: http.StatusOK},
		{name: "missing scheme", header: "Authorization", setHeader: "Authorization", value: "pg-valid", wantStatus: http.StatusUnauthorized, wantMsg: "missing API key"},
		{name: "no header", header: "Authorization", wantStatus: http.StatusUnauthorized, wantMsg: "missing API key"},
		{name: "wrong key", header: "Authorization", setHeader: "Authorization", value: "Bearer pg-nope", wantStatus: http.StatusUnauthorized, wantMsg: "invalid API key"},
		{name: "disabled key", header: "Authorization", setHeader: "Authorization", value: "Bearer pg-disabled", wantStatus: http.StatusUnauthorized, wantMsg: "invalid API key"},
		{name: "custom header", header: "X-PRGate-Key", setHeader: "X-PRGate-Key", value: "pg-valid", wantStatus: http.StatusOK},
		{name: "custom header ignores authorization", header: "X-PRGate-Key", setHeader: "Authorization", value: "Bearer pg-valid", wantStatus: http.StatusUnauthorized, wantMsg: "missing API key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var client string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if info, ok := GetKeyInfo(r.Context()); ok {
					client = info.Client
				}
				w.WriteHeader(http.StatusOK)
			})
			h := Middleware(store, tt.header, nil)(next)

			req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", nil)
			if tt.setHeader != "" {
				req.Header.Set(tt.setHeader, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if client != "ci" {
					t.Errorf("context client = %q, want ci", client)
				}
				return
			}
			var body middleware.ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error.Type != middleware.ErrTypeUnauthorized || body.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v, want %s %q", body.Error, middleware.ErrTypeUnauthorized, tt.wantMsg)
			}
		})
	}
}
