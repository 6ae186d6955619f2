package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/google/uuid"
)

func TestLoginEmptyUsernameFailsWithMissingRequiredValue(t *testing.T) {
	c := NewClient("", "", nil, nil)
	err := c.Login(context.Background())
	if err == nil || err.Code != errs.MissingRequiredValueError {
		t.Fatalf("expected MissingRequiredValueError, got %v", err)
	}
}

func TestRegisterProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"client_id": "probe-123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, nil)
	err := c.RegisterProbe(context.Background(), &Metadata{ProbeASN: "AS0", ProbeCC: "ZZ"}, "pwd")
	if err != nil {
		t.Fatalf("RegisterProbe failed: %v", err)
	}
	if c.auth.Username != "probe-123" {
		t.Fatalf("got username %q, want probe-123", c.auth.Username)
	}
}

func TestRegisterProbeSendsBootstrapID(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"client_id": "probe-123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, nil)
	if err := c.RegisterProbe(context.Background(), &Metadata{}, "pwd"); err != nil {
		t.Fatalf("RegisterProbe failed: %v", err)
	}
	id, _ := gotBody["bootstrap_id"].(string)
	if id == "" {
		t.Fatal("expected a non-empty bootstrap_id in the register request")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("bootstrap_id %q is not a valid uuid: %v", id, err)
	}
}

func TestRegisterProbeEmptyClientID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"client_id": ""})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, nil)
	err := c.RegisterProbe(context.Background(), &Metadata{}, "pwd")
	if err == nil || err.Code != errs.RegistryEmptyClientIdError {
		t.Fatalf("expected RegistryEmptyClientIdError, got %v", err)
	}
}

func TestRegisterProbeSkipsWhenSecretsFileExists(t *testing.T) {
	dir := t.TempDir()
	secretsPath := filepath.Join(dir, "secrets.json")
	c := NewClient("http://unreachable.invalid", secretsPath, nil, nil)
	c.saveSecrets(&secrets{Username: "cached-user", Password: "cached-pass"})

	err := c.RegisterProbe(context.Background(), &Metadata{}, "pwd")
	if err != nil {
		t.Fatalf("expected cached credentials to short-circuit registration, got %v", err)
	}
	if c.auth.Username != "cached-user" {
		t.Fatalf("got username %q, want cached-user", c.auth.Username)
	}
}

func TestMaybeLoginSkipsWhenAlreadyValid(t *testing.T) {
	c := NewClient("http://unreachable.invalid", "", nil, nil)
	c.auth = Authentication{Username: "u", LoggedIn: true, ExpiryTime: time.Now().Add(time.Hour)}
	if err := c.MaybeLogin(context.Background()); err != nil {
		t.Fatalf("expected no-op, got error %v", err)
	}
}

func TestAuthenticationIsValidAfterExpiry(t *testing.T) {
	a := &Authentication{LoggedIn: true, ExpiryTime: time.Now().Add(-time.Hour)}
	if a.IsValid(time.Now()) {
		t.Fatal("expected expired auth to be invalid")
	}
}
