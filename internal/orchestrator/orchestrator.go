// Package orchestrator implements the probe-registration state machine
// described in SPEC_FULL.md §6.8 (spec.md §4.8, C8):
// register_probe/login/maybe_login/update, plus the secrets-file
// skip-if-exists behavior.
//
// Grounded on the teacher's internal/probeservices.Client
// Register/MaybeRegister/MaybeLogin (register.go, login.go), adapted
// from its StateFile abstraction to an explicit secrets-file path and
// from *model.OOAPI* request/response types to this design's narrower
// Authentication/Metadata types.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/reactor"
	"github.com/google/uuid"
)

// DefaultBaseURL mirrors collector.DefaultBaseURL: a testing
// orchestrator endpoint so routine runs never touch production.
const DefaultBaseURL = "https://ams-pg-test.ooni.org"

// Authentication is the orchestrator login state, per spec.md §3.
type Authentication struct {
	Username   string
	Password   string
	AuthToken  string
	ExpiryTime time.Time
	LoggedIn   bool
}

// IsValid implements spec.md §3's is_valid() ≡ logged_in ∧ expiry_time
// ≥ now.
func (a *Authentication) IsValid(now time.Time) bool {
	return a.LoggedIn && !a.ExpiryTime.Before(now)
}

// Metadata is the probe metadata sent with register_probe/update, per
// spec.md §4.8.
type Metadata struct {
	Platform        string `json:"platform"`
	ProbeASN        string `json:"probe_asn"`
	ProbeCC         string `json:"probe_cc"`
	SoftwareName    string `json:"software_name"`
	SoftwareVersion string `json:"software_version"`
}

// Client is an orchestrator API client.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Logger      model.Logger
	Reactor     *reactor.Reactor
	SecretsPath string

	auth Authentication
}

// NewClient builds a Client.
func NewClient(baseURL, secretsPath string, r *reactor.Reactor, logger model.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		Logger:      model.ValidLoggerOrDefault(logger),
		Reactor:     r,
		SecretsPath: secretsPath,
	}
}

type secrets struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterProbe performs register_probe, per spec.md §4.8, skipping
// the network call when SecretsPath already exists (loading the
// stored credentials instead) — grounded on
// probeservices.Client.MaybeRegister's "state.Credentials() != nil"
// short-circuit.
func (c *Client) RegisterProbe(ctx context.Context, meta *Metadata, password string) *errs.Error {
	if c.SecretsPath != "" {
		if loaded, ok := c.loadSecrets(); ok {
			c.auth.Username = loaded.Username
			c.auth.Password = loaded.Password
			return nil
		}
	}

	type registerRequest struct {
		Metadata
		Password    string `json:"password"`
		BootstrapID string `json:"bootstrap_id"`
	}
	type registerResponse struct {
		ClientID string `json:"client_id"`
		Error    string `json:"error"`
	}

	// BootstrapID lets the orchestrator correlate this request with any
	// retry before it has assigned a client_id, grounded on the
	// teacher's use of google/uuid across internal/model/internal/ooapi
	// for client-generated identifiers.
	req := &registerRequest{Metadata: *meta, Password: password, BootstrapID: uuid.NewString()}
	var resp registerResponse
	if err := c.postJSON(ctx, "/api/v1/register", req, &resp); err != nil {
		return err
	}
	if resp.Error == "invalid request" {
		return errs.RegistryInvalidRequest()
	}
	if resp.ClientID == "" {
		return errs.RegistryEmptyClientId()
	}
	c.auth.Username = resp.ClientID
	c.auth.Password = password
	if c.SecretsPath != "" {
		c.saveSecrets(&secrets{Username: c.auth.Username, Password: c.auth.Password})
	}
	return nil
}

func (c *Client) loadSecrets() (*secrets, bool) {
	data, err := os.ReadFile(c.SecretsPath)
	if err != nil {
		return nil, false
	}
	var s secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *Client) saveSecrets(s *secrets) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.SecretsPath, data, 0o600)
}

// Login performs login, per spec.md §4.8. Per §8 scenario 5, an empty
// username always fails with MissingRequiredValueError, delivered via
// the reactor's call_soon when the Client has a reactor (see
// deliverErrAsync) and returned directly when it has none.
func (c *Client) Login(ctx context.Context) *errs.Error {
	if c.auth.Username == "" {
		return c.deliverErrAsync(errs.MissingRequiredValue("username is empty"))
	}

	type loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type loginResponse struct {
		Token  string `json:"token"`
		Expire string `json:"expire"`
		Error  string `json:"error"`
	}

	var resp loginResponse
	if err := c.postJSON(ctx, "/api/v1/login", &loginRequest{Username: c.auth.Username, Password: c.auth.Password}, &resp); err != nil {
		return err
	}
	switch resp.Error {
	case "wrong-username-password":
		return errs.RegistryWrongUsernamePassword()
	case "missing-username-password":
		return errs.RegistryMissingUsernamePassword()
	}
	expiry, perr := time.Parse(time.RFC3339, resp.Expire)
	if perr != nil {
		return errs.Parser("malformed expire timestamp: " + resp.Expire)
	}
	c.auth.AuthToken = resp.Token
	c.auth.ExpiryTime = expiry
	c.auth.LoggedIn = true
	return nil
}

// MaybeLogin is a no-op when the current Authentication.IsValid(),
// else calls Login, per spec.md §4.8.
func (c *Client) MaybeLogin(ctx context.Context) *errs.Error {
	if c.auth.IsValid(time.Now().UTC()) {
		return nil
	}
	return c.Login(ctx)
}

// Update performs update (preceded by maybe_login), per spec.md §4.8.
func (c *Client) Update(ctx context.Context, meta *Metadata) *errs.Error {
	if err := c.MaybeLogin(ctx); err != nil {
		return err
	}

	type updateResponse struct {
		Status string `json:"status"`
	}
	var resp updateResponse
	if err := c.postJSONAuthenticated(ctx, "/api/v1/update/"+c.auth.Username, meta, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return errs.RegistryInvalidRequest()
	}
	return nil
}

// deliverErrAsync hands e back through the reactor's call_soon when
// one is attached, per spec.md §8 scenario 5's "never synchronously"
// requirement; callers without a reactor still get e returned directly
// since there is nowhere else to route it.
func (c *Client) deliverErrAsync(e *errs.Error) *errs.Error {
	if c.Reactor == nil {
		return e
	}
	result := make(chan *errs.Error, 1)
	c.Reactor.CallSoon(func() { result <- e })
	return <-result
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) *errs.Error {
	return c.doJSON(ctx, path, body, out, "")
}

func (c *Client) postJSONAuthenticated(ctx context.Context, path string, body, out interface{}) *errs.Error {
	return c.doJSON(ctx, path, body, out, "Bearer "+c.auth.AuthToken)
}

func (c *Client) doJSON(ctx context.Context, path string, body, out interface{}, bearer string) *errs.Error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errs.JSONParse(err.Error())
	}
	method := http.MethodPost
	if bearer != "" {
		method = http.MethodPut
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return errs.HttpRequestFailed(0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", bearer)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return errs.HttpRequestFailed(0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.HttpRequestFailed(resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.JSONParse(err.Error())
		}
	}
	return nil
}
