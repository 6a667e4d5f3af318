// Package client issues DX API requests.
//
// https://docs.pega.com/bundle/dx-api/page/platform/dx-api/building-constellation-dx-api-request.html
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/roach88/dxexplorer/internal/logging"
)

// Defaults matching a stock Infinity server.
const (
	DefaultAPIPath       = "/prweb/api/application/v2"
	DefaultTokenEndpoint = "/prweb/PRRestService/oauth2/v1/token"
	DefaultTimeout       = 30 * time.Second
)

// Request header values.
const (
	originChannel = "Web"
	redacted      = "[REDACTED]"
)

// Options configures a Client.
type Options struct {
	Server        string // Scheme and host, such as https://lab.example.com
	APIPath       string
	TokenEndpoint string // Path relative to Server, or an absolute URL
	ClientID      string
	ClientSecret  string
	UserID        string
	Password      string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *logging.Logger
}

// Client executes NetCalls against one server.
//
// It is safe for concurrent use, although the engine drives it from a
// single worker.
type Client struct {
	http    *http.Client
	server  string
	apiPath string
	oauth   *oauth2.Config
	userID  string
	pass    string
	logger  *logging.Logger

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// New returns a client for the server in opts.
func New(opts Options) (*Client, error) {
	if opts.Server == "" {
		return nil, errors.New("client: server is required")
	}
	if _, err := url.Parse(opts.Server); err != nil {
		return nil, fmt.Errorf("client: invalid server: %w", err)
	}
	server := strings.TrimRight(opts.Server, "/")

	apiPath := opts.APIPath
	if apiPath == "" {
		apiPath = DefaultAPIPath
	}
	tokenURL := opts.TokenEndpoint
	if tokenURL == "" {
		tokenURL = DefaultTokenEndpoint
	}
	if !strings.Contains(tokenURL, "://") {
		tokenURL = server + tokenURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		http:    httpClient,
		server:  server,
		apiPath: apiPath,
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		userID: opts.UserID,
		pass:   opts.Password,
		logger: logging.OrNop(opts.Logger),
	}, nil
}

// Server returns the server base URL.
func (c *Client) Server() string {
	return c.server
}

// LoggedIn reports whether a token has been obtained.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens != nil
}

// SetToken installs an already obtained token, for tests and token reuse.
func (c *Client) SetToken(tok *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = c.oauth.TokenSource(c.oauthContext(context.Background()), tok)
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// Execute performs call and fills in its outputs.
//
// A call that reaches the server and gets a non-2xx status returns a
// *CallError; transport failures are returned as is. In both cases
// call.Succeeded is false and call.ErrorMessage holds the reason.
// Calls are never retried.
func (c *Client) Execute(ctx context.Context, call *NetCall) error {
	if call.RequestHeaders == nil {
		call.RequestHeaders = make(http.Header)
	}
	if call.ResponseHeaders == nil {
		call.ResponseHeaders = make(http.Header)
	}

	var err error
	switch call.Type {
	case CallLogin:
		err = c.login(ctx, call)
	case CallRefreshCaseTypes:
		err = c.do(ctx, call, http.MethodGet, nil, "/casetypes")
	case CallCreateCase:
		body, merr := json.MarshalIndent(map[string]string{"caseTypeID": call.WorkTypeID}, "", "  ")
		if merr != nil {
			return merr
		}
		err = c.do(ctx, call, http.MethodPost, body, "/cases?viewType=page&pageName=pyEmbedAssignment")
	case CallOpenAssignment:
		err = c.do(ctx, call, http.MethodGet, nil, "/assignments/", url.PathEscape(call.ID1))
	case CallOpenAssignmentAction:
		err = c.do(ctx, call, http.MethodGet, nil, "/assignments/", url.PathEscape(call.ID1), "/actions/", url.PathEscape(call.ID2))
	case CallSubmitAssignmentAction:
		body, merr := json.MarshalIndent(map[string]any{"content": call.Content}, "", "  ")
		if merr != nil {
			return merr
		}
		call.RequestHeaders.Set("if-match", call.ETag)
		call.RequestHeaders.Set("x-origin-channel", originChannel)
		err = c.do(ctx, call, http.MethodPatch, body, "/assignments/", url.PathEscape(call.ID1), "/actions/", url.PathEscape(call.ID2))
	default:
		err = fmt.Errorf("client: unsupported call type %s", call.Type)
	}

	if err != nil {
		call.Succeeded = false
		if call.ErrorMessage == "" {
			call.ErrorMessage = err.Error()
		}
		c.logger.Warn("call failed", "type", call.Type.String(), "endpoint", call.Endpoint, "error", err)
		return err
	}
	c.logger.Debug("call succeeded", "type", call.Type.String(), "endpoint", call.Endpoint, "status", call.StatusCode)
	return nil
}

// login performs the OAuth2 password grant with client credentials in a
// Basic authorization header.
func (c *Client) login(ctx context.Context, call *NetCall) error {
	call.Method = http.MethodPost
	call.Endpoint = strings.TrimPrefix(c.oauth.Endpoint.TokenURL, c.server)
	call.RequestHeaders.Set("accept", "application/json")
	call.RequestHeaders.Set("content-type", "application/x-www-form-urlencoded")
	call.RequestHeaders.Set("authorization", "Basic "+redacted)
	call.RequestBody = url.Values{
		"grant_type": {"password"},
		"username":   {c.userID},
		"password":   {redacted},
	}.Encode()

	tok, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), c.userID, c.pass)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			call.StatusCode = re.Response.StatusCode
			call.ResponseHeaders = re.Response.Header.Clone()
			call.ResponseBody = string(re.Body)
			call.ErrorMessage = statusText(re.Response)
			return &CallError{Type: call.Type, StatusCode: re.Response.StatusCode, Status: call.ErrorMessage}
		}
		return fmt.Errorf("login: %w", err)
	}
	if tok.AccessToken == "" {
		call.ErrorMessage = "No access token received."
		return &CallError{Type: call.Type, Status: call.ErrorMessage}
	}

	c.mu.Lock()
	c.tokens = c.oauth.TokenSource(c.oauthContext(context.Background()), tok)
	c.mu.Unlock()

	summary := map[string]any{
		"access_token":  redacted,
		"token_type":    tok.TokenType,
		"refresh_token": tok.RefreshToken != "",
	}
	if !tok.Expiry.IsZero() {
		summary["expiry"] = tok.Expiry.UTC().Format(time.RFC3339)
	}
	body, _ := json.MarshalIndent(summary, "", "  ")
	call.StatusCode = http.StatusOK
	call.ResponseBody = string(body)
	call.Succeeded = true
	return nil
}

// do issues an authorized API request to apiPath + args.
func (c *Client) do(ctx context.Context, call *NetCall, method string, body []byte, args ...string) error {
	call.Method = method
	call.Endpoint = c.apiPath + strings.Join(args, "")
	if body != nil {
		call.RequestBody = string(body)
	}

	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()
	if tokens == nil {
		return &CallError{Type: call.Type, Status: "not logged in"}
	}
	tok, err := tokens.Token()
	if err != nil {
		return fmt.Errorf("%s: token: %w", call.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+call.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", call.Type, err)
	}
	for k, v := range call.RequestHeaders {
		req.Header[k] = v
	}
	req.Header.Set("authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	call.RequestHeaders = req.Header.Clone()
	call.RequestHeaders.Set("authorization", "Bearer "+redacted)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", call.Type, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", call.Type, err)
	}
	call.StatusCode = resp.StatusCode
	call.ResponseHeaders = resp.Header.Clone()
	call.ResponseBody = string(data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		call.ErrorMessage = statusText(resp)
		return &CallError{Type: call.Type, StatusCode: resp.StatusCode, Status: call.ErrorMessage}
	}

	call.ETag = resp.Header.Get("etag")
	call.Succeeded = true
	return nil
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
