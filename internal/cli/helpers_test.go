package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dxexplorer/internal/logging"
)

const (
	testCaseType   = "MyOrg-MyApp-Work-Request"
	testAssignment = "ASSIGN-WORKLIST MYORG-MYAPP-WORK R-1001!REQUEST_FLOW"
	testAction     = "EnterDetails"
	testFirstName  = "MyOrg-MyApp-Work-Request.FirstName"
	testSubject    = "MyOrg-MyApp-Work-Request.Subject"
)

// cliResult is the outcome of one command invocation.
type cliResult struct {
	Stdout string
	Stderr string
	Err    error
}

// runCLI executes the root command with args, feeding stdin.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&RootOptions{logger: logging.Nop()})
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return cliResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// jsonResponse decodes a CLIResponse, leaving Data raw.
type jsonResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Error     *CLIError       `json:"error"`
	SessionID string          `json:"session_id"`
}

func decodeJSON(t *testing.T, out string) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}

// seenRequest is one API request received by the fake DX server.
type seenRequest struct {
	Method  string
	Path    string
	IfMatch string
	Body    string
}

// fakeDX serves canned responses for every call the explorer makes.
type fakeDX struct {
	*httptest.Server

	mu       sync.Mutex
	requests []seenRequest
}

func newFakeDX(t *testing.T) *fakeDX {
	t.Helper()
	fx := &fakeDX{}
	reply := func(file, etag string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fx.record(r)
			body, err := os.ReadFile(testdataPath(file))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if etag != "" {
				w.Header().Set("ETag", etag)
			}
			_, _ = w.Write(body)
		}
	}

	api := "/prweb/api/application/v2"
	mux := http.NewServeMux()
	mux.HandleFunc("POST /prweb/PRRestService/oauth2/v1/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "s3cret" || r.PostFormValue("password") != "rules" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("GET "+api+"/casetypes", reply("case_types.json", ""))
	mux.HandleFunc("POST "+api+"/cases", reply("request_form.json", `"1"`))
	mux.HandleFunc("GET "+api+"/assignments/{assignment}", reply("request_form.json", `"1"`))
	mux.HandleFunc("GET "+api+"/assignments/{assignment}/actions/{action}", reply("request_form.json", `"1"`))
	mux.HandleFunc("PATCH "+api+"/assignments/{assignment}/actions/{action}", reply("submitted.json", `"2"`))

	fx.Server = httptest.NewServer(mux)
	t.Cleanup(fx.Close)
	return fx
}

func (fx *fakeDX) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fx.mu.Lock()
	defer fx.mu.Unlock()
	fx.requests = append(fx.requests, seenRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		IfMatch: r.Header.Get("If-Match"),
		Body:    string(body),
	})
}

func (fx *fakeDX) seen() []seenRequest {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return append([]seenRequest(nil), fx.requests...)
}

// writeConfig writes a config for fx journaling to a temp database and
// returns the config path and the journal path.
func writeConfig(t *testing.T, fx *fakeDX) (string, string) {
	t.Helper()
	dir := t.TempDir()
	journal := filepath.Join(dir, "dx.db")
	cfg := "server: " + fx.URL + "\n" +
		"journal: " + journal + "\n" +
		"oauth2:\n" +
		"  client_id: client\n" +
		"  client_secret: s3cret\n" +
		"  user_id: ada\n" +
		"  password: rules\n"
	path := filepath.Join(dir, "dx_api_explorer_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, journal
}
