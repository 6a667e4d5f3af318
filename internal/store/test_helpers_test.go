package store

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession writes a session and returns it.
func createTestSession(t *testing.T, s *Store, id string) Session {
	t.Helper()
	sess := Session{ID: id, Server: "https://lab.example.com", UserID: "operator"}
	if err := s.WriteSession(context.Background(), sess); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
	return sess
}

// createTestCall creates a call with minimal required fields.
func createTestCall(sessionID string, seq int64) Call {
	return Call{
		ID:              fmt.Sprintf("call-%s-%03d", sessionID, seq),
		SessionID:       sessionID,
		Seq:             seq,
		Type:            "open_assignment",
		ID1:             "ASSIGN-WORKLIST R-1!FLOW",
		Method:          http.MethodGet,
		Endpoint:        "/prweb/api/application/v2/assignments/ASSIGN-WORKLIST%20R-1!FLOW",
		RequestHeaders:  http.Header{"Accept": {"application/json"}},
		Succeeded:       true,
		StatusCode:      http.StatusOK,
		ETag:            `"1"`,
		ResponseHeaders: http.Header{"Etag": {`"1"`}, "Content-Type": {"application/json"}},
		ResponseBody:    `{"data":{"caseInfo":{}}}`,
	}
}
