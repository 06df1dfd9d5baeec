package connection

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const servicePath = "/otrs/nph-genericinterface.pl/Webservice/Test/"

// fakeOTRS is a minimal GenericInterface REST provider.
type fakeOTRS struct {
	t      *testing.T
	server *httptest.Server

	mu sync.Mutex
	// sessions are handed out in order by the Session endpoint
	sessions []string
	// sessionReply overrides the Session endpoint response when set
	sessionReply map[string]any
	// handler serves every non-Session request
	handler func(w http.ResponseWriter, r *http.Request, body map[string]any)

	sessionCalls int
	calls        int
	logins       []map[string]any
	tokensSeen   []string
}

func newFakeOTRS(t *testing.T) *fakeOTRS {
	t.Helper()
	f := &fakeOTRS{t: t}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOTRS) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body map[string]any
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			f.t.Errorf("request body is not JSON: %v", err)
		}
	}

	f.mu.Lock()
	if strings.TrimPrefix(r.URL.Path, servicePath) == "Session" {
		f.sessionCalls++
		f.logins = append(f.logins, body)
		reply := f.sessionReply
		if reply == nil {
			id := "session-exhausted"
			if len(f.sessions) > 0 {
				id, f.sessions = f.sessions[0], f.sessions[1:]
			}
			reply = map[string]any{"SessionID": id}
		}
		f.mu.Unlock()
		if r.Method != http.MethodPost {
			f.t.Errorf("Session endpoint expects POST, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(reply)
		return
	}
	f.calls++
	f.tokensSeen = append(f.tokensSeen, r.URL.Query().Get("SessionID"))
	handler := f.handler
	f.mu.Unlock()

	if handler == nil {
		json.NewEncoder(w).Encode(map[string]any{"TicketID": []string{"1"}})
		return
	}
	handler(w, r, body)
}

func (f *fakeOTRS) config(t *testing.T) Config {
	return Config{
		URL:              f.server.URL,
		Login:            "agent",
		Password:         "s3cret",
		Interface:        "Test",
		SessionCacheFile: t.TempDir() + "/agent",
	}
}

func authFail(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]any{
		"Error": map[string]any{"ErrorCode": "TicketSearch.AuthFail", "ErrorMessage": "Authorization failing!"},
	})
}
