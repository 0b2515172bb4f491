// Copyright (c) 2025 tgram-dev

package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-process Bot API double. Every method gets a sensible
// default answer; tests script specific methods with on().
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]func(w http.ResponseWriter, body map[string]any)
	calls    map[string]int
	bodies   map[string][]map[string]any
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		t:        t,
		handlers: make(map[string]func(http.ResponseWriter, map[string]any)),
		calls:    make(map[string]int),
		bodies:   make(map[string][]map[string]any),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)

	var body map[string]any
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	f.mu.Lock()
	f.calls[method]++
	f.bodies[method] = append(f.bodies[method], body)
	h := f.handlers[method]
	f.mu.Unlock()

	if h != nil {
		h(w, body)
		return
	}

	switch method {
	case "getMe":
		f.respond(w, &User{ID: 42, IsBot: true, FirstName: "Test", Username: "testbot"})
	case "getUpdates":
		f.respond(w, []Update{})
	case "sendMessage", "sendPhoto", "sendDocument", "editMessageText":
		f.respond(w, &Message{ID: 1000, Chat: &Chat{ID: 1, Type: ChatPrivate}})
	default:
		f.respond(w, true)
	}
}

func (f *fakeAPI) on(method string, h func(w http.ResponseWriter, body map[string]any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeAPI) respond(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeAPI) reject(w http.ResponseWriter, code int, description string, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"ok": false, "error_code": code, "description": description}
	if retryAfter > 0 {
		resp["parameters"] = map[string]any{"retry_after": retryAfter}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) lastBody(method string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.bodies[method])
	if n == 0 {
		return nil
	}
	return f.bodies[method][n-1]
}

// totalCalls sums requests across all methods, used to assert that a code
// path never touched the network.
func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func newTestClient(t *testing.T, cfg ClientConfig) (*Client, *fakeAPI) {
	f := newFakeAPI(t)
	cfg.Token = "42:test"
	cfg.APIURL = f.srv.URL
	if cfg.LogLevel == "" {
		cfg.LogLevel = "disable"
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c, f
}

func textUpdate(id, chatID, userID int64, text string) *Update {
	return &Update{
		UpdateID: id,
		Message: &Message{
			ID:   int(id),
			Chat: &Chat{ID: chatID, Type: ChatPrivate},
			From: &User{ID: userID, FirstName: "user"},
			Text: text,
		},
	}
}
