// Copyright (c) 2025 tgram-dev

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tgram-dev/tgram/internal/utils"
)

const defaultAPIURL = "https://api.telegram.org"

// HTTPDoer is the transport the client issues requests through. Injectable
// for tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the main struct of the library: a thin Bot API client plus the
// update dispatcher hanging off it.
type Client struct {
	token     string
	apiURL    string
	httpc     HTTPDoer
	parseMode string
	Log       *utils.Logger

	dispatcher *Dispatcher

	meMu sync.Mutex
	me   *User

	runMu    sync.Mutex
	running  bool
	stopFunc func()
	doneCh   chan struct{}
}

// ClientConfig is the configuration struct for the client.
type ClientConfig struct {
	// Bot token from @BotFather. Required.
	Token string
	// API server base URL, default: https://api.telegram.org
	APIURL string
	// HTTP transport, default: a plain http.Client. Long-poll deadlines are
	// carried by per-request contexts, so the default has no client timeout.
	HTTPClient HTTPDoer
	// Parse mode applied to outbound text when the call does not set one
	// (Markdown, MarkdownV2, HTML).
	ParseMode string
	// Log level (trace, debug, info, warn, error, disable), default: info
	LogLevel string
	// Session store; nil disables sessions.
	SessionStore SessionStore
	// Dispatch policy, default: DispatchChain.
	DispatchPolicy DispatchPolicy
}

// NewClient builds a client. No network traffic happens here; the bot
// identity is fetched lazily on first need.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("bot token cannot be empty")
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}

	c := &Client{
		token:     cfg.Token,
		apiURL:    apiURL,
		httpc:     httpc,
		parseMode: cfg.ParseMode,
		Log:       utils.NewLogger("tgram").SetLevelString(cfg.LogLevel),
	}
	c.dispatcher = newDispatcher(c, cfg.DispatchPolicy, cfg.SessionStore)
	return c, nil
}

// On registers a handler invoked for every update matching filter.
// Registration order is evaluation order. Registration is meant to complete
// before Start; registering during active dispatch is unsupported.
func (c *Client) On(filter Filter, handler HandlerFunc) {
	c.dispatcher.Handle(filter, handler)
}

// Use appends middleware wrapped around every handler, outermost first.
func (c *Client) Use(mw ...MiddlewareFunc) {
	c.dispatcher.Use(mw...)
}

// OnError installs the sink receiving handler faults and session store
// failures. The default sink logs them.
func (c *Client) OnError(sink ErrorHandler) {
	c.dispatcher.OnError(sink)
}

// Dispatcher exposes the registry, mostly for driving dispatch directly in
// tests or custom hosting setups.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Me returns the cached bot identity, fetching it on first call. A nil
// return means the identity could not be resolved (yet).
func (c *Client) Me() *User {
	c.meMu.Lock()
	defer c.meMu.Unlock()
	if c.me != nil {
		return c.me
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	me, err := c.GetMe(ctx)
	if err != nil {
		c.Log.WithError(err).Warn("could not resolve bot identity")
		return nil
	}
	c.me = me
	return c.me
}

// username returns the cached bot username without triggering a fetch.
// Command filters use it to scope @-addressed commands to this bot.
func (c *Client) username() string {
	c.meMu.Lock()
	defer c.meMu.Unlock()
	if c.me == nil {
		return ""
	}
	return c.me.Username
}

// Stop signals the active fetcher (polling loop or webhook server) to stop,
// and waits until in-flight work has drained. Safe to call when nothing is
// running.
func (c *Client) Stop() {
	c.runMu.Lock()
	stop := c.stopFunc
	done := c.doneCh
	c.runMu.Unlock()

	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
}

// Idle blocks until the active fetcher terminates.
func (c *Client) Idle() {
	c.runMu.Lock()
	done := c.doneCh
	c.runMu.Unlock()
	if done != nil {
		<-done
	}
}

// acquireRun flips the single-active-fetcher flag. The returned release is
// called by the fetcher when its loop fully exits.
func (c *Client) acquireRun(stop func()) (release func(), err error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.running {
		return nil, ErrRunning
	}
	c.running = true
	c.stopFunc = stop
	done := make(chan struct{})
	c.doneCh = done

	return func() {
		c.runMu.Lock()
		c.running = false
		c.stopFunc = nil
		c.runMu.Unlock()
		close(done)
	}, nil
}

type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type responseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// invoke performs one Bot API call. Transport failures come back as wrapped
// plain errors; platform rejections come back as *Error.
func (c *Client) invoke(ctx context.Context, method string, params any, result any) error {
	var body io.Reader
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return errors.Wrapf(err, "encoding %s params", method)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/bot"+c.token+"/"+method, body)
	if err != nil {
		return errors.Wrapf(err, "building %s request", method)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Log.Trace("calling %s", method)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s", method)
	}
	defer resp.Body.Close()

	var wire apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		// 5xx gateways in front of the API may answer with non-JSON bodies;
		// those count as transport failures, same as a broken connection.
		return errors.Wrapf(err, "decoding %s response (status %d)", method, resp.StatusCode)
	}

	if !wire.OK {
		apiErr := &Error{
			Method:      method,
			Code:        wire.ErrorCode,
			Description: wire.Description,
		}
		if wire.Parameters != nil {
			apiErr.RetryAfter = wire.Parameters.RetryAfter
		}
		return apiErr
	}

	if result != nil && len(wire.Result) > 0 {
		if err := json.Unmarshal(wire.Result, result); err != nil {
			return errors.Wrapf(err, "decoding %s result", method)
		}
	}
	return nil
}
