// Copyright (c) 2025 tgram-dev

package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// secretTokenHeader is the out-of-band header the platform echoes the
// configured webhook secret in.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxWebhookBody = 1 << 20

// WebhookOptions configures the push fetcher.
type WebhookOptions struct {
	// Listen address, default ":8443".
	Addr string
	// Route the platform posts updates to, default "/".
	Path string
	// Shared secret compared against the platform's secret token header.
	// Empty disables the check.
	SecretToken string
	// Public HTTPS URL of this endpoint. When set, StartWebhook registers
	// it with the platform and Stop deregisters it.
	URL string
	// Update kinds requested at registration.
	AllowedUpdates []UpdateKind
	// Drop the pending backlog when registering.
	DropPending bool
}

// WebhookHandler is the inbound HTTP surface: one POST route accepting a
// single JSON update per request. It validates the secret, acknowledges
// immediately and dispatches on its own goroutine; delivery ordering and
// de-duplication are the platform's responsibility in webhook mode.
//
// It implements http.Handler so it can be mounted in an existing server
// instead of using StartWebhook.
type WebhookHandler struct {
	client *Client
	secret string
	wg     sync.WaitGroup
}

// NewWebhookHandler builds the handler with an optional shared secret.
func (c *Client) NewWebhookHandler(secret string) *WebhookHandler {
	return &WebhookHandler{client: c, secret: secret}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.client.Log.WithPrefix("tgram:webhook").WithField("req", uuid.NewString())

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			log.Warn("rejected delivery with bad secret token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	var u Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&u); err != nil {
		log.WithError(err).Warn("rejected malformed delivery")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Acknowledge before dispatching: the platform retries deliveries that
	// do not get a prompt success, and handler latency must not trigger
	// that.
	w.WriteHeader(http.StatusOK)

	log.Debug("accepted update %d", u.UpdateID)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.client.dispatcher.Dispatch(context.Background(), &u)
	}()
}

// drain waits for dispatches already accepted to finish.
func (h *WebhookHandler) drain() {
	h.wg.Wait()
}

// StartWebhook serves the webhook endpoint on its own goroutine and
// returns. Only one fetcher may be active per client; a second call
// returns ErrRunning. Use Idle to block and Stop to terminate; Stop shuts
// the server down and waits for in-flight dispatches to finish.
func (c *Client) StartWebhook(opts *WebhookOptions) error {
	if opts == nil {
		opts = &WebhookOptions{}
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8443"
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}

	log := c.Log.WithPrefix("tgram:webhook")
	handler := c.NewWebhookHandler(opts.SecretToken)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}
	release, err := c.acquireRun(stop)
	if err != nil {
		return err
	}

	c.Me()

	if opts.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		if opts.DropPending {
			if err := c.DeleteWebhook(ctx, true); err != nil {
				log.WithError(err).Warn("dropping pending backlog")
			}
		}
		err := c.SetWebhook(ctx, opts.URL, opts.SecretToken, opts.AllowedUpdates)
		cancel()
		if err != nil {
			release()
			return err
		}
	}

	go func() {
		defer release()
		log.Info("webhook listening on %s%s", addr, path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("webhook server failed")
		}
		handler.drain()
		if opts.URL != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := c.DeleteWebhook(ctx, false); err != nil {
				log.WithError(err).Warn("deregistering webhook")
			}
			cancel()
		}
	}()
	return nil
}
