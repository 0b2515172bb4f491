// Copyright (c) 2025 tgram-dev

package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// PollingOptions configures the long-polling fetcher. The zero value is
// usable.
type PollingOptions struct {
	// Long-poll wait the server holds an empty response for. Default 30s.
	Timeout time.Duration
	// Batch size, 1-100. Default 100.
	Limit int
	// Update kinds the server should deliver. Empty means the platform
	// default set.
	AllowedUpdates []UpdateKind
	// Initial cursor. 0 resumes from the platform's pending backlog.
	Offset int64
	// Ceiling for the exponential retry backoff on transport failure.
	// Default 30s.
	MaxRetryInterval time.Duration
	// Fan out dispatch of each batch across goroutines. The cursor is
	// computed from the whole batch before any dispatch either way, so
	// handler latency never affects what gets fetched next.
	Concurrent bool
	// Cap on concurrent dispatches when Concurrent is set. Default 8.
	MaxConcurrency int
}

func (o *PollingOptions) withDefaults() *PollingOptions {
	out := PollingOptions{}
	if o != nil {
		out = *o
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	if out.Limit <= 0 || out.Limit > 100 {
		out.Limit = 100
	}
	if out.MaxRetryInterval <= 0 {
		out.MaxRetryInterval = 30 * time.Second
	}
	if out.MaxConcurrency <= 0 {
		out.MaxConcurrency = 8
	}
	return &out
}

// StartPolling launches the long-polling loop on its own goroutine and
// returns. Only one fetcher may be active per client; a second call
// returns ErrRunning. Use Idle to block and Stop to terminate.
//
// The cursor advances to max(update id)+1 as soon as a batch is received,
// before its dispatch completes: handler failures never cause redelivery
// (at-most-once ingestion).
func (c *Client) StartPolling(opts *PollingOptions) error {
	opts = opts.withDefaults()

	var once sync.Once
	stopCh := make(chan struct{})
	release, err := c.acquireRun(func() {
		once.Do(func() { close(stopCh) })
	})
	if err != nil {
		return err
	}

	// Warm the bot identity so @-addressed command filters can be scoped.
	// Failure is non-fatal; it only disables that scoping until retried.
	c.Me()

	go c.pollLoop(opts, stopCh, release)
	return nil
}

func (c *Client) pollLoop(opts *PollingOptions, stopCh <-chan struct{}, release func()) {
	defer release()

	log := c.Log.WithPrefix("tgram:poller")
	log.Info("polling started (timeout %s, limit %d)", opts.Timeout, opts.Limit)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = opts.MaxRetryInterval
	bo.MaxElapsedTime = 0
	bo.Reset()

	cursor := opts.Offset
	for {
		select {
		case <-stopCh:
			log.Info("polling stopped")
			return
		default:
		}

		// One outstanding fetch at a time. The request deadline leaves
		// headroom over the server-side long-poll wait.
		reqCtx, cancel := context.WithTimeout(context.Background(), opts.Timeout+10*time.Second)
		updates, err := c.GetUpdates(reqCtx, &UpdatesRequest{
			Offset:         cursor,
			Limit:          opts.Limit,
			Timeout:        int(opts.Timeout / time.Second),
			AllowedUpdates: opts.AllowedUpdates,
		})
		cancel()

		if err != nil {
			wait := bo.NextBackOff()
			if after := retryAfter(err); after > wait {
				wait = after
			}
			log.WithError(err).Warn("fetch failed, retrying in %s", wait.Round(time.Millisecond))
			select {
			case <-stopCh:
				log.Info("polling stopped")
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		if len(updates) == 0 {
			continue
		}

		// Cursor from the whole batch, before any dispatch completion.
		for i := range updates {
			if next := updates[i].UpdateID + 1; next > cursor {
				cursor = next
			}
		}
		log.Debug("fetched %d update(s), cursor now %d", len(updates), cursor)

		c.dispatchBatch(opts, updates)
	}
}

// dispatchBatch hands every update of one batch to the dispatcher and
// waits for completion before the caller issues the next fetch.
func (c *Client) dispatchBatch(opts *PollingOptions, updates []Update) {
	if !opts.Concurrent {
		for i := range updates {
			c.dispatcher.Dispatch(context.Background(), &updates[i])
		}
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(opts.MaxConcurrency)
	for i := range updates {
		u := &updates[i]
		g.Go(func() error {
			c.dispatcher.Dispatch(context.Background(), u)
			return nil
		})
	}
	_ = g.Wait()
}

// retryAfter extracts the server-mandated flood wait, 0 when none.
func retryAfter(err error) time.Duration {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}
