// Copyright (c) 2025 tgram-dev

package telegram

import (
	"context"

	"github.com/k0kubun/pp"
	"github.com/pkg/errors"
)

// HandlerFunc is an application callback invoked when its filter matches.
// In chain dispatch mode a handler passes control onward with ctx.Next().
type HandlerFunc func(ctx *Context) error

// MiddlewareFunc wraps a handler. Middleware registered with Use applies to
// every handler, outermost first.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// ErrorHandler receives handler faults and session store failures together
// with the Context they happened in.
type ErrorHandler func(ctx *Context, err error)

// DispatchPolicy selects how multiple matching handlers are treated.
type DispatchPolicy int

const (
	// DispatchChain runs every matching handler as a chain link: each link
	// decides with ctx.Next() whether the next match runs.
	DispatchChain DispatchPolicy = iota
	// DispatchFirstMatch stops after the first matching handler.
	DispatchFirstMatch
)

type registration struct {
	filter  Filter
	handler HandlerFunc
}

// Dispatcher holds the ordered handler registry and drives per-update
// dispatch. The registry is effectively read-only once a fetcher is
// started; mutating it during active dispatch is unsupported.
type Dispatcher struct {
	client     *Client
	policy     DispatchPolicy
	regs       []*registration
	middleware []MiddlewareFunc
	onError    ErrorHandler
	store      SessionStore
}

func newDispatcher(c *Client, policy DispatchPolicy, store SessionStore) *Dispatcher {
	return &Dispatcher{client: c, policy: policy, store: store}
}

// Handle appends a registration. Registration order is evaluation order.
func (d *Dispatcher) Handle(filter Filter, handler HandlerFunc) {
	if filter == nil {
		filter = Any()
	}
	d.regs = append(d.regs, &registration{filter: filter, handler: handler})
}

// Use appends middleware applied to every handler.
func (d *Dispatcher) Use(mw ...MiddlewareFunc) {
	d.middleware = append(d.middleware, mw...)
}

// OnError replaces the error sink.
func (d *Dispatcher) OnError(sink ErrorHandler) {
	d.onError = sink
}

// Dispatch builds the Context for one update and runs the handler pipeline.
// Handler faults never escape: they are recovered, reported to the error
// sink and the caller's loop continues unaffected.
func (d *Dispatcher) Dispatch(ctx context.Context, u *Update) {
	if d.client.Log.GetLevel() == TraceLevel {
		pp.Println(u)
	}

	c := d.client.NewContext(ctx, u)
	d.loadSession(c)

	switch d.policy {
	case DispatchFirstMatch:
		for _, r := range d.regs {
			c.match = nil
			if r.filter(c) {
				if err := d.safely(c, r.handler); err != nil {
					d.report(c, err)
				}
				break
			}
		}
	default:
		d.runChain(c, 0)
	}

	d.persistSession(c)
}

// runChain finds the next matching registration at or after index from and
// runs it with a continuation pointing past itself. An error is reported at
// the link where it originated and still returned, so an upstream link that
// called Next can react to it; a link merely propagating a downstream error
// (return ctx.Next()) does not report the same fault again.
func (d *Dispatcher) runChain(c *Context, from int) error {
	for i := from; i < len(d.regs); i++ {
		r := d.regs[i]
		c.match = nil
		if !r.filter(c) {
			continue
		}
		next := i + 1
		c.next = func() error { return d.runChain(c, next) }
		err := d.safely(c, r.handler)
		c.next = nil
		if err != nil && (c.reported == nil || !errors.Is(err, c.reported)) {
			d.report(c, err)
			c.reported = err
		}
		return err
	}
	return nil
}

// safely runs one handler with middleware applied, converting panics into
// reported errors at the dispatch boundary.
func (d *Dispatcher) safely(c *Context, h HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panicked: %v", r)
		}
	}()

	for i := len(d.middleware) - 1; i >= 0; i-- {
		h = d.middleware[i](h)
	}
	return h(c)
}

func (d *Dispatcher) report(c *Context, err error) {
	if d.onError != nil {
		d.onError(c, err)
		return
	}
	d.client.Log.WithError(err).Error("handler error (update %d)", c.Update.UpdateID)
}

func (d *Dispatcher) loadSession(c *Context) {
	if d.store == nil {
		return
	}
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	s, found, err := d.store.Get(key)
	if err != nil {
		d.report(c, errors.Wrapf(err, "loading session %s", key))
	}
	if !found || s == nil {
		s = Session{}
	}
	c.session = s
	c.hasSession = true
}

// persistSession writes the session back after the chain completed, also
// when a handler failed. A store write error goes to the sink; the
// in-memory value the handlers saw is never invalidated mid-cycle.
func (d *Dispatcher) persistSession(c *Context) {
	if d.store == nil || !c.hasSession {
		return
	}
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	if err := d.store.Set(key, c.session); err != nil {
		d.report(c, errors.Wrapf(err, "persisting session %s", key))
	}
}
