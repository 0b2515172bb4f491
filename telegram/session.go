package telegram

import "strconv"

// Session is one conversation's application-defined state. It is an alias so
// that stores implemented outside this package (internal/session, or user
// code) need no import of telegram types.
type Session = map[string]any

// SessionStore is the injected persistence contract. Get reports absence
// through its second return rather than an error; errors are reserved for
// storage faults. Implementations must tolerate concurrent access to
// distinct keys; overlapping writes to the same key are last-write-wins.
type SessionStore interface {
	Get(key string) (Session, bool, error)
	Set(key string, s Session) error
}

// UseSessions enables session loading and persistence around every dispatch.
// Call before starting a fetcher.
func (c *Client) UseSessions(store SessionStore) {
	c.dispatcher.store = store
}

// sessionKey derives the stable identity a session is stored under: the
// resolved chat, or the sender when the update carries no chat (inline
// queries and the like).
func sessionKey(ctx *Context) (string, bool) {
	if chat := ctx.EffectiveChat(); chat != nil {
		return "chat:" + strconv.FormatInt(chat.ID, 10), true
	}
	if sender := ctx.EffectiveSender(); sender != nil {
		return "user:" + strconv.FormatInt(sender.ID, 10), true
	}
	return "", false
}
