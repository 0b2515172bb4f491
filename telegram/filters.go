package telegram

import (
	"regexp"
	"strings"
)

// Filter is a pure predicate over a Context, used to select handlers.
// Filters are stateless and safe to share across updates and goroutines.
type Filter func(*Context) bool

// And matches when every sub-filter matches. Evaluation is in argument
// order and stops at the first false. And() is true.
func And(filters ...Filter) Filter {
	return func(c *Context) bool {
		for _, f := range filters {
			if !f(c) {
				return false
			}
		}
		return true
	}
}

// Or matches when any sub-filter matches. Evaluation is in argument order
// and stops at the first true. Or() is false.
func Or(filters ...Filter) Filter {
	return func(c *Context) bool {
		for _, f := range filters {
			if f(c) {
				return true
			}
		}
		return false
	}
}

// Not inverts a filter.
func Not(f Filter) Filter {
	return func(c *Context) bool {
		return !f(c)
	}
}

// Any matches every update.
func Any() Filter {
	return func(*Context) bool { return true }
}

// OnKind matches updates whose populated variant is one of kinds.
func OnKind(kinds ...UpdateKind) Filter {
	return func(c *Context) bool {
		got := c.Update.Kind()
		for _, k := range kinds {
			if got == k {
				return true
			}
		}
		return false
	}
}

// Common kind filters.
var (
	OnMessage       = OnKind(KindMessage)
	OnEdited        = OnKind(KindEditedMessage)
	OnChannelPost   = OnKind(KindChannelPost)
	OnCallback      = OnKind(KindCallbackQuery)
	OnInline        = OnKind(KindInlineQuery)
	OnJoinRequest   = OnKind(KindChatJoinRequest)
	OnReaction      = OnKind(KindMessageReaction)
	OnMemberUpdated = OnKind(KindChatMember, KindMyChatMember)
)

// ChatType matches updates whose effective chat has one of the given types
// (private, group, supergroup, channel).
func ChatType(types ...string) Filter {
	return func(c *Context) bool {
		chat := c.EffectiveChat()
		if chat == nil {
			return false
		}
		for _, t := range types {
			if chat.Type == t {
				return true
			}
		}
		return false
	}
}

// HasText matches updates carrying non-empty message text or caption.
func HasText() Filter {
	return func(c *Context) bool {
		return c.Text() != ""
	}
}

// TextEqual matches the exact message text.
func TextEqual(text string) Filter {
	return func(c *Context) bool {
		return c.Text() == text
	}
}

// TextPrefix matches message text starting with prefix.
func TextPrefix(prefix string) Filter {
	return func(c *Context) bool {
		return prefix != "" && strings.HasPrefix(c.Text(), prefix)
	}
}

// Regex matches message text against pattern and records the capture groups
// in the Context's match result for the invoked handler. The pattern is
// compiled once at registration time.
func Regex(pattern string) Filter {
	return Regexp(regexp.MustCompile(pattern))
}

// Regexp is Regex for a pre-compiled expression.
func Regexp(re *regexp.Regexp) Filter {
	return func(c *Context) bool {
		text := c.Text()
		if text == "" {
			return false
		}
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			return false
		}
		c.setMatch(&MatchResult{Pattern: re.String(), Groups: groups})
		return true
	}
}

// FromUsers matches updates sent by one of the given user ids.
func FromUsers(ids ...int64) Filter {
	return func(c *Context) bool {
		sender := c.EffectiveSender()
		if sender == nil {
			return false
		}
		for _, id := range ids {
			if sender.ID == id {
				return true
			}
		}
		return false
	}
}

// InChats matches updates belonging to one of the given chat ids.
func InChats(ids ...int64) Filter {
	return func(c *Context) bool {
		chat := c.EffectiveChat()
		if chat == nil {
			return false
		}
		for _, id := range ids {
			if chat.ID == id {
				return true
			}
		}
		return false
	}
}

// Command matches "/name" at the start of the message text. A "@botname"
// suffix is accepted only when it names this bot; commands addressed to
// other bots never match. Command name and arguments are recorded in the
// Context's match result.
func Command(name string) Filter {
	name = strings.TrimPrefix(name, "/")
	return func(c *Context) bool {
		text := c.Text()
		if text == "" || text[0] != '/' {
			return false
		}

		fields := strings.Fields(text)
		token := fields[0][1:]

		if at := strings.IndexByte(token, '@'); at >= 0 {
			mention := token[at+1:]
			token = token[:at]
			if !strings.EqualFold(mention, c.Client.username()) || mention == "" {
				return false
			}
		}
		if !strings.EqualFold(token, name) {
			return false
		}

		c.setMatch(&MatchResult{Pattern: "/" + name, Command: name, Args: fields[1:]})
		return true
	}
}
