// Copyright (c) 2025 tgram-dev

package telegram

import "context"

// MatchResult carries what the text-matching filter responsible for the
// dispatch extracted from the update.
type MatchResult struct {
	// Pattern is the source pattern of the filter that matched.
	Pattern string
	// Groups holds regex capture groups, full match first.
	Groups []string
	// Command and Args are set by Command filters.
	Command string
	Args    []string
}

// Context is the per-update facade handed to handlers. It binds one Update
// to the owning client and its resolved session, and exposes normalized
// accessors plus outbound convenience calls scoped to the update's chat and
// message. A Context lives for one dispatch cycle.
type Context struct {
	Client *Client
	Update *Update

	ctx            context.Context
	threadOverride *int
	match          *MatchResult
	session        Session
	hasSession     bool
	next           func() error
	reported       error
}

// NewContext binds one update to the client. Dispatchers build these
// internally; it is exported for tests and custom hosting setups that
// drive dispatch themselves.
func (c *Client) NewContext(ctx context.Context, u *Update) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Client: c, Update: u, ctx: ctx}
}

// Ctx is the execution context outbound calls made through this Context
// run under.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// firstMessage resolves an ordered candidate list to its first populated
// entry.
func firstMessage(candidates ...*Message) *Message {
	for _, m := range candidates {
		if m != nil {
			return m
		}
	}
	return nil
}

func firstChat(candidates ...*Chat) *Chat {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstUser(candidates ...*User) *User {
	for _, u := range candidates {
		if u != nil {
			return u
		}
	}
	return nil
}

// EffectiveMessage returns the message-like payload of the update:
// message, then edited message, then channel post, then edited channel post.
func (c *Context) EffectiveMessage() *Message {
	u := c.Update
	return firstMessage(u.Message, u.EditedMessage, u.ChannelPost, u.EditedChannelPost)
}

// EffectiveChat resolves the chat the update belongs to. Callback queries
// resolve through their origin message; inline queries have no chat.
func (c *Context) EffectiveChat() *Chat {
	u := c.Update

	var joinReq, boostRemoved, boost, member, myMember, reaction, reactionCount *Chat
	if u.ChatJoinRequest != nil {
		joinReq = u.ChatJoinRequest.Chat
	}
	if u.RemovedChatBoost != nil {
		boostRemoved = u.RemovedChatBoost.Chat
	}
	if u.ChatBoost != nil {
		boost = u.ChatBoost.Chat
	}
	if u.ChatMember != nil {
		member = u.ChatMember.Chat
	}
	if u.MyChatMember != nil {
		myMember = u.MyChatMember.Chat
	}
	if u.MessageReaction != nil {
		reaction = u.MessageReaction.Chat
	}
	if u.MessageReactionCount != nil {
		reactionCount = u.MessageReactionCount.Chat
	}

	var messageChat *Chat
	if m := c.messageLike(); m != nil {
		messageChat = m.Chat
	}

	return firstChat(joinReq, boostRemoved, boost, member, myMember, reaction, reactionCount, messageChat)
}

// messageLike extends EffectiveMessage to the message a callback query
// originated from, which carries the chat identity for callback updates.
func (c *Context) messageLike() *Message {
	if m := c.EffectiveMessage(); m != nil {
		return m
	}
	if c.Update.CallbackQuery != nil {
		return c.Update.CallbackQuery.Message
	}
	return nil
}

// EffectiveSender resolves the user who triggered the update.
func (c *Context) EffectiveSender() *User {
	u := c.Update

	var cb, inline, shipping, preCheckout, chosen, message, myMember, member, joinReq *User
	if u.CallbackQuery != nil {
		cb = u.CallbackQuery.From
	}
	if u.InlineQuery != nil {
		inline = u.InlineQuery.From
	}
	if u.ShippingQuery != nil {
		shipping = u.ShippingQuery.From
	}
	if u.PreCheckoutQuery != nil {
		preCheckout = u.PreCheckoutQuery.From
	}
	if u.ChosenInlineResult != nil {
		chosen = u.ChosenInlineResult.From
	}
	if m := c.EffectiveMessage(); m != nil {
		message = m.From
	}
	if u.MyChatMember != nil {
		myMember = u.MyChatMember.From
	}
	if u.ChatMember != nil {
		member = u.ChatMember.From
	}
	if u.ChatJoinRequest != nil {
		joinReq = u.ChatJoinRequest.From
	}

	return firstUser(cb, inline, shipping, preCheckout, chosen, message, myMember, member, joinReq)
}

// ChatID returns the effective chat id, 0 when none resolves.
func (c *Context) ChatID() int64 {
	if chat := c.EffectiveChat(); chat != nil {
		return chat.ID
	}
	return 0
}

// SenderID returns the effective sender id, 0 when none resolves.
func (c *Context) SenderID() int64 {
	if sender := c.EffectiveSender(); sender != nil {
		return sender.ID
	}
	return 0
}

// Text returns the effective message text or caption.
func (c *Context) Text() string {
	if m := c.EffectiveMessage(); m != nil {
		return m.Content()
	}
	return ""
}

// ThreadID resolves the forum topic the update belongs to: an explicit
// override wins, else the message's thread id when the message is a topic
// message.
func (c *Context) ThreadID() (int, bool) {
	if c.threadOverride != nil {
		return *c.threadOverride, true
	}
	if m := c.messageLike(); m != nil && m.IsTopicMessage && m.ThreadID != 0 {
		return m.ThreadID, true
	}
	return 0, false
}

// SetThreadID pins outbound calls from this Context to a topic.
func (c *Context) SetThreadID(threadID int) {
	c.threadOverride = &threadID
}

// Match returns what the text filter that dispatched the current handler
// extracted, nil when that filter was not a text matcher. The result is
// reset before each registration's filter is evaluated, so a partial match
// inside a combinator that ultimately failed never leaks to a later handler.
func (c *Context) Match() *MatchResult {
	return c.match
}

func (c *Context) setMatch(m *MatchResult) {
	c.match = m
}

// Session returns the conversation state loaded for this update. ok is
// false when sessions are disabled or no stable identity could be derived.
// The map may be mutated in place; it is persisted after the handler chain
// completes.
func (c *Context) Session() (Session, bool) {
	return c.session, c.hasSession
}

// Next hands control to the next matching handler in chain dispatch mode.
// Not calling Next ends the chain for this update. Outside chain mode, or
// past the last match, Next is a no-op. The caller's own match result is
// restored when Next returns, whatever the downstream links set.
func (c *Context) Next() error {
	if c.next == nil {
		return nil
	}
	next := c.next
	c.next = nil
	own := c.match
	err := next()
	c.match = own
	return err
}

// pick copies the caller's options so that scoping them to this update
// never mutates a value the caller reuses across calls or goroutines.
func pick(opts []*SendOptions) *SendOptions {
	if len(opts) > 0 && opts[0] != nil {
		o := *opts[0]
		return &o
	}
	return nil
}

// fill scopes options to this update's thread when the caller did not.
func (c *Context) fill(opt *SendOptions) *SendOptions {
	if opt == nil {
		opt = &SendOptions{}
	}
	if opt.ThreadID == 0 {
		if tid, ok := c.ThreadID(); ok {
			opt.ThreadID = tid
		}
	}
	return opt
}

// Respond sends a message to the effective chat.
func (c *Context) Respond(text string, opts ...*SendOptions) (*Message, error) {
	chat := c.EffectiveChat()
	if chat == nil {
		return nil, ErrNoChat
	}
	return c.Client.SendMessage(c.ctx, chat.ID, text, c.fill(pick(opts)))
}

// Reply sends a message quoting the effective message.
func (c *Context) Reply(text string, opts ...*SendOptions) (*Message, error) {
	msg := c.messageLike()
	if msg == nil {
		return nil, ErrNoMessage
	}
	opt := c.fill(pick(opts))
	opt.ReplyToMessageID = msg.ID
	return c.Client.SendMessage(c.ctx, msg.Chat.ID, text, opt)
}

// ReplyPhoto sends a photo quoting the effective message.
func (c *Context) ReplyPhoto(photo, caption string, opts ...*SendOptions) (*Message, error) {
	msg := c.messageLike()
	if msg == nil {
		return nil, ErrNoMessage
	}
	opt := c.fill(pick(opts))
	opt.ReplyToMessageID = msg.ID
	return c.Client.SendPhoto(c.ctx, msg.Chat.ID, photo, caption, opt)
}

// ReplyDocument sends a document quoting the effective message.
func (c *Context) ReplyDocument(document, caption string, opts ...*SendOptions) (*Message, error) {
	msg := c.messageLike()
	if msg == nil {
		return nil, ErrNoMessage
	}
	opt := c.fill(pick(opts))
	opt.ReplyToMessageID = msg.ID
	return c.Client.SendDocument(c.ctx, msg.Chat.ID, document, caption, opt)
}

// Edit rewrites the effective message's text.
func (c *Context) Edit(text string, opts ...*SendOptions) (*Message, error) {
	msg := c.messageLike()
	if msg == nil {
		return nil, ErrNoMessage
	}
	return c.Client.EditMessageText(c.ctx, msg.Chat.ID, msg.ID, text, pick(opts))
}

// Delete removes the effective message.
func (c *Context) Delete() error {
	msg := c.messageLike()
	if msg == nil {
		return ErrNoMessage
	}
	return c.Client.DeleteMessage(c.ctx, msg.Chat.ID, msg.ID)
}

// React sets emoji reactions on the effective message.
func (c *Context) React(emojis ...string) error {
	msg := c.messageLike()
	if msg == nil {
		return ErrNoMessage
	}
	reactions := make([]ReactionType, 0, len(emojis))
	for _, e := range emojis {
		reactions = append(reactions, ReactionEmoji(e))
	}
	return c.Client.SetMessageReaction(c.ctx, msg.Chat.ID, msg.ID, reactions, false)
}

// AnswerCallback acknowledges the update's callback query.
func (c *Context) AnswerCallback(text string, showAlert bool) error {
	if c.Update.CallbackQuery == nil {
		return ErrNoCallback
	}
	return c.Client.AnswerCallbackQuery(c.ctx, c.Update.CallbackQuery.ID, text, showAlert)
}

// CreateTopic opens a forum topic in the effective chat.
func (c *Context) CreateTopic(name string) (*ForumTopic, error) {
	chat := c.EffectiveChat()
	if chat == nil {
		return nil, ErrNoChat
	}
	return c.Client.CreateForumTopic(c.ctx, chat.ID, name)
}

func (c *Context) topicIdentity() (int64, int, error) {
	chat := c.EffectiveChat()
	if chat == nil {
		return 0, 0, ErrNoChat
	}
	tid, ok := c.ThreadID()
	if !ok {
		return 0, 0, ErrNoThread
	}
	return chat.ID, tid, nil
}

// EditTopic renames the topic this update belongs to.
func (c *Context) EditTopic(name string) error {
	chatID, tid, err := c.topicIdentity()
	if err != nil {
		return err
	}
	return c.Client.EditForumTopic(c.ctx, chatID, tid, name)
}

// CloseTopic closes the topic this update belongs to.
func (c *Context) CloseTopic() error {
	chatID, tid, err := c.topicIdentity()
	if err != nil {
		return err
	}
	return c.Client.CloseForumTopic(c.ctx, chatID, tid)
}

// ReopenTopic reopens the topic this update belongs to.
func (c *Context) ReopenTopic() error {
	chatID, tid, err := c.topicIdentity()
	if err != nil {
		return err
	}
	return c.Client.ReopenForumTopic(c.ctx, chatID, tid)
}

// DeleteTopic deletes the topic this update belongs to.
func (c *Context) DeleteTopic() error {
	chatID, tid, err := c.topicIdentity()
	if err != nil {
		return err
	}
	return c.Client.DeleteForumTopic(c.ctx, chatID, tid)
}

func (c *Context) memberIdentity() (int64, int64, error) {
	chat := c.EffectiveChat()
	if chat == nil {
		return 0, 0, ErrNoChat
	}
	sender := c.EffectiveSender()
	if sender == nil {
		return 0, 0, ErrNoSender
	}
	return chat.ID, sender.ID, nil
}

// BanSender bans the effective sender from the effective chat.
func (c *Context) BanSender(untilDate int64) error {
	chatID, userID, err := c.memberIdentity()
	if err != nil {
		return err
	}
	return c.Client.BanChatMember(c.ctx, chatID, userID, untilDate)
}

// UnbanSender lifts a ban on the effective sender.
func (c *Context) UnbanSender() error {
	chatID, userID, err := c.memberIdentity()
	if err != nil {
		return err
	}
	return c.Client.UnbanChatMember(c.ctx, chatID, userID)
}

// RestrictSender applies permissions to the effective sender.
func (c *Context) RestrictSender(perms ChatPermissions, untilDate int64) error {
	chatID, userID, err := c.memberIdentity()
	if err != nil {
		return err
	}
	return c.Client.RestrictChatMember(c.ctx, chatID, userID, perms, untilDate)
}

// PromoteSender grants admin rights to the effective sender.
func (c *Context) PromoteSender(rights map[string]bool) error {
	chatID, userID, err := c.memberIdentity()
	if err != nil {
		return err
	}
	return c.Client.PromoteChatMember(c.ctx, chatID, userID, rights)
}

// ApproveJoin accepts the update's pending join request.
func (c *Context) ApproveJoin() error {
	chatID, userID, err := c.memberIdentity()
	if err != nil {
		return err
	}
	return c.Client.ApproveChatJoinRequest(c.ctx, chatID, userID)
}

// DeclineJoin rejects the update's pending join request.
func (c *Context) DeclineJoin() error {
	chatID, userID, err := c.memberIdentity()
	if err != nil {
		return err
	}
	return c.Client.DeclineChatJoinRequest(c.ctx, chatID, userID)
}
