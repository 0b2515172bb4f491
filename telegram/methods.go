package telegram

import (
	"context"

	"github.com/pkg/errors"
)

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.invoke(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// UpdatesRequest carries the long-polling fetch parameters.
type UpdatesRequest struct {
	Offset         int64        `json:"offset,omitempty"`
	Limit          int          `json:"limit,omitempty"`
	Timeout        int          `json:"timeout,omitempty"`
	AllowedUpdates []UpdateKind `json:"allowed_updates,omitempty"`
}

// GetUpdates fetches the next batch of pending updates starting at the
// request offset.
func (c *Client) GetUpdates(ctx context.Context, req *UpdatesRequest) ([]Update, error) {
	if req == nil {
		req = &UpdatesRequest{}
	}
	var updates []Update
	if err := c.invoke(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendOptions tweaks an outbound message. The zero value is usable.
type SendOptions struct {
	ThreadID            int
	ReplyToMessageID    int
	ParseMode           string
	DisableNotification bool
}

func (o *SendOptions) parseMode(fallback string) string {
	if o != nil && o.ParseMode != "" {
		return o.ParseMode
	}
	return fallback
}

type sendMessageParams struct {
	ChatID              int64  `json:"chat_id"`
	ThreadID            int    `json:"message_thread_id,omitempty"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	ReplyToMessageID    int    `json:"reply_to_message_id,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// SendMessage sends a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (*Message, error) {
	if chatID == 0 {
		return nil, ErrNoChat
	}
	if text == "" {
		return nil, errors.New("message text cannot be empty")
	}
	p := sendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: opts.parseMode(c.parseMode),
	}
	if opts != nil {
		p.ThreadID = opts.ThreadID
		p.ReplyToMessageID = opts.ReplyToMessageID
		p.DisableNotification = opts.DisableNotification
	}
	var msg Message
	if err := c.invoke(ctx, "sendMessage", p, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type sendMediaParams struct {
	ChatID           int64  `json:"chat_id"`
	ThreadID         int    `json:"message_thread_id,omitempty"`
	Photo            string `json:"photo,omitempty"`
	Document         string `json:"document,omitempty"`
	Caption          string `json:"caption,omitempty"`
	ParseMode        string `json:"parse_mode,omitempty"`
	ReplyToMessageID int    `json:"reply_to_message_id,omitempty"`
}

// SendPhoto sends a photo referenced by file id or URL.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo, caption string, opts *SendOptions) (*Message, error) {
	if chatID == 0 {
		return nil, ErrNoChat
	}
	if photo == "" {
		return nil, errors.New("photo reference cannot be empty")
	}
	p := sendMediaParams{ChatID: chatID, Photo: photo, Caption: caption, ParseMode: opts.parseMode(c.parseMode)}
	if opts != nil {
		p.ThreadID = opts.ThreadID
		p.ReplyToMessageID = opts.ReplyToMessageID
	}
	var msg Message
	if err := c.invoke(ctx, "sendPhoto", p, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendDocument sends a document referenced by file id or URL.
func (c *Client) SendDocument(ctx context.Context, chatID int64, document, caption string, opts *SendOptions) (*Message, error) {
	if chatID == 0 {
		return nil, ErrNoChat
	}
	if document == "" {
		return nil, errors.New("document reference cannot be empty")
	}
	p := sendMediaParams{ChatID: chatID, Document: document, Caption: caption, ParseMode: opts.parseMode(c.parseMode)}
	if opts != nil {
		p.ThreadID = opts.ThreadID
		p.ReplyToMessageID = opts.ReplyToMessageID
	}
	var msg Message
	if err := c.invoke(ctx, "sendDocument", p, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text of an existing message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) (*Message, error) {
	if chatID == 0 {
		return nil, ErrNoChat
	}
	if messageID == 0 {
		return nil, ErrNoMessage
	}
	p := struct {
		ChatID    int64  `json:"chat_id"`
		MessageID int    `json:"message_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode,omitempty"`
	}{chatID, messageID, text, opts.parseMode(c.parseMode)}
	var msg Message
	if err := c.invoke(ctx, "editMessageText", p, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if messageID == 0 {
		return ErrNoMessage
	}
	p := struct {
		ChatID    int64 `json:"chat_id"`
		MessageID int   `json:"message_id"`
	}{chatID, messageID}
	return c.invoke(ctx, "deleteMessage", p, nil)
}

// SetMessageReaction replaces the bot's reactions on a message.
func (c *Client) SetMessageReaction(ctx context.Context, chatID int64, messageID int, reactions []ReactionType, big bool) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if messageID == 0 {
		return ErrNoMessage
	}
	p := struct {
		ChatID    int64          `json:"chat_id"`
		MessageID int            `json:"message_id"`
		Reaction  []ReactionType `json:"reaction,omitempty"`
		IsBig     bool           `json:"is_big,omitempty"`
	}{chatID, messageID, reactions, big}
	return c.invoke(ctx, "setMessageReaction", p, nil)
}

// AnswerCallbackQuery acknowledges a callback query, optionally with a toast
// or alert shown to the user.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID, text string, showAlert bool) error {
	if queryID == "" {
		return ErrNoCallback
	}
	p := struct {
		CallbackQueryID string `json:"callback_query_id"`
		Text            string `json:"text,omitempty"`
		ShowAlert       bool   `json:"show_alert,omitempty"`
	}{queryID, text, showAlert}
	return c.invoke(ctx, "answerCallbackQuery", p, nil)
}

// CreateForumTopic opens a new topic in a forum supergroup.
func (c *Client) CreateForumTopic(ctx context.Context, chatID int64, name string) (*ForumTopic, error) {
	if chatID == 0 {
		return nil, ErrNoChat
	}
	if name == "" {
		return nil, errors.New("topic name cannot be empty")
	}
	p := struct {
		ChatID int64  `json:"chat_id"`
		Name   string `json:"name"`
	}{chatID, name}
	var topic ForumTopic
	if err := c.invoke(ctx, "createForumTopic", p, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

type forumTopicParams struct {
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"message_thread_id"`
	Name     string `json:"name,omitempty"`
}

// EditForumTopic renames a topic.
func (c *Client) EditForumTopic(ctx context.Context, chatID int64, threadID int, name string) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if threadID == 0 {
		return ErrNoThread
	}
	return c.invoke(ctx, "editForumTopic", forumTopicParams{chatID, threadID, name}, nil)
}

// CloseForumTopic closes a topic.
func (c *Client) CloseForumTopic(ctx context.Context, chatID int64, threadID int) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if threadID == 0 {
		return ErrNoThread
	}
	return c.invoke(ctx, "closeForumTopic", forumTopicParams{ChatID: chatID, ThreadID: threadID}, nil)
}

// ReopenForumTopic reopens a closed topic.
func (c *Client) ReopenForumTopic(ctx context.Context, chatID int64, threadID int) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if threadID == 0 {
		return ErrNoThread
	}
	return c.invoke(ctx, "reopenForumTopic", forumTopicParams{ChatID: chatID, ThreadID: threadID}, nil)
}

// DeleteForumTopic deletes a topic along with its messages.
func (c *Client) DeleteForumTopic(ctx context.Context, chatID int64, threadID int) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if threadID == 0 {
		return ErrNoThread
	}
	return c.invoke(ctx, "deleteForumTopic", forumTopicParams{ChatID: chatID, ThreadID: threadID}, nil)
}

// BanChatMember bans a user; untilDate is a unix timestamp, 0 means forever.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64, untilDate int64) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if userID == 0 {
		return ErrNoSender
	}
	p := struct {
		ChatID    int64 `json:"chat_id"`
		UserID    int64 `json:"user_id"`
		UntilDate int64 `json:"until_date,omitempty"`
	}{chatID, userID, untilDate}
	return c.invoke(ctx, "banChatMember", p, nil)
}

// UnbanChatMember lifts a ban.
func (c *Client) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if userID == 0 {
		return ErrNoSender
	}
	p := struct {
		ChatID       int64 `json:"chat_id"`
		UserID       int64 `json:"user_id"`
		OnlyIfBanned bool  `json:"only_if_banned"`
	}{chatID, userID, true}
	return c.invoke(ctx, "unbanChatMember", p, nil)
}

// RestrictChatMember applies permissions to a user until untilDate.
func (c *Client) RestrictChatMember(ctx context.Context, chatID, userID int64, perms ChatPermissions, untilDate int64) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if userID == 0 {
		return ErrNoSender
	}
	p := struct {
		ChatID      int64           `json:"chat_id"`
		UserID      int64           `json:"user_id"`
		Permissions ChatPermissions `json:"permissions"`
		UntilDate   int64           `json:"until_date,omitempty"`
	}{chatID, userID, perms, untilDate}
	return c.invoke(ctx, "restrictChatMember", p, nil)
}

// PromoteChatMember grants or revokes admin rights. An all-false rights set
// demotes the user.
func (c *Client) PromoteChatMember(ctx context.Context, chatID, userID int64, rights map[string]bool) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if userID == 0 {
		return ErrNoSender
	}
	p := map[string]any{"chat_id": chatID, "user_id": userID}
	for k, v := range rights {
		p[k] = v
	}
	return c.invoke(ctx, "promoteChatMember", p, nil)
}

// ApproveChatJoinRequest accepts a pending join request.
func (c *Client) ApproveChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if userID == 0 {
		return ErrNoSender
	}
	p := struct {
		ChatID int64 `json:"chat_id"`
		UserID int64 `json:"user_id"`
	}{chatID, userID}
	return c.invoke(ctx, "approveChatJoinRequest", p, nil)
}

// DeclineChatJoinRequest rejects a pending join request.
func (c *Client) DeclineChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	if chatID == 0 {
		return ErrNoChat
	}
	if userID == 0 {
		return ErrNoSender
	}
	p := struct {
		ChatID int64 `json:"chat_id"`
		UserID int64 `json:"user_id"`
	}{chatID, userID}
	return c.invoke(ctx, "declineChatJoinRequest", p, nil)
}

// SetWebhook points the platform at url for push delivery. The secret, when
// set, is echoed back by the platform in the X-Telegram-Bot-Api-Secret-Token
// header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secret string, allowed []UpdateKind) error {
	if url == "" {
		return errors.New("webhook url cannot be empty")
	}
	p := struct {
		URL            string       `json:"url"`
		SecretToken    string       `json:"secret_token,omitempty"`
		AllowedUpdates []UpdateKind `json:"allowed_updates,omitempty"`
	}{url, secret, allowed}
	return c.invoke(ctx, "setWebhook", p, nil)
}

// DeleteWebhook switches the bot back to pull-based delivery.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	p := struct {
		DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
	}{dropPending}
	return c.invoke(ctx, "deleteWebhook", p, nil)
}
