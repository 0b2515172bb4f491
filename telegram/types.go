// Copyright (c) 2025 tgram-dev

package telegram

// UpdateKind tags the populated variant of an Update. Values match the
// allowed_updates names of the Bot API.
type UpdateKind string

const (
	KindMessage              UpdateKind = "message"
	KindEditedMessage        UpdateKind = "edited_message"
	KindChannelPost          UpdateKind = "channel_post"
	KindEditedChannelPost    UpdateKind = "edited_channel_post"
	KindInlineQuery          UpdateKind = "inline_query"
	KindChosenInlineResult   UpdateKind = "chosen_inline_result"
	KindCallbackQuery        UpdateKind = "callback_query"
	KindShippingQuery        UpdateKind = "shipping_query"
	KindPreCheckoutQuery     UpdateKind = "pre_checkout_query"
	KindPoll                 UpdateKind = "poll"
	KindPollAnswer           UpdateKind = "poll_answer"
	KindMyChatMember         UpdateKind = "my_chat_member"
	KindChatMember           UpdateKind = "chat_member"
	KindChatJoinRequest      UpdateKind = "chat_join_request"
	KindMessageReaction      UpdateKind = "message_reaction"
	KindMessageReactionCount UpdateKind = "message_reaction_count"
	KindChatBoost            UpdateKind = "chat_boost"
	KindRemovedChatBoost     UpdateKind = "removed_chat_boost"
	KindUnknown              UpdateKind = ""
)

// Update is one incoming event. Exactly one of the variant pointers is
// populated per instance; UpdateID is the monotonically increasing sequence
// id used as the long-polling cursor.
type Update struct {
	UpdateID             int64                        `json:"update_id"`
	Message              *Message                     `json:"message,omitempty"`
	EditedMessage        *Message                     `json:"edited_message,omitempty"`
	ChannelPost          *Message                     `json:"channel_post,omitempty"`
	EditedChannelPost    *Message                     `json:"edited_channel_post,omitempty"`
	InlineQuery          *InlineQuery                 `json:"inline_query,omitempty"`
	ChosenInlineResult   *ChosenInlineResult          `json:"chosen_inline_result,omitempty"`
	CallbackQuery        *CallbackQuery               `json:"callback_query,omitempty"`
	ShippingQuery        *ShippingQuery               `json:"shipping_query,omitempty"`
	PreCheckoutQuery     *PreCheckoutQuery            `json:"pre_checkout_query,omitempty"`
	Poll                 *Poll                        `json:"poll,omitempty"`
	PollAnswer           *PollAnswer                  `json:"poll_answer,omitempty"`
	MyChatMember         *ChatMemberUpdated           `json:"my_chat_member,omitempty"`
	ChatMember           *ChatMemberUpdated           `json:"chat_member,omitempty"`
	ChatJoinRequest      *ChatJoinRequest             `json:"chat_join_request,omitempty"`
	MessageReaction      *MessageReactionUpdated      `json:"message_reaction,omitempty"`
	MessageReactionCount *MessageReactionCountUpdated `json:"message_reaction_count,omitempty"`
	ChatBoost            *ChatBoostUpdated            `json:"chat_boost,omitempty"`
	RemovedChatBoost     *ChatBoostRemoved            `json:"removed_chat_boost,omitempty"`
}

// Kind reports which variant is populated. The checks are exhaustive over
// the variants above; an update carrying none of them (a newer API field
// this library does not know) reports KindUnknown and is still dispatchable
// through kind-agnostic filters.
func (u *Update) Kind() UpdateKind {
	switch {
	case u.Message != nil:
		return KindMessage
	case u.EditedMessage != nil:
		return KindEditedMessage
	case u.ChannelPost != nil:
		return KindChannelPost
	case u.EditedChannelPost != nil:
		return KindEditedChannelPost
	case u.InlineQuery != nil:
		return KindInlineQuery
	case u.ChosenInlineResult != nil:
		return KindChosenInlineResult
	case u.CallbackQuery != nil:
		return KindCallbackQuery
	case u.ShippingQuery != nil:
		return KindShippingQuery
	case u.PreCheckoutQuery != nil:
		return KindPreCheckoutQuery
	case u.Poll != nil:
		return KindPoll
	case u.PollAnswer != nil:
		return KindPollAnswer
	case u.MyChatMember != nil:
		return KindMyChatMember
	case u.ChatMember != nil:
		return KindChatMember
	case u.ChatJoinRequest != nil:
		return KindChatJoinRequest
	case u.MessageReaction != nil:
		return KindMessageReaction
	case u.MessageReactionCount != nil:
		return KindMessageReactionCount
	case u.ChatBoost != nil:
		return KindChatBoost
	case u.RemovedChatBoost != nil:
		return KindRemovedChatBoost
	}
	return KindUnknown
}

const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSuperGroup = "supergroup"
	ChatChannel    = "channel"
)

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsForum   bool   `json:"is_forum,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Message struct {
	ID              int             `json:"message_id"`
	ThreadID        int             `json:"message_thread_id,omitempty"`
	From            *User           `json:"from,omitempty"`
	SenderChat      *Chat           `json:"sender_chat,omitempty"`
	Date            int64           `json:"date"`
	Chat            *Chat           `json:"chat"`
	IsTopicMessage  bool            `json:"is_topic_message,omitempty"`
	ReplyToMessage  *Message        `json:"reply_to_message,omitempty"`
	EditDate        int64           `json:"edit_date,omitempty"`
	MediaGroupID    string          `json:"media_group_id,omitempty"`
	Text            string          `json:"text,omitempty"`
	Entities        []MessageEntity `json:"entities,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
	Photo           []PhotoSize     `json:"photo,omitempty"`
	Document        *Document       `json:"document,omitempty"`
	NewChatMembers  []User          `json:"new_chat_members,omitempty"`
	LeftChatMember  *User           `json:"left_chat_member,omitempty"`
}

// Content returns the message text, falling back to the media caption.
func (m *Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
	User   *User  `json:"user,omitempty"`
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type CallbackQuery struct {
	ID              string   `json:"id"`
	From            *User    `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance"`
	Data            string   `json:"data,omitempty"`
}

type InlineQuery struct {
	ID       string `json:"id"`
	From     *User  `json:"from"`
	Query    string `json:"query"`
	Offset   string `json:"offset"`
	ChatType string `json:"chat_type,omitempty"`
}

type ChosenInlineResult struct {
	ResultID        string `json:"result_id"`
	From            *User  `json:"from"`
	InlineMessageID string `json:"inline_message_id,omitempty"`
	Query           string `json:"query"`
}

type ShippingQuery struct {
	ID             string `json:"id"`
	From           *User  `json:"from"`
	InvoicePayload string `json:"invoice_payload"`
}

type PreCheckoutQuery struct {
	ID             string `json:"id"`
	From           *User  `json:"from"`
	Currency       string `json:"currency"`
	TotalAmount    int    `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

type Poll struct {
	ID                    string       `json:"id"`
	Question              string       `json:"question"`
	Options               []PollOption `json:"options"`
	TotalVoterCount       int          `json:"total_voter_count"`
	IsClosed              bool         `json:"is_closed"`
	IsAnonymous           bool         `json:"is_anonymous"`
	Type                  string       `json:"type"`
	AllowsMultipleAnswers bool         `json:"allows_multiple_answers"`
}

type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
}

type PollAnswer struct {
	PollID    string `json:"poll_id"`
	VoterChat *Chat  `json:"voter_chat,omitempty"`
	User      *User  `json:"user,omitempty"`
	OptionIDs []int  `json:"option_ids"`
}

type ChatMemberUpdated struct {
	Chat          *Chat      `json:"chat"`
	From          *User      `json:"from"`
	Date          int64      `json:"date"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

type ChatMember struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
}

type ChatJoinRequest struct {
	Chat       *Chat  `json:"chat"`
	From       *User  `json:"from"`
	UserChatID int64  `json:"user_chat_id"`
	Date       int64  `json:"date"`
	Bio        string `json:"bio,omitempty"`
}

type MessageReactionUpdated struct {
	Chat        *Chat          `json:"chat"`
	MessageID   int            `json:"message_id"`
	User        *User          `json:"user,omitempty"`
	ActorChat   *Chat          `json:"actor_chat,omitempty"`
	Date        int64          `json:"date"`
	OldReaction []ReactionType `json:"old_reaction"`
	NewReaction []ReactionType `json:"new_reaction"`
}

type MessageReactionCountUpdated struct {
	Chat      *Chat           `json:"chat"`
	MessageID int             `json:"message_id"`
	Date      int64           `json:"date"`
	Reactions []ReactionCount `json:"reactions"`
}

type ReactionType struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

// ReactionEmoji builds the common emoji reaction variant.
func ReactionEmoji(emoji string) ReactionType {
	return ReactionType{Type: "emoji", Emoji: emoji}
}

type ReactionCount struct {
	Type       ReactionType `json:"type"`
	TotalCount int          `json:"total_count"`
}

type ChatBoostUpdated struct {
	Chat  *Chat     `json:"chat"`
	Boost ChatBoost `json:"boost"`
}

type ChatBoostRemoved struct {
	Chat       *Chat           `json:"chat"`
	BoostID    string          `json:"boost_id"`
	RemoveDate int64           `json:"remove_date"`
	Source     ChatBoostSource `json:"source"`
}

type ChatBoost struct {
	BoostID        string          `json:"boost_id"`
	AddDate        int64           `json:"add_date"`
	ExpirationDate int64           `json:"expiration_date"`
	Source         ChatBoostSource `json:"source"`
}

type ChatBoostSource struct {
	Source string `json:"source"`
	User   *User  `json:"user,omitempty"`
}

type ForumTopic struct {
	MessageThreadID int    `json:"message_thread_id"`
	Name            string `json:"name"`
	IconColor       int    `json:"icon_color"`
}

type ChatPermissions struct {
	CanSendMessages       bool `json:"can_send_messages"`
	CanSendPhotos         bool `json:"can_send_photos"`
	CanSendDocuments      bool `json:"can_send_documents"`
	CanSendOtherMessages  bool `json:"can_send_other_messages"`
	CanAddWebPagePreviews bool `json:"can_add_web_page_previews"`
	CanInviteUsers        bool `json:"can_invite_users"`
	CanPinMessages        bool `json:"can_pin_messages"`
	CanManageTopics       bool `json:"can_manage_topics"`
}
