// Copyright (c) 2025 tgram-dev

package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, u *Update) *Context {
	c, _ := newTestClient(t, ClientConfig{})
	return c.NewContext(context.Background(), u)
}

func TestAndEmptyMatchesEverything(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hi"))
	assert.True(t, And()(ctx))
}

func TestOrEmptyMatchesNothing(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hi"))
	assert.False(t, Or()(ctx))
}

func TestNotInverts(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hi"))
	assert.False(t, Not(Any())(ctx))
	assert.True(t, Not(Not(Any()))(ctx))
}

func TestAndShortCircuits(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hi"))

	called := false
	probe := func(*Context) bool { called = true; return true }

	assert.False(t, And(Not(Any()), probe)(ctx))
	assert.False(t, called, "second filter must not run after a false")
}

func TestOrShortCircuits(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hi"))

	called := false
	probe := func(*Context) bool { called = true; return true }

	assert.True(t, Or(Any(), probe)(ctx))
	assert.False(t, called, "second filter must not run after a true")
}

func TestOnKind(t *testing.T) {
	msg := testContext(t, textUpdate(1, 10, 20, "hi"))
	edited := testContext(t, &Update{UpdateID: 2, EditedMessage: &Message{ID: 2, Chat: &Chat{ID: 10, Type: ChatPrivate}, Text: "fix"}})

	assert.True(t, OnMessage(msg))
	assert.False(t, OnMessage(edited))
	assert.True(t, OnEdited(edited))
	assert.True(t, OnKind(KindMessage, KindEditedMessage)(edited))
}

func TestChatType(t *testing.T) {
	private := testContext(t, textUpdate(1, 10, 20, "hi"))
	group := testContext(t, &Update{UpdateID: 2, Message: &Message{ID: 2, Chat: &Chat{ID: -100, Type: ChatSuperGroup}, Text: "hi"}})
	inline := testContext(t, &Update{UpdateID: 3, InlineQuery: &InlineQuery{ID: "q", From: &User{ID: 20}}})

	assert.True(t, ChatType(ChatPrivate)(private))
	assert.False(t, ChatType(ChatPrivate)(group))
	assert.True(t, ChatType(ChatGroup, ChatSuperGroup)(group))
	assert.False(t, ChatType(ChatPrivate)(inline), "no chat resolves for inline queries")
}

func TestTextFilters(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hello world"))
	empty := testContext(t, &Update{UpdateID: 2, Message: &Message{ID: 2, Chat: &Chat{ID: 10, Type: ChatPrivate}}})

	assert.True(t, HasText()(ctx))
	assert.False(t, HasText()(empty))
	assert.True(t, TextEqual("hello world")(ctx))
	assert.False(t, TextEqual("hello")(ctx))
	assert.True(t, TextPrefix("hello")(ctx))
	assert.False(t, TextPrefix("world")(ctx))
	assert.False(t, TextPrefix("")(ctx))
}

func TestTextFiltersFallBackToCaption(t *testing.T) {
	ctx := testContext(t, &Update{UpdateID: 1, Message: &Message{
		ID:      1,
		Chat:    &Chat{ID: 10, Type: ChatPrivate},
		Photo:   []PhotoSize{{FileID: "f"}},
		Caption: "a caption",
	}})
	assert.True(t, TextEqual("a caption")(ctx))
}

func TestRegexCapturesGroups(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "order 42 please"))

	f := Regex(`order (\d+)`)
	require.True(t, f(ctx))

	m := ctx.Match()
	require.NotNil(t, m)
	assert.Equal(t, `order (\d+)`, m.Pattern)
	assert.Equal(t, []string{"order 42", "42"}, m.Groups)
}

func TestRegexNoMatchLeavesContextAlone(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "nothing here"))

	require.False(t, Regex(`order (\d+)`)(ctx))
	assert.Nil(t, ctx.Match())
}

func TestFromUsersAndInChats(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "hi"))

	assert.True(t, FromUsers(20)(ctx))
	assert.False(t, FromUsers(21)(ctx))
	assert.True(t, InChats(9, 10)(ctx))
	assert.False(t, InChats(11)(ctx))
}

func TestCommand(t *testing.T) {
	c, _ := newTestClient(t, ClientConfig{})

	cases := []struct {
		text  string
		match bool
		args  []string
	}{
		{"/start", true, []string{}},
		{"/start now please", true, []string{"now", "please"}},
		{"/START", true, []string{}},
		{"/started", false, nil},
		{"start", false, nil},
		{"say /start", false, nil},
		{"", false, nil},
	}

	f := Command("start")
	for _, tc := range cases {
		ctx := c.NewContext(context.Background(), textUpdate(1, 10, 20, tc.text))
		got := f(ctx)
		assert.Equal(t, tc.match, got, "text %q", tc.text)
		if tc.match {
			m := ctx.Match()
			require.NotNil(t, m, "text %q", tc.text)
			assert.Equal(t, "start", m.Command)
			assert.ElementsMatch(t, tc.args, m.Args)
		}
	}
}

func TestCommandAcceptsLeadingSlashInName(t *testing.T) {
	ctx := testContext(t, textUpdate(1, 10, 20, "/help"))
	assert.True(t, Command("/help")(ctx))
}

func TestCommandBotMentionScoping(t *testing.T) {
	c, _ := newTestClient(t, ClientConfig{})
	require.NotNil(t, c.Me(), "bot identity must resolve against the fake")

	f := Command("start")

	own := c.NewContext(context.Background(), textUpdate(1, 10, 20, "/start@testbot"))
	assert.True(t, f(own), "command addressed to this bot must match")

	ownCased := c.NewContext(context.Background(), textUpdate(2, 10, 20, "/start@TestBot"))
	assert.True(t, f(ownCased), "mention comparison is case-insensitive")

	other := c.NewContext(context.Background(), textUpdate(3, 10, 20, "/start@otherbot"))
	assert.False(t, f(other), "command addressed to another bot must not match")

	bare := c.NewContext(context.Background(), textUpdate(4, 10, 20, "/start@"))
	assert.False(t, f(bare), "empty mention must not match")
}

func TestCommandMentionWithoutIdentityDoesNotMatch(t *testing.T) {
	// Identity never fetched: @-addressed commands cannot be scoped, so they
	// are rejected rather than risking a cross-bot reply.
	ctx := testContext(t, textUpdate(1, 10, 20, "/start@testbot"))
	assert.False(t, Command("start")(ctx))
}
