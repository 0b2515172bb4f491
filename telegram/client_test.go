// Copyright (c) 2025 tgram-dev

package telegram

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)

	_, err = NewClient(ClientConfig{Token: "   "})
	require.Error(t, err)
}

func TestGetMeDecodesResult(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, me.ID)
	assert.Equal(t, "testbot", me.Username)
	assert.Equal(t, 1, f.count("getMe"))
}

func TestMeIsCached(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})

	require.NotNil(t, c.Me())
	require.NotNil(t, c.Me())
	assert.Equal(t, 1, f.count("getMe"), "identity is fetched once")
}

func TestInvokeRejection(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})
	f.on("getMe", func(w http.ResponseWriter, _ map[string]any) {
		f.reject(w, 401, "Unauthorized", 0)
	})

	_, err := c.GetMe(context.Background())
	require.Error(t, err)

	assert.True(t, IsRejected(err))
	assert.Equal(t, 401, RejectionCode(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "getMe", apiErr.Method)
	assert.Equal(t, "Unauthorized", apiErr.Description)
	assert.Contains(t, apiErr.Error(), "Unauthorized")
}

func TestInvokeRejectionCarriesRetryAfter(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})
	f.on("sendMessage", func(w http.ResponseWriter, _ map[string]any) {
		f.reject(w, 429, "Too Many Requests: retry after 3", 3)
	})

	_, err := c.SendMessage(context.Background(), 10, "hi", nil)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, apiErr.RetryAfter)
	assert.Equal(t, 3*time.Second, retryAfter(err))
}

func TestInvokeTransportFailureIsNotARejection(t *testing.T) {
	f := newFakeAPI(t)
	c, err := NewClient(ClientConfig{Token: "42:test", APIURL: f.srv.URL, LogLevel: "disable"})
	require.NoError(t, err)
	f.srv.Close()

	_, err = c.GetMe(context.Background())
	require.Error(t, err)
	assert.False(t, IsRejected(err))
	assert.Zero(t, RejectionCode(err))
	assert.Zero(t, retryAfter(err))
}

func TestInvokeNonJSONBodyIsTransportFailure(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})
	f.on("getMe", func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := c.GetMe(context.Background())
	require.Error(t, err)
	assert.False(t, IsRejected(err))
}

func TestSendMessageValidation(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})

	_, err := c.SendMessage(context.Background(), 0, "hi", nil)
	assert.ErrorIs(t, err, ErrNoChat)

	_, err = c.SendMessage(context.Background(), 10, "", nil)
	assert.Error(t, err)

	assert.Zero(t, f.totalCalls())
}

func TestSendMessageAppliesDefaultParseMode(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{ParseMode: "HTML"})

	_, err := c.SendMessage(context.Background(), 10, "<b>hi</b>", nil)
	require.NoError(t, err)
	assert.Equal(t, "HTML", f.lastBody("sendMessage")["parse_mode"])

	_, err = c.SendMessage(context.Background(), 10, "*hi*", &SendOptions{ParseMode: "MarkdownV2"})
	require.NoError(t, err)
	assert.Equal(t, "MarkdownV2", f.lastBody("sendMessage")["parse_mode"], "per-call mode overrides the default")
}

func TestGetUpdatesSendsCursor(t *testing.T) {
	c, f := newTestClient(t, ClientConfig{})

	_, err := c.GetUpdates(context.Background(), &UpdatesRequest{Offset: 123, Limit: 50, Timeout: 25})
	require.NoError(t, err)

	body := f.lastBody("getUpdates")
	require.NotNil(t, body)
	assert.EqualValues(t, 123, body["offset"])
	assert.EqualValues(t, 50, body["limit"])
	assert.EqualValues(t, 25, body["timeout"])
}

func TestStopWithoutFetcherIsSafe(t *testing.T) {
	c, _ := newTestClient(t, ClientConfig{})
	c.Stop()
}
