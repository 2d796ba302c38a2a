package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempmail/bot/internal/domain"
	"tempmail/bot/internal/monitoring"
	"tempmail/bot/internal/session"
	"tempmail/bot/internal/tmclient"
)

// fakeSender 捕获出站消息，替代真实的 Telegram API
type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// sentTexts 提取所有已发送消息的文本
func (f *fakeSender) sentTexts() []string {
	texts := make([]string, 0, len(f.sent))
	for _, c := range f.sent {
		switch msg := c.(type) {
		case tgbotapi.MessageConfig:
			texts = append(texts, msg.Text)
		case tgbotapi.EditMessageTextConfig:
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// lastText 返回最后一条已发送消息的文本
func (f *fakeSender) lastText() string {
	texts := f.sentTexts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func newTestBot(apiURL string) (*Bot, *fakeSender) {
	sender := &fakeSender{}
	b := &Bot{
		sender:   sender,
		client:   tmclient.NewClient(apiURL, 5*time.Second, zap.NewNop()),
		sessions: session.NewStore(10, time.Minute),
		metrics:  monitoring.NewMetrics(),
		logger:   zap.NewNop(),
		apiURL:   apiURL,
		now:      func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return b, sender
}

func TestCheckWithoutSessions(t *testing.T) {
	// No network call may happen on this path
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	b.check(context.Background(), 1, 42, "")

	require.Len(t, sender.sentTexts(), 1)
	assert.Equal(t, msgNoActiveEmails, sender.lastText())
	assert.Zero(t, hits.Load())
	assert.Zero(t, b.sessions.Len())
}

func TestCheckUnknownEmail(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)
	b.sessions.Put(42, &session.Record{Email: "known@x.com", Token: "tok", Kind: domain.KindRegular, CreatedAt: time.Now()})

	b.check(context.Background(), 1, 42, "other@x.com")

	assert.Equal(t, msgEmailNotFound, sender.lastText())
	assert.Zero(t, hits.Load())
}

func TestGenerateStoresSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/gen", r.URL.Path)
		w.Write([]byte(`{"temp_mail":"a@b.com","access_token":"tok1"}`))
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	b.generate(context.Background(), 1, 42, domain.KindRegular)

	record, ok := b.sessions.Get(42, "a@b.com")
	require.True(t, ok)
	assert.Equal(t, "tok1", record.Token)
	assert.Equal(t, domain.KindRegular, record.Kind)
	assert.Equal(t, b.now(), record.CreatedAt)

	// The reply carries both the address and the token verbatim
	reply := sender.lastText()
	assert.Contains(t, reply, "a@b.com")
	assert.Contains(t, reply, "tok1")
}

func TestGenerateEduUsesEduField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/edu/gen", r.URL.Path)
		w.Write([]byte(`{"edu_mail":"s@uni.edu","access_token":"tok2"}`))
	}))
	defer server.Close()

	b, _ := newTestBot(server.URL)

	b.generate(context.Background(), 1, 42, domain.KindEdu)

	record, ok := b.sessions.Get(42, "s@uni.edu")
	require.True(t, ok)
	assert.Equal(t, "tok2", record.Token)
	assert.Equal(t, domain.KindEdu, record.Kind)
}

func TestGenerateAPIErrorSurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	b.generate(context.Background(), 1, 42, domain.KindRegular)

	assert.Equal(t, "❌ Error: API request failed with status 500", sender.lastText())
	assert.Zero(t, b.sessions.Len())
}

func TestGenerateMissingTokenNotStored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temp_mail":"a@b.com"}`))
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	b.generate(context.Background(), 1, 42, domain.KindRegular)

	assert.Zero(t, b.sessions.Len())
	assert.Contains(t, sender.lastText(), "❌ Error:")
}

func TestCheckUsesStoredKindEndpoint(t *testing.T) {
	var gotPath, gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		w.Write([]byte(`{"mailbox":"c@d.com","messages":[{"from":"x@y.com","subject":"hi","body":"hello"}]}`))
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)
	b.sessions.Put(42, &session.Record{Email: "c@d.com", Token: "tok10", Kind: domain.KindTenMinute, CreatedAt: time.Now()})

	b.check(context.Background(), 1, 42, "c@d.com")

	// The endpoint must match the stored kind, never another kind's path
	assert.Equal(t, "/api/10min/chk", gotPath)
	assert.Equal(t, "tok10", gotToken)
	assert.Contains(t, sender.lastText(), "x@y.com")
}

func TestCheckEmptyInboxPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mailbox":"c@d.com","messages":[]}`))
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)
	b.sessions.Put(42, &session.Record{Email: "c@d.com", Token: "tok", Kind: domain.KindRegular, CreatedAt: time.Now()})

	b.check(context.Background(), 1, 42, "c@d.com")

	assert.Contains(t, sender.lastText(), "*No messages found*")
}

func TestCheckListDoesNotCallAPI(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)
	b.sessions.Put(42, &session.Record{Email: "a@x.com", Token: "t1", Kind: domain.KindRegular, CreatedAt: time.Now()})
	b.sessions.Put(42, &session.Record{Email: "b@x.com", Token: "t2", Kind: domain.KindEdu, CreatedAt: time.Now()})

	b.check(context.Background(), 1, 42, "")

	assert.Zero(t, hits.Load())
	text := sender.lastText()
	assert.Contains(t, text, "*Your Active Emails:*")
	assert.Contains(t, text, "`a@x.com`")
	assert.Contains(t, text, "`b@x.com`")
}

func TestHandleUpdateRoutesCallback(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"temp_mail":"t@x.com","access_token":"tok"}`))
	}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb1",
			From:    &tgbotapi.User{ID: 42},
			Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 1}},
			Data:    "gen_10min",
		},
	}
	b.handleUpdate(context.Background(), update)

	assert.Equal(t, "/api/10min/gen", gotPath)
	// Every callback is acknowledged
	require.NotEmpty(t, sender.requests)
	_, isCallback := sender.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, isCallback)

	_, ok := b.sessions.Get(42, "t@x.com")
	assert.True(t, ok)
}

func TestHandleUpdateRoutesCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	text := "/check"
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 42, FirstName: "Tester"},
			Chat:      &tgbotapi.Chat{ID: 1},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	}
	b.handleUpdate(context.Background(), update)

	assert.Equal(t, msgNoActiveEmails, sender.lastText())
}

func TestCopyCallbackEditsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	b, sender := newTestBot(server.URL)

	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb2",
			From:    &tgbotapi.User{ID: 42},
			Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 1}},
			Data:    "copy_a@b.com",
		},
	}
	b.handleUpdate(context.Background(), update)

	require.NotEmpty(t, sender.sent)
	edit, ok := sender.sent[len(sender.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 9, edit.MessageID)
	assert.Contains(t, edit.Text, "`a@b.com`")
}
