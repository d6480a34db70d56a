package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-engine/internal/quiz"
	"github.com/gokatarajesh/quiz-engine/internal/quiz/timer"
)

const sampleQuiz = "1. (1 point)\nCapital of France?\nA. Berlin\nB. Paris\nC. Rome\nD. Madrid\nAnswer: B\n\n" +
	"2. (2 points)\n2 + 2?\nA. 3\nB. 5\nC. 4\nD. 22\nAnswer: C\n"

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *quiz.Engine) {
	t.Helper()
	logger := zerolog.Nop()
	scheduler := timer.NewScheduler(timer.Options{}, logger)
	store := quiz.NewStore(scheduler, nil, logger)
	notifiers := &quiz.Notifiers{}
	engine := quiz.NewEngine(store, scheduler, nil, nil, notifiers, quiz.EngineOptions{}, logger)
	t.Cleanup(engine.Close)

	api := newFakeAPI()
	bot := newBot(api, time.Second, engine, logger)
	notifiers.Add(bot)
	return bot, api, engine
}

func message(userID, chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(userID, chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestUserIDIsDeterministic(t *testing.T) {
	assert.Equal(t, UserID(42), UserID(42))
	assert.NotEqual(t, UserID(42), UserID(43))
	assert.Equal(t, uuid.Version(5), UserID(42).Version())
}

func TestParseCallback(t *testing.T) {
	index, choice, ok := parseCallback("answer:2:C")
	assert.True(t, ok)
	assert.Equal(t, 2, index)
	assert.Equal(t, "C", choice)

	for _, data := range []string{"answer:", "answer:C", "answer:x:C", "answer:-1:C", "answer:0:", "vote:0:A"} {
		_, _, ok = parseCallback(data)
		assert.False(t, ok, data)
	}
}

func TestAnswerKeyboard(t *testing.T) {
	kb := answerKeyboard(2)
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 4)
	for i, l := range quiz.Letters {
		assert.Equal(t, l, row[i].Text)
		require.NotNil(t, row[i].CallbackData)
		assert.Equal(t, "answer:2:"+l, *row[i].CallbackData)
	}
}

func TestQuizFlowOverCallbacks(t *testing.T) {
	bot, api, engine := newTestBot(t)
	ctx := context.Background()

	bot.handleUpdate(ctx, message(7, 100, sampleQuiz))
	require.True(t, engine.IsActive(UserID(7)))
	first := api.last()
	assert.Equal(t, int64(100), first.ChatID)
	assert.Contains(t, first.Text, "Capital of France?")
	assert.NotNil(t, first.ReplyMarkup)

	bot.handleUpdate(ctx, callback(7, 100, "answer:0:B"))
	assert.Len(t, api.requests, 1, "callback is acknowledged")
	assert.Contains(t, api.last().Text, "2 + 2?")

	// typed answers work too
	bot.handleUpdate(ctx, message(7, 100, "a"))
	assert.Contains(t, api.last().Text, "1 out of 3")
	assert.False(t, engine.IsActive(UserID(7)))
}

func TestCommands(t *testing.T) {
	bot, api, engine := newTestBot(t)
	ctx := context.Background()

	bot.handleUpdate(ctx, message(1, 10, "/help"))
	assert.Equal(t, helpText, api.last().Text)

	bot.handleUpdate(ctx, message(1, 10, "/quiz"))
	assert.Equal(t, "Usage: /quiz <topic>", api.last().Text)

	bot.handleUpdate(ctx, message(1, 10, "/quiz space"))
	assert.Equal(t, quiz.UserMessage(quiz.ErrNoQuestionSource), api.last().Text)

	bot.handleUpdate(ctx, message(1, 10, "/stop"))
	assert.Equal(t, quiz.UserMessage(quiz.ErrNoActiveSession), api.last().Text)

	bot.handleUpdate(ctx, message(1, 10, sampleQuiz))
	require.True(t, engine.IsActive(UserID(1)))
	bot.handleUpdate(ctx, message(1, 10, "/stop"))
	assert.Equal(t, "Test stopped.", api.last().Text)
	assert.False(t, engine.IsActive(UserID(1)))

	bot.handleUpdate(ctx, message(1, 10, "/dance"))
	assert.Equal(t, quiz.UserMessage(quiz.ErrUnrecognizedAction), api.last().Text)
}

func TestUnparseableText(t *testing.T) {
	bot, api, engine := newTestBot(t)
	ctx := context.Background()

	bot.handleUpdate(ctx, message(2, 20, "hello there"))
	assert.Equal(t, quiz.UserMessage(quiz.ErrParseEmpty), api.last().Text)

	bot.handleUpdate(ctx, message(2, 20, sampleQuiz))
	bot.handleUpdate(ctx, message(2, 20, "what is this"))
	assert.Equal(t, quiz.UserMessage(quiz.ErrUnrecognizedAction), api.last().Text)
	assert.True(t, engine.IsActive(UserID(2)), "session survives bad input")

	bot.handleUpdate(ctx, callback(2, 20, "bogus"))
	assert.Equal(t, quiz.UserMessage(quiz.ErrUnrecognizedAction), api.last().Text)
}

func TestNotifyOnlyKnownChats(t *testing.T) {
	bot, api, _ := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, bot.Notify(ctx, uuid.New(), quiz.Event{Kind: quiz.EventFeedback, Feedback: &quiz.Feedback{Text: "x"}}))
	assert.Empty(t, api.texts())

	bot.handleUpdate(ctx, message(3, 30, "/start"))
	require.NoError(t, bot.Notify(ctx, UserID(3), quiz.Event{Kind: quiz.EventFeedback, Feedback: &quiz.Feedback{Text: "Time is up"}}))
	assert.Equal(t, "Time is up", api.last().Text)
}

func TestRunStopsOnCancel(t *testing.T) {
	bot, api, engine := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- message(5, 50, sampleQuiz)
	require.Eventually(t, func() bool { return engine.IsActive(UserID(5)) }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}

func TestLateButtonPressIsNotScoredOnNextQuestion(t *testing.T) {
	bot, api, engine := newTestBot(t)
	ctx := context.Background()
	userID := UserID(9)

	bot.handleUpdate(ctx, message(9, 90, sampleQuiz))
	bot.handleUpdate(ctx, callback(9, 90, "answer:0:B"))
	require.Contains(t, api.last().Text, "2 + 2?")

	// a second press on the first question's keyboard
	bot.handleUpdate(ctx, callback(9, 90, "answer:0:C"))
	assert.Contains(t, api.last().Text, "already answered")
	status, ok := engine.Status(userID)
	require.True(t, ok)
	assert.Equal(t, 1, status.Index)
	assert.False(t, status.Resolved)
	assert.Equal(t, 1, status.Score)

	bot.handleUpdate(ctx, callback(9, 90, "answer:1:C"))
	assert.Contains(t, api.last().Text, "3 out of 3")
	assert.False(t, engine.IsActive(userID))
}
