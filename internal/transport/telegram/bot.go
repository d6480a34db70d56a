package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-engine/internal/quiz"
)

const (
	callbackPrefix = "answer:"

	helpText = "Send me a quiz as text and I will run it as a timed test.\n" +
		"Each question looks like:\n\n" +
		"1. (2 points) Question text\nA. ...\nB. ...\nC. ...\nD. ...\nAnswer: B\n\n" +
		"/quiz <topic> generates a test, /stop ends the current one."
)

// userNamespace scopes the ids derived from Telegram user ids.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://t.me/quiz-engine/users"))

// UserID maps a Telegram user id onto the engine's user id space.
func UserID(telegramID int64) uuid.UUID {
	return uuid.NewSHA1(userNamespace, []byte(strconv.FormatInt(telegramID, 10)))
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot runs quizzes over Telegram: questions are sent with inline A-D
// buttons and button clicks are fed to the engine as answers.
type Bot struct {
	api     botAPI
	engine  *quiz.Engine
	timeout time.Duration
	logger  zerolog.Logger

	chats sync.Map // uuid.UUID -> int64 chat id
}

var _ quiz.Notifier = (*Bot)(nil)

// New connects to the Bot API with token.
func New(token string, debug bool, timeout time.Duration, engine *quiz.Engine, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	api.Debug = debug
	logger.Info().Str("account", api.Self.UserName).Msg("telegram bot authorised")
	return newBot(api, timeout, engine, logger), nil
}

func newBot(api botAPI, timeout time.Duration, engine *quiz.Engine, logger zerolog.Logger) *Bot {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Bot{
		api:     api,
		engine:  engine,
		timeout: timeout,
		logger:  logger.With().Str("component", "telegram_bot").Logger(),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.timeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Notify delivers timeout-driven events to users who play over Telegram.
func (b *Bot) Notify(ctx context.Context, userID uuid.UUID, ev quiz.Event) error {
	v, ok := b.chats.Load(userID)
	if !ok {
		return nil
	}
	chatID := v.(int64)

	switch ev.Kind {
	case quiz.EventFeedback:
		return b.sendText(chatID, ev.Feedback.Text)
	case quiz.EventQuestion:
		return b.sendPrompt(chatID, *ev.Prompt)
	case quiz.EventResult:
		return b.sendText(chatID, ev.Result.Text())
	default:
		return nil
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := UserID(msg.From.ID)
	b.chats.Store(userID, chatID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, helpText)
		case "quiz":
			topic := strings.TrimSpace(msg.CommandArguments())
			if topic == "" {
				b.reply(chatID, "Usage: /quiz <topic>")
				return
			}
			b.reply(chatID, "Preparing a test about "+topic+"...")
			prompt, err := b.engine.StartTopic(ctx, userID, topic)
			b.replyStart(chatID, userID, prompt, err)
		case "stop":
			if b.engine.Cancel(ctx, userID) {
				b.reply(chatID, "Test stopped.")
			} else {
				b.reply(chatID, quiz.UserMessage(quiz.ErrNoActiveSession))
			}
		default:
			b.reply(chatID, quiz.UserMessage(quiz.ErrUnrecognizedAction))
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	// short replies during a test are typed answers
	if b.engine.IsActive(userID) && len(text) <= 3 {
		b.answer(ctx, chatID, userID, quiz.CurrentQuestion, text)
		return
	}

	prompt, err := b.engine.Start(ctx, userID, text)
	if errors.Is(err, quiz.ErrParseEmpty) && b.engine.IsActive(userID) {
		err = quiz.ErrUnrecognizedAction
	}
	b.replyStart(chatID, userID, prompt, err)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn().Err(err).Msg("callback ack failed")
	}
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	userID := UserID(cb.From.ID)
	b.chats.Store(userID, chatID)

	index, choice, ok := parseCallback(cb.Data)
	if !ok {
		b.reply(chatID, quiz.UserMessage(quiz.ErrUnrecognizedAction))
		return
	}
	b.answer(ctx, chatID, userID, index, choice)
}

// answer resolves the question at index. Buttons carry the index of the
// prompt they were sent under; typed replies use the current question.
func (b *Bot) answer(ctx context.Context, chatID int64, userID uuid.UUID, index int, choice string) {
	fb, err := b.engine.AnswerAt(ctx, userID, index, choice)
	if err != nil {
		b.reply(chatID, quiz.UserMessage(err))
		return
	}
	b.reply(chatID, fb.Text)
	if fb.Outcome == quiz.OutcomeStale {
		return
	}

	step, err := b.engine.Advance(ctx, userID)
	if err != nil {
		// the expiry path got there first
		if !errors.Is(err, quiz.ErrNoActiveSession) {
			b.reply(chatID, quiz.UserMessage(err))
		}
		return
	}
	if step.Done() {
		b.reply(chatID, step.Result.Text())
		return
	}
	if err := b.sendPrompt(chatID, *step.Prompt); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send question failed")
	}
}

func (b *Bot) replyStart(chatID int64, userID uuid.UUID, prompt quiz.Prompt, err error) {
	if err != nil {
		b.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("start quiz failed")
		b.reply(chatID, quiz.UserMessage(err))
		return
	}
	if err := b.sendPrompt(chatID, prompt); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send question failed")
	}
}

func (b *Bot) sendPrompt(chatID int64, p quiz.Prompt) error {
	msg := tgbotapi.NewMessage(chatID, p.Text)
	msg.ReplyMarkup = answerKeyboard(p.Index)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.sendText(chatID, text); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

// answerKeyboard builds the A-D buttons for the question at index. Callback
// data is "answer:<index>:<letter>".
func answerKeyboard(index int) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(quiz.Letters))
	for _, l := range quiz.Letters {
		data := callbackPrefix + strconv.Itoa(index) + ":" + l
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(l, data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func parseCallback(data string) (index int, choice string, ok bool) {
	rest, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok {
		return 0, "", false
	}
	rawIndex, choice, ok := strings.Cut(rest, ":")
	if !ok || choice == "" {
		return 0, "", false
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, choice, true
}
