// Package telegram adapts raw Telegram updates into the normalized events
// the conversation engine consumes, and renders the engine's effects back
// into messages and inline keyboards.
//
// Callback data formats: "start_test", "ans:<questionID>:<optionKey>",
// "rev:<choiceKey>", "post_offer:yes".
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/apexsystem/stagebot/internal/conversation"
	"github.com/apexsystem/stagebot/internal/texts"
)

// Bot runs the long-polling loop and dispatches updates to the engine.
type Bot struct {
	api         *tgbotapi.BotAPI
	engine      *conversation.Engine
	adminChatID int64
	offerDelay  time.Duration

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New connects to the Bot API. adminChatID of 0 disables admin summaries.
func New(token string, engine *conversation.Engine, adminChatID int64, offerDelay time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return &Bot{
		api:         api,
		engine:      engine,
		adminChatID: adminChatID,
		offerDelay:  offerDelay,
		locks:       make(map[int64]*sync.Mutex),
	}, nil
}

// Run polls for updates until ctx is canceled. Each update is handled on
// its own goroutine; the per-user lock serializes events for one user
// while keeping distinct users concurrent.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("telegram: authorized as @%s", b.api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.dispatch(ctx, update)
		}
	}
}

// dispatch routes one update. Handler errors are logged; the durable
// store is the only thing that can fail here, and its failure means the
// interaction must not be acknowledged as applied.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	unlock := b.lockUser(userID)
	defer unlock()

	var effects []conversation.Effect
	var err error

	if msg.IsCommand() && msg.Command() == "start" {
		fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		effects, err = b.engine.HandleStart(ctx, conversation.Profile{
			UserID:   userID,
			Username: msg.From.UserName,
			FullName: fullName,
		})
	} else {
		// Free text is only meaningful while the contact form waits for
		// a name; anything else is ignored by the engine.
		effects, err = b.engine.HandleContactName(ctx, userID, msg.Text)
	}

	if err != nil {
		log.Printf("telegram: handling message from %d: %v", userID, err)
		return
	}
	b.render(ctx, msg.Chat.ID, userID, effects)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	unlock := b.lockUser(userID)
	defer unlock()

	ack := tgbotapi.NewCallback(cq.ID, "")
	var effects []conversation.Effect
	var err error

	switch {
	case cq.Data == "start_test":
		effects, err = b.engine.HandleBeginTest(ctx, userID)
	case strings.HasPrefix(cq.Data, "ans:"):
		parts := strings.Split(cq.Data, ":")
		if len(parts) != 3 {
			break
		}
		effects, err = b.engine.HandleAnswer(ctx, userID, parts[1], parts[2])
	case strings.HasPrefix(cq.Data, "rev:"):
		effects, err = b.engine.HandleRevenue(ctx, userID, strings.TrimPrefix(cq.Data, "rev:"))
	case cq.Data == "post_offer:yes":
		effects, err = b.engine.HandleOfferAccepted(ctx, userID)
		if err == nil {
			ack = tgbotapi.NewCallback(cq.ID, texts.AcceptedToast)
		}
	}

	if _, ackErr := b.api.Request(ack); ackErr != nil {
		log.Printf("telegram: callback ack for %d: %v", userID, ackErr)
	}
	if err != nil {
		log.Printf("telegram: handling callback %q from %d: %v", cq.Data, userID, err)
		return
	}
	if cq.Message == nil {
		return
	}
	if cq.Data == "start_test" {
		b.send(cq.Message.Chat.ID, texts.TestStarted, nil)
	}
	b.render(ctx, cq.Message.Chat.ID, userID, effects)
}

// render sends the engine's effects in order.
func (b *Bot) render(ctx context.Context, chatID, userID int64, effects []conversation.Effect) {
	for _, effect := range effects {
		switch ef := effect.(type) {
		case conversation.ShowGreeting:
			kb := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(texts.StartButton, "start_test"),
				),
			)
			b.send(chatID, fmt.Sprintf("%s\n\n%s\n\n%s", texts.Greeting, texts.Duration, texts.Motivation), &kb)

		case conversation.AskQuestion:
			kb := questionKeyboard(ef)
			b.send(chatID, texts.Question(ef.Question, ef.Position, ef.Total), &kb)

		case conversation.AskContactName:
			b.send(chatID, fmt.Sprintf("%s\n\n%s", texts.ContactsIntro, texts.AskName), nil)

		case conversation.AskRevenue:
			kb := revenueKeyboard()
			b.send(chatID, texts.AskRevenue, &kb)

		case conversation.ShowResult:
			b.send(chatID, texts.Result(ef.Stage, ef.Result.SecondStage, ef.Result), nil)

		case conversation.NotifyAdmin:
			if b.adminChatID != 0 {
				summary := texts.AdminSummary(ef.Name, ef.Revenue, ef.OptedIn, ef.Stage, ef.Result.SecondStage, ef.Result, ef.Link)
				b.send(b.adminChatID, summary, nil)
			}

		case conversation.ScheduleOffer:
			b.scheduleOffer(chatID)

		case conversation.AcceptedAck:
			b.send(chatID, texts.AcceptedFollowUp, nil)
		}
	}
}

// scheduleOffer fires the deferred follow-up as a detached task. It holds
// no per-user lock, is never awaited, and swallows its own failures — if
// the user's status changes before it fires, it still fires.
func (b *Bot) scheduleOffer(chatID int64) {
	delay := b.offerDelay
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("telegram: deferred offer panicked: %v", r)
			}
		}()
		time.Sleep(delay)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(texts.OfferButton, "post_offer:yes"),
			),
		)
		b.send(chatID, texts.OfferMessage, &kb)
	}()
}

func (b *Bot) send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("telegram: send to %d: %v", chatID, err)
	}
}

// lockUser serializes event handling per user id.
func (b *Bot) lockUser(userID int64) func() {
	b.mu.Lock()
	l, ok := b.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[userID] = l
	}
	b.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func questionKeyboard(ef conversation.AskQuestion) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(ef.Question.Options))
	for _, opt := range ef.Question.Options {
		data := fmt.Sprintf("ans:%s:%s", ef.Question.ID, opt.Key)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Key, data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func revenueKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(conversation.RevenueChoices))
	for _, c := range conversation.RevenueChoices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Label, "rev:"+c.Key),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
