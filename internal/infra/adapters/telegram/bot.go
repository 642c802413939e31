package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/application"
	"telegram-pizza-shop/internal/domain/model"
)

// Dispatcher handles one normalized inbound event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev application.Event) error
}

// Bot polls updates and feeds normalized events into the dialogue machine.
// Workers are free-running; ordering per chat is guaranteed by the machine's
// per-chat lock, not by this adapter.
type Bot struct {
	bot     *tgbotapi.BotAPI
	machine Dispatcher
	workers int
	log     *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewBot(bot *tgbotapi.BotAPI, machine Dispatcher, workers int, logger *zerolog.Logger) *Bot {
	if workers <= 0 {
		workers = 5
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &Bot{
		bot:     bot,
		machine: machine,
		workers: workers,
		log:     &l,
	}
}

func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			b.worker(ctx, id, updateChan)
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

// worker drains updates until the feeder closes the channel. A closed
// channel would otherwise win the select race against ctx.Done and spin
// on zero-value updates.
func (b *Bot) worker(ctx context.Context, id int, updates <-chan tgbotapi.Update) {
	for up := range updates {
		ev, ok := toEvent(up)
		if !ok {
			continue
		}
		if err := b.machine.Dispatch(ctx, ev); err != nil {
			b.log.Error().Err(err).Int("worker", id).Int64("chat_id", ev.ChatID).Msg("dispatch failed")
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

// toEvent normalizes a raw update into a machine event. Updates the flow has
// no use for (edits, channel posts, joins) are dropped.
func toEvent(up tgbotapi.Update) (application.Event, bool) {
	switch {
	case up.PreCheckoutQuery != nil:
		q := up.PreCheckoutQuery
		return application.Event{
			Kind:           application.EventPreCheckout,
			ChatID:         q.From.ID,
			PreCheckoutID:  q.ID,
			InvoicePayload: q.InvoicePayload,
		}, true

	case up.Message != nil && up.Message.SuccessfulPayment != nil:
		msg := up.Message
		return application.Event{
			Kind:           application.EventPayment,
			ChatID:         msg.Chat.ID,
			MessageID:      msg.MessageID,
			InvoicePayload: msg.SuccessfulPayment.InvoicePayload,
		}, true

	case up.Message != nil && up.Message.Location != nil:
		msg := up.Message
		return application.Event{
			Kind:      application.EventLocation,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Location: &model.Point{
				Lon: msg.Location.Longitude,
				Lat: msg.Location.Latitude,
			},
		}, true

	case up.Message != nil && up.Message.Text != "":
		msg := up.Message
		return application.Event{
			Kind:      application.EventText,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Text:      msg.Text,
		}, true

	case up.CallbackQuery != nil && up.CallbackQuery.Message != nil:
		q := up.CallbackQuery
		return application.Event{
			Kind:       application.EventCallback,
			ChatID:     q.Message.Chat.ID,
			MessageID:  q.Message.MessageID,
			Callback:   q.Data,
			CallbackID: q.ID,
		}, true
	}
	return application.Event{}, false
}
