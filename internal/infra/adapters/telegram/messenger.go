package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-pizza-shop/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*Messenger)(nil)

// Messenger implements the outbound chat port over the Bot API.
type Messenger struct {
	bot           *tgbotapi.BotAPI
	providerToken string
}

func NewMessenger(bot *tgbotapi.BotAPI, providerToken string) *Messenger {
	return &Messenger{bot: bot, providerToken: providerToken}
}

func markup(buttons [][]adapter.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, btns)
	}
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

func (m *Messenger) SendText(_ context.Context, p adapter.SendMessageParams) (int, error) {
	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	if mk := markup(p.Buttons); mk != nil {
		msg.ReplyMarkup = mk
	}
	sent, err := m.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (m *Messenger) SendPhoto(_ context.Context, p adapter.SendPhotoParams) (int, error) {
	msg := tgbotapi.NewPhoto(p.ChatID, tgbotapi.FileURL(p.URL))
	msg.Caption = p.Caption
	if mk := markup(p.Buttons); mk != nil {
		msg.ReplyMarkup = mk
	}
	sent, err := m.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (m *Messenger) SendLocation(_ context.Context, p adapter.SendLocationParams) error {
	_, err := m.bot.Send(tgbotapi.NewLocation(p.ChatID, p.Lat, p.Lon))
	return err
}

func (m *Messenger) EditText(_ context.Context, chatID int64, messageID int, text string, buttons [][]adapter.Button) error {
	var err error
	if mk := markup(buttons); mk != nil {
		_, err = m.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *mk))
	} else {
		_, err = m.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	}
	return err
}

func (m *Messenger) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	_, err := m.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (m *Messenger) AnswerCallback(_ context.Context, callbackID, text string) error {
	_, err := m.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (m *Messenger) SendInvoice(_ context.Context, p adapter.InvoiceParams) error {
	prices := []tgbotapi.LabeledPrice{{Label: p.Label, Amount: int(p.AmountMinor)}}
	invoice := tgbotapi.NewInvoice(p.ChatID, p.Title, p.Description, p.Payload,
		m.providerToken, "", p.Currency, prices)
	_, err := m.bot.Request(invoice)
	return err
}

func (m *Messenger) AnswerPreCheckout(_ context.Context, preCheckoutID string, ok bool, errMessage string) error {
	_, err := m.bot.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: preCheckoutID,
		OK:                 ok,
		ErrorMessage:       errMessage,
	})
	return err
}
