package adapter

import "context"

// Button is one inline keyboard button. Data and URL are mutually exclusive.
type Button struct {
	Text string
	Data string
	URL  string
}

type SendMessageParams struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

type SendPhotoParams struct {
	ChatID  int64
	URL     string
	Caption string
	Buttons [][]Button
}

type SendLocationParams struct {
	ChatID int64
	Lat    float64
	Lon    float64
}

type InvoiceParams struct {
	ChatID      int64
	Title       string
	Description string
	Payload     string
	Currency    string
	Label       string
	AmountMinor int64
}

// Messenger is the outbound chat capability. Send calls return the message id
// of the sent message so handlers can delete or edit it later.
type Messenger interface {
	SendText(ctx context.Context, p SendMessageParams) (int, error)
	SendPhoto(ctx context.Context, p SendPhotoParams) (int, error)
	SendLocation(ctx context.Context, p SendLocationParams) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, buttons [][]Button) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	SendInvoice(ctx context.Context, p InvoiceParams) error
	AnswerPreCheckout(ctx context.Context, preCheckoutID string, ok bool, errMessage string) error
}
