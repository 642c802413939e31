package application

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
	"telegram-pizza-shop/internal/domain/ports/repository"
	"telegram-pizza-shop/internal/infra/metrics"
	"telegram-pizza-shop/internal/usecase"
)

// EventKind discriminates the normalized inbound events.
type EventKind string

const (
	EventText        EventKind = "text"
	EventCallback    EventKind = "callback"
	EventLocation    EventKind = "location"
	EventPreCheckout EventKind = "pre_checkout"
	EventPayment     EventKind = "payment"
)

// Event is one normalized inbound user event.
type Event struct {
	Kind      EventKind
	ChatID    int64
	MessageID int

	Text       string
	Callback   string
	CallbackID string
	Location   *model.Point

	PreCheckoutID  string
	InvoicePayload string
}

// Options carries the flow slugs and payment parameters the handlers need.
type Options struct {
	RestaurantFlow string
	AddressFlow    string
	Currency       string
	ReminderAfter  time.Duration
}

// Machine is the dialogue state machine: it maps an inbound event to the
// chat's current state, runs the state's handler, and persists the resulting
// session. Events for the same chat are serialized by a per-chat mutex, so no
// two transitions of one session ever interleave; the snapshot store
// additionally serializes every load-mutate-save cycle store-wide, since the
// whole blob is rewritten on each persist.
type Machine struct {
	store  repository.SnapshotStore
	msg    adapter.Messenger
	gw     adapter.CommerceGateway
	credUC *usecase.CredentialUseCase
	cartUC *usecase.CartUseCase
	custUC *usecase.CustomerUseCase
	locUC  *usecase.LocationUseCase
	menuUC *usecase.MenuUseCase
	opts   Options

	locks sync.Map // chatID -> *sync.Mutex

	// after schedules delayed work; replaced in tests.
	after func(d time.Duration, fn func())

	log *zerolog.Logger
}

func NewMachine(
	store repository.SnapshotStore,
	msg adapter.Messenger,
	gw adapter.CommerceGateway,
	credUC *usecase.CredentialUseCase,
	cartUC *usecase.CartUseCase,
	custUC *usecase.CustomerUseCase,
	locUC *usecase.LocationUseCase,
	menuUC *usecase.MenuUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Machine {
	if opts.ReminderAfter <= 0 {
		opts.ReminderAfter = time.Hour
	}
	l := logger.With().Str("component", "Machine").Logger()
	return &Machine{
		store:  store,
		msg:    msg,
		gw:     gw,
		credUC: credUC,
		cartUC: cartUC,
		custUC: custUC,
		locUC:  locUC,
		menuUC: menuUC,
		opts:   opts,
		after:  func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		log:    &l,
	}
}

func (m *Machine) chatLock(chatID int64) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(chatID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Dispatch handles one inbound event end to end: load snapshot, ensure the
// commerce credential, run the state handler, persist the next state. The
// whole cycle runs inside one store Update so a concurrent dispatch for
// another chat can never write back a view that predates this transition. A
// handler fault is logged, answered with a generic retry message, and leaves
// the state unchanged so the user's next input retries the step. Store and
// credential faults are fatal to this event only and are never retried here.
func (m *Machine) Dispatch(ctx context.Context, ev Event) error {
	mu := m.chatLock(ev.ChatID)
	mu.Lock()
	defer mu.Unlock()

	err := m.store.Update(ctx, func(snap *model.Snapshot) error {
		sess := snap.Session(ev.ChatID)
		from := sess.State

		token, err := m.credUC.Ensure(ctx, snap)
		if err != nil {
			return fmt.Errorf("credential refresh: %w", err)
		}

		metrics.EventHandled(string(from), string(ev.Kind))

		next, err := m.route(ctx, snap, sess, token, ev)
		if err != nil {
			m.log.Error().Err(err).
				Int64("chat_id", ev.ChatID).
				Str("state", string(from)).
				Msg("handler fault")
			metrics.HandlerFault()
			next = from
			m.notifyFault(ctx, ev.ChatID)
		}
		if !next.IsValid() {
			m.log.Warn().Str("state", string(next)).Int64("chat_id", ev.ChatID).Msg("handler produced unknown state, resetting")
			next = model.StateStart
		}
		sess.State = next
		metrics.Transition(string(from), string(next))
		return nil
	})
	if err != nil {
		m.log.Error().Err(err).Int64("chat_id", ev.ChatID).Msg("event not processed")
		return err
	}
	return nil
}

// route picks the handler for the event. Payment-control events and the two
// commands are routed regardless of the session's state; everything else goes
// to the handler bound to the current state.
//
// The full edge table lives next to the handlers in handlers.go.
func (m *Machine) route(ctx context.Context, snap *model.Snapshot, sess *model.Session, token string, ev Event) (model.State, error) {
	switch {
	case ev.Kind == EventPreCheckout:
		return m.handlePreCheckout(ctx, sess, ev)
	case ev.Kind == EventPayment:
		return m.handlePaymentSuccess(ctx, sess, token, ev)
	case ev.Kind == EventText && ev.Text == "/start":
		return m.handleReset(ctx, sess, ev)
	case ev.Kind == EventText && ev.Text == "/menu":
		return m.showMenu(ctx, snap, sess, token, ev, sess.CurrentPage)
	}

	switch sess.State {
	case model.StateStart, model.StateMenuRoot:
		return m.handleRootMenu(ctx, snap, sess, token, ev)
	case model.StateBrowsing:
		return m.handleBrowsing(ctx, snap, sess, token, ev)
	case model.StateProductDetail:
		return m.handleProductDetail(ctx, snap, sess, token, ev)
	case model.StateCart:
		return m.handleCart(ctx, snap, sess, token, ev)
	case model.StateAwaitingEmail:
		return m.handleEmail(ctx, sess, token, ev)
	case model.StateAwaitingLocation:
		return m.handleLocation(ctx, sess, token, ev)
	case model.StateChoosingFulfillment:
		return m.handleFulfillment(ctx, sess, token, ev)
	case model.StateAwaitingPayment:
		return m.handlePayment(ctx, sess, ev)
	default:
		// Unknown persisted state: recover by restarting the flow.
		return m.handleReset(ctx, sess, ev)
	}
}

func (m *Machine) notifyFault(ctx context.Context, chatID int64) {
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: chatID,
		Text:   "Something went wrong on our side. Please try again.",
	})
	if err != nil {
		m.log.Warn().Err(err).Int64("chat_id", chatID).Msg("fault notice not delivered")
	}
}

func cartID(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func (m *Machine) deleteQuietly(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := m.msg.DeleteMessage(ctx, chatID, messageID); err != nil {
		m.log.Debug().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete message failed")
	}
}

func (m *Machine) scheduleReminder(chatID int64) {
	m.after(m.opts.ReminderAfter, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
			ChatID: chatID,
			Text:   "Still waiting for your pizza? Let us know if it has not arrived yet.",
		})
		if err != nil {
			m.log.Warn().Err(err).Int64("chat_id", chatID).Msg("order reminder not delivered")
		}
	})
}

// parsePriceMinor converts a backend-formatted price ("499.50 RUB", "$12")
// into minor currency units for the invoice.
func parsePriceMinor(formatted string) (int64, error) {
	var numeric []rune
	for _, r := range formatted {
		if (r >= '0' && r <= '9') || r == '.' {
			numeric = append(numeric, r)
		} else if len(numeric) > 0 {
			break
		}
	}
	if len(numeric) == 0 {
		return 0, fmt.Errorf("no numeric value in price %q", formatted)
	}
	value, err := strconv.ParseFloat(string(numeric), 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", formatted, err)
	}
	// Round, don't truncate: 8.20 parses as 8.199..., and truncation would
	// shave one minor unit off the backend-reported total.
	return int64(math.Round(value * 100)), nil
}
