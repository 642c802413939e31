package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
	"telegram-pizza-shop/internal/usecase"
)

// Conversation edges. The flow is cyclic: a completed payment returns to
// BROWSING, there is no terminal state.
//
//	START/MENU_ROOT      cb "browse"              -> BROWSING
//	START/MENU_ROOT      cb "cart"                -> CART
//	START/MENU_ROOT      anything else            -> MENU_ROOT (root menu re-sent)
//	BROWSING             cb "cart"                -> CART
//	BROWSING             cb digits                -> BROWSING (page switched)
//	BROWSING             cb product id            -> PRODUCT_DETAIL
//	PRODUCT_DETAIL       cb "menu"                -> BROWSING
//	PRODUCT_DETAIL       cb "add"                 -> PRODUCT_DETAIL (item added, toast)
//	CART                 cb "menu"                -> BROWSING
//	CART                 cb "pay" + known email   -> AWAITING_LOCATION
//	CART                 cb "pay" + no email      -> AWAITING_EMAIL
//	CART                 cb item id               -> CART (item removed, re-rendered)
//	AWAITING_EMAIL       valid email              -> AWAITING_LOCATION
//	AWAITING_EMAIL       invalid email            -> AWAITING_EMAIL
//	AWAITING_LOCATION    resolvable location      -> CHOOSING_FULFILLMENT
//	AWAITING_LOCATION    unresolvable             -> AWAITING_LOCATION
//	CHOOSING_FULFILLMENT cb "pickup"|"delivery"   -> AWAITING_PAYMENT
//	CHOOSING_FULFILLMENT anything else            -> CHOOSING_FULFILLMENT
//	AWAITING_PAYMENT     cb "pay_now"             -> AWAITING_PAYMENT (invoice sent)
//	AWAITING_PAYMENT     successful payment       -> BROWSING (order fields cleared)
//	any                  "/start"                 -> START (page reset to 1)
//	any                  "/menu"                  -> BROWSING at the last-known page

// handleReset is the /start command: the session restarts from scratch, only
// the customer identity survives.
func (m *Machine) handleReset(ctx context.Context, sess *model.Session, ev Event) (model.State, error) {
	sess.CurrentPage = 1
	sess.ClearOrder()
	if err := m.sendRootMenu(ctx, ev.ChatID); err != nil {
		return sess.State, err
	}
	return model.StateStart, nil
}

func (m *Machine) handleRootMenu(ctx context.Context, snap *model.Snapshot, sess *model.Session, token string, ev Event) (model.State, error) {
	if ev.Kind == EventCallback {
		switch ev.Callback {
		case "browse":
			return m.showMenu(ctx, snap, sess, token, ev, sess.CurrentPage)
		case "cart":
			return m.showCart(ctx, sess, token, ev)
		}
	}
	if err := m.sendRootMenu(ctx, ev.ChatID); err != nil {
		return sess.State, err
	}
	return model.StateMenuRoot, nil
}

func (m *Machine) handleBrowsing(ctx context.Context, snap *model.Snapshot, sess *model.Session, token string, ev Event) (model.State, error) {
	if ev.Kind != EventCallback {
		return m.showMenu(ctx, snap, sess, token, ev, sess.CurrentPage)
	}

	switch {
	case ev.Callback == "cart":
		return m.showCart(ctx, sess, token, ev)
	case isDigits(ev.Callback):
		page := atoiOr(ev.Callback, 1)
		return m.showMenu(ctx, snap, sess, token, ev, page)
	}

	// Anything else is a product id.
	return m.showProduct(ctx, sess, token, ev, ev.Callback)
}

func (m *Machine) handleProductDetail(ctx context.Context, snap *model.Snapshot, sess *model.Session, token string, ev Event) (model.State, error) {
	if ev.Kind != EventCallback {
		return model.StateProductDetail, nil
	}

	switch ev.Callback {
	case "menu":
		return m.showMenu(ctx, snap, sess, token, ev, sess.CurrentPage)
	case "add":
		// An add failure is non-critical: the user is told and stays on the
		// product card.
		toast := "Added to your cart"
		if err := m.cartUC.Add(ctx, token, cartID(ev.ChatID), sess.ProductID); err != nil {
			if !errors.Is(err, domain.ErrBackendCall) {
				return model.StateProductDetail, err
			}
			m.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("add to cart failed")
			toast = "Could not add the item to your cart"
		}
		if err := m.msg.AnswerCallback(ctx, ev.CallbackID, toast); err != nil {
			return model.StateProductDetail, err
		}
	}
	return model.StateProductDetail, nil
}

func (m *Machine) handleCart(ctx context.Context, snap *model.Snapshot, sess *model.Session, token string, ev Event) (model.State, error) {
	if ev.Kind != EventCallback {
		return model.StateCart, nil
	}

	switch ev.Callback {
	case "menu":
		return m.showMenu(ctx, snap, sess, token, ev, sess.CurrentPage)
	case "pay":
		m.deleteQuietly(ctx, ev.ChatID, ev.MessageID)
		if sess.CustomerID != "" {
			if err := m.promptLocation(ctx, ev.ChatID); err != nil {
				return model.StateCart, err
			}
			return model.StateAwaitingLocation, nil
		}
		_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
			ChatID: ev.ChatID,
			Text:   "Please send us your email so we can stay in touch.",
		})
		if err != nil {
			return model.StateCart, err
		}
		return model.StateAwaitingEmail, nil
	}

	// Anything else is a cart item id to remove. A failed removal (already
	// gone, backend refusal) only produces a toast.
	toast := "Item removed from your cart"
	if err := m.cartUC.Remove(ctx, token, cartID(ev.ChatID), ev.Callback); err != nil {
		if !errors.Is(err, domain.ErrBackendCall) && !errors.Is(err, domain.ErrNotFound) {
			return model.StateCart, err
		}
		m.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("cart item removal failed")
		toast = "This item cannot be removed"
	}
	if err := m.msg.AnswerCallback(ctx, ev.CallbackID, toast); err != nil {
		return model.StateCart, err
	}
	return m.showCart(ctx, sess, token, ev)
}

func (m *Machine) handleEmail(ctx context.Context, sess *model.Session, token string, ev Event) (model.State, error) {
	if ev.Kind != EventText {
		return model.StateAwaitingEmail, nil
	}
	if err := m.custUC.ValidateEmail(ev.Text); err != nil {
		_, sendErr := m.msg.SendText(ctx, adapter.SendMessageParams{
			ChatID: ev.ChatID,
			Text:   "That email does not look right. Please send it again.",
		})
		if sendErr != nil {
			return model.StateAwaitingEmail, sendErr
		}
		return model.StateAwaitingEmail, nil
	}

	customer, err := m.custUC.Ensure(ctx, token, ev.Text)
	if err != nil {
		return model.StateAwaitingEmail, err
	}
	sess.Email = customer.Email
	sess.CustomerID = customer.ID

	_, err = m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("Got it, we will use %s.\n\nNow send us your address as text or share your location.", customer.Email),
	})
	if err != nil {
		return model.StateAwaitingEmail, err
	}
	return model.StateAwaitingLocation, nil
}

func (m *Machine) handleLocation(ctx context.Context, sess *model.Session, token string, ev Event) (model.State, error) {
	point, err := m.locUC.Resolve(ctx, model.LocationInput{Point: ev.Location, Text: ev.Text})
	if errors.Is(err, domain.ErrNotFound) {
		_, sendErr := m.msg.SendText(ctx, adapter.SendMessageParams{
			ChatID: ev.ChatID,
			Text:   "We could not recognize that address. Please try again.",
		})
		if sendErr != nil {
			return model.StateAwaitingLocation, sendErr
		}
		return model.StateAwaitingLocation, nil
	}
	if err != nil {
		return model.StateAwaitingLocation, err
	}

	entries, err := m.gw.Entries(ctx, token, m.opts.RestaurantFlow)
	if err != nil {
		return model.StateAwaitingLocation, err
	}
	nearest, err := m.locUC.Nearest(point, usecase.RestaurantsFromEntries(entries))
	if err != nil {
		return model.StateAwaitingLocation, fmt.Errorf("nearest restaurant: %w", err)
	}
	sess.NearestRestaurant = &nearest
	sess.DeliveryCoordinates = &point

	// Recording the address is best-effort: a backend hiccup here must not
	// stall the order.
	addrErr := m.gw.CreateFlowEntry(ctx, token, m.opts.AddressFlow, map[string]any{
		"lon": point.Lon,
		"lat": point.Lat,
	})
	if addrErr != nil {
		m.log.Warn().Err(addrErr).Int64("chat_id", ev.ChatID).Msg("customer address not recorded")
	}

	if err := m.sendDeliveryOptions(ctx, ev.ChatID, nearest); err != nil {
		return model.StateAwaitingLocation, err
	}
	return model.StateChoosingFulfillment, nil
}

func (m *Machine) handleFulfillment(ctx context.Context, sess *model.Session, token string, ev Event) (model.State, error) {
	if ev.Kind != EventCallback || (ev.Callback != "pickup" && ev.Callback != "delivery") {
		return model.StateChoosingFulfillment, nil
	}
	if sess.NearestRestaurant == nil {
		// Lost mid-flow (e.g. restored ancient session); go back one step.
		if err := m.promptLocation(ctx, ev.ChatID); err != nil {
			return model.StateChoosingFulfillment, err
		}
		return model.StateAwaitingLocation, nil
	}

	view, err := m.cartUC.View(ctx, token, cartID(ev.ChatID))
	if err != nil {
		return model.StateChoosingFulfillment, err
	}
	sess.CartPrice = view.TotalPrice
	nearest := *sess.NearestRestaurant

	switch ev.Callback {
	case "pickup":
		if err := m.sendPickupDetails(ctx, ev.ChatID, view, nearest); err != nil {
			return model.StateChoosingFulfillment, err
		}
	case "delivery":
		if sess.DeliveryCoordinates == nil {
			if err := m.promptLocation(ctx, ev.ChatID); err != nil {
				return model.StateChoosingFulfillment, err
			}
			return model.StateAwaitingLocation, nil
		}
		if err := m.notifyCourier(ctx, nearest, view, *sess.DeliveryCoordinates); err != nil {
			return model.StateChoosingFulfillment, err
		}
		_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
			ChatID: ev.ChatID,
			Text:   "Thank you for your order! The courier is on the way.",
		})
		if err != nil {
			return model.StateChoosingFulfillment, err
		}
		m.scheduleReminder(ev.ChatID)
	}

	_, err = m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID:  ev.ChatID,
		Text:    "Press Pay to complete your order.",
		Buttons: [][]adapter.Button{{{Text: "Pay", Data: "pay_now"}}},
	})
	if err != nil {
		return model.StateChoosingFulfillment, err
	}
	return model.StateAwaitingPayment, nil
}

func (m *Machine) handlePayment(ctx context.Context, sess *model.Session, ev Event) (model.State, error) {
	if ev.Kind != EventCallback || ev.Callback != "pay_now" {
		return model.StateAwaitingPayment, nil
	}

	amount, err := parsePriceMinor(sess.CartPrice)
	if err != nil {
		return model.StateAwaitingPayment, err
	}
	payload := uuid.NewString()
	err = m.msg.SendInvoice(ctx, adapter.InvoiceParams{
		ChatID:      ev.ChatID,
		Title:       "Pizza order",
		Description: "Payment for your pizza order",
		Payload:     payload,
		Currency:    m.opts.Currency,
		Label:       "Pizza",
		AmountMinor: amount,
	})
	if err != nil {
		return model.StateAwaitingPayment, err
	}
	sess.PaymentPayload = payload
	m.deleteQuietly(ctx, ev.ChatID, ev.MessageID)
	return model.StateAwaitingPayment, nil
}

// handlePreCheckout answers the payment provider's final confirmation. The
// payload must match what this chat's invoice was issued with.
func (m *Machine) handlePreCheckout(ctx context.Context, sess *model.Session, ev Event) (model.State, error) {
	ok := sess.PaymentPayload != "" && ev.InvoicePayload == sess.PaymentPayload
	errMessage := ""
	if !ok {
		errMessage = "Something went wrong with this payment. Please start over."
	}
	if err := m.msg.AnswerPreCheckout(ctx, ev.PreCheckoutID, ok, errMessage); err != nil {
		return sess.State, err
	}
	return sess.State, nil
}

func (m *Machine) handlePaymentSuccess(ctx context.Context, sess *model.Session, token string, ev Event) (model.State, error) {
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: ev.ChatID,
		Text:   "Payment received, thank you!",
	})
	if err != nil {
		return sess.State, err
	}
	// The money is already taken; a failed cart cleanup must not trap the
	// user in the payment state.
	if err := m.cartUC.Clear(ctx, token, cartID(ev.ChatID)); err != nil {
		m.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("cart cleanup after payment failed")
	}
	sess.ClearOrder()
	return model.StateBrowsing, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// atoiOr parses a page number from callback data, which is user-controlled:
// anything unparsable, overflowing, or non-positive falls back.
func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
