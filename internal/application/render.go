package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

func (m *Machine) sendRootMenu(ctx context.Context, chatID int64) error {
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: chatID,
		Text:   "Welcome to the pizzeria! What would you like to do?",
		Buttons: [][]adapter.Button{
			{{Text: "Browse the menu", Data: "browse"}},
			{{Text: "Cart", Data: "cart"}},
		},
	})
	return err
}

// showMenu renders the requested catalog page and records it as the chat's
// current page. The cached menu is used when present; otherwise the catalog
// is fetched and the cache filled in passing.
func (m *Machine) showMenu(ctx context.Context, snap *model.Snapshot, sess *model.Session, token string, ev Event, page int) (model.State, error) {
	menu := snap.Shared.Menu
	if menu == nil || menu.PageCount == 0 {
		products, err := m.gw.Products(ctx, token)
		if err != nil {
			return sess.State, err
		}
		menu = m.menuUC.Build(products)
		snap.Shared.Menu = menu
	}

	menuPage, ok := menu.Page(page)
	if !ok {
		_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
			ChatID: ev.ChatID,
			Text:   "The menu is empty right now, please check back later.",
		})
		if err != nil {
			return sess.State, err
		}
		return model.StateBrowsing, nil
	}

	rows := make([][]adapter.Button, 0, len(menuPage.Items)+1)
	for _, item := range menuPage.Items {
		rows = append(rows, []adapter.Button{{Text: item.Name, Data: item.ProductID}})
	}
	rows = append(rows, []adapter.Button{
		{Text: "◀", Data: strconv.Itoa(menuPage.PrevPage)},
		{Text: "Cart", Data: "cart"},
		{Text: "▶", Data: strconv.Itoa(menuPage.NextPage)},
	})

	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID:  ev.ChatID,
		Text:    "Please choose a pizza:",
		Buttons: rows,
	})
	if err != nil {
		return sess.State, err
	}
	m.deleteQuietly(ctx, ev.ChatID, ev.MessageID)
	sess.CurrentPage = menuPage.Number
	return model.StateBrowsing, nil
}

func (m *Machine) showProduct(ctx context.Context, sess *model.Session, token string, ev Event, productID string) (model.State, error) {
	product, err := m.gw.Product(ctx, token, productID)
	if err != nil {
		return sess.State, err
	}

	caption := fmt.Sprintf("%s\n\nPrice: %s\n\n%s",
		product.Name, product.FormattedPrice, product.Description)
	buttons := [][]adapter.Button{
		{{Text: "Add to cart", Data: "add"}},
		{{Text: "Back to menu", Data: "menu"}},
	}

	if product.MainImageID != "" {
		imageURL, err := m.gw.ProductImageURL(ctx, token, product.MainImageID)
		if err != nil {
			return sess.State, err
		}
		_, err = m.msg.SendPhoto(ctx, adapter.SendPhotoParams{
			ChatID:  ev.ChatID,
			URL:     imageURL,
			Caption: caption,
			Buttons: buttons,
		})
		if err != nil {
			return sess.State, err
		}
		m.deleteQuietly(ctx, ev.ChatID, ev.MessageID)
	} else {
		if err := m.msg.EditText(ctx, ev.ChatID, ev.MessageID, caption, buttons); err != nil {
			return sess.State, err
		}
	}
	sess.ProductID = productID
	return model.StateProductDetail, nil
}

func (m *Machine) showCart(ctx context.Context, sess *model.Session, token string, ev Event) (model.State, error) {
	view, err := m.cartUC.View(ctx, token, cartID(ev.ChatID))
	if err != nil {
		return sess.State, err
	}

	var text string
	var rows [][]adapter.Button
	if view.Empty() {
		text = "Your cart is empty."
		rows = [][]adapter.Button{{{Text: "Back to menu", Data: "menu"}}}
	} else {
		text = cartText(view)
		for _, line := range view.Lines {
			rows = append(rows, []adapter.Button{
				{Text: "Remove " + line.Name, Data: line.ID},
			})
		}
		rows = append(rows,
			[]adapter.Button{{Text: "Pay", Data: "pay"}},
			[]adapter.Button{{Text: "Back to menu", Data: "menu"}},
		)
	}

	_, err = m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID:  ev.ChatID,
		Text:    text,
		Buttons: rows,
	})
	if err != nil {
		return sess.State, err
	}
	m.deleteQuietly(ctx, ev.ChatID, ev.MessageID)
	return model.StateCart, nil
}

func cartText(view model.CartView) string {
	var b strings.Builder
	for _, line := range view.Lines {
		fmt.Fprintf(&b, "%s\n%s\n%d in the cart for %s\n\n",
			line.Name, line.Description, line.Quantity, line.LinePrice)
	}
	fmt.Fprintf(&b, "Total: %s", view.TotalPrice)
	return b.String()
}

func (m *Machine) promptLocation(ctx context.Context, chatID int64) error {
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: chatID,
		Text:   "Send us your address as text or share your location.",
	})
	return err
}

// sendDeliveryOptions applies the delivery pricing tiers: free under 0.5 km,
// 100 RUB under 5 km, 200 RUB under 20 km, pickup only beyond that.
func (m *Machine) sendDeliveryOptions(ctx context.Context, chatID int64, nearest model.RestaurantCandidate) error {
	var text string
	delivery := true
	switch {
	case nearest.DistanceKm < 0.5:
		text = fmt.Sprintf(
			"There is a pizzeria just %.0f meters away at %s. You could pick the order up yourself, or we deliver for free.",
			nearest.DistanceM, nearest.Address)
	case nearest.DistanceKm < 5:
		text = "Delivery to your address costs 100 RUB. Delivery or pickup?"
	case nearest.DistanceKm < 20:
		text = "The nearest pizzeria is quite far, delivery costs 200 RUB. Delivery or pickup?"
	default:
		delivery = false
		text = fmt.Sprintf(
			"Sorry, we cannot deliver that far: the nearest pizzeria is %.1f km away. Pickup only?",
			nearest.DistanceKm)
	}

	rows := [][]adapter.Button{{{Text: "Pickup", Data: "pickup"}}}
	if delivery {
		rows = append(rows, []adapter.Button{{Text: "Delivery", Data: "delivery"}})
	}
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID:  chatID,
		Text:    text,
		Buttons: rows,
	})
	return err
}

func (m *Machine) sendPickupDetails(ctx context.Context, chatID int64, view model.CartView, nearest model.RestaurantCandidate) error {
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: chatID,
		Text:   "You chose pickup. Your order:\n\n" + cartText(view),
	})
	if err != nil {
		return err
	}
	_, err = m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: chatID,
		Text:   "Pizzeria address: " + nearest.Address,
	})
	if err != nil {
		return err
	}
	return m.msg.SendLocation(ctx, adapter.SendLocationParams{
		ChatID: chatID,
		Lat:    nearest.Lat,
		Lon:    nearest.Lon,
	})
}

func (m *Machine) notifyCourier(ctx context.Context, nearest model.RestaurantCandidate, view model.CartView, dest model.Point) error {
	_, err := m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: nearest.CourierID,
		Text: fmt.Sprintf("New order!\n\nFrom the restaurant at %s.\n\nOrder contents:\n\n%s",
			nearest.Address, cartText(view)),
	})
	if err != nil {
		return err
	}
	_, err = m.msg.SendText(ctx, adapter.SendMessageParams{
		ChatID: nearest.CourierID,
		Text:   "Delivery address:",
	})
	if err != nil {
		return err
	}
	return m.msg.SendLocation(ctx, adapter.SendLocationParams{
		ChatID: nearest.CourierID,
		Lat:    dest.Lat,
		Lon:    dest.Lon,
	})
}
