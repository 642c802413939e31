package usecase

import (
	"context"
	"fmt"

	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

// CartUseCase wraps backend cart operations and assembles the order-facing
// cart view. The cart id is the chat id, so every chat owns one cart.
type CartUseCase struct {
	gateway adapter.CommerceGateway
}

func NewCartUseCase(gateway adapter.CommerceGateway) *CartUseCase {
	return &CartUseCase{gateway: gateway}
}

func (uc *CartUseCase) View(ctx context.Context, token, cartID string) (model.CartView, error) {
	cart, err := uc.gateway.CartItems(ctx, token, cartID)
	if err != nil {
		return model.CartView{}, fmt.Errorf("fetch cart %s: %w", cartID, err)
	}
	return BuildCartView(cart), nil
}

func (uc *CartUseCase) Add(ctx context.Context, token, cartID, productID string) error {
	if err := uc.gateway.EnsureCart(ctx, token, cartID); err != nil {
		return fmt.Errorf("ensure cart %s: %w", cartID, err)
	}
	if err := uc.gateway.AddCartItem(ctx, token, cartID, productID, 1); err != nil {
		return fmt.Errorf("add item %s to cart %s: %w", productID, cartID, err)
	}
	return nil
}

func (uc *CartUseCase) Remove(ctx context.Context, token, cartID, itemID string) error {
	if err := uc.gateway.RemoveCartItem(ctx, token, cartID, itemID); err != nil {
		return fmt.Errorf("remove item %s from cart %s: %w", itemID, cartID, err)
	}
	return nil
}

func (uc *CartUseCase) Clear(ctx context.Context, token, cartID string) error {
	if err := uc.gateway.DeleteCart(ctx, token, cartID); err != nil {
		return fmt.Errorf("delete cart %s: %w", cartID, err)
	}
	return nil
}

// BuildCartView is a pure transformation of the raw backend cart: line order
// is preserved and every price string passes through unmodified.
func BuildCartView(cart adapter.Cart) model.CartView {
	view := model.CartView{
		TotalPrice: cart.TotalFormatted,
		Lines:      make([]model.CartLineView, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		view.Lines = append(view.Lines, model.CartLineView{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LinePrice:   item.LinePrice,
		})
	}
	return view
}
