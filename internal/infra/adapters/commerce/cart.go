package commerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

// EnsureCart touches the cart endpoint, which creates the cart on first use.
func (c *Client) EnsureCart(ctx context.Context, token, cartID string) error {
	return c.do(ctx, "ensure_cart", http.MethodGet, c.endpoint("/v2/carts/"+cartID), token, nil, nil, nil)
}

func (c *Client) CartItems(ctx context.Context, token, cartID string) (adapter.Cart, error) {
	var out struct {
		Data []struct {
			ID          string `json:"id"`
			ProductID   string `json:"product_id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Quantity    int    `json:"quantity"`
			Meta        struct {
				DisplayPrice struct {
					WithTax struct {
						Unit struct {
							Formatted string `json:"formatted"`
						} `json:"unit"`
						Value struct {
							Formatted string `json:"formatted"`
						} `json:"value"`
					} `json:"with_tax"`
				} `json:"display_price"`
			} `json:"meta"`
		} `json:"data"`
		Meta struct {
			DisplayPrice struct {
				WithTax struct {
					Formatted string `json:"formatted"`
				} `json:"with_tax"`
			} `json:"display_price"`
		} `json:"meta"`
	}
	path := fmt.Sprintf("/v2/carts/%s/items", cartID)
	if err := c.do(ctx, "cart_items", http.MethodGet, c.endpoint(path), token, nil, nil, &out); err != nil {
		return adapter.Cart{}, err
	}

	cart := adapter.Cart{
		ID:             cartID,
		TotalFormatted: out.Meta.DisplayPrice.WithTax.Formatted,
		Items:          make([]adapter.CartLine, 0, len(out.Data)),
	}
	for _, item := range out.Data {
		cart.Items = append(cart.Items, adapter.CartLine{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.Meta.DisplayPrice.WithTax.Unit.Formatted,
			LinePrice:   item.Meta.DisplayPrice.WithTax.Value.Formatted,
		})
	}
	return cart, nil
}

func (c *Client) AddCartItem(ctx context.Context, token, cartID, productID string, quantity int) error {
	body := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	path := fmt.Sprintf("/v2/carts/%s/items", cartID)
	return c.do(ctx, "add_cart_item", http.MethodPost, c.endpoint(path), token, nil, body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, token, cartID, itemID string) error {
	path := fmt.Sprintf("/v2/carts/%s/items/%s", cartID, itemID)
	return c.do(ctx, "remove_cart_item", http.MethodDelete, c.endpoint(path), token, nil, nil, nil)
}

func (c *Client) DeleteCart(ctx context.Context, token, cartID string) error {
	return c.do(ctx, "delete_cart", http.MethodDelete, c.endpoint("/v2/carts/"+cartID), token, nil, nil, nil)
}

func (c *Client) CustomerByEmail(ctx context.Context, token, email string) (adapter.Customer, error) {
	query := url.Values{"filter": {fmt.Sprintf("eq(email, %s)", email)}}
	var out struct {
		Data []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, "customer_by_email", http.MethodGet, c.endpoint("/v2/customers"), token, query, nil, &out); err != nil {
		return adapter.Customer{}, err
	}
	if len(out.Data) == 0 {
		return adapter.Customer{}, fmt.Errorf("%w: customer %s", domain.ErrNotFound, email)
	}
	first := out.Data[0]
	return adapter.Customer{ID: first.ID, Email: first.Email, Name: first.Name}, nil
}

func (c *Client) CreateCustomer(ctx context.Context, token, email, name string) (adapter.Customer, error) {
	if name == "" {
		return adapter.Customer{}, errors.New("customer name is empty")
	}
	body := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	}
	var out struct {
		Data struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"data"`
	}
	if err := c.do(ctx, "create_customer", http.MethodPost, c.endpoint("/v2/customers"), token, nil, body, &out); err != nil {
		return adapter.Customer{}, err
	}
	return adapter.Customer{ID: out.Data.ID, Email: out.Data.Email, Name: out.Data.Name}, nil
}
