package commerce

import (
	"context"
	"fmt"
	"net/http"

	"telegram-pizza-shop/internal/domain/ports/adapter"
)

// productData is the wire shape of a catalog product; only the fields the bot
// renders are extracted.
type productData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SKU         string `json:"sku"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Formatted string `json:"formatted"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
	Relationships struct {
		MainImage *struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

func (p productData) toProduct() adapter.Product {
	out := adapter.Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		SKU:            p.SKU,
		FormattedPrice: p.Meta.DisplayPrice.WithTax.Formatted,
	}
	if p.Relationships.MainImage != nil {
		out.MainImageID = p.Relationships.MainImage.Data.ID
	}
	return out
}

func (c *Client) Products(ctx context.Context, token string) ([]adapter.Product, error) {
	var out struct {
		Data []productData `json:"data"`
	}
	if err := c.do(ctx, "products", http.MethodGet, c.endpoint("/v2/products"), token, nil, nil, &out); err != nil {
		return nil, err
	}
	products := make([]adapter.Product, 0, len(out.Data))
	for _, p := range out.Data {
		products = append(products, p.toProduct())
	}
	return products, nil
}

func (c *Client) Product(ctx context.Context, token, productID string) (adapter.Product, error) {
	var out struct {
		Data productData `json:"data"`
	}
	err := c.do(ctx, "product", http.MethodGet, c.endpoint("/v2/products/"+productID), token, nil, nil, &out)
	if err != nil {
		return adapter.Product{}, err
	}
	return out.Data.toProduct(), nil
}

func (c *Client) ProductImageURL(ctx context.Context, token, fileID string) (string, error) {
	var out struct {
		Data struct {
			Link struct {
				Href string `json:"href"`
			} `json:"link"`
		} `json:"data"`
	}
	err := c.do(ctx, "file", http.MethodGet, c.endpoint("/v2/files/"+fileID), token, nil, nil, &out)
	if err != nil {
		return "", err
	}
	return out.Data.Link.Href, nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, p adapter.NewProduct) (string, error) {
	sku := p.SKU
	if sku == "" {
		sku = "sku-" + slugify(p.Name)
	}
	currency := p.Currency
	if currency == "" {
		currency = c.currency
	}
	body := map[string]any{
		"data": map[string]any{
			"type":         "product",
			"name":         p.Name,
			"slug":         slugify(p.Name),
			"sku":          sku,
			"description":  p.Description,
			"manage_stock": false,
			"price": []map[string]any{{
				"amount":       p.PriceMinor,
				"currency":     currency,
				"includes_tax": true,
			}},
			"status":         "live",
			"commodity_type": "physical",
		},
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, "create_product", http.MethodPost, c.endpoint("/v2/products"), token, nil, body, &out); err != nil {
		return "", err
	}
	return out.Data.ID, nil
}

func (c *Client) CreateFile(ctx context.Context, token, fileURL string) (string, error) {
	body := map[string]any{"file_location": fileURL}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, "create_file", http.MethodPost, c.endpoint("/v2/files"), token, nil, body, &out); err != nil {
		return "", err
	}
	return out.Data.ID, nil
}

func (c *Client) AttachMainImage(ctx context.Context, token, productID, fileID string) error {
	body := map[string]any{
		"data": map[string]any{
			"type": "main_image",
			"id":   fileID,
		},
	}
	path := fmt.Sprintf("/v2/products/%s/relationships/main-image", productID)
	return c.do(ctx, "attach_main_image", http.MethodPost, c.endpoint(path), token, nil, body, nil)
}
