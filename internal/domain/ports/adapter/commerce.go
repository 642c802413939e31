package adapter

import "context"

// AccessToken is a commerce credential normalized to an absolute expiry.
type AccessToken struct {
	Token     string
	ExpiresAt int64 // unix seconds
}

// Product carries the catalog fields the bot actually renders.
type Product struct {
	ID             string
	Name           string
	Description    string
	SKU            string
	FormattedPrice string
	MainImageID    string
}

// NewProduct describes a product to create in the backend (seed tooling).
type NewProduct struct {
	Name        string
	Description string
	PriceMinor  int64
	Currency    string
	SKU         string
}

// CartLine is one raw backend cart line.
type CartLine struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	Quantity    int
	UnitPrice   string
	LinePrice   string
}

// Cart is the raw backend cart contents plus its formatted total.
type Cart struct {
	ID             string
	TotalFormatted string
	Items          []CartLine
}

type Customer struct {
	ID    string
	Email string
	Name  string
}

// FlowEntry is one structured entry of a backend flow; field slugs map to
// backend-defined values.
type FlowEntry map[string]any

// CommerceGateway is the port to the headless e-commerce backend. Calls fail
// with domain.ErrBackendCall on non-2xx responses; lookups that legitimately
// find nothing fail with domain.ErrNotFound.
type CommerceGateway interface {
	IssueToken(ctx context.Context) (AccessToken, error)

	Products(ctx context.Context, token string) ([]Product, error)
	Product(ctx context.Context, token, productID string) (Product, error)
	ProductImageURL(ctx context.Context, token, fileID string) (string, error)

	// EnsureCart creates the cart on first touch (get-or-create semantics).
	EnsureCart(ctx context.Context, token, cartID string) error
	CartItems(ctx context.Context, token, cartID string) (Cart, error)
	AddCartItem(ctx context.Context, token, cartID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, token, cartID, itemID string) error
	DeleteCart(ctx context.Context, token, cartID string) error

	CustomerByEmail(ctx context.Context, token, email string) (Customer, error)
	CreateCustomer(ctx context.Context, token, email, name string) (Customer, error)

	Entries(ctx context.Context, token, flowSlug string) ([]FlowEntry, error)
	CreateFlowEntry(ctx context.Context, token, flowSlug string, fields map[string]any) error

	// Seed surface.
	CreateFlow(ctx context.Context, token, name, description string) (string, error)
	CreateFlowField(ctx context.Context, token, flowID, name, fieldType, description string) error
	CreateProduct(ctx context.Context, token string, p NewProduct) (string, error)
	CreateFile(ctx context.Context, token, fileURL string) (string, error)
	AttachMainImage(ctx context.Context, token, productID, fileID string) error
}
