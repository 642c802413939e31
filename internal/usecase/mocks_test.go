package usecase

import (
	"context"
	"sync"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

// --- In-memory test doubles shared across the usecase tests. ---

// fakeGateway implements adapter.CommerceGateway with per-method hooks and
// call counters. Unhooked methods return zero values.
type fakeGateway struct {
	mu sync.Mutex

	issueTokenFn  func(ctx context.Context) (adapter.AccessToken, error)
	productsFn    func(ctx context.Context, token string) ([]adapter.Product, error)
	cartItemsFn   func(ctx context.Context, token, cartID string) (adapter.Cart, error)
	customerFn    func(ctx context.Context, token, email string) (adapter.Customer, error)
	createCustFn  func(ctx context.Context, token, email, name string) (adapter.Customer, error)
	entriesFn     func(ctx context.Context, token, flowSlug string) ([]adapter.FlowEntry, error)
	ensureCartErr error
	addItemErr    error

	issueCalls      int
	ensureCartCalls int
	addItemCalls    []string
	removedItems    []string
	deletedCarts    []string
	createdEntries  []map[string]any
}

func (f *fakeGateway) IssueToken(ctx context.Context) (adapter.AccessToken, error) {
	f.mu.Lock()
	f.issueCalls++
	f.mu.Unlock()
	if f.issueTokenFn != nil {
		return f.issueTokenFn(ctx)
	}
	return adapter.AccessToken{Token: "tok"}, nil
}

func (f *fakeGateway) Products(ctx context.Context, token string) ([]adapter.Product, error) {
	if f.productsFn != nil {
		return f.productsFn(ctx, token)
	}
	return nil, nil
}

func (f *fakeGateway) Product(ctx context.Context, token, productID string) (adapter.Product, error) {
	return adapter.Product{}, domain.ErrNotFound
}

func (f *fakeGateway) ProductImageURL(ctx context.Context, token, fileID string) (string, error) {
	return "", domain.ErrNotFound
}

func (f *fakeGateway) EnsureCart(ctx context.Context, token, cartID string) error {
	f.mu.Lock()
	f.ensureCartCalls++
	f.mu.Unlock()
	return f.ensureCartErr
}

func (f *fakeGateway) CartItems(ctx context.Context, token, cartID string) (adapter.Cart, error) {
	if f.cartItemsFn != nil {
		return f.cartItemsFn(ctx, token, cartID)
	}
	return adapter.Cart{}, nil
}

func (f *fakeGateway) AddCartItem(ctx context.Context, token, cartID, productID string, quantity int) error {
	f.mu.Lock()
	f.addItemCalls = append(f.addItemCalls, productID)
	f.mu.Unlock()
	return f.addItemErr
}

func (f *fakeGateway) RemoveCartItem(ctx context.Context, token, cartID, itemID string) error {
	f.mu.Lock()
	f.removedItems = append(f.removedItems, itemID)
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) DeleteCart(ctx context.Context, token, cartID string) error {
	f.mu.Lock()
	f.deletedCarts = append(f.deletedCarts, cartID)
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) CustomerByEmail(ctx context.Context, token, email string) (adapter.Customer, error) {
	if f.customerFn != nil {
		return f.customerFn(ctx, token, email)
	}
	return adapter.Customer{}, domain.ErrNotFound
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, token, email, name string) (adapter.Customer, error) {
	if f.createCustFn != nil {
		return f.createCustFn(ctx, token, email, name)
	}
	return adapter.Customer{ID: "cust-new", Email: email, Name: name}, nil
}

func (f *fakeGateway) Entries(ctx context.Context, token, flowSlug string) ([]adapter.FlowEntry, error) {
	if f.entriesFn != nil {
		return f.entriesFn(ctx, token, flowSlug)
	}
	return nil, nil
}

func (f *fakeGateway) CreateFlowEntry(ctx context.Context, token, flowSlug string, fields map[string]any) error {
	f.mu.Lock()
	f.createdEntries = append(f.createdEntries, fields)
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) CreateFlow(ctx context.Context, token, name, description string) (string, error) {
	return "flow-1", nil
}

func (f *fakeGateway) CreateFlowField(ctx context.Context, token, flowID, name, fieldType, description string) error {
	return nil
}

func (f *fakeGateway) CreateProduct(ctx context.Context, token string, p adapter.NewProduct) (string, error) {
	return "prod-1", nil
}

func (f *fakeGateway) CreateFile(ctx context.Context, token, fileURL string) (string, error) {
	return "file-1", nil
}

func (f *fakeGateway) AttachMainImage(ctx context.Context, token, productID, fileID string) error {
	return nil
}

// fakeGeocoder resolves addresses from a fixed map.
type fakeGeocoder struct {
	points map[string]model.Point
	calls  int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (model.Point, error) {
	f.calls++
	if p, ok := f.points[address]; ok {
		return p, nil
	}
	return model.Point{}, domain.ErrNotFound
}

// memStore keeps the snapshot in memory and records save calls.
type memStore struct {
	mu    sync.Mutex
	cycle sync.Mutex
	snap  *model.Snapshot
	saves int
}

func newMemStore() *memStore {
	return &memStore{snap: model.NewSnapshot()}
}

func (m *memStore) Load(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *memStore) Save(ctx context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.saves++
	return nil
}

func (m *memStore) Flush(ctx context.Context) error { return nil }

func (m *memStore) Update(ctx context.Context, fn func(*model.Snapshot) error) error {
	m.cycle.Lock()
	defer m.cycle.Unlock()
	snap, err := m.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return m.Save(ctx, snap)
}

func (m *memStore) MergeInitial(ctx context.Context, seed model.SharedData) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.Shared.Credential.Token == "" {
		m.snap.Shared.Credential = seed.Credential
	}
	if m.snap.Shared.Menu == nil {
		m.snap.Shared.Menu = seed.Menu
	}
	return m.snap, nil
}
