package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
	"telegram-pizza-shop/internal/domain/ports/repository"
	"telegram-pizza-shop/internal/usecase"
)

// --- Test doubles for machine and handler tests. ---

// memStore keeps the snapshot in memory; loadErr/saveErr simulate store faults.
type memStore struct {
	mu      sync.Mutex
	cycle   sync.Mutex
	snap    *model.Snapshot
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{snap: model.NewSnapshot()}
}

func (m *memStore) Load(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snap, nil
}

func (m *memStore) Save(ctx context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
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
	return m.snap, nil
}

// copyStore persists the snapshot as a serialized blob and deserializes an
// independent copy on every Load, mirroring how the real store behaves. It
// makes lost updates observable: a stale cycle writing back over a committed
// one would erase the other chat's session.
type copyStore struct {
	mu    sync.Mutex
	cycle sync.Mutex
	blob  []byte
}

func (c *copyStore) Load(ctx context.Context) (*model.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blob == nil {
		return model.NewSnapshot(), nil
	}
	var snap model.Snapshot
	if err := json.Unmarshal(c.blob, &snap); err != nil {
		return nil, err
	}
	if snap.Sessions == nil {
		snap.Sessions = make(map[int64]*model.Session)
	}
	return &snap, nil
}

func (c *copyStore) Save(ctx context.Context, snap *model.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blob = b
	return nil
}

func (c *copyStore) Flush(ctx context.Context) error { return nil }

func (c *copyStore) Update(ctx context.Context, fn func(*model.Snapshot) error) error {
	c.cycle.Lock()
	defer c.cycle.Unlock()
	snap, err := c.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return c.Save(ctx, snap)
}

func (c *copyStore) MergeInitial(ctx context.Context, seed model.SharedData) (*model.Snapshot, error) {
	return c.Load(ctx)
}

// sentMessage records one outbound text message.
type sentMessage struct {
	ChatID  int64
	Text    string
	Buttons [][]adapter.Button
}

// fakeMessenger records everything sent and never fails unless told to.
type fakeMessenger struct {
	mu sync.Mutex

	texts        []sentMessage
	photos       []adapter.SendPhotoParams
	locations    []adapter.SendLocationParams
	invoices     []adapter.InvoiceParams
	toasts       []string
	preCheckouts []struct {
		ID  string
		OK  bool
		Msg string
	}
	deleted []int

	sendErr error
	nextID  int
}

func (f *fakeMessenger) SendText(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.texts = append(f.texts, sentMessage{ChatID: p.ChatID, Text: p.Text, Buttons: p.Buttons})
	f.nextID++
	return f.nextID, nil
}

func (f *fakeMessenger) SendPhoto(ctx context.Context, p adapter.SendPhotoParams) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeMessenger) SendLocation(ctx context.Context, p adapter.SendLocationParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append(f.locations, p)
	return nil
}

func (f *fakeMessenger) EditText(ctx context.Context, chatID int64, messageID int, text string, buttons [][]adapter.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentMessage{ChatID: chatID, Text: text, Buttons: buttons})
	return nil
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, text)
	return nil
}

func (f *fakeMessenger) SendInvoice(ctx context.Context, p adapter.InvoiceParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices = append(f.invoices, p)
	return nil
}

func (f *fakeMessenger) AnswerPreCheckout(ctx context.Context, preCheckoutID string, ok bool, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preCheckouts = append(f.preCheckouts, struct {
		ID  string
		OK  bool
		Msg string
	}{preCheckoutID, ok, errMessage})
	return nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1].Text
}

// fakeGateway implements adapter.CommerceGateway for the machine tests.
type fakeGateway struct {
	mu sync.Mutex

	products   []adapter.Product
	productsFn func(ctx context.Context, token string) ([]adapter.Product, error)
	cart       adapter.Cart
	cartErr    error
	customers  map[string]adapter.Customer
	entries    []adapter.FlowEntry

	customerLookups int
	customersMade   int
	addedItems      []string
	removedItems    []string
	deletedCarts    []string
	addressEntries  []map[string]any
}

func (f *fakeGateway) IssueToken(ctx context.Context) (adapter.AccessToken, error) {
	return adapter.AccessToken{Token: "tok", ExpiresAt: time.Now().Unix() + 3600}, nil
}

func (f *fakeGateway) Products(ctx context.Context, token string) ([]adapter.Product, error) {
	if f.productsFn != nil {
		return f.productsFn(ctx, token)
	}
	return f.products, nil
}

func (f *fakeGateway) Product(ctx context.Context, token, productID string) (adapter.Product, error) {
	for _, p := range f.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return adapter.Product{}, domain.ErrNotFound
}

func (f *fakeGateway) ProductImageURL(ctx context.Context, token, fileID string) (string, error) {
	return "https://files.example.com/" + fileID, nil
}

func (f *fakeGateway) EnsureCart(ctx context.Context, token, cartID string) error { return nil }

func (f *fakeGateway) CartItems(ctx context.Context, token, cartID string) (adapter.Cart, error) {
	if f.cartErr != nil {
		return adapter.Cart{}, f.cartErr
	}
	return f.cart, nil
}

func (f *fakeGateway) AddCartItem(ctx context.Context, token, cartID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addedItems = append(f.addedItems, productID)
	return nil
}

func (f *fakeGateway) RemoveCartItem(ctx context.Context, token, cartID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedItems = append(f.removedItems, itemID)
	return nil
}

func (f *fakeGateway) DeleteCart(ctx context.Context, token, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedCarts = append(f.deletedCarts, cartID)
	return nil
}

func (f *fakeGateway) CustomerByEmail(ctx context.Context, token, email string) (adapter.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerLookups++
	if c, ok := f.customers[email]; ok {
		return c, nil
	}
	return adapter.Customer{}, domain.ErrNotFound
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, token, email, name string) (adapter.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customersMade++
	c := adapter.Customer{ID: "cust-1", Email: email, Name: name}
	if f.customers == nil {
		f.customers = map[string]adapter.Customer{}
	}
	f.customers[email] = c
	return c, nil
}

func (f *fakeGateway) Entries(ctx context.Context, token, flowSlug string) ([]adapter.FlowEntry, error) {
	return f.entries, nil
}

func (f *fakeGateway) CreateFlowEntry(ctx context.Context, token, flowSlug string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addressEntries = append(f.addressEntries, fields)
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
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (model.Point, error) {
	if p, ok := f.points[address]; ok {
		return p, nil
	}
	return model.Point{}, domain.ErrNotFound
}

// testMachine wires a machine over in-memory doubles.
func testMachine(store *memStore, gw *fakeGateway, msg *fakeMessenger, geo *fakeGeocoder) *Machine {
	return testMachineWith(store, gw, msg, geo)
}

func testMachineWith(store repository.SnapshotStore, gw *fakeGateway, msg *fakeMessenger, geo *fakeGeocoder) *Machine {
	log := zerolog.Nop()
	if geo == nil {
		geo = &fakeGeocoder{}
	}
	credUC := usecase.NewCredentialUseCase(gw, &log)
	cartUC := usecase.NewCartUseCase(gw)
	custUC := usecase.NewCustomerUseCase(gw)
	locUC := usecase.NewLocationUseCase(geo)
	menuUC := usecase.NewMenuUseCase(store, gw, credUC, 8, &log)

	m := NewMachine(store, msg, gw, credUC, cartUC, custUC, locUC, menuUC, Options{
		RestaurantFlow: "pizzeria",
		AddressFlow:    "customer-address",
		Currency:       "RUB",
	}, &log)
	m.after = func(d time.Duration, fn func()) {} // no timers in tests
	return m
}
