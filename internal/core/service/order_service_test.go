package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	released map[string]int // product id -> total released quantity
}

func newStubProductRepo(products ...*domain.Product) *stubProductRepo {
	r := &stubProductRepo{
		products: make(map[string]*domain.Product),
		released: make(map[string]int),
	}
	for _, p := range products {
		clone := *p
		r.products[p.ID] = &clone
	}
	return r
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) List(_ context.Context, _ ports.ListProductsFilter) ([]*domain.Product, int64, error) {
	return nil, 0, nil
}

// Reserve mirrors the conditional-decrement semantics of the Mongo repo.
func (r *stubProductRepo) Reserve(_ context.Context, id string, qty int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if p.Stock < qty {
		return nil, &domain.InsufficientStockError{ProductName: p.Name, Available: p.Stock}
	}
	p.Stock -= qty
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) Release(_ context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock += qty
	r.released[id] += qty
	return nil
}

func (r *stubProductRepo) stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

func (r *stubProductRepo) snapshot() map[string]domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]domain.Product, len(r.products))
	for id, p := range r.products {
		snap[id] = *p
	}
	return snap
}

func (r *stubProductRepo) restore(snap map[string]domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.products {
		p := snap[id]
		r.products[id] = &p
	}
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    []string // insertion order, for ListByUser
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *o
	clone.Items = append([]domain.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &clone
	r.seq = append(r.seq, o.ID)
	return nil
}

func (r *stubOrderRepo) FindByIDForUser(_ context.Context, orderID, userID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if userID != "" && o.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, id := range r.seq {
		if o := r.orders[id]; o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *stubOrderRepo) SetCheckoutSession(_ context.Context, orderID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.CheckoutSessionID = sessionID
	return nil
}

func (r *stubOrderRepo) MarkPaid(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentStatus = domain.PaymentPaid
	if o.Status == domain.OrderPending {
		o.Status = domain.OrderProcessing
	}
	return nil
}

func (r *stubOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *stubOrderRepo) get(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *r.orders[id]
	return &clone
}

func (r *stubOrderRepo) snapshot() map[string]domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]domain.Order, len(r.orders))
	for id, o := range r.orders {
		snap[id] = *o
	}
	return snap
}

func (r *stubOrderRepo) restore(snap map[string]domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.orders {
		if _, ok := snap[id]; !ok {
			delete(r.orders, id)
		}
	}
	var seq []string
	for _, id := range r.seq {
		if _, ok := snap[id]; ok {
			seq = append(seq, id)
		}
	}
	r.seq = seq
	for id, o := range snap {
		clone := o
		r.orders[id] = &clone
	}
}

type stubAddressRepo struct {
	mu        sync.Mutex
	addresses map[string]*domain.Address
}

func newStubAddressRepo(addresses ...*domain.Address) *stubAddressRepo {
	r := &stubAddressRepo{addresses: make(map[string]*domain.Address)}
	for _, a := range addresses {
		clone := *a
		r.addresses[a.ID] = &clone
	}
	return r
}

func (r *stubAddressRepo) Create(_ context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.addresses[a.ID] = &clone
	return nil
}

func (r *stubAddressRepo) FindByIDForUser(_ context.Context, id, userID string) (*domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAddressRepo) ListByUser(_ context.Context, userID string) ([]*domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubAddressRepo) Update(_ context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.addresses[a.ID] = &clone
	return nil
}

func (r *stubAddressRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return domain.ErrAddressNotFound
	}
	delete(r.addresses, id)
	return nil
}

type stubCartStore struct {
	mu      sync.Mutex
	cleared []string
}

func (s *stubCartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	return &domain.Cart{UserID: userID}, nil
}
func (s *stubCartStore) GetItem(context.Context, string, string) (*domain.CartItem, error) {
	return nil, nil
}
func (s *stubCartStore) Put(context.Context, string, domain.CartItem) error { return nil }
func (s *stubCartStore) Remove(context.Context, string, string) error       { return nil }
func (s *stubCartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, userID)
	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	lastInput ports.CreateCheckoutSessionInput
	sessions  map[string]*ports.SessionStatus
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]*ports.SessionStatus)}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in ports.CreateCheckoutSessionInput) (*ports.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastInput = in
	if g.createErr != nil {
		return nil, g.createErr
	}
	id := fmt.Sprintf("cs_test_%d", len(g.sessions)+1)
	g.sessions[id] = &ports.SessionStatus{OrderID: in.OrderID}
	return &ports.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (*ports.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	clone := *s
	return &clone, nil
}

func (g *fakeGateway) VerifyWebhook([]byte, string) (*ports.WebhookEvent, error) {
	return nil, domain.ErrInvalidSignature
}

func (g *fakeGateway) setPaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[sessionID].Paid = true
}

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func (d *stubDedup) IsDuplicate(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[eventID], nil
}

func (d *stubDedup) Mark(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = true
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (s *recordingSink) Enqueue(e domain.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// stubTx serialises transactions and restores repo state when fn fails,
// mirroring a real rollback.
type stubTx struct {
	mu       sync.Mutex
	products *stubProductRepo
	orders   *stubOrderRepo
}

func (t *stubTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	productSnap := t.products.snapshot()
	orderSnap := t.orders.snapshot()
	if err := fn(ctx); err != nil {
		t.products.restore(productSnap)
		t.orders.restore(orderSnap)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Test fixture
// ---------------------------------------------------------------------------

type orderFixture struct {
	svc       *OrderService
	products  *stubProductRepo
	orders    *stubOrderRepo
	addresses *stubAddressRepo
	cart      *stubCartStore
	gateway   *fakeGateway
	dedup     *stubDedup
	sink      *recordingSink
}

const (
	testUser    = "user-1"
	testAddress = "addr-1"
)

func newOrderFixture(products ...*domain.Product) *orderFixture {
	if len(products) == 0 {
		products = []*domain.Product{shirt(10)}
	}
	f := &orderFixture{
		products: newStubProductRepo(products...),
		orders:   newStubOrderRepo(),
		addresses: newStubAddressRepo(&domain.Address{
			ID: testAddress, UserID: testUser, FullName: "Asha", Phone: "+91", Street: "MG Road", City: "Kochi", Pincode: "682001",
		}),
		cart:    &stubCartStore{},
		gateway: newFakeGateway(),
		dedup:   newStubDedup(),
		sink:    &recordingSink{},
	}
	f.svc = NewOrderService(OrderServiceConfig{
		Tx:         &stubTx{products: f.products, orders: f.orders},
		Orders:     f.orders,
		Products:   f.products,
		Addresses:  f.addresses,
		Cart:       f.cart,
		Gateway:    f.gateway,
		Dedup:      f.dedup,
		Events:     f.sink,
		SuccessURL: "https://shop.example/payment-success",
		CancelURL:  "https://shop.example/payment",
		Logger:     zerolog.Nop(),
	})
	return f
}

func shirt(stock int) *domain.Product {
	return &domain.Product{
		ID:    "p-shirt",
		Name:  "Linen Shirt",
		Price: decimal.RequireFromString("99.99"),
		Stock: stock,
	}
}

func codInput(lines ...ports.CartLineInput) ports.CreateOrderInput {
	return ports.CreateOrderInput{
		UserID:        testUser,
		Cart:          lines,
		AddressID:     testAddress,
		PaymentMethod: "cod",
	}
}

func line(productID, name, price string, qty int) ports.CartLineInput {
	return ports.CartLineInput{ProductID: productID, Name: name, Price: price, Quantity: qty}
}

// ---------------------------------------------------------------------------
// CreateOrder
// ---------------------------------------------------------------------------

func TestCreateOrder_CODSuccess(t *testing.T) {
	f := newOrderFixture()

	res, err := f.svc.CreateOrder(context.Background(), codInput(line("p-shirt", "Linen Shirt", "99.99", 2)))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if res.PaymentMethod != domain.PaymentCOD {
		t.Errorf("payment method = %s, want cod", res.PaymentMethod)
	}
	if res.Status != domain.OrderProcessing {
		t.Errorf("status = %s, want processing", res.Status)
	}
	if res.CheckoutURL != "" {
		t.Errorf("unexpected checkout URL for COD: %q", res.CheckoutURL)
	}

	order := f.orders.get(res.OrderID)
	if order.Status != domain.OrderProcessing {
		t.Errorf("stored status = %s, want processing", order.Status)
	}
	if order.PaymentStatus != domain.PaymentUnpaid {
		t.Errorf("payment status = %s, want unpaid (COD settles on delivery)", order.PaymentStatus)
	}
	if want := decimal.RequireFromString("199.98"); !order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", order.TotalAmount, want)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v, want one line of quantity 2", order.Items)
	}
	if !order.Items[0].Price.Equal(decimal.RequireFromString("99.99")) {
		t.Errorf("frozen item price = %s, want 99.99", order.Items[0].Price)
	}
	if got := f.products.stock("p-shirt"); got != 8 {
		t.Errorf("stock = %d, want 8", got)
	}
	if len(f.cart.cleared) != 1 || f.cart.cleared[0] != testUser {
		t.Errorf("cart cleared for %v, want exactly [%s]", f.cart.cleared, testUser)
	}
}

func TestCreateOrder_TotalIsExactDecimalSum(t *testing.T) {
	f := newOrderFixture(
		shirt(10),
		&domain.Product{ID: "p-jeans", Name: "Jeans", Price: decimal.RequireFromString("249.50"), Stock: 5},
	)

	res, err := f.svc.CreateOrder(context.Background(), codInput(
		line("p-shirt", "Linen Shirt", "99.99", 3),
		line("p-jeans", "Jeans", "249.50", 1),
	))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	order := f.orders.get(res.OrderID)
	want := decimal.RequireFromString("549.47") // 99.99*3 + 249.50
	if !order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", order.TotalAmount, want)
	}
	perProduct := map[string]int{}
	for _, it := range order.Items {
		perProduct[it.ProductID] += it.Quantity
	}
	if perProduct["p-shirt"] != 3 || perProduct["p-jeans"] != 1 {
		t.Errorf("item quantities = %v, want shirt 3 / jeans 1", perProduct)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture(shirt(3))

	_, err := f.svc.CreateOrder(context.Background(), codInput(line("p-shirt", "Linen Shirt", "99.99", 5)))
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if !strings.Contains(err.Error(), "Linen Shirt") || !strings.Contains(err.Error(), "3") {
		t.Errorf("error %q should name the product and the available count", err)
	}
	if f.orders.count() != 0 {
		t.Errorf("orders persisted = %d, want 0", f.orders.count())
	}
	if got := f.products.stock("p-shirt"); got != 3 {
		t.Errorf("stock = %d, want unchanged 3", got)
	}
	if len(f.cart.cleared) != 0 {
		t.Error("cart must not be cleared on failure")
	}
}

func TestCreateOrder_MultiLineFailureRollsBackEverything(t *testing.T) {
	f := newOrderFixture(
		shirt(10),
		&domain.Product{ID: "p-jeans", Name: "Jeans", Price: decimal.RequireFromString("249.50"), Stock: 1},
	)

	_, err := f.svc.CreateOrder(context.Background(), codInput(
		line("p-shirt", "Linen Shirt", "99.99", 2), // would succeed alone
		line("p-jeans", "Jeans", "249.50", 2),      // insufficient
	))
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if got := f.products.stock("p-shirt"); got != 10 {
		t.Errorf("first line's stock = %d, want rolled back to 10", got)
	}
	if got := f.products.stock("p-jeans"); got != 1 {
		t.Errorf("second line's stock = %d, want unchanged 1", got)
	}
	if f.orders.count() != 0 {
		t.Errorf("orders persisted = %d, want 0", f.orders.count())
	}
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(context.Background(), codInput(line("p-ghost", "Ghost Jacket", "10.00", 1)))
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
	if !strings.Contains(err.Error(), "Ghost Jacket") {
		t.Errorf("error %q should name the missing item", err)
	}
	if f.orders.count() != 0 {
		t.Error("no order may be persisted when a product is missing")
	}
}

func TestCreateOrder_AddressRequired(t *testing.T) {
	f := newOrderFixture()

	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 1))
	in.AddressID = ""
	_, err := f.svc.CreateOrder(context.Background(), in)
	if !errors.Is(err, domain.ErrAddressRequired) {
		t.Fatalf("err = %v, want ErrAddressRequired", err)
	}
	if f.orders.count() != 0 {
		t.Error("no order may be persisted without an address")
	}
}

func TestCreateOrder_ForeignAddressRejected(t *testing.T) {
	f := newOrderFixture()
	_ = f.addresses.Create(context.Background(), &domain.Address{ID: "addr-other", UserID: "someone-else"})

	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 1))
	in.AddressID = "addr-other"
	_, err := f.svc.CreateOrder(context.Background(), in)
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("err = %v, want ErrAddressNotFound", err)
	}
}

func TestCreateOrder_InlineAddressCreated(t *testing.T) {
	f := newOrderFixture()

	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 1))
	in.AddressID = ""
	in.Address = &ports.NewAddressInput{FullName: "Ravi", Phone: "+91", Street: "Brigade Rd", City: "Bengaluru", Pincode: "560001"}

	res, err := f.svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	order := f.orders.get(res.OrderID)
	created, err := f.addresses.FindByIDForUser(context.Background(), order.AddressID, testUser)
	if err != nil {
		t.Fatalf("inline address not persisted for user: %v", err)
	}
	if created.City != "Bengaluru" {
		t.Errorf("address city = %s, want Bengaluru", created.City)
	}
}

func TestCreateOrder_InvalidPaymentMethod(t *testing.T) {
	f := newOrderFixture()

	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 1))
	in.PaymentMethod = "paypal"
	if _, err := f.svc.CreateOrder(context.Background(), in); !errors.Is(err, domain.ErrInvalidPaymentMethod) {
		t.Fatalf("err = %v, want ErrInvalidPaymentMethod", err)
	}
}

func TestCreateOrder_InvalidCart(t *testing.T) {
	f := newOrderFixture()

	cases := map[string]ports.CreateOrderInput{
		"empty cart":    codInput(),
		"bad price":     codInput(line("p-shirt", "Linen Shirt", "ninety-nine", 1)),
		"zero quantity": codInput(line("p-shirt", "Linen Shirt", "99.99", 0)),
		"negative price": codInput(ports.CartLineInput{
			ProductID: "p-shirt", Name: "Linen Shirt", Price: "-1.00", Quantity: 1,
		}),
	}
	for name, in := range cases {
		if _, err := f.svc.CreateOrder(context.Background(), in); !errors.Is(err, domain.ErrInvalidCart) {
			t.Errorf("%s: err = %v, want ErrInvalidCart", name, err)
		}
	}
	if f.orders.count() != 0 {
		t.Error("invalid carts must not persist orders")
	}
}

func TestCreateOrder_StripeSuccess(t *testing.T) {
	f := newOrderFixture()

	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 2))
	in.PaymentMethod = "stripe"
	res, err := f.svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if res.CheckoutURL == "" {
		t.Fatal("expected a checkout URL for hosted payment")
	}

	order := f.orders.get(res.OrderID)
	if order.Status != domain.OrderPending {
		t.Errorf("status = %s, want pending until payment confirms", order.Status)
	}
	if order.CheckoutSessionID == "" {
		t.Error("checkout session id not persisted on the order")
	}

	gw := f.gateway.lastInput
	if gw.OrderID != res.OrderID {
		t.Errorf("session metadata order id = %s, want %s", gw.OrderID, res.OrderID)
	}
	if len(gw.LineItems) != 1 {
		t.Fatalf("gateway line items = %d, want 1", len(gw.LineItems))
	}
	if gw.LineItems[0].UnitAmount != 9999 || gw.LineItems[0].Quantity != 2 {
		t.Errorf("line item = %+v, want unit amount 9999 (minor units) and quantity 2", gw.LineItems[0])
	}
	if got := f.products.stock("p-shirt"); got != 8 {
		t.Errorf("stock = %d, want 8 (reserved before checkout)", got)
	}
}

func TestCreateOrder_GatewayFailureCompensates(t *testing.T) {
	f := newOrderFixture()
	f.gateway.createErr = errors.New("provider is down")

	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 2))
	in.PaymentMethod = "stripe"
	res, err := f.svc.CreateOrder(context.Background(), in)
	if res != nil {
		t.Fatal("expected no result on gateway failure")
	}
	var gwErr *domain.PaymentGatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want PaymentGatewayError", err)
	}
	if !strings.Contains(err.Error(), "provider is down") {
		t.Errorf("error %q should carry the provider message", err)
	}

	if got := f.products.stock("p-shirt"); got != 10 {
		t.Errorf("stock = %d, want 10 (reservation compensated)", got)
	}
	if f.products.released["p-shirt"] != 2 {
		t.Errorf("released = %d, want 2", f.products.released["p-shirt"])
	}
	// The order itself survives as an audit record, marked failed.
	if f.orders.count() != 1 {
		t.Fatalf("orders = %d, want the failed order kept", f.orders.count())
	}
	for _, o := range f.orders.orders {
		if o.Status != domain.OrderFailed {
			t.Errorf("order status = %s, want failed", o.Status)
		}
	}
}

func TestCreateOrder_ConcurrentStockNeverOversells(t *testing.T) {
	const stock = 10
	f := newOrderFixture(shirt(stock))

	const workers = 8
	const perOrder = stock/2 + 1 // 6: two of these cannot both fit

	var wg sync.WaitGroup
	successes := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.CreateOrder(context.Background(), codInput(line("p-shirt", "Linen Shirt", "99.99", perOrder)))
			if err == nil {
				successes <- res.OrderID
			}
		}()
	}
	wg.Wait()
	close(successes)

	var won int
	for range successes {
		won++
	}
	if won != 1 {
		t.Errorf("concurrent orders succeeded = %d, want exactly 1", won)
	}
	if got := f.products.stock("p-shirt"); got != stock-perOrder {
		t.Errorf("final stock = %d, want %d", got, stock-perOrder)
	}
	if got := f.products.stock("p-shirt"); got < 0 {
		t.Errorf("stock went negative: %d", got)
	}
}

// ---------------------------------------------------------------------------
// VerifyPayment
// ---------------------------------------------------------------------------

// placeStripeOrder creates a hosted-payment order through the service and
// returns its id and session id.
func placeStripeOrder(t *testing.T, f *orderFixture) (orderID, sessionID string) {
	t.Helper()
	in := codInput(line("p-shirt", "Linen Shirt", "99.99", 1))
	in.PaymentMethod = "stripe"
	res, err := f.svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("place stripe order: %v", err)
	}
	return res.OrderID, f.orders.get(res.OrderID).CheckoutSessionID
}

func TestVerifyPayment_CODAlwaysVerified(t *testing.T) {
	f := newOrderFixture()

	res, err := f.svc.CreateOrder(context.Background(), codInput(line("p-shirt", "Linen Shirt", "99.99", 1)))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	// Simulate a session whose metadata points at the COD order.
	f.gateway.sessions["cs_cod"] = &ports.SessionStatus{OrderID: res.OrderID}

	got, err := f.svc.VerifyPayment(context.Background(), testUser, "cs_cod")
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if !got.Verified {
		t.Error("COD orders must always verify")
	}
	if got.Status != domain.OrderProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
}

func TestVerifyPayment_PaidTransitionsOnceAndIsIdempotent(t *testing.T) {
	f := newOrderFixture()
	orderID, sessionID := placeStripeOrder(t, f)
	f.gateway.setPaid(sessionID)

	first, err := f.svc.VerifyPayment(context.Background(), testUser, sessionID)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if !first.Verified || first.Status != domain.OrderProcessing {
		t.Errorf("first verify = %+v, want verified, processing", first)
	}
	order := f.orders.get(orderID)
	if order.PaymentStatus != domain.PaymentPaid {
		t.Errorf("payment status = %s, want paid", order.PaymentStatus)
	}

	second, err := f.svc.VerifyPayment(context.Background(), testUser, sessionID)
	if err != nil {
		t.Fatalf("second VerifyPayment: %v", err)
	}
	if *second != *first {
		t.Errorf("second verify = %+v, want identical to first %+v", second, first)
	}
}

func TestVerifyPayment_UnpaidSessionLeavesOrderPending(t *testing.T) {
	f := newOrderFixture()
	orderID, sessionID := placeStripeOrder(t, f)

	got, err := f.svc.VerifyPayment(context.Background(), testUser, sessionID)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if got.Verified {
		t.Error("unpaid session must not verify")
	}
	if f.orders.get(orderID).Status != domain.OrderPending {
		t.Error("order must stay pending until the gateway reports paid")
	}
}

func TestVerifyPayment_InvalidSession(t *testing.T) {
	f := newOrderFixture()
	if _, err := f.svc.VerifyPayment(context.Background(), testUser, "cs_nope"); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("err = %v, want ErrInvalidSession", err)
	}
}

func TestVerifyPayment_MissingMetadata(t *testing.T) {
	f := newOrderFixture()
	f.gateway.sessions["cs_blank"] = &ports.SessionStatus{Paid: true}
	if _, err := f.svc.VerifyPayment(context.Background(), testUser, "cs_blank"); !errors.Is(err, domain.ErrSessionMetadata) {
		t.Fatalf("err = %v, want ErrSessionMetadata", err)
	}
}

func TestVerifyPayment_ForeignOrder(t *testing.T) {
	f := newOrderFixture()
	_, sessionID := placeStripeOrder(t, f)
	if _, err := f.svc.VerifyPayment(context.Background(), "intruder", sessionID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

func TestHandleWebhookEvent_MarksOrderPaid(t *testing.T) {
	f := newOrderFixture()
	orderID, _ := placeStripeOrder(t, f)

	err := f.svc.HandleWebhookEvent(context.Background(), ports.WebhookEvent{
		ID: "evt_1", OrderID: orderID, CheckoutCompleted: true,
	})
	if err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}
	order := f.orders.get(orderID)
	if order.PaymentStatus != domain.PaymentPaid || order.Status != domain.OrderProcessing {
		t.Errorf("order = %s/%s, want paid/processing", order.PaymentStatus, order.Status)
	}
}

func TestHandleWebhookEvent_RedeliverySafe(t *testing.T) {
	f := newOrderFixture()
	orderID, _ := placeStripeOrder(t, f)

	// Same event twice (dedup hit) plus a distinct re-notification: all fine.
	for _, id := range []string{"evt_1", "evt_1", "evt_2"} {
		err := f.svc.HandleWebhookEvent(context.Background(), ports.WebhookEvent{
			ID: id, OrderID: orderID, CheckoutCompleted: true,
		})
		if err != nil {
			t.Fatalf("HandleWebhookEvent(%s): %v", id, err)
		}
	}
	order := f.orders.get(orderID)
	if order.PaymentStatus != domain.PaymentPaid || order.Status != domain.OrderProcessing {
		t.Errorf("order = %s/%s, want paid/processing", order.PaymentStatus, order.Status)
	}
}

func TestHandleWebhookEvent_DoesNotRegressShippedOrder(t *testing.T) {
	f := newOrderFixture()
	orderID, _ := placeStripeOrder(t, f)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(f.svc.HandleWebhookEvent(context.Background(), ports.WebhookEvent{ID: "evt_1", OrderID: orderID, CheckoutCompleted: true}))
	if _, err := f.svc.UpdateOrderStatus(context.Background(), orderID, domain.OrderShipped); err != nil {
		t.Fatal(err)
	}
	must(f.svc.HandleWebhookEvent(context.Background(), ports.WebhookEvent{ID: "evt_9", OrderID: orderID, CheckoutCompleted: true}))

	if got := f.orders.get(orderID).Status; got != domain.OrderShipped {
		t.Errorf("status = %s, want shipped (late webhook must not regress fulfilment)", got)
	}
}

func TestHandleWebhookEvent_IgnoresOtherEventTypes(t *testing.T) {
	f := newOrderFixture()
	orderID, _ := placeStripeOrder(t, f)

	err := f.svc.HandleWebhookEvent(context.Background(), ports.WebhookEvent{
		ID: "evt_other", OrderID: orderID, CheckoutCompleted: false,
	})
	if err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}
	if got := f.orders.get(orderID).PaymentStatus; got != domain.PaymentUnpaid {
		t.Errorf("payment status = %s, want untouched unpaid", got)
	}
}

// ---------------------------------------------------------------------------
// Fulfilment transitions and listing
// ---------------------------------------------------------------------------

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	f := newOrderFixture()
	res, err := f.svc.CreateOrder(context.Background(), codInput(line("p-shirt", "Linen Shirt", "99.99", 1)))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := f.svc.UpdateOrderStatus(context.Background(), res.OrderID, domain.OrderDelivered); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("processing→delivered err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.UpdateOrderStatus(context.Background(), res.OrderID, domain.OrderShipped); err != nil {
		t.Fatalf("processing→shipped: %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(context.Background(), res.OrderID, domain.OrderProcessing); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("shipped→processing err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.UpdateOrderStatus(context.Background(), res.OrderID, domain.OrderDelivered); err != nil {
		t.Fatalf("shipped→delivered: %v", err)
	}
}

func TestListOrders_OnlyOwn(t *testing.T) {
	f := newOrderFixture(shirt(100))

	if _, err := f.svc.CreateOrder(context.Background(), codInput(line("p-shirt", "Linen Shirt", "99.99", 1))); err != nil {
		t.Fatal(err)
	}
	other := codInput(line("p-shirt", "Linen Shirt", "99.99", 1))
	other.UserID = "user-2"
	other.AddressID = ""
	other.Address = &ports.NewAddressInput{FullName: "Z", Phone: "1", Street: "S", City: "C", Pincode: "0"}
	if _, err := f.svc.CreateOrder(context.Background(), other); err != nil {
		t.Fatal(err)
	}

	mine, err := f.svc.ListOrders(context.Background(), testUser)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("orders = %d, want 1", len(mine))
	}
	if mine[0].UserID != testUser {
		t.Errorf("order owner = %s, want %s", mine[0].UserID, testUser)
	}
}
