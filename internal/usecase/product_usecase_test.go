package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

// fakeTx реализует pgx.Tx без реального соединения.
type fakeTx struct{}

func (fakeTx) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(context.Context) error          { return nil }
func (fakeTx) Rollback(context.Context) error        { return nil }
func (fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (fakeTx) Conn() *pgx.Conn                                         { return nil }

type fakeDB struct{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{}, nil
}

// fakeProductRepo хранит товары в памяти и повторяет контракт хранилища,
// включая уникальное ограничение на имя.
type fakeProductRepo struct {
	mu           sync.Mutex
	nextID       int64
	products     map[int64]domain.Product
	getByIDCalls int
	getAllCalls  int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]domain.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.products {
		if existing.Name == product.Name {
			return nil, e.ErrProductNameTaken
		}
	}

	f.nextID++
	stored := *product
	stored.ID = f.nextID
	stored.CreatedAt = time.Now()
	f.products[stored.ID] = stored

	result := stored
	return &result, nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.products[product.ID]
	if !ok {
		return nil, e.ErrProductNotFound
	}

	for id, other := range f.products {
		if id != product.ID && other.Name == product.Name {
			return nil, e.ErrProductNameTaken
		}
	}

	now := time.Now()
	stored := *product
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = &now
	f.products[stored.ID] = stored

	result := stored
	return &result, nil
}

func (f *fakeProductRepo) DeleteByID(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return e.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getByIDCalls++
	product, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	result := product
	return &result, nil
}

func (f *fakeProductRepo) GetByName(_ context.Context, name string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, product := range f.products {
		if product.Name == name {
			result := product
			return &result, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (f *fakeProductRepo) GetAll(_ context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getAllCalls++
	result := make([]domain.Product, 0, len(f.products))
	for _, product := range f.products {
		result = append(result, product)
	}
	return result, nil
}

func (f *fakeProductRepo) GetByMaxPrice(_ context.Context, maxPrice decimal.Decimal) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]domain.Product, 0)
	for _, product := range f.products {
		if product.Price.LessThanOrEqual(maxPrice) {
			result = append(result, product)
		}
	}
	return result, nil
}

func (f *fakeProductRepo) GetLowStock(_ context.Context, threshold int32) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]domain.Product, 0)
	for _, product := range f.products {
		if product.StockQuantity <= threshold {
			result = append(result, product)
		}
	}
	return result, nil
}

func (f *fakeProductRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, product := range f.products {
		if product.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProductRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.products[id]
	return ok, nil
}

func (f *fakeProductRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products)
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	nextID int64
	events []*OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	stored := *event
	stored.ID = f.nextID
	f.events = append(f.events, &stored)
	return &stored, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

func (f *fakeOutboxRepo) eventTypes() []OutboxEventType {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]OutboxEventType, 0, len(f.events))
	for _, event := range f.events {
		types = append(types, event.EventType)
	}
	return types
}

type fakeCacheRepo struct {
	mu            sync.Mutex
	singles       map[string]domain.Product
	lists         map[string][]domain.Product
	invalidations int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{
		singles: make(map[string]domain.Product),
		lists:   make(map[string][]domain.Product),
	}
}

func (f *fakeCacheRepo) GetProduct(_ context.Context, key string) (*domain.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.singles[key]
	if !ok {
		return nil, false, nil
	}
	result := product
	return &result, true, nil
}

func (f *fakeCacheRepo) SetProduct(_ context.Context, key string, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.singles[key] = *product
	return nil
}

func (f *fakeCacheRepo) GetProducts(_ context.Context, key string) ([]domain.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	products, ok := f.lists[key]
	if !ok {
		return nil, false, nil
	}
	return append([]domain.Product(nil), products...), true, nil
}

func (f *fakeCacheRepo) SetProducts(_ context.Context, key string, products []domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lists[key] = append([]domain.Product(nil), products...)
	return nil
}

func (f *fakeCacheRepo) InvalidateAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.singles = make(map[string]domain.Product)
	f.lists = make(map[string][]domain.Product)
	f.invalidations++
	return nil
}

func newTestUC() (*ProductUseCase, *fakeProductRepo, *fakeOutboxRepo, *fakeCacheRepo) {
	productRepo := newFakeProductRepo()
	outboxRepo := &fakeOutboxRepo{}
	cacheRepo := newFakeCacheRepo()
	uc := NewProductUC(productRepo, outboxRepo, cacheRepo, fakeDB{}, nopLogger{})
	return uc, productRepo, outboxRepo, cacheRepo
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestCreateProduct_ThenGetByIDReturnsEqualRecord(t *testing.T) {
	uc, _, outbox, _ := newTestUC()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, NewCreateProductReq("Test Product", "desc", mustDecimal(t, "99.99"), 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := uc.GetProductByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != created.Name || got.Description != created.Description ||
		!got.Price.Equal(created.Price) || got.StockQuantity != created.StockQuantity {
		t.Fatalf("record mismatch: created %+v, got %+v", created, got)
	}

	types := outbox.eventTypes()
	if len(types) != 1 || types[0] != ProductCreated {
		t.Fatalf("expected single product.created event, got %v", types)
	}
}

func TestCreateProduct_DuplicateNameFailsWithoutWrite(t *testing.T) {
	uc, repo, outbox, _ := newTestUC()
	ctx := context.Background()

	if _, err := uc.CreateProduct(ctx, NewCreateProductReq("Widget", "", mustDecimal(t, "5"), 1)); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	_, err := uc.CreateProduct(ctx, NewCreateProductReq("Widget", "other", mustDecimal(t, "7"), 2))
	if !errors.Is(err, e.ErrProductNameTaken) {
		t.Fatalf("expected ErrProductNameTaken, got %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected no write, have %d products", repo.count())
	}
	if len(outbox.eventTypes()) != 1 {
		t.Fatalf("expected no extra outbox event")
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	uc, _, _, _ := newTestUC()
	ctx := context.Background()

	cases := []struct {
		name string
		req  *CreateProductReq
		want error
	}{
		{"empty name", NewCreateProductReq("  ", "", mustDecimal(t, "1"), 1), e.ErrProductNameRequired},
		{"negative price", NewCreateProductReq("a", "", mustDecimal(t, "-1"), 1), e.ErrInvalidPrice},
		{"price precision", NewCreateProductReq("b", "", mustDecimal(t, "1.999"), 1), e.ErrPricePrecision},
		{"negative stock", NewCreateProductReq("c", "", mustDecimal(t, "1"), -1), e.ErrInvalidStock},
	}

	for _, tc := range cases {
		if _, err := uc.CreateProduct(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestGetProductByID_SecondReadServedFromCache(t *testing.T) {
	uc, repo, _, _ := newTestUC()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, NewCreateProductReq("Cached", "", mustDecimal(t, "10"), 5))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := uc.GetProductByID(ctx, created.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := uc.GetProductByID(ctx, created.ID); err != nil {
		t.Fatalf("second get: %v", err)
	}

	if repo.getByIDCalls != 1 {
		t.Fatalf("expected 1 storage read, got %d", repo.getByIDCalls)
	}
}

func TestGetProductByID_NotFound(t *testing.T) {
	uc, _, _, _ := newTestUC()

	_, err := uc.GetProductByID(context.Background(), 42)
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestMutationInvalidatesCachedQueries(t *testing.T) {
	uc, _, _, cache := newTestUC()
	ctx := context.Background()

	if _, err := uc.CreateProduct(ctx, NewCreateProductReq("First", "", mustDecimal(t, "1"), 1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := uc.GetAllProducts(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 product, got %d", len(all))
	}

	if _, err := uc.CreateProduct(ctx, NewCreateProductReq("Second", "", mustDecimal(t, "2"), 2)); err != nil {
		t.Fatalf("second create: %v", err)
	}

	all, err = uc.GetAllProducts(ctx)
	if err != nil {
		t.Fatalf("get all after mutation: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("stale cache hit: expected 2 products, got %d", len(all))
	}

	if cache.invalidations < 2 {
		t.Fatalf("expected invalidation per mutation, got %d", cache.invalidations)
	}
}

func TestUpdateProduct_PartialMerge(t *testing.T) {
	uc, _, outbox, _ := newTestUC()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, NewCreateProductReq("Test Product", "original", mustDecimal(t, "99.99"), 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := mustDecimal(t, "89.99")
	updated, err := uc.UpdateProduct(ctx, created.ID, &UpdateProductReq{Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected price %s, got %s", newPrice, updated.Price)
	}
	if updated.Name != "Test Product" || updated.Description != "original" || updated.StockQuantity != 10 {
		t.Fatalf("unspecified fields changed: %+v", updated)
	}

	types := outbox.eventTypes()
	if types[len(types)-1] != ProductUpdated {
		t.Fatalf("expected product.updated event, got %v", types)
	}
}

func TestUpdateProduct_EmptyPatchKeepsContent(t *testing.T) {
	uc, _, _, _ := newTestUC()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, NewCreateProductReq("NoChange", "desc", mustDecimal(t, "3.50"), 7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := uc.UpdateProduct(ctx, created.ID, &UpdateProductReq{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != created.Name || updated.Description != created.Description ||
		!updated.Price.Equal(created.Price) || updated.StockQuantity != created.StockQuantity {
		t.Fatalf("empty patch changed content: %+v", updated)
	}
}

func TestUpdateProduct_NotFoundCausesNoStateChange(t *testing.T) {
	uc, repo, outbox, _ := newTestUC()

	name := "ghost"
	_, err := uc.UpdateProduct(context.Background(), 99, &UpdateProductReq{Name: &name})
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if repo.count() != 0 || len(outbox.eventTypes()) != 0 {
		t.Fatalf("expected no state change")
	}
}

// Переименование в занятое имя отклоняется ограничением хранилища,
// а не предварительной проверкой сервиса.
func TestUpdateProduct_NameCollisionRejectedByStorage(t *testing.T) {
	uc, _, _, _ := newTestUC()
	ctx := context.Background()

	if _, err := uc.CreateProduct(ctx, NewCreateProductReq("Alpha", "", mustDecimal(t, "1"), 1)); err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	beta, err := uc.CreateProduct(ctx, NewCreateProductReq("Beta", "", mustDecimal(t, "2"), 2))
	if err != nil {
		t.Fatalf("create beta: %v", err)
	}

	taken := "Alpha"
	_, err = uc.UpdateProduct(ctx, beta.ID, &UpdateProductReq{Name: &taken})
	if !errors.Is(err, e.ErrProductNameTaken) {
		t.Fatalf("expected ErrProductNameTaken, got %v", err)
	}
}

func TestDeleteProduct_NotFound(t *testing.T) {
	uc, _, _, _ := newTestUC()

	err := uc.DeleteProduct(context.Background(), 1)
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPriceAndStockFilters(t *testing.T) {
	uc, _, _, cache := newTestUC()
	ctx := context.Background()

	seed := []struct {
		name  string
		price string
		stock int32
	}{
		{"cheap", "5.00", 100},
		{"exact", "10.00", 10},
		{"pricey", "15.00", 3},
	}
	for _, s := range seed {
		if _, err := uc.CreateProduct(ctx, NewCreateProductReq(s.name, "", mustDecimal(t, s.price), s.stock)); err != nil {
			t.Fatalf("seed %s: %v", s.name, err)
		}
	}

	byPrice, err := uc.GetProductsByMaxPrice(ctx, mustDecimal(t, "10.00"))
	if err != nil {
		t.Fatalf("by price: %v", err)
	}
	if len(byPrice) != 2 {
		t.Fatalf("price filter must be inclusive: expected 2, got %d", len(byPrice))
	}

	lowStock, err := uc.GetLowStockProducts(ctx, 10)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(lowStock) != 2 {
		t.Fatalf("stock filter must be inclusive: expected 2, got %d", len(lowStock))
	}

	// Формы запросов не должны делить ключ кэша
	if _, ok := cache.lists[maxPriceKey(mustDecimal(t, "10.00"))]; !ok {
		t.Fatalf("expected price-qualified cache key")
	}
	if _, ok := cache.lists[lowStockKey(10)]; !ok {
		t.Fatalf("expected lowStock-qualified cache key")
	}
}

func TestGetProductByName_KeyDoesNotCollideWithID(t *testing.T) {
	uc, _, _, cache := newTestUC()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, NewCreateProductReq("42", "name looks like id", mustDecimal(t, "1"), 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := uc.GetProductByName(ctx, "42"); err != nil {
		t.Fatalf("by name: %v", err)
	}
	if _, err := uc.GetProductByID(ctx, created.ID); err != nil {
		t.Fatalf("by id: %v", err)
	}

	if _, ok := cache.singles[productNameKey("42")]; !ok {
		t.Fatalf("expected name-qualified cache key")
	}
	if _, ok := cache.singles[productIDKey(created.ID)]; !ok {
		t.Fatalf("expected id-qualified cache key")
	}
}

func TestExistsByName_Passthrough(t *testing.T) {
	uc, _, _, _ := newTestUC()
	ctx := context.Background()

	exists, err := uc.ExistsByName(ctx, "missing")
	if err != nil || exists {
		t.Fatalf("expected false, got %v, %v", exists, err)
	}

	if _, err := uc.CreateProduct(ctx, NewCreateProductReq("present", "", mustDecimal(t, "1"), 1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err = uc.ExistsByName(ctx, "present")
	if err != nil || !exists {
		t.Fatalf("expected true, got %v, %v", exists, err)
	}
}

func TestProductLifecycle(t *testing.T) {
	uc, _, outbox, _ := newTestUC()
	ctx := context.Background()

	created, err := uc.CreateProduct(ctx, NewCreateProductReq("Test Product", "", mustDecimal(t, "99.99"), 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := mustDecimal(t, "89.99")
	updated, err := uc.UpdateProduct(ctx, created.ID, &UpdateProductReq{Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Price.Equal(newPrice) || updated.Name != "Test Product" || updated.StockQuantity != 10 {
		t.Fatalf("unexpected merge result: %+v", updated)
	}

	if err := uc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := uc.GetProductByID(ctx, created.ID); !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}

	want := []OutboxEventType{ProductCreated, ProductUpdated, ProductDeleted}
	got := outbox.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("expected %v events, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
