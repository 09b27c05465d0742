package cart

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sssssubin/cart-service/internal/catalog"
	"github.com/sssssubin/cart-service/pkg/db/models"
	pkgerrors "github.com/sssssubin/cart-service/pkg/errors"
)

// monday keeps quotes free of the weekday discount.
var monday = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price INTEGER NOT NULL,
  stock INTEGER NOT NULL,
  bulk_discount_rate NUMERIC NOT NULL DEFAULT 0,
  tags TEXT,
  position INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	products := []models.Product{
		{ID: "p1", Name: "Product 1", Price: 10000, Stock: 50, BulkDiscountRate: decimal.RequireFromString("0.1"), Tags: pq.StringArray{}, Position: 1},
		{ID: "p2", Name: "Product 2", Price: 20000, Stock: 30, BulkDiscountRate: decimal.RequireFromString("0.15"), Tags: pq.StringArray{}, Position: 2},
		{ID: "p3", Name: "Product 3", Price: 30000, Stock: 20, BulkDiscountRate: decimal.RequireFromString("0.2"), Tags: pq.StringArray{}, Position: 3},
		{ID: "p4", Name: "Product 4", Price: 15000, Stock: 0, BulkDiscountRate: decimal.RequireFromString("0.05"), Tags: pq.StringArray{}, Position: 4},
		{ID: "p5", Name: "Product 5", Price: 25000, Stock: 10, BulkDiscountRate: decimal.RequireFromString("0.25"), Tags: pq.StringArray{}, Position: 5},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	return db
}

func newTestService(t *testing.T) (Service, *catalog.Repository, *fakeKV) {
	t.Helper()

	db := setupCartTestDB(t)
	repo := catalog.NewRepository(db)
	kv := newFakeKV()
	snapshots, err := NewSnapshotStore(kv, time.Hour)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Tx:        testTxRunner{db: db},
		Snapshots: snapshots,
		Now:       func() time.Time { return monday },
	})
	require.NoError(t, err)
	return svc, repo, kv
}

func stockOf(t *testing.T, repo *catalog.Repository, id string) int {
	t.Helper()
	product, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestServiceAddProductReservesStockAndMergesLines(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)

	view, err = svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, "Product 1", view.Lines[0].Name)
	assert.True(t, decimal.NewFromInt(20000).Equal(view.Quote.Total))
	assert.Equal(t, int64(20), view.Quote.LoyaltyPoints)

	assert.Equal(t, 48, stockOf(t, repo, "p1"))
}

func TestServiceAddProductOutOfStock(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", "p4")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOutOfStock, pkgerrors.As(err).Code())
	assert.Equal(t, 0, stockOf(t, repo, "p4"))

	view, err := svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestServiceAddUnknownProductIsOutOfStock(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AddProduct(context.Background(), "sess-1", "ghost")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOutOfStock, pkgerrors.As(err).Code())
}

func TestServiceChangeQuantityMissingLineIsNoOp(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)

	view, err := svc.ChangeQuantity(ctx, "sess-1", "p2", 3)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "p1", view.Lines[0].ProductID)
	assert.Equal(t, 30, stockOf(t, repo, "p2"))
}

func TestServiceChangeQuantityIncrease(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)

	view, err := svc.ChangeQuantity(ctx, "sess-1", "p1", 4)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)
	assert.Equal(t, 45, stockOf(t, repo, "p1"))
}

func TestServiceChangeQuantityInsufficientStock(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", "p5")
	require.NoError(t, err)
	assert.Equal(t, 9, stockOf(t, repo, "p5"))

	_, err = svc.ChangeQuantity(ctx, "sess-1", "p5", 10)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOutOfStock, pkgerrors.As(err).Code())

	view, err := svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)
	assert.Equal(t, 9, stockOf(t, repo, "p5"))
}

func TestServiceChangeQuantityToZeroRemovesLineAndRestoresStock(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)
	_, err = svc.ChangeQuantity(ctx, "sess-1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 47, stockOf(t, repo, "p1"))

	view, err := svc.ChangeQuantity(ctx, "sess-1", "p1", -5)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Quote.Total.IsZero())
	assert.Equal(t, 50, stockOf(t, repo, "p1"))
}

func TestServiceChangeQuantityDecrease(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", "p3")
	require.NoError(t, err)
	_, err = svc.ChangeQuantity(ctx, "sess-1", "p3", 2)
	require.NoError(t, err)

	view, err := svc.ChangeQuantity(ctx, "sess-1", "p3", -1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, 18, stockOf(t, repo, "p3"))
}

func TestServiceRemoveLineRestoresFullQuantity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.AddProduct(ctx, "sess-1", "p2")
		require.NoError(t, err)
	}
	assert.Equal(t, 27, stockOf(t, repo, "p2"))

	view, err := svc.RemoveLine(ctx, "sess-1", "p2")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 30, stockOf(t, repo, "p2"))

	// absent line is a no-op
	view, err = svc.RemoveLine(ctx, "sess-1", "p2")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 30, stockOf(t, repo, "p2"))
}

func TestServiceQuoteAppliesLineDiscount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var view *View
	var err error
	for i := 0; i < 10; i++ {
		view, err = svc.AddProduct(ctx, "sess-1", "p1")
		require.NoError(t, err)
	}

	assert.True(t, decimal.NewFromInt(100000).Equal(view.Quote.Subtotal))
	assert.True(t, decimal.NewFromInt(90000).Equal(view.Quote.Total))
	assert.True(t, decimal.RequireFromString("0.1").Equal(view.Quote.DiscountRate))
	assert.Equal(t, int64(90), view.Quote.LoyaltyPoints)
}

func TestServiceSelectProduct(t *testing.T) {
	svc, _, kv := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SelectProduct(ctx, "sess-1", "p3"))
	assert.Equal(t, "p3", kv.data[kv.LastSelectedKey("")])
	assert.Equal(t, "p3", kv.data[kv.LastSelectedKey("sess-1")])

	err := svc.SelectProduct(ctx, "sess-1", "ghost")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceRestoreClampsAndReplacesCart(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// session already holds stock; restore must give it back first
	_, err := svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 48, stockOf(t, repo, "p1"))

	view, err := svc.Restore(ctx, "sess-1", []Line{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "ghost", Quantity: 2},
		{ProductID: "p4", Quantity: 2},
		{ProductID: "p5", Quantity: 99},
	})
	require.NoError(t, err)

	require.Len(t, view.Lines, 2)
	assert.Equal(t, "p1", view.Lines[0].ProductID)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, "p5", view.Lines[1].ProductID)
	assert.Equal(t, 10, view.Lines[1].Quantity)

	assert.Equal(t, 47, stockOf(t, repo, "p1"))
	assert.Equal(t, 0, stockOf(t, repo, "p4"))
	assert.Equal(t, 0, stockOf(t, repo, "p5"))
}

func TestServiceMutationSurvivesSnapshotWriteFailure(t *testing.T) {
	svc, repo, kv := newTestService(t)
	ctx := context.Background()

	kv.failSet = true

	view, err := svc.AddProduct(ctx, "sess-1", "p1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 49, stockOf(t, repo, "p1"))
}
