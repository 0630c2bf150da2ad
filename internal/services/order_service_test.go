package services_test

import (
	"context"
	"sync"
	"testing"

	"campusmart/internal/apperrors"
	"campusmart/internal/database"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"campusmart/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type orderFixture struct {
	db        *gorm.DB
	repos     repositories.Repositories
	orders    *services.OrderService
	publisher *MockPublisher
	buyer     *models.User
	seller    *models.User
	hasher    *services.Hasher
}

// setupOrders opens a private in-memory sqlite database with a buyer and a
// seller.
func setupOrders(t *testing.T) *orderFixture {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repositories.NewGORMStore(db)
	repos := store.Repositories()
	hasher := services.NewHasher(bcrypt.MinCost)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	buyer := &models.User{FirstName: "Bea", LastName: "Buyer", Email: "bea@iiit.ac.in", Age: 19, ContactNumber: "1", Password: "x"}
	seller := &models.User{FirstName: "Sam", LastName: "Seller", Email: "sam@iiit.ac.in", Age: 22, ContactNumber: "2", Password: "x"}
	require.NoError(t, repos.Users.Create(ctx, buyer))
	require.NoError(t, repos.Users.Create(ctx, seller))

	return &orderFixture{
		db:        db,
		repos:     repos,
		orders:    services.NewOrderService(store, repos, hasher, publisher, zap.NewNop()),
		publisher: publisher,
		buyer:     buyer,
		seller:    seller,
		hasher:    hasher,
	}
}

func (f *orderFixture) listAndCart(t *testing.T, name string, price string) *models.Item {
	t.Helper()
	ctx := context.Background()
	item := &models.Item{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: name + " in good condition",
		Image:       "img://" + name,
		Category:    "Books",
		SellerID:    f.seller.ID,
		Available:   true,
	}
	require.NoError(t, f.repos.Items.Create(ctx, item))
	require.NoError(t, f.repos.Users.AddCartItem(ctx, f.buyer.ID, item.ID))
	return item
}

func TestOrderService_CheckoutCreatesOrdersPerItem(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t)
	a := f.listAndCart(t, "Algorithms", "100")
	b := f.listAndCart(t, "Calculus", "50")

	result, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, result.ItemIDs)
	assert.Len(t, result.OTP, 4)

	orders, err := f.repos.Orders.ListByParticipant(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, result.CheckoutID, o.CheckoutID)
		assert.Equal(t, f.buyer.ID, o.BuyerID)
		assert.Equal(t, f.seller.ID, o.SellerID)
		assert.False(t, o.Delivered)
		assert.True(t, f.hasher.Matches(o.HashedOTP, result.OTP))
	}
	assert.Equal(t, orders[0].HashedOTP, orders[1].HashedOTP)
	assert.NotEqual(t, orders[0].TransactionID, orders[1].TransactionID)
	amounts := map[string]decimal.Decimal{}
	for _, o := range orders {
		amounts[o.ItemID] = o.Amount
	}
	assert.True(t, amounts[a.ID].Equal(decimal.NewFromInt(100)))
	assert.True(t, amounts[b.ID].Equal(decimal.NewFromInt(50)))

	for _, id := range []string{a.ID, b.ID} {
		item, err := f.repos.Items.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, item.Available)
	}

	buyer, err := f.repos.Users.GetByID(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, buyer.CartItems)

	f.publisher.AssertCalled(t, "Publish", mock.Anything, services.EventCheckoutCompleted, mock.MatchedBy(func(e services.CheckoutCompleted) bool {
		return e.CheckoutID == result.CheckoutID && len(e.OrderIDs) == 2 && e.Total.Equal(decimal.NewFromInt(150))
	}))
}

func TestOrderService_CheckoutTotalMismatchChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t)
	a := f.listAndCart(t, "Algorithms", "100")
	f.listAndCart(t, "Calculus", "50")

	_, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.NewFromInt(140))
	assert.Equal(t, apperrors.Mismatch, apperrors.KindOf(err))

	orders, err := f.repos.Orders.ListByParticipant(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	item, err := f.repos.Items.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, item.Available)

	buyer, err := f.repos.Users.GetByID(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, buyer.CartItems, 2)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, services.EventCheckoutCompleted, mock.Anything)
}

func TestOrderService_CheckoutComparesDecimalsExactly(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t)
	f.listAndCart(t, "Pen", "0.10")
	f.listAndCart(t, "Pencil", "0.20")

	_, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.RequireFromString("0.3"))
	assert.NoError(t, err)
}

func TestOrderService_CheckoutRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := setupOrders(t)
		_, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.Zero)
		assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
	})

	t.Run("unknown buyer", func(t *testing.T) {
		f := setupOrders(t)
		_, err := f.orders.Checkout(ctx, "ghost", decimal.Zero)
		assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	})

	t.Run("item already sold", func(t *testing.T) {
		f := setupOrders(t)
		a := f.listAndCart(t, "Algorithms", "100")
		require.NoError(t, f.repos.Items.MarkUnavailable(ctx, a.ID))

		_, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.NewFromInt(100))
		assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
	})

	t.Run("item deleted after carting", func(t *testing.T) {
		f := setupOrders(t)
		a := f.listAndCart(t, "Algorithms", "100")
		require.NoError(t, f.repos.Items.Delete(ctx, a.ID))

		_, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.NewFromInt(100))
		assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	})
}

func TestOrderService_ConcurrentCheckoutsSellOnce(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t)
	item := f.listAndCart(t, "Algorithms", "100")

	rival := &models.User{FirstName: "Rita", LastName: "Rival", Email: "rita@iiit.ac.in", Age: 20, ContactNumber: "3", Password: "x"}
	require.NoError(t, f.repos.Users.Create(ctx, rival))
	require.NoError(t, f.repos.Users.AddCartItem(ctx, rival.ID, item.ID))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, buyerID := range []string{f.buyer.ID, rival.ID} {
		wg.Add(1)
		go func(i int, buyerID string) {
			defer wg.Done()
			_, errs[i] = f.orders.Checkout(ctx, buyerID, decimal.NewFromInt(100))
		}(i, buyerID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Where("item_id = ?", item.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOrderService_VerifyDelivery(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t)
	f.listAndCart(t, "Algorithms", "100")

	result, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	orderID := result.Orders[0].ID

	// Test the buyer cannot confirm their own delivery
	_, err = f.orders.VerifyDelivery(ctx, orderID, result.OTP, f.buyer.ID)
	assert.ErrorIs(t, err, services.ErrBuyerConfirmation)
	order, err := f.repos.Orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, order.Delivered)

	// Test wrong code leaves the order untouched
	wrong := "0000"
	_, err = f.orders.VerifyDelivery(ctx, orderID, wrong, f.seller.ID)
	assert.ErrorIs(t, err, services.ErrIncorrectOTP)
	order, err = f.repos.Orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, order.Delivered)

	// Test correct code delivers
	delivered, err := f.orders.VerifyDelivery(ctx, orderID, result.OTP, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, delivered.AlreadyDelivered)
	order, err = f.repos.Orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, order.Delivered)
	assert.NotNil(t, order.DeliveredAt)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, services.EventOrderDelivered, mock.Anything)

	// Test repeating the correct code is an idempotent success
	again, err := f.orders.VerifyDelivery(ctx, orderID, result.OTP, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyDelivered)
	f.publisher.AssertNumberOfCalls(t, "Publish", 2)

	_, err = f.orders.VerifyDelivery(ctx, "missing", result.OTP, f.seller.ID)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestOrderService_History(t *testing.T) {
	ctx := context.Background()
	f := setupOrders(t)
	f.listAndCart(t, "Algorithms", "100")
	gone := f.listAndCart(t, "Calculus", "50")

	_, err := f.orders.Checkout(ctx, f.buyer.ID, decimal.NewFromInt(150))
	require.NoError(t, err)
	require.NoError(t, f.repos.Items.Delete(ctx, gone.ID))

	bought, err := f.orders.History(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, bought, 1)
	assert.Equal(t, "buyer", bought[0].Role)
	assert.Equal(t, "Algorithms", bought[0].Item.Name)
	assert.Equal(t, "Sam Seller", bought[0].Item.SellerName)
	assert.Equal(t, "Bea Buyer", bought[0].Item.BuyerName)

	sold, err := f.orders.History(ctx, f.seller.ID)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, "seller", sold[0].Role)

	_, err = f.orders.History(ctx, "ghost")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}
