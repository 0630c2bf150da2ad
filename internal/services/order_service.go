package services

import (
	"context"
	"errors"
	"time"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrIncorrectOTP is returned when a delivery code does not match the order.
var ErrIncorrectOTP = apperrors.New(apperrors.Validation, "Incorrect OTP")

// ErrBuyerConfirmation is returned when the buyer submits the delivery code
// for their own order.
var ErrBuyerConfirmation = apperrors.New(apperrors.Unauthorized, "Delivery must be confirmed by the seller")

// OrderService handles checkout, delivery confirmation and order history.
type OrderService struct {
	store     repositories.Transactor
	repos     repositories.Repositories
	hasher    *Hasher
	publisher EventPublisher
	log       *zap.Logger
	newOTP    func() (string, error)
	now       func() time.Time
}

// NewOrderService creates a new OrderService. store runs checkouts
// atomically; repos serves reads outside a transaction.
func NewOrderService(store repositories.Transactor, repos repositories.Repositories, hasher *Hasher, publisher EventPublisher, log *zap.Logger) *OrderService {
	return &OrderService{
		store:     store,
		repos:     repos,
		hasher:    hasher,
		publisher: publisher,
		log:       log,
		newOTP:    GenerateOTP,
		now:       time.Now,
	}
}

// CheckoutResult is returned once per checkout. OTP is the only copy of the
// plaintext delivery code.
type CheckoutResult struct {
	CheckoutID string
	OTP        string
	ItemIDs    []string
	Orders     []models.Order
}

// Checkout turns the buyer's cart into one order per item. declaredTotal is
// the total the client displayed; it must equal the sum of current prices.
//
// Every read and write happens in one transaction. Items are claimed with a
// conditional update, so a concurrent checkout of the same item fails with
// Conflict instead of selling it twice.
func (s *OrderService) Checkout(ctx context.Context, buyerID string, declaredTotal decimal.Decimal) (*CheckoutResult, error) {
	otp, err := s.newOTP()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error adding order", err)
	}
	hashedOTP, err := s.hasher.Hash(otp)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error adding order", err)
	}

	result := &CheckoutResult{CheckoutID: uuid.New().String(), OTP: otp}
	var total decimal.Decimal

	err = s.store.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		buyer, err := repos.Users.GetByID(ctx, buyerID)
		if err != nil {
			return notFoundOr(err, "Buyer not found", "Error adding order")
		}
		if len(buyer.CartItems) == 0 {
			return apperrors.New(apperrors.Validation, "Cart is empty")
		}

		items := make([]*models.Item, 0, len(buyer.CartItems))
		sum := decimal.Zero
		for _, entry := range buyer.CartItems {
			item, err := repos.Items.GetByID(ctx, entry.ItemID)
			if err != nil {
				return notFoundOr(err, "Item not found", "Error adding order")
			}
			if !item.Available {
				return apperrors.Newf(apperrors.Conflict, "Item %s is not available", item.Name)
			}
			items = append(items, item)
			sum = sum.Add(item.Price)
		}
		if !sum.Equal(declaredTotal) {
			return apperrors.New(apperrors.Mismatch, "Total amount does not match the sum of items")
		}

		for _, item := range items {
			order := models.Order{
				ID:            uuid.New().String(),
				TransactionID: uuid.New().String(),
				CheckoutID:    result.CheckoutID,
				BuyerID:       buyer.ID,
				SellerID:      item.SellerID,
				ItemID:        item.ID,
				Amount:        item.Price,
				HashedOTP:     hashedOTP,
				Delivered:     false,
			}
			if err := repos.Orders.Create(ctx, &order); err != nil {
				return apperrors.Wrap(apperrors.Internal, "Error adding order", err)
			}
			if err := repos.Items.MarkUnavailable(ctx, item.ID); err != nil {
				if errors.Is(err, repositories.ErrStale) {
					return apperrors.Wrap(apperrors.Conflict, "Item "+item.Name+" is not available", err)
				}
				return apperrors.Wrap(apperrors.Internal, "Error adding order", err)
			}
			result.Orders = append(result.Orders, order)
			result.ItemIDs = append(result.ItemIDs, item.ID)
		}

		if err := repos.Users.ClearCart(ctx, buyer.ID); err != nil {
			return apperrors.Wrap(apperrors.Internal, "Error adding order", err)
		}
		total = sum
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.Internal {
			s.log.Error("checkout failed", zap.String("buyer_id", buyerID), zap.Error(err))
		}
		return nil, err
	}

	orderIDs := make([]string, 0, len(result.Orders))
	for _, o := range result.Orders {
		orderIDs = append(orderIDs, o.ID)
	}
	s.log.Info("checkout completed",
		zap.String("checkout_id", result.CheckoutID),
		zap.String("buyer_id", buyerID),
		zap.Int("orders", len(result.Orders)),
	)
	publish(ctx, s.publisher, s.log, EventCheckoutCompleted, CheckoutCompleted{
		CheckoutID: result.CheckoutID,
		BuyerID:    buyerID,
		OrderIDs:   orderIDs,
		ItemIDs:    result.ItemIDs,
		Total:      total,
		At:         s.now(),
	})
	return result, nil
}

// DeliveryResult reports the outcome of an accepted delivery code.
type DeliveryResult struct {
	Order *models.Order
	// AlreadyDelivered is set when the order was delivered before this call.
	AlreadyDelivered bool
}

// VerifyDelivery marks the order delivered if code matches its delivery code.
// callerID is the user submitting the code; the buyer holds the code and may
// not submit it. Resubmitting a correct code for a delivered order succeeds
// without changes.
func (s *OrderService) VerifyDelivery(ctx context.Context, orderID, code, callerID string) (*DeliveryResult, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "Error verifying OTP")
	}
	if callerID == order.BuyerID {
		s.log.Info("buyer tried to confirm own delivery", zap.String("order_id", orderID))
		return nil, ErrBuyerConfirmation
	}
	if !s.hasher.Matches(order.HashedOTP, code) {
		s.log.Info("delivery code rejected", zap.String("order_id", orderID))
		return nil, ErrIncorrectOTP
	}
	if order.Delivered {
		return &DeliveryResult{Order: order, AlreadyDelivered: true}, nil
	}

	at := s.now()
	if err := s.repos.Orders.MarkDelivered(ctx, orderID, at); err != nil {
		if errors.Is(err, repositories.ErrStale) {
			// Lost the race to another correct submission.
			order.Delivered = true
			return &DeliveryResult{Order: order, AlreadyDelivered: true}, nil
		}
		return nil, apperrors.Wrap(apperrors.Internal, "Error verifying OTP", err)
	}
	order.Delivered = true
	order.DeliveredAt = &at

	s.log.Info("order delivered", zap.String("order_id", orderID))
	publish(ctx, s.publisher, s.log, EventOrderDelivered, OrderDelivered{
		OrderID:  order.ID,
		BuyerID:  order.BuyerID,
		SellerID: order.SellerID,
		ItemID:   order.ItemID,
		At:       at,
	})
	return &DeliveryResult{Order: order}, nil
}

// HistoryItem is the item snapshot shown next to an order.
type HistoryItem struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
	SellerName  string          `json:"sellerName"`
	BuyerName   string          `json:"buyerName"`
}

// HistoryEntry is one order in a user's purchase and sales history.
type HistoryEntry struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	BuyerID   string          `json:"buyerId"`
	SellerID  string          `json:"sellerId"`
	Role      string          `json:"role"`
	Amount    decimal.Decimal `json:"amount"`
	Delivered bool            `json:"delivered"`
	CreatedAt time.Time       `json:"createdAt"`
	Item      HistoryItem     `json:"item"`
}

// History lists the orders a user bought or sold. Orders whose item or
// seller no longer exist are skipped.
func (s *OrderService) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "User not found", "Error fetching history")
	}
	orders, err := s.repos.Orders.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error fetching history", err)
	}

	itemIDs := make([]string, 0, len(orders))
	userIDs := make([]string, 0, 2*len(orders))
	for _, o := range orders {
		itemIDs = append(itemIDs, o.ItemID)
		userIDs = append(userIDs, o.BuyerID, o.SellerID)
	}
	items, err := s.repos.Items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error fetching history", err)
	}
	users, err := s.repos.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error fetching history", err)
	}

	itemByID := make(map[string]models.Item, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}
	nameByID := make(map[string]string, len(users))
	for i := range users {
		nameByID[users[i].ID] = users[i].FullName()
	}

	entries := make([]HistoryEntry, 0, len(orders))
	for _, o := range orders {
		item, ok := itemByID[o.ItemID]
		sellerName, sellerOK := nameByID[o.SellerID]
		if !ok || !sellerOK {
			s.log.Warn("skipping order with missing item or seller", zap.String("order_id", o.ID))
			continue
		}
		buyerName, ok := nameByID[o.BuyerID]
		if !ok {
			buyerName = "Unknown Buyer"
		}
		role := "buyer"
		if o.SellerID == userID {
			role = "seller"
		}
		entries = append(entries, HistoryEntry{
			ID:        o.ID,
			ItemID:    o.ItemID,
			BuyerID:   o.BuyerID,
			SellerID:  o.SellerID,
			Role:      role,
			Amount:    o.Amount,
			Delivered: o.Delivered,
			CreatedAt: o.CreatedAt,
			Item: HistoryItem{
				Name:        item.Name,
				Price:       item.Price,
				Description: item.Description,
				Image:       item.Image,
				Category:    item.Category,
				Available:   item.Available,
				SellerName:  sellerName,
				BuyerName:   buyerName,
			},
		})
	}
	return entries, nil
}
