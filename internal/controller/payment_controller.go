package controller

import (
	"context"
	"errors"
	"fmt"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/payment"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/subscription"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateOrderInput struct {
	PlanID   uint           `json:"plan_id" validate:"required"`
	Duration model.Duration `json:"duration" validate:"required,oneof=Monthly Quarterly Yearly"`
	Currency string         `json:"currency" validate:"omitempty,len=3"`
}

type VerifyPaymentInput struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// CreateOrder opens a gateway order for a paid plan and records it as an initiated transaction.
func CreateOrder(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims := currentUser(c)
	input := new(CreateOrderInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	check, err := deps.Engine.CheckRequest(ctx, claims.UserID, input.PlanID)
	if err != nil {
		return engineError(err)
	}
	if !check.OK() {
		return response.Rejected(c, check.Reason)
	}

	store := deps.Engine.Store()
	plan, err := store.FindPlan(ctx, input.PlanID)
	if err != nil {
		return engineError(err)
	}
	amount := plan.PriceFor(input.Duration)
	if amount <= 0 {
		return response.Rejected(c, "This plan does not require payment")
	}
	user, err := store.FindUser(ctx, claims.UserID)
	if err != nil {
		return engineError(err)
	}

	currency := input.Currency
	if currency == "" {
		currency = deps.Currency
	}
	receipt := "TXN_" + uuid.New().String()

	order, err := deps.Payments.CreateOrder(ctx, amount, receipt, currency)
	if err != nil {
		return response.NewError(fiber.StatusBadGateway, "Could not initiate payment", err)
	}

	txn := model.Transaction{
		UserID:   user.ID,
		PlanID:   plan.ID,
		OrderID:  order.ID,
		Receipt:  receipt,
		Duration: input.Duration,
		Currency: order.Currency,
		Amount:   amount,
		Status:   model.TransactionInitiated,
	}
	if err := database.GetDB().WithContext(ctx).Create(&txn).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not record transaction", err)
	}

	return response.OK(c, fiber.Map{
		"order":          order,
		"transaction_id": txn.ID,
		"name":           user.Name,
		"email":          user.Email,
		"mobile":         user.Mobile,
	}, "Order initiated successfully")
}

// VerifyPayment confirms a client-side payment and activates the purchased plan.
func VerifyPayment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	input := new(VerifyPaymentInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	if !deps.Payments.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		return response.Fail(c, fiber.StatusBadRequest, "Payment verification failed")
	}

	txn, err := findTransaction(ctx, input.OrderID)
	if err != nil {
		return dbError(err, "Transaction not found")
	}
	if txn.UserID != currentUser(c).UserID {
		return response.Fail(c, fiber.StatusForbidden, "Not authorized to verify this payment")
	}

	paid, err := deps.Payments.FetchPayment(ctx, input.PaymentID)
	if err != nil {
		return response.NewError(fiber.StatusBadGateway, "Could not fetch payment", err)
	}
	if paid.OrderID != txn.OrderID {
		return response.Fail(c, fiber.StatusBadRequest, "Payment does not belong to this order")
	}
	if !paid.Captured {
		if err := failTransaction(ctx, txn, paid); err != nil {
			return response.NewError(fiber.StatusInternalServerError, "Could not update transaction", err)
		}
		return response.Fail(c, fiber.StatusPaymentRequired, "Payment failed")
	}

	res, err := fulfilTransaction(ctx, txn, paid)
	if err != nil {
		return err
	}
	if !res.OK() {
		return response.Rejected(c, res.Reason)
	}
	return response.OK(c, res.Subscription, "Payment verified and plan activated")
}

// HandleStripeWebhook applies gateway payment notifications. Redelivered events are no-ops.
func HandleStripeWebhook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	event, err := deps.Payments.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidWebhook) {
			return response.Fail(c, fiber.StatusBadRequest, "Invalid signature")
		}
		return response.NewError(fiber.StatusBadRequest, "Could not parse webhook", err)
	}
	log := logger.FromContext(ctx).With("event_id", event.ID, "event_type", event.Type)

	if event.Payment == nil {
		log.Debug("ignoring webhook event")
		return c.SendStatus(fiber.StatusOK)
	}

	txn, err := findTransaction(ctx, event.Payment.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("webhook for unknown order", "order_id", event.Payment.OrderID)
			return c.SendStatus(fiber.StatusOK)
		}
		return response.NewError(fiber.StatusInternalServerError, "Could not load transaction", err)
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		res, err := fulfilTransaction(ctx, txn, event.Payment)
		if err != nil {
			return err
		}
		log.Info("payment applied", "transaction_id", txn.ID, "outcome", res.Outcome, "reason", res.Reason)
	case payment.EventPaymentFailed:
		if err := failTransaction(ctx, txn, event.Payment); err != nil {
			return response.NewError(fiber.StatusInternalServerError, "Could not update transaction", err)
		}
	default:
		log.Debug("ignoring webhook event")
	}
	return c.SendStatus(fiber.StatusOK)
}

// ListTransactions lists payment records, filtered by ?userId and ?status.
func ListTransactions(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).Model(&model.Transaction{})
	if userID := c.QueryInt("userId"); userID > 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count transactions", err)
	}
	var txns []model.Transaction
	if err := q.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&txns).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch transactions", err)
	}
	return response.OK(c, newPage(p, total, txns), "Transactions fetched successfully")
}

func findTransaction(ctx context.Context, orderID string) (*model.Transaction, error) {
	var txn model.Transaction
	if err := database.GetDB().WithContext(ctx).Where("order_id = ?", orderID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// fulfilTransaction claims an initiated transaction and turns it into an
// active subscription. Only the caller that moves it out of "initiated"
// does the work; later callers get the recorded result.
func fulfilTransaction(ctx context.Context, txn *model.Transaction, paid *payment.Payment) (subscription.Result, error) {
	db := database.GetDB().WithContext(ctx)

	claim := db.Model(&model.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, model.TransactionInitiated).
		Updates(map[string]interface{}{
			"status":         model.TransactionCaptured,
			"payment_id":     paid.ID,
			"payment_method": paid.Method,
			"details":        datatypes.JSON(paid.Raw),
		})
	if claim.Error != nil {
		return subscription.Result{}, response.NewError(fiber.StatusInternalServerError, "Could not update transaction", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return alreadyFulfilled(ctx, txn.ID)
	}

	res, err := activatePurchase(ctx, txn)
	if err != nil {
		// hand the transaction back so a retry can claim it
		if rerr := db.Model(&model.Transaction{}).Where("id = ?", txn.ID).
			Update("status", model.TransactionInitiated).Error; rerr != nil {
			logger.FromContext(ctx).Error("could not release transaction claim", "error", rerr, "transaction_id", txn.ID)
		}
		return subscription.Result{}, err
	}
	if !res.OK() {
		logger.ForUser(ctx, txn.UserID).Warn("captured payment could not be applied",
			"transaction_id", txn.ID, "reason", res.Reason)
		return res, nil
	}

	notifySubscription(ctx, "subscription-activated", res.Subscription)
	return res, nil
}

// activatePurchase requests the purchased plan and activates it. The pending
// instance is linked to the transaction before activation, so a retry after a
// failed activation picks up the same instance instead of requesting again.
func activatePurchase(ctx context.Context, txn *model.Transaction) (subscription.Result, error) {
	if txn.SubscribedPlanID == nil {
		req, err := deps.Engine.RequestSubscription(ctx, txn.UserID, txn.PlanID, txn.Duration)
		if err != nil {
			return subscription.Result{}, engineError(err)
		}
		if !req.OK() {
			return req, nil
		}
		id := req.Subscription.ID
		if err := database.GetDB().WithContext(ctx).Model(&model.Transaction{}).Where("id = ?", txn.ID).
			Update("subscribed_plan_id", id).Error; err != nil {
			return subscription.Result{}, response.NewError(fiber.StatusInternalServerError, "Could not link transaction", err)
		}
		txn.SubscribedPlanID = &id
	}

	res, err := deps.Engine.ActivatePendingSubscription(ctx, *txn.SubscribedPlanID)
	if err != nil {
		return subscription.Result{}, engineError(err)
	}
	return res, nil
}

func alreadyFulfilled(ctx context.Context, id uint) (subscription.Result, error) {
	var txn model.Transaction
	if err := database.GetDB().WithContext(ctx).First(&txn, id).Error; err != nil {
		return subscription.Result{}, dbError(err, "Transaction not found")
	}
	if txn.SubscribedPlanID == nil {
		return subscription.Result{Outcome: subscription.OutcomeRejected,
			Reason: fmt.Sprintf("Transaction is %s", txn.Status)}, nil
	}
	sub, err := deps.Engine.Store().FindSubscription(ctx, *txn.SubscribedPlanID)
	if err != nil {
		return subscription.Result{}, engineError(err)
	}
	if sub.Status == model.SubscriptionPending {
		// another caller holds the claim and is activating it
		return subscription.Result{Outcome: subscription.OutcomeRejected, Reason: "Payment is being processed"}, nil
	}
	return subscription.Result{Outcome: subscription.OutcomeOK, Reason: subscription.ReasonAlreadyActivated, Subscription: sub}, nil
}

func failTransaction(ctx context.Context, txn *model.Transaction, paid *payment.Payment) error {
	return database.GetDB().WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, model.TransactionInitiated).
		Updates(map[string]interface{}{
			"status":     model.TransactionFailed,
			"payment_id": paid.ID,
			"details":    datatypes.JSON(paid.Raw),
		}).Error
}
