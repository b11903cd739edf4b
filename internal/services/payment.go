package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dinehall/internal/apperr"
	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/storage"
	"dinehall/internal/utils"
)

// PaymentService creates and updates append-only settlement records. All
// money math happens here, server-side: subtotal from the order, tax from
// the configured rate, and the client-sent amount accepted only when it
// matches exactly.
type PaymentService struct {
	store      storage.Store
	orders     *OrderService
	producer   EventPublisher
	log        *logger.Logger
	taxPercent int64
}

func NewPaymentService(store storage.Store, orders *OrderService, producer EventPublisher, log *logger.Logger, taxPercent int64) *PaymentService {
	return &PaymentService{
		store:      store,
		orders:     orders,
		producer:   producer,
		log:        log,
		taxPercent: taxPercent,
	}
}

func (s *PaymentService) Create(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if req.Order == "" {
		return nil, apperr.Validationf("order is required")
	}
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	status := models.PaymentCompleted
	if req.Status != "" {
		status, err = models.ParsePaymentStatus(req.Status)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
	}

	order, err := s.orders.Get(ctx, req.Order)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderServed {
		return nil, apperr.Precondition("order", order.ID, string(order.Status), "only a served order can be paid")
	}

	subtotal := order.TotalAmount
	taxAmount := subtotal.Mul(decimal.NewFromInt(s.taxPercent)).Div(decimal.NewFromInt(100)).Round(0)
	expected := subtotal.Add(taxAmount)

	// The client may echo the amount back, but only an exact match is
	// accepted; anything else is silently corrected to the computed bill.
	amount := expected
	if req.Amount != nil && !req.Amount.Equal(expected) {
		s.log.Warn("PAYMENT", fmt.Sprintf("Client amount %s for order %s differs from computed %s, using computed", req.Amount, order.ID, expected))
	}

	now := time.Now()
	payment := &models.Payment{
		ID:         utils.NewID(),
		OrderID:    order.ID,
		Method:     method,
		Subtotal:   subtotal,
		TaxPercent: s.taxPercent,
		TaxAmount:  taxAmount,
		Amount:     amount,
		Status:     status,
		PaidAt:     &now,
	}
	if err := s.store.SavePayment(ctx, payment); err != nil {
		return nil, apperr.Transient("save payment", err)
	}

	s.log.LogPayment("CREATE", payment.ID, fmt.Sprintf("Order %s: subtotal %s + tax %s = %s (%s, %s)", order.ID, subtotal, taxAmount, amount, method, status))

	if status == models.PaymentCompleted {
		s.settleOrder(ctx, payment)
	}

	eventType := models.EventPaymentCompleted
	if status == models.PaymentFailed {
		eventType = models.EventPaymentFailed
	}
	if status != models.PaymentPending {
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:     eventType,
			EntityID: payment.ID,
			Payment:  payment,
		})
	}
	return payment, nil
}

// Update mutates only status and paidAt. The monetary fields are frozen at
// creation; a first transition into completed settles the order.
func (s *PaymentService) Update(ctx context.Context, id string, req *models.UpdatePaymentRequest) (*models.Payment, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasCompleted := payment.Status == models.PaymentCompleted
	if req.Status != "" {
		status, err := models.ParsePaymentStatus(req.Status)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		payment.Status = status
	}
	if req.PaidAt != nil {
		payment.PaidAt = req.PaidAt
	}
	if payment.Status == models.PaymentCompleted && payment.PaidAt == nil {
		now := time.Now()
		payment.PaidAt = &now
	}

	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("payment", id)
		}
		return nil, apperr.Transient("update payment", err)
	}

	s.log.LogPayment("UPDATE", payment.ID, fmt.Sprintf("Status %s", payment.Status))

	if !wasCompleted && payment.Status == models.PaymentCompleted {
		s.settleOrder(ctx, payment)
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:     models.EventPaymentCompleted,
			EntityID: payment.ID,
			Payment:  payment,
		})
	} else if payment.Status == models.PaymentFailed {
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:     models.EventPaymentFailed,
			EntityID: payment.ID,
			Payment:  payment,
		})
	}
	return payment, nil
}

// settleOrder drives the order side of a completed payment. The payment
// record already committed, so a settlement failure is logged and left to
// the reconcile path instead of failing the payment.
func (s *PaymentService) settleOrder(ctx context.Context, payment *models.Payment) {
	if err := s.orders.Settle(ctx, payment.OrderID); err != nil {
		s.log.Error("PAYMENT", fmt.Sprintf("Payment %s completed but order %s not settled: %v", payment.ID, payment.OrderID, err))
	}
}

// Delete always refuses: payments are the audit trail of money movement and
// are never removed, whether or not the id exists.
func (s *PaymentService) Delete(_ context.Context, _ string) error {
	return apperr.Forbidden("payments are append-only and cannot be deleted")
}

func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("payment", id)
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, page, limit int) (*models.PaymentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := s.store.CountPayments(ctx)
	if err != nil {
		return nil, apperr.Transient("count payments", err)
	}
	payments, err := s.store.ListPayments(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, apperr.Transient("list payments", err)
	}

	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	return &models.PaymentPage{
		Payments: payments,
		Total:    total,
		Page:     page,
		Pages:    pages,
		Limit:    limit,
	}, nil
}
