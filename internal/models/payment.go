package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch v := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return v, nil
	default:
		return "", fmt.Errorf("invalid payment status %q", s)
	}
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch v := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); v {
	case MethodCash, MethodCard, MethodTransfer:
		return v, nil
	default:
		return "", fmt.Errorf("invalid payment method %q", s)
	}
}

// Payment is an append-only settlement record against a served order. All
// monetary fields are computed server-side at creation; only status and
// paidAt may change afterwards, and deletion is never permitted.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID         string          `json:"id" bun:"id,pk"`
	OrderID    string          `json:"order" bun:"order_id"`
	Method     PaymentMethod   `json:"method" bun:"method"`
	Subtotal   decimal.Decimal `json:"subtotal" bun:"subtotal,type:decimal(14,2)"`
	TaxPercent int64           `json:"taxPercent" bun:"tax_percent"`
	TaxAmount  decimal.Decimal `json:"taxAmount" bun:"tax_amount,type:decimal(14,2)"`
	Amount     decimal.Decimal `json:"amount" bun:"amount,type:decimal(14,2)"`
	Status     PaymentStatus   `json:"status" bun:"status"`
	PaidAt     *time.Time      `json:"paidAt,omitempty" bun:"paid_at"`
}
