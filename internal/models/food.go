package models

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Food is the slice of the menu catalog the order engine needs: a priced,
// orderable dish. Ingredient and category plumbing stays out of this service.
type Food struct {
	bun.BaseModel `bun:"table:foods"`

	ID        string          `json:"id" bun:"id,pk"`
	Name      string          `json:"name" bun:"name"`
	Price     decimal.Decimal `json:"price" bun:"price,type:decimal(12,2)"`
	Available bool            `json:"available" bun:"available"`
}
