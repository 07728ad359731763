package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product groups sellable variants. BasePrice may be zero when pricing lives
// entirely at variant level.
type Product struct {
	ID        string
	Name      string
	BasePrice decimal.Decimal
	CreatedAt time.Time
}

// Variant is the unit of stock accounting. Stock is the physical quantity
// owned by the catalog; active reservations hold against it without
// mutating it.
type Variant struct {
	ID        string
	ProductID string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
}
