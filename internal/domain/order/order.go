package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a completed checkout.
type Order struct {
	ID        string          `json:"id"`
	Buyer     Buyer           `json:"buyer"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Buyer identifies who placed an order.
type Buyer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Item is one order line.
type Item struct {
	PhoneID  string          `json:"phoneId"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Quantity is the number of units across all lines.
func (o Order) Quantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// ComputedTotal sums price times quantity over all lines.
func (o Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
