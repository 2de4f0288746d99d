package notify

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"oldphonedeals/internal/domain/order"
)

// DefaultInboxSize bounds how many notifications are retained.
const DefaultInboxSize = 100

// Notification announces a newly placed order to admins.
type Notification struct {
	OrderID   string          `json:"orderId"`
	Buyer     string          `json:"buyer"`
	Items     int             `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FromOrder builds the notification for o.
func FromOrder(o order.Order) Notification {
	total := o.Total
	if total.IsZero() {
		total = o.ComputedTotal()
	}
	buyer := o.Buyer.Name
	if buyer == "" {
		buyer = o.Buyer.Email
	}
	return Notification{
		OrderID:   o.ID,
		Buyer:     buyer,
		Items:     o.Quantity(),
		Total:     total,
		CreatedAt: o.CreatedAt,
	}
}

// Inbox is a fixed-size ring of the most recent notifications, shared by
// every admin session.
type Inbox struct {
	mu    sync.RWMutex
	buf   []Notification
	next  int
	full  bool
	seen  map[string]struct{}
	order []string
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{
		buf:  make([]Notification, size),
		seen: make(map[string]struct{}, size),
	}
}

// Publish appends n unless an entry for the same order is still retained.
// It reports whether n was added.
func (i *Inbox) Publish(n Notification) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, dup := i.seen[n.OrderID]; dup && n.OrderID != "" {
		return false
	}
	if i.full {
		delete(i.seen, i.buf[i.next].OrderID)
	}
	i.buf[i.next] = n
	if n.OrderID != "" {
		i.seen[n.OrderID] = struct{}{}
	}
	i.next = (i.next + 1) % len(i.buf)
	if i.next == 0 {
		i.full = true
	}
	return true
}

// Len returns the number of retained notifications.
func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.full {
		return len(i.buf)
	}
	return i.next
}

// Recent returns up to limit notifications, newest first. A limit of zero
// or less returns everything retained.
func (i *Inbox) Recent(limit int) []Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	n := i.next
	if i.full {
		n = len(i.buf)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Notification, 0, limit)
	for k := 1; k <= limit; k++ {
		idx := (i.next - k + len(i.buf)) % len(i.buf)
		out = append(out, i.buf[idx])
	}
	return out
}
