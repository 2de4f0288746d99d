package phone

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Brands sold on the marketplace.
var Brands = []string{"Samsung", "Apple", "HTC", "Huawei", "Nokia", "LG", "Motorola", "Sony", "BlackBerry"}

// Phone is a listing as the gateway exposes it.
type Phone struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Brand     string          `json:"brand"`
	Image     string          `json:"image,omitempty"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	Seller    Seller          `json:"seller"`
	Reviews   []Review        `json:"reviews"`
	Disabled  bool            `json:"disabled"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Seller identifies the user who listed a phone.
type Seller struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Review is a review embedded in a listing.
type Review struct {
	ReviewerID   string    `json:"reviewerId,omitempty"`
	ReviewerName string    `json:"reviewerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Hidden       bool      `json:"hidden"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AverageRating is the mean rating of visible reviews, 0 without any.
func (p Phone) AverageRating() float64 {
	sum, n := 0, 0
	for _, r := range p.Reviews {
		if r.Hidden {
			continue
		}
		sum += r.Rating
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// InStock reports whether the listing can be bought.
func (p Phone) InStock() bool { return p.Stock > 0 && !p.Disabled }

// NormalizeBrand returns the canonical spelling of a known brand, or s
// unchanged.
func NormalizeBrand(s string) string {
	for _, b := range Brands {
		if strings.EqualFold(b, strings.TrimSpace(s)) {
			return b
		}
	}
	return s
}
