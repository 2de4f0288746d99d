package marketplace

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"oldphonedeals/internal/domain/audit"
	"oldphonedeals/internal/domain/order"
	"oldphonedeals/internal/domain/phone"
	"oldphonedeals/internal/domain/review"
	"oldphonedeals/internal/domain/user"
)

// The DTOs below mirror the marketplace's wire shapes, which differ between
// endpoints (_id vs id, reviewer vs reviewerName, populated vs bare refs).
// Nothing outside this package sees them.

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ref is a reference to another document: a bare id, a bare display name,
// or a populated object.
type ref struct {
	ID    string
	Name  string
	Title string
	Email string
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if objectIDPattern.MatchString(s) {
			r.ID = s
		} else {
			r.Name = s
		}
		return nil
	case b[0] == '{':
		var obj struct {
			ID        string `json:"id"`
			MongoID   string `json:"_id"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Name      string `json:"name"`
			Title     string `json:"title"`
			Email     string `json:"email"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		r.ID = firstNonEmpty(obj.MongoID, obj.ID)
		r.Name = firstNonEmpty(strings.TrimSpace(obj.FirstName+" "+obj.LastName), obj.Name)
		r.Title = obj.Title
		r.Email = obj.Email
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		r.ID = n.String()
		return nil
	}
}

// text accepts a string or any other JSON value, keeping the latter as
// compact JSON.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*t = text(buf.String())
	return nil
}

// count accepts numbers and numeric strings.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*c = count(f)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstSet(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

func firstTime(vals ...time.Time) time.Time {
	for _, v := range vals {
		if !v.IsZero() {
			return v
		}
	}
	return time.Time{}
}

type phoneDTO struct {
	ID         string          `json:"id"`
	MongoID    string          `json:"_id"`
	Title      string          `json:"title"`
	Brand      string          `json:"brand"`
	Image      string          `json:"image"`
	Stock      count           `json:"stock"`
	Price      decimal.Decimal `json:"price"`
	Seller     ref             `json:"seller"`
	SellerName string          `json:"sellerName"`
	Reviews    []phoneReview   `json:"reviews"`
	Disabled   *bool           `json:"disabled"`
	IsDisabled *bool           `json:"isDisabled"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type phoneReview struct {
	Reviewer     ref       `json:"reviewer"`
	ReviewerName string    `json:"reviewerName"`
	ReviewerID   string    `json:"reviewerId"`
	Rating       count     `json:"rating"`
	Comment      string    `json:"comment"`
	Hidden       *bool     `json:"hidden"`
	IsHidden     *bool     `json:"isHidden"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (d phoneDTO) normalize() phone.Phone {
	p := phone.Phone{
		ID:    firstNonEmpty(d.MongoID, d.ID),
		Title: d.Title,
		Brand: phone.NormalizeBrand(d.Brand),
		Image: d.Image,
		Stock: int(d.Stock),
		Price: d.Price,
		Seller: phone.Seller{
			ID:   d.Seller.ID,
			Name: firstNonEmpty(d.Seller.Name, d.SellerName),
		},
		Reviews:   make([]phone.Review, 0, len(d.Reviews)),
		Disabled:  firstSet(d.IsDisabled, d.Disabled),
		CreatedAt: d.CreatedAt,
	}
	for _, r := range d.Reviews {
		p.Reviews = append(p.Reviews, phone.Review{
			ReviewerID:   firstNonEmpty(r.Reviewer.ID, r.ReviewerID),
			ReviewerName: firstNonEmpty(r.ReviewerName, r.Reviewer.Name),
			Rating:       int(r.Rating),
			Comment:      r.Comment,
			Hidden:       firstSet(r.IsHidden, r.Hidden),
			CreatedAt:    r.CreatedAt,
		})
	}
	return p
}

type userDTO struct {
	ID         string     `json:"id"`
	MongoID    string     `json:"_id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	IsAdmin    *bool      `json:"isAdmin"`
	Role       string     `json:"role"`
	IsDisabled *bool      `json:"isDisabled"`
	Disabled   *bool      `json:"disabled"`
	IsBanned   *bool      `json:"isBanned"`
	Verified   *bool      `json:"verified"`
	IsVerified *bool      `json:"isVerified"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin"`
}

func (d userDTO) normalize() user.User {
	return user.User{
		ID:         firstNonEmpty(d.MongoID, d.ID),
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Email:      d.Email,
		IsAdmin:    firstSet(d.IsAdmin) || strings.EqualFold(d.Role, "admin"),
		IsDisabled: firstSet(d.IsDisabled, d.Disabled, d.IsBanned),
		Verified:   firstSet(d.Verified, d.IsVerified),
		CreatedAt:  d.CreatedAt,
		LastLogin:  d.LastLogin,
	}
}

type reviewDTO struct {
	ID           string    `json:"id"`
	MongoID      string    `json:"_id"`
	Phone        ref       `json:"phone"`
	PhoneID      string    `json:"phoneId"`
	PhoneTitle   string    `json:"phoneTitle"`
	Reviewer     ref       `json:"reviewer"`
	ReviewerName string    `json:"reviewerName"`
	ReviewerID   string    `json:"reviewerId"`
	Rating       count     `json:"rating"`
	Comment      string    `json:"comment"`
	Hidden       *bool     `json:"hidden"`
	IsHidden     *bool     `json:"isHidden"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (d reviewDTO) normalize() review.Review {
	return review.Review{
		ID:           firstNonEmpty(d.MongoID, d.ID),
		PhoneID:      firstNonEmpty(d.PhoneID, d.Phone.ID),
		PhoneTitle:   firstNonEmpty(d.PhoneTitle, d.Phone.Title, d.Phone.Name),
		ReviewerID:   firstNonEmpty(d.ReviewerID, d.Reviewer.ID),
		ReviewerName: firstNonEmpty(d.ReviewerName, d.Reviewer.Name),
		Rating:       int(d.Rating),
		Comment:      d.Comment,
		Hidden:       firstSet(d.IsHidden, d.Hidden),
		CreatedAt:    d.CreatedAt,
	}
}

type orderDTO struct {
	ID          string          `json:"id"`
	MongoID     string          `json:"_id"`
	Buyer       ref             `json:"buyer"`
	User        ref             `json:"user"`
	BuyerName   string          `json:"buyerName"`
	BuyerEmail  string          `json:"buyerEmail"`
	Items       []orderItemDTO  `json:"items"`
	Total       decimal.Decimal `json:"total"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type orderItemDTO struct {
	Phone    ref             `json:"phone"`
	PhoneID  string          `json:"phoneId"`
	Title    string          `json:"title"`
	Quantity count           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (d orderDTO) normalize() order.Order {
	buyer := d.Buyer
	if buyer.ID == "" && buyer.Name == "" {
		buyer = d.User
	}
	o := order.Order{
		ID: firstNonEmpty(d.MongoID, d.ID),
		Buyer: order.Buyer{
			ID:    buyer.ID,
			Name:  firstNonEmpty(d.BuyerName, buyer.Name),
			Email: firstNonEmpty(d.BuyerEmail, buyer.Email),
		},
		Items:     make([]order.Item, 0, len(d.Items)),
		Total:     d.Total,
		CreatedAt: d.CreatedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, order.Item{
			PhoneID:  firstNonEmpty(it.PhoneID, it.Phone.ID),
			Title:    firstNonEmpty(it.Title, it.Phone.Title),
			Quantity: int(it.Quantity),
			Price:    it.Price,
		})
	}
	if o.Total.IsZero() {
		o.Total = d.TotalAmount
	}
	if o.Total.IsZero() {
		o.Total = o.ComputedTotal()
	}
	return o
}

type auditDTO struct {
	ID         string    `json:"id"`
	MongoID    string    `json:"_id"`
	Admin      ref       `json:"admin"`
	AdminID    string    `json:"adminId"`
	AdminEmail string    `json:"adminEmail"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	Target     ref       `json:"target"`
	TargetID   string    `json:"targetId"`
	Details    text      `json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
	Timestamp  time.Time `json:"timestamp"`
}

func (d auditDTO) normalize() audit.Entry {
	return audit.Entry{
		ID:         firstNonEmpty(d.MongoID, d.ID),
		AdminID:    firstNonEmpty(d.AdminID, d.Admin.ID),
		AdminEmail: firstNonEmpty(d.AdminEmail, d.Admin.Email),
		Action:     d.Action,
		TargetType: d.TargetType,
		TargetID:   firstNonEmpty(d.TargetID, d.Target.ID),
		Details:    string(d.Details),
		CreatedAt:  firstTime(d.CreatedAt, d.Timestamp),
	}
}
