package review

import "time"

// Review is a review together with the listing it belongs to.
type Review struct {
	ID           string    `json:"id"`
	PhoneID      string    `json:"phoneId"`
	PhoneTitle   string    `json:"phoneTitle"`
	ReviewerID   string    `json:"reviewerId,omitempty"`
	ReviewerName string    `json:"reviewerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Hidden       bool      `json:"hidden"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Visibility is "hidden" or "visible".
func (r Review) Visibility() string {
	if r.Hidden {
		return "hidden"
	}
	return "visible"
}
