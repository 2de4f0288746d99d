package preference

import (
	"errors"
	"fmt"
	"time"

	"oldphonedeals/internal/listview"
)

// ErrNotFound is returned when a user has no saved preference for a view.
var ErrNotFound = errors.New("preference not found")

// Preference remembers how a user last left a list view.
type Preference struct {
	UserID    string
	View      string
	SortBy    string
	SortOrder listview.SortOrder
	PageSize  int
	Filters   listview.Filters
	UpdatedAt time.Time
}

// FromRequest captures the sort, page size and filters of req.
func FromRequest(userID, view string, req listview.PageRequest) (*Preference, error) {
	if userID == "" {
		return nil, fmt.Errorf("preference: user id is required")
	}
	if view == "" {
		return nil, fmt.Errorf("preference: view is required")
	}
	return &Preference{
		UserID:    userID,
		View:      view,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		PageSize:  req.PageSize,
		Filters:   req.Filters.Clone(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Apply copies the saved sort, page size and filters into req. The page is
// left alone.
func (p *Preference) Apply(req *listview.PageRequest) {
	if p.SortBy != "" {
		req.SortBy = p.SortBy
		req.SortOrder = p.SortOrder
	}
	if p.PageSize > 0 {
		req.PageSize = p.PageSize
	}
	if len(p.Filters) > 0 {
		req.Filters = p.Filters.Clone()
	}
}
