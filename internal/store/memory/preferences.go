// Package memory holds in-process repositories used when no database is
// configured.
package memory

import (
	"context"
	"sync"

	"oldphonedeals/internal/domain/preference"
)

// PreferenceRepo keeps view preferences in a map.
type PreferenceRepo struct {
	mu    sync.RWMutex
	prefs map[string]preference.Preference
}

func NewPreferenceRepo() *PreferenceRepo {
	return &PreferenceRepo{prefs: make(map[string]preference.Preference)}
}

func key(userID, view string) string { return userID + "\x00" + view }

func (r *PreferenceRepo) SavePreference(_ context.Context, p *preference.Preference) error {
	cp := *p
	cp.Filters = p.Filters.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[key(p.UserID, p.View)] = cp
	return nil
}

func (r *PreferenceRepo) FindPreference(_ context.Context, userID, view string) (*preference.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prefs[key(userID, view)]
	if !ok {
		return nil, preference.ErrNotFound
	}
	p.Filters = p.Filters.Clone()
	return &p, nil
}
