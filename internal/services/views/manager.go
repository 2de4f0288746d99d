// Package views mounts the named list views for signed-in sessions and
// drives their transitions.
package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"oldphonedeals/internal/domain/preference"
	"oldphonedeals/internal/listview"
	"oldphonedeals/internal/session"
	"oldphonedeals/internal/store/repositories"
)

var (
	ErrViewNotFound     = errors.New("unknown view")
	ErrInstanceNotFound = errors.New("view instance not found")
	ErrForbidden        = errors.New("view requires an admin session")
	ErrInvalidRequest   = errors.New("invalid view request")
)

// refreshLimit bounds concurrent refreshes per RefreshAll call.
const refreshLimit = 4

// ServiceError represents a views service error
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "views service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Gauge is told how many views are mounted after every change.
type Gauge interface {
	SetMounted(n int)
}

// Snapshot is what callers see of a mounted view.
type Snapshot struct {
	ID       string   `json:"id"`
	View     string   `json:"view"`
	Strategy string   `json:"strategy"`
	Filters  []string `json:"filters"`
	Sorters  []string `json:"sorters"`
	State    any      `json:"state"`
}

type instance struct {
	id        string
	sessionID string
	def       *Definition
	h         Handle
}

func (i *instance) snapshot() *Snapshot {
	return &Snapshot{
		ID:       i.id,
		View:     i.def.Name,
		Strategy: i.def.Strategy,
		Filters:  i.def.Filters,
		Sorters:  i.def.Sorters,
		State:    i.h.Snapshot(),
	}
}

// Manager owns every mounted view.
type Manager struct {
	defs  map[string]*Definition
	deps  Deps
	prefs repositories.PreferenceRepository
	gauge Gauge

	mu        sync.RWMutex
	instances map[string]*instance
}

// NewManager creates a manager over the full catalogue. prefs and gauge may
// be nil.
func NewManager(deps Deps, prefs repositories.PreferenceRepository, gauge Gauge) *Manager {
	return &Manager{
		defs:      Catalog(),
		deps:      deps,
		prefs:     prefs,
		gauge:     gauge,
		instances: make(map[string]*instance),
	}
}

// Definitions lists the catalogue sorted by name.
func (m *Manager) Definitions() []*Definition {
	out := make([]*Definition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Mount creates a view for sess and performs its first load. A load failure
// does not fail the mount; it is reported in the returned state.
func (m *Manager) Mount(ctx context.Context, sess *session.Session, name string, req listview.PageRequest) (*Snapshot, error) {
	def, ok := m.defs[name]
	if !ok {
		return nil, &ServiceError{Op: "mount", Err: fmt.Errorf("%w: %q", ErrViewNotFound, name)}
	}
	if def.Admin && !sess.IsAdmin() {
		return nil, &ServiceError{Op: "mount", Err: ErrForbidden}
	}
	if err := m.validate(def, req.SortBy, req.Filters.Keys()...); err != nil {
		return nil, &ServiceError{Op: "mount", Err: err}
	}

	req = m.initialRequest(ctx, sess, def, req)
	inst := &instance{
		id:        uuid.NewString(),
		sessionID: sess.ID,
		def:       def,
		h:         def.build(m.deps, sess, req),
	}

	m.mu.Lock()
	m.instances[inst.id] = inst
	n := len(m.instances)
	m.mu.Unlock()
	m.report(n)

	log.Info().
		Str("view", name).
		Str("view_id", inst.id).
		Str("session_id", sess.ID).
		Msg("view mounted")

	if err := m.settle(inst.h.Load(ctx, req)); err != nil {
		return nil, &ServiceError{Op: "mount", Err: err}
	}
	return inst.snapshot(), nil
}

// initialRequest fills in what the caller left out: the saved preference
// when neither sort nor filters were given, then the view defaults.
func (m *Manager) initialRequest(ctx context.Context, sess *session.Session, def *Definition, req listview.PageRequest) listview.PageRequest {
	req = req.Clone()
	if req.SortBy == "" && len(req.Filters) == 0 && m.prefs != nil && sess.User.ID != "" {
		p, err := m.prefs.FindPreference(ctx, sess.User.ID, def.Name)
		switch {
		case err == nil:
			p.Apply(&req)
		case !errors.Is(err, preference.ErrNotFound):
			log.Warn().Err(err).Str("view", def.Name).Msg("failed to load view preference")
		}
	}
	if req.SortBy == "" && def.DefaultSortBy != "" {
		req.SortBy = def.DefaultSortBy
		req.SortOrder = def.DefaultSortOrder
	}
	if req.PageSize <= 0 && m.deps.PageSize > 0 {
		req.PageSize = m.deps.PageSize
	}
	req.Normalize()
	return req
}

func (m *Manager) validate(def *Definition, sortBy string, filterKeys ...string) error {
	if !def.acceptsSort(sortBy) {
		return fmt.Errorf("%w: %s cannot be sorted by %q", ErrInvalidRequest, def.Name, sortBy)
	}
	for _, k := range filterKeys {
		if !def.acceptsFilter(k) {
			return fmt.Errorf("%w: %s has no filter %q", ErrInvalidRequest, def.Name, k)
		}
	}
	return nil
}

// settle drops the errors a view already records in its state.
func (m *Manager) settle(err error) error {
	var loadErr *listview.LoadError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &loadErr), errors.Is(err, listview.ErrSuperseded):
		return nil
	default:
		return err
	}
}

func (m *Manager) lookup(sess *session.Session, id string) (*instance, error) {
	m.mu.RLock()
	inst, ok := m.instances[id]
	m.mu.RUnlock()
	if !ok || sess == nil || inst.sessionID != sess.ID {
		return nil, ErrInstanceNotFound
	}
	return inst, nil
}

// Get returns the current snapshot of a view owned by sess.
func (m *Manager) Get(sess *session.Session, id string) (*Snapshot, error) {
	inst, err := m.lookup(sess, id)
	if err != nil {
		return nil, &ServiceError{Op: "get", Err: err}
	}
	return inst.snapshot(), nil
}

func (m *Manager) transition(ctx context.Context, sess *session.Session, id, op string,
	fn func(ctx context.Context, inst *instance) error,
) (*Snapshot, error) {
	inst, err := m.lookup(sess, id)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}
	if err := m.settle(fn(ctx, inst)); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}
	return inst.snapshot(), nil
}

// SetPage moves a view to page n.
func (m *Manager) SetPage(ctx context.Context, sess *session.Session, id string, n int) (*Snapshot, error) {
	return m.transition(ctx, sess, id, "set_page", func(ctx context.Context, inst *instance) error {
		return inst.h.SetPage(ctx, n)
	})
}

// SetSort changes a view's ordering.
func (m *Manager) SetSort(ctx context.Context, sess *session.Session, id, sortBy string, order listview.SortOrder) (*Snapshot, error) {
	return m.transition(ctx, sess, id, "set_sort", func(ctx context.Context, inst *instance) error {
		if err := m.validate(inst.def, sortBy); err != nil {
			return err
		}
		return inst.h.SetSort(ctx, sortBy, order)
	})
}

// SetFilter sets or clears one filter of a view.
func (m *Manager) SetFilter(ctx context.Context, sess *session.Session, id, key string, value any) (*Snapshot, error) {
	return m.transition(ctx, sess, id, "set_filter", func(ctx context.Context, inst *instance) error {
		if err := m.validate(inst.def, "", key); err != nil {
			return err
		}
		return inst.h.SetFilter(ctx, key, value)
	})
}

// Refresh reloads a view, bypassing the collection cache.
func (m *Manager) Refresh(ctx context.Context, sess *session.Session, id string) (*Snapshot, error) {
	return m.transition(ctx, sess, id, "refresh", func(ctx context.Context, inst *instance) error {
		return inst.h.Refresh(ctx)
	})
}

// RefreshAll refreshes every view of sess concurrently.
func (m *Manager) RefreshAll(ctx context.Context, sess *session.Session) ([]*Snapshot, error) {
	owned := m.owned(sess.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshLimit)
	for _, inst := range owned {
		g.Go(func() error {
			return m.settle(inst.h.Refresh(gctx))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &ServiceError{Op: "refresh_all", Err: err}
	}

	out := make([]*Snapshot, 0, len(owned))
	for _, inst := range owned {
		out = append(out, inst.snapshot())
	}
	return out, nil
}

// Unmount discards a view after remembering its sort, page size and
// filters for the session user.
func (m *Manager) Unmount(ctx context.Context, sess *session.Session, id string) error {
	inst, err := m.lookup(sess, id)
	if err != nil {
		return &ServiceError{Op: "unmount", Err: err}
	}
	m.savePreference(ctx, sess, inst)

	m.mu.Lock()
	delete(m.instances, id)
	n := len(m.instances)
	m.mu.Unlock()
	m.report(n)

	log.Info().
		Str("view", inst.def.Name).
		Str("view_id", id).
		Msg("view unmounted")
	return nil
}

// UnmountSession discards every view of a session, typically on logout.
// Preferences are not saved.
func (m *Manager) UnmountSession(sessionID string) int {
	m.mu.Lock()
	removed := 0
	for id, inst := range m.instances {
		if inst.sessionID == sessionID {
			delete(m.instances, id)
			removed++
		}
	}
	n := len(m.instances)
	m.mu.Unlock()
	m.report(n)

	if removed > 0 {
		log.Info().
			Str("session_id", sessionID).
			Int("count", removed).
			Msg("session views unmounted")
	}
	return removed
}

// Sessions returns the distinct sessions that own mounted views.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, inst := range m.instances {
		if _, ok := seen[inst.sessionID]; ok {
			continue
		}
		seen[inst.sessionID] = struct{}{}
		out = append(out, inst.sessionID)
	}
	return out
}

// Mounted returns the number of mounted views.
func (m *Manager) Mounted() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

func (m *Manager) owned(sessionID string) []*instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*instance
	for _, inst := range m.instances {
		if inst.sessionID == sessionID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (m *Manager) savePreference(ctx context.Context, sess *session.Session, inst *instance) {
	if m.prefs == nil || sess.User.ID == "" {
		return
	}
	p, err := preference.FromRequest(sess.User.ID, inst.def.Name, inst.h.Request())
	if err != nil {
		log.Warn().Err(err).Str("view", inst.def.Name).Msg("cannot build view preference")
		return
	}
	if err := m.prefs.SavePreference(ctx, p); err != nil {
		log.Warn().Err(err).Str("view", inst.def.Name).Msg("failed to save view preference")
	}
}

func (m *Manager) report(n int) {
	if m.gauge != nil {
		m.gauge.SetMounted(n)
	}
}
