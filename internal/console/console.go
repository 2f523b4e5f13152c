// Package console composes the access gate, the lead store, the filter and
// the edit session into the dashboard a user works in after logging in.
package console

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/leadconsole/internal/auth"
	"github.com/alfredjeanlab/leadconsole/internal/edit"
	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/store"
)

// Console is one dashboard view. Visible is recomputed from the store's
// current snapshot on every call.
type Console struct {
	gate   *auth.Gate
	store  *store.Store
	edit   *edit.Session
	logger *slog.Logger

	mu      sync.RWMutex
	filter  model.Filter
	loadErr error
}

// LoadError reports that the console was entered but its collection could
// not be fetched. The console stays usable over the snapshot it already held.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// New returns a console over gate and st.
func New(gate *auth.Gate, st *store.Store, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		gate:   gate,
		store:  st,
		edit:   edit.NewSession(st),
		logger: logger,
	}
}

// Activate passes the gate and loads the collection. A gate refusal is
// returned (a *auth.RedirectError when no token is present) and nothing is
// loaded. A load failure is logged and returned as a *LoadError; the console
// remains usable with whatever snapshot it already holds.
func (c *Console) Activate(ctx context.Context) error {
	if _, err := c.gate.Enter(ctx); err != nil {
		return err
	}
	err := c.store.Load(ctx)
	c.mu.Lock()
	c.loadErr = err
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("dashboard opened without fresh leads", "err", err)
		return &LoadError{Err: err}
	}
	return nil
}

// LoadErr returns the failure of the last Activate load, or nil when the
// snapshot is fresh.
func (c *Console) LoadErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Filter returns the current filter state.
func (c *Console) Filter() model.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SetSearch changes the search text.
func (c *Console) SetSearch(text string) {
	c.mu.Lock()
	c.filter.Search = text
	c.mu.Unlock()
}

// SetStatusFilter changes the status filter. An empty status shows all.
func (c *Console) SetStatusFilter(status model.Status) error {
	f := c.Filter()
	f.Status = status
	if err := f.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.filter.Status = status
	c.mu.Unlock()
	return nil
}

// Visible returns the leads that pass the current filter, in snapshot order.
func (c *Console) Visible() []model.Lead {
	return c.Filter().Apply(c.store.Snapshot())
}

// Stats tallies the full snapshot, ignoring the filter.
func (c *Console) Stats() model.Stats {
	return model.Tally(c.store.Snapshot())
}

// Edit returns the console's edit session.
func (c *Console) Edit() *edit.Session {
	return c.edit
}

// Store returns the underlying store.
func (c *Console) Store() *store.Store {
	return c.store
}

// Delete removes the lead with id after confirm agrees.
func (c *Console) Delete(ctx context.Context, id string, confirm store.Confirmer) error {
	return c.store.Remove(ctx, id, confirm)
}
