// Package store owns the console's canonical snapshot of the lead
// collection and is the only component that issues mutating calls to the
// remote API.
//
// Every snapshot change follows a confirmed remote result: Load replaces
// the snapshot wholesale, Create appends the server-returned lead, Update
// replaces by id and Remove drops by id. Nothing is applied speculatively,
// so a failed call leaves the snapshot exactly as it was.
//
// Update and Remove on the same id are serialized by a per-id lock; calls on
// different ids proceed concurrently. Load and Create are not keyed.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/leadconsole/internal/client"
	"github.com/alfredjeanlab/leadconsole/internal/events"
	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// DeletePrompt is the question put to the Confirmer before a delete.
const DeletePrompt = "Are you sure you want to delete this lead?"

// ErrNotConfirmed is returned by Remove when the confirmation gate declines.
var ErrNotConfirmed = errors.New("delete not confirmed")

// Confirmer is the explicit yes/no gate in front of a delete.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Always is a Confirmer that answers yes without asking (e.g. --yes).
var Always Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Store holds the canonical lead snapshot.
type Store struct {
	client    client.LeadClient
	publisher events.Publisher
	logger    *slog.Logger

	mu    sync.RWMutex
	leads []model.Lead

	locks keyedMutex
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets where confirmed changes are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store backed by c.
func New(c client.LeadClient, opts ...Option) *Store {
	s := &Store{
		client:    c,
		publisher: &events.NoopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the full collection and replaces the snapshot. On failure
// the previous snapshot is kept and the error is logged and returned.
// Entries without an id are dropped; a repeated id keeps its first entry.
func (s *Store) Load(ctx context.Context) error {
	fetched, err := s.client.ListLeads(ctx)
	if err != nil {
		s.logger.Warn("loading leads failed; keeping previous snapshot", "err", err)
		return fmt.Errorf("loading leads: %w", err)
	}

	leads := make([]model.Lead, 0, len(fetched))
	seen := make(map[string]bool, len(fetched))
	for _, l := range fetched {
		switch {
		case l.ID == "":
			s.logger.Warn("dropping lead without id from snapshot", "name", l.Name)
			continue
		case seen[l.ID]:
			s.logger.Warn("dropping duplicate lead id from snapshot", "id", l.ID)
			continue
		}
		seen[l.ID] = true
		leads = append(leads, l)
	}

	s.mu.Lock()
	s.leads = leads
	s.mu.Unlock()

	s.logger.Debug("snapshot loaded", "count", len(leads))
	s.publish(ctx, events.Event{Topic: events.TopicSnapshotLoaded, Count: len(leads)})
	return nil
}

// Create validates draft, submits it, and appends the server-returned lead.
// A draft with any empty field fails with *model.ValidationError before any
// network call.
func (s *Store) Create(ctx context.Context, draft model.Lead) (model.Lead, error) {
	draft.ID = ""
	if err := model.ValidateDraft(draft); err != nil {
		return model.Lead{}, err
	}

	created, err := s.client.CreateLead(ctx, draft)
	if err != nil {
		s.logger.Warn("creating lead failed", "err", err)
		return model.Lead{}, fmt.Errorf("creating lead: %w", err)
	}
	if created.ID == "" {
		return model.Lead{}, &client.TransportError{Op: "decoding response", Err: errors.New("created lead has no id")}
	}

	s.mu.Lock()
	if i := s.indexLocked(created.ID); i >= 0 {
		s.logger.Warn("server returned an existing id for a new lead; replacing entry", "id", created.ID)
		s.leads[i] = *created
	} else {
		s.leads = append(s.leads, *created)
	}
	s.mu.Unlock()

	s.publish(ctx, events.Event{Topic: events.TopicLeadCreated, Lead: created, LeadID: created.ID})
	return *created, nil
}

// Update sends the full lead and replaces the snapshot entry with the
// server-returned version. If the entry is no longer in the snapshot the
// snapshot is left unchanged.
func (s *Store) Update(ctx context.Context, lead model.Lead) (model.Lead, error) {
	if lead.ID == "" {
		return model.Lead{}, &model.ValidationError{Message: "lead id is required", Fields: []string{"_id"}}
	}

	unlock := s.locks.Lock(lead.ID)
	defer unlock()

	updated, err := s.client.UpdateLead(ctx, lead.ID, lead)
	if err != nil {
		s.logger.Warn("updating lead failed", "id", lead.ID, "err", err)
		return model.Lead{}, fmt.Errorf("updating lead %s: %w", lead.ID, err)
	}
	if updated.ID != lead.ID {
		if updated.ID != "" {
			s.logger.Warn("server returned a different id for an update; keeping requested id",
				"id", lead.ID, "returned", updated.ID)
		}
		updated.ID = lead.ID
	}

	s.mu.Lock()
	if i := s.indexLocked(lead.ID); i >= 0 {
		s.leads[i] = *updated
	} else {
		s.logger.Debug("updated lead not in snapshot", "id", lead.ID)
	}
	s.mu.Unlock()

	s.publish(ctx, events.Event{Topic: events.TopicLeadUpdated, Lead: updated, LeadID: updated.ID})
	return *updated, nil
}

// Remove asks confirm, then deletes the lead remotely and drops it from the
// snapshot. A declined confirmation returns ErrNotConfirmed without any
// network call. Removing an id that is not in the snapshot leaves the
// snapshot unchanged.
func (s *Store) Remove(ctx context.Context, id string, confirm Confirmer) error {
	if id == "" {
		return &model.ValidationError{Message: "lead id is required", Fields: []string{"_id"}}
	}
	if confirm == nil {
		return errors.New("remove requires a confirmation gate")
	}
	ok, err := confirm.Confirm(ctx, DeletePrompt)
	if err != nil {
		return fmt.Errorf("confirming delete: %w", err)
	}
	if !ok {
		return ErrNotConfirmed
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.client.DeleteLead(ctx, id); err != nil {
		s.logger.Warn("deleting lead failed", "id", id, "err", err)
		return fmt.Errorf("deleting lead %s: %w", id, err)
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.leads = append(s.leads[:i:i], s.leads[i+1:]...)
	}
	s.mu.Unlock()

	s.publish(ctx, events.Event{Topic: events.TopicLeadDeleted, LeadID: id})
	return nil
}

// Snapshot returns a copy of the current leads in order.
func (s *Store) Snapshot() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Lead(nil), s.leads...)
}

// Get returns the snapshot entry with the given id.
func (s *Store) Get(id string) (model.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.leads[i], true
	}
	return model.Lead{}, false
}

// Len returns the number of leads in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publish(ctx context.Context, e events.Event) {
	e.At = time.Now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publishing event failed", "topic", e.Topic, "err", err)
	}
}
