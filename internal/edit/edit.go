// Package edit holds the form buffer used to draft a new lead or change an
// existing one before it is submitted to the store.
//
// The buffer is always a value copy. Edits to it never reach the store's
// snapshot; only a successful Submit changes the collection.
package edit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// State is the session's position in the edit lifecycle.
type State int

const (
	Idle State = iota
	DraftingNew
	EditingExisting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraftingNew:
		return "drafting-new"
	case EditingExisting:
		return "editing-existing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrBusy is returned when opening a buffer while one is already open.
	ErrBusy = errors.New("an edit is already in progress")
	// ErrIdle is returned when changing or submitting with no buffer open.
	ErrIdle = errors.New("no edit in progress")
)

// Saver persists a submitted buffer. *store.Store satisfies it.
type Saver interface {
	Create(ctx context.Context, draft model.Lead) (model.Lead, error)
	Update(ctx context.Context, lead model.Lead) (model.Lead, error)
}

// Session is a single edit buffer and its state.
type Session struct {
	saver Saver

	mu     sync.Mutex
	state  State
	buffer model.Lead
}

// NewSession returns an idle session that submits to saver.
func NewSession(saver Saver) *Session {
	return &Session{saver: saver}
}

// OpenNew starts an empty draft.
func (s *Session) OpenNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return ErrBusy
	}
	s.state = DraftingNew
	s.buffer = model.Lead{}
	return nil
}

// OpenExisting starts editing a copy of lead.
func (s *Session) OpenExisting(lead model.Lead) error {
	if lead.ID == "" {
		return &model.ValidationError{Message: "cannot edit a lead without an id", Fields: []string{"id"}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return ErrBusy
	}
	s.state = EditingExisting
	s.buffer = lead
	return nil
}

// SetField changes one field of the open buffer.
func (s *Session) SetField(f model.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		return ErrIdle
	}
	return s.buffer.Set(f, value)
}

// Buffer returns a copy of the open buffer.
func (s *Session) Buffer() model.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel discards the buffer and returns to idle. Cancelling an idle
// session does nothing.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.buffer = model.Lead{}
}

// Submit sends the buffer to the saver: a draft is validated and created,
// an existing lead is updated. On success the session returns to idle and
// the saved lead is returned. On failure the state and buffer are kept so
// the user can correct and resubmit.
//
// The session stays locked for the duration of the call, so a second
// Submit waits for the first to finish.
func (s *Session) Submit(ctx context.Context) (model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		saved model.Lead
		err   error
	)
	switch s.state {
	case Idle:
		return model.Lead{}, ErrIdle
	case DraftingNew:
		if err := model.ValidateDraft(s.buffer); err != nil {
			return model.Lead{}, err
		}
		saved, err = s.saver.Create(ctx, s.buffer)
	case EditingExisting:
		saved, err = s.saver.Update(ctx, s.buffer)
	}
	if err != nil {
		return model.Lead{}, err
	}

	s.state = Idle
	s.buffer = model.Lead{}
	return saved, nil
}
