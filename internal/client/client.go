// Package client provides the transport-agnostic contract for the remote
// leads API and an HTTP/JSON implementation of it.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// LeadClient is the remote collection resource. Implementations hold no
// state of their own beyond connection settings.
type LeadClient interface {
	ListLeads(ctx context.Context) ([]model.Lead, error)
	CreateLead(ctx context.Context, draft model.Lead) (*model.Lead, error)
	UpdateLead(ctx context.Context, id string, lead model.Lead) (*model.Lead, error)
	DeleteLead(ctx context.Context, id string) error

	// Stats returns the server-side per-status breakdown.
	Stats(ctx context.Context) (*model.Stats, error)
}

// AuthClient submits credentials to the auth endpoints.
type AuthClient interface {
	Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error)
	Signup(ctx context.Context, req model.SignupRequest) error
}

// RemoteError is a non-success response from the API. Message is the
// server-provided error text and is empty when the body carried none; Body
// then holds the raw response text.
type RemoteError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// TransportError is a network failure or a response that could not be
// decoded. Op names the step that failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
