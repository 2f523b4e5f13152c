package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/leadconsole/internal/client"
	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// User-facing auth messages.
const (
	MsgLoginFailed   = "Login failed"
	MsgSignupFailed  = "Signup failed"
	MsgGenericError  = "An error occurred"
	MsgSignupSuccess = "Signup successful! Please log in."
)

// AuthError is a failed login or signup. Message is what the user sees; Err
// is the underlying cause.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Outcome tells the caller where to go after a successful auth action.
type Outcome struct {
	Next    model.View
	Message string
	User    *model.User
}

// SignupForm is the signup edit buffer. Signup clears it on success and
// leaves it untouched on failure.
type SignupForm struct {
	Name     string
	Email    string
	Password string
}

// Session submits credentials and manages the persisted token.
type Session struct {
	client  client.AuthClient
	tokens  TokenStore
	logger  *slog.Logger
	onToken func(token string)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTokenListener registers fn to be called with the new token after a
// login and with "" after a logout.
func WithTokenListener(fn func(token string)) SessionOption {
	return func(s *Session) { s.onToken = fn }
}

// WithSessionLogger sets the session's logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession returns a session using c for the auth endpoints and tokens
// for persistence.
func NewSession(c client.AuthClient, tokens TokenStore, opts ...SessionOption) *Session {
	s := &Session{client: c, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login posts the credentials and persists the returned token. On failure
// no token is written and the error is an *AuthError carrying the server's
// message, or a *model.ValidationError when a field is empty.
func (s *Session) Login(ctx context.Context, email, password string) (*Outcome, error) {
	creds := model.Credentials{Email: email, Password: password}
	if err := model.ValidateLogin(creds); err != nil {
		return nil, err
	}

	resp, err := s.client.Login(ctx, creds)
	if err != nil {
		s.logger.Info("login rejected", "email", email, "err", err)
		return nil, authError(err, MsgLoginFailed)
	}
	if resp.Token == "" {
		return nil, &AuthError{Message: MsgGenericError, Err: errors.New("login response carried no token")}
	}

	if err := s.tokens.Set(ctx, TokenKey, resp.Token); err != nil {
		return nil, fmt.Errorf("persisting session token: %w", err)
	}
	s.notify(resp.Token)
	return &Outcome{Next: model.ViewDashboard, User: resp.User}, nil
}

// Signup posts the form. Success clears the form and directs the caller to
// log in; it does not authenticate.
func (s *Session) Signup(ctx context.Context, form *SignupForm) (*Outcome, error) {
	req := model.SignupRequest{Name: form.Name, Email: form.Email, Password: form.Password}
	if err := model.ValidateSignup(req); err != nil {
		return nil, err
	}

	if err := s.client.Signup(ctx, req); err != nil {
		s.logger.Info("signup rejected", "email", form.Email, "err", err)
		return nil, authError(err, MsgSignupFailed)
	}

	*form = SignupForm{}
	return &Outcome{Next: model.ViewLogin, Message: MsgSignupSuccess}, nil
}

// Logout removes the persisted token. Later Gate.Enter calls redirect.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.tokens.Remove(ctx, TokenKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("removing session token: %w", err)
	}
	s.notify("")
	return nil
}

func (s *Session) notify(token string) {
	if s.onToken != nil {
		s.onToken(token)
	}
}

// authError maps a client error to the message shown to the user: the
// server's own message when it sent one, fallback for other rejections,
// and a generic message for transport failures.
func authError(err error, fallback string) *AuthError {
	var re *client.RemoteError
	if errors.As(err, &re) {
		if re.Message != "" {
			return &AuthError{Message: re.Message, Err: err}
		}
		return &AuthError{Message: fallback, Err: err}
	}
	return &AuthError{Message: MsgGenericError, Err: err}
}
