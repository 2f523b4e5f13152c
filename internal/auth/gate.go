package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// RedirectError denies entry and names the view the caller must go to.
type RedirectError struct {
	To model.View
}

func (e *RedirectError) Error() string {
	return "not logged in: redirect to " + string(e.To)
}

// IsRedirect reports whether err denies entry.
func IsRedirect(err error) bool {
	var re *RedirectError
	return errors.As(err, &re)
}

// Gate decides on each protected view activation whether a session token
// is present.
type Gate struct {
	tokens TokenStore
	logger *slog.Logger
}

// NewGate returns a gate reading from tokens.
func NewGate(tokens TokenStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{tokens: tokens, logger: logger}
}

// Enter returns the stored token, or a *RedirectError to the login view
// when none is present. A storage failure is returned as-is and also
// denies entry.
func (g *Gate) Enter(ctx context.Context) (string, error) {
	token, err := g.tokens.Get(ctx, TokenKey)
	if errors.Is(err, ErrNotFound) || (err == nil && token == "") {
		g.logger.Debug("no session token; redirecting", "to", model.ViewLogin)
		return "", &RedirectError{To: model.ViewLogin}
	}
	if err != nil {
		return "", fmt.Errorf("reading session token: %w", err)
	}
	return token, nil
}

// Guard runs fn only when Enter admits the caller.
func (g *Gate) Guard(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	token, err := g.Enter(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, token)
}
