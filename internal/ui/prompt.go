package ui

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/alfredjeanlab/leadconsole/internal/auth"
	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// ErrNotInteractive is returned when a prompt is needed but no terminal is
// attached.
var ErrNotInteractive = errors.New("not a terminal; pass the values as flags")

// Prompter shows huh forms on the terminal.
type Prompter struct {
	// Interactive reports whether prompts can be shown. Nil means
	// IsInteractive.
	Interactive func() bool
	// Accessible switches huh to its line-based mode.
	Accessible bool
}

func (p *Prompter) interactive() bool {
	if p.Interactive != nil {
		return p.Interactive()
	}
	return IsInteractive()
}

func (p *Prompter) run(ctx context.Context, groups ...*huh.Group) error {
	if !p.interactive() {
		return ErrNotInteractive
	}
	form := huh.NewForm(groups...).WithAccessible(p.Accessible)
	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// Confirm asks a yes/no question defaulting to no. It satisfies
// store.Confirmer.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	var confirmed bool
	err := p.run(ctx, huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed),
	))
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return confirmed, err
}

func statusOptions() []huh.Option[model.Status] {
	opts := make([]huh.Option[model.Status], 0, len(model.Statuses()))
	for _, s := range model.Statuses() {
		opts = append(opts, huh.NewOption(string(s), s))
	}
	return opts
}

func required(label string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// LeadForm edits lead in place. Fields already set are shown as defaults.
// An empty status is preset to new.
func (p *Prompter) LeadForm(ctx context.Context, title string, lead *model.Lead) error {
	if lead.Status == "" {
		lead.Status = model.StatusNew
	}
	return p.run(ctx, huh.NewGroup(
		huh.NewInput().Title("Name").Value(&lead.Name).Validate(required("name")),
		huh.NewInput().Title("Email").Value(&lead.Email).Validate(required("email")),
		huh.NewSelect[model.Status]().Title("Status").Options(statusOptions()...).Value(&lead.Status),
		huh.NewText().Title("AI message").Value(&lead.AIMessage).Validate(required("message")),
	).Title(title))
}

// LoginForm prompts for the missing credentials.
func (p *Prompter) LoginForm(ctx context.Context, creds *model.Credentials) error {
	return p.run(ctx, huh.NewGroup(
		huh.NewInput().Title("Email").Value(&creds.Email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&creds.Password).Validate(required("password")),
	).Title("Log in"))
}

// SignupForm prompts for a new account.
func (p *Prompter) SignupForm(ctx context.Context, form *auth.SignupForm) error {
	return p.run(ctx, huh.NewGroup(
		huh.NewInput().Title("Name").Value(&form.Name).Validate(required("name")),
		huh.NewInput().Title("Email").Value(&form.Email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&form.Password).
			Validate(func(s string) error {
				if utf8.RuneCountInString(s) < model.MinPasswordLength {
					return errors.New(model.MsgPasswordLength)
				}
				return nil
			}),
	).Title("Sign up"))
}
