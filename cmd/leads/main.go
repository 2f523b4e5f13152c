package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/leadconsole/internal/auth"
	"github.com/alfredjeanlab/leadconsole/internal/client"
	"github.com/alfredjeanlab/leadconsole/internal/config"
	"github.com/alfredjeanlab/leadconsole/internal/console"
	"github.com/alfredjeanlab/leadconsole/internal/events"
	"github.com/alfredjeanlab/leadconsole/internal/store"
	"github.com/alfredjeanlab/leadconsole/internal/ui"
)

// app carries the state shared by every command of one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer

	// flag overrides
	apiURL     string
	tokenStore string
	jsonOutput bool

	cfg       *config.Config
	logger    *slog.Logger
	tokens    auth.TokenStore
	client    *client.HTTPClient
	publisher events.Publisher
	prompter  *ui.Prompter

	// subscribe opens the event feed for `leads events`.
	subscribe func(url string, logger *slog.Logger) (events.Subscriber, error)
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, prompter: &ui.Prompter{}, subscribe: dialSubscriber}
}

func dialSubscriber(url string, logger *slog.Logger) (events.Subscriber, error) {
	return events.NewNATSSubscriber(url, logger)
}

// setup resolves configuration and builds the collaborators. Flags given
// on the command line win over LEADS_* variables.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-url") {
		if err := config.ValidateAPIURL(a.apiURL); err != nil {
			return fmt.Errorf("--api-url: %w", err)
		}
		cfg.APIURL = a.apiURL
	}
	if cmd.Flags().Changed("token-store") {
		cfg.TokenStore = a.tokenStore
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.LogLevel}))

	a.tokens, err = auth.OpenTokenStore(cfg.TokenStore)
	if err != nil {
		return fmt.Errorf("opening token store: %w", err)
	}

	a.client = client.NewHTTPClient(cfg.APIURL,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(a.logger),
	)

	a.publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			a.logger.Warn("event bus unavailable; changes will not be announced", "err", err)
		} else {
			a.publisher = p
		}
	}
	return nil
}

// teardown releases what setup opened. It is safe to call when setup never ran.
func (a *app) teardown() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
}

func (a *app) gate() *auth.Gate {
	return auth.NewGate(a.tokens, a.logger)
}

func (a *app) session() *auth.Session {
	return auth.NewSession(a.client, a.tokens,
		auth.WithTokenListener(a.client.SetToken),
		auth.WithSessionLogger(a.logger),
	)
}

// openConsole passes the gate, attaches the token to the client and loads
// the collection. Every protected command starts here. Only a gate refusal
// is fatal: when the load fails the console is returned over an empty
// snapshot and the failure stays in the log and in LoadErr.
func (a *app) openConsole(ctx context.Context) (*console.Console, error) {
	g := a.gate()
	token, err := g.Enter(ctx)
	if err != nil {
		return nil, err
	}
	a.client.SetToken(token)

	st := store.New(a.client, store.WithPublisher(a.publisher), store.WithLogger(a.logger))
	c := console.New(g, st, a.logger)
	if err := c.Activate(ctx); err != nil {
		var le *console.LoadError
		if !errors.As(err, &le) {
			return nil, err
		}
	}
	return c, nil
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leads <command>",
		Short:         "Terminal console for managing sales leads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate().Enter(cmd.Context()); err != nil {
				if !auth.IsRedirect(err) {
					return err
				}
				fmt.Fprintln(a.out, "Not logged in. Run 'leads login', or 'leads signup' to create an account.")
				return nil
			}
			fmt.Fprintln(a.out, "Logged in. Run 'leads list' to see your leads.")
			return nil
		},
	}

	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", config.DefaultAPIURL, "lead API base URL (env LEADS_API_URL)")
	root.PersistentFlags().StringVar(&a.tokenStore, "token-store", "", "session token store: file path or redis:// URL (env LEADS_TOKEN_STORE)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")

	root.AddGroup(
		&cobra.Group{ID: "leads", Title: "Leads:"},
		&cobra.Group{ID: "reports", Title: "Reports:"},
		&cobra.Group{ID: "account", Title: "Account:"},
	)
	cobra.EnableCommandSorting = false
	root.SetHelpFunc(colorizedHelpFunc())

	// Leads
	root.AddCommand(a.listCmd())
	root.AddCommand(a.addCmd())
	root.AddCommand(a.editCmd())
	root.AddCommand(a.deleteCmd())

	// Reports
	root.AddCommand(a.statsCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.eventsCmd())

	// Account
	root.AddCommand(a.loginCmd())
	root.AddCommand(a.signupCmd())
	root.AddCommand(a.logoutCmd())

	return root
}

// describeError turns the typed errors of the console into CLI guidance.
func describeError(err error) string {
	var (
		redirect *auth.RedirectError
		authErr  *auth.AuthError
		remote   *client.RemoteError
	)
	switch {
	case errors.As(err, &redirect):
		return "not logged in; run 'leads login' first"
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &remote) && remote.StatusCode == 401:
		return remote.Error() + " (session expired? run 'leads login')"
	}
	return err.Error()
}

func main() {
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	err := a.rootCmd().ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: "+describeError(err)))
		os.Exit(1)
	}
}
