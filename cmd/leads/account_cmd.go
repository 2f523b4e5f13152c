package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/leadconsole/internal/auth"
	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/ui"
)

func (a *app) loginCmd() *cobra.Command {
	var creds model.Credentials
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Log in and store the session token",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if creds.Email == "" || creds.Password == "" {
				if err := a.prompter.LoginForm(ctx, &creds); err != nil && !errors.Is(err, ui.ErrNotInteractive) {
					return err
				}
			}

			out, err := a.session().Login(ctx, creds.Email, creds.Password)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, out)
			}
			who := creds.Email
			if out.User != nil && out.User.Name != "" {
				who = fmt.Sprintf("%s <%s>", out.User.Name, out.User.Email)
			}
			fmt.Fprintf(a.out, "%s as %s\n", ui.RenderSuccess("Logged in"), who)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *app) signupCmd() *cobra.Command {
	var form auth.SignupForm
	cmd := &cobra.Command{
		Use:     "signup",
		Short:   "Create an account",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if form.Name == "" || form.Email == "" || form.Password == "" {
				if err := a.prompter.SignupForm(ctx, &form); err != nil && !errors.Is(err, ui.ErrNotInteractive) {
					return err
				}
			}

			out, err := a.session().Signup(ctx, &form)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.RenderSuccess(out.Message))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password, at least 6 characters (prompted when omitted)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Forget the stored session token",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}
