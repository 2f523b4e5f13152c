package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/leadconsole/internal/edit"
	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/store"
	"github.com/alfredjeanlab/leadconsole/internal/ui"
)

// leadFlags binds the per-field flags shared by add and edit.
type leadFlags struct {
	name, email, status, message string
}

func (f *leadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "lead name")
	cmd.Flags().StringVar(&f.email, "email", "", "lead email")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "new|contacted|qualified|lost")
	cmd.Flags().StringVarP(&f.message, "message", "m", "", "AI message")
}

// apply copies every flag given on the command line into the session
// buffer and reports how many were set.
func (f *leadFlags) apply(cmd *cobra.Command, s *edit.Session) (int, error) {
	set := 0
	for _, p := range []struct {
		flag  string
		field model.Field
		value string
	}{
		{"name", model.FieldName, f.name},
		{"email", model.FieldEmail, f.email},
		{"status", model.FieldStatus, f.status},
		{"message", model.FieldAIMessage, f.message},
	} {
		if !cmd.Flags().Changed(p.flag) {
			continue
		}
		if p.field == model.FieldStatus && !model.Status(p.value).IsValid() {
			return 0, fmt.Errorf("invalid status %q (want new, contacted, qualified or lost)", p.value)
		}
		if err := s.SetField(p.field, p.value); err != nil {
			return 0, err
		}
		set++
	}
	return set, nil
}

// fillFromForm shows the lead form prefilled with the buffer and writes
// the answers back field by field.
func (a *app) fillFromForm(ctx context.Context, title string, s *edit.Session) error {
	lead := s.Buffer()
	if err := a.prompter.LeadForm(ctx, title, &lead); err != nil {
		return err
	}
	for _, f := range model.Fields() {
		v, _ := lead.Get(f)
		if err := s.SetField(f, v); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) listCmd() *cobra.Command {
	var filter model.Filter
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List leads, optionally filtered",
		GroupID: "leads",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openConsole(cmd.Context())
			if err != nil {
				return err
			}
			c.SetSearch(filter.Search)
			if err := c.SetStatusFilter(model.Status(status)); err != nil {
				return err
			}

			visible := c.Visible()
			if a.jsonOutput {
				return printJSON(a.out, visible)
			}
			printLeadTable(a.out, visible, c.Store().Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "match name, email or AI message (case-insensitive)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only show leads with this status: new|contacted|qualified|lost")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var flags leadFlags
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a lead",
		GroupID: "leads",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.openConsole(ctx)
			if err != nil {
				return err
			}
			s := c.Edit()
			if err := s.OpenNew(); err != nil {
				return err
			}
			defer s.Cancel()

			set, err := flags.apply(cmd, s)
			if err != nil {
				return err
			}
			if set < len(model.Fields()) {
				// Without a terminal the draft is submitted as-is and
				// validation reports the missing fields.
				if err := a.fillFromForm(ctx, "New lead", s); err != nil && !errors.Is(err, ui.ErrNotInteractive) {
					return err
				}
			}

			created, err := s.Submit(ctx)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, created)
			}
			fmt.Fprintf(a.out, "%s %s\n", ui.RenderSuccess("Created"), created.ID)
			printLead(a.out, created)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var flags leadFlags
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a lead's fields",
		GroupID: "leads",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.openConsole(ctx)
			if err != nil {
				return err
			}
			lead, ok := c.Store().Get(args[0])
			if !ok {
				return fmt.Errorf("lead %s not found", args[0])
			}
			s := c.Edit()
			if err := s.OpenExisting(lead); err != nil {
				return err
			}
			defer s.Cancel()

			set, err := flags.apply(cmd, s)
			if err != nil {
				return err
			}
			if set == 0 {
				if err := a.fillFromForm(ctx, "Edit lead", s); err != nil {
					if errors.Is(err, ui.ErrNotInteractive) {
						return errors.New("nothing to change: pass --name, --email, --status or --message")
					}
					return err
				}
			}

			updated, err := s.Submit(ctx)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, updated)
			}
			fmt.Fprintf(a.out, "%s %s\n", ui.RenderSuccess("Updated"), updated.ID)
			printLead(a.out, updated)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a lead after confirmation",
		GroupID: "leads",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.openConsole(ctx)
			if err != nil {
				return err
			}

			var confirm store.Confirmer = a.prompter
			if yes {
				confirm = store.Always
			}
			err = c.Delete(ctx, args[0], confirm)
			if errors.Is(err, store.ErrNotConfirmed) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
