package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/leadconsole/internal/events"
	"github.com/alfredjeanlab/leadconsole/internal/export"
	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/ui"
)

func (a *app) statsCmd() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Show lead counts by status",
		GroupID: "reports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var stats model.Stats
			if local {
				c, err := a.openConsole(ctx)
				if err != nil {
					return err
				}
				stats = c.Stats()
			} else {
				err := a.gate().Guard(ctx, func(ctx context.Context, token string) error {
					a.client.SetToken(token)
					s, err := a.client.Stats(ctx)
					if err != nil {
						return err
					}
					stats = *s
					return nil
				})
				if err != nil {
					return err
				}
			}

			if a.jsonOutput {
				return printJSON(a.out, stats)
			}
			printStats(a.out, stats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "tally the loaded leads instead of asking the server")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		outPath string
		toS3    bool
		every   time.Duration
	)
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the leads as JSONL to stdout, a file or S3",
		GroupID: "reports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("every") {
				every = a.cfg.ExportInterval
			}

			var dests []export.Destination
			if outPath != "" {
				dests = append(dests, export.NewFileDestination(outPath))
			}
			if toS3 {
				if a.cfg.ExportS3Bucket == "" {
					return errors.New("--s3 needs LEADS_EXPORT_S3_BUCKET")
				}
				d, err := export.NewS3Destination(ctx, a.cfg.ExportS3Bucket, a.cfg.ExportS3Key,
					a.cfg.ExportS3Region, a.cfg.ExportS3Endpoint)
				if err != nil {
					return err
				}
				dests = append(dests, d)
			}
			if every > 0 && len(dests) == 0 {
				return errors.New("--every needs --out or --s3")
			}

			c, err := a.openConsole(ctx)
			if err != nil {
				return err
			}
			// A one-shot export never writes the fallback snapshot.
			if every == 0 {
				if err := c.LoadErr(); err != nil {
					return err
				}
			}
			if len(dests) == 0 {
				return export.WriteJSONL(c.Store().Snapshot(), a.out)
			}
			if every == 0 {
				if err := export.Run(ctx, c.Store().Snapshot(), dests, a.logger); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Exported %d leads\n", c.Store().Len())
				return nil
			}

			source := func(ctx context.Context) ([]model.Lead, error) {
				if err := c.Store().Load(ctx); err != nil {
					return nil, err
				}
				return c.Store().Snapshot(), nil
			}
			sched := export.NewScheduler(source, dests, every, a.logger)
			sched.Start(ctx)
			fmt.Fprintf(a.errOut, "Exporting every %s; interrupt to stop\n", every)
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file")
	cmd.Flags().BoolVar(&toS3, "s3", false, "upload to LEADS_EXPORT_S3_BUCKET")
	cmd.Flags().DurationVar(&every, "every", 0, "keep running and re-export at this interval (env LEADS_EXPORT_INTERVAL)")
	return cmd
}

func (a *app) eventsCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:     "events",
		Short:   "Tail lead changes announced on NATS",
		GroupID: "reports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.NATSURL == "" {
				return errors.New("LEADS_NATS_URL is not set")
			}
			sub, err := a.subscribe(a.cfg.NATSURL, a.logger)
			if err != nil {
				return err
			}
			defer sub.Close()

			ch, cancel, err := sub.Subscribe(topic)
			if err != nil {
				return err
			}
			defer cancel()
			return a.tailEvents(cmd.Context(), ch)
		},
	}
	cmd.Flags().StringVar(&topic, "topic", events.TopicAll, "NATS subject to follow")
	return cmd
}

// tailEvents prints events until ctx ends or ch closes.
func (a *app) tailEvents(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if a.jsonOutput {
				if err := printJSON(a.out, e); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(a.out, formatEvent(e))
		}
	}
}

func formatEvent(e events.Event) string {
	ts := ui.RenderMuted(e.At.Local().Format("15:04:05"))
	switch e.Topic {
	case events.TopicLeadCreated, events.TopicLeadUpdated:
		verb := "created"
		if e.Topic == events.TopicLeadUpdated {
			verb = "updated"
		}
		if e.Lead != nil {
			return fmt.Sprintf("%s %s %s %s (%s)", ts, verb, e.LeadID, e.Lead.Name, ui.RenderStatus(e.Lead.Status))
		}
		return fmt.Sprintf("%s %s %s", ts, verb, e.LeadID)
	case events.TopicLeadDeleted:
		return fmt.Sprintf("%s deleted %s", ts, e.LeadID)
	case events.TopicSnapshotLoaded:
		return fmt.Sprintf("%s loaded %d leads", ts, e.Count)
	}
	return fmt.Sprintf("%s %s", ts, e.Topic)
}
