// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/hemant/cronqueue"
	"github.com/spf13/cobra"
)

func newCreateCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a queue from its fetcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			n, err := app.Creator().Create(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("unable to create queue %q: %w", q.Name(), err)
			}
			success(cmd, "Queue %q created with %d entries.", q.Name(), n)
			return nil
		},
	}
}

func newDeleteCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a queue with its entries and lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			if err := q.Delete(cmd.Context()); err != nil {
				return fmt.Errorf("unable to delete queue %q: %w", q.Name(), err)
			}
			success(cmd, "Queue %q deleted.", q.Name())
			return nil
		},
	}
}

func newClearCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <name>",
		Short: "Remove every entry of a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			if err := q.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("unable to clear queue %q: %w", q.Name(), err)
			}
			success(cmd, "Queue %q cleared.", q.Name())
			return nil
		},
	}
}

func newSizeCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "size <name>",
		Short: "Print the number of entries in a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			if !q.Exists(cmd.Context()) {
				return fmt.Errorf("queue %q does not exist", q.Name())
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Queue %q has %d entries.\n", q.Name(), q.Size(cmd.Context()))
			return nil
		},
	}
}

func fetch(cmd *cobra.Command, app *cronqueue.App, q cronqueue.Queue) error {
	n, err := app.Enqueuer().Fetch(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("unable to fetch into queue %q: %w", q.Name(), err)
	}
	success(cmd, "Fetched %d entries into queue %q.", n, q.Name())
	return nil
}

func newFetchCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <name>",
		Short: "Fetch new entries and append them to a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			return fetch(cmd, app, q)
		},
	}
}

func newEnqueueCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <name> [payload]",
		Short: "Append an entry to a queue, or fetch new entries without a payload",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return fetch(cmd, app, q)
			}
			if !app.Enqueuer().Enqueue(cmd.Context(), q, cronqueue.NewEntry([]byte(args[1]))) {
				return fmt.Errorf("unable to enqueue into queue %q", q.Name())
			}
			success(cmd, "Enqueued an entry into queue %q.", q.Name())
			return nil
		},
	}
}

// loggerSetter is implemented by queues whose logger can be swapped.
type loggerSetter interface {
	SetLogger(l cronqueue.Logger, level cronqueue.LogLevel)
}

func newDequeueCommand(app *cronqueue.App) *cobra.Command {
	var level cronqueue.LogLevel
	cmd := &cobra.Command{
		Use:   "dequeue <name> [logger]",
		Short: "Handle the entry at the head of a queue",
		Long: `Handle the entry at the head of a queue.

The optional logger argument names a logger registered by the host program.
The queue logs through it for this run.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lookup(app, args)
			if err != nil {
				return err
			}
			if len(args) == 2 || cmd.Flags().Changed("log-level") {
				l := app.DefaultLogger()
				if len(args) == 2 {
					var ok bool
					if l, ok = app.Logger(args[1]); !ok {
						return fmt.Errorf("logger %q is not registered", args[1])
					}
				}
				s, ok := q.(loggerSetter)
				if !ok {
					return fmt.Errorf("queue %q does not accept a logger", q.Name())
				}
				if level == 0 {
					level = app.LogLevel()
				}
				s.SetLogger(l, level)
			}
			e, err := app.Dequeuer().Dequeue(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("unable to dequeue from queue %q: %w", q.Name(), err)
			}
			if e == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Nothing was handled in queue %q.\n", q.Name())
				return nil
			}
			success(cmd, "Dequeued an entry from queue %q. %d entries left.", q.Name(), q.Size(cmd.Context()))
			return nil
		},
	}
	addLogLevelFlag(cmd.Flags(), &level)
	return cmd
}

func newListCommand(app *cronqueue.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the registered queues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tEXISTS\tSIZE")
			for _, q := range app.Registry().Queues() {
				ctx := cmd.Context()
				exists := q.Exists(ctx)
				size := 0
				if exists {
					size = q.Size(ctx)
				}
				_, _ = fmt.Fprintf(tw, "%s\t%t\t%d\n", q.Name(), exists, size)
			}
			return tw.Flush()
		},
	}
}
