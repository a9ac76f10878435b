// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package cli provides the cobra command tree operating the queues
// registered in a cronqueue.App.
package cli

import (
	"fmt"

	"github.com/hemant/cronqueue"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCommand constructs the root command for the queues registered in app.
func NewRootCommand(app *cronqueue.App) *cobra.Command {
	root := &cobra.Command{
		Use:   "cronqueue",
		Short: "Operate persistent single-consumer queues",
		Long: `cronqueue operates the queues registered by the host program.

Queue Lifecycle:
  create    Fetch the initial entries and save the queue (overwrites)
  fetch     Fetch new entries and append them
  enqueue   Append a single entry given on the command line
  dequeue   Handle the entry at the head of the queue
  size      Print the number of stored entries
  clear     Remove every entry, keeping the queue
  delete    Remove the queue, its entries and its lock

Other:
  list      Print the registered queues
  work      Drain queues on an interval until interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newCreateCommand(app),
		newDeleteCommand(app),
		newClearCommand(app),
		newSizeCommand(app),
		newFetchCommand(app),
		newEnqueueCommand(app),
		newDequeueCommand(app),
		newListCommand(app),
		newWorkCommand(app),
	)
	return root
}

// lookup returns the registered queue named by the first argument.
func lookup(app *cronqueue.App, args []string) (cronqueue.Queue, error) {
	return app.Registry().Get(args[0])
}

func success(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Success: "+format+"\n", args...)
}

func addLogLevelFlag(fs *pflag.FlagSet, level *cronqueue.LogLevel) {
	fs.Var(level, "log-level", "minimum log level (debug, info, notice, warning, error, critical, alert, emergency)")
}
