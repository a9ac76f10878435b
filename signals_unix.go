// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

//go:build !windows

package cronqueue

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// waitForSignals waits for signals and handles them.
// SIGTERM and SIGINT signal the process to exit.
// SIGTSTP stops draining without exiting.
func (w *Worker) waitForSignals() {
	w.logger.Info("Listening for signals...")
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	defer signal.Stop(sigs)
	for {
		sig := <-sigs
		if sig == unix.SIGTSTP {
			w.Stop()
			continue
		}
		break
	}
}
