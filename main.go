// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"spectro/cmd"
	applog "spectro/internal/log"
	"spectro/pkg/build"
)

// main wires build information, signal handling and the command tree.
//
// Every command works on complete in-memory signals and matrices. An
// interrupt cancels the context passed to the commands, which stops the
// transform workers, the column publisher and playback.
func main() {
	// Development builds run without injected build flags.
	if err := build.Initialize(); err != nil {
		applog.Debugf("build info incomplete: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}
