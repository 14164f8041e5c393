// Package main provides the specimen-labels command line tool. It runs
// the same labeling operations as the MCP server in batch form.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/specimen-labels/internal/placement"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps validation problems to exitUserError and everything else
// to exitSysError.
func exitCode(err error) int {
	var valErr *placement.ValidationError
	if errors.As(err, &valErr) || errors.Is(err, errUsage) {
		return exitUserError
	}
	return exitSysError
}
