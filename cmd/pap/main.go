package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/drunlade/go-pap/pap"
)

const versionString = "pap version 0.1.0"

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := signalContext(sigChan)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("✗ "+describe(err)))
		return 1
	}
	return 0
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	kind, ok := pap.KindOf(err)
	if !ok {
		return "Error: " + err.Error()
	}
	switch kind {
	case pap.ErrConnectFailure, pap.ErrConnectionClosed, pap.ErrTimeout:
		return "Connection error: " + err.Error()
	case pap.ErrRemoteOperationFailed:
		return "Server reported error (path missing or not accessible): " + err.Error()
	case pap.ErrLocalFileNotFound:
		return "File not found: " + err.Error()
	case pap.ErrInvalidFrameLength, pap.ErrProtocol:
		return "Invalid response or request: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func signalContext(sigChan chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
