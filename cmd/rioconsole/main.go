// Package main provides the rioconsole CLI entrypoint.
//
// rioconsole emulates the roboRIO console stream on TCP 1740 so a
// driver station client can be exercised without robot hardware. Point
// the driver station at localhost (team number 0) and set the dashboard
// to None; Shuffleboard otherwise grabs port 1740.
//
// Usage:
//
//	rioconsole [messages-per-sec]
//
// Exit codes:
//   - 0: clean shutdown (SIGINT/SIGTERM)
//   - 1: invalid arguments
//   - 2: bind or serve failure
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/rioconsole/log"
	"github.com/justapithecus/rioconsole/metrics"
	"github.com/justapithecus/rioconsole/server"
	"github.com/justapithecus/rioconsole/types"
)

const (
	exitSuccess    = 0
	exitUsageError = 1
	exitServeError = 2
)

// defaultRate is the messages-per-second used when no argument is given.
const defaultRate = 10

func main() {
	app := &cli.App{
		Name:           "rioconsole",
		Usage:          "Fake roboRIO console server - streams stdout frames on TCP 1740",
		Version:        types.Version,
		ArgsUsage:      "[messages-per-sec]",
		Action:         serveAction,
		ExitErrHandler: exitErrHandler,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit; this branch is only
		// reached if it didn't.
		os.Exit(exitServeError)
	}
}

// exitErrHandler handles errors from the CLI, respecting cli.ExitCoder.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitServeError)
}

// parseRate parses the optional positional rate argument.
// A missing argument means defaultRate; anything that is not a positive
// integer is a configuration error.
func parseRate(arg string) (int, error) {
	if arg == "" {
		return defaultRate, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("messages-per-sec must be an integer, got %q", arg)
	}
	if n <= 0 {
		return 0, fmt.Errorf("messages-per-sec must be positive, got %d", n)
	}
	return n, nil
}

func serveAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("too many arguments: expected [messages-per-sec]", exitUsageError)
	}

	msgRate, err := parseRate(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitUsageError)
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := log.NewLogger(server.DefaultAddr, msgRate)
	logger.Sugar().Infof("serving console frames on %s at %d msgs/sec; set team to 0 in the driver station", server.DefaultAddr, msgRate)

	collector := metrics.NewCollector(server.DefaultAddr, msgRate)
	srv := server.New(server.DefaultAddr, msgRate, logger, collector)

	if err := srv.Serve(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("serve: %v", err), exitServeError)
	}
	return cli.Exit("", exitSuccess)
}
