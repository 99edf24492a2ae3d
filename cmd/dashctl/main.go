// Command dashctl runs household dashboard jobs from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oldfield/dashboard/config"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/oldfield/dashboard/internal/sheet"
	"github.com/spf13/cobra"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Household dashboard operator commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			if logLevel == "" {
				logLevel = "info"
			}
			return config.ConfigureLogging(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default LOG_LEVEL or info)")

	root.AddCommand(newIngestCmd(), newHealthCmd())
	return root
}

// exitCode maps configuration and input file problems to a usage exit and everything else to failure
func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrMissingSource),
		errors.Is(err, services.ErrSourceNotFound),
		errors.Is(err, services.ErrEmptyWorkbook),
		errors.Is(err, sheet.ErrUnsupportedFormat),
		errors.Is(err, sheet.ErrUnreadable),
		errors.Is(err, errConfig):
		return exitUsage
	default:
		return exitFailure
	}
}

var errConfig = errors.New("configuration error")
