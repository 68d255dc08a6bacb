// Package cmd defines the progresswatch CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/convert-progress/internal/app"
)

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. Tests replace it to inject fakes.
var newApp = app.NewApp

var errNoApp = errors.New("application not initialized")

// newRootCmd builds the command tree. The returned func closes the App built
// for the run and must be called once Execute returns, including on error.
func newRootCmd() (*cobra.Command, func()) {
	var (
		cfgFile string
		current *app.App
	)

	cmd := &cobra.Command{
		Use:   "progresswatch",
		Short: "Follow document conversion progress streams.",
		Long: `progresswatch subscribes to a conversion job's Server-Sent Events stream,
renders its progress in the terminal, and hands off to the result view when
the job completes.`,
		SilenceUsage: true,

		// Builds the shared services after flags are parsed and before the
		// subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			current = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newReplayCmd())
	cmd.AddCommand(newSessionsCmd())

	closeApp := func() {
		if current != nil {
			current.Close()
			current = nil
		}
	}
	return cmd, closeApp
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errNoApp
	}
	return a, nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root, closeApp := newRootCmd()
	err := root.ExecuteContext(ctx)
	closeApp()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "progresswatch:", err)
		os.Exit(1)
	}
}
