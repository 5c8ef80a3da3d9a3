// Command crombieversario serves the anniversary dashboard API and runs the
// daily anniversary email batch.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crombie/crombieversario/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, error)

func newRootCmd() *cobra.Command {
	var envFiles []string
	root := &cobra.Command{
		Use:           "crombieversario",
		Short:         "Work anniversary emails for Crombie",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	load := func() (*config.Config, error) { return config.Load(envFiles...) }
	root.AddCommand(
		newServeCmd(load),
		newRunCmd(load),
		newMigrateCmd(load),
		newUserCmd(load),
	)
	return root
}
