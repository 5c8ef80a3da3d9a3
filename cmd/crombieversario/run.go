package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crombie/crombieversario/internal/dispatch"
)

func newRunCmd(load loader) *cobra.Command {
	var (
		date   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the anniversary batch once and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := openCore(ctx, load, true)
			if err != nil {
				return err
			}
			defer func() { _ = c.close(context.Background()) }()

			day := c.today()
			if date != "" {
				if day, err = time.ParseInLocation(time.DateOnly, date, c.loc); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			svc, err := c.buildServices(ctx)
			if err != nil {
				return err
			}
			report, err := svc.batch.Run(ctx, day, dispatch.DryRun(dryRun))
			if report != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "run as if today were this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the due emails without sending or recording them")
	return cmd
}
