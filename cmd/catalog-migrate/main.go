package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"salesadmin/application/commands"
	"salesadmin/application/services"
	"salesadmin/infrastructure/config"
	"salesadmin/infrastructure/di"
	"salesadmin/pkg/errors"
)

type migrateOutput struct {
	Command    string                   `json:"command"`
	DurationMS int64                    `json:"duration_ms"`
	Result     services.MigrationResult `json:"result"`
}

func newRootCmd() *cobra.Command {
	var (
		dry      bool
		envFiles []string
	)

	cmd := &cobra.Command{
		Use:           "catalog-migrate",
		Short:         "Move flat legacy products into the company/category/subcategory tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(envFiles...)
			if err != nil {
				return err
			}
			container, cleanup, err := di.InitializeContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			result, err := container.CommandBus.Dispatch(cmd.Context(), commands.MigrateFlatProductsCommand{DryRun: dry})
			if err != nil {
				if errors.IsPartialFailure(err) {
					fmt.Fprintf(os.Stderr, "migration stopped after %d products were moved; rerun to continue\n", errors.CommittedCount(err))
				}
				return err
			}

			return writeJSON(migrateOutput{
				Command:    "catalog-migrate",
				DurationMS: time.Since(start).Milliseconds(),
				Result:     result.(services.MigrationResult),
			})
		},
	}

	cmd.Flags().BoolVar(&dry, "dry", false, "Report the planned moves without writing")
	cmd.Flags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Env files filling unset variables")
	return cmd
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
