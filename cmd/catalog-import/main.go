package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/infrastructure/config"
	"salesadmin/infrastructure/di"
	"salesadmin/infrastructure/spreadsheet"
	"salesadmin/pkg/errors"
)

type importOutput struct {
	Command    string                        `json:"command"`
	File       string                        `json:"file"`
	DurationMS int64                         `json:"duration_ms"`
	Result     commands.ImportProductsResult `json:"result"`
}

func newRootCmd() *cobra.Command {
	var (
		file     string
		sheet    string
		clearAll bool
		envFiles []string
	)

	cmd := &cobra.Command{
		Use:           "catalog-import",
		Short:         "Import products from an .xlsx or .csv sheet into the catalog",
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

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			rows, err := spreadsheet.ReadFile(f, file, sheet)
			if err != nil {
				return err
			}
			container.Logger.Info("Sheet loaded", zap.String("file", file), zap.Int("rows", len(rows)))

			start := time.Now()
			result, err := container.CommandBus.Dispatch(cmd.Context(), commands.ImportProductsCommand{
				Rows:   rows,
				Clear:  clearAll,
				Source: filepath.Base(file),
			})
			if err != nil {
				if errors.IsPartialFailure(err) {
					fmt.Fprintf(os.Stderr, "import stopped after %d products were written\n", errors.CommittedCount(err))
				}
				return err
			}

			return writeJSON(importOutput{
				Command:    "catalog-import",
				File:       file,
				DurationMS: time.Since(start).Milliseconds(),
				Result:     result.(commands.ImportProductsResult),
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the .xlsx, .xlsm or .csv file (required)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every existing product before importing")
	cmd.Flags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Env files filling unset variables")
	_ = cmd.MarkFlagRequired("file")
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
