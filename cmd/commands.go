package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "job-insights",
		Short:         "Shows applicant and view counts of job postings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Browse the configured jobs and show their insights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Get()
			logger.Setup(cfg.Logger)
			defer logger.Cleanup()

			return run(cmd.Context(), cfg)
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored insights and the history to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Get()

			b, err := connectBackground(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			snapshot, err := b.client.Export(cmd.Context())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			if err = os.WriteFile(out, data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d keys to %s\n", len(snapshot), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "job-insights-export.json", "File to write the snapshot to")
	return cmd
}

func newImportCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace all stored insights with a previously exported JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			snapshot, err := models.ParseSnapshot(data)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}

			cfg := config.Get()

			b, err := connectBackground(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			if err = b.client.Import(cmd.Context(), snapshot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d keys from %s\n", len(snapshot), in)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Exported JSON file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
