package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/docsmith-dev/docsmith/internal/build"
	"github.com/docsmith-dev/docsmith/internal/config"
)

func buildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the document set once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Output = output
			}

			result := build.New(cfg).Build(cmd.Context(), build.Options{})
			if !result.Success {
				return result.Error
			}

			success("Built %s in %s", cfg.OutputPath(), result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "dest-dir", "d", "", "Output directory for the site")

	return cmd
}
