package main

import (
	"github.com/spf13/cobra"

	"github.com/docsmith-dev/docsmith/internal/config"
	"github.com/docsmith-dev/docsmith/internal/deploy"
	"github.com/docsmith-dev/docsmith/internal/errors"
)

func deployCmd() *cobra.Command {
	var (
		bucket string
		region string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Publish the built site to S3",
		Long: `Upload the output directory to the configured S3 bucket and prune
remote objects that no longer exist locally.

Credentials are read from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}

			if bucket != "" {
				cfg.Deploy.Bucket = bucket
			}
			if region != "" {
				cfg.Deploy.Region = region
			}
			if prefix != "" {
				cfg.Deploy.Prefix = prefix
			}

			if cfg.Deploy.Bucket == "" {
				return errors.Newf(errors.CategoryDeploy, "no deploy bucket configured")
			}

			client, err := deploy.NewClientFromEnv(cfg.Deploy.Region)
			if err != nil {
				return err
			}

			summary, err := deploy.New(client, cfg.Deploy).Deploy(cmd.Context(), cfg.OutputPath())
			if err != nil {
				return err
			}

			success("Deployed %d files to s3://%s (%d pruned)", summary.Uploaded, cfg.Deploy.Bucket, summary.Pruned)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to deploy into")
	cmd.Flags().StringVar(&region, "region", "", "AWS region of the bucket")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix for uploaded objects")

	return cmd
}
