package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/compound-data-tool/internal/backup"
)

func newBackupCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the local store to S3 compatible storage",
		Long: `Writes every cached summary into a gzipped JSON archive and uploads it to
BACKUP_S3_BUCKET under BACKUP_S3_PREFIX. With --output the archive is written
to a local file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			runner := &backup.Runner{
				DB:     a.db,
				Prefix: a.cfg.Backup.Prefix,
				Keep:   a.cfg.Backup.Keep,
				Log:    a.log,
			}

			if output != "" {
				body, n, err := runner.Build(cmd.Context())
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, body, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(out, "Backup of %d compounds written to %s\n", n, output)
				return nil
			}

			store, err := backup.NewS3Store(cmd.Context(), a.cfg.Backup)
			if err != nil {
				return err
			}
			runner.Store = store
			key, err := runner.Upload(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Backup uploaded to s3://%s/%s\n", a.cfg.Backup.Bucket, key)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the archive to this file instead of uploading")
	return cmd
}
