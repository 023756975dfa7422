package main

import (
	"sort"

	"datahub-backend/internal/application/maintenance"
	"datahub-backend/internal/infrastructure/storage"

	"github.com/spf13/cobra"
)

// addMaintenanceCommands registers one subcommand per CSV correction.
func addMaintenanceCommands(root *cobra.Command) {
	names := make([]string, 0, len(maintenance.Commands))
	for name := range maintenance.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		root.AddCommand(newMaintenanceCmd(maintenance.Commands[name]))
	}
}

func newMaintenanceCmd(mc maintenance.Command) *cobra.Command {
	var (
		opts     maintenance.Options
		localDir string
	)
	cmd := &cobra.Command{
		Use:   mc.Name + " <bucket> <object-key>",
		Short: "Apply the " + mc.Name + " correction from a CSV file in S3",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader storage.ObjectReader
			if localDir != "" {
				reader = storage.DirReader{Root: localDir}
			} else {
				s3r, err := storage.NewS3Reader(cmd.Context(), storage.S3Config{
					Region:    cfg.AWSRegion,
					AccessKey: cfg.AWSAccessKeyID,
					SecretKey: cfg.AWSSecretAccessKey,
					Endpoint:  cfg.S3Endpoint,
				})
				if err != nil {
					return err
				}
				reader = s3r
			}
			runner := &maintenance.Runner{DB: deps.DB, Reader: reader}
			_, err := runner.Run(cmd.Context(), mc, args[0], args[1], opts)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "roll back every change after applying it")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace values that are already set")
	cmd.Flags().StringVar(&localDir, "local-dir", "", "read <bucket>/<object-key> below this directory instead of S3")
	return cmd
}
