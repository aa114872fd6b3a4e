package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database migrates it.
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()
			app.log.Info("schema is up to date")
			return nil
		},
	}
}
