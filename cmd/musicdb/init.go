package main

import (
	"context"

	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database if it does not exist",
	Long: `Create MusicDatabase.db3 in the database directory with the current
schema. An existing database is opened and its schema version checked. A
legacy MusicDatabaseV12.db3 is moved aside to MusicDatabaseV12-backup.db3.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	db, _, err := openStore(context.Background())
	if err != nil {
		return err
	}
	defer db.Close()

	if db.Created() {
		util.SuccessLog("Created %s (schema version %d)", db.Path(), store.SchemaVersion)
	} else {
		util.SuccessLog("Database %s is ready", db.Path())
	}
	return nil
}
