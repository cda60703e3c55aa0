package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/franz/musicdb/internal/settings"
	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "musicdb",
		Short: "Music library metadata database",
		Long: `musicdb maintains the SQLite database that holds a music library's
metadata: shares, folders, artists, albums, genres and songs.

The database lives in MusicDatabase.db3 inside the database directory and is
created on first use.`,
		Version:           Version,
		PersistentPreRunE: setupLogging,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { util.CloseLogFile() },
		SilenceUsage:      true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/musicdb/config.yaml)")
	rootCmd.PersistentFlags().String("db-dir", defaultDatabaseDir(), "directory holding MusicDatabase.db3")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored log output")

	// Bind flags to viper
	viper.BindPFlag("db-dir", rootCmd.PersistentFlags().Lookup("db-dir"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "musicdb"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("MUSICDB")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func defaultDatabaseDir() string {
	return filepath.Join(xdg.DataHome, "musicdb")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if name := viper.GetString("log.level"); name != "" {
		level, err := util.ParseLogLevel(name)
		if err != nil {
			return err
		}
		util.SetLogLevel(level)
	}
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
	if viper.GetBool("no-color") {
		util.SetColors(false)
	}

	if path := viper.GetString("log-file"); path != "" {
		util.EnableLogFile(util.LogFileConfig{
			Path:       path,
			MaxSizeMB:  util.ConfigInt(viper.GetViper(), "log.maxSizeMB", 10),
			MaxBackups: util.ConfigInt(viper.GetViper(), "log.maxBackups", 3),
			MaxAgeDays: util.ConfigInt(viper.GetViper(), "log.maxAgeDays", 28),
		})
	}
	return nil
}

// openStore opens the database in the configured directory. When the file
// had to be created, the reset import watermark is written back to the
// config.
func openStore(ctx context.Context) (*store.Store, *settings.Settings, error) {
	cfg := settings.Load(viper.GetViper())

	db, err := store.Open(ctx, store.Options{
		Dir:      viper.GetString("db-dir"),
		Settings: cfg,
	})
	if err != nil {
		return nil, nil, err
	}

	if db.Created() {
		if err := settings.SaveLastImport(viper.GetViper(), cfg.LastImport); err != nil {
			util.WarnLog("Failed to reset %s: %v", settings.KeyLastImport, err)
		}
	}
	return db, cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
