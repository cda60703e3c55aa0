package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/franz/musicdb/internal/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the effective library settings",
	Long: `Show the value of every setting the database and the importer read,
after defaults have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printSettings(os.Stdout, settings.Load(viper.GetViper()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func printSettings(w io.Writer, s *settings.Settings) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		key   string
		value any
	}{
		{settings.KeyTreatFolderAsAlbum, s.TreatFolderAsAlbum},
		{settings.KeyExtractThumbs, s.ExtractThumbs},
		{settings.KeyUseFolderThumbs, s.UseFolderThumbs},
		{settings.KeyUseAllImages, s.UseAllImages},
		{settings.KeyCreateMissingFolderThumbs, s.CreateMissingFolderThumbs},
		{settings.KeyCreateArtistThumbs, s.CreateArtistThumbs},
		{settings.KeyCreateGenreThumbs, s.CreateGenreThumbs},
		{settings.KeyExtensions, strings.Join(s.Extensions, ",")},
		{settings.KeyStripArtistPrefixes, s.StripArtistPrefixes},
		{settings.KeyArtistPrefixes, strings.Join(s.ArtistPrefixes, ", ")},
		{settings.KeyDateAdded, int(s.DateAdded)},
		{settings.KeyUpdateSinceLastImport, s.UpdateSinceLastImport},
		{settings.KeyLastImport, settings.FormatLastImport(s.LastImport)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%v\n", r.key, r.value)
	}
	tw.Flush()
}
