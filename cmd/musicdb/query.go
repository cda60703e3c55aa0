package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/franz/musicdb/internal/store"
	"github.com/franz/musicdb/internal/util"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql> [args...]",
	Short: "Run an SQL statement against the database",
	Long: `Run one SQL statement. Statements starting with SELECT, PRAGMA, WITH or
EXPLAIN print their rows as a table; anything else is executed as a write.
Extra arguments bind to ? placeholders in order.`,
	Example: `  musicdb query "SELECT ArtistName FROM Artist ORDER BY ArtistSortName"
  musicdb query "SELECT Title FROM Song WHERE Year = ?" 1977`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("no-header", false, "omit the column header row")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	stmt := args[0]
	params := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		params = append(params, a)
	}

	if !isReadStatement(stmt) {
		if err := db.Exec(ctx, stmt, params...); err != nil {
			return err
		}
		util.SuccessLog("Statement executed")
		return nil
	}

	rs, err := db.Query(ctx, stmt, params...)
	if err != nil {
		return err
	}

	noHeader, _ := cmd.Flags().GetBool("no-header")
	printResultSet(os.Stdout, rs, !noHeader)
	util.DebugLog("%d rows", rs.Len())
	return nil
}

func isReadStatement(stmt string) bool {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "PRAGMA", "WITH", "EXPLAIN", "VALUES":
		return true
	}
	return false
}

func printResultSet(w io.Writer, rs *store.ResultSet, header bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if header {
		fmt.Fprintln(tw, strings.Join(rs.Columns, "\t"))
	}
	for _, row := range rs.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
