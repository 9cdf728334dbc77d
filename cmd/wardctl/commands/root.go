// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package commands implements the wardctl operator CLI.
package commands

import (
	"database/sql"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/ledger"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	dbURL  string
	dbType string
}

// NewRootCmd builds the wardctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "wardctl",
		Short: "wardctl - operate squareledger wards",
		Long: `wardctl provisions wards and inspects their squares, counters and
visit ledger directly in the squareledger database.

The database is taken from --db / --db-type, falling back to the
DATABASE_URL and DATABASE_TYPE environment variables.`,
		// Show help instead of silently succeeding without a subcommand
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.dbURL, "db", os.Getenv("DATABASE_URL"), "Database URL (env DATABASE_URL)")
	root.PersistentFlags().StringVar(&opts.dbType, "db-type", envOr("DATABASE_TYPE", db.TypeSQLite), "Database type: sqlite, postgres or pgx (env DATABASE_TYPE)")

	root.AddCommand(
		newProvisionCmd(opts),
		newStatsCmd(opts),
		newSquaresCmd(opts),
		newVisitsCmd(opts),
		newAuditCmd(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// openStore connects to the configured database. The caller closes the
// returned connection.
func (o *globalOptions) openStore(cmd *cobra.Command) (*ledger.Store, *sql.DB, error) {
	if o.dbURL == "" {
		return nil, nil, printError(cmd.ErrOrStderr(), "no database configured",
			"wardctl needs to know which squareledger database to open.",
			[]string{"Pass --db <url>", "Set DATABASE_URL in the environment"})
	}

	conn, err := db.Open(cmd.Context(), o.dbType, o.dbURL)
	if err != nil {
		return nil, nil, printError(cmd.ErrOrStderr(), "cannot open database", err.Error(), nil)
	}
	return ledger.NewStore(conn, o.dbType), conn, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
