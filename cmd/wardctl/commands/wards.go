// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/squareledger/auth"
	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/models"
)

// gridColumns is the width of the printed square grid.
const gridColumns = 20

func newProvisionCmd(opts *globalOptions) *cobra.Command {
	var displayName, salt string

	cmd := &cobra.Command{
		Use:   "provision WARD_ID",
		Short: "Create a ward with 365 free squares",
		Long: `Create a ward, its 365 unclaimed squares and its zeroed counters.

The schema is created first if the database is empty. When an admin key salt
is available (--admin-salt or ADMIN_KEY_SALT) the ward's admin key is printed;
it is required to read the visit ledger over HTTP.

Examples:
  wardctl provision cedar-hills --name "Cedar Hills Ward"
  wardctl --db postgres://... --db-type pgx provision oak-grove-2nd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, conn, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.CreateSchema(cmd.Context(), conn); err != nil {
				return printError(cmd.ErrOrStderr(), "cannot create schema", err.Error(), nil)
			}

			ward, err := store.ProvisionWard(cmd.Context(), args[0], displayName)
			if errors.Is(err, ledger.ErrWardExists) {
				return printError(cmd.ErrOrStderr(), "ward already exists",
					fmt.Sprintf("Ward %q has already been provisioned.", args[0]),
					[]string{fmt.Sprintf("Inspect it with: wardctl stats %s", args[0])})
			}
			if err != nil {
				return printError(cmd.ErrOrStderr(), "cannot provision ward", err.Error(), nil)
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Provisioned %s (%s) with %d squares\n", ward.ID, ward.DisplayName, models.SquaresPerWard)
			if salt == "" {
				printWarning(out, "No admin key salt set; admin key not shown\n")
				return nil
			}
			fmt.Fprintf(out, "Admin key: %s\n", auth.GenerateAdminKey(ward.ID, salt))
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name (defaults to the ward ID)")
	cmd.Flags().StringVar(&salt, "admin-salt", os.Getenv("ADMIN_KEY_SALT"), "Admin key salt (env ADMIN_KEY_SALT)")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats WARD_ID",
		Short: "Show a ward's visit counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, conn, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			ward, err := store.Ward(cmd.Context(), args[0])
			if err != nil {
				return wardError(cmd, args[0], err)
			}
			stats, err := store.Stats(cmd.Context(), args[0])
			if err != nil {
				return wardError(cmd, args[0], err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(models.WardWithStats{Ward: ward, Stats: stats})
			}

			cyan.Fprintf(out, "%s\n", ward.DisplayName)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Ward\t%s\n", ward.ID)
			fmt.Fprintf(tw, "Total visits\t%d\n", stats.TotalVisits)
			fmt.Fprintf(tw, "Squares filled\t%d / %d\n", stats.SquaresFilled, models.SquaresPerWard)
			fmt.Fprintf(tw, "Bonus visits\t%d\n", stats.TotalBonusVisits)
			last := "never"
			if stats.LastVisitAt != nil {
				last = stats.LastVisitAt.Local().Format(time.RFC1123)
			}
			fmt.Fprintf(tw, "Last visit\t%s\n", last)
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newSquaresCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "squares WARD_ID",
		Short: "Print the 365-square grid",
		Long: `Print every square of a ward. Claimed squares are shown in green,
free squares faint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, conn, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			squares, err := store.Squares(cmd.Context(), args[0])
			if err != nil {
				return wardError(cmd, args[0], err)
			}

			out := cmd.OutOrStdout()
			claimed := 0
			for i, sq := range squares {
				if sq.Claimed {
					claimed++
					green.Fprintf(out, "%4d", sq.SquareNumber)
				} else {
					faint.Fprintf(out, "%4d", sq.SquareNumber)
				}
				if (i+1)%gridColumns == 0 {
					fmt.Fprintln(out)
				}
			}
			if len(squares)%gridColumns != 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "\n%d of %d squares claimed\n", claimed, len(squares))
			return nil
		},
	}
}

func newVisitsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "visits WARD_ID",
		Short: "List a ward's visit ledger, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, conn, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			visits, err := store.Visits(cmd.Context(), args[0], limit)
			if err != nil {
				return wardError(cmd, args[0], err)
			}

			out := cmd.OutOrStdout()
			if len(visits) == 0 {
				fmt.Fprintln(out, "No visits recorded")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tNAME\tMODE\tSQUARE\tNOTE")
			for _, v := range visits {
				square, note := "bonus", ""
				if v.SquareNumber != nil {
					square = fmt.Sprintf("%d", *v.SquareNumber)
				}
				if v.CollisionResolved {
					note = "collision"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					v.CreatedAt.Local().Format("2006-01-02 15:04:05"), v.Name, v.Mode, square, note)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of visits to show")
	return cmd
}

func newAuditCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit WARD_ID",
		Short: "Check that a ward's counters agree with its squares and ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, conn, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := store.CheckConsistency(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, ledger.ErrWardNotFound) {
					return wardError(cmd, args[0], err)
				}
				return printError(cmd.ErrOrStderr(), "ward is inconsistent", err.Error(), nil)
			}

			printSuccess(cmd.OutOrStdout(), "%s is consistent\n", args[0])
			return nil
		},
	}
}

func wardError(cmd *cobra.Command, wardID string, err error) error {
	if errors.Is(err, ledger.ErrWardNotFound) {
		return printError(cmd.ErrOrStderr(), "ward not found",
			fmt.Sprintf("No ward %q in this database.", wardID),
			[]string{fmt.Sprintf("Create it with: wardctl provision %s", wardID)})
	}
	return printError(cmd.ErrOrStderr(), "query failed", err.Error(), nil)
}
