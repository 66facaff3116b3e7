package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mroshb/jeju_points/internal/app"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/spf13/cobra"
)

func newSweepCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Refund and delete expired point boxes now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app.App) error {
				a.Metrics.ObserveSweepRun("cli")
				report, err := a.Boxes.SweepExpiredBoxes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d refunded=%d deleted=%d skipped=%d failed=%d points=%d\n",
					report.Scanned, report.Refunded, report.Deleted, report.Skipped, report.Failed, report.RefundedPoints)
				if report.Failed > 0 {
					return fmt.Errorf("%d boxes could not be swept", report.Failed)
				}
				return nil
			})
		},
	}
}

func newVerifyCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "verify USER_ID",
		Short: "Replay an account's ledger and compare it with the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, func(a *app.App) error {
				report, err := a.Points.VerifyLedger(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user=%s entries=%d balance=%d replayed=%d consistent=%t\n",
					report.UserID, report.Entries, report.Balance, report.Replayed, report.Consistent)
				return report.Err()
			})
		},
	}
}

func newExportCmd(open Opener) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export USER_ID",
		Short: "Write an account's ledger to an XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				path = "ledger-" + args[0] + ".xlsx"
			}
			return withApp(open, func(a *app.App) error {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := a.Points.ExportLedger(cmd.Context(), args[0], f); err != nil {
					f.Close()
					_ = os.Remove(path)
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default ledger-USER_ID.xlsx)")
	return cmd
}

func newGrantCmd(open Opener) *cobra.Command {
	var reason, operator string

	cmd := &cobra.Command{
		Use:   "grant [flags] USER_ID AMOUNT",
		Short: "Credit or debit an account as an admin",
		Long: `Credit (positive AMOUNT) or debit (negative AMOUNT) an account. Debits never take the balance below zero.
Flags go before USER_ID so a negative AMOUNT is not read as a flag.`,
		Example: `  pointsctl grant --reason "festival prize" alice 120
  pointsctl grant --as ops alice -20`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			admin := models.Principal{UserID: operator, Name: operator, Role: models.RoleAdmin}

			return withApp(open, func(a *app.App) error {
				log, err := a.Points.AdminGrant(cmd.Context(), admin, args[0], amount, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "log=%d user=%s amount=%d balance=%d\n",
					log.ID, log.UserID, log.Amount, log.Balance)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Ledger description")
	cmd.Flags().StringVar(&operator, "as", "pointsctl", "Admin id recorded as the granter")
	cmd.Flags().SetInterspersed(false)
	return cmd
}
