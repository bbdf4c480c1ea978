package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show your balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			check, _ := cmd.Flags().GetBool("check")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			balance := s.user.BalanceCents
			printf(cmd, "Balance: %s\n", cli.FormatBalance(balance, model.FormatCents(balance)))
			if !check {
				return nil
			}

			rec, err := s.engine.Reconcile(cmd.Context(), s.user)
			if err != nil {
				return err
			}
			if !rec.Balanced() {
				printLine(cmd, cli.FormatWarning(fmt.Sprintf("Transactions sum to %s, %s off the stored balance",
					model.FormatCents(rec.ComputedCents), model.FormatCents(rec.DriftCents()))))
				return fmt.Errorf("balance does not match transactions")
			}
			printLine(cmd, cli.FormatSuccess("Balance matches the sum of your transactions"))
			return nil
		},
	}
	cmd.Flags().Bool("check", false, "Also verify the balance against the sum of transactions")
	return cmd
}
