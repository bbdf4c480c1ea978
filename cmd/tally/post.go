package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

func depositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit <amount> <description>",
		Short: "Record money coming in",
		Example: `  tally deposit 1500 Paycheck
  tally deposit 20.50 "Sold bike" --date 2024-03-01 --memo craigslist`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, args, true)
		},
	}
	addPostFlags(cmd, "Deposit")
	return cmd
}

func withdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "withdraw <amount> <description>",
		Aliases: []string{"spend"},
		Short:   "Record money going out",
		Example: `  tally withdraw 42.50 Groceries --category food`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, args, false)
		},
	}
	addPostFlags(cmd, "Misc")
	return cmd
}

func addPostFlags(cmd *cobra.Command, defaultCategory string) {
	cmd.Flags().StringP("category", "c", defaultCategory, "Category name, in any casing")
	cmd.Flags().StringP("date", "d", "", "Date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringP("memo", "m", "", "Optional memo")
}

func runPost(cmd *cobra.Command, args []string, deposit bool) error {
	categoryName, _ := cmd.Flags().GetString("category")
	dateFlag, _ := cmd.Flags().GetString("date")
	memo, _ := cmd.Flags().GetString("memo")

	cents, err := model.ParseCents(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	cat, err := s.engine.ResolveCategory(ctx, s.user, categoryName)
	if err != nil {
		return err
	}

	draft := s.engine.NewDraft().
		AsDeposit(deposit).
		WithDescription(strings.Join(args[1:], " ")).
		WithAmountCents(cents).
		WithCategory(*cat).
		WithMemo(memo)

	if dateFlag == "" {
		draft.WithDate(s.engine.Today())
	} else {
		date, err := model.ParseDate(dateFlag)
		if err != nil {
			return common.NewValidationError(model.FieldDate, "%v", err)
		}
		draft.WithDate(date)
	}

	receipt, err := s.engine.Post(ctx, s.user, draft)
	if err != nil {
		return err
	}

	txn := receipt.Transaction
	printLine(cmd, cli.FormatSuccess("Posted "+txn.String()))
	printf(cmd, "Balance: %s\n", cli.FormatBalance(receipt.BalanceCents, model.FormatCents(receipt.BalanceCents)))
	return nil
}
