package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/history"
	"github.com/Veraticus/tally/internal/report"
)

const historyExamples = `  tally history --filter "category = food" --filter "category = misc"
  tally history --filter "amount <= -10" --sort -amount --limit 20
  tally history --filter "amount <= -100" --filter "amount >= 100"
  tally history --filter "date between 2024-01-01 2024-01-31" --sort category --sort -date
  tally history --filter "description = Rent" --explain`

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("filter", "f", nil, `Filter as "attribute op value" (attributes: description, date, amount, category, memo; ops: =, >=, <=, between)`)
	cmd.Flags().StringArrayP("sort", "s", nil, `Sort key such as "date", "-amount" or "category desc" (up to 5)`)
}

// buildRequest parses the --filter and --sort flag values, collecting every
// problem before giving up.
func buildRequest(filters, sorts []string, limit, offset int) (history.Request, error) {
	req := history.Request{Limit: limit, Offset: offset}
	var problems []error

	for _, raw := range filters {
		f, err := history.ParseFilter(raw)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		req.Filters = append(req.Filters, f)
	}
	for _, raw := range sorts {
		k, err := history.ParseSortKey(raw)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		req.Sort = append(req.Sort, k)
	}

	if len(problems) == 0 {
		return req, nil
	}
	verr := &common.ValidationError{}
	for _, p := range problems {
		var v *common.ValidationError
		if errors.As(p, &v) {
			verr.Problems = append(verr.Problems, v.Problems...)
			continue
		}
		verr.Add("query", "%v", p)
	}
	return history.Request{}, verr
}

func requestFromFlags(cmd *cobra.Command) (history.Request, error) {
	filters, _ := cmd.Flags().GetStringArray("filter")
	sorts, _ := cmd.Flags().GetStringArray("sort")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return buildRequest(filters, sorts, limit, offset)
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show transactions matching filters",
		Long: `Show your transactions. Filters on the same attribute are alternatives
(OR); filters on different attributes must all hold (AND). A ">=" filter
followed by a "<=" filter on the same attribute forms one range. Rows are
ordered by the sort keys in the order given, then by date and insertion order.`,
		Example: historyExamples,
		Args:    cobra.NoArgs,
		RunE:    runHistory,
	}
	addQueryFlags(cmd)
	cmd.Flags().Int("limit", 0, "Maximum rows to show (default: history.default_limit)")
	cmd.Flags().Int("offset", 0, "Rows to skip")
	cmd.Flags().Bool("explain", false, "Print the composed query instead of running it")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	explain, _ := cmd.Flags().GetBool("explain")
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if explain {
		q, err := s.engine.Explain(ctx, s.user, req)
		if err != nil {
			return err
		}
		printLine(cmd, q.String())
		return nil
	}

	txns, err := s.engine.BuildAndRun(ctx, s.user, req)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		printLine(cmd, cli.FormatInfo("No matching transactions"))
		return nil
	}
	if err := report.HistoryTable(txns).Render(cmd.OutOrStdout(), cli.TableHeaderStyle); err != nil {
		return err
	}
	printLine(cmd, cli.FormatSubtle(fmt.Sprintf("%d transaction(s)", len(txns))))
	return nil
}

func totalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "totals",
		Short:   "Show per-category totals for matching transactions",
		Example: `  tally totals --filter "date >= 2024-01-01" --filter "amount <= -0.01"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters, _ := cmd.Flags().GetStringArray("filter")
			req, err := buildRequest(filters, nil, 0, 0)
			if err != nil {
				return err
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			totals, err := s.engine.Totals(cmd.Context(), s.user, req)
			if err != nil {
				return err
			}
			return report.TotalsTable(totals).Render(cmd.OutOrStdout(), cli.TableHeaderStyle)
		},
	}
	cmd.Flags().StringArrayP("filter", "f", nil, `Filter as "attribute op value"`)
	return cmd
}
