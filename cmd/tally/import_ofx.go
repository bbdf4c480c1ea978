package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Post transactions from OFX/QFX files",
		Long: `Post every line of OFX or QFX statements exported from your bank.

Credits go to the deposit category and debits to the withdrawal category.
Each line is posted on its own; lines that fail validation, such as ones
dated in the future, are skipped and listed.

Examples:
  # Import single file
  tally import-ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory, filing debits under Bank
  tally import-ofx ~/Downloads/*.qfx --category bank`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("category", "c", ofx.DefaultWithdrawalCategory, "Category for debits")
	cmd.Flags().String("deposit-category", ofx.DefaultDepositCategory, "Category for credits")
	cmd.Flags().BoolP("dry-run", "n", false, "Parse and list lines without posting")
	return cmd
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	withdrawals, _ := cmd.Flags().GetString("category")
	deposits, _ := cmd.Flags().GetString("deposit-category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	var entries []ofx.Entry
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := s.engine.ParseStatement(ctx, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		slog.Info("Parsed statement", "file", filepath.Base(path), "entries", len(parsed))
		entries = append(entries, parsed...)
	}

	if dryRun {
		for _, e := range entries {
			printf(cmd, "%s  %-20s  %12s  %s\n", e.Date.Format(model.DateLayout), e.Description, model.FormatCents(e.AmountCents), e.Memo)
		}
		printLine(cmd, cli.FormatInfo(fmt.Sprintf("%d lines would be posted", len(entries))))
		return nil
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Posting"),
		progressbar.OptionClearOnFinish(),
	)

	result, err := s.engine.ImportEntries(ctx, s.user, entries, ofx.ImportOptions{
		DepositCategory:    deposits,
		WithdrawalCategory: withdrawals,
	}, func() { _ = bar.Add(1) })
	_ = bar.Finish()

	printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Posted %d of %d lines", result.Posted, len(entries))))
	for _, skipped := range result.Skipped {
		e := skipped.Entry
		printLine(cmd, cli.FormatWarning(fmt.Sprintf("Skipped %s %s %s: %v",
			e.Date.Format(model.DateLayout), e.Description, model.FormatCents(e.AmountCents), skipped.Err)))
	}
	printf(cmd, "Balance: %s\n", cli.FormatBalance(s.user.BalanceCents, model.FormatCents(s.user.BalanceCents)))
	return err
}
