package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userCreateCmd(), userRenameCmd(), userPasswdCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account with a zero balance and the default categories
N/A, Misc and Deposit. Username, full name and password are prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			draft, err := cli.NewPrompter(os.Stdin, cmd.ErrOrStderr()).SignUpDraft(ctx)
			if err != nil {
				return err
			}

			user, err := eng.SignUp(ctx, draft)
			if err != nil {
				return err
			}
			printLine(cmd, cli.FormatSuccess("Created account "+user.Username+" for "+user.FullName))
			return nil
		},
	}
}

func userRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <full name>",
		Short: "Change your full name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			name := strings.Join(args, " ")
			if err := s.engine.ChangeFullName(cmd.Context(), s.user, name); err != nil {
				return err
			}
			printLine(cmd, cli.FormatSuccess("Full name changed to "+s.user.FullName))
			return nil
		},
	}
}

func userPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			prompter := s.prompter
			current, err := prompter.AskSecret(ctx, "Current password")
			if err != nil {
				return err
			}
			next, err := prompter.NewPassword(ctx, "New password")
			if err != nil {
				return err
			}
			if err := s.engine.ChangePassword(ctx, s.user, current, next); err != nil {
				return err
			}
			printLine(cmd, cli.FormatSuccess("Password changed"))
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check your credentials and show your balance",
		Long: `Prompt for credentials, allowing three attempts, then greet the user
with their current balance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			printLine(cmd, cli.FormatTitle("Welcome, "+s.user.FullName))
			printf(cmd, "Balance: %s\n", cli.FormatBalance(s.user.BalanceCents, model.FormatCents(s.user.BalanceCents)))
			return nil
		},
	}
}
